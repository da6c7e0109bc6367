package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/auth"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/lifecycle"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/rooms"
	"github.com/rpupo63/rooms-blog-backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testToken  = "good-token"
	testUserID = "user-1"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if token != testToken {
		return nil, errs.NewInvalidTokenError(nil)
	}
	return &auth.Identity{UserID: testUserID}, nil
}

type fakeBlogs struct {
	caller   string
	blogID   uuid.UUID
	create   lifecycle.CreateInput
	update   lifecycle.UpdateInput
	slugs    [2]string
	err      error
	blog     *models.Blog
	document *content.BlogDocument
}

func (f *fakeBlogs) CreateDraft(_ context.Context, userID string, in lifecycle.CreateInput) (*models.Blog, error) {
	f.caller, f.create = userID, in
	return f.blog, f.err
}

func (f *fakeBlogs) UpdateDraft(_ context.Context, userID string, blogID uuid.UUID, in lifecycle.UpdateInput) (*models.Blog, error) {
	f.caller, f.blogID, f.update = userID, blogID, in
	return f.blog, f.err
}

func (f *fakeBlogs) Edit(_ context.Context, userID string, blogID uuid.UUID, _ lifecycle.EditInput) (*models.Blog, error) {
	f.caller, f.blogID = userID, blogID
	return f.blog, f.err
}

func (f *fakeBlogs) Publish(_ context.Context, userID string, blogID uuid.UUID) (*models.Blog, error) {
	f.caller, f.blogID = userID, blogID
	return f.blog, f.err
}

func (f *fakeBlogs) FetchForEdit(_ context.Context, userID, roomSlug, blogSlug string) (*models.Blog, *content.BlogDocument, error) {
	f.caller, f.slugs = userID, [2]string{roomSlug, blogSlug}
	return f.blog, f.document, f.err
}

type fakeRooms struct {
	caller  string
	code    string
	slug    string
	room    *models.Room
	summary *rooms.Summary
	members []models.MemberWithProfile
	err     error
}

func (f *fakeRooms) Create(_ context.Context, userID string, _ rooms.CreateInput) (*models.Room, error) {
	f.caller = userID
	return f.room, f.err
}

func (f *fakeRooms) Join(_ context.Context, userID, code string) (*models.Room, error) {
	f.caller, f.code = userID, code
	return f.room, f.err
}

func (f *fakeRooms) Get(_ context.Context, userID, roomSlug string) (*rooms.Summary, error) {
	f.caller, f.slug = userID, roomSlug
	return f.summary, f.err
}

func (f *fakeRooms) Members(_ context.Context, userID, roomSlug string) ([]models.MemberWithProfile, error) {
	f.caller, f.slug = userID, roomSlug
	return f.members, f.err
}

type fakeUploader struct {
	roomID uuid.UUID
	body   []byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, _ string, roomID uuid.UUID, file io.Reader) (*services.UploadedImage, error) {
	f.roomID = roomID
	f.body, _ = io.ReadAll(file)
	if f.err != nil {
		return nil, f.err
	}
	return &services.UploadedImage{URL: "https://cdn.example/img.png", Path: "rooms/x/y/z.png", Width: 1, Height: 1}, nil
}

type fakeGenerator struct {
	in services.GenerateInput
}

func (f *fakeGenerator) Generate(_ context.Context, in services.GenerateInput) (*services.GeneratedDraft, error) {
	f.in = in
	return &services.GeneratedDraft{Title: "Generated", Excerpt: "short"}, nil
}

type fakeCounter struct {
	open int64
	err  error
}

func (f fakeCounter) CountOpen(context.Context) (int64, error) { return f.open, f.err }

type testServer struct {
	router    *chi.Mux
	blogs     *fakeBlogs
	rooms     *fakeRooms
	uploader  *fakeUploader
	generator *fakeGenerator
}

func newTestServer(t *testing.T, mutate ...func(*Dependencies)) *testServer {
	t.Helper()
	ts := &testServer{
		blogs:     &fakeBlogs{blog: &models.Blog{ID: uuid.New(), Title: "Hello"}},
		rooms:     &fakeRooms{room: &models.Room{ID: uuid.New(), Slug: "writers"}},
		uploader:  &fakeUploader{},
		generator: &fakeGenerator{},
	}
	deps := Dependencies{
		Blogs:          ts.blogs,
		Rooms:          ts.rooms,
		Uploader:       ts.uploader,
		Generator:      ts.generator,
		Verifier:       fakeVerifier{},
		Reconciliation: fakeCounter{open: 2},
	}
	for _, m := range mutate {
		m(&deps)
	}
	cfg := map[string]string{"ACCEPTED_ORIGINS": "https://rooms.example"}
	ts.router = newRouter(deps, withConfig(cfg), withStartupTime(time.Now().Add(-time.Minute)))
	return ts
}

func (ts *testServer) do(method, path string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/blogs/create", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authorization", decodeBody(t, rec)["field"])

	rec = ts.do(http.MethodPost, "/blogs/create", strings.NewReader(`{}`), "Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.blogs.caller)
}

func TestCreateBlog(t *testing.T) {
	ts := newTestServer(t)
	roomID := uuid.New()

	body := `{"roomId":"` + roomID.String() + `","title":"Hello","tone":"casual","language":"en",
		"content":[{"_type":"block","style":"h2","children":[{"text":"Hi","marks":["strong"]}]}]}`
	rec := ts.do(http.MethodPost, "/blogs/create", strings.NewReader(body))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, testUserID, ts.blogs.caller)
	assert.Equal(t, roomID.String(), ts.blogs.create.RoomID)
	require.Len(t, ts.blogs.create.Content, 1)
	assert.Equal(t, models.StyleH2, ts.blogs.create.Content[0].(models.TextBlock).Style)

	blog := decodeBody(t, rec)["blog"].(map[string]any)
	assert.Equal(t, ts.blogs.blog.ID.String(), blog["id"])
}

func TestCreateBlogMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/blogs/create", strings.NewReader(`{"content":[{"_type":"video"}]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["details"], "unsupported block type")
}

func TestBlogRoutesRejectInvalidID(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/blogs/nope/update"},
		{http.MethodPut, "/blogs/nope/edit"},
		{http.MethodPost, "/blogs/nope/publish"},
	} {
		rec := ts.do(tc.method, tc.path, strings.NewReader(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
	}
}

func TestUpdateBlogPassesPartialInput(t *testing.T) {
	ts := newTestServer(t)
	blogID := uuid.New()

	rec := ts.do(http.MethodPatch, "/blogs/"+blogID.String()+"/update", strings.NewReader(`{"title":"New title"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, blogID, ts.blogs.blogID)
	require.NotNil(t, ts.blogs.update.Title)
	assert.Equal(t, "New title", *ts.blogs.update.Title)
	assert.Nil(t, ts.blogs.update.Content)
	assert.Nil(t, ts.blogs.update.Excerpt)
}

func TestPublishErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"already published", errs.NewAlreadyPublishedError(), http.StatusConflict},
		{"not author", errs.NewPermissionDeniedError("Only the author can publish this blog"), http.StatusForbidden},
		{"missing", errs.NewNotFoundError("Blog not found"), http.StatusNotFound},
		{"store down", errs.NewDependencyFailure("content store", "publish", assert.AnError), http.StatusInternalServerError},
		{"flagged", errs.NewPartialFailureError("publish", []string{"delete draft document"}, assert.AnError), http.StatusInternalServerError},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.blogs.err = tt.err

			rec := ts.do(http.MethodPost, "/blogs/"+uuid.NewString()+"/publish", nil)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.NotContains(t, body, "blog")
		})
	}
}

func TestUnexpectedErrorsDoNotLeakDetails(t *testing.T) {
	ts := newTestServer(t)
	ts.blogs.err = assert.AnError

	rec := ts.do(http.MethodPost, "/blogs/"+uuid.NewString()+"/publish", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestFetchForEdit(t *testing.T) {
	ts := newTestServer(t)
	ts.blogs.document = &content.BlogDocument{ID: "draft-abc", Title: "Hello"}

	rec := ts.do(http.MethodGet, "/blogs/fetch-for-edit?roomSlug=writers&blogSlug=hello", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, [2]string{"writers", "hello"}, ts.blogs.slugs)
	body := decodeBody(t, rec)
	assert.Equal(t, "draft-abc", body["content"].(map[string]any)["_id"])
	assert.NotNil(t, body["blog"])
}

func TestJoinRoom(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/rooms/join", strings.NewReader(`{"joinCode":"12 34"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12 34", ts.rooms.code)
	assert.Equal(t, "writers", decodeBody(t, rec)["room"].(map[string]any)["slug"])
}

func TestJoinRoomAlreadyMemberCarriesRoom(t *testing.T) {
	ts := newTestServer(t)
	ts.rooms.err = errs.NewAlreadyMemberError()

	rec := ts.do(http.MethodPost, "/rooms/join", strings.NewReader(`{"joinCode":"1234"}`))

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "writers", body["room"].(map[string]any)["slug"])
}

func TestJoinRoomRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.rooms.room = nil
	ts.rooms.err = errs.NewRateLimitError("room join", 30*time.Second)

	rec := ts.do(http.MethodPost, "/rooms/join", strings.NewReader(`{"joinCode":"1234"}`))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/rooms/create", strings.NewReader(`{"name":"Writers"}`))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testUserID, ts.rooms.caller)
}

func TestGetRoomAllowsAnonymous(t *testing.T) {
	ts := newTestServer(t)
	ts.rooms.summary = &rooms.Summary{Room: ts.rooms.room, MemberCount: 3}

	req := httptest.NewRequest(http.MethodGet, "/rooms/writers", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.rooms.caller)
	assert.Equal(t, "writers", ts.rooms.slug)
	assert.EqualValues(t, 3, decodeBody(t, rec)["memberCount"])

	rec = ts.do(http.MethodGet, "/rooms/writers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUserID, ts.rooms.caller)

	rec = ts.do(http.MethodGet, "/rooms/writers", nil, "Authorization", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMembersEmptyList(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/rooms/writers/members", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"members":[]}`, rec.Body.String())
}

func multipartBody(t *testing.T, roomID string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if roomID != "" {
		require.NoError(t, mw.WriteField("roomId", roomID))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	ts := newTestServer(t)
	roomID := uuid.New()
	body, contentType := multipartBody(t, roomID.String(), []byte("image-bytes"))

	rec := ts.do(http.MethodPost, "/upload/image", body, "Content-Type", contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, roomID, ts.uploader.roomID)
	assert.Equal(t, []byte("image-bytes"), ts.uploader.body)
	assert.Equal(t, "https://cdn.example/img.png", decodeBody(t, rec)["url"])
}

func TestUploadImageValidation(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, "not-a-uuid", []byte("x"))
	rec := ts.do(http.MethodPost, "/upload/image", body, "Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "roomId", decodeBody(t, rec)["field"])

	body, contentType = multipartBody(t, uuid.NewString(), nil)
	rec = ts.do(http.MethodPost, "/upload/image", body, "Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decodeBody(t, rec)["field"])

	body, contentType = multipartBody(t, uuid.NewString(), bytes.Repeat([]byte("a"), services.MaxImageSize+multipartOverhead+1))
	rec = ts.do(http.MethodPost, "/upload/image", body, "Content-Type", contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file", decodeBody(t, rec)["field"])
}

func TestOptionalServicesUnavailable(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) {
		d.Uploader = nil
		d.Generator = nil
	})

	body, contentType := multipartBody(t, uuid.NewString(), []byte("x"))
	rec := ts.do(http.MethodPost, "/upload/image", body, "Content-Type", contentType)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = ts.do(http.MethodPost, "/ai/generate", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/ai/generate",
		strings.NewReader(`{"tone":"technical","language":"fr","context":"Go generics in practice"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.LanguageFrench, ts.generator.in.Language)
	assert.Equal(t, "Generated", decodeBody(t, rec)["title"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["openReconciliationTasks"])
	assert.GreaterOrEqual(t, body["uptimeSeconds"].(float64), float64(59))
}

func TestHealthDegradedWhenCountFails(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) {
		d.Reconciliation = fakeCounter{err: assert.AnError}
	})

	rec := ts.do(http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, body, "openReconciliationTasks")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/blogs/create", nil)
	req.Header.Set("Origin", "https://rooms.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, "https://rooms.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/blogs/create", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicRecovery(t *testing.T) {
	handler := LogInternalServerErrors(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestNewServerRequiresCoreServices(t *testing.T) {
	_, err := NewServer(nil, Dependencies{})
	assert.Error(t, err)

	srv, err := NewServer(map[string]string{"PORT": "9090"}, Dependencies{Blogs: &fakeBlogs{}, Rooms: &fakeRooms{}})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", srv.Addr)
}

func TestStartReportsShutdownAfterGracefulStop(t *testing.T) {
	srv, err := NewServer(map[string]string{"PORT": "0"}, Dependencies{Blogs: &fakeBlogs{}, Rooms: &fakeRooms{}})
	require.NoError(t, err)

	errChannel := make(chan error, 2)
	go srv.Start(errChannel)
	srv.ShutdownGracefully(time.Second)

	select {
	case err := <-errChannel:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not report shutdown")
	}
}
