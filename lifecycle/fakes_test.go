package lifecycle

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/content"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/membership"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeRooms holds rooms and their memberships
type fakeRooms struct {
	mu      sync.Mutex
	rooms   map[uuid.UUID]*models.Room
	members map[uuid.UUID]map[string]models.MemberRole
	roleErr error
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{
		rooms:   map[uuid.UUID]*models.Room{},
		members: map[uuid.UUID]map[string]models.MemberRole{},
	}
}

func (f *fakeRooms) addRoom(slug string, members ...string) *models.Room {
	f.mu.Lock()
	defer f.mu.Unlock()

	room := &models.Room{ID: uuid.New(), Name: slug, Slug: slug, JoinCode: "1234", CreatedBy: "creator"}
	f.rooms[room.ID] = room
	f.members[room.ID] = map[string]models.MemberRole{}
	for _, m := range members {
		f.members[room.ID][m] = models.RoleMember
	}
	return room
}

func (f *fakeRooms) removeMember(roomID uuid.UUID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], userID)
}

func (f *fakeRooms) FindByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, errs.NewNotFound("room")
}

func (f *fakeRooms) FindBySlug(_ context.Context, slug string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rooms {
		if r.Slug == slug {
			c := *r
			return &c, nil
		}
	}
	return nil, errs.NewNotFound("room")
}

func (f *fakeRooms) FindRole(_ context.Context, roomID uuid.UUID, userID string) (models.MemberRole, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleErr != nil {
		return "", f.roleErr
	}
	if role, ok := f.members[roomID][userID]; ok {
		return role, nil
	}
	return "", errs.NewNotFound("room member")
}

// fakeBlogs is the relational blog table with failure injection
type fakeBlogs struct {
	mu                sync.Mutex
	blogs             map[uuid.UUID]*models.Blog
	failAdd           error
	failUpdate        error
	failMarkPublished error
	// runs before the compare-and-swap, outside the lock
	beforeMarkPublished func()
}

func newFakeBlogs() *fakeBlogs {
	return &fakeBlogs{blogs: map[uuid.UUID]*models.Blog{}}
}

func (f *fakeBlogs) get(id uuid.UUID) *models.Blog {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blogs[id]; ok {
		c := *b
		return &c
	}
	return nil
}

func (f *fakeBlogs) FindByID(_ context.Context, id uuid.UUID) (*models.Blog, error) {
	if b := f.get(id); b != nil {
		return b, nil
	}
	return nil, errs.NewNotFound("blog")
}

func (f *fakeBlogs) FindBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeBlogs) FindBySlug(_ context.Context, roomID uuid.UUID, slug string) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.blogs {
		if b.RoomID == roomID && b.Slug == slug {
			c := *b
			return &c, nil
		}
	}
	return nil, errs.NewNotFound("blog")
}

func (f *fakeBlogs) SlugsInRoom(_ context.Context, roomID uuid.UUID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slugs []string
	for _, b := range f.blogs {
		if b.RoomID == roomID {
			slugs = append(slugs, b.Slug)
		}
	}
	return slugs, nil
}

func (f *fakeBlogs) Add(_ context.Context, blog *models.Blog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return f.failAdd
	}
	for _, b := range f.blogs {
		if b.RoomID == blog.RoomID && b.Slug == blog.Slug {
			return errs.NewAlreadyExists("blog")
		}
	}
	c := *blog
	f.blogs[blog.ID] = &c
	return nil
}

func (f *fakeBlogs) UpdateMetadata(_ context.Context, id uuid.UUID, update models.BlogMetadataUpdate) (*models.Blog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return nil, f.failUpdate
	}
	b, ok := f.blogs[id]
	if !ok {
		return nil, errs.NewNotFound("blog")
	}
	if update.Title != nil {
		b.Title = *update.Title
	}
	if update.ClearExcerpt {
		b.Excerpt = nil
	} else if update.Excerpt != nil {
		e := *update.Excerpt
		b.Excerpt = &e
	}
	b.UpdatedAt = update.UpdatedAt
	c := *b
	return &c, nil
}

func (f *fakeBlogs) MarkPublished(_ context.Context, id uuid.UUID, ref models.PublishedRef, at time.Time) (*models.Blog, error) {
	if f.beforeMarkPublished != nil {
		f.beforeMarkPublished()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMarkPublished != nil {
		return nil, f.failMarkPublished
	}
	b, ok := f.blogs[id]
	if !ok {
		return nil, errs.NewNotFound("blog")
	}
	if b.Published {
		return nil, errs.NewAlreadyPublishedError()
	}
	b.Published = true
	b.PublishedAt = &at
	b.SanityID = ref.ID()
	b.UpdatedAt = at
	c := *b
	return &c, nil
}

// fakeContent wraps the in-memory store and fails operations on documents
// whose id starts with a configured prefix
type fakeContent struct {
	*content.MemoryStore
	mu         sync.Mutex
	failCreate map[string]error
	failDelete map[string]error
	failPatch  error
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		MemoryStore: content.NewMemoryStore(),
		failCreate:  map[string]error{},
		failDelete:  map[string]error{},
	}
}

func (f *fakeContent) injected(failures map[string]error, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for prefix, err := range failures {
		if strings.HasPrefix(id, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeContent) Create(ctx context.Context, ref models.DocumentRef, doc content.BlogDocument) error {
	if err := f.injected(f.failCreate, ref.ID()); err != nil {
		return err
	}
	return f.MemoryStore.Create(ctx, ref, doc)
}

func (f *fakeContent) Delete(ctx context.Context, ref models.DocumentRef) error {
	if err := f.injected(f.failDelete, ref.ID()); err != nil {
		return err
	}
	return f.MemoryStore.Delete(ctx, ref)
}

func (f *fakeContent) Patch(ctx context.Context, ref models.DocumentRef, patch content.DocumentPatch) error {
	if f.failPatch != nil {
		return f.failPatch
	}
	return f.MemoryStore.Patch(ctx, ref, patch)
}

func (f *fakeContent) exists(t *testing.T, ref models.DocumentRef) bool {
	t.Helper()
	_, err := f.MemoryStore.Get(context.Background(), ref)
	if errs.IsNotFound(err) {
		return false
	}
	require.NoError(t, err)
	return true
}

type fakeReconciler struct {
	mu    sync.Mutex
	tasks []*models.ReconciliationTask
}

func (f *fakeReconciler) Flag(_ context.Context, task *models.ReconciliationTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

// membershipStore joins the fakes the way the database does
type membershipStore struct {
	*fakeRooms
	blogs *fakeBlogs
}

func (s membershipStore) FindBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	return s.blogs.FindBlog(ctx, id)
}

type fixture struct {
	rooms      *fakeRooms
	blogs      *fakeBlogs
	content    *fakeContent
	reconciler *fakeReconciler
	manager    *Manager
	now        time.Time
	room       *models.Room
}

const (
	author   = "user-a"
	member   = "user-b"
	stranger = "user-z"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rooms:      newFakeRooms(),
		blogs:      newFakeBlogs(),
		content:    newFakeContent(),
		reconciler: &fakeReconciler{},
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.room = f.rooms.addRoom("design-club", author, member)

	gateway := membership.NewGateway(membershipStore{fakeRooms: f.rooms, blogs: f.blogs})
	f.manager = NewManager(f.rooms, f.blogs, f.content, gateway, f.reconciler,
		WithClock(func() time.Time { return f.now }),
		WithLogger(zerolog.Nop()),
	)
	return f
}

func helloContent() models.Blocks {
	return models.Blocks{
		models.TextBlock{Style: models.StyleNormal, Children: []models.Span{{Text: "hi"}}},
	}
}

func (f *fixture) createInput(title string) CreateInput {
	return CreateInput{
		RoomID:   f.room.ID.String(),
		Title:    title,
		Content:  helloContent(),
		Tone:     models.ToneCasual,
		Language: models.LanguageEnglish,
	}
}

func (f *fixture) draft(t *testing.T, title string) *models.Blog {
	t.Helper()
	blog, err := f.manager.CreateDraft(context.Background(), author, f.createInput(title))
	require.NoError(t, err)
	return blog
}
