package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// blogsTable mirrors the postgres blogs table in sqlite types
const blogsTable = `CREATE TABLE blogs (
	id           text PRIMARY KEY,
	room_id      text NOT NULL,
	author_id    text NOT NULL,
	title        text NOT NULL,
	slug         text NOT NULL,
	excerpt      text,
	sanity_id    text NOT NULL UNIQUE,
	published    boolean NOT NULL DEFAULT false,
	published_at datetime,
	created_at   datetime NOT NULL,
	updated_at   datetime NOT NULL,
	UNIQUE (room_id, slug)
)`

func setupBlogRepo(t *testing.T) *BlogRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec(blogsTable).Error)
	return NewBlogRepo(db)
}

func addDraft(t *testing.T, repo *BlogRepo, title, slug string) (*models.Blog, models.DraftRef) {
	t.Helper()
	ref := models.NewDraftRef()
	now := time.Now().UTC().Truncate(time.Second)
	excerpt := "intro"
	blog := &models.Blog{
		ID:        uuid.New(),
		RoomID:    uuid.New(),
		AuthorID:  "user-a",
		Title:     title,
		Slug:      slug,
		Excerpt:   &excerpt,
		SanityID:  ref.ID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Add(context.Background(), blog))
	return blog, ref
}

func TestMarkPublishedFlipsDraftOnce(t *testing.T) {
	repo := setupBlogRepo(t)
	ctx := context.Background()
	blog, draft := addDraft(t, repo, "Hello World", "hello-world")
	at := time.Now().UTC().Truncate(time.Second)

	got, err := repo.MarkPublished(ctx, blog.ID, draft.Published(), at)
	require.NoError(t, err)
	assert.True(t, got.Published)
	assert.Equal(t, draft.Published().ID(), got.SanityID)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, at.Equal(*got.PublishedAt))
	assert.Equal(t, "Hello World", got.Title)

	_, err = repo.MarkPublished(ctx, blog.ID, draft.Published(), at.Add(time.Minute))
	assert.True(t, errs.IsAlreadyPublished(err))

	stored, err := repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.True(t, at.Equal(*stored.PublishedAt), "second call must not touch the row")
}

func TestMarkPublishedMissingBlog(t *testing.T) {
	repo := setupBlogRepo(t)

	_, err := repo.MarkPublished(context.Background(), uuid.New(), models.NewDraftRef().Published(), time.Now())

	assert.True(t, errs.IsNotFound(err))
	assert.False(t, errs.IsAlreadyPublished(err))
}

func TestMarkPublishedConcurrentCallsHaveOneWinner(t *testing.T) {
	repo := setupBlogRepo(t)
	blog, draft := addDraft(t, repo, "Hello World", "hello-world")

	const callers = 5
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.MarkPublished(context.Background(), blog.ID, draft.Published(), time.Now().UTC())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case errs.IsAlreadyPublished(err):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, callers-1, lost)
}

func TestUpdateMetadata(t *testing.T) {
	repo := setupBlogRepo(t)
	ctx := context.Background()
	blog, _ := addDraft(t, repo, "Hello World", "hello-world")
	later := blog.UpdatedAt.Add(time.Hour)

	title := "Hello Again"
	got, err := repo.UpdateMetadata(ctx, blog.ID, models.BlogMetadataUpdate{
		Title:        &title,
		ClearExcerpt: true,
		UpdatedAt:    later,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Again", got.Title)
	assert.Nil(t, got.Excerpt)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.Equal(t, "hello-world", got.Slug)
	assert.False(t, got.Published)

	stored, err := repo.FindByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello Again", stored.Title)
	assert.Nil(t, stored.Excerpt)
}

func TestUpdateMetadataMissingBlog(t *testing.T) {
	repo := setupBlogRepo(t)
	title := "Ghost"

	_, err := repo.UpdateMetadata(context.Background(), uuid.New(), models.BlogMetadataUpdate{Title: &title})

	assert.True(t, errs.IsNotFound(err))
}

func TestFindBySlugAndSlugsInRoom(t *testing.T) {
	repo := setupBlogRepo(t)
	ctx := context.Background()
	blog, _ := addDraft(t, repo, "Hello World", "hello-world")

	got, err := repo.FindBySlug(ctx, blog.RoomID, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, blog.ID, got.ID)

	_, err = repo.FindBySlug(ctx, uuid.New(), "hello-world")
	assert.True(t, errs.IsNotFound(err))

	slugs, err := repo.SlugsInRoom(ctx, blog.RoomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello-world"}, slugs)
}
