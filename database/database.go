package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	roomRepo           *RoomRepo
	roomMemberRepo     *RoomMemberRepo
	blogRepo           *BlogRepo
	profileRepo        *ProfileRepo
	reconciliationRepo *ReconciliationRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		roomRepo:           NewRoomRepo(db),
		roomMemberRepo:     NewRoomMemberRepo(db),
		blogRepo:           NewBlogRepo(db),
		profileRepo:        NewProfileRepo(db),
		reconciliationRepo: NewReconciliationRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) RoomRepo() *RoomRepo {
	return d.roomRepo
}

func (d Database) RoomMemberRepo() *RoomMemberRepo {
	return d.roomMemberRepo
}

func (d Database) BlogRepo() *BlogRepo {
	return d.blogRepo
}

func (d Database) ProfileRepo() *ProfileRepo {
	return d.profileRepo
}

func (d Database) ReconciliationRepo() *ReconciliationRepo {
	return d.reconciliationRepo
}

// MembershipStore exposes the point lookups the membership gateway runs.
func (d Database) MembershipStore() MembershipStore {
	return MembershipStore{members: d.roomMemberRepo, blogs: d.blogRepo}
}

type MembershipStore struct {
	members *RoomMemberRepo
	blogs   *BlogRepo
}

func (s MembershipStore) FindRole(ctx context.Context, roomID uuid.UUID, userID string) (models.MemberRole, error) {
	return s.members.FindRole(ctx, roomID, userID)
}

func (s MembershipStore) FindBlog(ctx context.Context, blogID uuid.UUID) (*models.Blog, error) {
	return s.blogs.FindByID(ctx, blogID)
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return errs.NewDatabaseError("enable", "pgcrypto extension", err)
	}
	if err := db.AutoMigrate(models.Tables()...); err != nil {
		return errs.NewDatabaseError("migrate", "tables", err)
	}
	return nil
}
