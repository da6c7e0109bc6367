// Package rooms creates rooms, admits members by join code and reads room
// summaries.
package rooms

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"github.com/rpupo63/rooms-blog-backend/models"
	"github.com/rpupo63/rooms-blog-backend/slug"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	minNameLength        = 3
	maxNameLength        = 100
	maxDescriptionLength = 500
)

type RoomStore interface {
	FindBySlug(ctx context.Context, slug string) (*models.Room, error)
	FindByJoinCode(ctx context.Context, code string) (*models.Room, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	CreateWithAdmin(ctx context.Context, room *models.Room) error
}

type MemberStore interface {
	Add(ctx context.Context, member *models.RoomMember) error
	Count(ctx context.Context, roomID uuid.UUID) (int64, error)
	ListWithProfiles(ctx context.Context, roomID uuid.UUID) ([]models.MemberWithProfile, error)
}

type BlogCounter interface {
	CountPublished(ctx context.Context, roomID uuid.UUID) (int64, error)
}

type ProfileStore interface {
	FindByID(ctx context.Context, userID string) (*models.Profile, error)
}

type Permissions interface {
	IsMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, error)
}

// Limiter throttles join attempts per user.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type Service struct {
	rooms    RoomStore
	members  MemberStore
	blogs    BlogCounter
	profiles ProfileStore
	perms    Permissions
	limiter  Limiter
	attempts int
	logger   zerolog.Logger
}

type Option func(*Service)

// WithLimiter throttles Join. Without it every attempt is allowed.
func WithLimiter(l Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithJoinCodeAttempts bounds join code sampling on Create.
func WithJoinCodeAttempts(n int) Option {
	return func(s *Service) {
		s.attempts = n
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(rooms RoomStore, members MemberStore, blogs BlogCounter, profiles ProfileStore, perms Permissions, opts ...Option) *Service {
	s := &Service{
		rooms:    rooms,
		members:  members,
		blogs:    blogs,
		profiles: profiles,
		perms:    perms,
		attempts: slug.DefaultJoinCodeAttempts,
		logger:   log.With().Str("component", "rooms").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput is the body of a room creation
type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (in CreateInput) validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(in.Name))
	if n < minNameLength || n > maxNameLength {
		return errs.NewValidationError("name", fmt.Sprintf("name must be between %d and %d characters", minNameLength, maxNameLength))
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxDescriptionLength {
		return errs.NewValidationError("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return nil
}

// Create makes a room with a unique slug and join code. The creator becomes
// its admin in the same transaction.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.Room, error) {
	if userID == "" {
		return nil, errs.Unauthorized
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	base := slug.Slugify(name)
	if base == "" {
		base = slug.Fallback("room")
	}
	existing, err := s.rooms.SlugsWithPrefix(ctx, base)
	if err != nil {
		return nil, err
	}
	roomSlug := slug.Next(base, slug.Set(existing))

	code, err := slug.NewJoinCode(ctx, s.rooms.JoinCodeExists, s.attempts)
	if err != nil {
		s.logger.Error().Err(err).Str("slug", roomSlug).Msg("join code allocation failed")
		return nil, err
	}

	var description *string
	if in.Description != nil && strings.TrimSpace(*in.Description) != "" {
		d := strings.TrimSpace(*in.Description)
		description = &d
	}

	room := &models.Room{
		ID:          uuid.New(),
		Name:        name,
		Slug:        roomSlug,
		JoinCode:    code,
		Description: description,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.rooms.CreateWithAdmin(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("roomID", room.ID.String()).
		Str("slug", room.Slug).
		Str("userID", userID).
		Msg("room created")
	return room, nil
}

// Join admits the caller to the room holding code. Input is normalized first
// so "12 34" works. When the caller already belongs to the room the room is
// returned together with an already-member error.
func (s *Service) Join(ctx context.Context, userID, code string) (*models.Room, error) {
	if userID == "" {
		return nil, errs.Unauthorized
	}

	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.Allow(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("join limiter unavailable, allowing attempt")
		}
		if !allowed {
			return nil, errs.NewRateLimitError("room join", retryAfter)
		}
	}

	code = slug.NormalizeJoinCode(code)
	if !slug.IsValidJoinCode(code) {
		return nil, errs.NewValidationError("joinCode", "Invalid join code format")
	}

	room, err := s.rooms.FindByJoinCode(ctx, code)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewNotFoundError("Room not found with this join code")
		}
		return nil, err
	}

	isMember, err := s.perms.IsMember(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return room, errs.NewAlreadyMemberError()
	}

	err = s.members.Add(ctx, &models.RoomMember{
		ID:       uuid.New(),
		RoomID:   room.ID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now().UTC(),
	})
	if errs.IsAlreadyMember(err) {
		return room, err
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("roomID", room.ID.String()).Str("userID", userID).Msg("member joined room")
	return room, nil
}

// Summary is a room with its headline numbers
type Summary struct {
	Room           *models.Room    `json:"room"`
	Creator        *models.Profile `json:"creator,omitempty"`
	MemberCount    int64           `json:"memberCount"`
	PublishedCount int64           `json:"publishedCount"`
	IsMember       bool            `json:"isMember"`
}

// Get reads a room by slug. The join code is only shown to members.
func (s *Service) Get(ctx context.Context, userID, roomSlug string) (*Summary, error) {
	room, err := s.findBySlug(ctx, roomSlug)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Room: room}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.members.Count(gctx, room.ID)
		summary.MemberCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.blogs.CountPublished(gctx, room.ID)
		summary.PublishedCount = n
		return err
	})
	g.Go(func() error {
		profile, err := s.profiles.FindByID(gctx, room.CreatedBy)
		if errs.IsNotFound(err) {
			return nil
		}
		summary.Creator = profile
		return err
	})
	g.Go(func() error {
		if userID == "" {
			return nil
		}
		isMember, err := s.perms.IsMember(gctx, room.ID, userID)
		summary.IsMember = isMember
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !summary.IsMember {
		room.JoinCode = ""
	}
	return summary, nil
}

// Members lists the room's members with their profiles. Only members may
// see it.
func (s *Service) Members(ctx context.Context, userID, roomSlug string) ([]models.MemberWithProfile, error) {
	if userID == "" {
		return nil, errs.Unauthorized
	}

	room, err := s.findBySlug(ctx, roomSlug)
	if err != nil {
		return nil, err
	}

	isMember, err := s.perms.IsMember(ctx, room.ID, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("roomID", room.ID.String()).Msg("membership lookup failed, denying")
		denied := errs.NewPermissionDeniedError("Forbidden")
		denied.Cause = err
		return nil, denied
	}
	if !isMember {
		return nil, errs.NewPermissionDeniedError("Forbidden")
	}

	members, err := s.members.ListWithProfiles(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []models.MemberWithProfile{}
	}
	return members, nil
}

func (s *Service) findBySlug(ctx context.Context, roomSlug string) (*models.Room, error) {
	if strings.TrimSpace(roomSlug) == "" {
		return nil, errs.NewBadRequestError("Room slug is required")
	}
	room, err := s.rooms.FindBySlug(ctx, roomSlug)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NewNotFoundError("Room not found")
		}
		return nil, err
	}
	return room, nil
}
