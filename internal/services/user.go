package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/userhub/apiserver/internal/upstream"
	"github.com/userhub/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
}

// ProfileClient resolves users from the upstream API.
type ProfileClient interface {
	GetUser(ctx context.Context, id int) (types.Profile, error)
}

// EventEmitter publishes events without waiting for acknowledgement.
type EventEmitter interface {
	Emit(pattern string, payload any)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo     UserRepository
	profiles ProfileClient
	events   EventEmitter
	now      func() time.Time
}

func NewUserService(repo UserRepository, profiles ProfileClient, events EventEmitter) *UserService {
	return &UserService{
		repo:     repo,
		profiles: profiles,
		events:   events,
		now:      time.Now,
	}
}

// Create stores a new user and announces it. Duplicate emails are accepted.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	user = user.Normalize()
	user.ID = uuid.NewString()
	user.CreatedAt = s.now().UTC()

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, fmt.Errorf("create user: %w", err)
	}

	s.events.Emit(types.PatternUserCreated, created)
	s.events.Emit(types.PatternSendEmail, types.EmailEvent{
		Email:   created.Email,
		Subject: types.WelcomeSubject,
		Message: types.WelcomeMessage,
	})

	return created, nil
}

// GetByID resolves a user from the upstream API. An empty payload maps to
// ErrUserNotFound; every other failure maps to ErrUpstream.
func (s *UserService) GetByID(ctx context.Context, id int) (types.Profile, error) {
	profile, err := s.profiles.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, upstream.ErrNoPayload) {
			return types.Profile{}, ErrUserNotFound
		}
		return types.Profile{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return profile, nil
}
