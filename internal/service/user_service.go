package service

import (
	"context"
	"errors"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/ledger"
	"github.com/centsible/centsible-backend/internal/ws"
	"github.com/rs/zerolog/log"
)

// UserService handles user lifecycle business logic
type UserService struct {
	store  ledger.Store
	events ws.EventPublisher
}

// NewUserService creates a new UserService
func NewUserService(store ledger.Store, events ws.EventPublisher) *UserService {
	return &UserService{store: store, events: events}
}

// Create registers a new user together with their unallocated funds
// category. Both documents are committed in one batch so a user is never
// observable without the category.
func (s *UserService) Create(ctx context.Context, id, email string) (*domain.User, error) {
	user, err := domain.NewUser(id, email)
	if err != nil {
		return nil, err
	}

	_, err = s.store.Get(ctx, domain.CollectionUsers, id)
	if err == nil {
		return nil, domain.ErrUserAlreadyExists
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return nil, err
	}

	unallocated := domain.NewUnallocatedCategory(id)

	batch := s.store.Batch()
	batch.Set(domain.CollectionUsers, id, user.Document())
	unallocated.ID = batch.Set(domain.CollectionCategories, "", unallocated.Document())
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", id).
		Str("unallocated_category_id", unallocated.ID).
		Msg("User created")

	s.events.Publish(id, ws.NewEvent(ws.EventTypeCreated, ws.EntityTypeUser, user))
	return user, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return getUser(ctx, s.store, id)
}

// UpdatePreferences replaces the user's budgeting preferences.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs domain.UserPreferences) (*domain.User, error) {
	if err := prefs.Validate(); err != nil {
		return nil, err
	}

	user, err := getUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	user.Preferences = prefs

	batch := s.store.Batch()
	batch.Update(domain.CollectionUsers, userID, ledger.Document{
		"preferences": user.Document()["preferences"],
	})
	if err := batch.Commit(ctx); err != nil {
		return nil, err
	}

	s.events.Publish(userID, ws.NewEvent(ws.EventTypeUpdated, ws.EntityTypeUser, user))
	return user, nil
}
