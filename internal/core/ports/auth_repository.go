package ports

import (
	"context"
	"time"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// IdentityRepository stores backend identities (credentials).
type IdentityRepository interface {
	// Create returns domain.ErrIdentityExists when the email is taken.
	Create(ctx context.Context, identity *domain.Identity) error
	// FindByEmail returns (nil, nil) when no identity has the email.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Delete(ctx context.Context, id string) error
}

// AccountRepository stores account rows in their raw backend shape.
type AccountRepository interface {
	// FindByID returns (nil, nil) when no row exists.
	FindByID(ctx context.Context, id string) (*AccountRow, error)
	Insert(ctx context.Context, row AccountRow) error
	Update(ctx context.Context, id string, patch domain.AccountPatch) error
	// List returns all rows ordered by username.
	List(ctx context.Context) ([]AccountRow, error)
}

// SessionStore keeps live backend sessions until they expire or are revoked.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session, ttl time.Duration) error
	// Get returns domain.ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// TokenStorage persists a visitor's access token between requests and
// process restarts.
type TokenStorage interface {
	// Load returns an empty token when none is stored.
	Load(ctx context.Context, visitorID string) (string, error)
	Save(ctx context.Context, visitorID, token string, ttl time.Duration) error
	Clear(ctx context.Context, visitorID string) error
}
