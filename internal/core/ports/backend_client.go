package ports

import (
	"context"
	"time"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// AccountRow is the account record as the hosted backend returns it: string
// enums and nullable fields, not yet checked against the domain types.
type AccountRow struct {
	ID             string
	Username       string
	Email          string
	Role           string
	FullName       string
	AssignedBelt   *string
	Status         string
	ApprovalStatus string
	LastLogin      *time.Time
	CreatedAt      time.Time
}

// AuthEventHandler receives auth state changes from a BackendClient.
type AuthEventHandler func(ctx context.Context, event domain.AuthEvent)

// Subscription is returned by OnAuthEvent.
type Subscription interface {
	Unsubscribe()
}

// AccountDirectory is the visitor-independent part of the hosted backend:
// identity creation and row-level access to the users table.
type AccountDirectory interface {
	SignUp(ctx context.Context, identifier, secret string, metadata map[string]string) (*domain.Identity, error)
	DeleteIdentity(ctx context.Context, identityID string) error

	// GetAccountRow returns (nil, nil) when no row exists for the id.
	GetAccountRow(ctx context.Context, accountID string) (*AccountRow, error)
	UpdateAccountRow(ctx context.Context, accountID string, patch domain.AccountPatch) error
	InsertAccountRow(ctx context.Context, row AccountRow) error
	ListAccountRows(ctx context.Context) ([]AccountRow, error)
}

// BackendClient is one visitor's handle on the hosted backend. It owns the
// visitor's current session and reports changes to it as auth events.
type BackendClient interface {
	AccountDirectory

	SignInWithCredentials(ctx context.Context, identifier, secret string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	// GetCurrentSession returns (nil, nil) when the visitor has no valid session.
	GetCurrentSession(ctx context.Context) (*domain.Session, error)
	OnAuthEvent(handler AuthEventHandler) Subscription
}
