package ports

import (
	"context"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// SessionController is the per-visitor source of truth for authentication
// and approval state.
type SessionController interface {
	Login(ctx context.Context, identifier, secret string) (bool, error)
	// SignIn runs Login and waits for the resulting approval classification.
	SignIn(ctx context.Context, identifier, secret string) error
	Logout(ctx context.Context)
	State() domain.Projection
	Settle(ctx context.Context) error
}

// TaskScheduler runs work after the current event-handling turn. Tasks with
// the same key run in submission order.
type TaskScheduler interface {
	Schedule(key string, task func(ctx context.Context))
}

// Notifier surfaces user-facing messages for one visitor.
type Notifier interface {
	Notify(n domain.Notification)
}
