package ports

import (
	"context"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
)

// SignUpInput is the self-service registration form.
type SignUpInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// CreateAccountInput is the admin-issued account form.
type CreateAccountInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	Role         domain.Role
	AssignedBelt *string
	Status       domain.AccountStatus
}

// AccountService provisions accounts and applies admin decisions to them.
type AccountService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.Account, error)
	CreateAccount(ctx context.Context, actor string, in CreateAccountInput) (*domain.Account, error)
	Approve(ctx context.Context, actor, accountID string) error
	Reject(ctx context.Context, actor, accountID string) error
	UpdateAccount(ctx context.Context, actor, accountID string, patch domain.AccountPatch) error
	// ListAccounts returns accounts ordered by username. An empty filter returns all.
	ListAccounts(ctx context.Context, filter domain.ApprovalStatus) ([]domain.Account, error)
	Stats(ctx context.Context) (domain.AccountStats, error)
}

// AuditRepository persists admin actions on accounts.
type AuditRepository interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}
