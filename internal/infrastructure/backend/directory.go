package backend

import (
	"context"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// Directory is the visitor-independent part of the backend: identity
// creation and row access to the users table.
type Directory struct {
	auth     *Auth
	accounts ports.AccountRepository
}

func NewDirectory(auth *Auth, accounts ports.AccountRepository) *Directory {
	return &Directory{auth: auth, accounts: accounts}
}

var _ ports.AccountDirectory = (*Directory)(nil)

func (d *Directory) SignUp(ctx context.Context, identifier, secret string, metadata map[string]string) (*domain.Identity, error) {
	return d.auth.SignUp(ctx, identifier, secret, metadata)
}

func (d *Directory) DeleteIdentity(ctx context.Context, identityID string) error {
	return d.auth.DeleteIdentity(ctx, identityID)
}

// GetAccountRow returns (nil, nil) when no row exists for the id.
func (d *Directory) GetAccountRow(ctx context.Context, accountID string) (*ports.AccountRow, error) {
	row, err := d.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, unavailable(err)
	}
	return row, nil
}

func (d *Directory) UpdateAccountRow(ctx context.Context, accountID string, patch domain.AccountPatch) error {
	if err := d.accounts.Update(ctx, accountID, patch); err != nil {
		return unavailable(err)
	}
	return nil
}

func (d *Directory) InsertAccountRow(ctx context.Context, row ports.AccountRow) error {
	if err := d.accounts.Insert(ctx, row); err != nil {
		return unavailable(err)
	}
	return nil
}

// ListAccountRows returns all rows ordered by username.
func (d *Directory) ListAccountRows(ctx context.Context) ([]ports.AccountRow, error) {
	rows, err := d.accounts.List(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	return rows, nil
}
