package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

const bootstrapActor = "system"

// EnsureAdmin creates an approved, active admin for email unless an identity
// with that email already exists. Empty credentials disable it.
func EnsureAdmin(ctx context.Context, accounts ports.AccountService, email, password string, log zerolog.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	username, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	acct, err := accounts.CreateAccount(ctx, bootstrapActor, ports.CreateAccountInput{
		Username: username,
		Email:    email,
		Password: password,
		FullName: "Administrator",
		Role:     domain.RoleAdmin,
		Status:   domain.AccountActive,
	})
	if errors.Is(err, domain.ErrIdentityExists) {
		log.Debug().Str("email", email).Msg("bootstrap admin already present")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	log.Info().Str("account_id", acct.ID).Str("email", acct.Email).Msg("bootstrap admin created")
	return nil
}
