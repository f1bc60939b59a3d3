package service

import (
	"errors"
	"fmt"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// Classification is the outcome of applying the approval policy to a
// fetched profile.
type Classification struct {
	State   domain.AuthState
	Account *domain.Account
	// Approval is set whenever the row could be read, including denials.
	Approval domain.ApprovalStatus
	Err      error
}

// Projection converts the classification into the published state.
func (c Classification) Projection() domain.Projection {
	if c.State == domain.StateAuthenticated && c.Account != nil {
		return domain.Projection{
			State:           domain.StateAuthenticated,
			IsAuthenticated: true,
			Role:            c.Account.Role,
			Name:            c.Account.Username,
			ApprovalStatus:  domain.ApprovalApproved,
		}
	}
	return domain.Projection{State: c.State, ApprovalStatus: c.Approval}
}

// Classify applies the approval policy to the result of a profile fetch.
// Only a well-formed row with approval status "approved" authenticates.
func Classify(row *ports.AccountRow, fetchErr error) Classification {
	if fetchErr != nil {
		if !errors.Is(fetchErr, domain.ErrBackendUnavailable) {
			fetchErr = fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, fetchErr)
		}
		return Classification{State: domain.StateDenied, Err: fetchErr}
	}
	if row == nil {
		return Classification{State: domain.StateDenied, Err: domain.ErrProfileNotFound}
	}

	account, err := AccountFromRow(*row)
	if err != nil {
		return Classification{State: domain.StateDenied, Err: err}
	}

	switch account.ApprovalStatus {
	case domain.ApprovalApproved:
		return Classification{State: domain.StateAuthenticated, Account: &account, Approval: account.ApprovalStatus}
	case domain.ApprovalPending:
		return Classification{State: domain.StatePendingApproval, Account: &account, Approval: account.ApprovalStatus, Err: domain.ErrApprovalPending}
	case domain.ApprovalRejected:
		return Classification{State: domain.StateDenied, Account: &account, Approval: account.ApprovalStatus, Err: domain.ErrApprovalDenied}
	}
	// unreachable: AccountFromRow only yields known statuses
	return Classification{State: domain.StateDenied, Err: domain.ErrUnrecognizedValue}
}

// AccountFromRow checks every enum column of a raw row against the domain
// types. Unknown values are reported as domain.ErrUnrecognizedValue.
func AccountFromRow(row ports.AccountRow) (domain.Account, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return domain.Account{}, err
	}
	approval, err := domain.ParseApprovalStatus(row.ApprovalStatus)
	if err != nil {
		return domain.Account{}, err
	}
	status := domain.AccountActive
	if row.Status != "" {
		if status, err = domain.ParseAccountStatus(row.Status); err != nil {
			return domain.Account{}, err
		}
	}

	return domain.Account{
		ID:             row.ID,
		Username:       row.Username,
		Email:          row.Email,
		Role:           role,
		FullName:       row.FullName,
		AssignedBelt:   row.AssignedBelt,
		Status:         status,
		ApprovalStatus: approval,
		LastLogin:      row.LastLogin,
		CreatedAt:      row.CreatedAt,
	}, nil
}

// notificationFor builds the user-facing message for a failed classification.
func notificationFor(err error) domain.Notification {
	switch {
	case errors.Is(err, domain.ErrApprovalPending):
		return domain.Notification{
			Title:       "Account Pending Approval",
			Description: "Your account is awaiting admin approval. You'll be notified when approved.",
		}
	case errors.Is(err, domain.ErrApprovalDenied):
		return domain.Notification{
			Title:       "Account Access Denied",
			Description: "Your account registration was declined. Please contact an administrator.",
			Variant:     domain.VariantDestructive,
		}
	case errors.Is(err, domain.ErrProfileNotFound):
		return domain.Notification{
			Title:       "Account Error",
			Description: "Your user profile could not be found.",
			Variant:     domain.VariantDestructive,
		}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return domain.Notification{
			Title:       "Login Failed",
			Description: "Invalid credentials",
			Variant:     domain.VariantDestructive,
		}
	}
	return domain.Notification{
		Title:       "Profile Error",
		Description: "Could not load your user profile.",
		Variant:     domain.VariantDestructive,
	}
}
