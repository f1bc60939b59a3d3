package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
	"github.com/sortify/conveyor-dashboard/internal/pkg/metrics"
)

const minPasswordLength = 6

// accountService implements self-service sign-up, admin-issued creation and
// the admin decisions on existing accounts.
type accountService struct {
	directory ports.AccountDirectory
	audit     ports.AuditRepository
	log       zerolog.Logger
	now       func() time.Time
}

// NewAccountService returns an AccountService backed by the given directory.
// audit may be nil.
func NewAccountService(directory ports.AccountDirectory, audit ports.AuditRepository, log zerolog.Logger) ports.AccountService {
	return &accountService{directory: directory, audit: audit, log: log, now: time.Now}
}

// SignUp registers an operator account awaiting admin approval.
func (s *accountService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Account, error) {
	account, err := s.provision(ctx, provisionRequest{
		username: in.Username,
		email:    in.Email,
		password: in.Password,
		fullName: in.FullName,
		role:     domain.RoleOperator,
		status:   domain.AccountActive,
		approval: domain.ApprovalPending,
	})
	if err != nil {
		metrics.SignUpsTotal.WithLabelValues("self", "failed").Inc()
		return nil, err
	}
	metrics.SignUpsTotal.WithLabelValues("self", "created").Inc()
	s.log.Info().Str("account_id", account.ID).Str("username", account.Username).Msg("sign-up pending approval")
	return account, nil
}

// CreateAccount provisions an account on behalf of an admin. The admin
// vouches for it, so it is approved immediately.
func (s *accountService) CreateAccount(ctx context.Context, actor string, in ports.CreateAccountInput) (*domain.Account, error) {
	if _, err := domain.ParseRole(string(in.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	status := in.Status
	if status == "" {
		status = domain.AccountActive
	}
	if _, err := domain.ParseAccountStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	account, err := s.provision(ctx, provisionRequest{
		username:     in.Username,
		email:        in.Email,
		password:     in.Password,
		fullName:     in.FullName,
		role:         in.Role,
		assignedBelt: in.AssignedBelt,
		status:       status,
		approval:     domain.ApprovalApproved,
	})
	if err != nil {
		metrics.SignUpsTotal.WithLabelValues("admin", "failed").Inc()
		return nil, err
	}
	metrics.SignUpsTotal.WithLabelValues("admin", "created").Inc()
	s.recordAudit(ctx, actor, domain.AuditAccountCreated, account.ID, "role="+string(account.Role))
	return account, nil
}

func (s *accountService) Approve(ctx context.Context, actor, accountID string) error {
	return s.setApproval(ctx, actor, accountID, domain.ApprovalApproved, domain.AuditAccountApproved)
}

func (s *accountService) Reject(ctx context.Context, actor, accountID string) error {
	return s.setApproval(ctx, actor, accountID, domain.ApprovalRejected, domain.AuditAccountRejected)
}

func (s *accountService) setApproval(ctx context.Context, actor, accountID string, status domain.ApprovalStatus, action string) error {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return err
	}
	if err := s.directory.UpdateAccountRow(ctx, accountID, domain.AccountPatch{ApprovalStatus: &status}); err != nil {
		return fmt.Errorf("set approval: %w", err)
	}
	metrics.ApprovalDecisionsTotal.WithLabelValues(string(status)).Inc()
	s.log.Info().Str("actor", actor).Str("account_id", accountID).Str("approval_status", string(status)).Msg("approval updated")
	s.recordAudit(ctx, actor, action, accountID, "")
	return nil
}

// UpdateAccount applies an admin edit. Enum fields are checked before the
// row is touched.
func (s *accountService) UpdateAccount(ctx context.Context, actor, accountID string, patch domain.AccountPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if patch.Role != nil {
		if _, err := domain.ParseRole(string(*patch.Role)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if patch.Status != nil {
		if _, err := domain.ParseAccountStatus(string(*patch.Status)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if patch.ApprovalStatus != nil {
		if _, err := domain.ParseApprovalStatus(string(*patch.ApprovalStatus)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	if patch.Email != nil {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return fmt.Errorf("%w: email", domain.ErrInvalidInput)
		}
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return err
	}

	if err := s.directory.UpdateAccountRow(ctx, accountID, patch); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	s.recordAudit(ctx, actor, domain.AuditAccountUpdated, accountID, "")
	return nil
}

// ListAccounts returns accounts ordered by username. Rows with values
// outside the domain enums are skipped and logged.
func (s *accountService) ListAccounts(ctx context.Context, filter domain.ApprovalStatus) ([]domain.Account, error) {
	if filter != "" {
		if _, err := domain.ParseApprovalStatus(string(filter)); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}

	rows, err := s.directory.ListAccountRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := AccountFromRow(row)
		if err != nil {
			s.log.Warn().Err(err).Str("account_id", row.ID).Msg("skipping malformed account row")
			continue
		}
		if filter != "" && account.ApprovalStatus != filter {
			continue
		}
		out = append(out, account)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *accountService) Stats(ctx context.Context) (domain.AccountStats, error) {
	accounts, err := s.ListAccounts(ctx, "")
	if err != nil {
		return domain.AccountStats{}, err
	}
	return domain.ComputeAccountStats(accounts), nil
}

type provisionRequest struct {
	username     string
	email        string
	password     string
	fullName     string
	role         domain.Role
	assignedBelt *string
	status       domain.AccountStatus
	approval     domain.ApprovalStatus
}

// provision creates the identity and its account row as one unit. If the
// row cannot be written the identity is deleted again.
func (s *accountService) provision(ctx context.Context, req provisionRequest) (*domain.Account, error) {
	req.username = strings.TrimSpace(req.username)
	req.email = strings.TrimSpace(strings.ToLower(req.email))
	req.fullName = strings.TrimSpace(req.fullName)
	if req.username == "" || req.email == "" || req.fullName == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(req.email); err != nil {
		return nil, fmt.Errorf("%w: email", domain.ErrInvalidInput)
	}
	if len(req.password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	identity, err := s.directory.SignUp(ctx, req.email, req.password, map[string]string{
		"username":  req.username,
		"full_name": req.fullName,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	now := s.now().UTC()
	row := ports.AccountRow{
		ID:             identity.ID,
		Username:       req.username,
		Email:          req.email,
		Role:           string(req.role),
		FullName:       req.fullName,
		AssignedBelt:   req.assignedBelt,
		Status:         string(req.status),
		ApprovalStatus: string(req.approval),
		CreatedAt:      now,
	}
	if err := s.directory.InsertAccountRow(ctx, row); err != nil {
		insertErr := fmt.Errorf("create account row: %w", err)
		if delErr := s.directory.DeleteIdentity(ctx, identity.ID); delErr != nil {
			s.log.Error().Err(delErr).Str("identity_id", identity.ID).Msg("orphaned identity: compensating delete failed")
			return nil, errors.Join(insertErr, fmt.Errorf("delete identity: %w", delErr))
		}
		s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("account row insert failed, identity removed")
		return nil, insertErr
	}

	account, err := AccountFromRow(row)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *accountService) requireAccount(ctx context.Context, accountID string) error {
	row, err := s.directory.GetAccountRow(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	if row == nil {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (s *accountService) recordAudit(ctx context.Context, actor, action, accountID, detail string) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditEntry{
		ID:        ksuid.New().String(),
		Actor:     actor,
		Action:    action,
		AccountID: accountID,
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Insert(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("account_id", accountID).Msg("failed to record audit entry")
	}
}
