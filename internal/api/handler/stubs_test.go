package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
	"github.com/sortify/conveyor-dashboard/internal/core/service"
)

type stubSession struct {
	state     domain.Projection
	signInFn  func(ctx context.Context, identifier, secret string) error
	loggedOut bool
}

func (s *stubSession) Login(context.Context, string, string) (bool, error) { return true, nil }

func (s *stubSession) SignIn(ctx context.Context, identifier, secret string) error {
	if s.signInFn != nil {
		return s.signInFn(ctx, identifier, secret)
	}
	return nil
}

func (s *stubSession) Logout(context.Context) {
	s.loggedOut = true
	s.state = domain.AnonymousProjection()
}

func (s *stubSession) State() domain.Projection     { return s.state }
func (s *stubSession) Settle(context.Context) error { return nil }

// stubAccounts embeds the interface so tests only implement what they call.
type stubAccounts struct {
	ports.AccountService

	signUpFn  func(ctx context.Context, in ports.SignUpInput) (*domain.Account, error)
	createFn  func(ctx context.Context, actor string, in ports.CreateAccountInput) (*domain.Account, error)
	approveFn func(ctx context.Context, actor, id string) error
	rejectFn  func(ctx context.Context, actor, id string) error
	updateFn  func(ctx context.Context, actor, id string, patch domain.AccountPatch) error
	listFn    func(ctx context.Context, filter domain.ApprovalStatus) ([]domain.Account, error)
	stats     domain.AccountStats
}

func (s *stubAccounts) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.Account, error) {
	return s.signUpFn(ctx, in)
}

func (s *stubAccounts) CreateAccount(ctx context.Context, actor string, in ports.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubAccounts) Approve(ctx context.Context, actor, id string) error {
	return s.approveFn(ctx, actor, id)
}

func (s *stubAccounts) Reject(ctx context.Context, actor, id string) error {
	return s.rejectFn(ctx, actor, id)
}

func (s *stubAccounts) UpdateAccount(ctx context.Context, actor, id string, patch domain.AccountPatch) error {
	return s.updateFn(ctx, actor, id, patch)
}

func (s *stubAccounts) ListAccounts(ctx context.Context, filter domain.ApprovalStatus) ([]domain.Account, error) {
	return s.listFn(ctx, filter)
}

func (s *stubAccounts) Stats(context.Context) (domain.AccountStats, error) {
	return s.stats, nil
}

type stubDashboard struct {
	ports.DashboardService

	belt       domain.BeltState
	operatorFn func(filter string) (ports.OperatorView, error)
	reportFn   func(actor, id string) (domain.IssueReport, error)
	beltFn     func(actor string, s domain.BeltSettings) (domain.BeltState, error)
	saveFn     func(actor string, s domain.SystemSettings) (domain.SystemSettings, error)
}

func (s *stubDashboard) Overview(context.Context) ports.AdminOverview {
	return ports.AdminOverview{Stats: domain.SortingStats{TotalItems: 42}}
}

func (s *stubDashboard) Operator(_ context.Context, filter string) (ports.OperatorView, error) {
	return s.operatorFn(filter)
}

func (s *stubDashboard) ToggleBelt(context.Context, string) domain.BeltState {
	s.belt.Running = !s.belt.Running
	return s.belt
}

func (s *stubDashboard) RestartBelt(context.Context, string) domain.BeltState {
	s.belt.Running = false
	s.belt.Restarting = true
	return s.belt
}

func (s *stubDashboard) UpdateBeltSettings(_ context.Context, actor string, b domain.BeltSettings) (domain.BeltState, error) {
	return s.beltFn(actor, b)
}

func (s *stubDashboard) ReportIssue(_ context.Context, actor, id string) (domain.IssueReport, error) {
	return s.reportFn(actor, id)
}

func (s *stubDashboard) SaveSettings(_ context.Context, actor string, next domain.SystemSettings) (domain.SystemSettings, error) {
	return s.saveFn(actor, next)
}

func signedInAs(role domain.Role, name string) domain.Projection {
	return domain.Projection{
		State:           domain.StateAuthenticated,
		IsAuthenticated: true,
		Role:            role,
		Name:            name,
		ApprovalStatus:  domain.ApprovalApproved,
	}
}

// newPageContext builds a request context with a visitor attached, the way
// the Visitor middleware leaves it.
func newPageContext(t *testing.T, method, target, body string, sess *stubSession) (echo.Context, *httptest.ResponseRecorder, *service.NotificationQueue) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	inbox := service.NewNotificationQueue()
	middleware.WithVisitor(c, visitor.New("visitor-1", sess, inbox, nil))
	return c, rec, inbox
}
