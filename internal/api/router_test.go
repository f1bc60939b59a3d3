package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/api/handler"
	"github.com/sortify/conveyor-dashboard/internal/api/middleware"
	"github.com/sortify/conveyor-dashboard/internal/api/visitor"
	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/service"
)

type fixedSession struct {
	state domain.Projection
}

func (s *fixedSession) Login(context.Context, string, string) (bool, error) { return false, nil }
func (s *fixedSession) SignIn(context.Context, string, string) error {
	return domain.ErrInvalidCredentials
}
func (s *fixedSession) Logout(context.Context)       { s.state = domain.AnonymousProjection() }
func (s *fixedSession) State() domain.Projection     { return s.state }
func (s *fixedSession) Settle(context.Context) error { return nil }

const visitorID = "5b0e8a7e-8f61-4c43-9e55-3d5c0f2a9b11"

func newTestRouter(state domain.Projection) http.Handler {
	log := zerolog.Nop()
	reg := visitor.NewRegistry(func(_ context.Context, id string) (*visitor.Visitor, error) {
		return visitor.New(id, &fixedSession{state: state}, service.NewNotificationQueue(), nil), nil
	}, time.Minute, log)

	return NewRouter(Deps{
		Visitors:  reg,
		Accounts:  service.NewAccountService(nil, nil, log),
		Dashboard: service.NewDashboardService(nil, log),
		Probes:    map[string]handler.Probe{"mongodb": func(context.Context) error { return nil }},
		Log:       log,
		Metrics:   prometheus.NewRegistry(),
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: visitorID})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authenticated(role domain.Role) domain.Projection {
	return domain.Projection{State: domain.StateAuthenticated, IsAuthenticated: true, Role: role, Name: "Tess", ApprovalStatus: domain.ApprovalApproved}
}

func TestRouter_GuardsAdminArea(t *testing.T) {
	rec := serve(newTestRouter(domain.AnonymousProjection()), http.MethodGet, "/admin/users", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected 303 to /login, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_OperatorCannotOpenAdmin(t *testing.T) {
	rec := serve(newTestRouter(authenticated(domain.RoleOperator)), http.MethodGet, "/admin", "")
	want := "/login?message=You+must+be+an+admin+to+access+this+page."
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != want {
		t.Fatalf("expected 303 to %q, got %d %q", want, rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_OperatorConsole(t *testing.T) {
	rec := serve(newTestRouter(authenticated(domain.RoleOperator)), http.MethodGet, "/operator?filter=plastic", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_LoginRedirectsSignedInVisitor(t *testing.T) {
	rec := serve(newTestRouter(authenticated(domain.RoleAdmin)), http.MethodGet, "/login", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("expected 303 to /admin, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouter_FailedLoginUsesErrorEnvelope(t *testing.T) {
	rec := serve(newTestRouter(domain.AnonymousProjection()), http.MethodPost, "/login", `{"email":"x@y.io","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	rec := serve(newTestRouter(domain.AnonymousProjection()), http.MethodGet, "/does/not/exist", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "/does/not/exist") {
		t.Fatalf("expected 404 echoing path, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := newTestRouter(domain.AnonymousProjection())
	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		if rec := serve(h, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
