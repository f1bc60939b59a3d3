package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

type clientFixture struct {
	auth     *Auth
	dir      *Directory
	accounts *memAccounts
	tokens   *memTokens
	sessions *memSessions
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	sessions := newMemSessions()
	auth := NewAuth(newMemIdentities(), sessions, testSecret, time.Hour, zerolog.Nop(), WithHashCost(bcrypt.MinCost))
	accounts := newMemAccounts()
	f := &clientFixture{
		auth:     auth,
		dir:      NewDirectory(auth, accounts),
		accounts: accounts,
		tokens:   newMemTokens(),
		sessions: sessions,
	}
	if _, err := auth.SignUp(context.Background(), "op@x.com", "pw123456", nil); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return f
}

func (f *clientFixture) client(visitor string) *Client {
	return NewClient(f.dir, f.auth, f.tokens, visitor, zerolog.Nop())
}

func recordEvents(c *Client) *[]domain.AuthEvent {
	var events []domain.AuthEvent
	c.OnAuthEvent(func(_ context.Context, ev domain.AuthEvent) {
		events = append(events, ev)
	})
	return &events
}

func TestClient_SignInEmitsAndPersistsToken(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	events := recordEvents(c)

	sess, err := c.SignInWithCredentials(context.Background(), "op@x.com", "pw123456")
	if err != nil {
		t.Fatalf("SignInWithCredentials failed: %v", err)
	}
	if len(*events) != 1 || (*events)[0].Type != domain.EventSignedIn || (*events)[0].Session.ID != sess.ID {
		t.Fatalf("unexpected events: %+v", *events)
	}
	if f.tokens.tokens["v1"] != sess.AccessToken {
		t.Fatalf("access token not persisted for visitor")
	}
}

func TestClient_FailedSignInEmitsNothing(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	events := recordEvents(c)

	if _, err := c.SignInWithCredentials(context.Background(), "op@x.com", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(*events) != 0 {
		t.Fatalf("failed sign-in must not emit events")
	}
}

func TestClient_SignOutAlwaysEmits(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	events := recordEvents(c)

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut without session failed: %v", err)
	}
	if len(*events) != 1 || (*events)[0].Type != domain.EventSignedOut {
		t.Fatalf("expected SIGNED_OUT, got %+v", *events)
	}

	_, _ = c.SignInWithCredentials(context.Background(), "op@x.com", "pw123456")
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if f.sessions.count() != 0 {
		t.Fatalf("session should be revoked")
	}
	if _, ok := f.tokens.tokens["v1"]; ok {
		t.Fatalf("visitor token should be cleared")
	}
	if s, _ := c.GetCurrentSession(context.Background()); s != nil {
		t.Fatalf("expected no session after sign-out")
	}
}

func TestClient_RestoresSessionFromStorage(t *testing.T) {
	f := newClientFixture(t)
	first := f.client("v1")
	sess, _ := first.SignInWithCredentials(context.Background(), "op@x.com", "pw123456")

	// a fresh client for the same visitor, as after an eviction or restart
	second := f.client("v1")
	got, err := second.GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentSession failed: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("expected restored session %s, got %+v", sess.ID, got)
	}

	other := f.client("v2")
	if s, _ := other.GetCurrentSession(context.Background()); s != nil {
		t.Fatalf("another visitor must not see the session")
	}
}

func TestClient_DropsRevokedStoredToken(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	sess, _ := c.SignInWithCredentials(context.Background(), "op@x.com", "pw123456")
	_ = f.auth.Revoke(context.Background(), sess.ID)

	got, err := c.GetCurrentSession(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) for revoked session, got %+v, %v", got, err)
	}
	if _, ok := f.tokens.tokens["v1"]; ok {
		t.Fatalf("stale token should be cleared")
	}
}

func TestClient_EmitsSignedOutWhenSessionEnds(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	sess, _ := c.SignInWithCredentials(context.Background(), "op@x.com", "pw123456")
	events := recordEvents(c)

	_ = f.sessions.Delete(context.Background(), sess.ID)

	got, err := c.GetCurrentSession(context.Background())
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil) once the session is gone, got %+v, %v", got, err)
	}
	if len(*events) != 1 || (*events)[0].Type != domain.EventSignedOut {
		t.Fatalf("expected one SIGNED_OUT event, got %+v", *events)
	}

	_, _ = c.GetCurrentSession(context.Background())
	if len(*events) != 1 {
		t.Fatalf("no session held, nothing more to emit: %+v", *events)
	}
}

func TestClient_Unsubscribe(t *testing.T) {
	f := newClientFixture(t)
	c := f.client("v1")
	count := 0
	sub := c.OnAuthEvent(func(context.Context, domain.AuthEvent) { count++ })
	sub.Unsubscribe()
	sub.Unsubscribe()

	_ = c.SignOut(context.Background())
	if count != 0 {
		t.Fatalf("unsubscribed handler was called %d times", count)
	}
}

func TestDirectory_WrapsStoreFailures(t *testing.T) {
	f := newClientFixture(t)
	var dir ports.AccountDirectory = f.dir

	if row, err := dir.GetAccountRow(context.Background(), "missing"); row != nil || err != nil {
		t.Fatalf("expected (nil, nil) for missing row, got %+v, %v", row, err)
	}

	approved := domain.ApprovalApproved
	if err := dir.UpdateAccountRow(context.Background(), "missing", domain.AccountPatch{ApprovalStatus: &approved}); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	f.accounts.err = errStoreDown
	if _, err := dir.GetAccountRow(context.Background(), "u1"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if _, err := dir.ListAccountRows(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
