package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

type stubCredential struct {
	id     string
	secret string
}

// stubBackend is an in-memory BackendClient. Auth events are delivered
// synchronously and without holding the stub's lock, like the real client.
type stubBackend struct {
	mu         sync.Mutex
	rows       map[string]*ports.AccountRow
	creds      map[string]stubCredential
	session    *domain.Session
	handlers   map[int]ports.AuthEventHandler
	nextSub    int
	nextID     int
	signOuts   int
	getErr     error
	insertErr  error
	deleteErr  error
	deleted    []string
	onProbe    func()
	sessionErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		rows:     make(map[string]*ports.AccountRow),
		creds:    make(map[string]stubCredential),
		handlers: make(map[int]ports.AuthEventHandler),
	}
}

// addAccount registers credentials and a users row in one step.
func (b *stubBackend) addAccount(id, email, secret, username string, role domain.Role, approval domain.ApprovalStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.creds[email] = stubCredential{id: id, secret: secret}
	b.rows[id] = &ports.AccountRow{
		ID:             id,
		Username:       username,
		Email:          email,
		Role:           string(role),
		FullName:       username,
		Status:         string(domain.AccountActive),
		ApprovalStatus: string(approval),
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *stubBackend) row(id string) *ports.AccountRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[id]
	if !ok {
		return nil
	}
	clone := *r
	return &clone
}

func (b *stubBackend) currentSession() *domain.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

func (b *stubBackend) emit(ev domain.AuthEvent) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]ports.AuthEventHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(context.Background(), ev)
	}
}

func (b *stubBackend) newSession(userID, email string) *domain.Session {
	b.nextID++
	now := time.Now().UTC()
	return &domain.Session{
		ID:          fmt.Sprintf("sess-%s-%d", userID, b.nextID),
		UserID:      userID,
		Email:       email,
		AccessToken: "token",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

// setSession installs a session without emitting an event, like one
// restored from storage.
func (b *stubBackend) setSession(userID, email string) *domain.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = b.newSession(userID, email)
	return b.session
}

// dropSession ends the session without an event, like a store entry that
// expired or was revoked elsewhere.
func (b *stubBackend) dropSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = nil
}

func (b *stubBackend) SignUp(_ context.Context, identifier, secret string, _ map[string]string) (*domain.Identity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.creds[identifier]; ok {
		return nil, domain.ErrIdentityExists
	}
	id := "id-" + identifier
	b.creds[identifier] = stubCredential{id: id, secret: secret}
	return &domain.Identity{ID: id, Email: identifier, CreatedAt: time.Now().UTC()}, nil
}

func (b *stubBackend) DeleteIdentity(_ context.Context, identityID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	for email, c := range b.creds {
		if c.id == identityID {
			delete(b.creds, email)
		}
	}
	b.deleted = append(b.deleted, identityID)
	return nil
}

func (b *stubBackend) GetAccountRow(_ context.Context, accountID string) (*ports.AccountRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	r, ok := b.rows[accountID]
	if !ok {
		return nil, nil
	}
	clone := *r
	return &clone, nil
}

func (b *stubBackend) UpdateAccountRow(_ context.Context, accountID string, patch domain.AccountPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[accountID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	if patch.Username != nil {
		r.Username = *patch.Username
	}
	if patch.Email != nil {
		r.Email = *patch.Email
	}
	if patch.Role != nil {
		r.Role = string(*patch.Role)
	}
	if patch.AssignedBelt != nil {
		r.AssignedBelt = patch.AssignedBelt
	}
	if patch.Status != nil {
		r.Status = string(*patch.Status)
	}
	if patch.ApprovalStatus != nil {
		r.ApprovalStatus = string(*patch.ApprovalStatus)
	}
	if patch.LastLogin != nil {
		r.LastLogin = patch.LastLogin
	}
	return nil
}

func (b *stubBackend) InsertAccountRow(_ context.Context, row ports.AccountRow) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.insertErr != nil {
		return b.insertErr
	}
	clone := row
	b.rows[row.ID] = &clone
	return nil
}

func (b *stubBackend) ListAccountRows(_ context.Context) ([]ports.AccountRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	out := make([]ports.AccountRow, 0, len(b.rows))
	for _, r := range b.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (b *stubBackend) SignInWithCredentials(_ context.Context, identifier, secret string) (*domain.Session, error) {
	b.mu.Lock()
	c, ok := b.creds[identifier]
	if !ok || c.secret != secret {
		b.mu.Unlock()
		return nil, domain.ErrInvalidCredentials
	}
	sess := b.newSession(c.id, identifier)
	b.session = sess
	b.mu.Unlock()

	b.emit(domain.AuthEvent{Type: domain.EventSignedIn, Session: sess})
	return sess, nil
}

func (b *stubBackend) SignOut(_ context.Context) error {
	b.mu.Lock()
	b.session = nil
	b.signOuts++
	b.mu.Unlock()

	b.emit(domain.AuthEvent{Type: domain.EventSignedOut})
	return nil
}

func (b *stubBackend) GetCurrentSession(_ context.Context) (*domain.Session, error) {
	if b.onProbe != nil {
		b.onProbe()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sessionErr != nil {
		return nil, b.sessionErr
	}
	return b.session, nil
}

type stubSubscription func()

func (f stubSubscription) Unsubscribe() { f() }

func (b *stubBackend) OnAuthEvent(handler ports.AuthEventHandler) ports.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.handlers[id] = handler
	return stubSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	})
}

// inlineScheduler runs tasks on the caller's goroutine.
type inlineScheduler struct{}

func (inlineScheduler) Schedule(_ string, task func(ctx context.Context)) {
	task(context.Background())
}

// manualScheduler holds tasks until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context)
}

func (s *manualScheduler) Schedule(_ string, task func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// run executes the i-th queued task. Tasks keep their slots so indexes stay stable.
func (s *manualScheduler) run(i int) {
	s.mu.Lock()
	task := s.tasks[i]
	s.tasks[i] = func(context.Context) {}
	s.mu.Unlock()
	task(context.Background())
}

func (s *manualScheduler) runAll() {
	for i := 0; i < s.pending(); i++ {
		s.run(i)
	}
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (r *stubAuditRepo) Insert(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) ListRecent(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.AuditEntry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

var errStoreDown = errors.New("store down")
