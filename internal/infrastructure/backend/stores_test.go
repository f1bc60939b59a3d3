package backend

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

var errStoreDown = errors.New("store down")

type memIdentities struct {
	mu      sync.Mutex
	byEmail map[string]*domain.Identity
	err     error
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byEmail: make(map[string]*domain.Identity)}
}

func (m *memIdentities) Create(_ context.Context, identity *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byEmail[identity.Email]; ok {
		return domain.ErrIdentityExists
	}
	clone := *identity
	m.byEmail[identity.Email] = &clone
	return nil
}

func (m *memIdentities) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	i, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	clone := *i
	return &clone, nil
}

func (m *memIdentities) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, i := range m.byEmail {
		if i.ID == id {
			delete(m.byEmail, email)
		}
	}
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Session)}
}

func (m *memSessions) Put(_ context.Context, s *domain.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	clone.AccessToken = ""
	m.sessions[s.ID] = clone
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]string)}
}

func (m *memTokens) Load(_ context.Context, visitorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[visitorID], nil
}

func (m *memTokens) Save(_ context.Context, visitorID, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[visitorID] = token
	return nil
}

func (m *memTokens) Clear(_ context.Context, visitorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, visitorID)
	return nil
}

type memAccounts struct {
	mu   sync.Mutex
	rows map[string]ports.AccountRow
	err  error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{rows: make(map[string]ports.AccountRow)}
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*ports.AccountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memAccounts) Insert(_ context.Context, row ports.AccountRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[row.ID] = row
	return nil
}

func (m *memAccounts) Update(_ context.Context, id string, patch domain.AccountPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	if patch.ApprovalStatus != nil {
		r.ApprovalStatus = string(*patch.ApprovalStatus)
	}
	if patch.LastLogin != nil {
		r.LastLogin = patch.LastLogin
	}
	m.rows[id] = r
	return nil
}

func (m *memAccounts) List(_ context.Context) ([]ports.AccountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]ports.AccountRow, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
