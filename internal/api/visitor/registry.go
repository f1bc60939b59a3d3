// Package visitor keeps one server-side session controller per browser.
package visitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
	"github.com/sortify/conveyor-dashboard/internal/pkg/metrics"
)

// Inbox queues notifications for the next response.
type Inbox interface {
	ports.Notifier
	Drain() []domain.Notification
}

// Visitor is the state held for one browser between requests.
type Visitor struct {
	ID      string
	Session ports.SessionController
	Inbox   Inbox

	close    func()
	lastSeen time.Time
}

func New(id string, session ports.SessionController, inbox Inbox, close func()) *Visitor {
	return &Visitor{ID: id, Session: session, Inbox: inbox, close: close}
}

func (v *Visitor) shutdown() {
	if v.close != nil {
		v.close()
	}
}

// Factory builds and starts the visitor for id.
type Factory func(ctx context.Context, id string) (*Visitor, error)

// Registry maps visitor ids to live visitors and evicts idle ones.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*Visitor
}

func NewRegistry(factory Factory, idleTTL time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		log:      log,
		now:      time.Now,
		visitors: make(map[string]*Visitor),
	}
}

// Get returns the visitor for id, creating it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Visitor, error) {
	r.mu.Lock()
	if v, ok := r.visitors[id]; ok {
		v.lastSeen = r.now()
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	created, err := r.factory(ctx, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visitors[id]; ok {
		// a concurrent request won the race
		created.shutdown()
		v.lastSeen = r.now()
		return v, nil
	}
	created.lastSeen = r.now()
	r.visitors[id] = created
	metrics.ActiveVisitors.Set(float64(len(r.visitors)))
	r.log.Debug().Str("visitor", id).Msg("visitor created")
	return created, nil
}

// Sweep evicts visitors idle for longer than the idle TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Visitor
	for id, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			idle = append(idle, v)
			delete(r.visitors, id)
		}
	}
	metrics.ActiveVisitors.Set(float64(len(r.visitors)))
	r.mu.Unlock()

	for _, v := range idle {
		v.shutdown()
	}
	if len(idle) > 0 {
		r.log.Debug().Int("evicted", len(idle)).Msg("idle visitors evicted")
	}
	return len(idle)
}

// Run sweeps periodically until ctx is cancelled, then closes all visitors.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close shuts down every visitor.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.visitors
	r.visitors = make(map[string]*Visitor)
	metrics.ActiveVisitors.Set(0)
	r.mu.Unlock()

	for _, v := range all {
		v.shutdown()
	}
}

// Len returns the number of live visitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}
