package backend

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

// Client is one visitor's handle on the backend. It keeps the visitor's
// session, persists its access token in visitor storage and reports session
// changes to subscribers. Events are delivered synchronously on the
// goroutine that caused them, without holding the client's lock.
type Client struct {
	*Directory

	auth      *Auth
	storage   ports.TokenStorage
	visitorID string
	log       zerolog.Logger

	mu       sync.Mutex
	session  *domain.Session
	handlers map[uint64]ports.AuthEventHandler
	nextSub  uint64
}

func NewClient(dir *Directory, auth *Auth, storage ports.TokenStorage, visitorID string, log zerolog.Logger) *Client {
	return &Client{
		Directory: dir,
		auth:      auth,
		storage:   storage,
		visitorID: visitorID,
		log:       log.With().Str("visitor", visitorID).Logger(),
		handlers:  make(map[uint64]ports.AuthEventHandler),
	}
}

var _ ports.BackendClient = (*Client)(nil)

// SignInWithCredentials opens a session and emits SIGNED_IN.
func (c *Client) SignInWithCredentials(ctx context.Context, identifier, secret string) (*domain.Session, error) {
	sess, err := c.auth.SignIn(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	if err := c.storage.Save(ctx, c.visitorID, sess.AccessToken, time.Until(sess.ExpiresAt)); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist access token")
	}

	c.mu.Lock()
	prev := c.session
	c.session = sess
	c.mu.Unlock()

	if prev != nil && prev.ID != sess.ID {
		if err := c.auth.Revoke(ctx, prev.ID); err != nil {
			c.log.Warn().Err(err).Str("session_id", prev.ID).Msg("failed to revoke replaced session")
		}
	}

	c.emit(ctx, domain.AuthEvent{Type: domain.EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut ends the current session, if any, and always emits SIGNED_OUT.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	var errs []error
	if sess != nil {
		if err := c.auth.Revoke(ctx, sess.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.storage.Clear(ctx, c.visitorID); err != nil {
		errs = append(errs, unavailable(err))
	}

	c.emit(ctx, domain.AuthEvent{Type: domain.EventSignedOut})
	return errors.Join(errs...)
}

// GetCurrentSession returns the visitor's live session, restoring it from
// visitor storage when the client has none in memory. It returns (nil, nil)
// when there is no valid session, and emits SIGNED_OUT if that drops the
// session the client was holding.
func (c *Client) GetCurrentSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	token := ""
	if c.session != nil {
		token = c.session.AccessToken
	}
	c.mu.Unlock()

	if token == "" {
		stored, err := c.storage.Load(ctx, c.visitorID)
		if err != nil {
			return nil, unavailable(err)
		}
		if stored == "" {
			return nil, nil
		}
		token = stored
	}

	sess, err := c.auth.Verify(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.mu.Lock()
		dropped := c.session != nil && c.session.AccessToken == token
		if dropped {
			c.session = nil
		}
		c.mu.Unlock()
		if err := c.storage.Clear(ctx, c.visitorID); err != nil {
			c.log.Warn().Err(err).Msg("failed to clear stale access token")
		}
		if dropped {
			c.emit(ctx, domain.AuthEvent{Type: domain.EventSignedOut})
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	return sess, nil
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.cancel) }

// OnAuthEvent registers handler for future events.
func (c *Client) OnAuthEvent(handler ports.AuthEventHandler) ports.Subscription {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.handlers[id] = handler
	c.mu.Unlock()

	return &subscription{cancel: func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}}
}

func (c *Client) emit(ctx context.Context, ev domain.AuthEvent) {
	c.mu.Lock()
	ids := make([]uint64, 0, len(c.handlers))
	for id := range c.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]ports.AuthEventHandler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.handlers[id])
	}
	c.mu.Unlock()

	c.log.Debug().Str("event", string(ev.Type)).Int("subscribers", len(handlers)).Msg("auth event")
	for _, h := range handlers {
		h(ctx, ev)
	}
}
