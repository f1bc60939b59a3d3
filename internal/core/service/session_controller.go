package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
	"github.com/sortify/conveyor-dashboard/internal/pkg/metrics"
)

// SessionController tracks one visitor's authentication and approval state.
//
// State changes are driven by the backend's auth events. A SIGNED_IN event
// schedules a profile fetch through the TaskScheduler; its result is applied
// only if no newer event has arrived in the meantime (generation check).
// Accounts that are not approved are signed out again immediately, so the
// published projection never reports IsAuthenticated for them.
type SessionController struct {
	client    ports.BackendClient
	scheduler ports.TaskScheduler
	notifier  ports.Notifier
	log       zerolog.Logger
	key       string
	now       func() time.Time

	mu         sync.Mutex
	state      domain.Projection
	session    *domain.Session
	gen        uint64
	corrective bool
	lastErr    error
	inflight   int
	idle       chan struct{}
	sub        ports.Subscription
}

// NewSessionController wires a controller for the visitor identified by key.
// Call Start before use.
func NewSessionController(
	client ports.BackendClient,
	scheduler ports.TaskScheduler,
	notifier ports.Notifier,
	log zerolog.Logger,
	key string,
) *SessionController {
	return &SessionController{
		client:    client,
		scheduler: scheduler,
		notifier:  notifier,
		log:       log.With().Str("visitor", key).Logger(),
		key:       key,
		now:       time.Now,
		state:     domain.AnonymousProjection(),
	}
}

// Start subscribes to the auth event stream and then probes for an existing
// session. The probe classifies synchronously; both paths reach the same
// state for the same account.
func (c *SessionController) Start(ctx context.Context) {
	sub := c.client.OnAuthEvent(c.handleAuthEvent)
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	sess, err := c.client.GetCurrentSession(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("session probe failed")
		return
	}
	if sess == nil {
		c.log.Debug().Msg("no existing session")
		return
	}

	c.mu.Lock()
	gen := c.gen
	c.session = sess
	c.beginLocked()
	c.mu.Unlock()

	defer c.done()
	c.classifyAndApply(ctx, sess, gen, false)
}

// Close detaches the controller from the backend event stream.
func (c *SessionController) Close() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// Login checks credentials with the backend. A true result only means the
// credentials were accepted; the authenticated state becomes visible once
// the SIGNED_IN event has been classified.
func (c *SessionController) Login(ctx context.Context, identifier, secret string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		c.notifier.Notify(notificationFor(domain.ErrInvalidCredentials))
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return false, domain.ErrInvalidCredentials
	}

	if _, err := c.client.SignInWithCredentials(ctx, identifier, secret); err != nil {
		c.log.Info().Err(err).Str("identifier", identifier).Msg("credential check failed")
		n := notificationFor(err)
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			n = domain.Notification{
				Title:       "Login Failed",
				Description: "An unexpected error occurred during login",
				Variant:     domain.VariantDestructive,
			}
		}
		c.notifier.Notify(n)
		metrics.LoginAttemptsTotal.WithLabelValues(loginReason(err)).Inc()
		return false, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("accepted").Inc()
	return true, nil
}

// SignIn runs Login and waits for the approval classification it triggers.
// It returns nil only if the visitor ends up authenticated.
func (c *SessionController) SignIn(ctx context.Context, identifier, secret string) error {
	ok, err := c.Login(ctx, identifier, secret)
	if !ok {
		return err
	}
	if err := c.Settle(ctx); err != nil {
		return err
	}
	if !c.State().IsAuthenticated {
		return domain.ErrApprovalDenied
	}
	return nil
}

// Logout clears the published state and terminates the backend session.
func (c *SessionController) Logout(ctx context.Context) {
	c.mu.Lock()
	c.gen++
	c.session = nil
	c.corrective = false
	c.lastErr = nil
	c.state = domain.AnonymousProjection()
	c.mu.Unlock()

	if err := c.client.SignOut(ctx); err != nil {
		c.log.Error().Err(err).Msg("logout: backend sign-out failed")
	}
	c.log.Info().Msg("logged out")
}

// State returns a copy of the published projection.
func (c *SessionController) State() domain.Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Settle blocks until no profile fetch is in flight, then confirms that an
// authenticated projection still has a live backend session. It returns the
// error of the last classification, if any.
func (c *SessionController) Settle(ctx context.Context) error {
	if err := c.waitIdle(ctx); err != nil {
		return err
	}
	c.revalidate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *SessionController) waitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.inflight == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}
	}
}

// revalidate drops an authenticated projection whose backend session has
// expired or ended. Expiry is checked locally first; a backend failure
// keeps the projection until the next check.
func (c *SessionController) revalidate(ctx context.Context) {
	c.mu.Lock()
	if !c.state.IsAuthenticated || c.session == nil {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	expired := !c.now().Before(c.session.ExpiresAt)
	c.mu.Unlock()

	if expired {
		c.log.Info().Msg("session expired, signing out")
		if err := c.client.SignOut(ctx); err != nil {
			c.log.Warn().Err(err).Msg("sign-out of expired session failed")
		}
	} else {
		sess, err := c.client.GetCurrentSession(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("session revalidation failed")
			return
		}
		if sess != nil {
			return
		}
		c.log.Info().Msg("backend session ended")
	}

	// SIGNED_OUT normally clears the state already; this covers backends
	// that end sessions silently.
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.gen++
	c.session = nil
	c.state = domain.AnonymousProjection()
}

func (c *SessionController) handleAuthEvent(_ context.Context, ev domain.AuthEvent) {
	switch ev.Type {
	case domain.EventSignedIn:
		if ev.Session == nil {
			return
		}
		sess := ev.Session
		c.mu.Lock()
		c.gen++
		gen := c.gen
		c.session = sess
		c.lastErr = nil
		c.beginLocked()
		c.mu.Unlock()

		c.log.Debug().Str("account_id", sess.UserID).Msg("signed in, scheduling profile fetch")
		c.scheduler.Schedule(c.key, func(ctx context.Context) {
			defer c.done()
			c.classifyAndApply(ctx, sess, gen, true)
		})

	case domain.EventSignedOut:
		c.mu.Lock()
		c.gen++
		c.session = nil
		if c.corrective {
			// our own sign-out after a denial: keep the denial visible
			c.corrective = false
		} else {
			c.state = domain.AnonymousProjection()
		}
		c.mu.Unlock()
		c.log.Debug().Msg("signed out")
	}
}

// classifyAndApply fetches the profile for sess and publishes the result if
// gen is still current. recordLogin stamps last_login on approved accounts.
func (c *SessionController) classifyAndApply(ctx context.Context, sess *domain.Session, gen uint64, recordLogin bool) {
	row, fetchErr := c.client.GetAccountRow(ctx, sess.UserID)
	result := Classify(row, fetchErr)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug().Str("account_id", sess.UserID).Msg("discarding stale profile result")
		metrics.ClassificationsTotal.WithLabelValues("stale").Inc()
		return
	}
	c.lastErr = result.Err
	c.state = result.Projection()
	if result.State == domain.StateAuthenticated {
		c.mu.Unlock()
		metrics.ClassificationsTotal.WithLabelValues(string(result.State)).Inc()
		c.log.Info().
			Str("account_id", sess.UserID).
			Str("role", string(result.Account.Role)).
			Msg("account authenticated")
		if recordLogin {
			c.notifier.Notify(domain.Notification{
				Title:       "Login Successful",
				Description: "Welcome back, " + result.Account.Username + "!",
			})
			c.recordLogin(ctx, sess.UserID)
		}
		return
	}
	c.session = nil
	c.corrective = true
	c.mu.Unlock()

	metrics.ClassificationsTotal.WithLabelValues(string(result.State)).Inc()
	c.log.Warn().
		Err(result.Err).
		Str("account_id", sess.UserID).
		Str("state", string(result.State)).
		Msg("account not approved, forcing sign-out")
	c.notifier.Notify(notificationFor(result.Err))

	if err := c.client.SignOut(ctx); err != nil {
		c.log.Error().Err(err).Msg("corrective sign-out failed")
	}
	c.mu.Lock()
	c.corrective = false
	c.mu.Unlock()
}

func (c *SessionController) recordLogin(ctx context.Context, accountID string) {
	now := c.now().UTC()
	if err := c.client.UpdateAccountRow(ctx, accountID, domain.AccountPatch{LastLogin: &now}); err != nil {
		c.log.Warn().Err(err).Str("account_id", accountID).Msg("failed to record last login")
	}
}

func (c *SessionController) beginLocked() {
	if c.inflight == 0 {
		c.idle = make(chan struct{})
	}
	c.inflight++
}

func (c *SessionController) done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		close(c.idle)
	}
}

func loginReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend_unavailable"
	}
	return "error"
}
