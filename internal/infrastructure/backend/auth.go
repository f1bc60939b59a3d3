package backend

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sortify-dummy-secret"), bcrypt.DefaultCost)

// Auth is the identity and session core of the hosted backend.
type Auth struct {
	identities ports.IdentityRepository
	sessions   ports.SessionStore
	tokens     *TokenSigner
	ttl        time.Duration
	cost       int
	log        zerolog.Logger
	now        func() time.Time
}

// AuthOption customizes an Auth.
type AuthOption func(*Auth)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(a *Auth) { a.cost = cost }
}

func NewAuth(identities ports.IdentityRepository, sessions ports.SessionStore, secret string, ttl time.Duration, log zerolog.Logger, opts ...AuthOption) *Auth {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	a := &Auth{
		identities: identities,
		sessions:   sessions,
		tokens:     NewTokenSigner(secret),
		ttl:        ttl,
		cost:       bcrypt.DefaultCost,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SessionTTL is the lifetime of sessions issued by SignIn.
func (a *Auth) SessionTTL() time.Duration { return a.ttl }

// SignUp creates an identity. It does not open a session.
func (a *Auth) SignUp(ctx context.Context, email, secret string, metadata map[string]string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || secret == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), a.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	identity := &domain.Identity{
		ID:         uuid.NewString(),
		Email:      email,
		SecretHash: string(hash),
		Metadata:   metadata,
		CreatedAt:  a.now().UTC(),
	}
	if err := a.identities.Create(ctx, identity); err != nil {
		return nil, unavailable(err)
	}

	a.log.Info().Str("identity_id", identity.ID).Msg("identity created")
	return identity, nil
}

// SignIn checks the credentials and opens a session.
func (a *Auth) SignIn(ctx context.Context, email, secret string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	identity, err := a.identities.FindByEmail(ctx, email)
	if err != nil {
		return nil, unavailable(err)
	}
	if identity == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.SecretHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := a.now().UTC()
	sess := &domain.Session{
		ID:        ksuid.New().String(),
		UserID:    identity.ID,
		Email:     identity.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}
	token, err := a.tokens.Sign(sess)
	if err != nil {
		return nil, err
	}
	sess.AccessToken = token

	if err := a.sessions.Put(ctx, sess, a.ttl); err != nil {
		return nil, unavailable(err)
	}

	a.log.Debug().Str("identity_id", identity.ID).Str("session_id", sess.ID).Msg("session opened")
	return sess, nil
}

// Verify resolves an access token to its live session. Revoked or expired
// sessions yield domain.ErrSessionNotFound.
func (a *Auth) Verify(ctx context.Context, token string) (*domain.Session, error) {
	claimed, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	stored, err := a.sessions.Get(ctx, claimed.ID)
	if err != nil {
		return nil, unavailable(err)
	}
	if stored.UserID != claimed.UserID {
		return nil, fmt.Errorf("%w: subject mismatch", domain.ErrSessionNotFound)
	}
	stored.AccessToken = token
	return stored, nil
}

func (a *Auth) Revoke(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return unavailable(err)
	}
	return nil
}

func (a *Auth) DeleteIdentity(ctx context.Context, identityID string) error {
	if err := a.identities.Delete(ctx, identityID); err != nil {
		return unavailable(err)
	}
	a.log.Info().Str("identity_id", identityID).Msg("identity deleted")
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var knownErrors = []error{
	domain.ErrIdentityExists,
	domain.ErrSessionNotFound,
	domain.ErrProfileNotFound,
	domain.ErrInvalidInput,
	domain.ErrBackendUnavailable,
}

// unavailable marks store failures as domain.ErrBackendUnavailable and
// passes domain errors through.
func unavailable(err error) error {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
}
