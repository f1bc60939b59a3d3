package domain

import "time"

// Identity is the backend-side credential record. It is distinct from the
// Account row that carries role and approval status.
type Identity struct {
	ID         string
	Email      string
	SecretHash string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Session is a live backend session for one identity.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"-"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthEventType is the kind of change reported on the backend auth stream.
type AuthEventType string

const (
	EventSignedIn  AuthEventType = "SIGNED_IN"
	EventSignedOut AuthEventType = "SIGNED_OUT"
)

// AuthEvent is delivered to subscribers of a backend client.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// AuthState is the controller's position in the approval state machine.
type AuthState string

const (
	StateAnonymous       AuthState = "anonymous"
	StatePendingApproval AuthState = "pending_approval"
	StateAuthenticated   AuthState = "authenticated"
	StateDenied          AuthState = "denied"
)

// Projection is what the controller publishes to route guards and pages.
// IsAuthenticated is only ever true together with ApprovalApproved.
type Projection struct {
	State           AuthState      `json:"state"`
	IsAuthenticated bool           `json:"is_authenticated"`
	Role            Role           `json:"role,omitempty"`
	Name            string         `json:"name,omitempty"`
	ApprovalStatus  ApprovalStatus `json:"approval_status,omitempty"`
}

// AnonymousProjection is the cleared state: nothing authenticated, all fields empty.
func AnonymousProjection() Projection {
	return Projection{State: StateAnonymous}
}

// Notification is a user-facing message (toast) raised by the controller or a page action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"`
}

const VariantDestructive = "destructive"
