package domain

import (
	"fmt"
	"time"
)

// Role is the application role carried on an account row.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

// AccountStatus marks whether an account is in active use.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// ApprovalStatus gates whether a signed-in identity is treated as logged in.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseRole maps a raw row value onto Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleOperator:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrUnrecognizedValue, s)
}

// ParseAccountStatus maps a raw row value onto AccountStatus.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case AccountActive, AccountInactive:
		return AccountStatus(s), nil
	}
	return "", fmt.Errorf("%w: status %q", ErrUnrecognizedValue, s)
}

// ParseApprovalStatus maps a raw row value onto ApprovalStatus.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	}
	return "", fmt.Errorf("%w: approval status %q", ErrUnrecognizedValue, s)
}

// Home returns the landing area for the role.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleOperator:
		return "/operator"
	}
	return "/login"
}

// Account is the typed profile record associated with a backend identity.
type Account struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	Role           Role           `json:"role"`
	FullName       string         `json:"full_name"`
	AssignedBelt   *string        `json:"assigned_belt,omitempty"`
	Status         AccountStatus  `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	LastLogin      *time.Time     `json:"last_login,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AccountPatch carries the fields an admin (or the login flow) may change.
// Nil fields are left untouched.
type AccountPatch struct {
	Username       *string
	Email          *string
	Role           *Role
	FullName       *string
	AssignedBelt   *string
	Status         *AccountStatus
	ApprovalStatus *ApprovalStatus
	LastLogin      *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.Role == nil && p.FullName == nil &&
		p.AssignedBelt == nil && p.Status == nil && p.ApprovalStatus == nil && p.LastLogin == nil
}

// AccountStats summarises the account table for the user management page.
type AccountStats struct {
	TotalUsers   int `json:"total_users"`
	Admins       int `json:"admins"`
	Operators    int `json:"operators"`
	ActiveUsers  int `json:"active_users"`
	PendingUsers int `json:"pending_users"`
}

// ComputeAccountStats counts accounts by role, status and approval.
func ComputeAccountStats(accounts []Account) AccountStats {
	stats := AccountStats{TotalUsers: len(accounts)}
	for _, a := range accounts {
		switch a.Role {
		case RoleAdmin:
			stats.Admins++
		case RoleOperator:
			stats.Operators++
		}
		if a.Status == AccountActive {
			stats.ActiveUsers++
		}
		if a.ApprovalStatus == ApprovalPending {
			stats.PendingUsers++
		}
	}
	return stats
}

// AuditEntry records an admin mutation on an account.
type AuditEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	AccountID string    `json:"account_id"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	AuditAccountCreated  = "account_created"
	AuditAccountApproved = "account_approved"
	AuditAccountRejected = "account_rejected"
	AuditAccountUpdated  = "account_updated"
)
