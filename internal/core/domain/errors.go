package domain

import "errors"

// Sign-in and approval failures. All of them resolve to the signed-out state.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrApprovalPending    = errors.New("account pending approval")
	ErrApprovalDenied     = errors.New("account access denied")
	ErrProfileNotFound    = errors.New("user profile not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnrecognizedValue  = errors.New("unrecognized value")
)

var (
	ErrIdentityExists  = errors.New("identity already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrItemNotFound    = errors.New("item not found")
)
