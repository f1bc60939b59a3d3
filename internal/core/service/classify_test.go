package service

import (
	"errors"
	"testing"

	"github.com/sortify/conveyor-dashboard/internal/core/domain"
	"github.com/sortify/conveyor-dashboard/internal/core/ports"
)

func TestClassify(t *testing.T) {
	row := func(role, approval string) *ports.AccountRow {
		return &ports.AccountRow{ID: "u1", Username: "kim", Role: role, ApprovalStatus: approval}
	}

	cases := []struct {
		name     string
		row      *ports.AccountRow
		fetchErr error
		state    domain.AuthState
		err      error
	}{
		{"approved admin", row("admin", "approved"), nil, domain.StateAuthenticated, nil},
		{"approved operator", row("operator", "approved"), nil, domain.StateAuthenticated, nil},
		{"pending", row("operator", "pending"), nil, domain.StatePendingApproval, domain.ErrApprovalPending},
		{"rejected", row("operator", "rejected"), nil, domain.StateDenied, domain.ErrApprovalDenied},
		{"missing row", nil, nil, domain.StateDenied, domain.ErrProfileNotFound},
		{"fetch error", nil, errStoreDown, domain.StateDenied, domain.ErrBackendUnavailable},
		{"unknown approval", row("operator", "on_hold"), nil, domain.StateDenied, domain.ErrUnrecognizedValue},
		{"unknown role", row("viewer", "approved"), nil, domain.StateDenied, domain.ErrUnrecognizedValue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.row, tc.fetchErr)
			if got.State != tc.state {
				t.Fatalf("state = %s, want %s", got.State, tc.state)
			}
			if tc.err == nil && got.Err != nil {
				t.Fatalf("unexpected error: %v", got.Err)
			}
			if tc.err != nil && !errors.Is(got.Err, tc.err) {
				t.Fatalf("err = %v, want %v", got.Err, tc.err)
			}
			p := got.Projection()
			if p.IsAuthenticated != (tc.state == domain.StateAuthenticated) {
				t.Fatalf("IsAuthenticated = %v for state %s", p.IsAuthenticated, tc.state)
			}
			if p.IsAuthenticated && p.ApprovalStatus != domain.ApprovalApproved {
				t.Fatalf("authenticated projection must carry approved status, got %s", p.ApprovalStatus)
			}
		})
	}
}

func TestClassify_KeepsApprovalOnDenial(t *testing.T) {
	got := Classify(&ports.AccountRow{ID: "u1", Role: "operator", ApprovalStatus: "rejected"}, nil)
	if p := got.Projection(); p.ApprovalStatus != domain.ApprovalRejected || p.Role != "" {
		t.Fatalf("unexpected projection: %+v", p)
	}
}

func TestAccountFromRow_DefaultsStatus(t *testing.T) {
	a, err := AccountFromRow(ports.AccountRow{ID: "u1", Role: "admin", ApprovalStatus: "approved"})
	if err != nil {
		t.Fatalf("AccountFromRow returned error: %v", err)
	}
	if a.Status != domain.AccountActive {
		t.Fatalf("status = %s, want active", a.Status)
	}

	if _, err := AccountFromRow(ports.AccountRow{ID: "u1", Role: "admin", ApprovalStatus: "approved", Status: "frozen"}); !errors.Is(err, domain.ErrUnrecognizedValue) {
		t.Fatalf("expected ErrUnrecognizedValue, got %v", err)
	}
}

func TestNotificationQueue_DrainAndLimit(t *testing.T) {
	q := NewNotificationQueue()
	for i := 0; i < maxQueuedNotifications+5; i++ {
		q.Notify(domain.Notification{Title: string(rune('a' + i))})
	}
	got := q.Drain()
	if len(got) != maxQueuedNotifications {
		t.Fatalf("len = %d, want %d", len(got), maxQueuedNotifications)
	}
	if got[0].Title != string(rune('a'+5)) {
		t.Fatalf("oldest entries should be dropped first, got %q", got[0].Title)
	}
	if len(q.Drain()) != 0 {
		t.Fatalf("queue should be empty after drain")
	}
}
