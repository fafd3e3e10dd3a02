package lifecycle

import (
	"testing"
	"time"
)

func TestIsValidTransition_Table(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusPending, true},
		{StatusPending, StatusLive, true},
		{StatusPending, StatusTakenDown, true},
		{StatusLive, StatusExpired, true},
		{StatusLive, StatusTakenDown, true},
		{StatusExpired, StatusDraft, true},
		// reverse edges are not implied
		{StatusPending, StatusDraft, false},
		{StatusLive, StatusPending, false},
		{StatusDraft, StatusLive, false},
		// terminal states have no exits
		{StatusTakenDown, StatusDraft, false},
		{StatusTakenDown, StatusLive, false},
		{StatusSold, StatusDraft, false},
	}

	for _, tt := range tests {
		if got := IsValidTransition(tt.from, tt.to); got != tt.want {
			t.Fatalf("IsValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsValidTransition_SameStateAlwaysIllegal(t *testing.T) {
	for _, s := range []Status{StatusDraft, StatusPending, StatusLive, StatusExpired, StatusTakenDown, StatusSold} {
		if IsValidTransition(s, s) {
			t.Fatalf("expected same-state transition %s -> %s to be illegal", s, s)
		}
	}
}

func TestIsValidTransition_UnknownStatus(t *testing.T) {
	if IsValidTransition(Status("BOGUS"), StatusLive) {
		t.Fatalf("expected unknown source status to have no edges")
	}
	if IsValidTransition(StatusDraft, Status("BOGUS")) {
		t.Fatalf("expected unknown target status to be illegal")
	}
}

func TestValidNextStatuses(t *testing.T) {
	if got := ValidNextStatuses(StatusTakenDown); len(got) != 0 {
		t.Fatalf("ValidNextStatuses(TAKEN_DOWN) = %v, want empty", got)
	}

	draft := ValidNextStatuses(StatusDraft)
	if len(draft) != 1 || draft[0] != StatusPending {
		t.Fatalf("ValidNextStatuses(DRAFT) = %v, want [PENDING]", draft)
	}

	pending := ValidNextStatuses(StatusPending)
	if len(pending) != 2 || pending[0] != StatusLive || pending[1] != StatusTakenDown {
		t.Fatalf("ValidNextStatuses(PENDING) = %v, want [LIVE TAKEN_DOWN]", pending)
	}
}

func TestValidNextStatuses_ReturnsCopy(t *testing.T) {
	first := ValidNextStatuses(StatusPending)
	first[0] = StatusDraft
	second := ValidNextStatuses(StatusPending)
	if second[0] != StatusLive {
		t.Fatalf("mutating the returned slice leaked into the table: %v", second)
	}
}

func TestNormalize_ApprovedBehavesLikeLive(t *testing.T) {
	if Normalize(StatusApproved) != StatusLive {
		t.Fatalf("expected APPROVED to normalize to LIVE")
	}
	if !IsValidTransition(StatusApproved, StatusExpired) {
		t.Fatalf("expected APPROVED to carry LIVE's edges")
	}
	if IsValidTransition(StatusApproved, StatusLive) {
		t.Fatalf("APPROVED -> LIVE normalizes to LIVE -> LIVE and must be illegal")
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusTakenDown, StatusSold} {
		if !IsTerminal(s) {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusDraft, StatusPending, StatusLive, StatusApproved, StatusExpired} {
		if IsTerminal(s) {
			t.Fatalf("expected %s not to be terminal", s)
		}
	}
}

func TestCalculateExpiryDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := CalculateExpiryDate(now, 30)
	want := now.Add(30 * 24 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("CalculateExpiryDate = %v, want %v", got, want)
	}
}
