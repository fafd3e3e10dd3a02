// Package lifecycle holds the listing status machine. It is pure: callers
// persist the resulting status themselves and must re-validate inside the
// same transaction they commit, so a concurrent writer cannot race past the
// legality check.
package lifecycle

import "time"

// Status is a listing publication state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusLive      Status = "LIVE"
	StatusApproved  Status = "APPROVED" // legacy synonym of LIVE, normalized at the boundary
	StatusExpired   Status = "EXPIRED"
	StatusTakenDown Status = "TAKEN_DOWN"
	StatusSold      Status = "SOLD"
)

// validTransitions is the full directed transition table. Absent pairs are
// illegal, including same-state writes. TAKEN_DOWN and SOLD are terminal.
var validTransitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusLive, StatusTakenDown},
	StatusLive:      {StatusExpired, StatusTakenDown},
	StatusExpired:   {StatusDraft},
	StatusTakenDown: {},
	StatusSold:      {},
}

// Normalize maps the deprecated APPROVED value onto LIVE. All transition
// checks run on normalized values, so callers still holding APPROVED rows
// get LIVE's edges.
func Normalize(s Status) Status {
	if s == StatusApproved {
		return StatusLive
	}
	return s
}

// IsValidTransition reports whether moving from one status to another is
// allowed by the transition table.
func IsValidTransition(from, to Status) bool {
	from = Normalize(from)
	to = Normalize(to)
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStatuses returns the legal targets from a status, in table order.
// The result is a copy; callers may modify it.
func ValidNextStatuses(from Status) []Status {
	next := validTransitions[Normalize(from)]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(validTransitions[Normalize(s)]) == 0
}

// CalculateExpiryDate returns when a listing approved now should expire.
func CalculateExpiryDate(now time.Time, durationDays int) time.Time {
	return now.Add(time.Duration(durationDays) * 24 * time.Hour)
}
