package application

import (
	"fmt"
	"strings"
)

// Status is the canonical application lifecycle state. The wire labels match
// the stored labels; older callers using the pending/approved/rejected
// vocabulary are translated at the boundary by ParseStatus and never stored.
type Status string

const (
	StatusSubmitted   Status = "Submitted"
	StatusUnderReview Status = "Under Review"
	StatusAccepted    Status = "Accepted"
	StatusRejected    Status = "Rejected"
	StatusAwarded     Status = "Awarded"
)

// Statuses lists every canonical status.
var Statuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusAccepted,
	StatusRejected,
	StatusAwarded,
}

// allowedEdges declares the whitelisted transition graph once. Awarded is
// reachable only through settlement, which consults this table directly.
var allowedEdges = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusAccepted, StatusRejected},
	StatusAccepted:    {StatusAwarded, StatusRejected},
}

// Valid reports whether s is a member of the canonical enumeration.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusAwarded
}

// CanTransition reports whether the edge s -> target is in the whitelist.
func (s Status) CanTransition(target Status) bool {
	for _, next := range allowedEdges[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ApprovedSet holds the statuses the finance view treats as payable or paid.
var ApprovedSet = []Status{StatusAccepted, StatusAwarded}

// Approved reports whether s is in the approved-or-awarded set.
func (s Status) Approved() bool {
	return s == StatusAccepted || s == StatusAwarded
}

// legacyAliases maps the older three-state vocabulary onto the canonical set.
var legacyAliases = map[string]Status{
	"pending":  StatusSubmitted,
	"approved": StatusAccepted,
	"rejected": StatusRejected,
}

// ParseStatus resolves a wire label, canonical or legacy, to a Status.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.TrimSpace(raw)
	if s := Status(trimmed); s.Valid() {
		return s, nil
	}
	if s, ok := legacyAliases[strings.ToLower(trimmed)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown status %q", raw)
}
