// Package proposal owns the proposal lifecycle.
//
// Valid status graph:
//
//	PENDING ──► RESPONDED ──► SELECTED
//	               │ ▲
//	               │ └── resubmission
//	               └────► REJECTED
//
// SELECTED and REJECTED are terminal. Selecting one proposal also moves every
// other PENDING or RESPONDED proposal of the same request to REJECTED.
package proposal

import "quote-workers/internal/models"

// validTransitions lists every transition a caller may request directly.
var validTransitions = map[models.ProposalStatus][]models.ProposalStatus{
	models.ProposalStatusPending:   {models.ProposalStatusResponded},
	models.ProposalStatusResponded: {models.ProposalStatusResponded, models.ProposalStatusSelected, models.ProposalStatusRejected},
	// SELECTED and REJECTED are terminal
}

// IsTransitionAllowed reports whether from → to is permitted.
func IsTransitionAllowed(from, to models.ProposalStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.ProposalStatus) bool {
	return s == models.ProposalStatusSelected || s == models.ProposalStatusRejected
}

// CanSubmit reports whether a company may (re)submit a proposal currently in s.
func CanSubmit(s models.ProposalStatus) bool {
	return IsTransitionAllowed(s, models.ProposalStatusResponded)
}

// isSiblingRejectable reports whether a sibling in s is swept to REJECTED
// when another proposal of the same request is selected.
func isSiblingRejectable(s models.ProposalStatus) bool {
	return s == models.ProposalStatusPending || s == models.ProposalStatusResponded
}
