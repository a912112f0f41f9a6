package model

// allowedTransitions is the closed transition graph for return requests.
// The happy path is pending → approved → processing → completed →
// refunded. Rejection is permitted from any pre-completion state;
// cancellation only from pending.
var allowedTransitions = map[string][]string{
	StatusPending:    {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:   {StatusProcessing, StatusRejected},
	StatusProcessing: {StatusCompleted, StatusRejected},
	StatusCompleted:  {StatusRefunded},
	StatusRefunded:   {},
	StatusCancelled:  {},
	StatusRejected:   {},
}

// ValidStatus reports whether s is a known return status.
func ValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether from → to is a legal transition.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func IsTerminal(s string) bool {
	return ValidStatus(s) && len(allowedTransitions[s]) == 0
}

// AllowedNext lists the legal successor statuses of from.
func AllowedNext(from string) []string {
	next := allowedTransitions[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// ReversesBookkeeping reports whether entering this status must give the
// returned quantities back to the order items.
func ReversesBookkeeping(to string) bool {
	return to == StatusCancelled || to == StatusRejected
}
