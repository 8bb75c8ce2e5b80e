package schedule

// legalTransitions enumerates every allowed status change. Terminal
// statuses have no exits: cancelling an already-published post would leave
// an external_post_id on a non-published record.
var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusPublished, StatusFailed, StatusCancelled},
	StatusFailed:    {StatusPending, StatusCancelled},
	StatusPublished: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an InvalidTransitionError for illegal changes.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
