package domain

import "fmt"

// ContentStatus is the publication state shared by materials and assessments.
type ContentStatus string

// Possible content status values
const (
	StatusDraft     ContentStatus = "draft"
	StatusPublished ContentStatus = "published"
	StatusArchived  ContentStatus = "archived"
)

// allowedTransitions lists the forward edges of the status machine.
// archived has no outgoing edges.
var allowedTransitions = map[ContentStatus][]ContentStatus{
	StatusDraft:     {StatusPublished, StatusArchived},
	StatusPublished: {StatusArchived},
}

// IsValid reports whether s is one of the known statuses.
func (s ContentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a record in state from may move to state to.
// Re-applying the current state is accepted as a no-op.
func CanTransition(from, to ContentStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a ValidationError when from -> to is not allowed.
func ValidateTransition(from, to ContentStatus) error {
	if !to.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", to))
	}
	if !CanTransition(from, to) {
		return NewValidationError("status", fmt.Sprintf("cannot move from %s to %s", from, to))
	}
	return nil
}
