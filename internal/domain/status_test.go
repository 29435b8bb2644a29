package domain

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to ContentStatus
		want     bool
	}{
		{StatusDraft, StatusPublished, true},
		{StatusDraft, StatusArchived, true},
		{StatusPublished, StatusArchived, true},
		{StatusDraft, StatusDraft, true},
		{StatusArchived, StatusArchived, true},
		{StatusPublished, StatusDraft, false},
		{StatusArchived, StatusDraft, false},
		{StatusArchived, StatusPublished, false},
		{StatusDraft, "retired", false},
		{"", StatusPublished, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			t.Parallel()
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	t.Parallel()

	if err := ValidateTransition(StatusDraft, StatusPublished); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := ValidateTransition(StatusArchived, StatusPublished)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "status" {
		t.Errorf("Expected ValidationError on status, got %v", err)
	}

	if err := ValidateTransition(StatusDraft, "deleted"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for unknown status, got %v", err)
	}
}

func TestArchivedIsTerminal(t *testing.T) {
	t.Parallel()

	for _, to := range []ContentStatus{StatusDraft, StatusPublished} {
		if err := ValidateTransition(StatusArchived, to); !errors.Is(err, ErrValidation) {
			t.Errorf("archived -> %s: expected validation error, got %v", to, err)
		}
	}

	// Repeating an archive is accepted so that retried requests succeed,
	// and it leaves the record archived.
	if err := ValidateTransition(StatusArchived, StatusArchived); err != nil {
		t.Errorf("archived -> archived: expected no-op, got %v", err)
	}
}
