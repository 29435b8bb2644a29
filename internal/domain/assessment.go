package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssessmentType distinguishes graded from practice assessments.
type AssessmentType string

// Assessment types
const (
	AssessmentFormative AssessmentType = "formative"
	AssessmentSummative AssessmentType = "summative"
)

// IsValid reports whether t is a known assessment type.
func (t AssessmentType) IsValid() bool {
	return t == AssessmentFormative || t == AssessmentSummative
}

// AssessmentCategory is the form an assessment takes.
type AssessmentCategory string

// Canonical assessment categories
const (
	CategoryExam          AssessmentCategory = "exam"
	CategoryAssignment    AssessmentCategory = "assignment"
	CategoryProject       AssessmentCategory = "project"
	CategoryPresentation  AssessmentCategory = "presentation"
	CategoryParticipation AssessmentCategory = "participation"
	CategoryQuiz          AssessmentCategory = "quiz"
	CategoryLabReport     AssessmentCategory = "lab_report"
	CategoryPortfolio     AssessmentCategory = "portfolio"
	CategoryOther         AssessmentCategory = "other"
)

// AssessmentCategories is the single source of truth for category validation.
var AssessmentCategories = []AssessmentCategory{
	CategoryExam,
	CategoryAssignment,
	CategoryProject,
	CategoryPresentation,
	CategoryParticipation,
	CategoryQuiz,
	CategoryLabReport,
	CategoryPortfolio,
	CategoryOther,
}

// IsValid reports whether c is a known category.
func (c AssessmentCategory) IsValid() bool {
	for _, known := range AssessmentCategories {
		if known == c {
			return true
		}
	}
	return false
}

// Assessment is a graded or practice task of a unit.
type Assessment struct {
	ID       uuid.UUID          `json:"id"`
	UnitID   uuid.UUID          `json:"unit_id"`
	Title    string             `json:"title"`
	Type     AssessmentType     `json:"type"`
	Category AssessmentCategory `json:"category"`
	// Weight is the share of the final grade, in percent.
	Weight          float64       `json:"weight"`
	ReleaseWeek     *int          `json:"release_week,omitempty"`
	DueWeek         *int          `json:"due_week,omitempty"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	Status          ContentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// AssessmentParams groups the author-supplied fields of a new assessment.
type AssessmentParams struct {
	Title           string
	Type            AssessmentType
	Category        AssessmentCategory
	Weight          float64
	ReleaseWeek     *int
	DueWeek         *int
	DurationMinutes *int
}

// NewAssessment creates a draft assessment for the given unit.
func NewAssessment(unit *Unit, p AssessmentParams) (*Assessment, error) {
	if unit == nil {
		return nil, NewValidationError("unit", "cannot be nil")
	}

	now := time.Now().UTC()
	a := &Assessment{
		ID:              uuid.New(),
		UnitID:          unit.ID,
		Title:           strings.TrimSpace(p.Title),
		Type:            p.Type,
		Category:        p.Category,
		Weight:          p.Weight,
		ReleaseWeek:     p.ReleaseWeek,
		DueWeek:         p.DueWeek,
		DurationMinutes: p.DurationMinutes,
		Status:          StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := a.Validate(unit.DurationWeeks); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate checks the assessment against the duration of its unit.
func (a *Assessment) Validate(durationWeeks int) error {
	if a.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if a.UnitID == uuid.Nil {
		return NewValidationError("unit_id", "cannot be empty")
	}
	if !a.Type.IsValid() {
		return NewValidationError("type", "must be formative or summative")
	}
	if !a.Category.IsValid() {
		return NewValidationError("category", fmt.Sprintf("unknown category %q", a.Category))
	}
	if a.Weight < 0 || a.Weight > 100 {
		return NewValidationError("weight", "must be between 0 and 100")
	}
	if err := validateOptionalWeek("release_week", a.ReleaseWeek, durationWeeks); err != nil {
		return err
	}
	if err := validateOptionalWeek("due_week", a.DueWeek, durationWeeks); err != nil {
		return err
	}
	if a.ReleaseWeek != nil && a.DueWeek != nil && *a.DueWeek < *a.ReleaseWeek {
		return NewValidationError("due_week", "cannot be before release_week")
	}
	if a.DurationMinutes != nil && *a.DurationMinutes < 0 {
		return NewValidationError("duration_minutes", "cannot be negative")
	}
	if !a.Status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", a.Status))
	}
	return nil
}

// TouchesWeek reports whether the assessment is released or due in week.
func (a *Assessment) TouchesWeek(week int) bool {
	return (a.ReleaseWeek != nil && *a.ReleaseWeek == week) ||
		(a.DueWeek != nil && *a.DueWeek == week)
}

func validateOptionalWeek(field string, week *int, durationWeeks int) error {
	if week == nil {
		return nil
	}
	if *week < 1 || *week > durationWeeks {
		return NewValidationError(field, fmt.Sprintf("must be between 1 and %d", durationWeeks))
	}
	return nil
}
