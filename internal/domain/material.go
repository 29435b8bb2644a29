package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaterialType is the kind of weekly teaching material.
type MaterialType string

// Canonical material types
const (
	MaterialLecture    MaterialType = "lecture"
	MaterialTutorial   MaterialType = "tutorial"
	MaterialLab        MaterialType = "lab"
	MaterialWorkshop   MaterialType = "workshop"
	MaterialReading    MaterialType = "reading"
	MaterialVideo      MaterialType = "video"
	MaterialAssignment MaterialType = "assignment"
	MaterialOther      MaterialType = "other"
)

// MaterialTypes is the single source of truth for material type validation.
var MaterialTypes = []MaterialType{
	MaterialLecture,
	MaterialTutorial,
	MaterialLab,
	MaterialWorkshop,
	MaterialReading,
	MaterialVideo,
	MaterialAssignment,
	MaterialOther,
}

// IsValid reports whether t is a known material type.
func (t MaterialType) IsValid() bool {
	for _, known := range MaterialTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Material is a piece of teaching content scheduled in one week of a unit.
type Material struct {
	ID         uuid.UUID    `json:"id"`
	UnitID     uuid.UUID    `json:"unit_id"`
	Title      string       `json:"title"`
	WeekNumber int          `json:"week_number"`
	Type       MaterialType `json:"type"`
	// DurationMinutes is optional; nil means the author has not estimated it.
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	Status          ContentStatus `json:"status"`
	OrderIndex      int           `json:"order_index"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewMaterial creates a draft material for the given unit.
func NewMaterial(
	unit *Unit,
	title string,
	week int,
	materialType MaterialType,
	durationMinutes *int,
	orderIndex int,
) (*Material, error) {
	if unit == nil {
		return nil, NewValidationError("unit", "cannot be nil")
	}

	now := time.Now().UTC()
	m := &Material{
		ID:              uuid.New(),
		UnitID:          unit.ID,
		Title:           strings.TrimSpace(title),
		WeekNumber:      week,
		Type:            materialType,
		DurationMinutes: durationMinutes,
		Status:          StatusDraft,
		OrderIndex:      orderIndex,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.Validate(unit.DurationWeeks); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks the material against the duration of its unit.
func (m *Material) Validate(durationWeeks int) error {
	if m.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if m.UnitID == uuid.Nil {
		return NewValidationError("unit_id", "cannot be empty")
	}
	if m.WeekNumber < 1 || m.WeekNumber > durationWeeks {
		return NewValidationError("week_number", fmt.Sprintf("must be between 1 and %d", durationWeeks))
	}
	if !m.Type.IsValid() {
		return NewValidationError("type", fmt.Sprintf("unknown material type %q", m.Type))
	}
	if m.DurationMinutes != nil && *m.DurationMinutes < 0 {
		return NewValidationError("duration_minutes", "cannot be negative")
	}
	if !m.Status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", m.Status))
	}
	return nil
}

// Minutes returns the duration or 0 when unset.
func (m *Material) Minutes() int {
	if m.DurationMinutes == nil || *m.DurationMinutes < 0 {
		return 0
	}
	return *m.DurationMinutes
}
