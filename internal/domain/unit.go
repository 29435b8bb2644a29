package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BloomLevel classifies the cognitive demand of a learning outcome.
type BloomLevel string

// Bloom levels in increasing order of demand
const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// BloomLevels is the full vocabulary, lowest to highest.
var BloomLevels = []BloomLevel{
	BloomRemember,
	BloomUnderstand,
	BloomApply,
	BloomAnalyze,
	BloomEvaluate,
	BloomCreate,
}

// IsValid reports whether b belongs to the vocabulary.
func (b BloomLevel) IsValid() bool {
	for _, l := range BloomLevels {
		if l == b {
			return true
		}
	}
	return false
}

// Unit is the aggregate root of the alignment model. Every ULO, material,
// assessment and mapping record belongs to exactly one unit.
type Unit struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	DurationWeeks int       `json:"duration_weeks"`
	// MappingVersion increases on every write to the unit's mapping set and is
	// used as the optimistic concurrency token for fetch/merge/persist.
	MappingVersion int64     `json:"mapping_version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUnit creates a new Unit with a fresh ID.
// Returns an error if validation fails.
func NewUnit(code, title string, durationWeeks int) (*Unit, error) {
	now := time.Now().UTC()
	unit := &Unit{
		ID:            uuid.New(),
		Code:          strings.TrimSpace(code),
		Title:         strings.TrimSpace(title),
		DurationWeeks: durationWeeks,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := unit.Validate(); err != nil {
		return nil, err
	}

	return unit, nil
}

// Validate checks if the Unit has valid data.
func (u *Unit) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if u.Code == "" {
		return NewValidationError("code", "cannot be empty")
	}
	if u.DurationWeeks < 1 {
		return NewValidationError("duration_weeks", "must be a positive integer")
	}
	return nil
}

// ContainsWeek reports whether week lies within [1, DurationWeeks].
func (u *Unit) ContainsWeek(week int) bool {
	return week >= 1 && week <= u.DurationWeeks
}

// ULO is a unit learning outcome.
type ULO struct {
	ID          uuid.UUID  `json:"id"`
	UnitID      uuid.UUID  `json:"unit_id"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	BloomLevel  BloomLevel `json:"bloom_level"`
	OrderIndex  int        `json:"order_index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewULO creates a new ULO for the given unit.
// Code uniqueness within the unit is checked by the caller, which has the
// other outcomes at hand.
func NewULO(unitID uuid.UUID, code, description string, bloom BloomLevel, orderIndex int) (*ULO, error) {
	now := time.Now().UTC()
	ulo := &ULO{
		ID:          uuid.New(),
		UnitID:      unitID,
		Code:        strings.TrimSpace(code),
		Description: description,
		BloomLevel:  BloomLevel(strings.ToLower(string(bloom))),
		OrderIndex:  orderIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := ulo.Validate(); err != nil {
		return nil, err
	}

	return ulo, nil
}

// Validate checks if the ULO has valid data.
func (u *ULO) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty")
	}
	if u.UnitID == uuid.Nil {
		return NewValidationError("unit_id", "cannot be empty")
	}
	if u.Code == "" {
		return NewValidationError("code", "cannot be empty")
	}
	if !u.BloomLevel.IsValid() {
		return NewValidationError("bloom_level", "must be one of remember, understand, apply, analyze, evaluate, create")
	}
	return nil
}
