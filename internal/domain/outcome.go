package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OutcomeOwner identifies what a local learning outcome belongs to.
type OutcomeOwner string

// Owners of local outcomes
const (
	// OwnerMaterial marks an LLO, local to one material.
	OwnerMaterial OutcomeOwner = "material"
	// OwnerAssessment marks an ALO, local to one assessment.
	OwnerAssessment OutcomeOwner = "assessment"
)

// LearningOutcome is an outcome statement local to one material (LLO) or one
// assessment (ALO). It is not part of the ULO mapping graph.
type LearningOutcome struct {
	ID          uuid.UUID    `json:"id"`
	UnitID      uuid.UUID    `json:"unit_id"`
	OwnerKind   OutcomeOwner `json:"owner_kind"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Description string       `json:"description"`
	OrderIndex  int          `json:"order_index"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewLearningOutcome creates a local outcome.
func NewLearningOutcome(
	unitID uuid.UUID,
	owner OutcomeOwner,
	ownerID uuid.UUID,
	description string,
	orderIndex int,
) (*LearningOutcome, error) {
	lo := &LearningOutcome{
		ID:          uuid.New(),
		UnitID:      unitID,
		OwnerKind:   owner,
		OwnerID:     ownerID,
		Description: strings.TrimSpace(description),
		OrderIndex:  orderIndex,
		CreatedAt:   time.Now().UTC(),
	}

	if err := lo.Validate(); err != nil {
		return nil, err
	}

	return lo, nil
}

// Validate checks if the LearningOutcome has valid data.
func (lo *LearningOutcome) Validate() error {
	if lo.UnitID == uuid.Nil {
		return NewValidationError("unit_id", "cannot be empty")
	}
	if lo.OwnerKind != OwnerMaterial && lo.OwnerKind != OwnerAssessment {
		return NewValidationError("owner_kind", "must be material or assessment")
	}
	if lo.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", "cannot be empty")
	}
	if lo.Description == "" {
		return NewValidationError("description", "cannot be empty")
	}
	return nil
}
