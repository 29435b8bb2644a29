package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// UnitStore persists units and everything scoped to them except mappings.
// Child lookups take the unit ID as well as the child ID so that a record can
// never be reached through the wrong unit.
type UnitStore interface {
	// CreateUnit saves a new unit.
	CreateUnit(ctx context.Context, unit *domain.Unit) error

	// GetUnit retrieves a unit. Returns ErrUnitNotFound if it does not exist.
	GetUnit(ctx context.Context, id uuid.UUID) (*domain.Unit, error)

	// CreateULO saves a ULO. Returns ErrULOCodeExists if the unit already has
	// a ULO with the same code.
	CreateULO(ctx context.Context, ulo *domain.ULO) error

	// DeleteULO removes a ULO together with its links and capability
	// mappings. Returns ErrULONotFound if it does not exist.
	DeleteULO(ctx context.Context, unitID, uloID uuid.UUID) error

	// ListULOs returns the unit's ULOs ordered by order index, then code.
	ListULOs(ctx context.Context, unitID uuid.UUID) ([]domain.ULO, error)

	CreateMaterial(ctx context.Context, m *domain.Material) error
	GetMaterial(ctx context.Context, unitID, materialID uuid.UUID) (*domain.Material, error)

	// GetMaterialForUpdate reads a material with a row-level lock using
	// SELECT FOR UPDATE. Use it inside a transaction before changing status.
	GetMaterialForUpdate(ctx context.Context, unitID, materialID uuid.UUID) (*domain.Material, error)
	UpdateMaterialStatus(ctx context.Context, unitID, materialID uuid.UUID, status domain.ContentStatus) error
	DeleteMaterial(ctx context.Context, unitID, materialID uuid.UUID) error
	ListMaterials(ctx context.Context, unitID uuid.UUID) ([]domain.Material, error)

	CreateAssessment(ctx context.Context, a *domain.Assessment) error
	GetAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) (*domain.Assessment, error)

	// GetAssessmentForUpdate is the locking counterpart of GetAssessment.
	GetAssessmentForUpdate(ctx context.Context, unitID, assessmentID uuid.UUID) (*domain.Assessment, error)
	UpdateAssessmentStatus(ctx context.Context, unitID, assessmentID uuid.UUID, status domain.ContentStatus) error
	DeleteAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) error
	ListAssessments(ctx context.Context, unitID uuid.UUID) ([]domain.Assessment, error)

	// CreateOutcome saves a material- or assessment-local outcome.
	CreateOutcome(ctx context.Context, lo *domain.LearningOutcome) error
	ListOutcomes(ctx context.Context, unitID uuid.UUID) ([]domain.LearningOutcome, error)

	// LinkMaterial and LinkAssessment are idempotent.
	LinkMaterial(ctx context.Context, uloID, materialID uuid.UUID) error
	UnlinkMaterial(ctx context.Context, uloID, materialID uuid.UUID) error
	LinkAssessment(ctx context.Context, uloID, assessmentID uuid.UUID) error
	UnlinkAssessment(ctx context.Context, uloID, assessmentID uuid.UUID) error
	ListMaterialLinks(ctx context.Context, unitID uuid.UUID) ([]domain.MaterialLink, error)
	ListAssessmentLinks(ctx context.Context, unitID uuid.UUID) ([]domain.AssessmentLink, error)

	// WithTx returns a UnitStore that runs every call on tx.
	WithTx(tx *sql.Tx) UnitStore
}
