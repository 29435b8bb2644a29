package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/store"
)

// ULOParams are the author-supplied fields of a new ULO.
type ULOParams struct {
	Code        string
	Description string
	BloomLevel  domain.BloomLevel
	OrderIndex  int
}

// MaterialParams are the author-supplied fields of a new material.
type MaterialParams struct {
	Title           string
	WeekNumber      int
	Type            domain.MaterialType
	DurationMinutes *int
	OrderIndex      int
}

// OutcomeParams are the fields of a new material- or assessment-local outcome.
type OutcomeParams struct {
	OwnerKind   domain.OutcomeOwner
	OwnerID     uuid.UUID
	Description string
	OrderIndex  int
}

// UnitService is the editing boundary for units and their content.
type UnitService interface {
	CreateUnit(ctx context.Context, code, title string, durationWeeks int) (*domain.Unit, error)
	GetUnit(ctx context.Context, unitID uuid.UUID) (*domain.Unit, error)

	// AddULO rejects a code already used in the unit with a ValidationError.
	AddULO(ctx context.Context, unitID uuid.UUID, params ULOParams) (*domain.ULO, error)
	// DeleteULO removes the ULO, its links and its capability mappings.
	DeleteULO(ctx context.Context, unitID, uloID uuid.UUID) error

	AddMaterial(ctx context.Context, unitID uuid.UUID, params MaterialParams) (*domain.Material, error)
	UpdateMaterialStatus(
		ctx context.Context,
		unitID, materialID uuid.UUID,
		status domain.ContentStatus,
	) (*domain.Material, error)
	DeleteMaterial(ctx context.Context, unitID, materialID uuid.UUID) error

	AddAssessment(ctx context.Context, unitID uuid.UUID, params domain.AssessmentParams) (*domain.Assessment, error)
	UpdateAssessmentStatus(
		ctx context.Context,
		unitID, assessmentID uuid.UUID,
		status domain.ContentStatus,
	) (*domain.Assessment, error)
	DeleteAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) error

	AddOutcome(ctx context.Context, unitID uuid.UUID, params OutcomeParams) (*domain.LearningOutcome, error)

	LinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error
	UnlinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error
	LinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error
	UnlinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error

	// GetSnapshot reads the unit, its content and its mappings in one
	// transaction and validates the result.
	GetSnapshot(ctx context.Context, unitID uuid.UUID) (*domain.UnitSnapshot, error)
}

const unitServiceName = "unit"

// lockWait bounds how long a writer waits for the unit lock.
const lockWait = 10 * time.Second

// unitServiceImpl implements the UnitService interface
type unitServiceImpl struct {
	db       *sql.DB
	units    store.UnitStore
	mappings store.MappingStore
	locker   UnitLocker
	logger   *slog.Logger
}

// NewUnitService creates a new UnitService.
// It returns an error if any of the required dependencies are nil.
func NewUnitService(
	db *sql.DB,
	units store.UnitStore,
	mappings store.MappingStore,
	locker UnitLocker,
	logger *slog.Logger,
) (UnitService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil")
	}
	if units == nil {
		return nil, domain.NewValidationError("units", "cannot be nil")
	}
	if mappings == nil {
		return nil, domain.NewValidationError("mappings", "cannot be nil")
	}
	if locker == nil {
		return nil, domain.NewValidationError("locker", "cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &unitServiceImpl{
		db:       db,
		units:    units,
		mappings: mappings,
		locker:   locker,
		logger:   logger.With(slog.String("component", "unit_service")),
	}, nil
}

func (s *unitServiceImpl) log(ctx context.Context, unitID uuid.UUID) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger).With(slog.String("unit_id", unitID.String()))
}

// CreateUnit implements UnitService.CreateUnit
func (s *unitServiceImpl) CreateUnit(
	ctx context.Context,
	code, title string,
	durationWeeks int,
) (*domain.Unit, error) {
	unit, err := domain.NewUnit(code, title, durationWeeks)
	if err != nil {
		return nil, err
	}

	if err := s.units.CreateUnit(ctx, unit); err != nil {
		s.log(ctx, unit.ID).Error("failed to create unit", slog.String("error", err.Error()))
		return nil, NewServiceError(unitServiceName, "create_unit", "failed to save unit",
			translateStoreError(err, "unit", unit.ID.String()))
	}

	s.log(ctx, unit.ID).Info("unit created", slog.String("code", unit.Code))
	return unit, nil
}

// GetUnit implements UnitService.GetUnit
func (s *unitServiceImpl) GetUnit(ctx context.Context, unitID uuid.UUID) (*domain.Unit, error) {
	return getUnit(ctx, s.units, unitID)
}

func getUnit(ctx context.Context, units store.UnitStore, unitID uuid.UUID) (*domain.Unit, error) {
	unit, err := units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(unitServiceName, "get_unit", "failed to load unit",
			translateStoreError(err, "unit", unitID.String()))
	}
	return unit, nil
}

// AddULO implements UnitService.AddULO
func (s *unitServiceImpl) AddULO(ctx context.Context, unitID uuid.UUID, params ULOParams) (*domain.ULO, error) {
	if _, err := getUnit(ctx, s.units, unitID); err != nil {
		return nil, err
	}

	ulo, err := domain.NewULO(unitID, params.Code, params.Description, params.BloomLevel, params.OrderIndex)
	if err != nil {
		return nil, err
	}

	if err := s.units.CreateULO(ctx, ulo); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			s.log(ctx, unitID).Error("failed to create ulo",
				slog.String("error", err.Error()),
				slog.String("code", ulo.Code))
		}
		return nil, NewServiceError(unitServiceName, "add_ulo", "failed to save ulo",
			translateStoreError(err, "unit", unitID.String()))
	}

	return ulo, nil
}

// DeleteULO implements UnitService.DeleteULO
// It holds the unit lock so that a concurrent suggestion run cannot write a
// capability mapping for the ULO being removed.
func (s *unitServiceImpl) DeleteULO(ctx context.Context, unitID, uloID uuid.UUID) error {
	release, err := lockUnit(ctx, s.locker, unitID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.units.DeleteULO(ctx, unitID, uloID); err != nil {
		return NewServiceError(unitServiceName, "delete_ulo", "failed to delete ulo",
			translateStoreError(err, "ulo", uloID.String()))
	}

	s.log(ctx, unitID).Info("ulo deleted", slog.String("ulo_id", uloID.String()))
	return nil
}

// AddMaterial implements UnitService.AddMaterial
func (s *unitServiceImpl) AddMaterial(
	ctx context.Context,
	unitID uuid.UUID,
	params MaterialParams,
) (*domain.Material, error) {
	unit, err := getUnit(ctx, s.units, unitID)
	if err != nil {
		return nil, err
	}

	m, err := domain.NewMaterial(unit, params.Title, params.WeekNumber, params.Type,
		params.DurationMinutes, params.OrderIndex)
	if err != nil {
		return nil, err
	}

	if err := s.units.CreateMaterial(ctx, m); err != nil {
		s.log(ctx, unitID).Error("failed to create material", slog.String("error", err.Error()))
		return nil, NewServiceError(unitServiceName, "add_material", "failed to save material",
			translateStoreError(err, "unit", unitID.String()))
	}

	return m, nil
}

// UpdateMaterialStatus implements UnitService.UpdateMaterialStatus
func (s *unitServiceImpl) UpdateMaterialStatus(
	ctx context.Context,
	unitID, materialID uuid.UUID,
	status domain.ContentStatus,
) (*domain.Material, error) {
	var updated *domain.Material
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		units := s.units.WithTx(tx)

		m, err := units.GetMaterialForUpdate(ctx, unitID, materialID)
		if err != nil {
			return translateStoreError(err, "material", materialID.String())
		}
		if err := domain.ValidateTransition(m.Status, status); err != nil {
			return err
		}
		if m.Status != status {
			if err := units.UpdateMaterialStatus(ctx, unitID, materialID, status); err != nil {
				return translateStoreError(err, "material", materialID.String())
			}
			m.Status = status
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, NewServiceError(unitServiceName, "update_material_status", "failed to update status", err)
	}

	return updated, nil
}

// DeleteMaterial implements UnitService.DeleteMaterial
func (s *unitServiceImpl) DeleteMaterial(ctx context.Context, unitID, materialID uuid.UUID) error {
	if err := s.units.DeleteMaterial(ctx, unitID, materialID); err != nil {
		return NewServiceError(unitServiceName, "delete_material", "failed to delete material",
			translateStoreError(err, "material", materialID.String()))
	}
	return nil
}

// AddAssessment implements UnitService.AddAssessment
func (s *unitServiceImpl) AddAssessment(
	ctx context.Context,
	unitID uuid.UUID,
	params domain.AssessmentParams,
) (*domain.Assessment, error) {
	unit, err := getUnit(ctx, s.units, unitID)
	if err != nil {
		return nil, err
	}

	a, err := domain.NewAssessment(unit, params)
	if err != nil {
		return nil, err
	}

	if err := s.units.CreateAssessment(ctx, a); err != nil {
		s.log(ctx, unitID).Error("failed to create assessment", slog.String("error", err.Error()))
		return nil, NewServiceError(unitServiceName, "add_assessment", "failed to save assessment",
			translateStoreError(err, "unit", unitID.String()))
	}

	return a, nil
}

// UpdateAssessmentStatus implements UnitService.UpdateAssessmentStatus
func (s *unitServiceImpl) UpdateAssessmentStatus(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
	status domain.ContentStatus,
) (*domain.Assessment, error) {
	var updated *domain.Assessment
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		units := s.units.WithTx(tx)

		a, err := units.GetAssessmentForUpdate(ctx, unitID, assessmentID)
		if err != nil {
			return translateStoreError(err, "assessment", assessmentID.String())
		}
		if err := domain.ValidateTransition(a.Status, status); err != nil {
			return err
		}
		if a.Status != status {
			if err := units.UpdateAssessmentStatus(ctx, unitID, assessmentID, status); err != nil {
				return translateStoreError(err, "assessment", assessmentID.String())
			}
			a.Status = status
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, NewServiceError(unitServiceName, "update_assessment_status", "failed to update status", err)
	}

	return updated, nil
}

// DeleteAssessment implements UnitService.DeleteAssessment
func (s *unitServiceImpl) DeleteAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) error {
	if err := s.units.DeleteAssessment(ctx, unitID, assessmentID); err != nil {
		return NewServiceError(unitServiceName, "delete_assessment", "failed to delete assessment",
			translateStoreError(err, "assessment", assessmentID.String()))
	}
	return nil
}

// AddOutcome implements UnitService.AddOutcome
// The owner must be a material or assessment of the same unit.
func (s *unitServiceImpl) AddOutcome(
	ctx context.Context,
	unitID uuid.UUID,
	params OutcomeParams,
) (*domain.LearningOutcome, error) {
	lo, err := domain.NewLearningOutcome(unitID, params.OwnerKind, params.OwnerID,
		params.Description, params.OrderIndex)
	if err != nil {
		return nil, err
	}

	switch lo.OwnerKind {
	case domain.OwnerMaterial:
		_, err = s.units.GetMaterial(ctx, unitID, lo.OwnerID)
	case domain.OwnerAssessment:
		_, err = s.units.GetAssessment(ctx, unitID, lo.OwnerID)
	}
	if err != nil {
		return nil, NewServiceError(unitServiceName, "add_outcome", "failed to resolve owner",
			translateStoreError(err, string(lo.OwnerKind), lo.OwnerID.String()))
	}

	if err := s.units.CreateOutcome(ctx, lo); err != nil {
		return nil, NewServiceError(unitServiceName, "add_outcome", "failed to save outcome",
			translateStoreError(err, string(lo.OwnerKind), lo.OwnerID.String()))
	}

	return lo, nil
}

// LinkMaterial implements UnitService.LinkMaterial
func (s *unitServiceImpl) LinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error {
	if err := s.requireULO(ctx, unitID, uloID); err != nil {
		return err
	}
	if _, err := s.units.GetMaterial(ctx, unitID, materialID); err != nil {
		return NewServiceError(unitServiceName, "link_material", "failed to resolve material",
			translateStoreError(err, "material", materialID.String()))
	}
	if err := s.units.LinkMaterial(ctx, uloID, materialID); err != nil {
		return NewServiceError(unitServiceName, "link_material", "failed to save link",
			translateStoreError(err, "material", materialID.String()))
	}
	return nil
}

// UnlinkMaterial implements UnitService.UnlinkMaterial
func (s *unitServiceImpl) UnlinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error {
	if err := s.requireULO(ctx, unitID, uloID); err != nil {
		return err
	}
	if err := s.units.UnlinkMaterial(ctx, uloID, materialID); err != nil {
		return NewServiceError(unitServiceName, "unlink_material", "failed to delete link",
			translateStoreError(err, "material_link", materialID.String()))
	}
	return nil
}

// LinkAssessment implements UnitService.LinkAssessment
func (s *unitServiceImpl) LinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error {
	if err := s.requireULO(ctx, unitID, uloID); err != nil {
		return err
	}
	if _, err := s.units.GetAssessment(ctx, unitID, assessmentID); err != nil {
		return NewServiceError(unitServiceName, "link_assessment", "failed to resolve assessment",
			translateStoreError(err, "assessment", assessmentID.String()))
	}
	if err := s.units.LinkAssessment(ctx, uloID, assessmentID); err != nil {
		return NewServiceError(unitServiceName, "link_assessment", "failed to save link",
			translateStoreError(err, "assessment", assessmentID.String()))
	}
	return nil
}

// UnlinkAssessment implements UnitService.UnlinkAssessment
func (s *unitServiceImpl) UnlinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error {
	if err := s.requireULO(ctx, unitID, uloID); err != nil {
		return err
	}
	if err := s.units.UnlinkAssessment(ctx, uloID, assessmentID); err != nil {
		return NewServiceError(unitServiceName, "unlink_assessment", "failed to delete link",
			translateStoreError(err, "assessment_link", assessmentID.String()))
	}
	return nil
}

func (s *unitServiceImpl) requireULO(ctx context.Context, unitID, uloID uuid.UUID) error {
	ulos, err := s.units.ListULOs(ctx, unitID)
	if err != nil {
		return NewServiceError(unitServiceName, "find_ulo", "failed to list ulos",
			translateStoreError(err, "unit", unitID.String()))
	}
	if findULO(ulos, uloID) == nil {
		return domain.NewNotFoundError("ulo", uloID.String())
	}
	return nil
}

func findULO(ulos []domain.ULO, id uuid.UUID) *domain.ULO {
	for i := range ulos {
		if ulos[i].ID == id {
			return &ulos[i]
		}
	}
	return nil
}

// GetSnapshot implements UnitService.GetSnapshot
func (s *unitServiceImpl) GetSnapshot(ctx context.Context, unitID uuid.UUID) (*domain.UnitSnapshot, error) {
	var snap *domain.UnitSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, s.units.WithTx(tx), s.mappings.WithTx(tx), unitID)
		return err
	})
	if err != nil {
		return nil, NewServiceError(unitServiceName, "get_snapshot", "failed to load snapshot", err)
	}
	return snap, nil
}

// loadSnapshot reads everything scoped to a unit through the given stores and
// validates the result. Callers run it inside a transaction.
func loadSnapshot(
	ctx context.Context,
	units store.UnitStore,
	mappings store.MappingStore,
	unitID uuid.UUID,
) (*domain.UnitSnapshot, error) {
	key := unitID.String()

	unit, err := units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, translateStoreError(err, "unit", key)
	}

	snap := &domain.UnitSnapshot{Unit: *unit}
	if snap.ULOs, err = units.ListULOs(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.Materials, err = units.ListMaterials(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.Assessments, err = units.ListAssessments(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.Outcomes, err = units.ListOutcomes(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.MaterialLinks, err = units.ListMaterialLinks(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.AssessmentLinks, err = units.ListAssessmentLinks(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}
	if snap.Mappings, err = mappings.GetMappings(ctx, unitID); err != nil {
		return nil, translateStoreError(err, "unit", key)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// lockUnit takes the unit lock, bounding the wait so that a stuck writer
// surfaces as ErrUnitLocked instead of a hung request. Only running out of
// wait time counts as contention; other locker failures are ServiceErrors.
func lockUnit(ctx context.Context, locker UnitLocker, unitID uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	release, err := locker.Lock(lockCtx, unitID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if lockCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrUnitLocked, err)
		}
		return nil, NewServiceError("unit_locker", "lock", "failed to acquire unit lock", err)
	}
	return release, nil
}
