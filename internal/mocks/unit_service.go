package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/service"
)

// MockUnitService implements service.UnitService for testing.
type MockUnitService struct {
	callLog

	CreateUnitFn             func(ctx context.Context, code, title string, durationWeeks int) (*domain.Unit, error)
	GetUnitFn                func(ctx context.Context, unitID uuid.UUID) (*domain.Unit, error)
	AddULOFn                 func(ctx context.Context, unitID uuid.UUID, params service.ULOParams) (*domain.ULO, error)
	DeleteULOFn              func(ctx context.Context, unitID, uloID uuid.UUID) error
	AddMaterialFn            func(ctx context.Context, unitID uuid.UUID, params service.MaterialParams) (*domain.Material, error)
	UpdateMaterialStatusFn   func(ctx context.Context, unitID, materialID uuid.UUID, status domain.ContentStatus) (*domain.Material, error)
	DeleteMaterialFn         func(ctx context.Context, unitID, materialID uuid.UUID) error
	AddAssessmentFn          func(ctx context.Context, unitID uuid.UUID, params domain.AssessmentParams) (*domain.Assessment, error)
	UpdateAssessmentStatusFn func(ctx context.Context, unitID, assessmentID uuid.UUID, status domain.ContentStatus) (*domain.Assessment, error)
	DeleteAssessmentFn       func(ctx context.Context, unitID, assessmentID uuid.UUID) error
	AddOutcomeFn             func(ctx context.Context, unitID uuid.UUID, params service.OutcomeParams) (*domain.LearningOutcome, error)
	LinkMaterialFn           func(ctx context.Context, unitID, uloID, materialID uuid.UUID) error
	UnlinkMaterialFn         func(ctx context.Context, unitID, uloID, materialID uuid.UUID) error
	LinkAssessmentFn         func(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error
	UnlinkAssessmentFn       func(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error
	GetSnapshotFn            func(ctx context.Context, unitID uuid.UUID) (*domain.UnitSnapshot, error)
}

var _ service.UnitService = (*MockUnitService)(nil)

func (m *MockUnitService) CreateUnit(ctx context.Context, code, title string, weeks int) (*domain.Unit, error) {
	m.record("CreateUnit")
	if m.CreateUnitFn != nil {
		return m.CreateUnitFn(ctx, code, title, weeks)
	}
	return nil, nil
}

func (m *MockUnitService) GetUnit(ctx context.Context, unitID uuid.UUID) (*domain.Unit, error) {
	m.record("GetUnit")
	if m.GetUnitFn != nil {
		return m.GetUnitFn(ctx, unitID)
	}
	return nil, nil
}

func (m *MockUnitService) AddULO(ctx context.Context, unitID uuid.UUID, p service.ULOParams) (*domain.ULO, error) {
	m.record("AddULO")
	if m.AddULOFn != nil {
		return m.AddULOFn(ctx, unitID, p)
	}
	return nil, nil
}

func (m *MockUnitService) DeleteULO(ctx context.Context, unitID, uloID uuid.UUID) error {
	m.record("DeleteULO")
	if m.DeleteULOFn != nil {
		return m.DeleteULOFn(ctx, unitID, uloID)
	}
	return nil
}

func (m *MockUnitService) AddMaterial(
	ctx context.Context,
	unitID uuid.UUID,
	p service.MaterialParams,
) (*domain.Material, error) {
	m.record("AddMaterial")
	if m.AddMaterialFn != nil {
		return m.AddMaterialFn(ctx, unitID, p)
	}
	return nil, nil
}

func (m *MockUnitService) UpdateMaterialStatus(
	ctx context.Context,
	unitID, materialID uuid.UUID,
	status domain.ContentStatus,
) (*domain.Material, error) {
	m.record("UpdateMaterialStatus")
	if m.UpdateMaterialStatusFn != nil {
		return m.UpdateMaterialStatusFn(ctx, unitID, materialID, status)
	}
	return nil, nil
}

func (m *MockUnitService) DeleteMaterial(ctx context.Context, unitID, materialID uuid.UUID) error {
	m.record("DeleteMaterial")
	if m.DeleteMaterialFn != nil {
		return m.DeleteMaterialFn(ctx, unitID, materialID)
	}
	return nil
}

func (m *MockUnitService) AddAssessment(
	ctx context.Context,
	unitID uuid.UUID,
	p domain.AssessmentParams,
) (*domain.Assessment, error) {
	m.record("AddAssessment")
	if m.AddAssessmentFn != nil {
		return m.AddAssessmentFn(ctx, unitID, p)
	}
	return nil, nil
}

func (m *MockUnitService) UpdateAssessmentStatus(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
	status domain.ContentStatus,
) (*domain.Assessment, error) {
	m.record("UpdateAssessmentStatus")
	if m.UpdateAssessmentStatusFn != nil {
		return m.UpdateAssessmentStatusFn(ctx, unitID, assessmentID, status)
	}
	return nil, nil
}

func (m *MockUnitService) DeleteAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) error {
	m.record("DeleteAssessment")
	if m.DeleteAssessmentFn != nil {
		return m.DeleteAssessmentFn(ctx, unitID, assessmentID)
	}
	return nil
}

func (m *MockUnitService) AddOutcome(
	ctx context.Context,
	unitID uuid.UUID,
	p service.OutcomeParams,
) (*domain.LearningOutcome, error) {
	m.record("AddOutcome")
	if m.AddOutcomeFn != nil {
		return m.AddOutcomeFn(ctx, unitID, p)
	}
	return nil, nil
}

func (m *MockUnitService) LinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error {
	m.record("LinkMaterial")
	if m.LinkMaterialFn != nil {
		return m.LinkMaterialFn(ctx, unitID, uloID, materialID)
	}
	return nil
}

func (m *MockUnitService) UnlinkMaterial(ctx context.Context, unitID, uloID, materialID uuid.UUID) error {
	m.record("UnlinkMaterial")
	if m.UnlinkMaterialFn != nil {
		return m.UnlinkMaterialFn(ctx, unitID, uloID, materialID)
	}
	return nil
}

func (m *MockUnitService) LinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error {
	m.record("LinkAssessment")
	if m.LinkAssessmentFn != nil {
		return m.LinkAssessmentFn(ctx, unitID, uloID, assessmentID)
	}
	return nil
}

func (m *MockUnitService) UnlinkAssessment(ctx context.Context, unitID, uloID, assessmentID uuid.UUID) error {
	m.record("UnlinkAssessment")
	if m.UnlinkAssessmentFn != nil {
		return m.UnlinkAssessmentFn(ctx, unitID, uloID, assessmentID)
	}
	return nil
}

func (m *MockUnitService) GetSnapshot(ctx context.Context, unitID uuid.UUID) (*domain.UnitSnapshot, error) {
	m.record("GetSnapshot")
	if m.GetSnapshotFn != nil {
		return m.GetSnapshotFn(ctx, unitID)
	}
	return nil, nil
}
