package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/analysis"
	"github.com/phrazzld/curriculum-api/internal/domain/suggest"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
	"github.com/phrazzld/curriculum-api/internal/service"
)

// MappingEditFn is the shape of the unit-level mapping edits.
type MappingEditFn func(ctx context.Context, unitID uuid.UUID, code string, expected *int64) (*domain.MappingSet, error)

// CapabilityEditFn is the shape of the ULO-level capability edits.
type CapabilityEditFn func(
	ctx context.Context,
	unitID, uloID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error)

// MockAlignmentService implements service.AlignmentService for testing.
type MockAlignmentService struct {
	callLog

	CatalogFn            func(kind taxonomy.Kind) (*taxonomy.Catalog, error)
	SuggestTextsFn       func(texts []string, signals suggest.Signals) suggest.Result
	GetMappingsFn        func(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error)
	PreviewSuggestionsFn func(ctx context.Context, unitID uuid.UUID) (*service.SuggestionPreview, error)
	ApplySuggestionsFn   func(ctx context.Context, unitID uuid.UUID, expected *int64) (*service.ApplyResult, error)
	RequestSuggestionsFn func(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error)
	SetCompetencyLevelFn func(
		ctx context.Context,
		unitID uuid.UUID,
		code string,
		level domain.ProficiencyLevel,
		expected *int64,
	) (*domain.MappingSet, error)
	ClearCompetencyFn   MappingEditFn
	SelectGoalFn        MappingEditFn
	RemoveGoalFn        MappingEditFn
	SelectCapabilityFn  CapabilityEditFn
	RemoveCapabilityFn  CapabilityEditFn
	ReportsFn           func(ctx context.Context, unitID uuid.UUID) (*service.ReportBundle, error)
	AlignmentReportFn   func(ctx context.Context, unitID uuid.UUID) (*analysis.AlignmentReport, error)
	GradeDistributionFn func(ctx context.Context, unitID uuid.UUID) (*analysis.GradeDistribution, error)
	QualityScoreFn      func(ctx context.Context, unitID uuid.UUID) (*analysis.QualityScore, error)
	WeeklyWorkloadFn    func(ctx context.Context, unitID uuid.UUID, week int) (*analysis.WeeklyWorkload, error)
}

var _ service.AlignmentService = (*MockAlignmentService)(nil)

func (m *MockAlignmentService) Catalog(kind taxonomy.Kind) (*taxonomy.Catalog, error) {
	m.record("Catalog")
	if m.CatalogFn != nil {
		return m.CatalogFn(kind)
	}
	return nil, domain.NewNotFoundError("catalog", string(kind))
}

func (m *MockAlignmentService) SuggestTexts(texts []string, signals suggest.Signals) suggest.Result {
	m.record("SuggestTexts")
	if m.SuggestTextsFn != nil {
		return m.SuggestTextsFn(texts, signals)
	}
	return suggest.Result{Competencies: []suggest.Candidate{}, Goals: []suggest.Candidate{}}
}

func (m *MockAlignmentService) GetMappings(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error) {
	m.record("GetMappings")
	if m.GetMappingsFn != nil {
		return m.GetMappingsFn(ctx, unitID)
	}
	return domain.NewMappingSet(unitID, 0), nil
}

func (m *MockAlignmentService) PreviewSuggestions(
	ctx context.Context,
	unitID uuid.UUID,
) (*service.SuggestionPreview, error) {
	m.record("PreviewSuggestions")
	if m.PreviewSuggestionsFn != nil {
		return m.PreviewSuggestionsFn(ctx, unitID)
	}
	return &service.SuggestionPreview{UnitID: unitID}, nil
}

func (m *MockAlignmentService) ApplySuggestions(
	ctx context.Context,
	unitID uuid.UUID,
	expected *int64,
) (*service.ApplyResult, error) {
	m.record("ApplySuggestions")
	if m.ApplySuggestionsFn != nil {
		return m.ApplySuggestionsFn(ctx, unitID, expected)
	}
	return &service.ApplyResult{Mappings: domain.NewMappingSet(unitID, 0)}, nil
}

func (m *MockAlignmentService) RequestSuggestions(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error) {
	m.record("RequestSuggestions")
	if m.RequestSuggestionsFn != nil {
		return m.RequestSuggestionsFn(ctx, unitID)
	}
	return uuid.New(), nil
}

func (m *MockAlignmentService) SetCompetencyLevel(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	level domain.ProficiencyLevel,
	expected *int64,
) (*domain.MappingSet, error) {
	m.record("SetCompetencyLevel")
	if m.SetCompetencyLevelFn != nil {
		return m.SetCompetencyLevelFn(ctx, unitID, code, level, expected)
	}
	return domain.NewMappingSet(unitID, 1), nil
}

func (m *MockAlignmentService) edit(
	ctx context.Context,
	method string,
	fn MappingEditFn,
	unitID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	m.record(method)
	if fn != nil {
		return fn(ctx, unitID, code, expected)
	}
	return domain.NewMappingSet(unitID, 1), nil
}

func (m *MockAlignmentService) ClearCompetency(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	return m.edit(ctx, "ClearCompetency", m.ClearCompetencyFn, unitID, code, expected)
}

func (m *MockAlignmentService) SelectGoal(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	return m.edit(ctx, "SelectGoal", m.SelectGoalFn, unitID, code, expected)
}

func (m *MockAlignmentService) RemoveGoal(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	return m.edit(ctx, "RemoveGoal", m.RemoveGoalFn, unitID, code, expected)
}

func (m *MockAlignmentService) SelectCapability(
	ctx context.Context,
	unitID, uloID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	m.record("SelectCapability")
	if m.SelectCapabilityFn != nil {
		return m.SelectCapabilityFn(ctx, unitID, uloID, code, expected)
	}
	return domain.NewMappingSet(unitID, 1), nil
}

func (m *MockAlignmentService) RemoveCapability(
	ctx context.Context,
	unitID, uloID uuid.UUID,
	code string,
	expected *int64,
) (*domain.MappingSet, error) {
	m.record("RemoveCapability")
	if m.RemoveCapabilityFn != nil {
		return m.RemoveCapabilityFn(ctx, unitID, uloID, code, expected)
	}
	return domain.NewMappingSet(unitID, 1), nil
}

func (m *MockAlignmentService) Reports(ctx context.Context, unitID uuid.UUID) (*service.ReportBundle, error) {
	m.record("Reports")
	if m.ReportsFn != nil {
		return m.ReportsFn(ctx, unitID)
	}
	return &service.ReportBundle{UnitID: unitID}, nil
}

func (m *MockAlignmentService) AlignmentReport(
	ctx context.Context,
	unitID uuid.UUID,
) (*analysis.AlignmentReport, error) {
	m.record("AlignmentReport")
	if m.AlignmentReportFn != nil {
		return m.AlignmentReportFn(ctx, unitID)
	}
	return &analysis.AlignmentReport{}, nil
}

func (m *MockAlignmentService) GradeDistribution(
	ctx context.Context,
	unitID uuid.UUID,
) (*analysis.GradeDistribution, error) {
	m.record("GradeDistribution")
	if m.GradeDistributionFn != nil {
		return m.GradeDistributionFn(ctx, unitID)
	}
	return &analysis.GradeDistribution{}, nil
}

func (m *MockAlignmentService) QualityScore(ctx context.Context, unitID uuid.UUID) (*analysis.QualityScore, error) {
	m.record("QualityScore")
	if m.QualityScoreFn != nil {
		return m.QualityScoreFn(ctx, unitID)
	}
	return &analysis.QualityScore{}, nil
}

func (m *MockAlignmentService) WeeklyWorkload(
	ctx context.Context,
	unitID uuid.UUID,
	week int,
) (*analysis.WeeklyWorkload, error) {
	m.record("WeeklyWorkload")
	if m.WeeklyWorkloadFn != nil {
		return m.WeeklyWorkloadFn(ctx, unitID, week)
	}
	return &analysis.WeeklyWorkload{Week: week}, nil
}
