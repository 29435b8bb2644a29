package analysis

import (
	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// Coverage classifies how a ULO is supported by the unit's content.
type Coverage string

// Coverage classes
const (
	CoverageFull            Coverage = "fully_aligned"
	CoverageMaterialsOnly   Coverage = "materials_only"
	CoverageAssessmentsOnly Coverage = "assessments_only"
	CoverageUnaligned       Coverage = "unaligned"
)

// ULOAlignment is the coverage of a single ULO.
type ULOAlignment struct {
	ULOID           uuid.UUID `json:"ulo_id"`
	Code            string    `json:"code"`
	MaterialCount   int       `json:"material_count"`
	AssessmentCount int       `json:"assessment_count"`
	Coverage        Coverage  `json:"coverage"`
}

// AlignmentReport summarises ULO coverage across a unit.
type AlignmentReport struct {
	ULOs                []ULOAlignment `json:"ulos"`
	TotalULOs           int            `json:"total_ulos"`
	FullyAligned        int            `json:"fully_aligned"`
	MaterialsOnly       int            `json:"materials_only"`
	AssessmentsOnly     int            `json:"assessments_only"`
	Unaligned           int            `json:"unaligned"`
	AlignmentPercentage float64        `json:"alignment_percentage"`
	Recommendations     []string       `json:"recommendations"`
}

// GradeDistribution sums assessment weights. A total other than the target is
// reported through Warning and never blocks the report.
type GradeDistribution struct {
	ByType      map[domain.AssessmentType]float64     `json:"by_type"`
	ByCategory  map[domain.AssessmentCategory]float64 `json:"by_category"`
	TotalWeight float64                               `json:"total_weight"`
	Warning     string                                `json:"warning,omitempty"`
}

// WeeklyWorkload is the student effort scheduled in one week.
type WeeklyWorkload struct {
	Week              int     `json:"week"`
	MaterialCount     int     `json:"material_count"`
	AssessmentCount   int     `json:"assessment_count"`
	MaterialMinutes   int     `json:"material_minutes"`
	AssessmentMinutes int     `json:"assessment_minutes"`
	TotalMinutes      int     `json:"total_minutes"`
	WorkloadHours     float64 `json:"workload_hours"`
}

// QualityScore combines alignment, completion and weighting into one score.
type QualityScore struct {
	AlignmentScore  float64 `json:"alignment_score"`
	CompletionScore float64 `json:"completion_score"`
	WeightingScore  float64 `json:"weighting_score"`
	OverallScore    float64 `json:"overall_score"`
	Grade           string  `json:"grade"`
}
