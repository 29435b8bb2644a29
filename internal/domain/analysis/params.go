package analysis

import (
	"github.com/phrazzld/curriculum-api/internal/domain"
)

// GradeThreshold maps a minimum overall score to a letter grade.
type GradeThreshold struct {
	MinScore float64
	Grade    string
}

// Params defines all configurable parameters of the analyzer.
type Params struct {
	// Subscore weights of the quality score; they sum to 1.
	AlignmentWeight  float64
	CompletionWeight float64
	WeightingWeight  float64

	// TargetTotalWeight is the assessment weight total a unit should reach.
	TargetTotalWeight float64

	// GradeThresholds must be sorted by MinScore, highest first.
	GradeThresholds []GradeThreshold
	FallbackGrade   string

	// AssessmentMinutes estimates the effort of an assessment without an
	// explicit duration, by category.
	AssessmentMinutes        map[domain.AssessmentCategory]int
	DefaultAssessmentMinutes int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		AlignmentWeight:  0.4,
		CompletionWeight: 0.3,
		WeightingWeight:  0.3,

		TargetTotalWeight: 100,

		GradeThresholds: []GradeThreshold{
			{MinScore: 90, Grade: "A"},
			{MinScore: 80, Grade: "B"},
			{MinScore: 70, Grade: "C"},
			{MinScore: 60, Grade: "D"},
		},
		FallbackGrade: "F",

		AssessmentMinutes: map[domain.AssessmentCategory]int{
			domain.CategoryExam:          120,
			domain.CategoryQuiz:          30,
			domain.CategoryAssignment:    480,
			domain.CategoryProject:       600,
			domain.CategoryPresentation:  240,
			domain.CategoryParticipation: 60,
			domain.CategoryLabReport:     300,
			domain.CategoryPortfolio:     480,
		},
		DefaultAssessmentMinutes: 120,
	}
}

// estimatedMinutes returns the assessment's own duration when set, otherwise
// the estimate for its category.
func (p *Params) estimatedMinutes(a *domain.Assessment) int {
	if a.DurationMinutes != nil {
		if *a.DurationMinutes < 0 {
			return 0
		}
		return *a.DurationMinutes
	}
	if m, ok := p.AssessmentMinutes[a.Category]; ok {
		return m
	}
	return p.DefaultAssessmentMinutes
}

// gradeFor maps an overall score to its letter grade.
func (p *Params) gradeFor(score float64) string {
	for _, t := range p.GradeThresholds {
		if score >= t.MinScore {
			return t.Grade
		}
	}
	return p.FallbackGrade
}
