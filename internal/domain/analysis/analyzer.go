// Package analysis computes read-only reports over a unit snapshot: ULO
// alignment, grade weight distribution, weekly workload and an overall quality
// score. Every function is total: an empty unit yields a zeroed report, and
// ratios with a zero denominator are defined as 0.
package analysis

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// Analyzer defines the interface for report computations
type Analyzer interface {
	// AlignmentReport classifies every ULO by linked materials and assessments.
	AlignmentReport(s *domain.UnitSnapshot) AlignmentReport

	// GradeDistribution sums assessment weights by type and by category.
	GradeDistribution(s *domain.UnitSnapshot) GradeDistribution

	// WeeklyWorkload sums the effort scheduled in one week.
	WeeklyWorkload(s *domain.UnitSnapshot, week int) WeeklyWorkload

	// AllWeeks returns WeeklyWorkload for weeks 1..DurationWeeks.
	AllWeeks(s *domain.UnitSnapshot) []WeeklyWorkload

	// QualityScore combines the subscores and assigns a letter grade.
	QualityScore(s *domain.UnitSnapshot) QualityScore
}

// defaultAnalyzer is the standard implementation of the Analyzer interface
type defaultAnalyzer struct {
	params *Params
}

// NewDefaultAnalyzer creates an analyzer with default parameters
func NewDefaultAnalyzer() Analyzer {
	return &defaultAnalyzer{params: NewDefaultParams()}
}

// NewAnalyzerWithParams creates an analyzer with custom parameters
func NewAnalyzerWithParams(params *Params) Analyzer {
	return &defaultAnalyzer{params: params}
}

// AlignmentReport implements Analyzer.
func (a *defaultAnalyzer) AlignmentReport(s *domain.UnitSnapshot) AlignmentReport {
	report := AlignmentReport{
		ULOs:            []ULOAlignment{},
		Recommendations: []string{},
	}
	if s == nil {
		return report
	}

	materialsByULO := linkedMaterials(s)
	assessmentsByULO := linkedAssessments(s)

	for _, ulo := range s.ULOs {
		row := ULOAlignment{
			ULOID:           ulo.ID,
			Code:            ulo.Code,
			MaterialCount:   len(materialsByULO[ulo.ID]),
			AssessmentCount: len(assessmentsByULO[ulo.ID]),
		}
		row.Coverage = classify(row.MaterialCount, row.AssessmentCount)

		switch row.Coverage {
		case CoverageFull:
			report.FullyAligned++
		case CoverageMaterialsOnly:
			report.MaterialsOnly++
		case CoverageAssessmentsOnly:
			report.AssessmentsOnly++
		default:
			report.Unaligned++
		}
		if rec := recommendation(ulo.Code, row.Coverage); rec != "" {
			report.Recommendations = append(report.Recommendations, rec)
		}
		report.ULOs = append(report.ULOs, row)
	}

	report.TotalULOs = len(s.ULOs)
	report.AlignmentPercentage = percentage(report.FullyAligned, report.TotalULOs)
	return report
}

func classify(materials, assessments int) Coverage {
	switch {
	case materials > 0 && assessments > 0:
		return CoverageFull
	case materials > 0:
		return CoverageMaterialsOnly
	case assessments > 0:
		return CoverageAssessmentsOnly
	default:
		return CoverageUnaligned
	}
}

func recommendation(code string, c Coverage) string {
	switch c {
	case CoverageMaterialsOnly:
		return fmt.Sprintf("%s has no assessment coverage: link an assessment that measures it", code)
	case CoverageAssessmentsOnly:
		return fmt.Sprintf("%s has no material coverage: link teaching material that develops it", code)
	case CoverageUnaligned:
		return fmt.Sprintf("%s has neither material nor assessment coverage: link both", code)
	default:
		return ""
	}
}

// linkedMaterials returns the distinct existing materials linked to each ULO.
func linkedMaterials(s *domain.UnitSnapshot) map[uuid.UUID]map[uuid.UUID]struct{} {
	known := make(map[uuid.UUID]struct{}, len(s.Materials))
	for _, m := range s.Materials {
		known[m.ID] = struct{}{}
	}
	out := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, l := range s.MaterialLinks {
		if _, ok := known[l.MaterialID]; !ok {
			continue
		}
		if out[l.ULOID] == nil {
			out[l.ULOID] = make(map[uuid.UUID]struct{})
		}
		out[l.ULOID][l.MaterialID] = struct{}{}
	}
	return out
}

// linkedAssessments returns the distinct existing assessments linked to each ULO.
func linkedAssessments(s *domain.UnitSnapshot) map[uuid.UUID]map[uuid.UUID]struct{} {
	known := make(map[uuid.UUID]struct{}, len(s.Assessments))
	for _, a := range s.Assessments {
		known[a.ID] = struct{}{}
	}
	out := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, l := range s.AssessmentLinks {
		if _, ok := known[l.AssessmentID]; !ok {
			continue
		}
		if out[l.ULOID] == nil {
			out[l.ULOID] = make(map[uuid.UUID]struct{})
		}
		out[l.ULOID][l.AssessmentID] = struct{}{}
	}
	return out
}

// GradeDistribution implements Analyzer.
func (a *defaultAnalyzer) GradeDistribution(s *domain.UnitSnapshot) GradeDistribution {
	dist := GradeDistribution{
		ByType:     map[domain.AssessmentType]float64{},
		ByCategory: map[domain.AssessmentCategory]float64{},
	}
	if s == nil {
		return dist
	}

	for _, asm := range s.Assessments {
		dist.ByType[asm.Type] += asm.Weight
		dist.ByCategory[asm.Category] += asm.Weight
		dist.TotalWeight += asm.Weight
	}

	if len(s.Assessments) > 0 && !nearlyEqual(dist.TotalWeight, a.params.TargetTotalWeight) {
		dist.Warning = fmt.Sprintf(
			"assessment weights total %s%%, expected %s%%",
			formatWeight(dist.TotalWeight),
			formatWeight(a.params.TargetTotalWeight),
		)
	}
	return dist
}

// WeeklyWorkload implements Analyzer. Weeks outside the unit have no content
// and produce a zeroed result.
func (a *defaultAnalyzer) WeeklyWorkload(s *domain.UnitSnapshot, week int) WeeklyWorkload {
	w := WeeklyWorkload{Week: week}
	if s == nil {
		return w
	}

	for i := range s.Materials {
		m := &s.Materials[i]
		if m.WeekNumber != week {
			continue
		}
		w.MaterialCount++
		w.MaterialMinutes += m.Minutes()
	}
	for i := range s.Assessments {
		asm := &s.Assessments[i]
		if !asm.TouchesWeek(week) {
			continue
		}
		w.AssessmentCount++
		w.AssessmentMinutes += a.params.estimatedMinutes(asm)
	}

	w.TotalMinutes = w.MaterialMinutes + w.AssessmentMinutes
	w.WorkloadHours = float64(w.TotalMinutes) / 60
	return w
}

// AllWeeks implements Analyzer.
func (a *defaultAnalyzer) AllWeeks(s *domain.UnitSnapshot) []WeeklyWorkload {
	if s == nil || s.Unit.DurationWeeks < 1 {
		return []WeeklyWorkload{}
	}
	out := make([]WeeklyWorkload, 0, s.Unit.DurationWeeks)
	for week := 1; week <= s.Unit.DurationWeeks; week++ {
		out = append(out, a.WeeklyWorkload(s, week))
	}
	return out
}

// QualityScore implements Analyzer.
func (a *defaultAnalyzer) QualityScore(s *domain.UnitSnapshot) QualityScore {
	q := QualityScore{}
	if s != nil {
		q.AlignmentScore = a.AlignmentReport(s).AlignmentPercentage
		q.CompletionScore = completion(s)
		q.WeightingScore = clamp(100-math.Abs(a.params.TargetTotalWeight-a.GradeDistribution(s).TotalWeight), 0, 100)
	}

	q.OverallScore = clamp(
		a.params.AlignmentWeight*q.AlignmentScore+
			a.params.CompletionWeight*q.CompletionScore+
			a.params.WeightingWeight*q.WeightingScore,
		0, 100,
	)
	q.Grade = a.params.gradeFor(q.OverallScore)
	return q
}

// completion is the percentage of materials that are published.
func completion(s *domain.UnitSnapshot) float64 {
	published := 0
	for _, m := range s.Materials {
		if m.Status == domain.StatusPublished {
			published++
		}
	}
	return percentage(published, len(s.Materials))
}

// percentage returns part/total*100, or 0 when total is 0.
func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return clamp(float64(part*100)/float64(total), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func formatWeight(w float64) string {
	return fmt.Sprintf("%g", math.Round(w*100)/100)
}
