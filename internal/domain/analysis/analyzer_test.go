package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

func intPtr(v int) *int { return &v }

// snapshotBuilder assembles snapshots for tests without going through the
// constructors, so that edge cases can be expressed directly.
type snapshotBuilder struct {
	s domain.UnitSnapshot
}

func newSnapshot(weeks int) *snapshotBuilder {
	id := uuid.New()
	return &snapshotBuilder{s: domain.UnitSnapshot{
		Unit:     domain.Unit{ID: id, Code: "BUS101", DurationWeeks: weeks},
		Mappings: domain.NewMappingSet(id, 0),
	}}
}

func (b *snapshotBuilder) ulo(code string) uuid.UUID {
	id := uuid.New()
	b.s.ULOs = append(b.s.ULOs, domain.ULO{
		ID: id, UnitID: b.s.Unit.ID, Code: code, BloomLevel: domain.BloomApply,
	})
	return id
}

func (b *snapshotBuilder) material(week int, minutes *int, status domain.ContentStatus) uuid.UUID {
	id := uuid.New()
	b.s.Materials = append(b.s.Materials, domain.Material{
		ID: id, UnitID: b.s.Unit.ID, WeekNumber: week, Type: domain.MaterialLecture,
		DurationMinutes: minutes, Status: status,
	})
	return id
}

func (b *snapshotBuilder) assessment(
	typ domain.AssessmentType,
	cat domain.AssessmentCategory,
	weight float64,
	release, due, minutes *int,
) uuid.UUID {
	id := uuid.New()
	b.s.Assessments = append(b.s.Assessments, domain.Assessment{
		ID: id, UnitID: b.s.Unit.ID, Type: typ, Category: cat, Weight: weight,
		ReleaseWeek: release, DueWeek: due, DurationMinutes: minutes, Status: domain.StatusDraft,
	})
	return id
}

func (b *snapshotBuilder) linkMaterial(ulo, material uuid.UUID) {
	b.s.MaterialLinks = append(b.s.MaterialLinks, domain.MaterialLink{ULOID: ulo, MaterialID: material})
}

func (b *snapshotBuilder) linkAssessment(ulo, asm uuid.UUID) {
	b.s.AssessmentLinks = append(b.s.AssessmentLinks, domain.AssessmentLink{ULOID: ulo, AssessmentID: asm})
}

func (b *snapshotBuilder) build(t *testing.T) *domain.UnitSnapshot {
	t.Helper()
	require.NoError(t, b.s.Validate())
	return &b.s
}

func TestAlignmentReportMixedCoverage(t *testing.T) {
	t.Parallel()

	b := newSnapshot(12)
	mat := b.material(1, intPtr(60), domain.StatusPublished)
	asm := b.assessment(domain.AssessmentSummative, domain.CategoryExam, 100, nil, intPtr(12), nil)

	for i := 1; i <= 3; i++ {
		id := b.ulo(fmt.Sprintf("ULO%d", i))
		b.linkMaterial(id, mat)
		b.linkAssessment(id, asm)
	}
	materialsOnly := b.ulo("ULO4")
	b.linkMaterial(materialsOnly, mat)
	b.ulo("ULO5")

	report := NewDefaultAnalyzer().AlignmentReport(b.build(t))

	assert.Equal(t, 5, report.TotalULOs)
	assert.Equal(t, 3, report.FullyAligned)
	assert.Equal(t, 1, report.MaterialsOnly)
	assert.Equal(t, 0, report.AssessmentsOnly)
	assert.Equal(t, 1, report.Unaligned)
	assert.Equal(t, 60.0, report.AlignmentPercentage)

	mentioningUnaligned := 0
	for _, rec := range report.Recommendations {
		if strings.Contains(rec, "ULO5") {
			mentioningUnaligned++
		}
	}
	assert.Equal(t, 1, mentioningUnaligned)
	assert.Len(t, report.Recommendations, 2, "one recommendation per ULO that is not fully aligned")
	assert.Contains(t, report.Recommendations[0], "ULO4")
	assert.Contains(t, report.Recommendations[0], "assessment")
}

func TestAlignmentReportCountsDistinctLinks(t *testing.T) {
	t.Parallel()

	b := newSnapshot(4)
	ulo := b.ulo("ULO1")
	m1 := b.material(1, nil, domain.StatusDraft)
	m2 := b.material(2, nil, domain.StatusDraft)
	asm := b.assessment(domain.AssessmentFormative, domain.CategoryQuiz, 10, nil, nil, nil)
	b.linkMaterial(ulo, m1)
	b.linkMaterial(ulo, m1)
	b.linkMaterial(ulo, m2)
	b.linkAssessment(ulo, asm)

	report := NewDefaultAnalyzer().AlignmentReport(b.build(t))

	require.Len(t, report.ULOs, 1)
	assert.Equal(t, 2, report.ULOs[0].MaterialCount)
	assert.Equal(t, 1, report.ULOs[0].AssessmentCount)
	assert.Equal(t, CoverageFull, report.ULOs[0].Coverage)
	assert.Empty(t, report.Recommendations)
	assert.Equal(t, 100.0, report.AlignmentPercentage)
}

func TestAlignmentReportAssessmentsOnly(t *testing.T) {
	t.Parallel()

	b := newSnapshot(4)
	ulo := b.ulo("ULO1")
	asm := b.assessment(domain.AssessmentSummative, domain.CategoryProject, 50, nil, nil, nil)
	b.linkAssessment(ulo, asm)

	report := NewDefaultAnalyzer().AlignmentReport(b.build(t))

	assert.Equal(t, 1, report.AssessmentsOnly)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "material")
	assert.Zero(t, report.AlignmentPercentage)
}

func TestEmptyUnitProducesZeroedReports(t *testing.T) {
	t.Parallel()

	s := newSnapshot(6).build(t)
	an := NewDefaultAnalyzer()

	alignment := an.AlignmentReport(s)
	assert.Zero(t, alignment.TotalULOs)
	assert.Zero(t, alignment.AlignmentPercentage)
	assert.NotNil(t, alignment.Recommendations)

	grades := an.GradeDistribution(s)
	assert.Zero(t, grades.TotalWeight)
	assert.Empty(t, grades.Warning)

	quality := an.QualityScore(s)
	assert.Zero(t, quality.AlignmentScore)
	assert.Zero(t, quality.CompletionScore)
	assert.Zero(t, quality.WeightingScore)
	assert.Zero(t, quality.OverallScore)
	assert.Equal(t, "F", quality.Grade)

	weeks := an.AllWeeks(s)
	require.Len(t, weeks, 6)
	for i, w := range weeks {
		assert.Equal(t, WeeklyWorkload{Week: i + 1}, w)
	}
}

func TestNilSnapshotIsTolerated(t *testing.T) {
	t.Parallel()

	an := NewDefaultAnalyzer()
	assert.Zero(t, an.AlignmentReport(nil).TotalULOs)
	assert.Zero(t, an.GradeDistribution(nil).TotalWeight)
	assert.Equal(t, WeeklyWorkload{Week: 2}, an.WeeklyWorkload(nil, 2))
	assert.Empty(t, an.AllWeeks(nil))
	assert.Equal(t, "F", an.QualityScore(nil).Grade)
}

func TestGradeDistribution(t *testing.T) {
	t.Parallel()

	b := newSnapshot(10)
	b.assessment(domain.AssessmentFormative, domain.CategoryQuiz, 10, nil, nil, nil)
	b.assessment(domain.AssessmentFormative, domain.CategoryQuiz, 5, nil, nil, nil)
	b.assessment(domain.AssessmentSummative, domain.CategoryAssignment, 35, nil, nil, nil)
	b.assessment(domain.AssessmentSummative, domain.CategoryExam, 50, nil, nil, nil)

	dist := NewDefaultAnalyzer().GradeDistribution(b.build(t))

	assert.Equal(t, 100.0, dist.TotalWeight)
	assert.Equal(t, 15.0, dist.ByType[domain.AssessmentFormative])
	assert.Equal(t, 85.0, dist.ByType[domain.AssessmentSummative])
	assert.Equal(t, 15.0, dist.ByCategory[domain.CategoryQuiz])
	assert.Equal(t, 35.0, dist.ByCategory[domain.CategoryAssignment])
	assert.Equal(t, 50.0, dist.ByCategory[domain.CategoryExam])
	assert.Empty(t, dist.Warning)
}

func TestOverweightUnitIsReportedNotRejected(t *testing.T) {
	t.Parallel()

	b := newSnapshot(10)
	b.assessment(domain.AssessmentSummative, domain.CategoryAssignment, 45, nil, nil, nil)
	b.assessment(domain.AssessmentSummative, domain.CategoryExam, 60, nil, nil, nil)
	s := b.build(t)
	an := NewDefaultAnalyzer()

	dist := an.GradeDistribution(s)
	assert.Equal(t, 105.0, dist.TotalWeight)
	assert.Contains(t, dist.Warning, "105")

	quality := an.QualityScore(s)
	assert.Equal(t, 95.0, quality.WeightingScore)
	assert.GreaterOrEqual(t, quality.WeightingScore, 0.0)
	assert.Less(t, quality.WeightingScore, 100.0)
}

func TestWeightingScoreIsClamped(t *testing.T) {
	t.Parallel()

	b := newSnapshot(10)
	for i := 0; i < 3; i++ {
		b.assessment(domain.AssessmentSummative, domain.CategoryExam, 100, nil, nil, nil)
	}

	quality := NewDefaultAnalyzer().QualityScore(b.build(t))
	assert.Zero(t, quality.WeightingScore, "a total of 300 is 200 away from the target")
}

func TestWeeklyWorkload(t *testing.T) {
	t.Parallel()

	b := newSnapshot(8)
	b.material(3, intPtr(90), domain.StatusPublished)
	b.material(3, intPtr(60), domain.StatusDraft)
	b.material(3, nil, domain.StatusDraft)
	b.material(4, intPtr(600), domain.StatusDraft)
	// Released and due in week 3: counted once.
	b.assessment(domain.AssessmentFormative, domain.CategoryQuiz, 5, intPtr(3), intPtr(3), intPtr(20))
	// Due in week 3, duration estimated from its category.
	b.assessment(domain.AssessmentSummative, domain.CategoryExam, 50, intPtr(1), intPtr(3), nil)
	// Not touching week 3.
	b.assessment(domain.AssessmentSummative, domain.CategoryProject, 45, intPtr(2), intPtr(8), nil)

	w := NewDefaultAnalyzer().WeeklyWorkload(b.build(t), 3)

	assert.Equal(t, 3, w.Week)
	assert.Equal(t, 3, w.MaterialCount)
	assert.Equal(t, 150, w.MaterialMinutes)
	assert.Equal(t, 2, w.AssessmentCount)
	assert.Equal(t, 20+120, w.AssessmentMinutes)
	assert.Equal(t, 290, w.TotalMinutes)
	assert.InDelta(t, 290.0/60, w.WorkloadHours, 1e-9)
}

func TestQuietWeekIsAllZero(t *testing.T) {
	t.Parallel()

	b := newSnapshot(8)
	b.material(1, intPtr(90), domain.StatusPublished)
	b.assessment(domain.AssessmentSummative, domain.CategoryExam, 100, intPtr(2), intPtr(8), nil)
	s := b.build(t)
	an := NewDefaultAnalyzer()

	assert.Equal(t, WeeklyWorkload{Week: 5}, an.WeeklyWorkload(s, 5))
	assert.Equal(t, WeeklyWorkload{Week: 42}, an.WeeklyWorkload(s, 42))
}

func TestAllWeeksCoversUnitDuration(t *testing.T) {
	t.Parallel()

	b := newSnapshot(3)
	b.material(2, intPtr(30), domain.StatusDraft)
	weeks := NewDefaultAnalyzer().AllWeeks(b.build(t))

	require.Len(t, weeks, 3)
	assert.Zero(t, weeks[0].TotalMinutes)
	assert.Equal(t, 30, weeks[1].TotalMinutes)
	assert.Zero(t, weeks[2].TotalMinutes)
}

func TestQualityScore(t *testing.T) {
	t.Parallel()

	b := newSnapshot(12)
	m1 := b.material(1, nil, domain.StatusPublished)
	b.material(2, nil, domain.StatusPublished)
	b.material(3, nil, domain.StatusPublished)
	b.material(4, nil, domain.StatusArchived)
	asm := b.assessment(domain.AssessmentSummative, domain.CategoryExam, 100, nil, nil, nil)

	full := b.ulo("ULO1")
	b.linkMaterial(full, m1)
	b.linkAssessment(full, asm)
	b.ulo("ULO2")

	q := NewDefaultAnalyzer().QualityScore(b.build(t))

	assert.Equal(t, 50.0, q.AlignmentScore)
	assert.Equal(t, 75.0, q.CompletionScore)
	assert.Equal(t, 100.0, q.WeightingScore)
	assert.InDelta(t, 0.4*50+0.3*75+0.3*100, q.OverallScore, 1e-9)
	assert.Equal(t, "C", q.Grade)
}

func TestQualityScorePerfectUnit(t *testing.T) {
	t.Parallel()

	b := newSnapshot(4)
	m := b.material(1, nil, domain.StatusPublished)
	asm := b.assessment(domain.AssessmentSummative, domain.CategoryPortfolio, 100, nil, nil, nil)
	ulo := b.ulo("ULO1")
	b.linkMaterial(ulo, m)
	b.linkAssessment(ulo, asm)

	q := NewDefaultAnalyzer().QualityScore(b.build(t))
	assert.InDelta(t, 100.0, q.OverallScore, 1e-9)
	assert.Equal(t, "A", q.Grade)
}

func TestGradeThresholds(t *testing.T) {
	t.Parallel()

	p := NewDefaultParams()
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"}, {90, "A"}, {89.99, "B"}, {80, "B"}, {79.5, "C"},
		{70, "C"}, {60, "D"}, {59.9, "F"}, {0, "F"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, p.gradeFor(tc.score), "score %v", tc.score)
	}
}

func TestScoresStayInBounds(t *testing.T) {
	t.Parallel()

	an := NewDefaultAnalyzer()
	for ulos := 0; ulos <= 4; ulos++ {
		for weight := 0.0; weight <= 250; weight += 25 {
			b := newSnapshot(4)
			m := b.material(1, nil, domain.StatusPublished)
			b.material(2, nil, "retired")
			asm := b.assessment(domain.AssessmentSummative, domain.CategoryExam, weight, nil, nil, nil)
			for i := 0; i < ulos; i++ {
				id := b.ulo(fmt.Sprintf("ULO%d", i))
				if i%2 == 0 {
					b.linkMaterial(id, m)
					b.linkAssessment(id, asm)
				}
			}
			s := &b.s

			pct := an.AlignmentReport(s).AlignmentPercentage
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)

			q := an.QualityScore(s)
			assert.GreaterOrEqual(t, q.OverallScore, 0.0)
			assert.LessOrEqual(t, q.OverallScore, 100.0)
			assert.Equal(t, NewDefaultParams().gradeFor(q.OverallScore), q.Grade)
		}
	}
}

func TestAnalyzerIsIdempotent(t *testing.T) {
	t.Parallel()

	b := newSnapshot(6)
	m := b.material(2, intPtr(45), domain.StatusPublished)
	asm := b.assessment(domain.AssessmentSummative, domain.CategoryAssignment, 40, intPtr(2), intPtr(4), nil)
	ulo := b.ulo("ULO1")
	b.ulo("ULO2")
	b.linkMaterial(ulo, m)
	b.linkAssessment(ulo, asm)
	s := b.build(t)
	an := NewDefaultAnalyzer()

	assert.Equal(t, an.AlignmentReport(s), an.AlignmentReport(s))
	assert.Equal(t, an.GradeDistribution(s), an.GradeDistribution(s))
	assert.Equal(t, an.WeeklyWorkload(s, 2), an.WeeklyWorkload(s, 2))
	assert.Equal(t, an.AllWeeks(s), an.AllWeeks(s))
	assert.Equal(t, an.QualityScore(s), an.QualityScore(s))
}

func TestCustomParams(t *testing.T) {
	t.Parallel()

	p := NewDefaultParams()
	p.AssessmentMinutes = map[domain.AssessmentCategory]int{}
	p.DefaultAssessmentMinutes = 15
	p.TargetTotalWeight = 50

	b := newSnapshot(2)
	b.assessment(domain.AssessmentFormative, domain.CategoryOther, 50, intPtr(1), nil, nil)
	s := b.build(t)
	an := NewAnalyzerWithParams(p)

	assert.Equal(t, 15, an.WeeklyWorkload(s, 1).AssessmentMinutes)
	assert.Empty(t, an.GradeDistribution(s).Warning)
	assert.Equal(t, 100.0, an.QualityScore(s).WeightingScore)
}
