// Package suggest proposes taxonomy mappings for free-text learning outcomes
// by keyword scoring against the catalogs. Every function is pure and
// deterministic.
package suggest

import (
	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
)

// Signals are the optional inputs that shape competency levels. Assessment
// categories are also scored as text for competencies.
type Signals struct {
	BloomLevels          []domain.BloomLevel `json:"bloom_levels,omitempty"`
	AssessmentCategories []string            `json:"assessment_categories,omitempty"`
}

// SignalsFromSnapshot collects the Bloom levels and assessment categories of a unit.
func SignalsFromSnapshot(s *domain.UnitSnapshot) Signals {
	cats := s.AssessmentCategories()
	out := Signals{
		BloomLevels:          s.BloomLevels(),
		AssessmentCategories: make([]string, 0, len(cats)),
	}
	for _, c := range cats {
		out.AssessmentCategories = append(out.AssessmentCategories, string(c))
	}
	return out
}

// Candidate is one ranked suggestion.
type Candidate struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	// Level is set for competency candidates only.
	Level domain.ProficiencyLevel `json:"level,omitempty"`
}

// Result bundles the unit-level suggestions for one input.
type Result struct {
	Competencies []Candidate `json:"competencies"`
	Goals        []Candidate `json:"goals"`
}

// Service defines the interface for suggestion operations
type Service interface {
	// Suggest returns competency and goal candidates for the given texts.
	Suggest(texts []string, signals Signals) Result

	// SuggestCompetencies returns competencies scoring at least the threshold,
	// each carrying the proficiency level derived from signals.
	SuggestCompetencies(texts []string, signals Signals) []Candidate

	// SuggestGoals returns every goal with a positive score, ranked. The list
	// is not truncated; see Params.TopN.
	SuggestGoals(texts []string) []Candidate

	// SuggestCapabilities returns every graduate capability with a positive
	// score for a single outcome text, ranked.
	SuggestCapabilities(text string) []Candidate

	// Params returns the parameters in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	catalogs *taxonomy.Registry
	params   *Params
}

// NewService creates a suggestion service over the given catalogs with
// default parameters.
func NewService(catalogs *taxonomy.Registry) Service {
	return NewServiceWithParams(catalogs, NewDefaultParams())
}

// NewServiceWithParams creates a suggestion service with custom parameters.
func NewServiceWithParams(catalogs *taxonomy.Registry, params *Params) Service {
	return &defaultService{
		catalogs: catalogs,
		params:   params,
	}
}

// Suggest implements Service.
func (s *defaultService) Suggest(texts []string, signals Signals) Result {
	return Result{
		Competencies: s.SuggestCompetencies(texts, signals),
		Goals:        s.SuggestGoals(texts),
	}
}

// SuggestCompetencies implements Service.
func (s *defaultService) SuggestCompetencies(texts []string, signals Signals) []Candidate {
	corpus, ok := buildCorpus(texts, signals.AssessmentCategories)
	if !ok {
		return []Candidate{}
	}

	out := scoreCatalog(s.catalogs.Competencies(), corpus, s.params.KeywordWeight, s.params.CompetencyThreshold)
	level := proficiencyLevel(signals, s.params)
	for i := range out {
		out[i].Level = level
	}
	return out
}

// SuggestGoals implements Service.
func (s *defaultService) SuggestGoals(texts []string) []Candidate {
	corpus, ok := buildCorpus(texts, nil)
	if !ok {
		return []Candidate{}
	}
	return scoreCatalog(s.catalogs.Goals(), corpus, s.params.KeywordWeight, 0)
}

// SuggestCapabilities implements Service.
func (s *defaultService) SuggestCapabilities(text string) []Candidate {
	corpus, ok := buildCorpus([]string{text}, nil)
	if !ok {
		return []Candidate{}
	}
	return scoreCatalog(s.catalogs.Capabilities(), corpus, s.params.KeywordWeight, 0)
}

// Params implements Service.
func (s *defaultService) Params() Params {
	return *s.params
}
