package suggest

import (
	"github.com/phrazzld/curriculum-api/internal/domain"
)

// Params defines all configurable parameters of the suggestion engine.
type Params struct {
	// KeywordWeight is added to an entry's score for every keyword occurrence.
	KeywordWeight int
	// CompetencyThreshold is the minimum score for a competency to be emitted.
	CompetencyThreshold int
	// TopN is how many goals (and capabilities per ULO) callers apply.
	TopN int

	// Signals that escalate a competency to Master.
	MasterBloomLevels   []domain.BloomLevel
	MasterCategoryHints []string

	// Signals that escalate a competency from Introduce to Reinforce.
	ReinforceBloomLevels   []domain.BloomLevel
	ReinforceCategoryHints []string
}

// ParamsConfig allows overriding the default numeric parameters. Zero values
// keep the defaults.
type ParamsConfig struct {
	KeywordWeight       int
	CompetencyThreshold int
	TopN                int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		KeywordWeight:       10,
		CompetencyThreshold: 20, // two keyword hits at the default weight
		TopN:                3,

		MasterBloomLevels: []domain.BloomLevel{
			domain.BloomCreate,
			domain.BloomEvaluate,
			domain.BloomAnalyze,
		},
		MasterCategoryHints: []string{"project", "portfolio", "capstone", "thesis"},

		ReinforceBloomLevels: []domain.BloomLevel{
			domain.BloomApply,
			domain.BloomUnderstand,
		},
		ReinforceCategoryHints: []string{"assignment", "presentation", "report"},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.KeywordWeight > 0 {
		params.KeywordWeight = config.KeywordWeight
	}
	if config.CompetencyThreshold > 0 {
		params.CompetencyThreshold = config.CompetencyThreshold
	}
	if config.TopN > 0 {
		params.TopN = config.TopN
	}

	return params
}
