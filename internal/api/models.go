package api

import (
	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/mapping"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
)

// CreateUnitRequest is the body of POST /units.
type CreateUnitRequest struct {
	Code          string `json:"code" validate:"required,max=32"`
	Title         string `json:"title" validate:"max=255"`
	DurationWeeks int    `json:"duration_weeks" validate:"required,gte=1,lte=52"`
}

// CreateULORequest is the body of POST /units/{unitID}/ulos.
type CreateULORequest struct {
	Code        string `json:"code" validate:"required,max=32"`
	Description string `json:"description" validate:"required"`
	BloomLevel  string `json:"bloom_level" validate:"required"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

// CreateMaterialRequest is the body of POST /units/{unitID}/materials.
type CreateMaterialRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	WeekNumber      int    `json:"week_number" validate:"required,gte=1"`
	Type            string `json:"type" validate:"required"`
	DurationMinutes *int   `json:"duration_minutes" validate:"omitempty,gte=0"`
	OrderIndex      int    `json:"order_index" validate:"gte=0"`
}

// CreateAssessmentRequest is the body of POST /units/{unitID}/assessments.
type CreateAssessmentRequest struct {
	Title           string  `json:"title" validate:"required,max=255"`
	Type            string  `json:"type" validate:"required"`
	Category        string  `json:"category" validate:"required"`
	Weight          float64 `json:"weight" validate:"gte=0,lte=100"`
	ReleaseWeek     *int    `json:"release_week" validate:"omitempty,gte=1"`
	DueWeek         *int    `json:"due_week" validate:"omitempty,gte=1"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=0"`
}

// UpdateStatusRequest is the body of the material and assessment status
// endpoints.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

// CreateOutcomeRequest is the body of POST /units/{unitID}/outcomes.
type CreateOutcomeRequest struct {
	OwnerKind   string `json:"owner_kind" validate:"required,oneof=material assessment"`
	OwnerID     string `json:"owner_id" validate:"required,uuid"`
	Description string `json:"description" validate:"required"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

// SetCompetencyRequest is the body of PUT /units/{unitID}/mappings/competencies/{code}.
type SetCompetencyRequest struct {
	Level string `json:"level" validate:"required,oneof=I R M"`
}

// SuggestTextsRequest is the body of POST /suggestions.
type SuggestTextsRequest struct {
	Texts                []string `json:"texts" validate:"max=500"`
	BloomLevels          []string `json:"bloom_levels" validate:"max=100"`
	AssessmentCategories []string `json:"assessment_categories" validate:"max=100"`
}

// CatalogResponse lists the entries of one taxonomy catalog.
type CatalogResponse struct {
	Kind    taxonomy.Kind    `json:"kind"`
	Entries []taxonomy.Entry `json:"entries"`
}

// MappingsResponse is the mapping table of a unit. Dismissed records are
// included so clients can show what a user cleared.
type MappingsResponse struct {
	UnitID       uuid.UUID                          `json:"unit_id"`
	Version      int64                              `json:"version"`
	Competencies []domain.AoLMapping                `json:"competencies"`
	Goals        []domain.SDGMapping                `json:"sdgs"`
	Capabilities []domain.GraduateCapabilityMapping `json:"graduate_capabilities"`
}

// SnapshotResponse is a unit with all of its content and mappings.
type SnapshotResponse struct {
	Unit            domain.Unit              `json:"unit"`
	ULOs            []domain.ULO             `json:"ulos"`
	Materials       []domain.Material        `json:"materials"`
	Assessments     []domain.Assessment      `json:"assessments"`
	Outcomes        []domain.LearningOutcome `json:"outcomes"`
	MaterialLinks   []domain.MaterialLink    `json:"material_links"`
	AssessmentLinks []domain.AssessmentLink  `json:"assessment_links"`
	Mappings        MappingsResponse         `json:"mappings"`
}

// ApplyResponse reports a synchronous suggestion apply.
type ApplyResponse struct {
	Version  int64            `json:"version"`
	Report   mapping.Report   `json:"report"`
	Mappings MappingsResponse `json:"mappings"`
}

// TaskAcceptedResponse reports a suggestion apply scheduled in the background.
type TaskAcceptedResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	UnitID uuid.UUID `json:"unit_id"`
	Status string    `json:"status"`
}

func mappingsToResponse(set *domain.MappingSet) MappingsResponse {
	if set == nil {
		return MappingsResponse{
			Competencies: []domain.AoLMapping{},
			Goals:        []domain.SDGMapping{},
			Capabilities: []domain.GraduateCapabilityMapping{},
		}
	}
	return MappingsResponse{
		UnitID:       set.UnitID,
		Version:      set.Version,
		Competencies: nonNil(set.Competencies()),
		Goals:        nonNil(set.Goals()),
		Capabilities: nonNil(set.Capabilities()),
	}
}

func snapshotToResponse(s *domain.UnitSnapshot) SnapshotResponse {
	return SnapshotResponse{
		Unit:            s.Unit,
		ULOs:            nonNil(s.ULOs),
		Materials:       nonNil(s.Materials),
		Assessments:     nonNil(s.Assessments),
		Outcomes:        nonNil(s.Outcomes),
		MaterialLinks:   nonNil(s.MaterialLinks),
		AssessmentLinks: nonNil(s.AssessmentLinks),
		Mappings:        mappingsToResponse(s.Mappings),
	}
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
