package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// UnitSnapshot is a read-only view of one unit and everything scoped to it.
// Reports and suggestions are computed from a snapshot and never modify it.
type UnitSnapshot struct {
	Unit            Unit
	ULOs            []ULO
	Materials       []Material
	Assessments     []Assessment
	Outcomes        []LearningOutcome
	MaterialLinks   []MaterialLink
	AssessmentLinks []AssessmentLink
	Mappings        *MappingSet
}

// Validate checks the structural invariants the analyzers rely on: weeks
// within the unit's range, unique ULO codes, and links that reference
// entities of this unit.
func (s *UnitSnapshot) Validate() error {
	if err := s.Unit.Validate(); err != nil {
		return err
	}

	ulos := make(map[uuid.UUID]struct{}, len(s.ULOs))
	codes := make(map[string]struct{}, len(s.ULOs))
	for i := range s.ULOs {
		ulo := &s.ULOs[i]
		if ulo.UnitID != s.Unit.ID {
			return NewValidationError("ulos", fmt.Sprintf("ulo %s belongs to another unit", ulo.Code))
		}
		if _, dup := codes[ulo.Code]; dup {
			return NewValidationError("ulos", fmt.Sprintf("duplicate ulo code %q", ulo.Code))
		}
		codes[ulo.Code] = struct{}{}
		ulos[ulo.ID] = struct{}{}
	}

	materials := make(map[uuid.UUID]struct{}, len(s.Materials))
	for i := range s.Materials {
		m := &s.Materials[i]
		if m.UnitID != s.Unit.ID {
			return NewValidationError("materials", fmt.Sprintf("material %s belongs to another unit", m.ID))
		}
		if !s.Unit.ContainsWeek(m.WeekNumber) {
			return NewValidationError("materials", fmt.Sprintf(
				"material %s is scheduled in week %d outside 1..%d", m.ID, m.WeekNumber, s.Unit.DurationWeeks))
		}
		materials[m.ID] = struct{}{}
	}

	assessments := make(map[uuid.UUID]struct{}, len(s.Assessments))
	for i := range s.Assessments {
		a := &s.Assessments[i]
		if a.UnitID != s.Unit.ID {
			return NewValidationError("assessments", fmt.Sprintf("assessment %s belongs to another unit", a.ID))
		}
		for _, w := range []*int{a.ReleaseWeek, a.DueWeek} {
			if w != nil && !s.Unit.ContainsWeek(*w) {
				return NewValidationError("assessments", fmt.Sprintf(
					"assessment %s references week %d outside 1..%d", a.ID, *w, s.Unit.DurationWeeks))
			}
		}
		assessments[a.ID] = struct{}{}
	}

	for _, l := range s.MaterialLinks {
		if _, ok := ulos[l.ULOID]; !ok {
			return NewValidationError("material_links", fmt.Sprintf("unknown ulo %s", l.ULOID))
		}
		if _, ok := materials[l.MaterialID]; !ok {
			return NewValidationError("material_links", fmt.Sprintf("unknown material %s", l.MaterialID))
		}
	}
	for _, l := range s.AssessmentLinks {
		if _, ok := ulos[l.ULOID]; !ok {
			return NewValidationError("assessment_links", fmt.Sprintf("unknown ulo %s", l.ULOID))
		}
		if _, ok := assessments[l.AssessmentID]; !ok {
			return NewValidationError("assessment_links", fmt.Sprintf("unknown assessment %s", l.AssessmentID))
		}
	}

	if s.Mappings != nil {
		if s.Mappings.UnitID != s.Unit.ID {
			return NewValidationError("mappings", "belong to another unit")
		}
		for _, c := range s.Mappings.capabilities {
			if _, ok := ulos[c.ULOID]; !ok {
				return NewValidationError("mappings", fmt.Sprintf("capability %s references unknown ulo %s", c.CapabilityCode, c.ULOID))
			}
		}
	}

	return nil
}

// ULODescriptions returns the ULO descriptions in order.
func (s *UnitSnapshot) ULODescriptions() []string {
	out := make([]string, 0, len(s.ULOs))
	for _, u := range s.ULOs {
		out = append(out, u.Description)
	}
	return out
}

// BloomLevels returns the Bloom level of each ULO in order.
func (s *UnitSnapshot) BloomLevels() []BloomLevel {
	out := make([]BloomLevel, 0, len(s.ULOs))
	for _, u := range s.ULOs {
		out = append(out, u.BloomLevel)
	}
	return out
}

// AssessmentCategories returns the category of each assessment in order.
func (s *UnitSnapshot) AssessmentCategories() []AssessmentCategory {
	out := make([]AssessmentCategory, 0, len(s.Assessments))
	for _, a := range s.Assessments {
		out = append(out, a.Category)
	}
	return out
}
