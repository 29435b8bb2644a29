// Package mapping merges suggested taxonomy mappings into a unit's existing
// mapping set. A suggestion only ever fills an empty slot: a competency with
// no record or with an unset level that the user has not cleared, or a goal or
// capability with no record at all. Everything else is left exactly as found.
package mapping

import (
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// Slot kinds reported by a merge
const (
	SlotCompetency = "competency"
	SlotGoal       = "sdg"
	SlotCapability = "graduate_capability"
)

// CompetencySuggestion proposes a level for a competency.
type CompetencySuggestion struct {
	Code  string
	Level domain.ProficiencyLevel
}

// CapabilitySuggestion proposes a capability for one ULO.
type CapabilitySuggestion struct {
	ULOID uuid.UUID
	Code  string
}

// Suggested is the set of candidates a caller wants merged. Goals and
// capabilities are expected to be already cut to the caller's top-N.
type Suggested struct {
	Competencies []CompetencySuggestion
	Goals        []string
	Capabilities []CapabilitySuggestion
}

// Slot identifies one mapping key touched by a merge.
type Slot struct {
	Kind  string                  `json:"kind"`
	ULOID uuid.UUID               `json:"ulo_id,omitempty"`
	Code  string                  `json:"code"`
	Level domain.ProficiencyLevel `json:"level,omitempty"`
}

// Report lists the slots a merge filled and the suggestions it declined
// because the slot already held a value or had been dismissed.
type Report struct {
	Filled    []Slot `json:"filled"`
	Preserved []Slot `json:"preserved"`
}

// Changed reports whether the merge filled anything.
func (r Report) Changed() bool {
	return len(r.Filled) > 0
}

// MergeSuggestions returns a copy of existing with every empty slot named in
// suggested filled and flagged as AI-suggested. existing is not modified.
// Suggestions with an invalid level are ignored.
func MergeSuggestions(existing *domain.MappingSet, suggested Suggested, now time.Time) (*domain.MappingSet, Report) {
	var merged *domain.MappingSet
	if existing == nil {
		merged = domain.NewMappingSet(uuid.Nil, 0)
	} else {
		merged = existing.Clone()
	}

	report := Report{Filled: []Slot{}, Preserved: []Slot{}}
	seen := make(map[Slot]struct{})

	for _, s := range suggested.Competencies {
		if !s.Level.IsValid() {
			continue
		}
		key := Slot{Kind: SlotCompetency, Code: s.Code}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		slot := Slot{Kind: SlotCompetency, Code: s.Code, Level: s.Level}
		if cur, ok := merged.Competency(s.Code); ok && (cur.Level != domain.LevelUnset || cur.Dismissed) {
			slot.Level = cur.Level
			report.Preserved = append(report.Preserved, slot)
			continue
		}
		merged.PutCompetency(domain.AoLMapping{
			CompetencyCode: s.Code,
			Level:          s.Level,
			IsAISuggested:  true,
			UpdatedAt:      now,
		})
		report.Filled = append(report.Filled, slot)
	}

	for _, code := range suggested.Goals {
		slot := Slot{Kind: SlotGoal, Code: code}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}

		if _, ok := merged.Goal(code); ok {
			report.Preserved = append(report.Preserved, slot)
			continue
		}
		merged.PutGoal(domain.SDGMapping{
			SDGCode:       code,
			IsAISuggested: true,
			UpdatedAt:     now,
		})
		report.Filled = append(report.Filled, slot)
	}

	for _, s := range suggested.Capabilities {
		slot := Slot{Kind: SlotCapability, ULOID: s.ULOID, Code: s.Code}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}

		if _, ok := merged.Capability(s.ULOID, s.Code); ok {
			report.Preserved = append(report.Preserved, slot)
			continue
		}
		merged.PutCapability(domain.GraduateCapabilityMapping{
			ULOID:          s.ULOID,
			CapabilityCode: s.Code,
			IsAISuggested:  true,
			UpdatedAt:      now,
		})
		report.Filled = append(report.Filled, slot)
	}

	return merged, report
}
