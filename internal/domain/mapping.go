package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProficiencyLevel is the Introduce/Reinforce/Master scale of an AoL mapping.
type ProficiencyLevel string

// Proficiency levels, lowest to highest. The empty level means "unset".
const (
	LevelUnset     ProficiencyLevel = ""
	LevelIntroduce ProficiencyLevel = "I"
	LevelReinforce ProficiencyLevel = "R"
	LevelMaster    ProficiencyLevel = "M"
)

// Rank orders the levels; unset ranks lowest.
func (l ProficiencyLevel) Rank() int {
	switch l {
	case LevelIntroduce:
		return 1
	case LevelReinforce:
		return 2
	case LevelMaster:
		return 3
	default:
		return 0
	}
}

// IsValid reports whether l is one of I, R, M.
func (l ProficiencyLevel) IsValid() bool {
	return l.Rank() > 0
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b ProficiencyLevel) ProficiencyLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// MaterialLink associates a ULO with a material that teaches it.
type MaterialLink struct {
	ULOID      uuid.UUID `json:"ulo_id"`
	MaterialID uuid.UUID `json:"material_id"`
}

// AssessmentLink associates a ULO with an assessment that measures it.
type AssessmentLink struct {
	ULOID        uuid.UUID `json:"ulo_id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
}

// AoLMapping records the proficiency level at which a unit addresses an
// accreditation competency. A record with an empty level and Dismissed set is a
// user's explicit clear and is never refilled by suggestions.
type AoLMapping struct {
	UnitID         uuid.UUID        `json:"unit_id"`
	CompetencyCode string           `json:"competency_code"`
	Level          ProficiencyLevel `json:"level"`
	IsAISuggested  bool             `json:"is_ai_suggested"`
	Dismissed      bool             `json:"dismissed"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Active reports whether the mapping currently carries a level.
func (m AoLMapping) Active() bool {
	return m.Level != LevelUnset && !m.Dismissed
}

// SDGMapping records that a unit addresses a sustainability goal.
type SDGMapping struct {
	UnitID        uuid.UUID `json:"unit_id"`
	SDGCode       string    `json:"sdg_code"`
	IsAISuggested bool      `json:"is_ai_suggested"`
	Dismissed     bool      `json:"dismissed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Active reports whether the goal is currently selected.
func (m SDGMapping) Active() bool {
	return !m.Dismissed
}

// GraduateCapabilityMapping records that a ULO develops a graduate capability.
type GraduateCapabilityMapping struct {
	ULOID          uuid.UUID `json:"ulo_id"`
	CapabilityCode string    `json:"capability_code"`
	IsAISuggested  bool      `json:"is_ai_suggested"`
	Dismissed      bool      `json:"dismissed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Active reports whether the capability is currently selected.
func (m GraduateCapabilityMapping) Active() bool {
	return !m.Dismissed
}

type capabilityKey struct {
	uloID uuid.UUID
	code  string
}

// MappingSet is the taxonomy mapping table of one unit. Records live in
// insertion-ordered slices and are addressed through indexes keyed by their
// composite uniqueness constraint, so writing an existing key updates in place.
type MappingSet struct {
	UnitID  uuid.UUID
	Version int64

	competencies []AoLMapping
	goals        []SDGMapping
	capabilities []GraduateCapabilityMapping

	competencyIdx map[string]int
	goalIdx       map[string]int
	capabilityIdx map[capabilityKey]int
}

// NewMappingSet creates an empty mapping set for a unit at the given version.
func NewMappingSet(unitID uuid.UUID, version int64) *MappingSet {
	return &MappingSet{
		UnitID:        unitID,
		Version:       version,
		competencyIdx: make(map[string]int),
		goalIdx:       make(map[string]int),
		capabilityIdx: make(map[capabilityKey]int),
	}
}

// Clone returns a deep copy that can be modified without affecting s.
func (s *MappingSet) Clone() *MappingSet {
	c := NewMappingSet(s.UnitID, s.Version)
	for _, m := range s.competencies {
		c.PutCompetency(m)
	}
	for _, m := range s.goals {
		c.PutGoal(m)
	}
	for _, m := range s.capabilities {
		c.PutCapability(m)
	}
	return c
}

// Competency returns the record for code, if any.
func (s *MappingSet) Competency(code string) (AoLMapping, bool) {
	i, ok := s.competencyIdx[code]
	if !ok {
		return AoLMapping{}, false
	}
	return s.competencies[i], true
}

// PutCompetency inserts or replaces the record keyed by its competency code.
func (s *MappingSet) PutCompetency(m AoLMapping) {
	m.UnitID = s.UnitID
	if i, ok := s.competencyIdx[m.CompetencyCode]; ok {
		s.competencies[i] = m
		return
	}
	s.competencyIdx[m.CompetencyCode] = len(s.competencies)
	s.competencies = append(s.competencies, m)
}

// Goal returns the record for code, if any.
func (s *MappingSet) Goal(code string) (SDGMapping, bool) {
	i, ok := s.goalIdx[code]
	if !ok {
		return SDGMapping{}, false
	}
	return s.goals[i], true
}

// PutGoal inserts or replaces the record keyed by its goal code.
func (s *MappingSet) PutGoal(m SDGMapping) {
	m.UnitID = s.UnitID
	if i, ok := s.goalIdx[m.SDGCode]; ok {
		s.goals[i] = m
		return
	}
	s.goalIdx[m.SDGCode] = len(s.goals)
	s.goals = append(s.goals, m)
}

// Capability returns the record for (uloID, code), if any.
func (s *MappingSet) Capability(uloID uuid.UUID, code string) (GraduateCapabilityMapping, bool) {
	i, ok := s.capabilityIdx[capabilityKey{uloID, code}]
	if !ok {
		return GraduateCapabilityMapping{}, false
	}
	return s.capabilities[i], true
}

// PutCapability inserts or replaces the record keyed by (ULO, capability code).
func (s *MappingSet) PutCapability(m GraduateCapabilityMapping) {
	key := capabilityKey{m.ULOID, m.CapabilityCode}
	if i, ok := s.capabilityIdx[key]; ok {
		s.capabilities[i] = m
		return
	}
	s.capabilityIdx[key] = len(s.capabilities)
	s.capabilities = append(s.capabilities, m)
}

// Competencies returns a copy of all competency records in insertion order.
func (s *MappingSet) Competencies() []AoLMapping {
	return append([]AoLMapping(nil), s.competencies...)
}

// Goals returns a copy of all goal records in insertion order.
func (s *MappingSet) Goals() []SDGMapping {
	return append([]SDGMapping(nil), s.goals...)
}

// Capabilities returns a copy of all capability records in insertion order.
func (s *MappingSet) Capabilities() []GraduateCapabilityMapping {
	return append([]GraduateCapabilityMapping(nil), s.capabilities...)
}

// SetCompetencyLevel records a user's choice of level for a competency.
func (s *MappingSet) SetCompetencyLevel(code string, level ProficiencyLevel, now time.Time) error {
	if !level.IsValid() {
		return NewValidationError("level", fmt.Sprintf("must be I, R or M, got %q", level))
	}
	s.PutCompetency(AoLMapping{
		CompetencyCode: code,
		Level:          level,
		UpdatedAt:      now,
	})
	return nil
}

// ClearCompetency records a user's explicit removal of a competency level.
func (s *MappingSet) ClearCompetency(code string, now time.Time) {
	s.PutCompetency(AoLMapping{
		CompetencyCode: code,
		Level:          LevelUnset,
		Dismissed:      true,
		UpdatedAt:      now,
	})
}

// SelectGoal records a user's selection of a goal.
func (s *MappingSet) SelectGoal(code string, now time.Time) {
	s.PutGoal(SDGMapping{SDGCode: code, UpdatedAt: now})
}

// RemoveGoal records a user's removal of a goal.
func (s *MappingSet) RemoveGoal(code string, now time.Time) {
	s.PutGoal(SDGMapping{SDGCode: code, Dismissed: true, UpdatedAt: now})
}

// SelectCapability records a user's selection of a capability for a ULO.
func (s *MappingSet) SelectCapability(uloID uuid.UUID, code string, now time.Time) {
	s.PutCapability(GraduateCapabilityMapping{ULOID: uloID, CapabilityCode: code, UpdatedAt: now})
}

// RemoveCapability records a user's removal of a capability from a ULO.
func (s *MappingSet) RemoveCapability(uloID uuid.UUID, code string, now time.Time) {
	s.PutCapability(GraduateCapabilityMapping{
		ULOID:          uloID,
		CapabilityCode: code,
		Dismissed:      true,
		UpdatedAt:      now,
	})
}
