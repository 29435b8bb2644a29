package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/service"
)

// UnitHandler serves the editing endpoints of units and their content.
type UnitHandler struct {
	units  service.UnitService
	logger *slog.Logger
}

// NewUnitHandler creates a new UnitHandler.
func NewUnitHandler(units service.UnitService, logger *slog.Logger) *UnitHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UnitHandler")
	}
	return &UnitHandler{
		units:  units,
		logger: logger.With(slog.String("component", "unit_handler")),
	}
}

// CreateUnit handles POST /units.
func (h *UnitHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	unit, err := h.units.CreateUnit(r.Context(), req.Code, req.Title, req.DurationWeeks)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create unit")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("unit created",
		slog.String("unit_id", unit.ID.String()),
		slog.String("code", unit.Code))
	shared.RespondWithJSON(w, r, http.StatusCreated, unit)
}

// GetUnit handles GET /units/{unitID}. It returns the full snapshot.
func (h *UnitHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}

	snap, err := h.units.GetSnapshot(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get unit")
		return
	}

	if snap.Mappings != nil {
		setVersion(w, snap.Mappings.Version)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToResponse(snap))
}

// AddULO handles POST /units/{unitID}/ulos.
func (h *UnitHandler) AddULO(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	var req CreateULORequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ulo, err := h.units.AddULO(r.Context(), ids[0], service.ULOParams{
		Code:        req.Code,
		Description: req.Description,
		BloomLevel:  domain.BloomLevel(req.BloomLevel),
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add ULO")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, ulo)
}

// DeleteULO handles DELETE /units/{unitID}/ulos/{uloID}.
func (h *UnitHandler) DeleteULO(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID", "uloID")
	if !ok {
		return
	}
	if err := h.units.DeleteULO(r.Context(), ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete ULO")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMaterial handles POST /units/{unitID}/materials.
func (h *UnitHandler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	var req CreateMaterialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	material, err := h.units.AddMaterial(r.Context(), ids[0], service.MaterialParams{
		Title:           req.Title,
		WeekNumber:      req.WeekNumber,
		Type:            domain.MaterialType(req.Type),
		DurationMinutes: req.DurationMinutes,
		OrderIndex:      req.OrderIndex,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add material")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, material)
}

// UpdateMaterialStatus handles PATCH /units/{unitID}/materials/{materialID}/status.
func (h *UnitHandler) UpdateMaterialStatus(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID", "materialID")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	material, err := h.units.UpdateMaterialStatus(r.Context(), ids[0], ids[1], domain.ContentStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update material")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, material)
}

// DeleteMaterial handles DELETE /units/{unitID}/materials/{materialID}.
func (h *UnitHandler) DeleteMaterial(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID", "materialID")
	if !ok {
		return
	}
	if err := h.units.DeleteMaterial(r.Context(), ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete material")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAssessment handles POST /units/{unitID}/assessments.
func (h *UnitHandler) AddAssessment(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	var req CreateAssessmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assessment, err := h.units.AddAssessment(r.Context(), ids[0], domain.AssessmentParams{
		Title:           req.Title,
		Type:            domain.AssessmentType(req.Type),
		Category:        domain.AssessmentCategory(req.Category),
		Weight:          req.Weight,
		ReleaseWeek:     req.ReleaseWeek,
		DueWeek:         req.DueWeek,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add assessment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, assessment)
}

// UpdateAssessmentStatus handles PATCH /units/{unitID}/assessments/{assessmentID}/status.
func (h *UnitHandler) UpdateAssessmentStatus(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID", "assessmentID")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	assessment, err := h.units.UpdateAssessmentStatus(r.Context(), ids[0], ids[1], domain.ContentStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update assessment")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, assessment)
}

// DeleteAssessment handles DELETE /units/{unitID}/assessments/{assessmentID}.
func (h *UnitHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID", "assessmentID")
	if !ok {
		return
	}
	if err := h.units.DeleteAssessment(r.Context(), ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "Failed to delete assessment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddOutcome handles POST /units/{unitID}/outcomes.
func (h *UnitHandler) AddOutcome(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	var req CreateOutcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.units.AddOutcome(r.Context(), ids[0], service.OutcomeParams{
		OwnerKind:   domain.OutcomeOwner(req.OwnerKind),
		OwnerID:     uuid.MustParse(req.OwnerID),
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add outcome")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, outcome)
}

type linkFunc func(ctx context.Context, unitID, uloID, childID uuid.UUID) error

// serveLink runs a link or unlink between a ULO and the entity named by the
// childParam path parameter.
func (h *UnitHandler) serveLink(w http.ResponseWriter, r *http.Request, childParam, fallback string, fn linkFunc) {
	ids, ok := pathUUIDs(w, r, "unitID", "uloID", childParam)
	if !ok {
		return
	}
	if err := fn(r.Context(), ids[0], ids[1], ids[2]); err != nil {
		HandleAPIError(w, r, err, fallback)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LinkMaterial handles PUT /units/{unitID}/ulos/{uloID}/materials/{materialID}.
func (h *UnitHandler) LinkMaterial(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, "materialID", "Failed to link material", h.units.LinkMaterial)
}

// UnlinkMaterial handles DELETE /units/{unitID}/ulos/{uloID}/materials/{materialID}.
func (h *UnitHandler) UnlinkMaterial(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, "materialID", "Failed to unlink material", h.units.UnlinkMaterial)
}

// LinkAssessment handles PUT /units/{unitID}/ulos/{uloID}/assessments/{assessmentID}.
func (h *UnitHandler) LinkAssessment(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, "assessmentID", "Failed to link assessment", h.units.LinkAssessment)
}

// UnlinkAssessment handles DELETE /units/{unitID}/ulos/{uloID}/assessments/{assessmentID}.
func (h *UnitHandler) UnlinkAssessment(w http.ResponseWriter, r *http.Request) {
	h.serveLink(w, r, "assessmentID", "Failed to unlink assessment", h.units.UnlinkAssessment)
}
