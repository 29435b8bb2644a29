package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/api/shared"
	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/suggest"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/service"
)

// AlignmentHandler serves catalogs, suggestions, mapping edits and reports.
type AlignmentHandler struct {
	alignment service.AlignmentService
	logger    *slog.Logger
}

// NewAlignmentHandler creates a new AlignmentHandler.
func NewAlignmentHandler(alignment service.AlignmentService, logger *slog.Logger) *AlignmentHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AlignmentHandler")
	}
	return &AlignmentHandler{
		alignment: alignment,
		logger:    logger.With(slog.String("component", "alignment_handler")),
	}
}

// GetCatalog handles GET /catalogs/{kind}.
func (h *AlignmentHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	kind, err := taxonomy.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	catalog, err := h.alignment.Catalog(kind)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get catalog")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CatalogResponse{
		Kind:    catalog.Kind(),
		Entries: catalog.Entries(),
	})
}

// SuggestTexts handles POST /suggestions. It scores free texts without
// touching any unit.
func (h *AlignmentHandler) SuggestTexts(w http.ResponseWriter, r *http.Request) {
	var req SuggestTextsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	signals := suggest.Signals{AssessmentCategories: req.AssessmentCategories}
	for _, b := range req.BloomLevels {
		signals.BloomLevels = append(signals.BloomLevels, domain.BloomLevel(b))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.alignment.SuggestTexts(req.Texts, signals))
}

// GetMappings handles GET /units/{unitID}/mappings.
func (h *AlignmentHandler) GetMappings(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	set, err := h.alignment.GetMappings(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get mappings")
		return
	}
	setVersion(w, set.Version)
	shared.RespondWithJSON(w, r, http.StatusOK, mappingsToResponse(set))
}

// mappingEdit performs one user edit of a unit's mappings.
type mappingEdit func(ctx context.Context, unitID uuid.UUID, expected *int64) (*domain.MappingSet, error)

// serveEdit parses the unit ID and the If-Match version, runs edit and
// writes the resulting mapping table.
func (h *AlignmentHandler) serveEdit(w http.ResponseWriter, r *http.Request, op string, edit mappingEdit) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	expected, err := expectedVersion(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	set, err := edit(r.Context(), ids[0], expected)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update mappings")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("mappings edited",
		slog.String("operation", op),
		slog.String("unit_id", ids[0].String()),
		slog.Int64("version", set.Version))
	setVersion(w, set.Version)
	shared.RespondWithJSON(w, r, http.StatusOK, mappingsToResponse(set))
}

// SetCompetency handles PUT /units/{unitID}/mappings/competencies/{code}.
func (h *AlignmentHandler) SetCompetency(w http.ResponseWriter, r *http.Request) {
	var req SetCompetencyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "set_competency", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.SetCompetencyLevel(ctx, unitID, code, domain.ProficiencyLevel(req.Level), ev)
	})
}

// ClearCompetency handles DELETE /units/{unitID}/mappings/competencies/{code}.
func (h *AlignmentHandler) ClearCompetency(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "clear_competency", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.ClearCompetency(ctx, unitID, code, ev)
	})
}

// SelectGoal handles PUT /units/{unitID}/mappings/sdgs/{code}.
func (h *AlignmentHandler) SelectGoal(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "select_goal", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.SelectGoal(ctx, unitID, code, ev)
	})
}

// RemoveGoal handles DELETE /units/{unitID}/mappings/sdgs/{code}.
func (h *AlignmentHandler) RemoveGoal(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "remove_goal", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.RemoveGoal(ctx, unitID, code, ev)
	})
}

// SelectCapability handles PUT /units/{unitID}/ulos/{uloID}/capabilities/{code}.
func (h *AlignmentHandler) SelectCapability(w http.ResponseWriter, r *http.Request) {
	uloID, err := getPathUUID(r, "uloID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "select_capability", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.SelectCapability(ctx, unitID, uloID, code, ev)
	})
}

// RemoveCapability handles DELETE /units/{unitID}/ulos/{uloID}/capabilities/{code}.
func (h *AlignmentHandler) RemoveCapability(w http.ResponseWriter, r *http.Request) {
	uloID, err := getPathUUID(r, "uloID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	code := chi.URLParam(r, "code")
	h.serveEdit(w, r, "remove_capability", func(ctx context.Context, unitID uuid.UUID, ev *int64) (*domain.MappingSet, error) {
		return h.alignment.RemoveCapability(ctx, unitID, uloID, code, ev)
	})
}

// PreviewSuggestions handles POST /units/{unitID}/suggestions/preview.
func (h *AlignmentHandler) PreviewSuggestions(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	preview, err := h.alignment.PreviewSuggestions(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute suggestions")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, preview)
}

// ApplySuggestions handles POST /units/{unitID}/suggestions/apply. With
// ?async=true the apply is scheduled and 202 is returned with the task ID;
// otherwise the merge runs now, guarded by If-Match when present.
func (h *AlignmentHandler) ApplySuggestions(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, "unitID")
	if !ok {
		return
	}
	unitID := ids[0]

	async, err := queryBool(r, "async")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if async {
		taskID, err := h.alignment.RequestSuggestions(r.Context(), unitID)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to schedule suggestions")
			return
		}
		shared.RespondWithJSON(w, r, http.StatusAccepted, TaskAcceptedResponse{
			TaskID: taskID,
			UnitID: unitID,
			Status: "pending",
		})
		return
	}

	expected, err := expectedVersion(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	result, err := h.alignment.ApplySuggestions(r.Context(), unitID, expected)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to apply suggestions")
		return
	}

	setVersion(w, result.Version)
	shared.RespondWithJSON(w, r, http.StatusOK, ApplyResponse{
		Version:  result.Version,
		Report:   result.Report,
		Mappings: mappingsToResponse(result.Mappings),
	})
}

// report adapts a per-unit report computation to a handler.
func report[T any](fallback string, compute func(ctx context.Context, unitID uuid.UUID) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, ok := pathUUIDs(w, r, "unitID")
		if !ok {
			return
		}
		out, err := compute(r.Context(), ids[0])
		if err != nil {
			HandleAPIError(w, r, err, fallback)
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, out)
	}
}

// Reports handles GET /units/{unitID}/reports.
func (h *AlignmentHandler) Reports(w http.ResponseWriter, r *http.Request) {
	report("Failed to compute reports", h.alignment.Reports)(w, r)
}

// AlignmentReport handles GET /units/{unitID}/reports/alignment.
func (h *AlignmentHandler) AlignmentReport(w http.ResponseWriter, r *http.Request) {
	report("Failed to compute alignment report", h.alignment.AlignmentReport)(w, r)
}

// GradeDistribution handles GET /units/{unitID}/reports/grades.
func (h *AlignmentHandler) GradeDistribution(w http.ResponseWriter, r *http.Request) {
	report("Failed to compute grade distribution", h.alignment.GradeDistribution)(w, r)
}

// QualityScore handles GET /units/{unitID}/reports/quality.
func (h *AlignmentHandler) QualityScore(w http.ResponseWriter, r *http.Request) {
	report("Failed to compute quality score", h.alignment.QualityScore)(w, r)
}

// WeeklyWorkload handles GET /units/{unitID}/reports/workload?week=N.
func (h *AlignmentHandler) WeeklyWorkload(w http.ResponseWriter, r *http.Request) {
	week, err := queryInt(r, "week")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	report("Failed to compute workload", func(ctx context.Context, unitID uuid.UUID) (any, error) {
		return h.alignment.WeeklyWorkload(ctx, unitID, week)
	})(w, r)
}
