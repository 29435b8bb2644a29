package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/analysis"
	"github.com/phrazzld/curriculum-api/internal/domain/mapping"
	"github.com/phrazzld/curriculum-api/internal/domain/suggest"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
	"github.com/phrazzld/curriculum-api/internal/events"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/store"
)

var tracer = otel.Tracer("github.com/phrazzld/curriculum-api/internal/service")

const alignmentServiceName = "alignment"

// ULOCapabilities are the ranked capability candidates of one ULO.
type ULOCapabilities struct {
	ULOID      uuid.UUID           `json:"ulo_id"`
	Code       string              `json:"code"`
	Candidates []suggest.Candidate `json:"candidates"`
}

// SuggestionPreview is what an apply would consider, without persisting
// anything. Goals and capabilities are already cut to the configured top-N.
type SuggestionPreview struct {
	UnitID       uuid.UUID           `json:"unit_id"`
	Competencies []suggest.Candidate `json:"competencies"`
	Goals        []suggest.Candidate `json:"goals"`
	Capabilities []ULOCapabilities   `json:"capabilities"`
}

// ApplyResult is the outcome of merging suggestions into a unit's mappings.
type ApplyResult struct {
	Mappings *domain.MappingSet `json:"-"`
	Report   mapping.Report     `json:"report"`
	// Version is the mapping version after the apply. It is unchanged when
	// the merge filled nothing.
	Version int64 `json:"version"`
}

// ReportBundle holds every report of a unit computed from one snapshot.
type ReportBundle struct {
	UnitID    uuid.UUID                  `json:"unit_id"`
	Alignment analysis.AlignmentReport   `json:"alignment"`
	Grades    analysis.GradeDistribution `json:"grades"`
	Quality   analysis.QualityScore      `json:"quality"`
	Workload  []analysis.WeeklyWorkload  `json:"workload"`
}

// AlignmentService owns the taxonomy mappings of units and the reports
// derived from them.
type AlignmentService interface {
	// Catalog returns the reference catalog of the given kind.
	Catalog(kind taxonomy.Kind) (*taxonomy.Catalog, error)

	// SuggestTexts scores raw texts without touching any unit.
	SuggestTexts(texts []string, signals suggest.Signals) suggest.Result

	// GetMappings returns the unit's mapping set, dismissed records included.
	GetMappings(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error)

	// PreviewSuggestions builds the corpus from the unit and returns the
	// ranked candidates without persisting.
	PreviewSuggestions(ctx context.Context, unitID uuid.UUID) (*SuggestionPreview, error)

	// ApplySuggestions merges fresh suggestions into the unit's mappings and
	// persists the result in one transaction. A non-nil expectedVersion must
	// match the stored version or a ConflictError is returned.
	ApplySuggestions(ctx context.Context, unitID uuid.UUID, expectedVersion *int64) (*ApplyResult, error)

	// RequestSuggestions schedules ApplySuggestions in the background and
	// returns the ID of the task that will run it.
	RequestSuggestions(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error)

	SetCompetencyLevel(
		ctx context.Context,
		unitID uuid.UUID,
		code string,
		level domain.ProficiencyLevel,
		expectedVersion *int64,
	) (*domain.MappingSet, error)
	ClearCompetency(ctx context.Context, unitID uuid.UUID, code string, expectedVersion *int64) (*domain.MappingSet, error)
	SelectGoal(ctx context.Context, unitID uuid.UUID, code string, expectedVersion *int64) (*domain.MappingSet, error)
	RemoveGoal(ctx context.Context, unitID uuid.UUID, code string, expectedVersion *int64) (*domain.MappingSet, error)
	SelectCapability(
		ctx context.Context,
		unitID, uloID uuid.UUID,
		code string,
		expectedVersion *int64,
	) (*domain.MappingSet, error)
	RemoveCapability(
		ctx context.Context,
		unitID, uloID uuid.UUID,
		code string,
		expectedVersion *int64,
	) (*domain.MappingSet, error)

	// Reports computes every report of the unit concurrently from one snapshot.
	Reports(ctx context.Context, unitID uuid.UUID) (*ReportBundle, error)
	AlignmentReport(ctx context.Context, unitID uuid.UUID) (*analysis.AlignmentReport, error)
	GradeDistribution(ctx context.Context, unitID uuid.UUID) (*analysis.GradeDistribution, error)
	QualityScore(ctx context.Context, unitID uuid.UUID) (*analysis.QualityScore, error)
	// WeeklyWorkload rejects a week outside the unit's duration with a
	// ValidationError.
	WeeklyWorkload(ctx context.Context, unitID uuid.UUID, week int) (*analysis.WeeklyWorkload, error)
}

// alignmentServiceImpl implements the AlignmentService interface
type alignmentServiceImpl struct {
	db       *sql.DB
	units    store.UnitStore
	mappings store.MappingStore
	catalogs *taxonomy.Registry
	engine   suggest.Service
	analyzer analysis.Analyzer
	locker   UnitLocker
	emitter  events.EventEmitter
	logger   *slog.Logger
	now      func() time.Time
}

// AlignmentDeps groups the collaborators of an AlignmentService.
type AlignmentDeps struct {
	DB       *sql.DB
	Units    store.UnitStore
	Mappings store.MappingStore
	Catalogs *taxonomy.Registry
	Engine   suggest.Service
	Analyzer analysis.Analyzer
	Locker   UnitLocker
	Emitter  events.EventEmitter
}

// NewAlignmentService creates a new AlignmentService.
// It returns an error if any of the required dependencies are nil. Engine and
// Analyzer default to the standard implementations.
func NewAlignmentService(deps AlignmentDeps, logger *slog.Logger) (AlignmentService, error) {
	switch {
	case deps.DB == nil:
		return nil, domain.NewValidationError("db", "cannot be nil")
	case deps.Units == nil:
		return nil, domain.NewValidationError("units", "cannot be nil")
	case deps.Mappings == nil:
		return nil, domain.NewValidationError("mappings", "cannot be nil")
	case deps.Catalogs == nil:
		return nil, domain.NewValidationError("catalogs", "cannot be nil")
	case deps.Locker == nil:
		return nil, domain.NewValidationError("locker", "cannot be nil")
	case deps.Emitter == nil:
		return nil, domain.NewValidationError("emitter", "cannot be nil")
	}

	if deps.Engine == nil {
		deps.Engine = suggest.NewService(deps.Catalogs)
	}
	if deps.Analyzer == nil {
		deps.Analyzer = analysis.NewDefaultAnalyzer()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &alignmentServiceImpl{
		db:       deps.DB,
		units:    deps.Units,
		mappings: deps.Mappings,
		catalogs: deps.Catalogs,
		engine:   deps.Engine,
		analyzer: deps.Analyzer,
		locker:   deps.Locker,
		emitter:  deps.Emitter,
		logger:   logger.With(slog.String("component", "alignment_service")),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *alignmentServiceImpl) log(ctx context.Context, unitID uuid.UUID) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger).With(slog.String("unit_id", unitID.String()))
}

func startSpan(ctx context.Context, name string, unitID uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "AlignmentService."+name,
		trace.WithAttributes(attribute.String("unit_id", unitID.String())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Catalog implements AlignmentService.Catalog
func (s *alignmentServiceImpl) Catalog(kind taxonomy.Kind) (*taxonomy.Catalog, error) {
	return s.catalogs.Catalog(kind)
}

// SuggestTexts implements AlignmentService.SuggestTexts
func (s *alignmentServiceImpl) SuggestTexts(texts []string, signals suggest.Signals) suggest.Result {
	return s.engine.Suggest(texts, signals)
}

// GetMappings implements AlignmentService.GetMappings
func (s *alignmentServiceImpl) GetMappings(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error) {
	set, err := s.mappings.GetMappings(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "get_mappings", "failed to load mappings",
			translateStoreError(err, "unit", unitID.String()))
	}
	return set, nil
}

// snapshot reads a validated snapshot of the unit in its own transaction.
func (s *alignmentServiceImpl) snapshot(ctx context.Context, unitID uuid.UUID) (*domain.UnitSnapshot, error) {
	var snap *domain.UnitSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, s.units.WithTx(tx), s.mappings.WithTx(tx), unitID)
		return err
	})
	return snap, err
}

// suggestFor runs the engine over a snapshot. Goals and capabilities are cut
// to the configured top-N.
func (s *alignmentServiceImpl) suggestFor(snap *domain.UnitSnapshot) *SuggestionPreview {
	topN := s.engine.Params().TopN
	texts := snap.ULODescriptions()

	preview := &SuggestionPreview{
		UnitID:       snap.Unit.ID,
		Competencies: s.engine.SuggestCompetencies(texts, suggest.SignalsFromSnapshot(snap)),
		Goals:        suggest.Top(s.engine.SuggestGoals(texts), topN),
		Capabilities: make([]ULOCapabilities, 0, len(snap.ULOs)),
	}
	for _, ulo := range snap.ULOs {
		preview.Capabilities = append(preview.Capabilities, ULOCapabilities{
			ULOID:      ulo.ID,
			Code:       ulo.Code,
			Candidates: suggest.Top(s.engine.SuggestCapabilities(ulo.Description), topN),
		})
	}
	return preview
}

func (p *SuggestionPreview) toSuggested() mapping.Suggested {
	var out mapping.Suggested
	for _, c := range p.Competencies {
		out.Competencies = append(out.Competencies, mapping.CompetencySuggestion{Code: c.Code, Level: c.Level})
	}
	for _, g := range p.Goals {
		out.Goals = append(out.Goals, g.Code)
	}
	for _, uc := range p.Capabilities {
		for _, c := range uc.Candidates {
			out.Capabilities = append(out.Capabilities, mapping.CapabilitySuggestion{ULOID: uc.ULOID, Code: c.Code})
		}
	}
	return out
}

// PreviewSuggestions implements AlignmentService.PreviewSuggestions
func (s *alignmentServiceImpl) PreviewSuggestions(ctx context.Context, unitID uuid.UUID) (_ *SuggestionPreview, err error) {
	ctx, span := startSpan(ctx, "PreviewSuggestions", unitID)
	defer func() { endSpan(span, err) }()

	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "preview_suggestions", "failed to load unit", err)
	}
	return s.suggestFor(snap), nil
}

// ApplySuggestions implements AlignmentService.ApplySuggestions
// The fetch, merge and persist steps run under the unit lock and inside one
// transaction; the version read at the start guards the write.
func (s *alignmentServiceImpl) ApplySuggestions(
	ctx context.Context,
	unitID uuid.UUID,
	expectedVersion *int64,
) (_ *ApplyResult, err error) {
	ctx, span := startSpan(ctx, "ApplySuggestions", unitID)
	defer func() { endSpan(span, err) }()

	log := s.log(ctx, unitID)

	release, err := lockUnit(ctx, s.locker, unitID)
	if err != nil {
		log.Warn("unit lock not acquired", slog.String("error", err.Error()))
		return nil, err
	}
	defer release()

	var result *ApplyResult
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		units := s.units.WithTx(tx)
		mappings := s.mappings.WithTx(tx)

		snap, err := loadSnapshot(ctx, units, mappings, unitID)
		if err != nil {
			return err
		}
		if err := checkVersion(snap.Mappings, expectedVersion); err != nil {
			return err
		}

		merged, report := mapping.MergeSuggestions(snap.Mappings, s.suggestFor(snap).toSuggested(), s.now())
		result = &ApplyResult{Mappings: merged, Report: report, Version: merged.Version}
		if !report.Changed() {
			return nil
		}

		version, err := mappings.SaveMappings(ctx, merged)
		if err != nil {
			return translateStoreError(err, "unit", unitID.String())
		}
		merged.Version = version
		result.Version = version
		return nil
	})
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "apply_suggestions", "failed to apply suggestions", err)
	}

	span.SetAttributes(
		attribute.Int("filled", len(result.Report.Filled)),
		attribute.Int("preserved", len(result.Report.Preserved)),
		attribute.Int64("version", result.Version))
	log.Info("suggestions applied",
		slog.Int("filled", len(result.Report.Filled)),
		slog.Int("preserved", len(result.Report.Preserved)),
		slog.Int64("version", result.Version))
	return result, nil
}

func checkVersion(set *domain.MappingSet, expected *int64) error {
	if expected != nil && *expected != set.Version {
		return &domain.ConflictError{
			UnitID:          set.UnitID,
			ExpectedVersion: *expected,
			ActualVersion:   set.Version,
		}
	}
	return nil
}

// RequestSuggestions implements AlignmentService.RequestSuggestions
// The event ID becomes the ID of the background task.
func (s *alignmentServiceImpl) RequestSuggestions(ctx context.Context, unitID uuid.UUID) (uuid.UUID, error) {
	if _, err := getUnit(ctx, s.units, unitID); err != nil {
		return uuid.Nil, err
	}

	event, err := events.NewUnitSuggestionEvent(unitID)
	if err != nil {
		return uuid.Nil, NewServiceError(alignmentServiceName, "request_suggestions", "failed to build event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx, unitID).Error("failed to emit suggestion event", slog.String("error", err.Error()))
		return uuid.Nil, NewServiceError(alignmentServiceName, "request_suggestions", "failed to schedule task", err)
	}

	s.log(ctx, unitID).Info("suggestion run requested", slog.String("task_id", event.ID.String()))
	return event.ID, nil
}

// editMappings applies a user edit under the unit lock. fn receives the
// current set and the unit's stores bound to the transaction.
func (s *alignmentServiceImpl) editMappings(
	ctx context.Context,
	op string,
	unitID uuid.UUID,
	expectedVersion *int64,
	fn func(ctx context.Context, units store.UnitStore, set *domain.MappingSet) error,
) (_ *domain.MappingSet, err error) {
	ctx, span := startSpan(ctx, op, unitID)
	defer func() { endSpan(span, err) }()

	release, err := lockUnit(ctx, s.locker, unitID)
	if err != nil {
		return nil, err
	}
	defer release()

	var set *domain.MappingSet
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		mappings := s.mappings.WithTx(tx)

		current, err := mappings.GetMappings(ctx, unitID)
		if err != nil {
			return translateStoreError(err, "unit", unitID.String())
		}
		if err := checkVersion(current, expectedVersion); err != nil {
			return err
		}
		if err := fn(ctx, s.units.WithTx(tx), current); err != nil {
			return err
		}

		version, err := mappings.SaveMappings(ctx, current)
		if err != nil {
			return translateStoreError(err, "unit", unitID.String())
		}
		current.Version = version
		set = current
		return nil
	})
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, op, "failed to update mappings", err)
	}

	s.log(ctx, unitID).Info("mappings updated", slog.String("operation", op), slog.Int64("version", set.Version))
	return set, nil
}

func (s *alignmentServiceImpl) requireCode(kind taxonomy.Kind, code string) error {
	_, err := s.catalogs.Lookup(kind, code)
	return err
}

// SetCompetencyLevel implements AlignmentService.SetCompetencyLevel
func (s *alignmentServiceImpl) SetCompetencyLevel(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	level domain.ProficiencyLevel,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindCompetency, code); err != nil {
		return nil, err
	}
	if !level.IsValid() {
		return nil, domain.NewValidationError("level", fmt.Sprintf("must be I, R or M, got %q", level))
	}
	return s.editMappings(ctx, "SetCompetencyLevel", unitID, expectedVersion,
		func(_ context.Context, _ store.UnitStore, set *domain.MappingSet) error {
			return set.SetCompetencyLevel(code, level, s.now())
		})
}

// ClearCompetency implements AlignmentService.ClearCompetency
func (s *alignmentServiceImpl) ClearCompetency(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindCompetency, code); err != nil {
		return nil, err
	}
	return s.editMappings(ctx, "ClearCompetency", unitID, expectedVersion,
		func(_ context.Context, _ store.UnitStore, set *domain.MappingSet) error {
			set.ClearCompetency(code, s.now())
			return nil
		})
}

// SelectGoal implements AlignmentService.SelectGoal
func (s *alignmentServiceImpl) SelectGoal(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindSDG, code); err != nil {
		return nil, err
	}
	return s.editMappings(ctx, "SelectGoal", unitID, expectedVersion,
		func(_ context.Context, _ store.UnitStore, set *domain.MappingSet) error {
			set.SelectGoal(code, s.now())
			return nil
		})
}

// RemoveGoal implements AlignmentService.RemoveGoal
func (s *alignmentServiceImpl) RemoveGoal(
	ctx context.Context,
	unitID uuid.UUID,
	code string,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindSDG, code); err != nil {
		return nil, err
	}
	return s.editMappings(ctx, "RemoveGoal", unitID, expectedVersion,
		func(_ context.Context, _ store.UnitStore, set *domain.MappingSet) error {
			set.RemoveGoal(code, s.now())
			return nil
		})
}

// SelectCapability implements AlignmentService.SelectCapability
func (s *alignmentServiceImpl) SelectCapability(
	ctx context.Context,
	unitID, uloID uuid.UUID,
	code string,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindGraduateCapability, code); err != nil {
		return nil, err
	}
	return s.editMappings(ctx, "SelectCapability", unitID, expectedVersion,
		func(ctx context.Context, units store.UnitStore, set *domain.MappingSet) error {
			if err := requireULOIn(ctx, units, unitID, uloID); err != nil {
				return err
			}
			set.SelectCapability(uloID, code, s.now())
			return nil
		})
}

// RemoveCapability implements AlignmentService.RemoveCapability
func (s *alignmentServiceImpl) RemoveCapability(
	ctx context.Context,
	unitID, uloID uuid.UUID,
	code string,
	expectedVersion *int64,
) (*domain.MappingSet, error) {
	if err := s.requireCode(taxonomy.KindGraduateCapability, code); err != nil {
		return nil, err
	}
	return s.editMappings(ctx, "RemoveCapability", unitID, expectedVersion,
		func(ctx context.Context, units store.UnitStore, set *domain.MappingSet) error {
			if err := requireULOIn(ctx, units, unitID, uloID); err != nil {
				return err
			}
			set.RemoveCapability(uloID, code, s.now())
			return nil
		})
}

func requireULOIn(ctx context.Context, units store.UnitStore, unitID, uloID uuid.UUID) error {
	ulos, err := units.ListULOs(ctx, unitID)
	if err != nil {
		return translateStoreError(err, "unit", unitID.String())
	}
	if findULO(ulos, uloID) == nil {
		return domain.NewNotFoundError("ulo", uloID.String())
	}
	return nil
}

// Reports implements AlignmentService.Reports
func (s *alignmentServiceImpl) Reports(ctx context.Context, unitID uuid.UUID) (_ *ReportBundle, err error) {
	ctx, span := startSpan(ctx, "Reports", unitID)
	defer func() { endSpan(span, err) }()

	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "reports", "failed to load unit", err)
	}

	bundle := &ReportBundle{UnitID: unitID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bundle.Alignment = s.analyzer.AlignmentReport(snap)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bundle.Grades = s.analyzer.GradeDistribution(snap)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bundle.Quality = s.analyzer.QualityScore(snap)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		bundle.Workload = s.analyzer.AllWeeks(snap)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return bundle, nil
}

// AlignmentReport implements AlignmentService.AlignmentReport
func (s *alignmentServiceImpl) AlignmentReport(ctx context.Context, unitID uuid.UUID) (*analysis.AlignmentReport, error) {
	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "alignment_report", "failed to load unit", err)
	}
	report := s.analyzer.AlignmentReport(snap)
	return &report, nil
}

// GradeDistribution implements AlignmentService.GradeDistribution
func (s *alignmentServiceImpl) GradeDistribution(
	ctx context.Context,
	unitID uuid.UUID,
) (*analysis.GradeDistribution, error) {
	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "grade_distribution", "failed to load unit", err)
	}
	report := s.analyzer.GradeDistribution(snap)
	return &report, nil
}

// QualityScore implements AlignmentService.QualityScore
func (s *alignmentServiceImpl) QualityScore(ctx context.Context, unitID uuid.UUID) (*analysis.QualityScore, error) {
	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "quality_score", "failed to load unit", err)
	}
	report := s.analyzer.QualityScore(snap)
	return &report, nil
}

// WeeklyWorkload implements AlignmentService.WeeklyWorkload
func (s *alignmentServiceImpl) WeeklyWorkload(
	ctx context.Context,
	unitID uuid.UUID,
	week int,
) (*analysis.WeeklyWorkload, error) {
	snap, err := s.snapshot(ctx, unitID)
	if err != nil {
		return nil, NewServiceError(alignmentServiceName, "weekly_workload", "failed to load unit", err)
	}
	if !snap.Unit.ContainsWeek(week) {
		return nil, domain.NewValidationError("week",
			fmt.Sprintf("must be between 1 and %d", snap.Unit.DurationWeeks))
	}
	report := s.analyzer.WeeklyWorkload(snap, week)
	return &report, nil
}
