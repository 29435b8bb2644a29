package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/redact"
	"github.com/phrazzld/curriculum-api/internal/store"
)

// PostgresMappingStore implements store.MappingStore on PostgreSQL. The
// units.mapping_version column is the optimistic concurrency token.
type PostgresMappingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMappingStore creates a new PostgreSQL implementation of the MappingStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresMappingStore(db store.DBTX, logger *slog.Logger) *PostgresMappingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMappingStore{
		db:     db,
		logger: logger.With(slog.String("component", "mapping_store")),
	}
}

var _ store.MappingStore = (*PostgresMappingStore)(nil)

// WithTx implements store.MappingStore.WithTx
func (s *PostgresMappingStore) WithTx(tx *sql.Tx) store.MappingStore {
	return &PostgresMappingStore{db: tx, logger: s.logger}
}

// GetMappings implements store.MappingStore.GetMappings
func (s *PostgresMappingStore) GetMappings(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	version, err := s.currentVersion(ctx, unitID)
	if err != nil {
		return nil, err
	}

	set := domain.NewMappingSet(unitID, version)

	if err := s.loadCompetencies(ctx, set); err != nil {
		log.Error("failed to load competency mappings",
			slog.String("error", redact.Error(err)),
			slog.String("unit_id", unitID.String()))
		return nil, store.NewStoreError("aol_mapping", "list", "query failed", MapError(err))
	}
	if err := s.loadGoals(ctx, set); err != nil {
		log.Error("failed to load goal mappings",
			slog.String("error", redact.Error(err)),
			slog.String("unit_id", unitID.String()))
		return nil, store.NewStoreError("sdg_mapping", "list", "query failed", MapError(err))
	}
	if err := s.loadCapabilities(ctx, set); err != nil {
		log.Error("failed to load capability mappings",
			slog.String("error", redact.Error(err)),
			slog.String("unit_id", unitID.String()))
		return nil, store.NewStoreError("graduate_capability_mapping", "list", "query failed", MapError(err))
	}

	log.Debug("loaded mappings",
		slog.String("unit_id", unitID.String()),
		slog.Int64("version", version))
	return set, nil
}

// SaveMappings implements store.MappingStore.SaveMappings
func (s *PostgresMappingStore) SaveMappings(ctx context.Context, set *domain.MappingSet) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("unit_id", set.UnitID.String()))

	var next int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE units
		SET mapping_version = mapping_version + 1, updated_at = $3
		WHERE id = $1 AND mapping_version = $2
		RETURNING mapping_version
	`, set.UnitID, set.Version, time.Now().UTC()).Scan(&next)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to bump mapping version", slog.String("error", redact.Error(err)))
			return 0, store.NewStoreError("unit", "update", "version bump failed", MapError(err))
		}
		actual, verr := s.currentVersion(ctx, set.UnitID)
		if verr != nil {
			return 0, verr
		}
		log.Warn("mapping version mismatch",
			slog.Int64("expected", set.Version),
			slog.Int64("actual", actual))
		return 0, &store.VersionMismatchError{UnitID: set.UnitID, Expected: set.Version, Actual: actual}
	}

	for _, m := range set.Competencies() {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO aol_mappings (unit_id, competency_code, level, is_ai_suggested, dismissed, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (unit_id, competency_code) DO UPDATE
			SET level = EXCLUDED.level,
				is_ai_suggested = EXCLUDED.is_ai_suggested,
				dismissed = EXCLUDED.dismissed,
				updated_at = EXCLUDED.updated_at
		`, set.UnitID, m.CompetencyCode, m.Level, m.IsAISuggested, m.Dismissed, m.UpdatedAt); err != nil {
			log.Error("failed to upsert competency mapping",
				slog.String("error", redact.Error(err)),
				slog.String("code", m.CompetencyCode))
			return 0, store.NewStoreError("aol_mapping", "save", "upsert failed", MapError(err))
		}
	}

	for _, m := range set.Goals() {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO sdg_mappings (unit_id, sdg_code, is_ai_suggested, dismissed, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (unit_id, sdg_code) DO UPDATE
			SET is_ai_suggested = EXCLUDED.is_ai_suggested,
				dismissed = EXCLUDED.dismissed,
				updated_at = EXCLUDED.updated_at
		`, set.UnitID, m.SDGCode, m.IsAISuggested, m.Dismissed, m.UpdatedAt); err != nil {
			log.Error("failed to upsert goal mapping",
				slog.String("error", redact.Error(err)),
				slog.String("code", m.SDGCode))
			return 0, store.NewStoreError("sdg_mapping", "save", "upsert failed", MapError(err))
		}
	}

	for _, m := range set.Capabilities() {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO graduate_capability_mappings (ulo_id, capability_code, is_ai_suggested, dismissed, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ulo_id, capability_code) DO UPDATE
			SET is_ai_suggested = EXCLUDED.is_ai_suggested,
				dismissed = EXCLUDED.dismissed,
				updated_at = EXCLUDED.updated_at
		`, m.ULOID, m.CapabilityCode, m.IsAISuggested, m.Dismissed, m.UpdatedAt); err != nil {
			log.Error("failed to upsert capability mapping",
				slog.String("error", redact.Error(err)),
				slog.String("ulo_id", m.ULOID.String()),
				slog.String("code", m.CapabilityCode))
			return 0, store.NewStoreError("graduate_capability_mapping", "save", "upsert failed", MapError(err))
		}
	}

	log.Info("mappings saved", slog.Int64("version", next))
	return next, nil
}

func (s *PostgresMappingStore) currentVersion(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT mapping_version FROM units WHERE id = $1`, unitID).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrUnitNotFound
		}
		return 0, store.NewStoreError("unit", "get", "version query failed", MapError(err))
	}
	return version, nil
}

func (s *PostgresMappingStore) loadCompetencies(ctx context.Context, set *domain.MappingSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT competency_code, level, is_ai_suggested, dismissed, updated_at
		FROM aol_mappings
		WHERE unit_id = $1
		ORDER BY competency_code ASC
	`, set.UnitID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m domain.AoLMapping
		if err := rows.Scan(&m.CompetencyCode, &m.Level, &m.IsAISuggested, &m.Dismissed, &m.UpdatedAt); err != nil {
			return err
		}
		set.PutCompetency(m)
	}
	return rows.Err()
}

func (s *PostgresMappingStore) loadGoals(ctx context.Context, set *domain.MappingSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sdg_code, is_ai_suggested, dismissed, updated_at
		FROM sdg_mappings
		WHERE unit_id = $1
		ORDER BY sdg_code ASC
	`, set.UnitID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m domain.SDGMapping
		if err := rows.Scan(&m.SDGCode, &m.IsAISuggested, &m.Dismissed, &m.UpdatedAt); err != nil {
			return err
		}
		set.PutGoal(m)
	}
	return rows.Err()
}

func (s *PostgresMappingStore) loadCapabilities(ctx context.Context, set *domain.MappingSet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gc.ulo_id, gc.capability_code, gc.is_ai_suggested, gc.dismissed, gc.updated_at
		FROM graduate_capability_mappings gc
		JOIN ulos u ON u.id = gc.ulo_id
		WHERE u.unit_id = $1
		ORDER BY u.order_index ASC, u.code ASC, gc.capability_code ASC
	`, set.UnitID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m domain.GraduateCapabilityMapping
		if err := rows.Scan(&m.ULOID, &m.CapabilityCode, &m.IsAISuggested, &m.Dismissed, &m.UpdatedAt); err != nil {
			return err
		}
		set.PutCapability(m)
	}
	return rows.Err()
}
