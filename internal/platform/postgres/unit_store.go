package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
	"github.com/phrazzld/curriculum-api/internal/redact"
	"github.com/phrazzld/curriculum-api/internal/store"
)

// PostgresUnitStore implements store.UnitStore on PostgreSQL.
type PostgresUnitStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUnitStore creates a new PostgreSQL implementation of the UnitStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUnitStore(db store.DBTX, logger *slog.Logger) *PostgresUnitStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUnitStore{
		db:     db,
		logger: logger.With(slog.String("component", "unit_store")),
	}
}

var _ store.UnitStore = (*PostgresUnitStore)(nil)

// WithTx implements store.UnitStore.WithTx
func (s *PostgresUnitStore) WithTx(tx *sql.Tx) store.UnitStore {
	return &PostgresUnitStore{db: tx, logger: s.logger}
}

// CreateUnit implements store.UnitStore.CreateUnit
func (s *PostgresUnitStore) CreateUnit(ctx context.Context, unit *domain.Unit) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := unit.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO units (id, code, title, duration_weeks, mapping_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		unit.ID,
		unit.Code,
		unit.Title,
		unit.DurationWeeks,
		unit.MappingVersion,
		unit.CreatedAt,
		unit.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create unit",
			slog.String("error", redact.Error(err)),
			slog.String("unit_id", unit.ID.String()))
		return store.NewStoreError("unit", "create", "insert failed", MapError(err))
	}

	log.Debug("unit created", slog.String("unit_id", unit.ID.String()))
	return nil
}

// GetUnit implements store.UnitStore.GetUnit
func (s *PostgresUnitStore) GetUnit(ctx context.Context, id uuid.UUID) (*domain.Unit, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, code, title, duration_weeks, mapping_version, created_at, updated_at
		FROM units
		WHERE id = $1
	`
	var u domain.Unit
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.Code,
		&u.Title,
		&u.DurationWeeks,
		&u.MappingVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUnitNotFound
		}
		log.Error("failed to get unit",
			slog.String("error", redact.Error(err)),
			slog.String("unit_id", id.String()))
		return nil, store.NewStoreError("unit", "get", "query failed", MapError(err))
	}

	return &u, nil
}

// CreateULO implements store.UnitStore.CreateULO
func (s *PostgresUnitStore) CreateULO(ctx context.Context, ulo *domain.ULO) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ulo.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO ulos (id, unit_id, code, description, bloom_level, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		ulo.ID,
		ulo.UnitID,
		ulo.Code,
		ulo.Description,
		ulo.BloomLevel,
		ulo.OrderIndex,
		ulo.CreatedAt,
		ulo.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate ulo code",
				slog.String("unit_id", ulo.UnitID.String()),
				slog.String("code", ulo.Code))
			return MapUniqueViolation(err, store.ErrULOCodeExists)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrUnitNotFound, ulo.UnitID)
		}
		log.Error("failed to create ulo",
			slog.String("error", redact.Error(err)),
			slog.String("ulo_id", ulo.ID.String()))
		return store.NewStoreError("ulo", "create", "insert failed", MapError(err))
	}

	return nil
}

// DeleteULO implements store.UnitStore.DeleteULO. Links and capability
// mappings go with it through ON DELETE CASCADE.
func (s *PostgresUnitStore) DeleteULO(ctx context.Context, unitID, uloID uuid.UUID) error {
	return s.deleteChild(ctx, "ulos", "ulo", unitID, uloID, store.ErrULONotFound)
}

// ListULOs implements store.UnitStore.ListULOs
func (s *PostgresUnitStore) ListULOs(ctx context.Context, unitID uuid.UUID) ([]domain.ULO, error) {
	query := `
		SELECT id, unit_id, code, description, bloom_level, order_index, created_at, updated_at
		FROM ulos
		WHERE unit_id = $1
		ORDER BY order_index ASC, code ASC
	`
	return queryList(ctx, s, "ulo", query, unitID, func(rows *sql.Rows) (domain.ULO, error) {
		var u domain.ULO
		err := rows.Scan(&u.ID, &u.UnitID, &u.Code, &u.Description, &u.BloomLevel,
			&u.OrderIndex, &u.CreatedAt, &u.UpdatedAt)
		return u, err
	})
}

// CreateMaterial implements store.UnitStore.CreateMaterial
func (s *PostgresUnitStore) CreateMaterial(ctx context.Context, m *domain.Material) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO materials (id, unit_id, title, week_number, type, duration_minutes,
			status, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.UnitID,
		m.Title,
		m.WeekNumber,
		m.Type,
		nullableInt(m.DurationMinutes),
		m.Status,
		m.OrderIndex,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrUnitNotFound, m.UnitID)
		}
		log.Error("failed to create material",
			slog.String("error", redact.Error(err)),
			slog.String("material_id", m.ID.String()))
		return store.NewStoreError("material", "create", "insert failed", MapError(err))
	}
	return nil
}

const materialColumns = `id, unit_id, title, week_number, type, duration_minutes,
	status, order_index, created_at, updated_at`

func scanMaterial(row interface{ Scan(...any) error }) (domain.Material, error) {
	var m domain.Material
	var duration sql.NullInt64
	err := row.Scan(&m.ID, &m.UnitID, &m.Title, &m.WeekNumber, &m.Type, &duration,
		&m.Status, &m.OrderIndex, &m.CreatedAt, &m.UpdatedAt)
	m.DurationMinutes = intFromNull(duration)
	return m, err
}

// GetMaterial implements store.UnitStore.GetMaterial
func (s *PostgresUnitStore) GetMaterial(ctx context.Context, unitID, materialID uuid.UUID) (*domain.Material, error) {
	return s.getMaterial(ctx, unitID, materialID, "")
}

// GetMaterialForUpdate implements store.UnitStore.GetMaterialForUpdate
func (s *PostgresUnitStore) GetMaterialForUpdate(
	ctx context.Context,
	unitID, materialID uuid.UUID,
) (*domain.Material, error) {
	return s.getMaterial(ctx, unitID, materialID, " FOR UPDATE")
}

func (s *PostgresUnitStore) getMaterial(
	ctx context.Context,
	unitID, materialID uuid.UUID,
	lock string,
) (*domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE id = $1 AND unit_id = $2` + lock
	m, err := scanMaterial(s.db.QueryRowContext(ctx, query, materialID, unitID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMaterialNotFound
		}
		return nil, store.NewStoreError("material", "get", "query failed", MapError(err))
	}
	return &m, nil
}

// UpdateMaterialStatus implements store.UnitStore.UpdateMaterialStatus
func (s *PostgresUnitStore) UpdateMaterialStatus(
	ctx context.Context,
	unitID, materialID uuid.UUID,
	status domain.ContentStatus,
) error {
	return s.updateStatus(ctx, "materials", "material", unitID, materialID, status, store.ErrMaterialNotFound)
}

// DeleteMaterial implements store.UnitStore.DeleteMaterial
func (s *PostgresUnitStore) DeleteMaterial(ctx context.Context, unitID, materialID uuid.UUID) error {
	return s.deleteChild(ctx, "materials", "material", unitID, materialID, store.ErrMaterialNotFound)
}

// ListMaterials implements store.UnitStore.ListMaterials
func (s *PostgresUnitStore) ListMaterials(ctx context.Context, unitID uuid.UUID) ([]domain.Material, error) {
	query := `SELECT ` + materialColumns + `
		FROM materials
		WHERE unit_id = $1
		ORDER BY week_number ASC, order_index ASC, created_at ASC`
	return queryList(ctx, s, "material", query, unitID, func(rows *sql.Rows) (domain.Material, error) {
		return scanMaterial(rows)
	})
}

// CreateAssessment implements store.UnitStore.CreateAssessment
func (s *PostgresUnitStore) CreateAssessment(ctx context.Context, a *domain.Assessment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO assessments (id, unit_id, title, type, category, weight, release_week,
			due_week, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.UnitID,
		a.Title,
		a.Type,
		a.Category,
		a.Weight,
		nullableInt(a.ReleaseWeek),
		nullableInt(a.DueWeek),
		nullableInt(a.DurationMinutes),
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrUnitNotFound, a.UnitID)
		}
		log.Error("failed to create assessment",
			slog.String("error", redact.Error(err)),
			slog.String("assessment_id", a.ID.String()))
		return store.NewStoreError("assessment", "create", "insert failed", MapError(err))
	}
	return nil
}

const assessmentColumns = `id, unit_id, title, type, category, weight, release_week,
	due_week, duration_minutes, status, created_at, updated_at`

func scanAssessment(row interface{ Scan(...any) error }) (domain.Assessment, error) {
	var a domain.Assessment
	var release, due, duration sql.NullInt64
	err := row.Scan(&a.ID, &a.UnitID, &a.Title, &a.Type, &a.Category, &a.Weight,
		&release, &due, &duration, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	a.ReleaseWeek = intFromNull(release)
	a.DueWeek = intFromNull(due)
	a.DurationMinutes = intFromNull(duration)
	return a, err
}

// GetAssessment implements store.UnitStore.GetAssessment
func (s *PostgresUnitStore) GetAssessment(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
) (*domain.Assessment, error) {
	return s.getAssessment(ctx, unitID, assessmentID, "")
}

// GetAssessmentForUpdate implements store.UnitStore.GetAssessmentForUpdate
func (s *PostgresUnitStore) GetAssessmentForUpdate(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
) (*domain.Assessment, error) {
	return s.getAssessment(ctx, unitID, assessmentID, " FOR UPDATE")
}

func (s *PostgresUnitStore) getAssessment(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
	lock string,
) (*domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1 AND unit_id = $2` + lock
	a, err := scanAssessment(s.db.QueryRowContext(ctx, query, assessmentID, unitID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAssessmentNotFound
		}
		return nil, store.NewStoreError("assessment", "get", "query failed", MapError(err))
	}
	return &a, nil
}

// UpdateAssessmentStatus implements store.UnitStore.UpdateAssessmentStatus
func (s *PostgresUnitStore) UpdateAssessmentStatus(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
	status domain.ContentStatus,
) error {
	return s.updateStatus(ctx, "assessments", "assessment", unitID, assessmentID, status, store.ErrAssessmentNotFound)
}

// DeleteAssessment implements store.UnitStore.DeleteAssessment
func (s *PostgresUnitStore) DeleteAssessment(ctx context.Context, unitID, assessmentID uuid.UUID) error {
	return s.deleteChild(ctx, "assessments", "assessment", unitID, assessmentID, store.ErrAssessmentNotFound)
}

// ListAssessments implements store.UnitStore.ListAssessments
func (s *PostgresUnitStore) ListAssessments(ctx context.Context, unitID uuid.UUID) ([]domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + `
		FROM assessments
		WHERE unit_id = $1
		ORDER BY created_at ASC, id ASC`
	return queryList(ctx, s, "assessment", query, unitID, func(rows *sql.Rows) (domain.Assessment, error) {
		return scanAssessment(rows)
	})
}

// CreateOutcome implements store.UnitStore.CreateOutcome
func (s *PostgresUnitStore) CreateOutcome(ctx context.Context, lo *domain.LearningOutcome) error {
	if err := lo.Validate(); err != nil {
		return err
	}

	var materialID, assessmentID any
	if lo.OwnerKind == domain.OwnerMaterial {
		materialID = lo.OwnerID
	} else {
		assessmentID = lo.OwnerID
	}

	query := `
		INSERT INTO learning_outcomes (id, unit_id, material_id, assessment_id, description, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		lo.ID, lo.UnitID, materialID, assessmentID, lo.Description, lo.OrderIndex, lo.CreatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s %s", store.ErrNotFound, lo.OwnerKind, lo.OwnerID)
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create learning outcome",
			slog.String("error", redact.Error(err)),
			slog.String("outcome_id", lo.ID.String()))
		return store.NewStoreError("learning_outcome", "create", "insert failed", MapError(err))
	}
	return nil
}

// ListOutcomes implements store.UnitStore.ListOutcomes
func (s *PostgresUnitStore) ListOutcomes(ctx context.Context, unitID uuid.UUID) ([]domain.LearningOutcome, error) {
	query := `
		SELECT id, unit_id, material_id, assessment_id, description, order_index, created_at
		FROM learning_outcomes
		WHERE unit_id = $1
		ORDER BY order_index ASC, created_at ASC
	`
	return queryList(ctx, s, "learning_outcome", query, unitID, func(rows *sql.Rows) (domain.LearningOutcome, error) {
		var lo domain.LearningOutcome
		var materialID, assessmentID uuid.NullUUID
		err := rows.Scan(&lo.ID, &lo.UnitID, &materialID, &assessmentID,
			&lo.Description, &lo.OrderIndex, &lo.CreatedAt)
		if materialID.Valid {
			lo.OwnerKind, lo.OwnerID = domain.OwnerMaterial, materialID.UUID
		} else {
			lo.OwnerKind, lo.OwnerID = domain.OwnerAssessment, assessmentID.UUID
		}
		return lo, err
	})
}

// LinkMaterial implements store.UnitStore.LinkMaterial
func (s *PostgresUnitStore) LinkMaterial(ctx context.Context, uloID, materialID uuid.UUID) error {
	return s.link(ctx, `INSERT INTO ulo_materials (ulo_id, material_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, "ulo_material", uloID, materialID)
}

// UnlinkMaterial implements store.UnitStore.UnlinkMaterial
func (s *PostgresUnitStore) UnlinkMaterial(ctx context.Context, uloID, materialID uuid.UUID) error {
	return s.link(ctx, `DELETE FROM ulo_materials WHERE ulo_id = $1 AND material_id = $2`,
		"ulo_material", uloID, materialID)
}

// LinkAssessment implements store.UnitStore.LinkAssessment
func (s *PostgresUnitStore) LinkAssessment(ctx context.Context, uloID, assessmentID uuid.UUID) error {
	return s.link(ctx, `INSERT INTO ulo_assessments (ulo_id, assessment_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, "ulo_assessment", uloID, assessmentID)
}

// UnlinkAssessment implements store.UnitStore.UnlinkAssessment
func (s *PostgresUnitStore) UnlinkAssessment(ctx context.Context, uloID, assessmentID uuid.UUID) error {
	return s.link(ctx, `DELETE FROM ulo_assessments WHERE ulo_id = $1 AND assessment_id = $2`,
		"ulo_assessment", uloID, assessmentID)
}

// ListMaterialLinks implements store.UnitStore.ListMaterialLinks
func (s *PostgresUnitStore) ListMaterialLinks(ctx context.Context, unitID uuid.UUID) ([]domain.MaterialLink, error) {
	query := `
		SELECT um.ulo_id, um.material_id
		FROM ulo_materials um
		JOIN ulos u ON u.id = um.ulo_id
		WHERE u.unit_id = $1
		ORDER BY u.order_index ASC, u.code ASC, um.material_id ASC
	`
	return queryList(ctx, s, "ulo_material", query, unitID, func(rows *sql.Rows) (domain.MaterialLink, error) {
		var l domain.MaterialLink
		err := rows.Scan(&l.ULOID, &l.MaterialID)
		return l, err
	})
}

// ListAssessmentLinks implements store.UnitStore.ListAssessmentLinks
func (s *PostgresUnitStore) ListAssessmentLinks(
	ctx context.Context,
	unitID uuid.UUID,
) ([]domain.AssessmentLink, error) {
	query := `
		SELECT ua.ulo_id, ua.assessment_id
		FROM ulo_assessments ua
		JOIN ulos u ON u.id = ua.ulo_id
		WHERE u.unit_id = $1
		ORDER BY u.order_index ASC, u.code ASC, ua.assessment_id ASC
	`
	return queryList(ctx, s, "ulo_assessment", query, unitID, func(rows *sql.Rows) (domain.AssessmentLink, error) {
		var l domain.AssessmentLink
		err := rows.Scan(&l.ULOID, &l.AssessmentID)
		return l, err
	})
}

func (s *PostgresUnitStore) link(ctx context.Context, query, entity string, uloID, otherID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, query, uloID, otherID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to write link",
			slog.String("error", redact.Error(err)),
			slog.String("entity", entity),
			slog.String("ulo_id", uloID.String()),
			slog.String("other_id", otherID.String()))
		return store.NewStoreError(entity, "link", "write failed", MapError(err))
	}
	return nil
}

// updateStatus and deleteChild interpolate trusted table names only.
func (s *PostgresUnitStore) updateStatus(
	ctx context.Context,
	table, entity string,
	unitID, id uuid.UUID,
	status domain.ContentStatus,
	notFound error,
) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $1, updated_at = $2 WHERE id = $3 AND unit_id = $4`, table)
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id, unitID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update status",
			slog.String("error", redact.Error(err)),
			slog.String("entity", entity),
			slog.String("id", id.String()))
		return store.NewStoreError(entity, "update", "status update failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}
	return CheckRowsAffected(result, notFound)
}

func (s *PostgresUnitStore) deleteChild(
	ctx context.Context,
	table, entity string,
	unitID, id uuid.UUID,
	notFound error,
) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND unit_id = $2`, table)
	result, err := s.db.ExecContext(ctx, query, id, unitID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete",
			slog.String("error", redact.Error(err)),
			slog.String("entity", entity),
			slog.String("id", id.String()))
		return store.NewStoreError(entity, "delete", "delete failed",
			fmt.Errorf("%w: %w", store.ErrDeleteFailed, MapError(err)))
	}
	return CheckRowsAffected(result, notFound)
}

// queryList runs a single-argument query and scans every row with scan.
// It returns an empty, non-nil slice when there are no rows.
func queryList[T any](
	ctx context.Context,
	s *PostgresUnitStore,
	entity, query string,
	arg any,
	scan func(*sql.Rows) (T, error),
) ([]T, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Error("failed to list",
			slog.String("error", redact.Error(err)),
			slog.String("entity", entity))
		return nil, store.NewStoreError(entity, "list", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, store.NewStoreError(entity, "list", "scan failed", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(entity, "list", "row iteration failed", err)
	}
	return out, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
