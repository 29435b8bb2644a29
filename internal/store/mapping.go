package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

// MappingStore persists a unit's mapping set as a whole.
type MappingStore interface {
	// GetMappings loads every mapping record of the unit, including dismissed
	// ones, and the current mapping version. Returns ErrUnitNotFound if the
	// unit does not exist.
	GetMappings(ctx context.Context, unitID uuid.UUID) (*domain.MappingSet, error)

	// SaveMappings writes every record of set and advances the unit's mapping
	// version, provided the stored version still equals set.Version. Records
	// are upserted by their composite key. Returns the new version, or a
	// *VersionMismatchError when the stored version has moved on.
	//
	// Must run inside a transaction so that the version bump and the record
	// writes commit together.
	SaveMappings(ctx context.Context, set *domain.MappingSet) (int64, error)

	// WithTx returns a MappingStore that runs every call on tx.
	WithTx(tx *sql.Tx) MappingStore
}
