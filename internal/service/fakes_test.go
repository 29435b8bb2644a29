package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
	"github.com/phrazzld/curriculum-api/internal/events"
	"github.com/phrazzld/curriculum-api/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock-backed DB. Expectations for each transaction are
// added by the test through expectTx.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

// testRegistry builds small catalogs with predictable keywords.
func testRegistry(t *testing.T) *taxonomy.Registry {
	t.Helper()
	competencies, err := taxonomy.NewCatalog(taxonomy.KindCompetency, []taxonomy.Entry{
		{Code: "DATA", Name: "Data Literacy", Keywords: []string{"data", "analytics"}},
		{Code: "ETH", Name: "Ethics", Keywords: []string{"ethic"}},
	})
	require.NoError(t, err)
	goals, err := taxonomy.NewCatalog(taxonomy.KindSDG, []taxonomy.Entry{
		{Code: "SDG4", Name: "Quality Education", Keywords: []string{"education"}},
		{Code: "SDG13", Name: "Climate Action", Keywords: []string{"climate"}},
	})
	require.NoError(t, err)
	capabilities, err := taxonomy.NewCatalog(taxonomy.KindGraduateCapability, []taxonomy.Entry{
		{Code: "GC1", Name: "Digital Literacy", Keywords: []string{"data"}},
		{Code: "GC2", Name: "Teamwork", Keywords: []string{"team"}},
	})
	require.NoError(t, err)

	reg, err := taxonomy.NewRegistry(competencies, goals, capabilities)
	require.NoError(t, err)
	return reg
}

// memStore is an in-memory UnitStore and MappingStore. Error hooks let tests
// inject failures into single calls.
type memStore struct {
	mu sync.Mutex

	units       map[uuid.UUID]*domain.Unit
	ulos        map[uuid.UUID]domain.ULO
	materials   map[uuid.UUID]domain.Material
	assessments map[uuid.UUID]domain.Assessment
	outcomes    []domain.LearningOutcome
	matLinks    map[domain.MaterialLink]struct{}
	asmLinks    map[domain.AssessmentLink]struct{}
	mappings    map[uuid.UUID]*domain.MappingSet

	// saveHook runs before SaveMappings and may return an error to fail it.
	saveHook  func(set *domain.MappingSet) error
	saveCalls int
	// lockedReads counts Get*ForUpdate calls.
	lockedReads int
	createErr error
}

var (
	_ store.UnitStore    = (*memStore)(nil)
	_ store.MappingStore = (*mappingView)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		units:       make(map[uuid.UUID]*domain.Unit),
		ulos:        make(map[uuid.UUID]domain.ULO),
		materials:   make(map[uuid.UUID]domain.Material),
		assessments: make(map[uuid.UUID]domain.Assessment),
		matLinks:    make(map[domain.MaterialLink]struct{}),
		asmLinks:    make(map[domain.AssessmentLink]struct{}),
		mappings:    make(map[uuid.UUID]*domain.MappingSet),
	}
}

func (m *memStore) CreateUnit(_ context.Context, unit *domain.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	u := *unit
	m.units[u.ID] = &u
	m.mappings[u.ID] = domain.NewMappingSet(u.ID, 0)
	return nil
}

func (m *memStore) GetUnit(_ context.Context, id uuid.UUID) (*domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return nil, store.ErrUnitNotFound
	}
	c := *u
	c.MappingVersion = m.mappings[id].Version
	return &c, nil
}

func (m *memStore) CreateULO(_ context.Context, ulo *domain.ULO) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[ulo.UnitID]; !ok {
		return store.ErrUnitNotFound
	}
	for _, existing := range m.ulos {
		if existing.UnitID == ulo.UnitID && existing.Code == ulo.Code {
			return store.NewStoreError("ulo", "create", "duplicate code", store.ErrULOCodeExists)
		}
	}
	m.ulos[ulo.ID] = *ulo
	return nil
}

func (m *memStore) DeleteULO(_ context.Context, unitID, uloID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ulo, ok := m.ulos[uloID]
	if !ok || ulo.UnitID != unitID {
		return store.ErrULONotFound
	}
	delete(m.ulos, uloID)
	for l := range m.matLinks {
		if l.ULOID == uloID {
			delete(m.matLinks, l)
		}
	}
	for l := range m.asmLinks {
		if l.ULOID == uloID {
			delete(m.asmLinks, l)
		}
	}
	if set, ok := m.mappings[unitID]; ok {
		pruned := domain.NewMappingSet(unitID, set.Version)
		for _, c := range set.Competencies() {
			pruned.PutCompetency(c)
		}
		for _, g := range set.Goals() {
			pruned.PutGoal(g)
		}
		for _, c := range set.Capabilities() {
			if c.ULOID != uloID {
				pruned.PutCapability(c)
			}
		}
		m.mappings[unitID] = pruned
	}
	return nil
}

func (m *memStore) ListULOs(_ context.Context, unitID uuid.UUID) ([]domain.ULO, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ULO{}
	for _, u := range m.ulos {
		if u.UnitID == unitID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (m *memStore) CreateMaterial(_ context.Context, mat *domain.Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materials[mat.ID] = *mat
	return nil
}

func (m *memStore) GetMaterial(_ context.Context, unitID, materialID uuid.UUID) (*domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[materialID]
	if !ok || mat.UnitID != unitID {
		return nil, store.ErrMaterialNotFound
	}
	return &mat, nil
}

func (m *memStore) GetMaterialForUpdate(ctx context.Context, unitID, materialID uuid.UUID) (*domain.Material, error) {
	m.mu.Lock()
	m.lockedReads++
	m.mu.Unlock()
	return m.GetMaterial(ctx, unitID, materialID)
}

func (m *memStore) UpdateMaterialStatus(
	_ context.Context,
	unitID, materialID uuid.UUID,
	status domain.ContentStatus,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[materialID]
	if !ok || mat.UnitID != unitID {
		return store.ErrMaterialNotFound
	}
	mat.Status = status
	m.materials[materialID] = mat
	return nil
}

func (m *memStore) DeleteMaterial(_ context.Context, unitID, materialID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mat, ok := m.materials[materialID]
	if !ok || mat.UnitID != unitID {
		return store.ErrMaterialNotFound
	}
	delete(m.materials, materialID)
	for l := range m.matLinks {
		if l.MaterialID == materialID {
			delete(m.matLinks, l)
		}
	}
	return nil
}

func (m *memStore) ListMaterials(_ context.Context, unitID uuid.UUID) ([]domain.Material, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Material{}
	for _, mat := range m.materials {
		if mat.UnitID == unitID {
			out = append(out, mat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (m *memStore) CreateAssessment(_ context.Context, a *domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = *a
	return nil
}

func (m *memStore) GetAssessment(_ context.Context, unitID, assessmentID uuid.UUID) (*domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[assessmentID]
	if !ok || a.UnitID != unitID {
		return nil, store.ErrAssessmentNotFound
	}
	return &a, nil
}

func (m *memStore) GetAssessmentForUpdate(
	ctx context.Context,
	unitID, assessmentID uuid.UUID,
) (*domain.Assessment, error) {
	m.mu.Lock()
	m.lockedReads++
	m.mu.Unlock()
	return m.GetAssessment(ctx, unitID, assessmentID)
}

func (m *memStore) UpdateAssessmentStatus(
	_ context.Context,
	unitID, assessmentID uuid.UUID,
	status domain.ContentStatus,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[assessmentID]
	if !ok || a.UnitID != unitID {
		return store.ErrAssessmentNotFound
	}
	a.Status = status
	m.assessments[assessmentID] = a
	return nil
}

func (m *memStore) DeleteAssessment(_ context.Context, unitID, assessmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[assessmentID]
	if !ok || a.UnitID != unitID {
		return store.ErrAssessmentNotFound
	}
	delete(m.assessments, assessmentID)
	for l := range m.asmLinks {
		if l.AssessmentID == assessmentID {
			delete(m.asmLinks, l)
		}
	}
	return nil
}

func (m *memStore) ListAssessments(_ context.Context, unitID uuid.UUID) ([]domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Assessment{}
	for _, a := range m.assessments {
		if a.UnitID == unitID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *memStore) CreateOutcome(_ context.Context, lo *domain.LearningOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, *lo)
	return nil
}

func (m *memStore) ListOutcomes(_ context.Context, unitID uuid.UUID) ([]domain.LearningOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.LearningOutcome{}
	for _, lo := range m.outcomes {
		if lo.UnitID == unitID {
			out = append(out, lo)
		}
	}
	return out, nil
}

func (m *memStore) LinkMaterial(_ context.Context, uloID, materialID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matLinks[domain.MaterialLink{ULOID: uloID, MaterialID: materialID}] = struct{}{}
	return nil
}

func (m *memStore) UnlinkMaterial(_ context.Context, uloID, materialID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.MaterialLink{ULOID: uloID, MaterialID: materialID}
	if _, ok := m.matLinks[key]; !ok {
		return store.ErrNotFound
	}
	delete(m.matLinks, key)
	return nil
}

func (m *memStore) LinkAssessment(_ context.Context, uloID, assessmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asmLinks[domain.AssessmentLink{ULOID: uloID, AssessmentID: assessmentID}] = struct{}{}
	return nil
}

func (m *memStore) UnlinkAssessment(_ context.Context, uloID, assessmentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.AssessmentLink{ULOID: uloID, AssessmentID: assessmentID}
	if _, ok := m.asmLinks[key]; !ok {
		return store.ErrNotFound
	}
	delete(m.asmLinks, key)
	return nil
}

func (m *memStore) ListMaterialLinks(_ context.Context, unitID uuid.UUID) ([]domain.MaterialLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.MaterialLink{}
	for l := range m.matLinks {
		if m.ulos[l.ULOID].UnitID == unitID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListAssessmentLinks(_ context.Context, unitID uuid.UUID) ([]domain.AssessmentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.AssessmentLink{}
	for l := range m.asmLinks {
		if m.ulos[l.ULOID].UnitID == unitID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) WithTx(*sql.Tx) store.UnitStore { return m }

// mappingView exposes the mapping half of memStore.
type mappingView struct{ m *memStore }

func (m *memStore) mappingStore() store.MappingStore { return &mappingView{m} }

func (v *mappingView) GetMappings(_ context.Context, unitID uuid.UUID) (*domain.MappingSet, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	set, ok := v.m.mappings[unitID]
	if !ok {
		return nil, store.ErrUnitNotFound
	}
	return set.Clone(), nil
}

func (v *mappingView) SaveMappings(_ context.Context, set *domain.MappingSet) (int64, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	v.m.saveCalls++
	if v.m.saveHook != nil {
		if err := v.m.saveHook(set); err != nil {
			return 0, err
		}
	}
	current, ok := v.m.mappings[set.UnitID]
	if !ok {
		return 0, store.ErrUnitNotFound
	}
	if current.Version != set.Version {
		return 0, &store.VersionMismatchError{UnitID: set.UnitID, Expected: set.Version, Actual: current.Version}
	}
	saved := set.Clone()
	saved.Version = current.Version + 1
	v.m.mappings[set.UnitID] = saved
	return saved.Version, nil
}

func (v *mappingView) WithTx(*sql.Tx) store.MappingStore { return v }

// seedUnit stores a unit with one ULO and returns both.
func (m *memStore) seedUnit(t *testing.T, weeks int, uloDescription string, bloom domain.BloomLevel) (*domain.Unit, *domain.ULO) {
	t.Helper()
	unit, err := domain.NewUnit("BUS101", "Business Analytics", weeks)
	require.NoError(t, err)
	require.NoError(t, m.CreateUnit(context.Background(), unit))

	ulo, err := domain.NewULO(unit.ID, "ULO1", uloDescription, bloom, 0)
	require.NoError(t, err)
	require.NoError(t, m.CreateULO(context.Background(), ulo))
	return unit, ulo
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.TaskRequestEvent
	err    error
}

func (e *recordingEmitter) EmitEvent(_ context.Context, event *events.TaskRequestEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

// failingLocker never grants the lock.
type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return nil, l.err
}
