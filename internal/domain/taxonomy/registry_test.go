package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

func TestLoadEmbeddedCatalogs(t *testing.T) {
	t.Parallel()

	reg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 17, reg.Goals().Len(), "the goal catalog has all 17 goals")
	assert.Greater(t, reg.Competencies().Len(), 0)
	assert.Greater(t, reg.Capabilities().Len(), 0)

	climate, err := reg.Lookup(KindSDG, "SDG13")
	require.NoError(t, err)
	assert.Equal(t, "Climate Action", climate.Name)
	assert.Contains(t, climate.Keywords, "climate")

	ct, err := reg.Lookup(KindCompetency, "CT")
	require.NoError(t, err)
	assert.Subset(t, ct.Keywords, []string{"critical", "analyse", "analyze", "evaluate"})
}

func TestEmbeddedCatalogOrderIsStable(t *testing.T) {
	t.Parallel()

	reg, err := Load()
	require.NoError(t, err)

	goals := reg.Goals().Entries()
	assert.Equal(t, "SDG1", goals[0].Code)
	assert.Equal(t, "SDG17", goals[len(goals)-1].Code)
}

func TestRegistryLookupErrors(t *testing.T) {
	t.Parallel()

	reg, err := Load()
	require.NoError(t, err)

	_, err = reg.Lookup(KindSDG, "SDG99")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = reg.Catalog("curricula")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var nf *domain.NotFoundError
	_, err = reg.Lookup(KindCompetency, "NOPE")
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "NOPE", nf.Key)
}

func TestEntriesReturnsCopies(t *testing.T) {
	t.Parallel()

	reg, err := Load()
	require.NoError(t, err)

	entries := reg.Competencies().Entries()
	entries[0].Keywords[0] = "mutated"
	entries[0].Code = "mutated"

	again := reg.Competencies().Entries()
	assert.NotEqual(t, "mutated", again[0].Code)
	assert.NotEqual(t, "mutated", again[0].Keywords[0])
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind(" SDG ")
	require.NoError(t, err)
	assert.Equal(t, KindSDG, k)

	_, err = ParseKind("programme")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewCatalogValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []Entry
		wantErr string
	}{
		{
			name:    "missing code",
			entries: []Entry{{Name: "x", Keywords: []string{"a"}}},
			wantErr: "has no code",
		},
		{
			name: "duplicate code",
			entries: []Entry{
				{Code: "A", Keywords: []string{"alpha"}},
				{Code: "A", Keywords: []string{"beta"}},
			},
			wantErr: "duplicate code",
		},
		{
			name:    "no keywords",
			entries: []Entry{{Code: "A"}},
			wantErr: "no keywords",
		},
		{
			name:    "blank keyword",
			entries: []Entry{{Code: "A", Keywords: []string{"alpha", "  "}}},
			wantErr: "empty keyword",
		},
		{
			name:    "overlapping keywords",
			entries: []Entry{{Code: "A", Keywords: []string{"climate", "Climate change"}}},
			wantErr: "is contained in",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCatalog(KindSDG, tc.entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewCatalogLowercasesKeywords(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog(KindSDG, []Entry{{Code: "X", Keywords: []string{" Ocean ", "MARINE"}}})
	require.NoError(t, err)

	e, ok := c.Lookup("X")
	require.True(t, ok)
	assert.Equal(t, []string{"ocean", "marine"}, e.Keywords)
}

func TestLoadDirOverridesOneKind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := `kind: graduate_capability
entries:
  - code: X1
    name: Custom capability
    short_description: Only entry
    keywords: [custom]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graduate_capability.yaml"), []byte(custom), 0o600))

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, reg.Capabilities().Len())
	assert.True(t, reg.Capabilities().Has("X1"))
	assert.Equal(t, 17, reg.Goals().Len(), "kinds without a file keep the compiled-in catalog")
}

func TestLoadDirRejectsBadFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "kind: sdg\nentries:\n  - code: A\n    colour: red\n    keywords: [a]\n"},
		{"wrong kind", "kind: competency\nentries:\n  - code: A\n    keywords: [a]\n"},
		{"empty", "kind: sdg\nentries: []\n"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "sdg.yaml"), []byte(tc.content), 0o600))
			_, err := LoadDir(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewRegistryRequiresEveryKind(t *testing.T) {
	t.Parallel()

	c, err := NewCatalog(KindSDG, []Entry{{Code: "A", Keywords: []string{"a"}}})
	require.NoError(t, err)

	_, err = NewRegistry(c)
	assert.Error(t, err)

	_, err = NewRegistry(c, c)
	assert.Error(t, err)
}
