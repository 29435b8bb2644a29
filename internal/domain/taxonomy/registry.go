package taxonomy

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phrazzld/curriculum-api/internal/domain"
)

//go:embed catalogs/*.yaml
var embeddedCatalogs embed.FS

type catalogFile struct {
	Kind    Kind    `yaml:"kind"`
	Entries []Entry `yaml:"entries"`
}

// Registry gives read access to every catalog. It is safe for concurrent use
// because nothing in it changes after construction.
type Registry struct {
	catalogs map[Kind]*Catalog
}

// NewRegistry builds a registry from catalogs. Every kind must be present
// exactly once.
func NewRegistry(catalogs ...*Catalog) (*Registry, error) {
	r := &Registry{catalogs: make(map[Kind]*Catalog, len(catalogs))}
	for _, c := range catalogs {
		if _, dup := r.catalogs[c.Kind()]; dup {
			return nil, fmt.Errorf("duplicate %s catalog", c.Kind())
		}
		r.catalogs[c.Kind()] = c
	}
	for _, k := range Kinds {
		if _, ok := r.catalogs[k]; !ok {
			return nil, fmt.Errorf("missing %s catalog", k)
		}
	}
	return r, nil
}

// Load reads the catalogs compiled into the binary.
func Load() (*Registry, error) {
	return LoadDir("")
}

// LoadDir reads <kind>.yaml files from dir, falling back to the compiled-in
// catalog for any kind the directory does not provide. An empty dir loads only
// the compiled-in catalogs.
func LoadDir(dir string) (*Registry, error) {
	embedded, err := fs.Sub(embeddedCatalogs, "catalogs")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded catalogs: %w", err)
	}

	var override fs.FS
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("catalog path %s is not a directory", dir)
		}
		override = os.DirFS(dir)
	}

	catalogs := make([]*Catalog, 0, len(Kinds))
	for _, kind := range Kinds {
		name := string(kind) + ".yaml"

		data, err := readCatalog(override, name)
		if errors.Is(err, fs.ErrNotExist) {
			data, err = fs.ReadFile(embedded, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		c, err := parseCatalog(kind, data)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		catalogs = append(catalogs, c)
	}

	return NewRegistry(catalogs...)
}

func readCatalog(fsys fs.FS, name string) ([]byte, error) {
	if fsys == nil {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(fsys, name)
}

func parseCatalog(kind Kind, data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, err
	}
	if file.Kind != "" && file.Kind != kind {
		return nil, fmt.Errorf("file declares kind %q, expected %q", file.Kind, kind)
	}
	if len(file.Entries) == 0 {
		return nil, fmt.Errorf("%s catalog is empty", kind)
	}

	return NewCatalog(kind, file.Entries)
}

// Catalog returns the catalog of the given kind.
func (r *Registry) Catalog(kind Kind) (*Catalog, error) {
	c, ok := r.catalogs[kind]
	if !ok {
		return nil, domain.NewNotFoundError("catalog", string(kind))
	}
	return c, nil
}

// Lookup finds code in the catalog of the given kind. Unknown kinds and codes
// both produce a NotFoundError.
func (r *Registry) Lookup(kind Kind, code string) (Entry, error) {
	c, err := r.Catalog(kind)
	if err != nil {
		return Entry{}, err
	}
	e, ok := c.Lookup(code)
	if !ok {
		return Entry{}, domain.NewNotFoundError(string(kind), code)
	}
	return e, nil
}

// Competencies returns the competency catalog.
func (r *Registry) Competencies() *Catalog { return r.catalogs[KindCompetency] }

// Goals returns the sustainable development goal catalog.
func (r *Registry) Goals() *Catalog { return r.catalogs[KindSDG] }

// Capabilities returns the graduate capability catalog.
func (r *Registry) Capabilities() *Catalog { return r.catalogs[KindGraduateCapability] }
