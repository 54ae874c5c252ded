package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	ErrNoDatasets       = errors.New("no datasets configured")
	ErrDuplicateDataset = errors.New("duplicate dataset name")
	ErrMissingPath      = errors.New("dataset has no file path")
)

// Dataset binds a segment name to its backing file.
type Dataset struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"file" json:"file"`
}

// DefaultDatasets returns the four segments in their canonical order,
// resolved against dir.
func DefaultDatasets(dir string) []Dataset {
	files := []Dataset{
		{Name: "Servicios", Path: "resultados_evaluaciones_servicios_servicios.json"},
		{Name: "Preferente", Path: "resultados_evaluaciones_servicios_preferente.json"},
		{Name: "Retención", Path: "resultados_evaluaciones_servicios_retencion.json"},
		{Name: "Bloqueos", Path: "resultados_evaluaciones_servicios_bloqueos.json"},
	}
	for i := range files {
		files[i].Path = filepath.Join(dir, files[i].Path)
	}
	return files
}

// Registry is the fixed, ordered set of datasets. Order matters: the first
// entry is the fallback for unknown names.
type Registry struct {
	datasets []Dataset
	index    map[string]int
}

// NewRegistry validates and indexes datasets, keeping declaration order.
func NewRegistry(datasets []Dataset) (*Registry, error) {
	if len(datasets) == 0 {
		return nil, ErrNoDatasets
	}

	r := &Registry{
		datasets: make([]Dataset, len(datasets)),
		index:    make(map[string]int, len(datasets)),
	}
	for i, ds := range datasets {
		if ds.Path == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingPath, ds.Name)
		}
		if _, dup := r.index[ds.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDataset, ds.Name)
		}
		r.datasets[i] = ds
		r.index[ds.Name] = i
	}
	return r, nil
}

// Names lists dataset names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.datasets))
	for i, ds := range r.datasets {
		names[i] = ds.Name
	}
	return names
}

// All returns a copy of the configured datasets.
func (r *Registry) All() []Dataset {
	return append([]Dataset(nil), r.datasets...)
}

// Get looks a dataset up by exact name.
func (r *Registry) Get(name string) (Dataset, bool) {
	i, ok := r.index[name]
	if !ok {
		return Dataset{}, false
	}
	return r.datasets[i], true
}

// First is the fallback dataset.
func (r *Registry) First() Dataset {
	return r.datasets[0]
}

// Resolve returns the named dataset, or the first one plus a warning when the
// name is not configured.
//
// The silent fallback can hide a typo in a dataset name; it is kept because
// every view depends on it, and the warning is the only signal.
func (r *Registry) Resolve(name string) (Dataset, *Warning) {
	if ds, ok := r.Get(name); ok {
		return ds, nil
	}
	first := r.First()
	return first, &Warning{
		Dataset: name,
		Kind:    WarnUnknownDataset,
		Message: fmt.Sprintf("la fuente '%s' no está configurada. Se usará '%s'.", name, first.Name),
	}
}
