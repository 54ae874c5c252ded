package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/sirupsen/logrus"
)

// WarningKind classifies recoverable loader problems.
type WarningKind string

const (
	WarnUnknownDataset WarningKind = "unknown_dataset"
	WarnMissingFile    WarningKind = "missing_file"
	WarnMalformedFile  WarningKind = "malformed_file"
)

// Warning is a recoverable problem. The dataset involved contributes zero
// records (or, for unknown names, is replaced by the first dataset).
type Warning struct {
	Dataset string      `json:"dataset"`
	Path    string      `json:"path,omitempty"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return w.Message
}

// Result is the output of Load.
type Result struct {
	Records  []Record  `json:"records"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// HasWarnings reports whether anything went wrong.
func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r Result) clone() Result {
	return Result{
		Records:  append([]Record(nil), r.Records...),
		Warnings: append([]Warning(nil), r.Warnings...),
	}
}

type cacheKey struct {
	dataset string
	limit   int
}

type fileEntry struct {
	records []Record
	warning *Warning
}

// Loader reads datasets and memoizes results by (dataset, limit). Files are
// assumed not to change while the process runs unless a Watcher calls
// Invalidate.
type Loader struct {
	registry *Registry
	log      *logger.Logger
	readFile func(string) ([]byte, error)

	mu      sync.Mutex
	results map[cacheKey]Result
	files   map[string]fileEntry
}

// NewLoader creates a loader over registry. A nil logger discards warnings.
func NewLoader(registry *Registry, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Discard()
	}
	return &Loader{
		registry: registry,
		log:      log,
		readFile: os.ReadFile,
		results:  make(map[cacheKey]Result),
		files:    make(map[string]fileEntry),
	}
}

// Registry exposes the configured datasets.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Datasets lists configured names in declaration order.
func (l *Loader) Datasets() []string {
	return l.registry.Names()
}

// Load returns eligible records.
//
// An empty dataset loads every configured dataset in order, each limited
// independently. An unknown name falls back to the first dataset with a
// warning. limit <= 0 means no limit. Missing or malformed files yield a
// warning and zero records.
func (l *Loader) Load(dataset string, limit int) Result {
	if limit < 0 {
		limit = 0
	}
	key := cacheKey{dataset: dataset, limit: limit}

	l.mu.Lock()
	defer l.mu.Unlock()

	if cached, ok := l.results[key]; ok {
		return cached.clone()
	}

	var res Result
	if dataset == "" {
		for _, ds := range l.registry.All() {
			records, warn := l.eligibleLocked(ds, limit)
			res.Records = append(res.Records, records...)
			if warn != nil {
				res.Warnings = append(res.Warnings, *warn)
			}
		}
	} else {
		ds, warn := l.registry.Resolve(dataset)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}
		records, fileWarn := l.eligibleLocked(ds, limit)
		res.Records = records
		if fileWarn != nil {
			res.Warnings = append(res.Warnings, *fileWarn)
		}
	}

	for _, w := range res.Warnings {
		l.log.WithFields(logrus.Fields{
			"dataset": w.Dataset,
			"path":    w.Path,
			"kind":    string(w.Kind),
		}).Warn(w.Message)
	}

	l.results[key] = res
	return res.clone()
}

// Lookup finds a call by id among all records of a dataset, eligible or not.
// The dataset name resolves like Load.
func (l *Loader) Lookup(dataset, id string) (Record, bool, []Warning) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var warnings []Warning
	ds, warn := l.registry.Resolve(dataset)
	if warn != nil {
		warnings = append(warnings, *warn)
	}
	entry := l.fileLocked(ds)
	if entry.warning != nil {
		warnings = append(warnings, *entry.warning)
	}
	for _, rec := range entry.records {
		if rec.ID == id {
			return rec, true, warnings
		}
	}
	return Record{}, false, warnings
}

// Invalidate drops memoized results that may include dataset.
func (l *Loader) Invalidate(dataset string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.files, dataset)
	for key := range l.results {
		if key.dataset == dataset || key.dataset == "" {
			delete(l.results, key)
			continue
		}
		if _, known := l.registry.Get(key.dataset); !known {
			// unknown names resolve to the first dataset
			delete(l.results, key)
		}
	}
}

// InvalidateAll drops every memoized result.
func (l *Loader) InvalidateAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = make(map[cacheKey]Result)
	l.files = make(map[string]fileEntry)
}

func (l *Loader) eligibleLocked(ds Dataset, limit int) ([]Record, *Warning) {
	entry := l.fileLocked(ds)

	records := make([]Record, 0, len(entry.records))
	for _, rec := range entry.records {
		if !rec.Eligible() {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, entry.warning
}

func (l *Loader) fileLocked(ds Dataset) fileEntry {
	if entry, ok := l.files[ds.Name]; ok {
		return entry
	}
	entry := l.readDataset(ds)
	l.files[ds.Name] = entry
	return entry
}

func (l *Loader) readDataset(ds Dataset) fileEntry {
	data, err := l.readFile(ds.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileEntry{warning: &Warning{
				Dataset: ds.Name,
				Path:    ds.Path,
				Kind:    WarnMissingFile,
				Message: fmt.Sprintf("Archivo no encontrado para '%s': %s", ds.Name, ds.Path),
			}}
		}
		return fileEntry{warning: malformed(ds, err)}
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fileEntry{warning: malformed(ds, err)}
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		rec, err := r.toRecord(ds.Name)
		if err != nil {
			return fileEntry{warning: malformed(ds, err)}
		}
		records = append(records, rec)
	}
	return fileEntry{records: records}
}

func malformed(ds Dataset, err error) *Warning {
	return &Warning{
		Dataset: ds.Name,
		Path:    ds.Path,
		Kind:    WarnMalformedFile,
		Message: fmt.Sprintf("Error al cargar '%s': %v", ds.Name, err),
	}
}
