// Package orchestrator is the service layer shared by the terminal commands
// and the HTTP dashboard. Each view mode has an explicit entry point that
// loads evaluations, builds prompts and calls the model gateway.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/export"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/inspect"
	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/Yates-Labs/auditbot/internal/storage"
)

var (
	ErrCallNotFound      = errors.New("call not found")
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrRetrievalDisabled = errors.New("retrieval is not enabled")
	ErrNoUploader        = errors.New("no object store configured")
)

// DefaultLimit is the record limit for chat and report when none is given.
const DefaultLimit = 500

// User-facing messages shown instead of a model answer.
const (
	NoRecordsMessage      = "No se encontraron registros con la configuración actual."
	NoReportDataMessage   = "No hay datos disponibles para generar el informe."
	NoQuestionsTemplate   = "No hay preguntas predefinidas para '%s'."
	UploadFailureTemplate = "Error al subir archivo a GCS: %v"
)

// Options tunes the assistant. Zero values use the defaults.
type Options struct {
	// DefaultLimit applies when a caller passes limit 0.
	DefaultLimit int

	// HistoryEnabled replays earlier chat turns into the chat prompt.
	HistoryEnabled  bool
	HistoryMessages int

	BIReportURL string

	// Retrieval narrows the chat context to the most similar calls. Nil
	// sends every loaded record.
	Retrieval *Retrieval
}

// Assistant serves every dashboard mode.
type Assistant struct {
	loader    *dataset.Loader
	gateway   *gateway.Gateway
	uploader  *storage.Uploader
	sessions  *session.Store
	retrieval *Retrieval
	opts      Options
	log       *logger.Logger
	now       func() time.Time

	closers []func() error
}

// New assembles an assistant. uploader may be nil, which disables audio
// download and transcription.
func New(
	loader *dataset.Loader,
	gw *gateway.Gateway,
	uploader *storage.Uploader,
	sessions *session.Store,
	opts Options,
	log *logger.Logger,
) *Assistant {
	if log == nil {
		log = logger.Discard()
	}
	if sessions == nil {
		sessions = session.NewStore()
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.HistoryMessages <= 0 {
		opts.HistoryMessages = prompt.DefaultHistoryMessages
	}
	return &Assistant{
		loader:    loader,
		gateway:   gw,
		uploader:  uploader,
		sessions:  sessions,
		retrieval: opts.Retrieval,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Close releases the vector store, object store client, file watcher and
// session sweeper.
func (a *Assistant) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Datasets lists the configured dataset names in declaration order.
func (a *Assistant) Datasets() []string {
	return a.loader.Datasets()
}

// ResolveDataset returns the dataset a name selects. Empty names pick the
// first configured dataset; unknown names fall back to it with a warning.
func (a *Assistant) ResolveDataset(datasetName string) (string, []dataset.Warning) {
	name, warn := a.resolve(datasetName)
	if warn != nil {
		return name, []dataset.Warning{*warn}
	}
	return name, nil
}

// Sessions exposes the session store.
func (a *Assistant) Sessions() *session.Store {
	return a.sessions
}

// RetrievalEnabled reports whether chat narrows its context by similarity.
func (a *Assistant) RetrievalEnabled() bool {
	return a.retrieval != nil
}

// BIReportURL is the embedded business intelligence report.
func (a *Assistant) BIReportURL() string {
	return a.opts.BIReportURL
}

// MonitorView is the evaluation monitor table for one dataset.
type MonitorView struct {
	Dataset  string            `json:"dataset"`
	Rows     []export.Row      `json:"rows"`
	Summary  export.Summary    `json:"summary"`
	Warnings []dataset.Warning `json:"warnings,omitempty"`
}

// Monitor lists the eligible calls of a dataset with their key metrics.
// limit <= 0 lists every call.
func (a *Assistant) Monitor(datasetName string, limit int) MonitorView {
	if limit < 0 {
		limit = 0
	}
	name, res := a.load(datasetName, limit)
	rows := export.RowsFromRecords(res.Records)
	return MonitorView{
		Dataset:  name,
		Rows:     rows,
		Summary:  export.Summarize(rows),
		Warnings: res.Warnings,
	}
}

// Inspect assembles the detail view of one call, audio included. The lookup
// covers every record of the dataset, including those without an evaluation.
func (a *Assistant) Inspect(ctx context.Context, datasetName, id string) (inspect.Detail, []dataset.Warning, error) {
	rec, warnings, err := a.lookup(datasetName, id)
	if err != nil {
		return inspect.Detail{}, warnings, err
	}

	var fetcher inspect.Fetcher
	if a.uploader != nil {
		fetcher = a.uploader
	}
	return inspect.Assemble(ctx, rec, fetcher), warnings, nil
}

// Describe is Inspect without downloading the recording.
func (a *Assistant) Describe(ctx context.Context, datasetName, id string) (inspect.Detail, []dataset.Warning, error) {
	rec, warnings, err := a.lookup(datasetName, id)
	if err != nil {
		return inspect.Detail{}, warnings, err
	}
	return inspect.Assemble(ctx, rec, nil), warnings, nil
}

func (a *Assistant) lookup(datasetName, id string) (dataset.Record, []dataset.Warning, error) {
	ds, warn := a.resolve(datasetName)
	rec, ok, warnings := a.loader.Lookup(ds, id)
	if warn != nil {
		warnings = append([]dataset.Warning{*warn}, warnings...)
	}
	if !ok {
		return dataset.Record{}, warnings, fmt.Errorf("%w: %s", ErrCallNotFound, id)
	}
	return rec, warnings, nil
}

// ContextPreview returns the start of the chat context for a dataset.
func (a *Assistant) ContextPreview(datasetName string, limit, maxChars int) string {
	_, res := a.load(datasetName, a.limit(limit))
	return truncateRunes(prompt.BuildContext(res.Records), maxChars)
}

// load resolves the dataset name and loads its eligible records. The
// fallback warning, if any, comes first.
func (a *Assistant) load(datasetName string, limit int) (string, dataset.Result) {
	ds, warn := a.resolve(datasetName)
	res := a.loader.Load(ds, limit)
	if warn != nil {
		res.Warnings = append([]dataset.Warning{*warn}, res.Warnings...)
	}
	return ds, res
}

// resolve maps an empty or unknown name to the first dataset. Only unknown
// names produce a warning.
func (a *Assistant) resolve(datasetName string) (string, *dataset.Warning) {
	registry := a.loader.Registry()
	if datasetName == "" {
		return registry.First().Name, nil
	}
	ds, warn := registry.Resolve(datasetName)
	if warn != nil {
		a.log.WithField("dataset", datasetName).Warn(warn.Message)
	}
	return ds.Name, warn
}

// limit maps 0 to the default limit and negative values to no limit.
func (a *Assistant) limit(limit int) int {
	switch {
	case limit == 0:
		return a.opts.DefaultLimit
	case limit < 0:
		return 0
	default:
		return limit
	}
}
