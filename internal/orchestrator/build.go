package orchestrator

import (
	"context"
	"fmt"

	"github.com/Yates-Labs/auditbot/internal/config"
	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/Yates-Labs/auditbot/internal/storage"
)

// BuildOptions are command-line overrides applied on top of the config.
type BuildOptions struct {
	// Offline uses the mock model and the in-memory object store.
	Offline bool

	// Retrieval forces the evaluation index on.
	Retrieval bool

	// History forces chat history replay on.
	History bool
}

// Build wires an assistant from configuration. Only configuration errors are
// returned: an unreachable object store or vector store disables the
// features that need it and is logged.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, opts BuildOptions) (*Assistant, error) {
	if log == nil {
		log = logger.Discard()
	}

	registry, err := dataset.NewRegistry(cfg.Datasets)
	if err != nil {
		return nil, fmt.Errorf("invalid datasets: %w", err)
	}
	loader := dataset.NewLoader(registry, log)

	gwCfg := cfg.Gateway
	if opts.Offline {
		gwCfg.Provider = "mock"
	}
	model, err := gateway.NewModel(ctx, gwCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	gw := gateway.New(model, gwCfg.Profiles, log)

	var closers []func() error

	var uploader *storage.Uploader
	switch {
	case opts.Offline || cfg.Storage.Backend == "memory":
		uploader = storage.NewUploader(storage.NewMemoryBackend(), cfg.Storage.Config, log)
	case cfg.Storage.Backend == "gcs":
		backend, err := storage.NewGCSBackend(ctx)
		if err != nil {
			log.WithError(err).Warn("object store unavailable, audio features disabled")
		} else {
			uploader = storage.NewUploader(backend, cfg.Storage.Config, log)
			closers = append(closers, backend.Close)
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	var retrieval *Retrieval
	if (cfg.Retrieval.Enabled || opts.Retrieval) && !opts.Offline {
		retrieval, err = OpenRetrieval(ctx, cfg.Retrieval, cfg.Gateway.OpenAIAPIKey, log)
		if err != nil {
			log.WithError(err).Warn("evaluation index unavailable, chat uses full context")
			retrieval = nil
		} else {
			closers = append(closers, retrieval.Close)
		}
	}

	if cfg.Watch {
		watcher := dataset.NewWatcher(loader, log)
		if err := watcher.Start(ctx); err != nil {
			log.WithError(err).Warn("dataset watcher unavailable")
		} else {
			closers = append(closers, func() error {
				watcher.Stop()
				return nil
			})
		}
	}

	sessions := session.NewStoreWithTTL(cfg.Server.SessionTTL)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sessions.Run(sweepCtx, cfg.Server.SessionTTL/4)
	closers = append(closers, func() error {
		stopSweep()
		return nil
	})

	a := New(loader, gw, uploader, sessions, Options{
		DefaultLimit:    cfg.DefaultLimit,
		HistoryEnabled:  cfg.History.Enabled || opts.History,
		HistoryMessages: cfg.History.MaxMessages,
		BIReportURL:     cfg.BIReportURL,
		Retrieval:       retrieval,
	}, log)
	a.closers = closers
	return a, nil
}
