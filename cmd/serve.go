package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yates-Labs/auditbot/internal/orchestrator"
	"github.com/Yates-Labs/auditbot/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveRetrieve  bool
	serveHistory   bool
	shutdownPeriod = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API over HTTP",
	Long: `Serve every dashboard mode as a JSON API for the browser front-end.

State (chat history, last transcription) is kept per session, identified by
the X-Session-ID header.

Examples:
  auditbot serve
  auditbot serve --addr :9000 --retrieve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address host:port (default from config)")
	serveCmd.Flags().BoolVar(&serveRetrieve, "retrieve", false, "Narrow chat context via the evaluation index")
	serveCmd.Flags().BoolVar(&serveHistory, "history", false, "Replay recent chat turns to the model")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	assistant, cfg, log, err := setup(ctx, orchestrator.BuildOptions{Retrieval: serveRetrieve, History: serveHistory})
	if err != nil {
		return err
	}
	defer assistant.Close()

	serverCfg := cfg.Server
	if serveAddr != "" {
		if err := serverCfg.SetAddr(serveAddr); err != nil {
			return fmt.Errorf("invalid --addr: %w", err)
		}
	}
	srv := server.NewServer(assistant, serverCfg, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
