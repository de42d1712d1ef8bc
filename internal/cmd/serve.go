package cmd

import (
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Malikxolo/Customer-Support-agent/internal/config"
	"github.com/Malikxolo/Customer-Support-agent/internal/maintenance"
	"github.com/Malikxolo/Customer-Support-agent/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the support-agent HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, span := tracer.Start(cmd.Context(), "serve")
	defer span.End()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, log.Logger)
	if err != nil {
		return err
	}
	defer p.close()

	janitor := maintenance.New(p.store, p.historyStore, cfg.HistoryRetentionDays, log.Logger)
	if err := janitor.Start(); err != nil {
		return err
	}
	defer janitor.Stop()

	srv := server.NewServer(p.orchestrator, p.store, cfg.APIKeys, log.Logger,
		server.WithHistoryStore(p.historyStore),
		server.WithRateLimiter(server.NewRateLimiter(cfg.GlobalRPM, cfg.PerOwnerRPM)),
	)

	if err := srv.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info().Str("event", "server_stopped").Msg("shut down cleanly")
	return nil
}
