package cmd

import (
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/taskflow/internal/actions"
	"github.com/hugo-lorenzo-mato/taskflow/internal/api"
	"github.com/hugo-lorenzo-mato/taskflow/internal/definition"
	"github.com/hugo-lorenzo-mato/taskflow/internal/engine"
	"github.com/hugo-lorenzo-mato/taskflow/internal/events"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for listing and running workflows.

Examples:
  # Start with defaults (localhost:8080)
  taskflow serve

  # Start on custom host and port, reloading definitions on change
  taskflow serve --host 0.0.0.0 --port 3000 --watch

  # Disable CORS (for production behind a reverse proxy)
  taskflow serve --no-cors`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveNoCORS bool

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost",
		"Host address to bind to")
	serveCmd.Flags().IntP("port", "p", 8080,
		"Port to listen on")
	serveCmd.Flags().BoolVar(&serveNoCORS, "no-cors", false,
		"Disable CORS headers")
	serveCmd.Flags().Bool("watch", false,
		"Reload the definitions file when it changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	logger := newLogger(cfg)

	eventBus := events.New(cfg.Events.BufferSize)
	defer eventBus.Close()

	eng := engine.New(cfg.EngineOptions(logger, eventBus)...)

	watcher := definition.NewWatcher(cfg.Definitions.Path, actions.Default(), eng, logger)
	if cfg.Definitions.Watch {
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Close()
	} else if _, err := watcher.Reload(); err != nil {
		return err
	}

	server := api.NewServer(eng, eventBus,
		api.WithLogger(logger),
		api.WithCORS(cfg.Server.CORS && !serveNoCORS),
		api.WithRunHistory(cfg.Server.RunHistory),
		api.WithDefaultContext(watcher.Context),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if err := server.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
