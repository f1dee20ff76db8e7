package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"xlsxdiff/internal/config"
	"xlsxdiff/internal/logging"
	"xlsxdiff/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		host   string
		prefix string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI for uploading and comparing workbooks",
		Long: `serve starts an HTTP server with a browser UI: upload two workbooks,
pick sheets and key columns, run the comparison, and download the report
and annotated copies. Configuration comes from environment variables
(optionally a .env file); the flags below override it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load .env if present; real env vars keep precedence the
			// other way around with Overload, matching how deployments
			// pin settings.
			if err := godotenv.Overload(); err != nil {
				slog.Info("no .env file found, using environment variables")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("prefix") {
				cfg.Server.Prefix = prefix
			}

			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			slog.Info("configuration loaded",
				"addr", cfg.Server.Addr(),
				"prefix", cfg.Server.Prefix,
				"max_file_size", cfg.Upload.MaxFileSize,
				"workspace_ttl", cfg.Workspace.TTL,
			)

			return serve(cfg)
		},
		SilenceUsage: true,
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "interface to bind to")
	serveCmd.Flags().StringVar(&prefix, "prefix", "", "URL path prefix, e.g. excel-compare")

	return serveCmd
}

func serve(cfg *config.Config) error {
	workspace, err := web.NewWorkspace(cfg.Workspace)
	if err != nil {
		return err
	}
	defer workspace.Close()

	server := web.NewServer(cfg, workspace)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("server stopped")
	return nil
}
