package commands

import (
	"context"
	"errors"
	"fitscrape/internal/components/chrono"
	"fitscrape/internal/components/telemetry"
	"fitscrape/internal/mcp"
	"fitscrape/internal/server"
	"fitscrape/internal/store"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	serveDb      string
	serveAddr    string
	serveRefresh string
)

func init() {
	serveCmd.Flags().StringVar(&serveDb, "db", "", "The sqlite database written by export. (default from config, fitscrape.db)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "The address to listen on. (default from config, localhost:8080)")
	serveCmd.Flags().StringVar(&serveRefresh, "refresh", "", "A cron spec, e.g. '@daily', to re-scrape the site into the db on. (default from config, never)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--db <path/to/fitscrape.db>] [--addr <host:port>] [--refresh <cron spec>]",
	Short: "Serves an exported catalog as a JSON API, with an MCP endpoint at /mcp.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := serveDb
		if dbPath == "" {
			dbPath = config.Database
		}
		addr := serveAddr
		if addr == "" {
			addr = config.Addr
		}
		refresh := serveRefresh
		if refresh == "" {
			refresh = config.RefreshCron
		}

		err := Serve(cmd.Context(), config, ServeOptions{
			Database: dbPath,
			Addr:     addr,
			Refresh:  refresh,
		}, reporter)
		if err != nil {
			fatal("failed to serve", err)
		}
	},
}

type ServeOptions struct {
	Database string
	Addr     string
	// cron spec, empty disables scheduled refreshes
	Refresh string
}

// Serve runs the catalog API until ctx is done. The database and the refresh
// schedule are released before it returns.
func Serve(ctx context.Context, cfg Config, opts ServeOptions, tel telemetry.API) error {
	db, err := store.Open(opts.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if opts.Refresh != "" {
		cron := chrono.NewStandardCron(tel)
		defer cron.Stop(context.Background())

		err = cron.Cron(opts.Refresh, func() {
			err := Refresh(ctx, cfg, db, tel)
			if err != nil {
				slog.Error("failed to refresh catalog", "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid refresh schedule: %w", err)
		}
		slog.Info("scheduled catalog refresh", "spec", opts.Refresh)
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	mcpHandler := mcpserver.NewStreamableHTTPServer(mcp.New(db, version))
	httpSrv := &http.Server{
		Handler: server.New(db, mcpHandler),
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("failed to shut down server", "err", err)
		}
	}()

	slog.Info("serving catalog", "addr", listener.Addr().String(), "db", opts.Database)
	err = httpSrv.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	return nil
}

// Refresh scrapes the site and replaces the contents of `db` with the result,
// `db` is left untouched when the scrape fails.
func Refresh(ctx context.Context, cfg Config, db store.Store, tel telemetry.API) error {
	result, err := Scrape(ctx, cfg, tel)
	if err != nil {
		return err
	}
	run, err := db.Replace(ctx, result, "scrape")
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "refreshed catalog", "run", run.Id, "exercises", run.Exercises)
	return nil
}
