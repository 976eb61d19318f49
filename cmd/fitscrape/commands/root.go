package commands

import (
	"context"
	"fitscrape/internal/components/configutil"
	"fitscrape/internal/components/serviceutil"
	"fitscrape/internal/components/telemetry"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	config   Config
	otelSdk  telemetry.Telemetry
	reporter telemetry.API = telemetry.SlogAPI{}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "fitscrape.json5", "The config file, a fitscrape.local.json5 next to it overrides it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output, including every request made.")
}

var rootCmd = &cobra.Command{
	Use:   "fitscrape",
	Short: "fitscrape is a CLI for scraping the fitnessprogramer.com exercise catalog.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		config, err = LoadConfig(configPath)
		if err != nil {
			return err
		}

		otelSdk, err = telemetry.Setup(cmd.Context(), "fitscrape", config.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if config.Telemetry.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context())
		}

		err = telemetry.InitSentry(config.Telemetry.Sentry)
		if err != nil {
			return err
		}
		if config.Telemetry.Sentry.Dsn != "" {
			reporter = telemetry.NewSentryAPI(telemetry.SlogAPI{}, nil)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		flushTelemetry()
	},
}

func flushTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := otelSdk.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
	if config.Telemetry.Sentry.Dsn != "" {
		telemetry.FlushSentry(time.Second * 2)
	}
}

// fatal flushes pending telemetry before exiting.
func fatal(message string, err error) {
	flushTelemetry()
	serviceutil.Fatal(message, err)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// LoadConfig reads the config at `path` over DefaultConfig, a missing file
// leaves the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(path, DefaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}
