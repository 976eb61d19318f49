package commands

import (
	"fitscrape/internal/catalog"
	"fitscrape/internal/store"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	exportIn string
	exportDb string
)

func init() {
	exportCmd.Flags().StringVar(&exportIn, "in", "", "The exercise dump to read. (default from config, dump.json)")
	exportCmd.Flags().StringVar(&exportDb, "db", "", "The sqlite database to write to. (default from config, fitscrape.db)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--in <path/to/dump.json>] [--db <path/to/output.db>]",
	Short: "Copies an exercise dump into a sqlite database, replacing what it held.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		in := exportIn
		if in == "" {
			in = config.Output
		}
		dbPath := exportDb
		if dbPath == "" {
			dbPath = config.Database
		}

		result, err := catalog.ReadFile(in)
		if err != nil {
			fatal("failed to read dump", err)
		}

		out, err := store.Open(dbPath)
		if err != nil {
			fatal("failed to open db", err)
		}
		defer out.Close()

		run, err := out.Replace(cmd.Context(), result, in)
		if err != nil {
			fatal("failed to export", err)
		}
		slog.Info("exported dump", "run", run.Id, "exercises", run.Exercises, "db", dbPath)
	},
}
