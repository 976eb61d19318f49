package commands

import (
	"context"
	"fitscrape/internal/catalog"
	"fitscrape/internal/components/telemetry"
	"fitscrape/internal/scrapers/fitnessprogramer"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var (
	scrapeMuscles       []string
	scrapeOut           string
	scrapeMaxPages      int
	scrapeDumpResponses string
)

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeMuscles, "muscle", nil, "A muscle group to scrape, may be repeated. Defaults to every known group.")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "The file to write the exercise dump to. (default from config, dump.json)")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "The maximum number of listing pages per muscle group. (default from config, 100)")
	scrapeCmd.Flags().StringVar(&scrapeDumpResponses, "dump-responses", "", "A directory to write every HTTP exchange to, for debugging selectors.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--muscle <group>]... [--out <path/to/dump.json>] [--max-pages <n>]",
	Short: "Scrapes every exercise of the given muscle groups and writes them to a JSON dump.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config
		if len(scrapeMuscles) > 0 {
			cfg.Muscles = scrapeMuscles
		}
		if scrapeOut != "" {
			cfg.Output = scrapeOut
		}
		if scrapeMaxPages > 0 {
			cfg.MaxPages = scrapeMaxPages
		}
		if scrapeDumpResponses != "" {
			cfg.DumpResponses = scrapeDumpResponses
		}

		t1 := time.Now()
		result, err := Scrape(cmd.Context(), cfg, reporter)
		if err != nil {
			fatal("failed to scrape", err)
		}
		t2 := time.Now()

		err = result.WriteFile(cfg.Output)
		if err != nil {
			fatal("failed to write dump", err)
		}

		slog.Info(
			"scraping done",
			"exercises", result.Len(),
			"out", cfg.Output,
			"seconds", t2.Sub(t1).Seconds(),
		)
	},
}

// Scrape crawls every muscle group of `cfg` into a fresh catalog, nothing is
// returned unless the whole crawl succeeded.
func Scrape(ctx context.Context, cfg Config, tel telemetry.API) (*catalog.Catalog, error) {
	if len(cfg.Muscles) == 0 {
		return nil, fmt.Errorf("no muscle groups to scrape")
	}
	if cfg.MaxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive, got %d", cfg.MaxPages)
	}

	clientOpts, err := cfg.ClientOptions()
	if err != nil {
		return nil, err
	}
	client := fitnessprogramer.NewClient(clientOpts, tel)
	crawler := fitnessprogramer.NewCrawler(client, cfg.CrawlOptions(), tel)

	result := catalog.New()
	err = crawler.Crawl(ctx, cfg.Muscles, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
