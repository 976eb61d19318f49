package commands

import (
	"fitscrape/internal/components/telemetry"
	"fitscrape/internal/scrapers/fitnessprogramer"
	"fitscrape/pkg/restyutil"
	"fmt"
	"slices"
	"time"
)

type Config struct {
	ListingUrl              string   `json:"listing_url"`
	Muscles                 []string `json:"muscles"`
	Output                  string   `json:"output"`
	Database                string   `json:"database"`
	Addr                    string   `json:"addr"`
	RefreshCron             string   `json:"refresh_cron"`
	MaxPages                int      `json:"max_pages"`
	UserAgent               string   `json:"user_agent"`
	TimeoutSeconds          int      `json:"timeout_seconds"`
	DisableCloudflareBypass bool     `json:"disable_cloudflare_bypass"`
	// a directory every response is written to, empty disables it
	DumpResponses string           `json:"dump_responses"`
	Telemetry     telemetry.Config `json:"telemetry"`
}

func DefaultConfig() Config {
	return Config{
		ListingUrl: fitnessprogramer.DefaultListingUrl,
		Muscles:    slices.Clone(fitnessprogramer.DefaultMuscles),
		Output:     "dump.json",
		Database:   "fitscrape.db",
		Addr:       "localhost:8080",
		MaxPages:   fitnessprogramer.DefaultMaxPages,
		UserAgent:  fitnessprogramer.DefaultUserAgent,
	}
}

func (c Config) ClientOptions() (fitnessprogramer.ClientOptions, error) {
	opts := fitnessprogramer.ClientOptions{
		UserAgent:               c.UserAgent,
		Timeout:                 time.Duration(c.TimeoutSeconds) * time.Second,
		DisableCloudflareBypass: c.DisableCloudflareBypass,
	}
	if c.DumpResponses != "" {
		output, err := restyutil.NewFilesystemOutput(c.DumpResponses)
		if err != nil {
			return fitnessprogramer.ClientOptions{}, fmt.Errorf("response dump: %w", err)
		}
		opts.ResponseDump = output
	}
	return opts, nil
}

func (c Config) CrawlOptions() fitnessprogramer.CrawlOptions {
	return fitnessprogramer.CrawlOptions{
		ListingUrl: c.ListingUrl,
		MaxPages:   c.MaxPages,
	}
}
