package fitnessprogramer

import (
	"context"
	"fitscrape/internal/catalog"
	"fitscrape/internal/components/assert"
	"fitscrape/internal/components/telemetry"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	report_crawler_crawl_muscle    = "crawler.crawl-muscle"
	report_crawler_duplicate_title = "crawler.duplicate-title"
	report_crawler_page_bound      = "crawler.page-bound"
	report_crawler_pages           = "crawler.pages"
)

const DefaultListingUrl = "https://fitnessprogramer.com/exercise-primary-muscle/{muscle}/page/{page}/"

// DefaultMaxPages bounds the pages crawled for a single muscle group, the
// largest group on the site is well under this.
const DefaultMaxPages = 100

var DefaultMuscles = []string{
	"neck",
	"trapezius",
	"shoulder",
	"chest",
	"back",
	"erector-spinae",
	"biceps",
	"triceps",
	"forearm",
	"abs",
	"leg",
	"calf",
	"hips",
	"cardio",
	"full-body",
}

type CrawlOptions struct {
	// ListingUrl is the listing page template, "{muscle}" and "{page}" are
	// substituted for every page.
	ListingUrl string
	MaxPages   int
}

type crawlState int

const (
	stateFetchingPage crawlState = iota
	stateDone
)

// Crawler walks the listing pages of muscle groups one page at a time.
type Crawler struct {
	client *Client
	opts   CrawlOptions
	tel    telemetry.API
}

func NewCrawler(client *Client, opts CrawlOptions, tel telemetry.API) Crawler {
	assert.NotNil(client)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.ListingUrl)
	assert.Positive("max pages", opts.MaxPages)

	return Crawler{
		client: client,
		opts:   opts,
		tel:    telemetry.NewScopedAPI("crawler", tel),
	}
}

func (c Crawler) ListingUrl(muscle string, page int) string {
	return strings.NewReplacer(
		"{muscle}", url.PathEscape(muscle),
		"{page}", strconv.Itoa(page),
	).Replace(c.opts.ListingUrl)
}

// Crawl crawls every muscle group in order into `out`. Only fatal errors are
// returned: a transport failure, markup missing a required element or ctx
// being done. A listing page answering with a non-200 status just ends its
// muscle group.
func (c Crawler) Crawl(ctx context.Context, muscles []string, out *catalog.Catalog) error {
	assert.NotNil(out)

	for _, muscle := range muscles {
		slog.InfoContext(ctx, "current muscle group", "muscle", muscle)

		pages, err := c.CrawlMuscle(ctx, muscle, out)
		if err != nil {
			return err
		}

		slog.InfoContext(
			ctx, "finished muscle group",
			"muscle", muscle,
			"pages", pages,
			"exercises", out.Len(),
		)
	}
	return nil
}

// CrawlMuscle crawls the listing pages of one muscle group starting at page
// 1 and returns how many listing pages were requested.
func (c Crawler) CrawlMuscle(ctx context.Context, muscle string, out *catalog.Catalog) (int, error) {
	page := 1
	fetched := 0
	state := stateFetchingPage

	for state == stateFetchingPage {
		err := ctx.Err()
		if err != nil {
			return fetched, err
		}

		link := c.ListingUrl(muscle, page)
		slog.InfoContext(ctx, "scraping page", "muscle", muscle, "page", page, "url", link)

		listing, status, err := c.client.Listing(ctx, link)
		fetched++
		if err != nil {
			c.tel.ReportBroken(report_crawler_crawl_muscle, err, muscle, page)
			return fetched, fmt.Errorf("crawl %s page %d: %w", muscle, page, err)
		}
		slog.InfoContext(ctx, "fetched page", "url", link, "status", status)

		if status != http.StatusOK {
			slog.WarnContext(
				ctx, "failed to fetch page, stopping muscle group",
				"muscle", muscle,
				"page", page,
				"status", status,
			)
			state = stateDone
			continue
		}

		err = c.collect(ctx, listing, out)
		if err != nil {
			c.tel.ReportBroken(report_crawler_crawl_muscle, err, muscle, page)
			return fetched, fmt.Errorf("crawl %s page %d: %w", muscle, page, err)
		}

		state = c.next(ctx, muscle, page, listing)
		page++
	}

	c.tel.ReportCount(report_crawler_pages, int64(fetched))
	return fetched, nil
}

func (c Crawler) next(ctx context.Context, muscle string, page int, listing Listing) crawlState {
	if !listing.HasNextPage {
		slog.InfoContext(ctx, "no next page", "muscle", muscle, "page", page)
		return stateDone
	}
	if page >= c.opts.MaxPages {
		c.tel.ReportWarning(
			report_crawler_page_bound,
			fmt.Errorf("stopped at page bound %d with a next page still linked", c.opts.MaxPages),
			muscle,
		)
		return stateDone
	}
	slog.InfoContext(ctx, "found next page", "muscle", muscle, "page", page+1)
	return stateFetchingPage
}

// collect fetches the details of every entry, in page order, and merges the
// resulting exercises into `out`.
func (c Crawler) collect(ctx context.Context, listing Listing, out *catalog.Catalog) error {
	for _, entry := range listing.Entries {
		exercise, err := c.client.Exercise(ctx, entry)
		if err != nil {
			return err
		}

		previous, replaced, err := out.Put(exercise)
		if err != nil {
			return err
		}
		// same-titled exercises are overwritten, whether the site reuses a
		// title for distinct exercises is unknown so it is surfaced here
		if replaced && previous.Url != exercise.Url {
			c.tel.ReportWarning(
				report_crawler_duplicate_title,
				exercise.Title,
				previous.Url,
				exercise.Url,
			)
		}
	}
	return nil
}
