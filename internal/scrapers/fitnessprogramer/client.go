// client.go contains the HTTP side of scraping fitnessprogramer.com, parsing
// lives in listing.go and details.go.

package fitnessprogramer

import (
	"bytes"
	"context"
	"fitscrape/internal/catalog"
	"fitscrape/internal/components/assert"
	"fitscrape/internal/components/telemetry"
	"fitscrape/pkg/restyutil"
	"fmt"
	"net/http"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch   = "client.fetch"
	report_client_details = "client.details"
	report_client_listing = "client.listing"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	UserAgent string
	// Timeout of a single request, zero means requests never time out.
	Timeout                 time.Duration
	DisableCloudflareBypass bool
	// ResponseDump receives every exchange when not nil.
	ResponseDump restyutil.Output
}

// Client fetches listing and details pages.
type Client struct {
	Http *resty.Client
	tel  telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) *Client {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("fitnessprogramer", tel)

	httpClient := resty.New()
	if !opts.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(httpClient, "scrapers/fitnessprogramer/http", tel)
	if opts.ResponseDump != nil {
		restyutil.DumpResponses(httpClient, opts.ResponseDump)
	}

	return &Client{
		Http: httpClient,
		tel:  tel,
	}
}

// Page is the raw result of a GET.
type Page struct {
	Url        *url.URL
	StatusCode int
	Body       []byte
}

// Ok reports whether the page body may be parsed.
func (p Page) Ok() bool {
	return p.StatusCode == http.StatusOK
}

func (p Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(p.Body))
}

// Fetch performs a single GET, a non-200 status is not an error, only a
// request that got no response at all is.
func (c *Client) Fetch(ctx context.Context, link string) (Page, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return Page{}, fmt.Errorf("parse url %q: %w", link, err)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch,
			fmt.Errorf("fetch: %w", err),
			link,
		)
		return Page{}, fmt.Errorf("fetch %s: %w", link, err)
	}

	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// redirects are followed, relative links must resolve against the final url
		parsed = res.RawResponse.Request.URL
	}

	return Page{
		Url:        parsed,
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
	}, nil
}

// Listing fetches and parses one listing page. The body is only parsed when
// `status` is 200, any other status returns an empty listing and no error.
func (c *Client) Listing(ctx context.Context, link string) (listing Listing, status int, err error) {
	page, err := c.Fetch(ctx, link)
	if err != nil {
		return Listing{}, 0, err
	}
	if !page.Ok() {
		return Listing{}, page.StatusCode, nil
	}

	doc, err := page.Document()
	if err != nil {
		c.tel.ReportBroken(
			report_client_listing,
			fmt.Errorf("parse: %w", err),
			link,
		)
		return Listing{}, page.StatusCode, fmt.Errorf("parse listing %s: %w", link, err)
	}

	listing, err = ParseListing(page.Url, doc, c.tel)
	if err != nil {
		c.tel.ReportBroken(report_client_listing, err, link)
		return Listing{}, page.StatusCode, err
	}
	return listing, page.StatusCode, nil
}

// Details fetches a details page and returns its muscle involvement, a
// failed fetch yields an empty map instead of an error so a single broken
// details page does not lose the listing entry.
func (c *Client) Details(ctx context.Context, link string) (map[string]string, error) {
	page, err := c.Fetch(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.tel.ReportWarning(report_client_details, err, link)
		return map[string]string{}, nil
	}
	if !page.Ok() {
		c.tel.ReportWarning(
			report_client_details,
			fmt.Errorf("unexpected status %d", page.StatusCode),
			link,
		)
		return map[string]string{}, nil
	}

	doc, err := page.Document()
	if err != nil {
		c.tel.ReportWarning(
			report_client_details,
			fmt.Errorf("parse: %w", err),
			link,
		)
		return map[string]string{}, nil
	}

	return ParseDetails(doc, c.tel), nil
}

// Exercise turns a listing entry into a catalog exercise, fetching its
// details page first when it has one.
func (c *Client) Exercise(ctx context.Context, entry ListingEntry) (catalog.Exercise, error) {
	musclesWorked := map[string]string{}
	if entry.DetailsUrl != "" {
		details, err := c.Details(ctx, entry.DetailsUrl)
		if err != nil {
			return catalog.Exercise{}, err
		}
		musclesWorked = details
	}

	return catalog.Exercise{
		Title:          entry.Title,
		Url:            entry.Url,
		Equipment:      entry.Equipment,
		PrimaryMuscles: entry.PrimaryMuscles,
		ImageUrl:       entry.ImageUrl,
		DetailsUrl:     entry.DetailsUrl,
		MusclesWorked:  musclesWorked,
	}, nil
}
