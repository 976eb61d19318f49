package fitnessprogramer

import (
	"errors"
	"fitscrape/internal/components/telemetry"
	"fitscrape/pkg/htmlutil"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_listing_entry = "listing.entry"
)

const (
	selectorListingContainer = "div.wpt_exercise_archive.taxonomy_archive"
	selectorListingEntry     = "article"
	selectorEntryTitle       = "h2.title a"
	selectorEntryEquipment   = "div.exercise_meta.equipment"
	selectorEntryPrimary     = "div.exercise_meta.primary_muscles"
	selectorEntryImage       = "img"
	selectorEntryDetails     = "a.button"
	selectorPaginationNext   = "div.pagination.winner_pagination a.next.page-numbers"

	labelEquipment      = "Equipment:"
	labelPrimaryMuscles = "Primary Muscles:"
)

// ErrMissingElement is returned when the markup lacks an element the scraper
// cannot do without, this usually means the site changed its layout.
var ErrMissingElement = errors.New("missing element")

type ListingEntry struct {
	Title          string
	Url            string
	Equipment      string
	PrimaryMuscles string
	// empty when the entry has no image
	ImageUrl string
	// empty when the entry has no details link
	DetailsUrl string
}

type Listing struct {
	Entries     []ListingEntry
	HasNextPage bool
}

// ParseListing extracts every exercise entry of a listing page. `page` is the
// url the document was fetched from and is used to resolve relative links,
// it may be nil.
func ParseListing(page *url.URL, doc *goquery.Document, tel telemetry.API) (Listing, error) {
	var listing Listing

	container := doc.Find(selectorListingContainer).First()
	entries := container.Find(selectorListingEntry)
	for i := range entries.Nodes {
		entry, err := parseListingEntry(page, entries.Eq(i), tel)
		if err != nil {
			return Listing{}, fmt.Errorf("listing %s: entry %d: %w", page, i, err)
		}
		listing.Entries = append(listing.Entries, entry)
	}

	listing.HasNextPage = doc.Find(selectorPaginationNext).Length() > 0
	return listing, nil
}

func parseListingEntry(page *url.URL, article *goquery.Selection, tel telemetry.API) (ListingEntry, error) {
	titleLink := article.Find(selectorEntryTitle).First()
	if titleLink.Length() == 0 {
		return ListingEntry{}, fmt.Errorf("%w: %s", ErrMissingElement, selectorEntryTitle)
	}
	title := htmlutil.SelectionStrippedText(titleLink)
	if title == "" {
		return ListingEntry{}, fmt.Errorf("%w: text of %s", ErrMissingElement, selectorEntryTitle)
	}
	href, ok := titleLink.Attr("href")
	if !ok || href == "" {
		return ListingEntry{}, fmt.Errorf("%w: href of %s (title %q)", ErrMissingElement, selectorEntryTitle, title)
	}
	link, err := htmlutil.ResolveHref(page, href)
	if err != nil {
		return ListingEntry{}, fmt.Errorf("title link of %q: %w", title, err)
	}

	entry := ListingEntry{
		Title: title,
		Url:   link,
	}

	equipment := article.Find(selectorEntryEquipment).First()
	if equipment.Length() > 0 {
		entry.Equipment = htmlutil.TrimLabel(htmlutil.SelectionStrippedText(equipment), labelEquipment)
	} else {
		tel.ReportWarning(report_listing_entry, fmt.Errorf("%w: %s", ErrMissingElement, selectorEntryEquipment), title)
	}

	primary := article.Find(selectorEntryPrimary).First()
	if primary.Length() > 0 {
		entry.PrimaryMuscles = htmlutil.TrimLabel(htmlutil.SelectionStrippedText(primary), labelPrimaryMuscles)
	} else {
		tel.ReportWarning(report_listing_entry, fmt.Errorf("%w: %s", ErrMissingElement, selectorEntryPrimary), title)
	}

	if src, ok := article.Find(selectorEntryImage).First().Attr("src"); ok {
		entry.ImageUrl, err = htmlutil.ResolveHref(page, src)
		if err != nil {
			tel.ReportWarning(report_listing_entry, fmt.Errorf("image url: %w", err), title, src)
			entry.ImageUrl = ""
		}
	}

	if href, ok := article.Find(selectorEntryDetails).First().Attr("href"); ok && href != "" {
		entry.DetailsUrl, err = htmlutil.ResolveHref(page, href)
		if err != nil {
			tel.ReportWarning(report_listing_entry, fmt.Errorf("details url: %w", err), title, href)
			entry.DetailsUrl = ""
		}
	}

	return entry, nil
}
