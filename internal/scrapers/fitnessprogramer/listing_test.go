package fitnessprogramer

import (
	"fitscrape/internal/components/telemetry"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseListingEmpty(t *testing.T) {
	table := []struct {
		name   string
		markup string
	}{
		{name: "no container", markup: `<html><body><p>nothing here</p></body></html>`},
		{name: "empty container", markup: renderListing(nil, false)},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			listing, err := ParseListing(nil, parseDoc(t, row.markup), &telemetry.Recorder{})
			require.NoError(t, err)
			require.Empty(t, listing.Entries)
			require.False(t, listing.HasNextPage)
		})
	}
}

func TestParseListingEntries(t *testing.T) {
	page, err := url.Parse("https://fitnessprogramer.com/exercise-primary-muscle/neck/page/1/")
	require.NoError(t, err)

	markup := renderListing([]testEntry{
		{
			Title:      "Lying Neck Extension",
			Href:       "https://fitnessprogramer.com/exercise/lying-neck-extension/",
			Equipment:  "Body weight",
			Primary:    "Neck",
			Image:      "/wp-content/uploads/lying-neck-extension.gif",
			DetailsUrl: "/exercise/lying-neck-extension/#details",
		},
		{
			Title:     "Barbell Shrug",
			Href:      "/exercise/barbell-shrug/",
			Equipment: "Barbell",
			Primary:   "Trapezius",
		},
	}, true)

	rec := &telemetry.Recorder{}
	listing, err := ParseListing(page, parseDoc(t, markup), rec)
	require.NoError(t, err)
	require.True(t, listing.HasNextPage)

	expected := []ListingEntry{
		{
			Title:          "Lying Neck Extension",
			Url:            "https://fitnessprogramer.com/exercise/lying-neck-extension/",
			Equipment:      "Body weight",
			PrimaryMuscles: "Neck",
			ImageUrl:       "https://fitnessprogramer.com/wp-content/uploads/lying-neck-extension.gif",
			DetailsUrl:     "https://fitnessprogramer.com/exercise/lying-neck-extension/#details",
		},
		{
			Title:          "Barbell Shrug",
			Url:            "https://fitnessprogramer.com/exercise/barbell-shrug/",
			Equipment:      "Barbell",
			PrimaryMuscles: "Trapezius",
		},
	}
	if diff := cmp.Diff(expected, listing.Entries); diff != "" {
		t.Fatal(diff)
	}
	require.Empty(t, rec.Reports("warning"))
}

func TestParseListingLabelStripping(t *testing.T) {
	markup := `<div class="wpt_exercise_archive taxonomy_archive"><article>
		<h2 class="title"><a href="https://example.com/bench">Bench Press</a></h2>
		<div class="exercise_meta equipment">Equipment: Barbell</div>
		<div class="exercise_meta primary_muscles">   Primary Muscles:   Chest, Triceps   </div>
	</article></div>`

	listing, err := ParseListing(nil, parseDoc(t, markup), &telemetry.Recorder{})
	require.NoError(t, err)
	require.Len(t, listing.Entries, 1)
	require.Equal(t, "Barbell", listing.Entries[0].Equipment)
	require.Equal(t, "Chest, Triceps", listing.Entries[0].PrimaryMuscles)
	require.Empty(t, listing.Entries[0].ImageUrl)
	require.Empty(t, listing.Entries[0].DetailsUrl)
}

func TestParseListingMissingTitle(t *testing.T) {
	table := []struct {
		name   string
		markup string
	}{
		{
			name:   "no heading",
			markup: `<div class="wpt_exercise_archive taxonomy_archive"><article><div class="exercise_meta equipment">Equipment: Band</div></article></div>`,
		},
		{
			name:   "no href",
			markup: `<div class="wpt_exercise_archive taxonomy_archive"><article><h2 class="title"><a>Untitled</a></h2></article></div>`,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			_, err := ParseListing(nil, parseDoc(t, row.markup), &telemetry.Recorder{})
			require.ErrorIs(t, err, ErrMissingElement)
			require.Contains(t, err.Error(), selectorEntryTitle)
		})
	}
}

func TestParseListingMissingMetadata(t *testing.T) {
	markup := `<div class="wpt_exercise_archive taxonomy_archive"><article>
		<h2 class="title"><a href="https://example.com/neck-flexion">Neck Flexion</a></h2>
	</article></div>`

	rec := &telemetry.Recorder{}
	listing, err := ParseListing(nil, parseDoc(t, markup), rec)
	require.NoError(t, err)
	require.Len(t, listing.Entries, 1)
	require.Equal(t, "", listing.Entries[0].Equipment)
	require.Equal(t, "", listing.Entries[0].PrimaryMuscles)
	require.Len(t, rec.Reports("warning"), 2)
	require.True(t, rec.Has("warning", report_listing_entry))
}

func TestParseListingNextLinkOutsidePagination(t *testing.T) {
	markup := `<div class="wpt_exercise_archive taxonomy_archive"></div>
		<div class="related"><a class="next page-numbers" href="#">Next</a></div>`

	listing, err := ParseListing(nil, parseDoc(t, markup), &telemetry.Recorder{})
	require.NoError(t, err)
	require.False(t, listing.HasNextPage)
}
