package fitnessprogramer

import (
	"fitscrape/internal/components/telemetry"
	"fitscrape/pkg/htmlutil"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_details_bar = "details.bar"
)

const (
	selectorDetailsBar      = ".vc_progress_bar .vc_single_bar"
	selectorDetailsLabel    = "small.vc_label"
	selectorDetailsValue    = "span.vc_bar"
	attributeDetailsPercent = "data-percentage-value"
)

// ParseDetails maps every muscle label on a details page to its involvement
// percentage. Values are kept as found, a label repeated on the page keeps
// its last value.
func ParseDetails(doc *goquery.Document, tel telemetry.API) map[string]string {
	musclesWorked := map[string]string{}

	doc.Find(selectorDetailsBar).Each(func(i int, bar *goquery.Selection) {
		labelSel := bar.Find(selectorDetailsLabel).First()
		if labelSel.Length() == 0 {
			tel.ReportWarning(report_details_bar, fmt.Errorf("%w: %s", ErrMissingElement, selectorDetailsLabel), i)
			return
		}
		label := htmlutil.SelectionStrippedText(labelSel)

		percentage, ok := bar.Find(selectorDetailsValue).First().Attr(attributeDetailsPercent)
		if !ok {
			tel.ReportWarning(
				report_details_bar,
				fmt.Errorf("%w: %s[%s]", ErrMissingElement, selectorDetailsValue, attributeDetailsPercent),
				label,
			)
			return
		}

		musclesWorked[label] = percentage
	})

	return musclesWorked
}
