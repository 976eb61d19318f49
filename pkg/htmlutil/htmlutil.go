package htmlutil

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, false)
	return buffer.String()
}

// GetStrippedText returns the text of `node` with every text node trimmed of
// surrounding whitespace before being joined, so "<b>Equipment:</b>\n Barbell"
// becomes "Equipment:Barbell".
func GetStrippedText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer, true)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer, strip bool) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		if strip {
			buffer.WriteString(strings.TrimSpace(node.Data))
			return
		}
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer, strip)
		child = child.NextSibling
	}
}

// SelectionStrippedText is GetStrippedText over every node of a selection.
func SelectionStrippedText(sel *goquery.Selection) string {
	var out strings.Builder
	for _, n := range sel.Nodes {
		out.WriteString(GetStrippedText(n))
	}
	return out.String()
}

// TrimLabel removes a leading label like "Equipment:" once and trims the
// surrounding whitespace.
func TrimLabel(text, label string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, label)
	return strings.TrimSpace(text)
}

// ResolveHref resolves `href` against `base`, a nil base returns href as it is.
func ResolveHref(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	link, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if base == nil {
		return link.String(), nil
	}
	return base.ResolveReference(link).String(), nil
}
