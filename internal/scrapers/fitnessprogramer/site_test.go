package fitnessprogramer

import (
	"fitscrape/internal/components/telemetry"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// testEntry describes one article on a fake listing page.
type testEntry struct {
	Title      string
	Href       string
	Equipment  string
	Primary    string
	Image      string
	DetailsUrl string
}

func renderEntry(e testEntry) string {
	var out strings.Builder
	out.WriteString(`<article class="exercise">`)
	if e.Image != "" {
		fmt.Fprintf(&out, `<div class="thumb"><img src="%s" alt=""></div>`, e.Image)
	}
	fmt.Fprintf(&out, `<h2 class="title"><a href="%s">%s</a></h2>`, e.Href, e.Title)
	fmt.Fprintf(&out, `<div class="exercise_meta equipment"><strong>Equipment:</strong> %s</div>`, e.Equipment)
	fmt.Fprintf(&out, `<div class="exercise_meta primary_muscles"><strong>Primary Muscles:</strong>
		%s
	</div>`, e.Primary)
	if e.DetailsUrl != "" {
		fmt.Fprintf(&out, `<a class="button" href="%s">Details</a>`, e.DetailsUrl)
	}
	out.WriteString(`</article>`)
	return out.String()
}

func renderListing(entries []testEntry, hasNext bool) string {
	var out strings.Builder
	out.WriteString(`<html><body><div class="wpt_exercise_archive taxonomy_archive">`)
	for _, e := range entries {
		out.WriteString(renderEntry(e))
	}
	out.WriteString(`</div><div class="pagination winner_pagination">`)
	out.WriteString(`<span class="page-numbers current">1</span>`)
	if hasNext {
		out.WriteString(`<a class="next page-numbers" href="#">Next</a>`)
	}
	out.WriteString(`</div></body></html>`)
	return out.String()
}

func renderDetails(muscles [][2]string) string {
	var out strings.Builder
	out.WriteString(`<html><body><div class="vc_progress_bar wpb_content_element">`)
	for _, m := range muscles {
		fmt.Fprintf(
			&out,
			`<div class="vc_general vc_single_bar"><small class="vc_label"> %s </small><span class="vc_bar" data-percentage-value="%s" data-value="%s"></span></div>`,
			m[0], m[1], m[1],
		)
	}
	out.WriteString(`</div></body></html>`)
	return out.String()
}

// testSite serves fixed pages by path and counts the requests made to each path.
type testSite struct {
	*httptest.Server

	mu     sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
}

func newTestSite(t *testing.T) *testSite {
	site := &testSite{
		pages:  map[string]string{},
		status: map[string]int{},
		hits:   map[string]int{},
	}
	site.Server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.Close)
	return site
}

func (s *testSite) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits[r.URL.Path]++
	if status, ok := s.status[r.URL.Path]; ok {
		w.WriteHeader(status)
		return
	}
	page, ok := s.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func (s *testSite) set(path, page string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = page
}

func (s *testSite) fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = status
}

func (s *testSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *testSite) listingPath(muscle string, page int) string {
	return fmt.Sprintf("/exercise-primary-muscle/%s/page/%d/", muscle, page)
}

func (s *testSite) listingTemplate() string {
	return s.URL + "/exercise-primary-muscle/{muscle}/page/{page}/"
}

func newTestClient(tel telemetry.API) *Client {
	return NewClient(ClientOptions{DisableCloudflareBypass: true}, tel)
}
