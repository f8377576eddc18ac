package extract

import (
	"net/url"
	"strings"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"
	"catemirror/internal/scrapers/cate"
	"catemirror/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ModuleList finds the notes page of every module on the timetable.
type ModuleList struct {
	tel telemetry.API
}

func NewModuleList(tel telemetry.API) ModuleList {
	assert.NotNil(tel)
	return ModuleList{tel: tel}
}

func (m ModuleList) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(m.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Find(`a[href*="notes.cgi"]`)) {
		u, ok := c.resolve(anchor.Href)
		if !ok || !cate.IsNotesIndex(u) {
			continue
		}
		c.add(Link{
			URL:   u,
			Label: anchorLabel(anchor),
			Hint:  HINT_SUBINDEX,
		})
	}
	return c.links, nil
}

// ModuleCode returns the module code of a link found by ModuleList.
func ModuleCode(link Link) string {
	return cate.NotesModuleCode(link.URL)
}

// NotesPage extracts the files of a module's notes page. Portal files are
// linked directly, notes hosted elsewhere keep their url in the anchor's
// title.
type NotesPage struct {
	tel telemetry.API
	// KnownHost reports whether an external url may be followed, nil accepts
	// every host.
	KnownHost func(u *url.URL) bool
}

func NewNotesPage(tel telemetry.API, knownHost func(u *url.URL) bool) NotesPage {
	assert.NotNil(tel)
	return NotesPage{tel: tel, KnownHost: knownHost}
}

func isAbsoluteHttp(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (n NotesPage) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(n.tel, doc, page)
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		label := htmlutil.CleanText(s.Text())

		title := strings.TrimSpace(s.AttrOr("title", ""))
		if isAbsoluteHttp(title) {
			u, ok := c.resolve(title)
			if !ok {
				return
			}
			if n.KnownHost != nil && !n.KnownHost(u) {
				return
			}

			hint := HINT_SUBINDEX
			if cate.IsSecondaryResource(u) || isDocument(u) {
				hint = HINT_TERMINAL
			}
			c.add(Link{URL: u, Label: label, Hint: hint})
			return
		}

		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, "showfile.cgi") {
			return
		}
		u, ok := c.resolve(href)
		if !ok || !cate.IsShowFile(u) {
			return
		}
		c.add(Link{URL: u, Label: label, Hint: HINT_TERMINAL})
	})
	return c.links, nil
}

// GivenFiles extracts the data files and model answers of an exercise.
type GivenFiles struct {
	tel telemetry.API
}

func NewGivenFiles(tel telemetry.API) GivenFiles {
	assert.NotNil(tel)
	return GivenFiles{tel: tel}
}

func (g GivenFiles) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(g.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Find(`a[href*="showfile.cgi"]`)) {
		u, ok := c.resolve(anchor.Href)
		if !ok || !cate.IsShowFile(u) {
			continue
		}
		c.add(Link{URL: u, Label: anchorLabel(anchor), Hint: HINT_TERMINAL})
	}
	return c.links, nil
}
