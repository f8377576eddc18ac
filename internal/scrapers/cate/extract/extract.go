// Package extract turns fetched pages into the links the crawler follows.
// Every page family (portal pages and the external course sites) has its own
// Extractor, external sites are picked through the Sites dispatch table.
package extract

import (
	"net/url"

	"catemirror/internal/components/telemetry"
	"catemirror/internal/scrapers/cate"
	"catemirror/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extract_resolve = "extract.resolve"
)

// Hint is what an extractor believes a link points at, the crawler still
// classifies the actual response.
type Hint int

const (
	HINT_UNKNOWN Hint = iota
	HINT_TERMINAL
	HINT_SUBINDEX
)

func (h Hint) String() string {
	switch h {
	case HINT_TERMINAL:
		return "terminal"
	case HINT_SUBINDEX:
		return "subindex"
	}
	return "unknown"
}

type Link struct {
	URL   *url.URL
	Label string
	Hint  Hint
	// Section names a directory next to Notes the link belongs in, empty
	// means the default directory of the page.
	Section string
}

type Extractor interface {
	Extract(doc *goquery.Document, page *url.URL) ([]Link, error)
}

// baseUrl returns the url relative links of `doc` resolve against, a <base>
// element overrides the page url.
func baseUrl(doc *goquery.Document, page *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return page
	}
	base, err := cate.Resolve(href, page)
	if err != nil {
		return page
	}
	return base
}

// collector resolves anchors of one page and drops duplicates.
type collector struct {
	tel   telemetry.API
	page  *url.URL
	base  *url.URL
	links []Link
	seen  map[string]struct{}
}

func newCollector(tel telemetry.API, doc *goquery.Document, page *url.URL) *collector {
	return &collector{
		tel:   tel,
		page:  page,
		base:  baseUrl(doc, page),
		links: []Link{},
		seen:  map[string]struct{}{},
	}
}

func (c *collector) resolve(href string) (*url.URL, bool) {
	u, err := cate.Resolve(href, c.base)
	if err != nil {
		c.tel.ReportWarning(report_extract_resolve, err, c.page.String())
		return nil, false
	}
	return u, true
}

func (c *collector) add(link Link) {
	key := link.Section + "\x00" + link.URL.String()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.links = append(c.links, link)
}

func (c *collector) addAnchor(anchor htmlutil.Anchor, hint Hint, section string) {
	u, ok := c.resolve(anchor.Href)
	if !ok {
		return
	}
	c.add(Link{
		URL:     u,
		Label:   anchorLabel(anchor),
		Hint:    hint,
		Section: section,
	})
}

func anchorLabel(anchor htmlutil.Anchor) string {
	if anchor.Name != "" {
		return anchor.Name
	}
	return anchor.Title
}

func isDocument(u *url.URL) bool {
	kind, ok := cate.GuessKind(u)
	return ok && kind == cate.KIND_DOCUMENT
}
