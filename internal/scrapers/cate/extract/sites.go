package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"
	"catemirror/pkg/htmlutil"
	"catemirror/pkg/textutil"

	"github.com/PuerkitoBio/goquery"
)

// TutorialsSection is the directory of tutorials found on course sites that
// do not name each tutorial.
const TutorialsSection = "Tutorials"

var (
	lecturerMaterial = []string{"slides", "notes", "handout"}
	tutorialMatcher  = regexp.MustCompile(`(?i)tutorial|solution`)
)

func hasWord(text string, words ...string) bool {
	return textutil.MatchName(text, words)
}

// LecturerPage extracts a lecturer's personal course page.
type LecturerPage struct {
	tel telemetry.API
}

func (l LecturerPage) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(l.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Selection) {
		u, ok := c.resolve(anchor.Href)
		if !ok {
			continue
		}

		if hasWord(anchor.Name, lecturerMaterial...) || isDocument(u) {
			c.add(Link{URL: u, Label: anchorLabel(anchor), Hint: HINT_TERMINAL})
			continue
		}

		ext := strings.ToLower(u.Path)
		isHtml := strings.HasSuffix(ext, ".html") || strings.HasSuffix(ext, ".htm")
		sameSite := strings.EqualFold(u.Host, page.Host)
		lecture := hasWord(anchor.Name, "lecture") || hasWord(u.Path, "lecture")
		if isHtml && sameSite && lecture {
			c.add(Link{URL: u, Label: anchorLabel(anchor), Hint: HINT_SUBINDEX})
		}
	}
	return c.links, nil
}

// tutorialItems adds the question and answer anchors of every tutorial list
// item, each tutorial gets a section named after the item's own text.
func tutorialItems(c *collector, items *goquery.Selection) {
	items.Each(func(_ int, li *goquery.Selection) {
		title := li.Clone()
		title.Find("a").Remove()
		section := textutil.UntilParen(title.Text())
		if section == "" {
			section = textutil.UntilParen(li.Text())
		}
		for _, anchor := range htmlutil.GetAnchors(li) {
			if !hasWord(anchor.Name, "question", "answer", "solution") {
				continue
			}
			c.addAnchor(anchor, HINT_TERMINAL, section)
		}
	})
}

// HardwareCourse extracts the computer architecture course site.
type HardwareCourse struct {
	tel telemetry.API
}

func (h HardwareCourse) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(h.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Selection) {
		if anchor.HasClass("resource") {
			c.addAnchor(anchor, HINT_TERMINAL, "")
		}
	}
	tutorialItems(c, doc.Find("#tutorials li"))
	return c.links, nil
}

// OperatingSystems extracts the operating systems course site.
type OperatingSystems struct {
	tel telemetry.API
}

func (o OperatingSystems) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(o.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Selection) {
		if hasWord(anchor.Name, "slides") {
			c.addAnchor(anchor, HINT_TERMINAL, "")
		}
	}
	tutorialItems(c, doc.Find("ul.tutorials li"))
	return c.links, nil
}

// Networks extracts the networks course site, tutorials and their solutions
// live in a data table and share a single section.
type Networks struct {
	tel telemetry.API
}

func isTutorial(anchor htmlutil.Anchor) bool {
	return tutorialMatcher.MatchString(anchor.Name) || tutorialMatcher.MatchString(anchor.Href)
}

func (n Networks) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(n.tel, doc, page)

	table := doc.Find("table.data-table")
	for _, anchor := range htmlutil.GetAnchors(table) {
		section := ""
		if isTutorial(anchor) {
			section = TutorialsSection
		}
		c.addAnchor(anchor, HINT_TERMINAL, section)
	}

	outside := doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.Closest("table.data-table").Length() == 0
	})
	for _, anchor := range htmlutil.GetAnchors(outside) {
		if isTutorial(anchor) {
			continue
		}
		u, ok := c.resolve(anchor.Href)
		if !ok || !isDocument(u) {
			continue
		}
		c.add(Link{URL: u, Label: anchorLabel(anchor), Hint: HINT_TERMINAL})
	}
	return c.links, nil
}

// Generic extracts any page by taking every anchor to a document.
type Generic struct {
	tel telemetry.API
}

func (g Generic) Extract(doc *goquery.Document, page *url.URL) ([]Link, error) {
	c := newCollector(g.tel, doc, page)
	for _, anchor := range htmlutil.GetAnchors(doc.Selection) {
		u, ok := c.resolve(anchor.Href)
		if !ok || !isDocument(u) {
			continue
		}
		c.add(Link{URL: u, Label: anchorLabel(anchor), Hint: HINT_TERMINAL})
	}
	return c.links, nil
}

const (
	PARSER_LECTURER          = "lecturer"
	PARSER_ARCHITECTURE      = "architecture"
	PARSER_OPERATING_SYSTEMS = "operating-systems"
	PARSER_NETWORKS          = "networks"
	PARSER_GENERIC           = "generic"
)

// NewParser returns the site extractor registered under `name`.
func NewParser(name string, tel telemetry.API) (Extractor, error) {
	assert.NotNil(tel)
	switch strings.ToLower(name) {
	case PARSER_LECTURER:
		return LecturerPage{tel: tel}, nil
	case PARSER_ARCHITECTURE:
		return HardwareCourse{tel: tel}, nil
	case PARSER_OPERATING_SYSTEMS:
		return OperatingSystems{tel: tel}, nil
	case PARSER_NETWORKS:
		return Networks{tel: tel}, nil
	case PARSER_GENERIC:
		return Generic{tel: tel}, nil
	}
	return nil, fmt.Errorf("unknown site parser '%s'", name)
}

// Site binds a url fragment to the extractor of the pages containing it.
type Site struct {
	Fragment  string
	Extractor Extractor
}

// Sites is the ordered dispatch table of external course sites, the first
// site whose fragment appears in a url's host and path wins.
type Sites struct {
	sites    []Site
	fallback Extractor
}

func DefaultSites(tel telemetry.API) Sites {
	assert.NotNil(tel)
	return Sites{
		sites: []Site{
			{Fragment: "/~", Extractor: LecturerPage{tel: tel}},
			{Fragment: "architecture", Extractor: HardwareCourse{tel: tel}},
			{Fragment: "operating-systems", Extractor: OperatingSystems{tel: tel}},
			{Fragment: "networks", Extractor: Networks{tel: tel}},
		},
		fallback: Generic{tel: tel},
	}
}

// With returns a table in which `extra` sites take precedence over the
// current ones.
func (s Sites) With(extra ...Site) Sites {
	sites := make([]Site, 0, len(extra)+len(s.sites))
	sites = append(sites, extra...)
	sites = append(sites, s.sites...)
	return Sites{sites: sites, fallback: s.fallback}
}

// Match returns the extractor of the first matching site, ok is false when
// no site matches.
func (s Sites) Match(u *url.URL) (Extractor, bool) {
	target := strings.ToLower(u.Host + u.Path)
	for _, site := range s.sites {
		if strings.Contains(target, strings.ToLower(site.Fragment)) {
			return site.Extractor, true
		}
	}
	return nil, false
}

// For returns the extractor for `u`, falling back to Generic.
func (s Sites) For(u *url.URL) Extractor {
	extractor, ok := s.Match(u)
	if ok {
		return extractor
	}
	return s.fallback
}
