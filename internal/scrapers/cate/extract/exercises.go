package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"catemirror/internal/components/assert"
	"catemirror/internal/components/telemetry"
	"catemirror/internal/scrapers/cate"
	"catemirror/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoModuleHeading = errors.New("exercise row before any module heading")

// ExerciseRow is one exercise of the timetable. Given is nil when the
// exercise has no given files page.
type ExerciseRow struct {
	Module string
	Name   string
	Spec   *url.URL
	Given  *url.URL
}

// ExerciseTable reads the exercises of the timetable page. The table lists
// a module heading (a bold cell) followed by the rows of that module's
// exercises.
type ExerciseTable struct {
	tel telemetry.API
}

func NewExerciseTable(tel telemetry.API) ExerciseTable {
	assert.NotNil(tel)
	return ExerciseTable{tel: tel}
}

// ownElements returns the elements matching `selector` that belong to `tr`
// itself, not to a table nested in one of its cells.
func ownElements(tr *goquery.Selection, selector string) *goquery.Selection {
	return tr.Find(selector).FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.Closest("tr").IsSelection(tr)
	})
}

// rowHeading returns the module heading of `tr`: the text of a bold element
// in one of its own data cells. Header (th) cells and bold exercise links are
// not headings.
func rowHeading(tr *goquery.Selection) string {
	heading := ""
	ownElements(tr, "b, strong").EachWithBreak(func(_ int, bold *goquery.Selection) bool {
		if goquery.NodeName(bold.Closest("td, th")) != "td" {
			return true
		}
		if bold.Find(`a[href*="showfile.cgi"]`).Length() > 0 {
			return true
		}
		heading = htmlutil.CleanText(bold.Text())
		return heading == ""
	})
	return heading
}

func (e ExerciseTable) findSpec(c *collector, tr *goquery.Selection) (*url.URL, string, bool) {
	for _, anchor := range htmlutil.GetAnchors(ownElements(tr, `a[href*="showfile.cgi"]`)) {
		u, ok := c.resolve(anchor.Href)
		if !ok || !cate.IsShowFile(u) {
			continue
		}
		key, err := cate.ParseShowFileKey(u)
		if err != nil {
			e.tel.ReportWarning(report_extract_resolve, err, c.page.String())
			continue
		}
		if key.Type == cate.FILE_SPECS {
			return u, anchorLabel(anchor), true
		}
	}
	return nil, "", false
}

func (e ExerciseTable) findGiven(c *collector, tr *goquery.Selection) *url.URL {
	for _, anchor := range htmlutil.GetAnchors(ownElements(tr, `a[href*="given.cgi"]`)) {
		u, ok := c.resolve(anchor.Href)
		if ok {
			return u
		}
	}
	return nil
}

// rowName prefixes the exercise title with the row's tag cell, "1 TUT" and
// "Lab 1" give "[1 TUT] Lab 1". Cells holding links or the module heading
// are not tags.
func rowName(tr *goquery.Selection, title string) string {
	tag := ""
	tr.ChildrenFiltered("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if cell.Find("a, b, strong, table").Length() > 0 {
			return true
		}
		tag = htmlutil.CleanText(cell.Text())
		return tag == ""
	})

	switch {
	case tag == "":
		return title
	case title == "":
		return tag
	case strings.HasPrefix(title, "["):
		return title
	}
	return fmt.Sprintf("[%s] %s", tag, title)
}

// Rows walks every table row in document order. A row may carry a module
// heading, an exercise, or both (a heading cell spanning its exercises), the
// heading applies to the row's own exercise and every following one.
func (e ExerciseTable) Rows(doc *goquery.Document, page *url.URL) ([]ExerciseRow, error) {
	c := newCollector(e.tel, doc, page)

	var rows []ExerciseRow
	var err error
	module := ""
	doc.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if heading := rowHeading(tr); heading != "" {
			module = heading
		}

		spec, title, ok := e.findSpec(c, tr)
		if !ok {
			return true
		}
		if module == "" {
			err = fmt.Errorf("%w: '%s' on %s", ErrNoModuleHeading, title, page.String())
			return false
		}

		rows = append(rows, ExerciseRow{
			Module: module,
			Name:   rowName(tr, title),
			Spec:   spec,
			Given:  e.findGiven(c, tr),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
