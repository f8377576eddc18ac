package extract

import (
	"testing"

	"catemirror/internal/components/telemetry"
	"catemirror/internal/scrapers/cate"

	"github.com/stretchr/testify/require"
)

func TestSitesDispatch(t *testing.T) {
	sites := DefaultSites(&telemetry.Recorder{})

	cases := []struct {
		url      string
		expected any
	}{
		{"https://www.doc.ic.ac.uk/~wjk/C++Intro/", LecturerPage{}},
		{"https://www.doc.ic.ac.uk/courses/architecture/", HardwareCourse{}},
		{"https://www.doc.ic.ac.uk/operating-systems/index.html", OperatingSystems{}},
		{"https://networks.doc.ic.ac.uk/", Networks{}},
		{"https://example.com/course/", Generic{}},
	}
	for _, test := range cases {
		extractor := sites.For(cate.MustResolve(test.url))
		require.IsType(t, test.expected, extractor, test.url)
	}

	_, ok := sites.Match(cate.MustResolve("https://example.com/course/"))
	require.False(t, ok)

	// configured sites take precedence
	custom := sites.With(Site{Fragment: "~wjk", Extractor: Generic{}})
	require.IsType(t, Generic{}, custom.For(cate.MustResolve("https://www.doc.ic.ac.uk/~wjk/C++Intro/")))
	require.IsType(t, LecturerPage{}, custom.For(cate.MustResolve("https://www.doc.ic.ac.uk/~ajf/")))
}

func TestNewParser(t *testing.T) {
	rec := &telemetry.Recorder{}
	for _, name := range []string{
		PARSER_LECTURER,
		PARSER_ARCHITECTURE,
		PARSER_OPERATING_SYSTEMS,
		PARSER_NETWORKS,
		PARSER_GENERIC,
	} {
		_, err := NewParser(name, rec)
		require.NoError(t, err, name)
	}
	_, err := NewParser("moodle", rec)
	require.Error(t, err)
}

func TestLecturerPage(t *testing.T) {
	doc, page := parse(t, "https://www.doc.ic.ac.uk/~wjk/C++Intro/", `<html><body>
<ul>
  <li><a href="lecture1.html">Lecture 1</a></li>
  <li><a href="slides/week1">Week 1 Slides</a></li>
  <li><a href="handouts/intro.ps">Intro</a></li>
  <li><a href="https://other.org/lecture2.html">Lecture 2 mirror</a></li>
  <li><a href="about.html">About</a></li>
</ul>
</body></html>`)

	links, err := LecturerPage{tel: &telemetry.Recorder{}}.Extract(doc, page)
	require.NoError(t, err)
	requireLinks(t, []expectedLink{
		{Url: "https://www.doc.ic.ac.uk/~wjk/C++Intro/lecture1.html", Label: "Lecture 1", Hint: HINT_SUBINDEX},
		{Url: "https://www.doc.ic.ac.uk/~wjk/C++Intro/slides/week1", Label: "Week 1 Slides", Hint: HINT_TERMINAL},
		{Url: "https://www.doc.ic.ac.uk/~wjk/C++Intro/handouts/intro.ps", Label: "Intro", Hint: HINT_TERMINAL},
	}, links)
}

func TestHardwareCourse(t *testing.T) {
	doc, page := parse(t, "https://www.doc.ic.ac.uk/architecture/", `<html><body>
<a class="resource" href="notes/lecture1.pdf">Lecture 1</a>
<a class="slides resource" href="notes/lecture2.pdf">Lecture 2</a>
<a class="resources" href="notes/index.pdf">All resources</a>
<a href="notes/other.pdf">Not a resource</a>
<ol id="tutorials">
  <li>Tutorial 1 (Pipelines) <a href="tut/t1.pdf">Question</a> <a href="tut/t1a.pdf">Answer</a></li>
  <li>Tutorial   2 <a href="tut/t2.pdf">Question</a> <a href="tut/extra.html">Extra</a></li>
</ol>
</body></html>`)

	links, err := HardwareCourse{tel: &telemetry.Recorder{}}.Extract(doc, page)
	require.NoError(t, err)
	requireLinks(t, []expectedLink{
		{Url: "https://www.doc.ic.ac.uk/architecture/notes/lecture1.pdf", Label: "Lecture 1", Hint: HINT_TERMINAL},
		{Url: "https://www.doc.ic.ac.uk/architecture/notes/lecture2.pdf", Label: "Lecture 2", Hint: HINT_TERMINAL},
		{Url: "https://www.doc.ic.ac.uk/architecture/tut/t1.pdf", Label: "Question", Hint: HINT_TERMINAL, Section: "Tutorial 1"},
		{Url: "https://www.doc.ic.ac.uk/architecture/tut/t1a.pdf", Label: "Answer", Hint: HINT_TERMINAL, Section: "Tutorial 1"},
		{Url: "https://www.doc.ic.ac.uk/architecture/tut/t2.pdf", Label: "Question", Hint: HINT_TERMINAL, Section: "Tutorial 2"},
	}, links)
}

func TestOperatingSystems(t *testing.T) {
	doc, page := parse(t, "https://www.doc.ic.ac.uk/operating-systems/", `<html><body>
<p><a href="l1.pdf">Slides</a> <a href="l1-notes.pdf">Notes</a></p>
<ul class="tutorials">
  <li>Threads (week 3) <a href="t3.pdf">Question</a></li>
</ul>
</body></html>`)

	links, err := OperatingSystems{tel: &telemetry.Recorder{}}.Extract(doc, page)
	require.NoError(t, err)
	requireLinks(t, []expectedLink{
		{Url: "https://www.doc.ic.ac.uk/operating-systems/l1.pdf", Label: "Slides", Hint: HINT_TERMINAL},
		{Url: "https://www.doc.ic.ac.uk/operating-systems/t3.pdf", Label: "Question", Hint: HINT_TERMINAL, Section: "Threads"},
	}, links)
}

func TestNetworks(t *testing.T) {
	doc, page := parse(t, "https://www.doc.ic.ac.uk/networks/", `<html><body>
<a href="lectures/intro.pdf">Introduction</a>
<a href="tutorial0.pdf">Tutorial 0</a>
<a href="schedule.html">Schedule</a>
<table class="data-table">
  <tr><td><a href="tut/tutorial1.pdf">Tutorial 1</a></td><td><a href="tut/solution1.pdf">Solution 1</a></td></tr>
  <tr><td><a href="lectures/routing.pdf">Routing</a></td></tr>
</table>
</body></html>`)

	links, err := Networks{tel: &telemetry.Recorder{}}.Extract(doc, page)
	require.NoError(t, err)
	requireLinks(t, []expectedLink{
		{Url: "https://www.doc.ic.ac.uk/networks/tut/tutorial1.pdf", Label: "Tutorial 1", Hint: HINT_TERMINAL, Section: TutorialsSection},
		{Url: "https://www.doc.ic.ac.uk/networks/tut/solution1.pdf", Label: "Solution 1", Hint: HINT_TERMINAL, Section: TutorialsSection},
		{Url: "https://www.doc.ic.ac.uk/networks/lectures/routing.pdf", Label: "Routing", Hint: HINT_TERMINAL},
		{Url: "https://www.doc.ic.ac.uk/networks/lectures/intro.pdf", Label: "Introduction", Hint: HINT_TERMINAL},
	}, links)
}
