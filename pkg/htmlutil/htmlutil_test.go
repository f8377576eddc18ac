package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const anchorsPage = `<html><body>
<div id="list">
	<a href="showfile.cgi?key=2014:1:34:c2:NOTES:lmc13"  class="resource  pdf">
		Lecture   1
		<b>Intro</b>
	</a>
	<a>no href</a>
	<a href=" slides/week 2.pdf " title=" https://www.doc.ic.ac.uk/~lecturer/ ">Week 2</a>
</div>
</body></html>`

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(anchorsPage))
	if err != nil {
		t.Fatal(err)
	}

	anchors := GetAnchors(doc.Find("#list"))
	expected := []Anchor{
		{
			Name:  "Lecture 1 Intro",
			Href:  "showfile.cgi?key=2014:1:34:c2:NOTES:lmc13",
			Class: "resource  pdf",
		},
		{
			Name:  "Week 2",
			Href:  "slides/week 2.pdf",
			Title: "https://www.doc.ic.ac.uk/~lecturer/",
		},
	}
	diff := cmp.Diff(expected, anchors)
	require.Empty(t, diff)

	require.True(t, anchors[0].HasClass("resource"))
	require.False(t, anchors[1].HasClass("resource"))

	direct := GetAnchors(doc.Find("#list a"))
	require.Len(t, direct, 2)
}

func TestCleanText(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  Tutorial 1 \n\t (Processes) ", expected: "Tutorial 1 (Processes)"},
		{input: "\u0000Slides\u0007", expected: "Slides"},
		{input: "", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, CleanText(row.input))
	}
}
