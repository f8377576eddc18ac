package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func GetAttr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Anchor is an <a> element with its text cleaned up, Href is left exactly as
// written in the page so callers can decide how to resolve it.
type Anchor struct {
	Name  string
	Href  string
	Title string
	Class string
}

// HasClass returns true if the anchor's class attribute contains `class`.
func (a Anchor) HasClass(class string) bool {
	for _, c := range strings.Fields(a.Class) {
		if c == class {
			return true
		}
	}
	return false
}

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non printable characters, trims the text and collapses
// inner whitespace into a single space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// GetAnchors returns every <a> in `sel` (the selection itself or its
// descendants) that carries an href attribute.
func GetAnchors(sel *goquery.Selection) []Anchor {
	nodes := sel.Filter("a[href]").AddSelection(sel.Find("a[href]")).Nodes

	anchors := []Anchor{}
	for _, n := range nodes {
		href, _ := GetAttr(n, "href")
		title, _ := GetAttr(n, "title")
		class, _ := GetAttr(n, "class")

		anchors = append(anchors, Anchor{
			Name:  CleanText(GetText(n)),
			Href:  strings.TrimSpace(href),
			Title: strings.TrimSpace(title),
			Class: class,
		})
	}

	return anchors
}
