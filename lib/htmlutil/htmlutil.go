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

type Anchor struct {
	Name string
	Href string
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// GetAnchors extracts <a> names and hrefs from a selection, with the
// names trimmed and inner whitespace collapsed.
func GetAnchors(sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}

		name := GetText(n)
		name = removeNonPrintable(name)
		name = strings.Trim(name, " \t\n")
		name = innerWhitespace.ReplaceAllString(name, " ")

		anchors = append(anchors, Anchor{
			Name: name,
			Href: href,
		})
	}

	return anchors
}

// TextLines returns every text node under the selection, trimmed,
// with empty lines dropped. The portal's detail pages render
// key/value listings as loose text nodes, so this is the shape most
// extractors want to work on.
func TextLines(sel *goquery.Selection) []string {
	var lines []string
	for _, node := range sel.Nodes {
		collectTextLines(node, &lines)
	}
	return lines
}

func collectTextLines(node *html.Node, lines *[]string) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		trimmed := strings.TrimSpace(strings.ReplaceAll(node.Data, " ", " "))
		if trimmed != "" {
			*lines = append(*lines, trimmed)
		}
		return
	}
	child := node.FirstChild
	for child != nil {
		collectTextLines(child, lines)
		child = child.NextSibling
	}
}
