package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func TestGetAnchors(t *testing.T) {
	doc := parse(t, `<p>
		<a href="/scripts/one">  64-074   &Uuml;bung  BKA </a>
		<a><b>InfB-BKA</b> Berechenbarkeit</a>
	</p>`)

	anchors := GetAnchors(doc.Find("a"))
	require.Equal(t, []Anchor{
		{Name: "64-074 Übung BKA", Href: "/scripts/one"},
		{Name: "InfB-BKA Berechenbarkeit", Href: ""},
	}, anchors)
}

func TestGetAnchorsEmptySelection(t *testing.T) {
	doc := parse(t, `<p>no links here</p>`)
	require.Empty(t, GetAnchors(doc.Find("a")))
}

func TestTextLines(t *testing.T) {
	doc := parse(t, `<div>
		<b>Lehrende:</b> Prof. Dr. Max Mustermann
		<p>  </p>
		<p>Zeile&nbsp;zwei</p>
	</div>`)

	require.Equal(t,
		[]string{"Lehrende:", "Prof. Dr. Max Mustermann", "Zeile zwei"},
		TextLines(doc.Find("div")))
}
