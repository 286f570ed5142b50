package stine

import (
	"context"
	"fmt"
	"time"

	"stine-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Document is one entry of the personal documents screen, e.g. a
// semester certificate.
type Document struct {
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Status   string    `json:"status,omitempty"`
	Download string    `json:"download"`
}

// Same reports whether two documents are the same entry. The download
// URL is excluded deliberately: it is a one-time token that differs
// between fetches of the same document.
func (d Document) Same(other Document) bool {
	return d.Name == other.Name &&
		d.Created.Equal(other.Created) &&
		d.Status == other.Status
}

// Documents returns the account's generated documents.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	ctx, span := tracer.Start(ctx, "client:Documents")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenCreateDocument, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parseDocuments(body, c.baseURL)
}

// parseDocuments extracts the document table. The first row is the
// header, which the portal renders inside the tbody.
func parseDocuments(body, baseURL string) ([]Document, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	table, err := firstSel(doc.Selection, ".tb > tbody:nth-child(1)")
	if err != nil {
		return nil, err
	}

	var documents []Document
	var outerErr error
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if i == 0 {
			return true
		}

		name := textutil.CleanScraped(row.Find("td:nth-child(1)").First().Text())
		date := row.Find("td:nth-child(2)").First().Text()
		clock := row.Find("td:nth-child(3)").First().Text()
		status := textutil.CleanScraped(row.Find("td:nth-child(4)").First().Text())

		created, err := parseDayMonthYear(date, clock)
		if err != nil {
			outerErr = err
			return false
		}

		download, err := firstSel(row, ".download")
		if err != nil {
			outerErr = err
			return false
		}

		documents = append(documents, Document{
			Name:     name,
			Created:  created,
			Status:   status,
			Download: baseURL + download.AttrOr("href", ""),
		})
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return documents, nil
}

// RegistrationPeriods returns the five registration phases published
// under Service, with their date ranges.
func (c *Client) RegistrationPeriods(ctx context.Context) ([]RegistrationPeriod, error) {
	ctx, span := tracer.Start(ctx, "client:RegistrationPeriods")
	defer span.End()

	body, err := c.Invoke(ctx, ScreenExternalPages, []string{"-N000385", "-Aanmeldephasen"})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return parseRegistrationPeriods(body)
}

func parseRegistrationPeriods(body string) ([]RegistrationPeriod, error) {
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	table, err := firstSel(doc.Selection, "#contentSpacer_IE > table > tbody")
	if err != nil {
		return nil, err
	}

	var periods []RegistrationPeriod
	var outerErr error
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		columns := row.Find("td")
		if columns.Length() < 2 {
			outerErr = fmt.Errorf("registration period row has %d columns, expected 2", columns.Length())
			return false
		}

		period, err := parseRegistrationPeriod(
			textutil.CleanScraped(columns.Eq(0).Text()),
			textutil.CleanScraped(columns.Eq(1).Text()),
		)
		if err != nil {
			outerErr = err
			return false
		}
		periods = append(periods, period)
		return true
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return periods, nil
}
