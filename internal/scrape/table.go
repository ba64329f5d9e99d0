// Package scrape extracts puzzle rows from portal search result pages.
package scrape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/domain"
)

// ErrNoRows is returned by FirstRow when the first table holds no links.
var ErrNoRows = errors.New("no rows found")

// Rows returns every (url, title) pair of anchors inside the first <table>
// of the document, in document order. Titles are the anchor text exactly as
// it appears, whitespace included, so stored links keep comparing equal. A
// document without a table yields an empty slice.
func Rows(html string) ([]domain.PuzzleLink, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := make([]domain.PuzzleLink, 0)
	doc.Find("table").First().Find("a").Each(func(_ int, a *goquery.Selection) {
		rows = append(rows, domain.PuzzleLink{
			URL:   firstAttrValue(a),
			Title: a.Text(),
		})
	})

	return rows, nil
}

// FirstRow returns the newest entry of a search page.
func FirstRow(html string) (domain.PuzzleLink, error) {
	rows, err := Rows(html)
	if err != nil {
		return domain.PuzzleLink{}, err
	}
	if len(rows) == 0 {
		return domain.PuzzleLink{}, ErrNoRows
	}
	return rows[0], nil
}

// firstAttrValue returns the first non-empty attribute value of the anchor,
// which on the portal is its href.
func firstAttrValue(a *goquery.Selection) string {
	if len(a.Nodes) == 0 {
		return ""
	}
	for _, attr := range a.Nodes[0].Attr {
		if attr.Val != "" {
			return attr.Val
		}
	}
	return ""
}
