// Package htmltable extracts plain string tables from HTML pages.
package htmltable

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTable is returned when the page has no table matching the selector
var ErrNoTable = errors.New("no table found")

// Table is a header row plus data rows, all cells trimmed
type Table struct {
	Header []string
	Rows   [][]string
}

// Parse reads an HTML document and extracts the first table matching
// selector ("table" when empty).
func Parse(r io.Reader, selector string) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return FromDocument(doc, selector)
}

// FromDocument extracts the first table matching selector from doc. The
// header comes from the first row of th cells; without one, the first data
// row is used.
func FromDocument(doc *goquery.Document, selector string) (*Table, error) {
	if selector == "" {
		selector = "table"
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	t := &Table{}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			if headers := row.Find("th"); headers.Length() > 0 && t.Header == nil {
				t.Header = texts(headers)
			}
			return
		}
		t.Rows = append(t.Rows, texts(cells))
	})

	if t.Header == nil && len(t.Rows) > 0 {
		t.Header, t.Rows = t.Rows[0], t.Rows[1:]
	}
	if len(t.Header) == 0 {
		return nil, ErrNoTable
	}
	return t, nil
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(i int, cell *goquery.Selection) {
		out = append(out, strings.Join(strings.Fields(cell.Text()), " "))
	})
	return out
}
