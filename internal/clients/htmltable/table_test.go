package htmltable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HeaderFromTh(t *testing.T) {
	html := `<html><body>
<table class="other"><tr><td>ignored</td></tr></table>
<table id="historico">
  <thead><tr><th>Fecha</th><th> Cierre </th></tr></thead>
  <tbody>
    <tr><td>07/03/2024</td><td>1.200,50</td></tr>
    <tr><td>08/03/2024</td><td>
      1.210,00
    </td></tr>
  </tbody>
</table></body></html>`

	table, err := Parse(strings.NewReader(html), "#historico")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fecha", "Cierre"}, table.Header)
	assert.Equal(t, [][]string{{"07/03/2024", "1.200,50"}, {"08/03/2024", "1.210,00"}}, table.Rows)
}

func TestParse_HeaderFromFirstRow(t *testing.T) {
	html := `<table>
<tr><td>Date</td><td>Close</td></tr>
<tr><td>2024-03-07</td><td>10</td></tr>
</table>`

	table, err := Parse(strings.NewReader(html), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Close"}, table.Header)
	assert.Len(t, table.Rows, 1)
}

func TestParse_NoTable(t *testing.T) {
	_, err := Parse(strings.NewReader(`<html><body><p>captcha</p></body></html>`), "")
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = Parse(strings.NewReader(`<table></table>`), "")
	assert.ErrorIs(t, err, ErrNoTable)
}
