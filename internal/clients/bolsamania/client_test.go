package bolsamania

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/merval/internal/clients/htmltable"
	"github.com/aristath/merval/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	from = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2024, 8, 28, 0, 0, 0, 0, time.UTC)
)

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL, zerolog.Nop()), server
}

func TestClient_DownloadURL(t *testing.T) {
	client := NewClient("", zerolog.Nop())
	assert.Equal(t,
		"https://www.bolsamania.com/descargar-historico/?accion=GGAL&date_from=01%2F03%2F2024&date_to=28%2F08%2F2024",
		client.DownloadURL("GGAL", from, to))
}

func TestClient_DownloadHistory_CSV(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/descargar-historico/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GGAL", r.URL.Query().Get("accion"))
		assert.Equal(t, "01/03/2024", r.URL.Query().Get("date_from"))
		assert.Equal(t, "28/08/2024", r.URL.Query().Get("date_to"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Fecha;Apertura;Máximo;Mínimo;Cierre;Volumen\r\n\r\n" +
			"02/08/2024;3.100,00;3.200,50;3.050,00;3.150,25;1.250.000\r\n" +
			"05/08/2024;3.150,00;3.180,00;3.000,00;3.010,75;980.000\r\n\n"))
	})
	client, _ := newTestClient(t, mux)

	bars, err := client.DownloadHistory(context.Background(), "GGAL", "", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.InDelta(t, 3150.25, bars[0].Close, 1e-9)
	assert.InDelta(t, 3200.50, bars[0].High, 1e-9)
	assert.Equal(t, int64(1250000), bars[0].Volume)
	assert.Equal(t, int64(980000), bars[1].Volume)
}

func TestClient_DownloadHistory_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/descargar-historico/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Fecha;Cierre\n\n  \n"))
	})
	client, _ := newTestClient(t, mux)

	_, err := client.DownloadHistory(context.Background(), "EDN", "", from, to)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, domain.StatusEmpty, Status(err))
}

func TestClient_DownloadHistory_HTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/descargar-historico/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.DownloadHistory(context.Background(), "BMA", "", from, to)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
	assert.Equal(t, domain.Status("HTTP 403"), Status(err))
}

func TestClient_DownloadHistory_HTMLFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/descargar-historico/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Login required</body></html>"))
	})
	mux.HandleFunc("/acciones/loma/historico-precios", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><table>
<thead><tr><th>Fecha</th><th>Último</th><th>Apertura</th></tr></thead>
<tbody><tr><td>05/08/2024</td><td>1.450,00</td><td>1.400,00</td></tr></tbody>
</table></body></html>`))
	})
	client, server := newTestClient(t, mux)

	bars, err := client.DownloadHistory(context.Background(), "LOMA", server.URL+"/acciones/loma/historico-precios", from, to)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.InDelta(t, 1450.0, bars[0].Close, 1e-9)
	assert.InDelta(t, 1400.0, bars[0].Open, 1e-9)
}

func TestClient_DownloadHistory_HTMLWithoutTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	})
	client, server := newTestClient(t, mux)

	_, err := client.DownloadHistory(context.Background(), "ALUA", server.URL+"/acciones/alua", from, to)
	assert.ErrorIs(t, err, htmltable.ErrNoTable)
	assert.Equal(t, domain.StatusNoTable, Status(err))
}

func TestClient_DownloadHistory_ParseError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/descargar-historico/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("foo,bar\n1,2\n"))
	})
	client, _ := newTestClient(t, mux)

	_, err := client.DownloadHistory(context.Background(), "SUPV", "", from, to)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, domain.StatusParseError, Status(err))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, domain.StatusOK, Status(nil))
	assert.Equal(t, domain.StatusError, Status(errors.New("connection reset")))
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, ';', delimiter("Fecha;Cierre;Volumen"))
	assert.Equal(t, ',', delimiter("Date,Close"))
	assert.Equal(t, '\t', delimiter("Date\tClose"))
}
