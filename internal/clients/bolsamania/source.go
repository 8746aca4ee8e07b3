package bolsamania

import (
	"context"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/universe"
)

// Source downloads a trailing window of days for each security
type Source struct {
	client *Client
	days   int
	now    func() time.Time
}

// NewSource creates a history source over the last days calendar days
func NewSource(client *Client, days int) *Source {
	return &Source{client: client, days: days, now: time.Now}
}

// Name identifies the source
func (s *Source) Name() string {
	return "bolsamania"
}

// Fetch downloads the window ending today
func (s *Source) Fetch(ctx context.Context, sec universe.Security) ([]domain.PriceBar, error) {
	to := s.now()
	from := to.AddDate(0, 0, -s.days)
	return s.client.DownloadHistory(ctx, sec.Symbol, sec.URL, from, to)
}

// Status maps a download error to a run status
func (s *Source) Status(err error) domain.Status {
	return Status(err)
}
