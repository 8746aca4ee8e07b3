package investing

import (
	"context"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/universe"
)

// Source reads the historical-data page of each security
type Source struct {
	client *Client
}

// NewSource wraps a browser client as a history source
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Name identifies the source
func (s *Source) Name() string {
	return "investing"
}

// Fetch loads the security's historical table
func (s *Source) Fetch(ctx context.Context, sec universe.Security) ([]domain.PriceBar, error) {
	return s.client.History(ctx, sec.Symbol, sec.URL)
}

// Status maps a load error to a run status
func (s *Source) Status(err error) domain.Status {
	return Status(err)
}
