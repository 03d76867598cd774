// Package prices provides access to the upstream store of realized price samples.
package prices

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/pricecast/internal/domain"
)

// ErrNoPriceData is returned by lookups that require at least one sample
var ErrNoPriceData = errors.New("no price data")

// Query filters price samples. Zero values leave a bound open.
type Query struct {
	AssetID string
	From    time.Time
	To      time.Time
}

// Source is a read-only store of price samples.
// Find returns samples ordered by asset, then observed_at, then insertion order.
type Source interface {
	Find(ctx context.Context, q Query) ([]domain.PricePoint, error)
	Assets(ctx context.Context) ([]string, error)
}

// Writer appends price samples
type Writer interface {
	Insert(ctx context.Context, points []domain.PricePoint) error
}

// Store is a Source that can also be written to
type Store interface {
	Source
	Writer
}
