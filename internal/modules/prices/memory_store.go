package prices

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/pricecast/internal/domain"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu     sync.RWMutex
	points []domain.PricePoint
	err    error
}

// NewMemoryStore creates a new in-memory price store seeded with points.
func NewMemoryStore(points ...domain.PricePoint) *MemoryStore {
	return &MemoryStore{points: append([]domain.PricePoint(nil), points...)}
}

var _ Store = (*MemoryStore)(nil)

// FailWith makes every subsequent call return err; nil restores normal behavior.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Find returns matching points ordered by asset, observed_at, insertion order.
func (s *MemoryStore) Find(_ context.Context, q Query) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []domain.PricePoint
	for _, p := range s.points {
		if q.AssetID != "" && p.AssetID != q.AssetID {
			continue
		}
		if !q.From.IsZero() && p.ObservedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && p.ObservedAt.After(q.To) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AssetID != out[j].AssetID {
			return out[i].AssetID < out[j].AssetID
		}
		return out[i].ObservedAt.Before(out[j].ObservedAt)
	})
	return out, nil
}

// Assets returns the sorted distinct asset ids.
func (s *MemoryStore) Assets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	seen := make(map[string]struct{})
	var assets []string
	for _, p := range s.points {
		if _, ok := seen[p.AssetID]; !ok {
			seen[p.AssetID] = struct{}{}
			assets = append(assets, p.AssetID)
		}
	}
	sort.Strings(assets)
	return assets, nil
}

// Insert appends points.
func (s *MemoryStore) Insert(_ context.Context, points []domain.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.points = append(s.points, points...)
	return nil
}
