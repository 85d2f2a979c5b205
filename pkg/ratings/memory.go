package ratings

import (
	"context"

	opt "github.com/repeale/fp-go/option"
	"github.com/sasha-s/go-deadlock"
)

// MemoryStore keeps ratings for the lifetime of the process.
type MemoryStore struct {
	ratings map[string]Rating
	mutex   deadlock.Mutex
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings: make(map[string]Rating),
	}
}

func (m *MemoryStore) Load(ctx context.Context, name string) (opt.Option[Rating], error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rating, ok := m.ratings[name]
	if !ok {
		return opt.None[Rating](), nil
	}
	return opt.Some(rating), nil
}

func (m *MemoryStore) Save(ctx context.Context, rating Rating) error {
	m.mutex.Lock()
	m.ratings[rating.Name] = rating
	m.mutex.Unlock()
	return nil
}

func (m *MemoryStore) Top(ctx context.Context, limit int) ([]Rating, error) {
	m.mutex.Lock()
	ratings := make([]Rating, 0, len(m.ratings))
	for _, rating := range m.ratings {
		ratings = append(ratings, rating)
	}
	m.mutex.Unlock()

	sortRatings(ratings)

	if limit > 0 && len(ratings) > limit {
		ratings = ratings[:limit]
	}

	return ratings, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
