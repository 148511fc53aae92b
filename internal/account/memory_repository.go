package account

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Account
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Account)}
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.storage[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, 0, len(r.storage))
	for _, a := range r.storage {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepository) Save(ctx context.Context, a Account) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		for {
			a.ID = newID()
			if _, taken := r.storage[a.ID]; !taken {
				break
			}
		}
	}
	r.storage[a.ID] = a
	return a, nil
}

func (r *memoryRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.storage)
	return nil
}
