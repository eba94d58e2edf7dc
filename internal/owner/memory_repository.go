package owner

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	owners map[Ref]Owner
	order  []Ref
}

// NewMemoryRepository builds an in-memory owner store for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{owners: make(map[Ref]Owner)}
}

func (r *memoryRepository) emailTaken(owner Owner) bool {
	for ref, existing := range r.owners {
		if ref != owner.Ref && ref.Kind == owner.Kind && strings.EqualFold(existing.Email, owner.Email) {
			return true
		}
	}
	return false
}

func (r *memoryRepository) Create(_ context.Context, owner Owner) error {
	if _, err := tableFor(owner.Kind); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(owner) {
		return ErrEmailTaken
	}
	r.owners[owner.Ref] = owner
	r.order = append(r.order, owner.Ref)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, ref Ref) (Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[ref]
	if !ok {
		return Owner{}, ErrNotFound
	}
	return owner, nil
}

func (r *memoryRepository) List(_ context.Context, kind Kind, limit, offset int) ([]Owner, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Owner{}, nil
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Owner, 0, min(limit, len(r.order)))
	skipped := 0
	for _, ref := range r.order {
		if ref.Kind != kind {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, r.owners[ref])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, owner Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[owner.Ref]; !ok {
		return ErrNotFound
	}
	if r.emailTaken(owner) {
		return ErrEmailTaken
	}
	r.owners[owner.Ref] = owner
	return nil
}
