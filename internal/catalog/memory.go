package catalog

import (
	"context"
	"sync"
	"time"

	xerrors "SLH-Bot/internal/errors"
)

// MemoryRepository keeps products in insertion order.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	products []Product
	now      func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Add(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	r.products = append(r.products, p)
	return p, nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID int64) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Product
	for _, p := range r.products {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, xerrors.New(xerrors.CodeNotFound, "product not found")
}

var _ Repository = (*MemoryRepository)(nil)
