package users

import (
	"context"
	"sync"
	"time"

	xerrors "SLH-Bot/internal/errors"
)

// MemoryRepository keeps users in a map.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[int64]User
	now   func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[int64]User), now: time.Now}
}

func (r *MemoryRepository) Upsert(_ context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.users[u.ID]; ok {
		existing.Username = u.Username
		existing.FirstName = u.FirstName
		existing.LastName = u.LastName
		r.users[u.ID] = existing
		return nil
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now().UTC()
	}
	r.users[u.ID] = u
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, xerrors.New(xerrors.CodeNotFound, "user not found")
	}
	return u, nil
}

func (r *MemoryRepository) SetWallet(_ context.Context, id int64, address string) error {
	return r.update(id, func(u *User) { u.WalletAddress = address })
}

func (r *MemoryRepository) MarkJoinedGroup(_ context.Context, id int64) error {
	return r.update(id, func(u *User) { u.JoinedGroup = true })
}

func (r *MemoryRepository) update(id int64, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		u = User{ID: id, CreatedAt: r.now().UTC()}
	}
	fn(&u)
	r.users[id] = u
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
