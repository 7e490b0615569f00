package session

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	xerrors "SLH-Bot/internal/errors"
)

// MemoryStore keeps records in a ristretto cache with per-entry TTL.
type MemoryStore struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-process store. maxSessions bounds the number
// of live records.
func NewMemoryStore(ttl time.Duration, maxSessions int64) (*MemoryStore, error) {
	if maxSessions <= 0 {
		maxSessions = 100_000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxSessions * 10,
		MaxCost:            maxSessions,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建会话缓存失败")
	}
	return &MemoryStore{cache: cache, ttl: ttl}, nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Record, bool, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return Record{}, false, nil
	}
	rec, ok := v.(Record)
	if !ok {
		return Record{}, false, xerrors.New(xerrors.CodeStorageFailure, "会话缓存中存在非法数据")
	}
	return rec, true, nil
}

// Save stores rec and waits until it is visible to Load. A write the cache
// accepted into its buffer but later dropped is reported as a failure.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if !s.cache.SetWithTTL(rec.SessionID, rec, 1, s.ttl) {
		return xerrors.New(xerrors.CodeStorageFailure, "会话写入被缓存拒绝")
	}
	s.cache.Wait()
	v, ok := s.cache.Get(rec.SessionID)
	if stored, isRecord := v.(Record); !ok || !isRecord || !sameRecord(stored, rec) {
		return xerrors.New(xerrors.CodeStorageFailure, "会话写入未生效",
			xerrors.WithMetadata("session_id", rec.SessionID))
	}
	return nil
}

func sameRecord(a, b Record) bool {
	return a.UserID == b.UserID && a.State == b.State && a.Pending == b.Pending && a.UpdatedAt.Equal(b.UpdatedAt)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Del(id)
	s.cache.Wait()
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}

var _ Store = (*MemoryStore)(nil)
