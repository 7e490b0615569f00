// Package keys holds transfer signing keys in memory for a bounded time.
// Keys are never persisted or logged. A key registered by a user is handed
// out once as a Lease and wiped when the lease is released or when it has
// sat unused for longer than the vault TTL. The operator key, when
// configured, is bound to a fixed set of users and survives releases.
package keys

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	xerrors "SLH-Bot/internal/errors"
)

type entry struct {
	key          *ecdsa.PrivateKey
	address      common.Address
	registeredAt time.Time
	sticky       bool
}

// Vault maps user ids to signing keys.
type Vault struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[int64]*entry
}

// Option customises a Vault.
type Option func(*Vault)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// NewVault returns an empty vault. A ttl of zero disables expiry.
func NewVault(ttl time.Duration, opts ...Option) *Vault {
	v := &Vault{ttl: ttl, now: time.Now, entries: make(map[int64]*entry)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ParseKey decodes a hex private key with or without the 0x prefix.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// The decoder error may echo input bytes.
		return nil, xerrors.New(xerrors.CodeValidation, "invalid private key")
	}
	return key, nil
}

// Register stores a one-shot key for userID, replacing and wiping any
// previous one-shot key. It returns the key's address.
func (v *Vault) Register(userID int64, hexKey string) (common.Address, error) {
	key, err := ParseKey(hexKey)
	if err != nil {
		return common.Address{}, err
	}
	return v.put(userID, key, false), nil
}

// BindOperator registers hexKey as a sticky key for each of userIDs.
func (v *Vault) BindOperator(hexKey string, userIDs ...int64) (common.Address, error) {
	key, err := ParseKey(hexKey)
	if err != nil {
		return common.Address{}, err
	}
	var addr common.Address
	for _, id := range userIDs {
		addr = v.put(id, key, true)
	}
	if len(userIDs) == 0 {
		addr = crypto.PubkeyToAddress(key.PublicKey)
	}
	return addr, nil
}

func (v *Vault) put(userID int64, key *ecdsa.PrivateKey, sticky bool) common.Address {
	addr := crypto.PubkeyToAddress(key.PublicKey)
	v.mu.Lock()
	defer v.mu.Unlock()
	if old, ok := v.entries[userID]; ok && !old.sticky && old.key != key {
		wipe(old.key)
	}
	v.entries[userID] = &entry{key: key, address: addr, registeredAt: v.now(), sticky: sticky}
	return addr
}

// Address returns the address of the key registered for userID without
// leasing it.
func (v *Vault) Address(userID int64) (common.Address, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.live(userID)
	if !ok {
		return common.Address{}, false
	}
	return e.address, true
}

// Acquire leases the key of userID. One-shot keys leave the vault at this
// point; the caller must Release the lease when the transfer attempt ends.
func (v *Vault) Acquire(userID int64) (*Lease, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	e, ok := v.live(userID)
	if !ok {
		return nil, xerrors.New(xerrors.CodeMissingCredential, "no signing key registered for user")
	}
	if !e.sticky {
		delete(v.entries, userID)
	}
	return &Lease{Key: e.key, Address: e.address, wipe: !e.sticky}, nil
}

// Forget removes and wipes the one-shot key of userID.
func (v *Vault) Forget(userID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[userID]; ok && !e.sticky {
		wipe(e.key)
		delete(v.entries, userID)
	}
}

// live returns the entry for userID, dropping it if expired. Caller holds mu.
func (v *Vault) live(userID int64) (*entry, bool) {
	e, ok := v.entries[userID]
	if !ok {
		return nil, false
	}
	if v.expired(e) {
		wipe(e.key)
		delete(v.entries, userID)
		return nil, false
	}
	return e, true
}

func (v *Vault) expired(e *entry) bool {
	return !e.sticky && v.ttl > 0 && v.now().Sub(e.registeredAt) > v.ttl
}

// Reap wipes every expired one-shot key and returns how many were removed.
func (v *Vault) Reap() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	removed := 0
	for id, e := range v.entries {
		if v.expired(e) {
			wipe(e.key)
			delete(v.entries, id)
			removed++
		}
	}
	return removed
}

// Run reaps expired keys every interval until ctx is done.
func (v *Vault) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Reap()
		}
	}
}

// Len reports the number of registered keys.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Lease grants temporary use of a signing key.
type Lease struct {
	Key     *ecdsa.PrivateKey
	Address common.Address

	wipe bool
	once sync.Once
}

// Release ends the lease. One-shot keys are zeroed and must not be used
// afterwards. Release is idempotent.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		if l.wipe {
			wipe(l.Key)
		}
		l.Key = nil
	})
}

func wipe(key *ecdsa.PrivateKey) {
	if key == nil || key.D == nil {
		return
	}
	words := key.D.Bits()
	for i := range words {
		words[i] = 0
	}
	key.D.SetInt64(0)
}
