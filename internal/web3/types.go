package web3

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenClient wraps read and write calls against a single ERC-20 contract.
// Implementations are shared by all sessions and must be safe for
// concurrent use. Failures are reported as CHAIN_FAILURE coded errors.
type TokenClient interface {
	// BalanceOf returns the raw base-unit balance of owner.
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	// Decimals returns the token precision. The value is cached after the
	// first successful call.
	Decimals(ctx context.Context) (uint8, error)
	// SubmitTransfer signs and broadcasts transfer(to, amount) from the key's
	// address and returns the transaction hash.
	SubmitTransfer(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int) (common.Hash, error)
	Close()
}

// TokenInfo describes the token contract a client is bound to.
type TokenInfo struct {
	ChainID  *big.Int
	Contract common.Address
	Symbol   string
}
