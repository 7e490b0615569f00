// Package ethtest provides an in-process ERC-20 backend for tests. It decodes
// calldata and signed transactions with the real ABI and EIP-155 signer, so
// callers exercise the same encoding paths as against a live node.
package ethtest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"

	"SLH-Bot/internal/web3/ethereum"
)

// Transfer is a transfer accepted by the backend.
type Transfer struct {
	Hash     common.Hash
	From     common.Address
	To       common.Address
	Amount   *big.Int
	Nonce    uint64
	Gas      uint64
	GasPrice *big.Int
}

// Backend is a fake chain holding balances of a single token.
type Backend struct {
	chainID  *big.Int
	contract common.Address
	decimals uint8

	mu            sync.Mutex
	balances      map[common.Address]*big.Int
	nonces        map[common.Address]uint64
	sent          []Transfer
	callErr       error
	sendErr       error
	decimalsCalls int
	balanceCalls  int
	nonceCalls    int
}

// NewBackend creates a backend for contract on chainID.
func NewBackend(chainID int64, contract common.Address, decimals uint8) *Backend {
	return &Backend{
		chainID:  big.NewInt(chainID),
		contract: contract,
		decimals: decimals,
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
	}
}

// SetBalance overrides the raw balance of owner.
func (b *Backend) SetBalance(owner common.Address, raw *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[owner] = new(big.Int).Set(raw)
}

// Balance returns the raw balance of owner.
func (b *Backend) Balance(owner common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceLocked(owner)
}

// FailCalls makes every eth_call fail with err. Pass nil to recover.
func (b *Backend) FailCalls(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callErr = err
}

// FailSends makes every broadcast fail with err. Pass nil to recover.
func (b *Backend) FailSends(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// Sent returns the accepted transfers in submission order.
func (b *Backend) Sent() []Transfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Transfer(nil), b.sent...)
}

// DecimalsCalls reports how many times decimals() was called.
func (b *Backend) DecimalsCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decimalsCalls
}

// BalanceCalls reports how many times balanceOf() was called.
func (b *Backend) BalanceCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balanceCalls
}

// NonceCalls reports how many pending nonces were requested.
func (b *Backend) NonceCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonceCalls
}

func (b *Backend) CallContract(_ context.Context, call gethcore.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.callErr != nil {
		return nil, b.callErr
	}
	if call.To == nil || *call.To != b.contract {
		return nil, nil
	}
	if len(call.Data) < 4 {
		return nil, errors.New("execution reverted")
	}
	method, err := ethereum.TokenABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "balanceOf":
		b.balanceCalls++
		return method.Outputs.Pack(b.balanceLocked(args[0].(common.Address)))
	case "decimals":
		b.decimalsCalls++
		return method.Outputs.Pack(b.decimals)
	default:
		return nil, fmt.Errorf("unsupported call %s", method.Name)
	}
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.callErr != nil {
		return 0, b.callErr
	}
	b.nonceCalls++
	return b.nonces[account], nil
}

// SendTransaction recovers the sender, checks the nonce and moves tokens.
func (b *Backend) SendTransaction(_ context.Context, tx *coretypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sendErr != nil {
		return b.sendErr
	}
	from, err := coretypes.Sender(coretypes.NewEIP155Signer(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if tx.To() == nil || *tx.To() != b.contract {
		return errors.New("transaction not addressed to token contract")
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d want %d", tx.Nonce(), b.nonces[from])
	}
	data := tx.Data()
	if len(data) < 4 {
		return errors.New("missing calldata")
	}
	method, err := ethereum.TokenABI.MethodById(data[:4])
	if err != nil || method.Name != "transfer" {
		return errors.New("unsupported transaction")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}
	to := args[0].(common.Address)
	amount := args[1].(*big.Int)

	balance := b.balanceLocked(from)
	if balance.Cmp(amount) < 0 {
		return errors.New("execution reverted: transfer amount exceeds balance")
	}
	b.balances[from] = new(big.Int).Sub(balance, amount)
	b.balances[to] = new(big.Int).Add(b.balanceLocked(to), amount)
	b.nonces[from]++
	b.sent = append(b.sent, Transfer{
		Hash:     tx.Hash(),
		From:     from,
		To:       to,
		Amount:   new(big.Int).Set(amount),
		Nonce:    tx.Nonce(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
	})
	return nil
}

func (b *Backend) balanceLocked(owner common.Address) *big.Int {
	if v, ok := b.balances[owner]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

var _ ethereum.Backend = (*Backend)(nil)
