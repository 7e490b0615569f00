package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/crypto"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/internal/token"
	"SLH-Bot/internal/web3"
	"SLH-Bot/pkg/logger"
)

// Executor performs balance-checked token transfers.
//
// Execute has no idempotency of its own: two calls with the same arguments
// broadcast two transactions. Callers deduplicate.
type Executor struct {
	client        web3.TokenClient
	balances      *BalanceService
	explorerTxURL string
	audit         *slog.Logger
}

// Option customises an Executor.
type Option func(*Executor)

// WithAuditLogger overrides the logger transfer outcomes are written to.
func WithAuditLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.audit = l
		}
	}
}

// NewExecutor builds an executor. explorerTxURL is the prefix the
// transaction hash is appended to.
func NewExecutor(client web3.TokenClient, explorerTxURL string, opts ...Option) *Executor {
	e := &Executor{
		client:        client,
		balances:      NewBalanceService(client),
		explorerTxURL: explorerTxURL,
		audit:         logger.Audit(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Balances exposes the balance service sharing this executor's client.
func (e *Executor) Balances() *BalanceService {
	return e.balances
}

// Execute validates the recipient, checks the signer's balance and submits
// the transfer. It never returns a raw error or panics; every outcome is a
// TransferResult.
func (e *Executor) Execute(ctx context.Context, key *ecdsa.PrivateKey, recipient string, amount token.Amount) (result TransferResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure(xerrors.CodeTransferFailed, fmt.Sprintf("unexpected failure: %v", r))
		}
		e.report(ctx, recipient, amount, result)
	}()

	to, err := token.ValidateChecksum(recipient)
	if err != nil {
		return failure(xerrors.CodeValidation, "invalid recipient address: "+recipient)
	}
	if !amount.IsPositive() {
		return failure(xerrors.CodeValidation, "amount must be positive")
	}
	if key == nil {
		return failure(xerrors.CodeMissingCredential, "no signing key registered")
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	balance, err := e.balances.HumanBalance(ctx, from)
	if err != nil {
		return failure(xerrors.CodeTransferFailed, causeOf(err))
	}
	if balance.LessThan(amount) {
		r := failure(xerrors.CodeInsufficientBalance,
			fmt.Sprintf("balance %s is lower than requested %s", balance, amount))
		r.Balance = balance
		r.Required = amount
		return r
	}

	decimals, err := e.balances.Decimals(ctx)
	if err != nil {
		return failure(xerrors.CodeTransferFailed, causeOf(err))
	}
	base, err := amount.ToBaseUnits(decimals)
	if err != nil {
		return failure(xerrors.CodeValidation, causeOf(err))
	}

	hash, err := e.client.SubmitTransfer(ctx, key, to, base)
	if err != nil {
		return failure(xerrors.CodeTransferFailed, causeOf(err))
	}
	return TransferResult{
		TxHash:      hash.Hex(),
		ExplorerURL: e.explorerTxURL + hash.Hex(),
	}
}

func (e *Executor) report(ctx context.Context, recipient string, amount token.Amount, result TransferResult) {
	outcome := "success"
	level := slog.LevelInfo
	if !result.OK() {
		outcome = string(result.Code)
		level = slog.LevelWarn
	}
	metrics.ObserveTransfer(outcome)
	e.audit.Log(ctx, level, "token transfer",
		slog.String("recipient", recipient),
		slog.String("amount", amount.String()),
		slog.String("outcome", outcome),
		slog.String("tx_hash", result.TxHash),
		slog.String("message", result.Message),
	)
}

// causeOf returns the underlying error text without the coded wrapper.
func causeOf(err error) string {
	if e, ok := xerrors.From(err); ok {
		return e.Cause()
	}
	return err.Error()
}
