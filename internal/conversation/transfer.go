// Package conversation implements the guarded token-transfer dialogue:
// amount, then recipient, then explicit confirmation. Each input advances a
// per-session record held in a session.Store; the record is deleted as soon
// as the dialogue terminates, so inputs arriving afterwards are ignored.
package conversation

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/keys"
	"SLH-Bot/internal/observability/alerting"
	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/internal/session"
	"SLH-Bot/internal/token"
	"SLH-Bot/internal/wallet"
	"SLH-Bot/pkg/logger"
)

// BalanceChecker reads human balances for the pre-flight check.
type BalanceChecker interface {
	HumanBalance(ctx context.Context, owner common.Address) (token.Amount, error)
	Decimals(ctx context.Context) (uint8, error)
}

// TransferExecutor submits a confirmed transfer.
type TransferExecutor interface {
	Execute(ctx context.Context, key *ecdsa.PrivateKey, recipient string, amount token.Amount) wallet.TransferResult
}

// KeyStore resolves the signing key of a user.
type KeyStore interface {
	Address(userID int64) (common.Address, bool)
	Acquire(userID int64) (*keys.Lease, error)
}

// HistoryRecorder receives one event per transfer attempt. Implementations
// must not block.
type HistoryRecorder interface {
	RecordEvent(ctx context.Context, userID int64, description string) error
}

// Reply is what the caller sends back to the user.
type Reply struct {
	Text  string
	State session.State
	// Code is set when the input was rejected or the dialogue failed.
	Code xerrors.Code
	// Result is set once a transfer was attempted.
	Result *wallet.TransferResult
}

var (
	cancelWords = map[string]struct{}{"cancel": {}, "/cancel": {}, "ביטול": {}}
	yesWords    = map[string]struct{}{"yes": {}, "y": {}, "confirm": {}, "כן": {}}
	noWords     = map[string]struct{}{"no": {}, "n": {}, "לא": {}}
)

func matches(set map[string]struct{}, input string) bool {
	_, ok := set[strings.ToLower(input)]
	return ok
}

// IsCancel reports whether input is a cancel keyword.
func IsCancel(input string) bool {
	return matches(cancelWords, strings.TrimSpace(input))
}

// Machine drives transfer conversations for all sessions. It is safe for
// concurrent use across sessions; inputs of one session must be delivered
// sequentially.
type Machine struct {
	store    session.Store
	balances BalanceChecker
	executor TransferExecutor
	keys     KeyStore
	history  HistoryRecorder
	alerts   alerting.Dispatcher
	log      *slog.Logger
	symbol   string
	timeout  time.Duration
	now      func() time.Time

	inflight singleflight.Group
}

// Option customises a Machine.
type Option func(*Machine)

// WithHistory sets the recorder transfer attempts are reported to.
func WithHistory(r HistoryRecorder) Option {
	return func(m *Machine) { m.history = r }
}

// WithAlerts sets the dispatcher failed transfers are reported to.
func WithAlerts(d alerting.Dispatcher) Option {
	return func(m *Machine) { m.alerts = d }
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithSymbol sets the token symbol shown to users.
func WithSymbol(symbol string) Option {
	return func(m *Machine) {
		if symbol != "" {
			m.symbol = symbol
		}
	}
}

// WithExecuteTimeout bounds a confirmed transfer. The transfer runs detached
// from the caller's cancellation so a dropped request cannot abort a
// broadcast halfway.
func WithExecuteTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// New builds a Machine.
func New(store session.Store, balances BalanceChecker, executor TransferExecutor, ks KeyStore, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		balances: balances,
		executor: executor,
		keys:     ks,
		log:      logger.Named("conversation"),
		symbol:   "SLH",
		timeout:  2 * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin starts a new transfer dialogue, replacing any dialogue in progress.
func (m *Machine) Begin(ctx context.Context, sessionID string, userID int64) (reply Reply) {
	defer m.recoverInto(ctx, sessionID, userID, &reply)

	rec := session.Record{
		SessionID: sessionID,
		UserID:    userID,
		State:     session.StateAwaitingAmount,
	}
	if err := m.save(ctx, rec, session.StateIdle); err != nil {
		return m.fail(ctx, sessionID, userID, err)
	}
	return Reply{Text: fmt.Sprintf(msgAskAmount, m.symbol), State: session.StateAwaitingAmount}
}

// Active reports whether sessionID has a dialogue in progress.
func (m *Machine) Active(ctx context.Context, sessionID string) (bool, error) {
	rec, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return ok && rec.State != session.StateTerminated && rec.State != session.StateIdle, nil
}

// Handle feeds one user input to the dialogue of sessionID. ok is false when
// no dialogue is in progress; the input was not consumed and the caller may
// route it elsewhere.
func (m *Machine) Handle(ctx context.Context, sessionID string, userID int64, input string) (reply Reply, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			reply = m.fail(ctx, sessionID, userID, fmt.Errorf("panic: %v", r))
			ok = true
		}
	}()

	rec, found, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return m.fail(ctx, sessionID, userID, err), true
	}
	if !found || rec.State == session.StateIdle || rec.State == session.StateTerminated {
		return Reply{}, false
	}

	text := strings.TrimSpace(input)
	if matches(cancelWords, text) {
		return m.cancel(ctx, rec), true
	}

	switch rec.State {
	case session.StateAwaitingAmount:
		return m.onAmount(ctx, rec, text), true
	case session.StateAwaitingRecipient:
		return m.onRecipient(ctx, rec, text), true
	case session.StateAwaitingConfirmation:
		return m.onConfirmation(ctx, rec, text)
	default:
		return m.fail(ctx, sessionID, userID, fmt.Errorf("unknown state %q", rec.State)), true
	}
}

func (m *Machine) onAmount(ctx context.Context, rec session.Record, text string) Reply {
	amount, err := token.ParseAmount(text)
	if err != nil {
		return m.retry(rec, msgInvalidAmount)
	}
	decimals, err := m.balances.Decimals(ctx)
	if err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}
	if !amount.FitsPrecision(decimals) {
		return m.retry(rec, fmt.Sprintf(msgTooPrecise, decimals))
	}

	rec.Pending.Amount = amount.String()
	rec.State = session.StateAwaitingRecipient
	if err := m.save(ctx, rec, session.StateAwaitingAmount); err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}
	return Reply{
		Text:  fmt.Sprintf(msgAskRecipient, amount, m.symbol),
		State: session.StateAwaitingRecipient,
	}
}

func (m *Machine) onRecipient(ctx context.Context, rec session.Record, text string) Reply {
	to, err := token.ValidateChecksum(text)
	if err != nil {
		if e, ok := xerrors.From(err); ok && e.Metadata()["expected"] != "" {
			return m.retry(rec, fmt.Sprintf(msgChecksumMismatch, e.Metadata()["expected"]))
		}
		return m.retry(rec, msgInvalidAddress)
	}
	amount, err := token.ParseAmount(rec.Pending.Amount)
	if err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}

	rec.Pending.Recipient = to.Hex()
	balanceLine := msgConfirmNoKey
	if signer, ok := m.keys.Address(rec.UserID); ok {
		balance, err := m.balances.HumanBalance(ctx, signer)
		if err != nil {
			return m.fail(ctx, rec.SessionID, rec.UserID, err)
		}
		if balance.LessThan(amount) {
			if err := m.terminate(ctx, rec); err != nil {
				return m.fail(ctx, rec.SessionID, rec.UserID, err)
			}
			return Reply{
				Text:  insufficientMessage(balance, amount, m.symbol),
				State: session.StateTerminated,
				Code:  xerrors.CodeInsufficientBalance,
			}
		}
		balanceLine = fmt.Sprintf(msgConfirmBalance, balance, m.symbol)
	}

	rec.State = session.StateAwaitingConfirmation
	if err := m.save(ctx, rec, session.StateAwaitingRecipient); err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}
	return Reply{
		Text:  fmt.Sprintf(msgConfirm, amount, m.symbol, rec.Pending.Recipient, balanceLine),
		State: session.StateAwaitingConfirmation,
	}
}

func (m *Machine) onConfirmation(ctx context.Context, rec session.Record, text string) (Reply, bool) {
	switch {
	case matches(yesWords, text):
		return m.confirm(ctx, rec)
	case matches(noWords, text):
		return m.cancel(ctx, rec), true
	default:
		return m.retry(rec, msgAskYesNo), true
	}
}

type confirmOutcome struct {
	reply Reply
	ok    bool
}

// confirm executes the pending transfer at most once per session. A
// duplicate confirmation arriving while the first is in flight shares its
// outcome; one arriving later finds the record already cleared.
func (m *Machine) confirm(ctx context.Context, rec session.Record) (Reply, bool) {
	v, _, _ := m.inflight.Do(rec.SessionID, func() (any, error) {
		current, found, err := m.store.Load(ctx, rec.SessionID)
		if err != nil {
			return confirmOutcome{reply: m.fail(ctx, rec.SessionID, rec.UserID, err), ok: true}, nil
		}
		if !found || current.State != session.StateAwaitingConfirmation || current.Pending != rec.Pending {
			return confirmOutcome{}, nil
		}
		if err := m.store.Delete(ctx, rec.SessionID); err != nil {
			return confirmOutcome{reply: m.fail(ctx, rec.SessionID, rec.UserID, err), ok: true}, nil
		}
		metrics.ObserveTransition(string(session.StateAwaitingConfirmation), string(session.StateTerminated))
		return confirmOutcome{reply: m.execute(ctx, rec), ok: true}, nil
	})
	out := v.(confirmOutcome)
	return out.reply, out.ok
}

func (m *Machine) execute(ctx context.Context, rec session.Record) Reply {
	amount, err := token.ParseAmount(rec.Pending.Amount)
	if err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}

	lease, err := m.keys.Acquire(rec.UserID)
	if err != nil {
		m.log.InfoContext(ctx, "transfer confirmed without signing key",
			slog.String("session_id", rec.SessionID), slog.Int64("user_id", rec.UserID))
		return Reply{Text: msgMissingKey, State: session.StateTerminated, Code: xerrors.CodeMissingCredential}
	}
	defer lease.Release()

	execCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()
	result := m.executor.Execute(execCtx, lease.Key, rec.Pending.Recipient, amount)

	m.recordHistory(ctx, rec, amount, result)
	if !result.OK() && result.Code == xerrors.CodeTransferFailed {
		m.alert(ctx, rec, xerrors.New(result.Code, result.Message,
			xerrors.WithMetadata("recipient", rec.Pending.Recipient),
			xerrors.WithMetadata("amount", amount.String()),
			xerrors.WithMetadata("signer", lease.Address.Hex()),
		))
	}

	return Reply{
		Text:   resultMessage(result, m.symbol),
		State:  session.StateTerminated,
		Code:   result.Code,
		Result: &result,
	}
}

func (m *Machine) recordHistory(ctx context.Context, rec session.Record, amount token.Amount, result wallet.TransferResult) {
	if m.history == nil {
		return
	}
	var description string
	if result.OK() {
		description = fmt.Sprintf("transfer %s %s to %s: %s", amount, m.symbol, rec.Pending.Recipient, result.TxHash)
	} else {
		description = fmt.Sprintf("transfer %s %s to %s failed (%s): %s", amount, m.symbol, rec.Pending.Recipient, result.Code, result.Message)
	}
	if err := m.history.RecordEvent(context.WithoutCancel(ctx), rec.UserID, description); err != nil {
		m.log.WarnContext(ctx, "record history event failed",
			slog.String("session_id", rec.SessionID), slog.String("error", err.Error()))
	}
}

func (m *Machine) cancel(ctx context.Context, rec session.Record) Reply {
	if err := m.terminate(ctx, rec); err != nil {
		return m.fail(ctx, rec.SessionID, rec.UserID, err)
	}
	return Reply{Text: msgCancelled, State: session.StateTerminated}
}

func (m *Machine) retry(rec session.Record, text string) Reply {
	return Reply{Text: text, State: rec.State, Code: xerrors.CodeValidation}
}

// terminate clears the record of a finished dialogue.
func (m *Machine) terminate(ctx context.Context, rec session.Record) error {
	metrics.ObserveTransition(string(rec.State), string(session.StateTerminated))
	return m.store.Delete(ctx, rec.SessionID)
}

func (m *Machine) save(ctx context.Context, rec session.Record, from session.State) error {
	rec.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, rec); err != nil {
		return err
	}
	metrics.ObserveTransition(string(from), string(rec.State))
	return nil
}

// fail ends the dialogue after an error. The record is removed on a
// best-effort basis. Chain failures show their cause; anything else gets a
// generic message.
func (m *Machine) fail(ctx context.Context, sessionID string, userID int64, err error) Reply {
	code := xerrors.CodeOf(err)
	m.log.ErrorContext(ctx, "transfer conversation aborted",
		slog.String("session_id", sessionID),
		slog.Int64("user_id", userID),
		slog.String("code", string(code)),
		slog.String("error", err.Error()),
	)
	if delErr := m.store.Delete(ctx, sessionID); delErr != nil {
		m.log.WarnContext(ctx, "clear session after failure",
			slog.String("session_id", sessionID), slog.String("error", delErr.Error()))
	}
	if xerrors.ShouldAlert(err) || code == xerrors.CodeUnknown {
		m.alert(ctx, session.Record{SessionID: sessionID, UserID: userID}, err)
	}
	text := msgInternalError
	if code == xerrors.CodeChainFailure {
		text = fmt.Sprintf(msgFailed, causeOf(err))
	}
	return Reply{Text: text, State: session.StateTerminated, Code: code}
}

// causeOf returns the text below the coded wrappers of err.
func causeOf(err error) string {
	e, ok := xerrors.From(err)
	if !ok {
		return err.Error()
	}
	for {
		inner, ok := xerrors.From(errors.Unwrap(e))
		if !ok {
			return e.Cause()
		}
		e = inner
	}
}

func (m *Machine) recoverInto(ctx context.Context, sessionID string, userID int64, reply *Reply) {
	if r := recover(); r != nil {
		*reply = m.fail(ctx, sessionID, userID, fmt.Errorf("panic: %v", r))
	}
}

func (m *Machine) alert(ctx context.Context, rec session.Record, err error) {
	if m.alerts == nil {
		return
	}
	if alertErr := m.alerts.Notify(context.WithoutCancel(ctx), alerting.EventFromError(err, rec.SessionID, rec.UserID)); alertErr != nil {
		m.log.WarnContext(ctx, "dispatch alert failed", slog.String("error", alertErr.Error()))
	}
}
