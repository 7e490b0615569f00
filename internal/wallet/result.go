package wallet

import (
	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/token"
)

// TransferResult is the outcome of Execute. Exactly one of TxHash or Code is
// set.
type TransferResult struct {
	TxHash      string
	ExplorerURL string

	Code    xerrors.Code
	Message string
	// Balance and Required are set for INSUFFICIENT_BALANCE.
	Balance  token.Amount
	Required token.Amount
}

// OK reports whether the transfer was broadcast.
func (r TransferResult) OK() bool {
	return r.TxHash != "" && r.Code == ""
}

// Err converts a failed result into a coded error; nil on success.
func (r TransferResult) Err() error {
	if r.OK() {
		return nil
	}
	return xerrors.New(r.Code, r.Message)
}

func failure(code xerrors.Code, message string) TransferResult {
	return TransferResult{Code: code, Message: message}
}
