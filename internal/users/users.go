// Package users keeps bot user profiles and their registered wallet address.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/token"
)

// User is a Telegram user known to the bot.
type User struct {
	ID            int64
	Username      string
	FirstName     string
	LastName      string
	WalletAddress string
	JoinedGroup   bool
	CreatedAt     time.Time
}

// Repository persists users.
type Repository interface {
	// Upsert inserts u or refreshes its profile fields. The wallet and
	// group flag of an existing user are kept.
	Upsert(ctx context.Context, u User) error
	// Get returns NOT_FOUND when the user is unknown.
	Get(ctx context.Context, id int64) (User, error)
	SetWallet(ctx context.Context, id int64, address string) error
	MarkJoinedGroup(ctx context.Context, id int64) error
}

// NormalizeWallet accepts an all-lowercase or all-uppercase hex address and
// returns its checksummed form. Mixed-case input must already be a valid
// checksum, since a wrong mix usually means a typo.
func NormalizeWallet(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !token.LooksLikeAddress(input) || !common.IsHexAddress(input) {
		return common.Address{}, xerrors.New(xerrors.CodeValidation, "invalid wallet address")
	}
	body := input[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return common.HexToAddress(input), nil
	}
	return token.ValidateChecksum(input)
}
