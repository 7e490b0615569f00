package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/users"
)

func (b *Bot) setKey(ctx context.Context, req request, args string) error {
	if args == "" {
		return b.Sender.SendMessage(ctx, req.chatID, msgSetKeyUsage)
	}
	if b.Keys == nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgInvalidKey)
	}
	addr, err := b.Keys.Register(req.from.ID, args)
	if err != nil {
		b.logger.Info("签名密钥无效", slog.Int64("user_id", req.from.ID))
		return b.Sender.SendMessage(ctx, req.chatID, msgInvalidKey)
	}
	b.logger.Info("签名密钥已登记", slog.Int64("user_id", req.from.ID), slog.String("address", addr.Hex()))
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgKeyRegistered, addr.Hex()))
}

func (b *Bot) registerWallet(ctx context.Context, req request, input string) error {
	addr, err := users.NormalizeWallet(input)
	if err != nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgInvalidWallet)
	}
	if err := b.Users.SetWallet(ctx, req.from.ID, addr.Hex()); err != nil {
		b.logger.Error("保存钱包地址失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgWalletError)
	}
	if b.Recorder != nil {
		if err := b.Recorder.RecordEvent(ctx, req.from.ID, "wallet registered: "+addr.Hex()); err != nil {
			b.logger.Warn("记录历史失败", slog.Any("error", err))
		}
	}
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgWalletSaved, addr.Hex(), b.balanceText(ctx, addr)))
}

// wallet returns the registered address of the sender, if any.
func (b *Bot) wallet(ctx context.Context, req request) (common.Address, bool, error) {
	u, err := b.Users.Get(ctx, req.from.ID)
	if xerrors.IsCode(err, xerrors.CodeNotFound) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	if u.WalletAddress == "" {
		return common.Address{}, false, nil
	}
	return common.HexToAddress(u.WalletAddress), true, nil
}

func (b *Bot) showWallet(ctx context.Context, req request) error {
	addr, ok, err := b.wallet(ctx, req)
	if err != nil {
		b.logger.Error("读取用户失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgBalanceError)
	}
	if !ok {
		return b.Sender.SendMessage(ctx, req.chatID, msgNoWallet)
	}
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgWallet, addr.Hex(), b.balanceText(ctx, addr)))
}

func (b *Bot) showBalance(ctx context.Context, req request) error {
	addr, ok, err := b.wallet(ctx, req)
	if err != nil {
		b.logger.Error("读取用户失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgBalanceError)
	}
	if !ok {
		return b.Sender.SendMessage(ctx, req.chatID, msgNoWallet)
	}
	if b.Balances == nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgBalanceError)
	}
	balance, err := b.Balances.HumanBalance(ctx, addr)
	if err != nil {
		b.logger.Warn("查询余额失败", slog.String("address", addr.Hex()), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgBalanceError)
	}
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgBalance, balance, b.symbol))
}

func (b *Bot) balanceText(ctx context.Context, addr common.Address) string {
	if b.Balances == nil {
		return balanceUnavailable
	}
	balance, err := b.Balances.HumanBalance(ctx, addr)
	if err != nil {
		b.logger.Warn("查询余额失败", slog.String("address", addr.Hex()), slog.Any("error", err))
		return balanceUnavailable
	}
	return balance.String() + " " + b.symbol
}

func (b *Bot) stats(ctx context.Context, req request) error {
	u, err := b.Users.Get(ctx, req.from.ID)
	if err != nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgStatsError)
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	username := notRegistered
	if u.Username != "" {
		username = "@" + u.Username
	}
	walletText := notRegistered
	if u.WalletAddress != "" {
		walletText = u.WalletAddress
	}
	status := statusNotJoined
	if u.JoinedGroup {
		status = statusJoined
	}
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgStats, name, username, walletText, status))
}
