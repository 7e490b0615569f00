package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SLH-Bot/internal/catalog"
)

const historyTimeLayout = "2006-01-02 15:04"

func (b *Bot) showHistory(ctx context.Context, req request) error {
	if b.History == nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgHistoryEmpty)
	}
	events, err := b.History.ListByUser(ctx, req.from.ID, b.historyLimit)
	if err != nil {
		b.logger.Error("读取历史失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgHistoryError)
	}
	if len(events) == 0 {
		return b.Sender.SendMessage(ctx, req.chatID, msgHistoryEmpty)
	}
	var sb strings.Builder
	sb.WriteString(msgHistoryTitle)
	for _, e := range events {
		fmt.Fprintf(&sb, "\n• %s | %s", e.CreatedAt.UTC().Format(historyTimeLayout), e.Description)
	}
	return b.Sender.SendMessage(ctx, req.chatID, sb.String())
}

func (b *Bot) showStore(ctx context.Context, req request) error {
	products, err := b.Products.ListByOwner(ctx, req.from.ID)
	if err != nil {
		b.logger.Error("读取商品失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgStoreError)
	}
	if len(products) == 0 {
		return b.Sender.SendMessage(ctx, req.chatID, msgStoreEmpty)
	}
	var sb strings.Builder
	sb.WriteString(msgStoreTitle)
	for _, p := range products {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, msgProduct, p.Name, p.Price.String(), b.symbol)
	}
	return b.Sender.SendMessage(ctx, req.chatID, sb.String())
}

func (b *Bot) addProduct(ctx context.Context, req request, args string) error {
	name, price, err := catalog.ParseAddArgs(args)
	if err != nil {
		return b.Sender.SendMessage(ctx, req.chatID, msgAddUsage)
	}
	if _, err := b.Products.Add(ctx, catalog.Product{OwnerID: req.from.ID, Name: name, Price: price}); err != nil {
		b.logger.Error("保存商品失败", slog.Int64("user_id", req.from.ID), slog.Any("error", err))
		return b.Sender.SendMessage(ctx, req.chatID, msgAddError)
	}
	return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgProductAdded, name))
}
