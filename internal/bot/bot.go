package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"SLH-Bot/internal/catalog"
	"SLH-Bot/internal/conversation"
	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/history"
	"SLH-Bot/internal/llm"
	"SLH-Bot/internal/telegram"
	"SLH-Bot/internal/token"
	"SLH-Bot/internal/users"
	"SLH-Bot/pkg/logger"
)

// Sender delivers replies to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMarkup(ctx context.Context, chatID int64, text string, markup any) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Conversation is the transfer dialogue.
type Conversation interface {
	Begin(ctx context.Context, sessionID string, userID int64) conversation.Reply
	Handle(ctx context.Context, sessionID string, userID int64, input string) (conversation.Reply, bool)
}

// BalanceReader reads the token balance of a registered wallet.
type BalanceReader interface {
	HumanBalance(ctx context.Context, owner common.Address) (token.Amount, error)
}

// KeyRegistrar stores signing keys sent with /setkey.
type KeyRegistrar interface {
	Register(userID int64, hexKey string) (common.Address, error)
}

// Deps are the collaborators of a Bot. Sender and Conversation are required.
type Deps struct {
	Sender       Sender
	Conversation Conversation
	Users        users.Repository
	Products     catalog.Repository
	History      history.Repository
	Recorder     conversation.HistoryRecorder
	Balances     BalanceReader
	Keys         KeyRegistrar
	Assistant    *llm.Assistant
}

// Bot routes updates.
type Bot struct {
	Deps
	symbol       string
	groupURL     string
	historyLimit int
	logger       *slog.Logger
	locks        *keyedMutex
}

// Option customises a Bot.
type Option func(*Bot)

// WithSymbol sets the token ticker shown in replies.
func WithSymbol(symbol string) Option {
	return func(b *Bot) {
		if symbol != "" {
			b.symbol = symbol
		}
	}
}

// WithGroupURL sets the community invite link.
func WithGroupURL(url string) Option {
	return func(b *Bot) { b.groupURL = url }
}

// WithHistoryLimit caps the number of events /history lists.
func WithHistoryLimit(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.historyLimit = n
		}
	}
}

// WithLogger replaces the default "bot" logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// New validates deps and returns a Bot.
func New(deps Deps, opts ...Option) (*Bot, error) {
	if deps.Sender == nil || deps.Conversation == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "bot 需要 Sender 与 Conversation")
	}
	if deps.Users == nil {
		deps.Users = users.NewMemoryRepository()
	}
	if deps.Products == nil {
		deps.Products = catalog.NewMemoryRepository()
	}
	if deps.Assistant == nil {
		deps.Assistant = llm.NewAssistant(nil)
	}
	b := &Bot{
		Deps:         deps,
		symbol:       "SLH",
		historyLimit: 10,
		logger:       logger.Named("bot"),
		locks:        newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Dispatch handles one update. Updates of the same session are serialized.
// The returned error reports a failed reply delivery.
func (b *Bot) Dispatch(ctx context.Context, update telegram.Update) error {
	chatID, from, ok := update.Origin()
	if !ok || from.IsBot {
		return nil
	}
	sid := telegram.SessionID(chatID, from.ID)
	unlock := b.locks.Lock(sid)
	defer unlock()

	if cq := update.CallbackQuery; cq != nil {
		return b.onCallback(ctx, chatID, sid, *cq)
	}
	return b.onMessage(ctx, chatID, sid, from, update.Message.Text)
}

type request struct {
	chatID    int64
	sessionID string
	from      telegram.User
}

func (b *Bot) onMessage(ctx context.Context, chatID int64, sid string, from telegram.User, text string) error {
	req := request{chatID: chatID, sessionID: sid, from: from}
	text = strings.TrimSpace(text)
	b.touchUser(ctx, from)

	cmd, args := parseCommand(text)
	// Message text is never logged: it may carry a private key.
	b.logger.Debug("收到消息", slog.String("session", sid), slog.String("command", cmd))

	if cmd == "setkey" {
		return b.setKey(ctx, req, args)
	}
	if cmd != "" && cmd != "cancel" {
		return b.command(ctx, req, cmd, args)
	}

	input := text
	if cmd == "cancel" {
		input = "/cancel"
	}
	if reply, ok := b.Conversation.Handle(ctx, sid, from.ID, input); ok {
		return b.Sender.SendMessage(ctx, chatID, reply.Text)
	}
	if cmd == "cancel" {
		return b.Sender.SendMessage(ctx, chatID, msgNothingToCancel)
	}

	switch text {
	case telegram.LabelWallet:
		return b.showWallet(ctx, req)
	case telegram.LabelGift:
		return b.beginTransfer(ctx, req)
	case telegram.LabelAI:
		return b.Sender.SendMarkup(ctx, chatID, msgAIMenu, telegram.AIKeyboard())
	case telegram.LabelCommunity:
		return b.Sender.SendMarkup(ctx, chatID, msgCommunity, telegram.CommunityKeyboard(b.groupURL))
	case telegram.LabelStats:
		return b.stats(ctx, req)
	case telegram.LabelSettings:
		return b.Sender.SendMessage(ctx, chatID, msgSettings)
	}
	if token.LooksLikeAddress(text) {
		return b.registerWallet(ctx, req, text)
	}
	return b.Sender.SendMarkup(ctx, chatID, msgUnknown, telegram.MainKeyboard())
}

func (b *Bot) command(ctx context.Context, req request, cmd, args string) error {
	switch cmd {
	case "start":
		name := req.from.FirstName
		if name == "" {
			name = req.from.Username
		}
		return b.Sender.SendMarkup(ctx, req.chatID, fmt.Sprintf(msgWelcome, name, b.symbol), telegram.MainKeyboard())
	case "help":
		return b.Sender.SendMessage(ctx, req.chatID, fmt.Sprintf(msgHelp, b.symbol))
	case "wallet":
		if args != "" {
			return b.registerWallet(ctx, req, args)
		}
		return b.showWallet(ctx, req)
	case "balance":
		return b.showBalance(ctx, req)
	case "transfer":
		return b.beginTransfer(ctx, req)
	case "history":
		return b.showHistory(ctx, req)
	case "store":
		return b.showStore(ctx, req)
	case "add":
		return b.addProduct(ctx, req, args)
	case "ai":
		return b.Sender.SendMessage(ctx, req.chatID, b.Assistant.Ask(ctx, args))
	default:
		return b.Sender.SendMessage(ctx, req.chatID, msgUnknownCommand)
	}
}

func (b *Bot) onCallback(ctx context.Context, chatID int64, sid string, cq telegram.CallbackQuery) error {
	var err error
	switch cq.Data {
	case telegram.CallbackConfirmJoin:
		if markErr := b.Users.MarkJoinedGroup(ctx, cq.From.ID); markErr != nil {
			b.logger.Error("更新入群状态失败", slog.String("session", sid), slog.Any("error", markErr))
			err = b.Sender.SendMessage(ctx, chatID, msgJoinError)
		} else {
			err = b.Sender.SendMessage(ctx, chatID, msgJoined)
		}
	case telegram.CallbackBackMain:
		err = b.Sender.SendMarkup(ctx, chatID, msgBackMain, telegram.MainKeyboard())
	case telegram.CallbackAIContract:
		answer := b.Assistant.AskAs(ctx, aiContractSystem, fmt.Sprintf(aiContractQuestion, b.symbol))
		err = b.Sender.SendMessage(ctx, chatID, fmt.Sprintf(msgAIContract, answer))
	case telegram.CallbackAIInvestment:
		answer := b.Assistant.AskAs(ctx, aiInvestmentSystem, fmt.Sprintf(aiInvestmentQuestion, b.symbol))
		err = b.Sender.SendMessage(ctx, chatID, fmt.Sprintf(msgAIInvestment, answer))
	}
	if ackErr := b.Sender.AnswerCallback(ctx, cq.ID, ""); ackErr != nil {
		err = errors.Join(err, ackErr)
	}
	return err
}

// parseCommand splits "/name@bot args" into ("name", "args"). Non-command
// text yields an empty name.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, args, _ := strings.Cut(text, " ")
	name := strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (b *Bot) touchUser(ctx context.Context, from telegram.User) {
	err := b.Users.Upsert(ctx, users.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		b.logger.Warn("保存用户失败", slog.Int64("user_id", from.ID), slog.Any("error", err))
	}
}

func (b *Bot) beginTransfer(ctx context.Context, req request) error {
	reply := b.Conversation.Begin(ctx, req.sessionID, req.from.ID)
	return b.Sender.SendMessage(ctx, req.chatID, reply.Text)
}
