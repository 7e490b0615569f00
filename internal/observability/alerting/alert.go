package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/pkg/logger"
)

// Channel 表示通知渠道。
type Channel string

// 支持的通知渠道
const (
	ChannelTelegram Channel = "telegram"
	ChannelLog      Channel = "log"
)

// Event 描述一次需要告警的事件。
type Event struct {
	Code       xerrors.Code
	Message    string
	Severity   xerrors.Severity
	SessionID  string
	UserID     int64
	Metadata   map[string]string
	OccurredAt time.Time
}

// EventFromError 根据统一错误构造告警事件。
func EventFromError(err error, sessionID string, userID int64) Event {
	event := Event{
		Code:       xerrors.CodeOf(err),
		Severity:   xerrors.SeverityOf(err),
		SessionID:  sessionID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if e, ok := xerrors.From(err); ok {
		event.Message = e.Cause()
		event.Metadata = e.Metadata()
	} else if err != nil {
		event.Message = err.Error()
	}
	return event
}

// Notifier 负责将事件发送到指定渠道。
type Notifier interface {
	Channel() Channel
	Notify(ctx context.Context, event Event) error
}

// Dispatcher 将事件广播给多个通知器。
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher 实现将事件投递到多个通知器的逻辑。
type FanoutDispatcher struct {
	notifiers map[Channel]Notifier
}

// NewFanout 创建一个新的 FanoutDispatcher。
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make(map[Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		set[n.Channel()] = n
	}
	return &FanoutDispatcher{notifiers: set}
}

// Notify 将事件广播至所有注册渠道。
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", notifier.Channel(), err))
		}
	}
	return errors.Join(errs...)
}

// MessageSender 是 Telegram 客户端中告警所需的部分。
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier 将告警发送到管理员聊天。
type TelegramNotifier struct {
	Sender MessageSender
	ChatID int64
}

// Channel 返回 Telegram 渠道。
func (n *TelegramNotifier) Channel() Channel { return ChannelTelegram }

// Notify 发送 Telegram 消息。
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil || n.ChatID == 0 {
		logger.L().Warn("TelegramNotifier 未正确配置，跳过发送", slog.String("session_id", event.SessionID))
		return nil
	}
	return n.Sender.SendMessage(ctx, n.ChatID, Format(event))
}

// LogNotifier 将告警写入审计日志。
type LogNotifier struct{}

// Channel 返回日志渠道。
func (LogNotifier) Channel() Channel { return ChannelLog }

// Notify 记录告警。
func (LogNotifier) Notify(ctx context.Context, event Event) error {
	attrs := []any{
		slog.String("code", string(event.Code)),
		slog.String("severity", string(event.Severity)),
		slog.String("session_id", event.SessionID),
		slog.Int64("user_id", event.UserID),
		slog.String("message", event.Message),
	}
	for _, k := range sortedKeys(event.Metadata) {
		attrs = append(attrs, slog.String(k, event.Metadata[k]))
	}
	logger.Audit().WarnContext(ctx, "alert", attrs...)
	return nil
}

// Format 渲染告警正文。
func Format(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", event.Severity, event.Code)
	if !event.OccurredAt.IsZero() {
		fmt.Fprintf(&b, "time: %s\n", event.OccurredAt.Format(time.RFC3339))
	}
	if event.SessionID != "" {
		fmt.Fprintf(&b, "session: %s\n", event.SessionID)
	}
	if event.UserID != 0 {
		fmt.Fprintf(&b, "user: %d\n", event.UserID)
	}
	b.WriteString(event.Message)
	for _, k := range sortedKeys(event.Metadata) {
		fmt.Fprintf(&b, "\n- %s: %s", k, event.Metadata[k])
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
