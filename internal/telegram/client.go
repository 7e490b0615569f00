package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	xerrors "SLH-Bot/internal/errors"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	defaultTimeout = 15 * time.Second
	// Bot API rejects longer texts.
	maxMessageRunes = 4096
)

// Config 描述 Bot API 访问参数。
type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Bot API over HTTPS.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient 根据配置创建 Bot API 客户端。
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, xerrors.New(xerrors.CodeMissingCredential, "未提供 Telegram Bot Token")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// SendMessage sends plain text to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.SendMarkup(ctx, chatID, text, nil)
}

// SendMarkup sends text with a reply or inline keyboard.
func (c *Client) SendMarkup(ctx context.Context, chatID int64, text string, markup any) error {
	req := sendMessageRequest{ChatID: chatID, Text: truncate(text), ReplyMarkup: markup}
	return c.call(ctx, "sendMessage", req, nil)
}

// AnswerCallback acknowledges an inline button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// SetWebhook registers url; Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	payload := map[string]any{
		"url":             webhookURL,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if secret != "" {
		payload["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", payload, nil)
}

// GetWebhookInfo 返回当前 webhook 状态。
func (c *Client) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", struct{}{}, &info); err != nil {
		return WebhookInfo{}, err
	}
	return info, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化 %s 请求失败: %w", method, err)
	}
	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构建 %s 请求失败: %w", method, redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeTransportFailure, redact(err), "请求 Telegram "+method+" 失败")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("读取 %s 响应失败: %w", method, err)
	}
	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("解析 %s 响应失败 (HTTP %d): %w", method, resp.StatusCode, err)
	}
	if !decoded.OK {
		opts := []xerrors.Option{xerrors.WithMetadata("method", method)}
		if decoded.Parameters != nil && decoded.Parameters.RetryAfter > 0 {
			opts = append(opts, xerrors.WithMetadata("retry_after", fmt.Sprint(decoded.Parameters.RetryAfter)))
		} else {
			opts = append(opts, xerrors.WithRetryable(false))
		}
		message := fmt.Sprintf("Telegram %s 返回错误 %d: %s", method, decoded.ErrorCode, decoded.Description)
		return xerrors.New(xerrors.CodeTransportFailure, message, opts...)
	}
	if out != nil && len(decoded.Result) > 0 {
		if err := json.Unmarshal(decoded.Result, out); err != nil {
			return fmt.Errorf("解析 %s 结果失败: %w", method, err)
		}
	}
	return nil
}

// redact drops the request URL, which embeds the bot token.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageRunes {
		return text
	}
	return string(runes[:maxMessageRunes-1]) + "…"
}
