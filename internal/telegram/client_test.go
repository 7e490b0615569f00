package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xerrors "SLH-Bot/internal/errors"
)

type capturedCall struct {
	Path string
	Body map[string]any
}

func newBotAPI(t *testing.T, reply string, calls *[]capturedCall) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		*calls = append(*calls, capturedCall{Path: r.URL.Path, Body: body})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); !xerrors.IsCode(err, xerrors.CodeMissingCredential) {
		t.Fatalf("expected MISSING_CREDENTIAL, got %v", err)
	}
}

func TestSendMarkup(t *testing.T) {
	var calls []capturedCall
	srv := newBotAPI(t, `{"ok":true,"result":{"message_id":1}}`, &calls)
	client, err := NewClient(Config{Token: "123:abc", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.SendMarkup(context.Background(), 42, "שלום", MainKeyboard()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(calls) != 1 || calls[0].Path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	body := calls[0].Body
	if body["chat_id"] != float64(42) || body["text"] != "שלום" {
		t.Fatalf("unexpected body: %v", body)
	}
	markup, ok := body["reply_markup"].(map[string]any)
	if !ok || markup["resize_keyboard"] != true {
		t.Fatalf("keyboard missing: %v", body)
	}
}

func TestSendMessageOmitsMarkup(t *testing.T) {
	var calls []capturedCall
	srv := newBotAPI(t, `{"ok":true,"result":{}}`, &calls)
	client, _ := NewClient(Config{Token: "t", BaseURL: srv.URL})

	if err := client.SendMessage(context.Background(), 1, strings.Repeat("x", maxMessageRunes+10)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, ok := calls[0].Body["reply_markup"]; ok {
		t.Fatalf("reply_markup should be omitted: %v", calls[0].Body)
	}
	if n := len([]rune(calls[0].Body["text"].(string))); n != maxMessageRunes {
		t.Fatalf("text should be truncated to %d runes, got %d", maxMessageRunes, n)
	}
}

func TestAPIErrorIsTransportFailure(t *testing.T) {
	var calls []capturedCall
	srv := newBotAPI(t, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`, &calls)
	client, _ := NewClient(Config{Token: "t", BaseURL: srv.URL})

	err := client.SendMessage(context.Background(), 1, "hi")
	if !xerrors.IsCode(err, xerrors.CodeTransportFailure) {
		t.Fatalf("expected TRANSPORT_FAILURE, got %v", err)
	}
	if !xerrors.RetryableError(err) {
		t.Fatalf("rate limit should be retryable")
	}
	if e, ok := xerrors.From(err); !ok || e.Metadata()["retry_after"] != "3" {
		t.Fatalf("retry_after missing: %v", err)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, _ := NewClient(Config{Token: "123:secret-token", BaseURL: url})
	err := client.SendMessage(context.Background(), 1, "hi")
	if err == nil {
		t.Fatalf("expected error from closed server")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("error leaks token: %v", err)
	}
}

func TestWebhookCalls(t *testing.T) {
	var calls []capturedCall
	srv := newBotAPI(t, `{"ok":true,"result":{"url":"https://bot.example/webhook","pending_update_count":2}}`, &calls)
	client, _ := NewClient(Config{Token: "t", BaseURL: srv.URL})
	ctx := context.Background()

	if err := client.SetWebhook(ctx, "https://bot.example/webhook", "s3cr3t"); err != nil {
		t.Fatalf("set webhook: %v", err)
	}
	if calls[0].Body["secret_token"] != "s3cr3t" || calls[0].Body["url"] != "https://bot.example/webhook" {
		t.Fatalf("unexpected setWebhook body: %v", calls[0].Body)
	}

	info, err := client.GetWebhookInfo(ctx)
	if err != nil {
		t.Fatalf("get webhook info: %v", err)
	}
	if info.URL != "https://bot.example/webhook" || info.PendingUpdateCount != 2 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if calls[1].Path != "/bott/getWebhookInfo" {
		t.Fatalf("unexpected path %s", calls[1].Path)
	}
}

func TestUpdateOrigin(t *testing.T) {
	var u Update
	raw := `{"update_id":1,"message":{"message_id":5,"from":{"id":7,"first_name":"Dana"},"chat":{"id":-100,"type":"group"},"text":"/balance"}}`
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	chatID, from, ok := u.Origin()
	if !ok || chatID != -100 || from.ID != 7 {
		t.Fatalf("unexpected origin %d %+v %v", chatID, from, ok)
	}
	if got := SessionID(chatID, from.ID); got != "-100:7" {
		t.Fatalf("unexpected session id %q", got)
	}
	if _, _, ok := (Update{UpdateID: 2}).Origin(); ok {
		t.Fatalf("empty update should have no origin")
	}
}

func TestCommunityKeyboard(t *testing.T) {
	kb := CommunityKeyboard("")
	if len(kb.InlineKeyboard) != 2 || kb.InlineKeyboard[0][0].CallbackData != CallbackConfirmJoin {
		t.Fatalf("unexpected keyboard without url: %+v", kb)
	}
	if kb := CommunityKeyboard("https://t.me/+x"); len(kb.InlineKeyboard) != 3 || kb.InlineKeyboard[0][0].URL == "" {
		t.Fatalf("unexpected keyboard with url: %+v", kb)
	}
}
