package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRedactMasksSensitiveAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler("json", &buf, &slog.HandlerOptions{ReplaceAttr: Redact}))

	log.Info("registered signing key",
		slog.String("private_key", "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"),
		slog.Group("telegram", slog.String("token", "123:abc")),
		slog.String("address", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"),
	)

	out := buf.String()
	if strings.Contains(out, "4c0883a6") || strings.Contains(out, "123:abc") {
		t.Fatalf("secret leaked into log output: %s", out)
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["private_key"] != RedactedValue {
		t.Fatalf("expected private_key to be redacted, got %v", entry["private_key"])
	}
	if entry["address"] != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Fatalf("non-sensitive attributes must pass through, got %v", entry["address"])
	}
}

func TestTextHandlerSelectedByFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler("TEXT", &buf, nil)).Info("hello", "user_id", 7)
	if !strings.Contains(buf.String(), "user_id=7") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}

func TestAuditWriterAppliesRotationDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "transfers.log")
	writer := newAuditWriter(AuditConfig{Path: path})
	defer writer.Close()

	if writer.MaxSize != 100 || writer.MaxBackups != 7 || writer.MaxAge != 30 {
		t.Fatalf("unexpected rotation settings: %+v", writer)
	}
	if _, err := writer.Write([]byte("{\"msg\":\"transfer\"}\n")); err != nil {
		t.Fatalf("write audit line: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if !strings.Contains(string(content), "transfer") {
		t.Fatalf("unexpected audit content %q", content)
	}
}
