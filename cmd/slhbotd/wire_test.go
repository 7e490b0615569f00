package main

import (
	"context"
	"path/filepath"
	"testing"

	"SLH-Bot/internal/config"
	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/llm"
)

const testOperatorKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestBuildSessionStoreDrivers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.Driver = "memory"
	cfg.Session.TTLSeconds = 60
	store, err := buildSessionStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	_ = store.Close()

	cfg.Session.Driver = "etcd"
	if _, err := buildSessionStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestBuildRepositoriesMemoryUsesHistoryFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "memory"
	cfg.History.File = filepath.Join(t.TempDir(), "history.jsonl")
	repos, err := buildRepositories(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build repositories: %v", err)
	}
	defer repos.Close()
	if repos.users == nil || repos.products == nil || repos.history == nil {
		t.Fatalf("expected all repositories to be set: %+v", repos)
	}
}

func TestBuildHistoryQueueRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.History.Queue.Driver = "kafka"
	if _, err := buildHistoryQueue(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	cfg.History.Queue.Driver = "memory"
	cfg.History.Queue.Buffer = 4
	q, err := buildHistoryQueue(context.Background(), cfg)
	if err != nil {
		t.Fatalf("memory queue: %v", err)
	}
	_ = q.Close()
}

func TestBuildVaultOperatorKey(t *testing.T) {
	cfg := &config.Config{}
	cfg.Keys.TTLSeconds = 60
	cfg.Keys.OperatorKeyEnv = "SLHBOT_TEST_OPERATOR_KEY"

	vault, err := buildVault(cfg)
	if err != nil || vault.Len() != 0 {
		t.Fatalf("vault without operator key: len=%d err=%v", vault.Len(), err)
	}

	t.Setenv("SLHBOT_TEST_OPERATOR_KEY", testOperatorKey)
	if _, err := buildVault(cfg); !xerrors.IsCode(err, xerrors.CodeValidation) {
		t.Fatalf("expected validation error without operator ids, got %v", err)
	}

	cfg.Telegram.OperatorUserIDs = []int64{7, 8}
	vault, err = buildVault(cfg)
	if err != nil {
		t.Fatalf("bind operator: %v", err)
	}
	if _, ok := vault.Address(8); !ok {
		t.Fatalf("expected operator key bound to user 8")
	}
}

func TestBuildAssistantProviders(t *testing.T) {
	cfg := &config.Config{}
	cfg.LLM.Provider = "none"
	assistant, err := buildAssistant(cfg)
	if err != nil {
		t.Fatalf("none provider: %v", err)
	}
	if assistant.Enabled() {
		t.Fatalf("expected disabled assistant")
	}
	if got := assistant.Ask(context.Background(), "hi"); got != llm.FallbackMessage {
		t.Fatalf("unexpected reply %q", got)
	}

	cfg.LLM.Provider = "gemini"
	if _, err := buildAssistant(cfg); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
