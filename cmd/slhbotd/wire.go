package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SLH-Bot/internal/catalog"
	"SLH-Bot/internal/config"
	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/history"
	"SLH-Bot/internal/keys"
	"SLH-Bot/internal/llm"
	"SLH-Bot/internal/llm/anthropic"
	"SLH-Bot/internal/llm/openai"
	"SLH-Bot/internal/session"
	"SLH-Bot/internal/storage/mysql"
	"SLH-Bot/internal/telegram"
	"SLH-Bot/internal/users"
)

const maxMemorySessions = 100_000

func newTelegramClient(cfg *config.Config) (*telegram.Client, error) {
	return telegram.NewClient(telegram.Config{
		Token:   config.Secret(cfg.Telegram.TokenEnv),
		BaseURL: cfg.Telegram.APIBaseURL,
		Timeout: time.Duration(cfg.Telegram.RequestTimeoutSeconds) * time.Second,
	})
}

func buildSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	switch cfg.Session.Driver {
	case "memory":
		return session.NewMemoryStore(ttl, maxMemorySessions)
	case "redis":
		return session.NewRedisStore(ctx, session.RedisConfig{
			Address:   cfg.Session.Redis.Address,
			Password:  config.Secret(cfg.Session.Redis.PasswordEnv),
			DB:        cfg.Session.Redis.DB,
			KeyPrefix: cfg.Session.Redis.KeyPrefix,
			TTL:       ttl,
		})
	default:
		return nil, fmt.Errorf("不支持的会话存储驱动: %s", cfg.Session.Driver)
	}
}

type repositories struct {
	users    users.Repository
	products catalog.Repository
	history  history.Repository
	closer   func() error
}

func (r *repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// buildRepositories keeps users and products in memory unless MySQL is
// configured; history always persists, to a JSON-lines file by default.
func buildRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Storage.Driver {
	case "memory":
		file, err := history.NewFileRepository(cfg.History.File)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    users.NewMemoryRepository(),
			products: catalog.NewMemoryRepository(),
			history:  file,
		}, nil
	case "mysql":
		store, err := mysql.Open(ctx, mysql.Config{
			DSN:             cfg.StorageDSN(),
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:    store.Users(),
			products: store.Products(),
			history:  store.History(),
			closer:   store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.Storage.Driver)
	}
}

func buildHistoryQueue(ctx context.Context, cfg *config.Config) (history.Queue, error) {
	q := cfg.History.Queue
	switch q.Driver {
	case "memory":
		return history.NewMemoryQueue(q.Buffer), nil
	case "redis":
		return history.NewRedisQueue(ctx, history.RedisQueueConfig{
			Address:  q.Redis.Address,
			Password: config.Secret(q.Redis.PasswordEnv),
			DB:       q.Redis.DB,
			Queue:    q.Redis.KeyPrefix,
		})
	case "rabbitmq":
		return history.NewRabbitMQQueue(history.RabbitMQConfig{
			URL:      config.Secret(q.RabbitMQ.URLEnv),
			Queue:    q.RabbitMQ.Queue,
			Prefetch: cfg.History.Workers,
			Durable:  true,
		})
	default:
		return nil, fmt.Errorf("不支持的历史队列驱动: %s", q.Driver)
	}
}

// buildVault binds the operator key, when one is configured, to the
// operator user ids.
func buildVault(cfg *config.Config) (*keys.Vault, error) {
	vault := keys.NewVault(time.Duration(cfg.Keys.TTLSeconds) * time.Second)
	operatorKey := config.Secret(cfg.Keys.OperatorKeyEnv)
	if operatorKey == "" {
		return vault, nil
	}
	if len(cfg.Telegram.OperatorUserIDs) == 0 {
		return nil, xerrors.New(xerrors.CodeValidation, "已配置运营私钥但 operator_user_ids 为空")
	}
	if _, err := vault.BindOperator(operatorKey, cfg.Telegram.OperatorUserIDs...); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeValidation, err, "运营私钥无效")
	}
	return vault, nil
}

func buildAssistant(cfg *config.Config) (*llm.Assistant, error) {
	opts := []llm.AssistantOption{llm.WithSystemPrompt(cfg.LLM.SystemPrompt)}
	switch cfg.LLM.Provider {
	case "none":
		return llm.NewAssistant(nil, opts...), nil
	case "openai":
		timeout := time.Duration(cfg.LLM.OpenAI.TimeoutSeconds) * time.Second
		client, err := openai.NewClient(openai.Config{
			APIKey:      config.Secret(cfg.LLM.OpenAI.APIKeyEnv),
			BaseURL:     cfg.LLM.OpenAI.BaseURL,
			Model:       cfg.LLM.OpenAI.Model,
			Temperature: cfg.LLM.OpenAI.Temperature,
			Timeout:     timeout,
		})
		if err != nil {
			return nil, err
		}
		return llm.NewAssistant(client, append(opts, llm.WithTimeout(timeout))...), nil
	case "anthropic":
		client, err := anthropic.NewClient(anthropic.Config{
			APIKey:    config.Secret(cfg.LLM.Anthropic.APIKeyEnv),
			Model:     cfg.LLM.Anthropic.Model,
			MaxTokens: cfg.LLM.Anthropic.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return llm.NewAssistant(client, opts...), nil
	default:
		return nil, errors.New("不支持的大模型提供方: " + cfg.LLM.Provider)
	}
}
