package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"SLH-Bot/internal/api"
	"SLH-Bot/internal/bot"
	"SLH-Bot/internal/config"
	"SLH-Bot/internal/conversation"
	"SLH-Bot/internal/history"
	"SLH-Bot/internal/observability/alerting"
	"SLH-Bot/internal/wallet"
	"SLH-Bot/internal/web3/provider"
	"SLH-Bot/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Named("slhbotd")

	tg, err := newTelegramClient(cfg)
	if err != nil {
		return err
	}

	chains, err := provider.NewRegistry(ctx, cfg.Web3)
	if err != nil {
		return err
	}
	defer chains.Close()
	chain, err := chains.Default()
	if err != nil {
		return err
	}

	sessions, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer sessions.Close()

	repos, err := buildRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	queue, err := buildHistoryQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Warn("关闭历史队列失败", slog.Any("error", err))
		}
	}()

	vault, err := buildVault(cfg)
	if err != nil {
		return err
	}

	assistant, err := buildAssistant(cfg)
	if err != nil {
		return err
	}

	executor := wallet.NewExecutor(chain.Client, chain.ExplorerTxURL, wallet.WithAuditLogger(logger.Audit()))
	recorder := history.NewQueueRecorder(queue)

	notifiers := []alerting.Notifier{alerting.LogNotifier{}}
	if cfg.Telegram.AdminChatID != 0 {
		notifiers = append(notifiers, &alerting.TelegramNotifier{Sender: tg, ChatID: cfg.Telegram.AdminChatID})
	}

	machine := conversation.New(sessions, executor.Balances(), executor, vault,
		conversation.WithHistory(recorder),
		conversation.WithAlerts(alerting.NewFanout(notifiers...)),
		conversation.WithSymbol(chain.Symbol),
		conversation.WithExecuteTimeout(time.Duration(cfg.Web3.CallTimeoutSeconds)*time.Second),
	)

	b, err := bot.New(bot.Deps{
		Sender:       tg,
		Conversation: machine,
		Users:        repos.users,
		Products:     repos.products,
		History:      repos.history,
		Recorder:     recorder,
		Balances:     executor.Balances(),
		Keys:         vault,
		Assistant:    assistant,
	}, bot.WithSymbol(chain.Symbol), bot.WithGroupURL(cfg.Telegram.GroupURL))
	if err != nil {
		return err
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go vault.Run(workCtx, time.Duration(cfg.Keys.ReapIntervalSeconds)*time.Second)

	processor := history.NewProcessor(queue, repos.history, history.WithWorkerCount(cfg.History.Workers))
	go func() {
		if err := processor.Start(workCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("历史处理器异常退出", slog.Any("error", err))
		}
	}()

	server := api.NewServer(cfg.Server.Address, cfg.Server.WebhookPath, b,
		api.WithWebhookSecret(config.Secret(cfg.Server.WebhookSecretEnv)),
		api.WithWebhookInspector(tg),
		api.WithInfo("chain", chain.Name),
		api.WithInfo("symbol", chain.Symbol),
		api.WithInfo("community", cfg.Telegram.GroupURL),
	)
	log.Info("slhbotd 启动",
		slog.String("chain", chain.Name),
		slog.String("session_driver", cfg.Session.Driver),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("history_queue", cfg.History.Queue.Driver),
		slog.String("llm_provider", cfg.LLM.Provider))

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
