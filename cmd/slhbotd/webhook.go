package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"SLH-Bot/internal/config"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set [url]",
	Short: "Register the webhook; defaults to server.public_url + webhook_path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		url := ""
		if len(args) == 1 {
			url = args[0]
		} else if cfg.Server.PublicURL != "" {
			url = strings.TrimRight(cfg.Server.PublicURL, "/") + cfg.Server.WebhookPath
		}
		if url == "" {
			return errors.New("未指定 webhook URL，且 server.public_url 为空")
		}
		tg, err := newTelegramClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := contextWithSeconds(cmd.Context(), cfg.Telegram.RequestTimeoutSeconds)
		defer cancel()
		if err := tg.SetWebhook(ctx, url, config.Secret(cfg.Server.WebhookSecretEnv)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "webhook set: %s\n", url)
		return nil
	},
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the current webhook registration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tg, err := newTelegramClient(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := contextWithSeconds(cmd.Context(), cfg.Telegram.RequestTimeoutSeconds)
		defer cancel()
		info, err := tg.GetWebhookInfo(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "url: %s\npending updates: %d\n", info.URL, info.PendingUpdateCount)
		if info.LastErrorMessage != "" {
			fmt.Fprintf(out, "last error: %s (%s)\n", info.LastErrorMessage,
				time.Unix(info.LastErrorDate, 0).UTC().Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	webhookCmd.AddCommand(webhookSetCmd, webhookInfoCmd)
}

func contextWithSeconds(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		seconds = 30
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
