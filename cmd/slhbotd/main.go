package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"SLH-Bot/internal/config"
	"SLH-Bot/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "slhbotd",
	Short:         "SLH token wallet bot for Telegram",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultPath := os.Getenv("SLHBOT_CONFIG")
	if defaultPath == "" {
		defaultPath = filepath.Join("configs", "slhbot.json")
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the JSON config file")
	rootCmd.AddCommand(serveCmd, balanceCmd, webhookCmd)
}

// main 是 slhbotd 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "slhbotd 运行失败: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file and initialises logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	err = logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.AuditFile != "",
			Path:       cfg.Logging.AuditFile,
			MaxSizeMB:  cfg.Logging.AuditMaxSizeMB,
			MaxBackups: cfg.Logging.AuditMaxBackups,
			MaxAgeDays: cfg.Logging.AuditMaxAgeDays,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}
