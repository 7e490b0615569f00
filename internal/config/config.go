package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config 描述了 SLH 机器人启动阶段需要加载的全部配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Telegram TelegramConfig `json:"telegram"`
	Web3     Web3Config     `json:"web3"`
	Session  SessionConfig  `json:"session"`
	Keys     KeysConfig     `json:"keys"`
	Storage  StorageConfig  `json:"storage"`
	History  HistoryConfig  `json:"history"`
	LLM      LLMConfig      `json:"llm"`
	Logging  LoggingConfig  `json:"logging"`
	Runtime  RuntimeConfig  `json:"runtime"`
}

// ServerConfig 控制 HTTP 服务与 webhook 路由。
type ServerConfig struct {
	Address          string `json:"address"`
	WebhookPath      string `json:"webhook_path"`
	WebhookSecretEnv string `json:"webhook_secret_env"`
	PublicURL        string `json:"public_url"`
}

// TelegramConfig 描述 Bot API 访问参数。
type TelegramConfig struct {
	TokenEnv              string  `json:"token_env"`
	APIBaseURL            string  `json:"api_base_url"`
	AdminChatID           int64   `json:"admin_chat_id"`
	GroupURL              string  `json:"group_url"`
	OperatorUserIDs       []int64 `json:"operator_user_ids"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
}

// Web3Config 包含访问链节点与代币合约所需的信息。
type Web3Config struct {
	ChainConfig        string `json:"chain_config"`
	DefaultChain       string `json:"default_chain"`
	RPCURL             string `json:"rpc_url"`
	ChainID            int64  `json:"chain_id"`
	TokenAddress       string `json:"token_address"`
	Symbol             string `json:"symbol"`
	ExplorerTxURL      string `json:"explorer_tx_url"`
	GasLimit           uint64 `json:"gas_limit"`
	GasPriceWei        int64  `json:"gas_price_wei"`
	CallTimeoutSeconds int    `json:"call_timeout_seconds"`
}

// SessionConfig 选择会话存储驱动。
type SessionConfig struct {
	Driver     string      `json:"driver"`
	TTLSeconds int         `json:"ttl_seconds"`
	Redis      RedisConfig `json:"redis"`
}

// RedisConfig 为会话存储与历史队列共用的 Redis 连接参数。
type RedisConfig struct {
	Address     string `json:"address"`
	PasswordEnv string `json:"password_env"`
	DB          int    `json:"db"`
	KeyPrefix   string `json:"key_prefix"`
}

// KeysConfig 控制签名私钥在内存中的保留时间。
type KeysConfig struct {
	TTLSeconds          int    `json:"ttl_seconds"`
	ReapIntervalSeconds int    `json:"reap_interval_seconds"`
	OperatorKeyEnv      string `json:"operator_key_env"`
}

// StorageConfig 描述用户、商品与历史记录的持久化后端。
type StorageConfig struct {
	Driver          string `json:"driver"`
	DSN             string `json:"dsn"`
	DSNEnv          string `json:"dsn_env"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_seconds"`
}

// HistoryConfig 描述历史事件的投递队列。
type HistoryConfig struct {
	Queue   QueueConfig `json:"queue"`
	Workers int         `json:"workers"`
	File    string      `json:"file"`
}

// QueueConfig 选择历史事件队列驱动。
type QueueConfig struct {
	Driver   string         `json:"driver"`
	Buffer   int            `json:"buffer"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RabbitMQConfig 描述 AMQP 连接参数。
type RabbitMQConfig struct {
	URLEnv string `json:"url_env"`
	Queue  string `json:"queue"`
}

// LLMConfig 用于配置 /ai 命令使用的大模型。
type LLMConfig struct {
	Provider     string          `json:"provider"`
	SystemPrompt string          `json:"system_prompt"`
	OpenAI       OpenAIConfig    `json:"openai"`
	Anthropic    AnthropicConfig `json:"anthropic"`
}

// OpenAIConfig 描述兼容 OpenAI 接口的推理服务。
type OpenAIConfig struct {
	APIKeyEnv      string  `json:"api_key_env"`
	BaseURL        string  `json:"base_url"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// AnthropicConfig 描述 Anthropic 推理服务。
type AnthropicConfig struct {
	APIKeyEnv string `json:"api_key_env"`
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
}

// LoggingConfig 对应 pkg/logger 的配置。
type LoggingConfig struct {
	Level           string   `json:"level"`
	Format          string   `json:"format"`
	OutputPaths     []string `json:"output_paths"`
	AuditFile       string   `json:"audit_file"`
	AuditMaxSizeMB  int      `json:"audit_max_size_mb"`
	AuditMaxBackups int      `json:"audit_max_backups"`
	AuditMaxAgeDays int      `json:"audit_max_age_days"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.WebhookPath == "" {
		c.Server.WebhookPath = "/webhook"
	}

	if c.Telegram.TokenEnv == "" {
		c.Telegram.TokenEnv = "TELEGRAM_BOT_TOKEN"
	}
	if c.Telegram.APIBaseURL == "" {
		c.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if c.Telegram.RequestTimeoutSeconds <= 0 {
		c.Telegram.RequestTimeoutSeconds = 15
	}

	if c.Web3.ChainID == 0 {
		c.Web3.ChainID = 56
	}
	if c.Web3.Symbol == "" {
		c.Web3.Symbol = "SLH"
	}
	if c.Web3.ExplorerTxURL == "" {
		c.Web3.ExplorerTxURL = "https://bscscan.com/tx/"
	}
	if c.Web3.GasLimit == 0 {
		c.Web3.GasLimit = 200_000
	}
	if c.Web3.GasPriceWei == 0 {
		c.Web3.GasPriceWei = 5_000_000_000
	}
	if c.Web3.CallTimeoutSeconds <= 0 {
		c.Web3.CallTimeoutSeconds = 30
	}
	c.Web3.ChainConfig = resolvePath(baseDir, c.Web3.ChainConfig)

	if c.Session.Driver == "" {
		c.Session.Driver = "memory"
	}
	if c.Session.TTLSeconds <= 0 {
		c.Session.TTLSeconds = 900
	}
	if c.Session.Redis.KeyPrefix == "" {
		c.Session.Redis.KeyPrefix = "slhbot:session:"
	}

	if c.Keys.TTLSeconds <= 0 {
		c.Keys.TTLSeconds = 600
	}
	if c.Keys.ReapIntervalSeconds <= 0 {
		c.Keys.ReapIntervalSeconds = 30
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}

	if c.History.Queue.Driver == "" {
		c.History.Queue.Driver = "memory"
	}
	if c.History.Queue.Buffer <= 0 {
		c.History.Queue.Buffer = 256
	}
	if c.History.Queue.Redis.KeyPrefix == "" {
		c.History.Queue.Redis.KeyPrefix = "slhbot:history"
	}
	if c.History.Queue.RabbitMQ.Queue == "" {
		c.History.Queue.RabbitMQ.Queue = "slhbot.history"
	}
	if c.History.Workers <= 0 {
		c.History.Workers = 1
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "none"
	}
	if c.LLM.OpenAI.BaseURL == "" {
		c.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.OpenAI.Model == "" {
		c.LLM.OpenAI.Model = "gpt-4o-mini"
	}
	if c.LLM.OpenAI.TimeoutSeconds <= 0 {
		c.LLM.OpenAI.TimeoutSeconds = 30
	}
	if c.LLM.Anthropic.MaxTokens <= 0 {
		c.LLM.Anthropic.MaxTokens = 512
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.AuditFile = resolvePath(baseDir, c.Logging.AuditFile)

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else {
		c.Runtime.DataDir = resolvePath(baseDir, c.Runtime.DataDir)
	}
	if c.History.File == "" {
		c.History.File = filepath.Join(c.Runtime.DataDir, "history.jsonl")
	} else {
		c.History.File = resolvePath(baseDir, c.History.File)
	}
}

// Validate 检查驱动名称与必填字段。
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.Server.WebhookPath, "/") {
		errs = append(errs, fmt.Errorf("webhook_path 必须以 / 开头: %q", c.Server.WebhookPath))
	}
	switch c.Session.Driver {
	case "memory":
	case "redis":
		if c.Session.Redis.Address == "" {
			errs = append(errs, errors.New("session.redis.address 不能为空"))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的会话存储驱动: %s", c.Session.Driver))
	}
	switch c.Storage.Driver {
	case "memory":
	case "mysql":
		if c.Storage.DSN == "" && c.Storage.DSNEnv == "" {
			errs = append(errs, errors.New("storage.mysql 需要配置 dsn 或 dsn_env"))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的存储驱动: %s", c.Storage.Driver))
	}
	switch c.History.Queue.Driver {
	case "memory":
	case "redis":
		if c.History.Queue.Redis.Address == "" {
			errs = append(errs, errors.New("history.queue.redis.address 不能为空"))
		}
	case "rabbitmq":
		if c.History.Queue.RabbitMQ.URLEnv == "" {
			errs = append(errs, errors.New("history.queue.rabbitmq.url_env 不能为空"))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的历史队列驱动: %s", c.History.Queue.Driver))
	}
	switch c.LLM.Provider {
	case "none", "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("不支持的大模型提供方: %s", c.LLM.Provider))
	}
	if c.LLM.Provider == "anthropic" && c.LLM.Anthropic.Model == "" {
		errs = append(errs, errors.New("anthropic provider 需要配置 model"))
	}
	if c.Web3.GasPriceWei < 0 {
		errs = append(errs, errors.New("gas_price_wei 不能为负数"))
	}
	return errors.Join(errs...)
}

// Secret 读取 *_env 字段指向的环境变量，未配置时返回空字符串。
func Secret(envName string) string {
	envName = strings.TrimSpace(envName)
	if envName == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(envName))
}

// StorageDSN 返回 MySQL DSN，优先使用环境变量。
func (c *Config) StorageDSN() string {
	if dsn := Secret(c.Storage.DSNEnv); dsn != "" {
		return dsn
	}
	return c.Storage.DSN
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
