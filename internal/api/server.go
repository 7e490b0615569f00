package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/internal/telegram"
	"SLH-Bot/pkg/logger"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes = 1 << 20
)

// Dispatcher handles one decoded update.
type Dispatcher interface {
	Dispatch(ctx context.Context, update telegram.Update) error
}

// WebhookInspector reports the webhook registration, served on /status.
type WebhookInspector interface {
	GetWebhookInfo(ctx context.Context) (telegram.WebhookInfo, error)
}

// Server 负责暴露 webhook 与状态接口。
type Server struct {
	addr            string
	webhookPath     string
	secret          string
	dispatcher      Dispatcher
	inspector       WebhookInspector
	info            map[string]string
	dispatchTimeout time.Duration
	logger          *slog.Logger
	started         time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithWebhookSecret rejects deliveries whose secret header does not match.
func WithWebhookSecret(secret string) Option {
	return func(s *Server) { s.secret = secret }
}

func WithWebhookInspector(i WebhookInspector) Option {
	return func(s *Server) { s.inspector = i }
}

// WithInfo adds static fields to the GET / payload.
func WithInfo(key, value string) Option {
	return func(s *Server) { s.info[key] = value }
}

// WithDispatchTimeout bounds the handling of one update.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.dispatchTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr, webhookPath string, dispatcher Dispatcher, opts ...Option) *Server {
	if webhookPath == "" {
		webhookPath = "/webhook"
	}
	s := &Server{
		addr:            addr,
		webhookPath:     webhookPath,
		dispatcher:      dispatcher,
		info:            make(map[string]string),
		dispatchTimeout: 3 * time.Minute,
		logger:          logger.Named("api"),
		started:         time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", instrument("status", http.HandlerFunc(s.handleHome)))
	mux.Handle("/status", instrument("webhook_status", http.HandlerFunc(s.handleStatus)))
	mux.Handle(s.webhookPath, instrument("webhook", http.HandlerFunc(s.handleWebhook)))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("HTTP 服务已启动", slog.String("addr", s.addr), slog.String("webhook_path", s.webhookPath))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// handleWebhook answers 200 once the update is decoded, even if handling
// fails: a non-2xx makes Telegram redeliver the same update.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持 POST", http.StatusMethodNotAllowed)
		return
	}
	if s.secret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	if s.dispatcher == nil {
		http.Error(w, "Bot 未初始化", http.StatusServiceUnavailable)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		http.Error(w, "请求体解析失败", http.StatusBadRequest)
		return
	}

	// Telegram may drop the connection while a transfer is still running.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.dispatchTimeout)
	defer cancel()
	if err := s.dispatcher.Dispatch(ctx, update); err != nil {
		s.logger.Error("处理更新失败", slog.Int64("update_id", update.UpdateID), slog.Any("error", err))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	payload := map[string]any{
		"status":         "SLH Platform Running",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	for k, v := range s.info {
		payload[k] = v
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.inspector == nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "active", "webhook_url": ""})
		return
	}
	info, err := s.inspector.GetWebhookInfo(r.Context())
	if err != nil {
		s.logger.Error("查询 webhook 状态失败", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":               "active",
		"webhook_url":          info.URL,
		"pending_update_count": info.PendingUpdateCount,
		"last_error_message":   info.LastErrorMessage,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.ObserveHTTPRequest(name, r.Method, rec.status, time.Since(start))
	})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
