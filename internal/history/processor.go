package history

import (
	"context"
	"log/slog"

	xerrors "SLH-Bot/internal/errors"
	"SLH-Bot/internal/observability/metrics"
	"SLH-Bot/pkg/logger"
)

// Processor 负责从队列消费事件并写入仓库。
type Processor struct {
	consumer    Consumer
	repo        Repository
	workerCount int
	logger      *slog.Logger
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(consumer Consumer, repo Repository, opts ...ProcessorOption) *Processor {
	p := &Processor{
		consumer:    consumer,
		repo:        repo,
		workerCount: 1,
		logger:      logger.Named("history"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Start 启动消费循环，直到 ctx 结束。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil || p.repo == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "历史处理器未初始化")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, event Event) error {
	if err := p.repo.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "保存历史事件失败",
			slog.String("event_id", event.ID),
			slog.Any("error", err))
		return err
	}
	metrics.ObserveHistory("stored")
	logger.Audit().InfoContext(ctx, "history event stored",
		slog.String("event_id", event.ID),
		slog.Int64("user_id", event.UserID),
		slog.String("description", event.Description))
	return nil
}
