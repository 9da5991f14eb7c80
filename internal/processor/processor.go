package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/invite-gateway/internal/queue"
	"github.com/nimasrn/invite-gateway/pkg/logger"
	"github.com/nimasrn/invite-gateway/pkg/redis"
	"github.com/nimasrn/invite-gateway/pkg/worker"
)

const (
	DefaultProcessingTimeout = 5 * time.Second
	HealthInterval           = 30 * time.Second
	MetricsInterval          = 30 * time.Second
	ShutdownTimeout          = time.Minute
	highLagThreshold         = 10_000
)

type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type Options struct {
	Queue             queue.QueueConfig
	Consumers         int
	Workers           int
	ProcessingTimeout time.Duration
}

// ProcessorService reads the queue with a few consumers and hands every
// message to a fixed worker pool. The consumer waits for the worker's result
// so ack and retry stay with the queue.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	opts      Options
	processor Processor
	queues    []*queue.Queue
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewProcessorService(adapter redis.RedisAdapter, opts Options) *ProcessorService {
	if opts.Consumers < 1 {
		opts.Consumers = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ProcessingTimeout <= 0 {
		opts.ProcessingTimeout = DefaultProcessingTimeout
	}
	return &ProcessorService{
		adapter: adapter,
		opts:    opts,
		metrics: NewServiceMetrics(),
		worker:  worker.NewWorkerManager(opts.Workers*4, opts.Workers, nil),
	}
}

func (s *ProcessorService) RegisterProcessor(p Processor) {
	s.processor = p
	logger.Info("registered processor", "type", p.GetType())
}

func (s *ProcessorService) Metrics() *ServiceMetrics {
	return s.metrics
}

func (s *ProcessorService) Start(ctx context.Context) error {
	if s.processor == nil {
		return fmt.Errorf("no processor registered")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(s.ctx); err != nil && s.ctx.Err() == nil {
			logger.Error("worker pool stopped", "error", err)
		}
	}()

	for i := 0; i < s.opts.Consumers; i++ {
		cfg := s.opts.Queue
		cfg.ConsumerName = fmt.Sprintf("%s-%d", cfg.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, cfg)
		if err != nil {
			return fmt.Errorf("create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.every(MetricsInterval, s.reportMetrics)
	go s.every(HealthInterval, s.healthCheck)

	logger.Info("processor service started", "queue", s.opts.Queue.Name, "consumers", len(s.queues), "workers", s.opts.Workers)
	return nil
}

func (s *ProcessorService) every(interval time.Duration, fn func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) reportMetrics() {
	st := s.metrics.Snapshot()
	logger.Info("processor metrics",
		"processed", st.Processed,
		"failed", st.Failed,
		"rate_per_second", st.RatePerSecond,
		"avg_duration_ms", st.AvgDuration.Milliseconds(),
		"backlog", s.worker.GetUnreadCount())
}

func (s *ProcessorService) healthCheck() {
	if err := s.adapter.Ping(s.ctx); err != nil {
		logger.Error("health check: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(s.ctx)
	if err != nil {
		logger.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	if stats.PendingMessages > highLagThreshold {
		logger.Warn("health check: queue lagging", "pending", stats.PendingMessages)
	}
}

func (s *ProcessorService) Stop() {
	logger.Info("stopping processor service")

	var qwg sync.WaitGroup
	for i, q := range s.queues {
		qwg.Add(1)
		go func(i int, q *queue.Queue) {
			defer qwg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("consumer did not stop", "consumer", i, "error", err)
			}
		}(i, q)
	}
	qwg.Wait()

	if s.cancel != nil {
		s.cancel()
	}
	s.worker.Exit()
	s.wg.Wait()

	s.reportMetrics()
	logger.Info("processor service stopped")
}

type job struct {
	ctx    context.Context
	msg    *queue.Message
	result chan error
}

// messageHandler runs on the consumer goroutine and blocks until a worker
// has processed msg.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.opts.ProcessingTimeout)
	defer cancel()

	j := &job{ctx: jobCtx, msg: msg, result: make(chan error, 1)}
	if err := s.worker.Enqueue(jobCtx, j); err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.ID, err)
	}

	select {
	case err := <-j.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("waiting for worker on %s: %w", msg.ID, jobCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("unexpected job type", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.metrics.RecordFailure()
		logger.Error("processing failed", "worker", workerIndex, "type", s.processor.GetType(), "stream_id", j.msg.ID, "error", err)
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	// buffered, never blocks
	j.result <- err
}
