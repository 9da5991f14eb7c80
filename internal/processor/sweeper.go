package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/nimasrn/invite-gateway/pkg/logger"
)

type PendingSyncer interface {
	SyncPending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type SweeperConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	Batch    int
}

// PendingSweeper periodically re-checks purchases still pending at the
// gateway. Runs never overlap.
type PendingSweeper struct {
	syncer    PendingSyncer
	cfg       SweeperConfig
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	runs      int
}

func NewPendingSweeper(syncer PendingSyncer, cfg SweeperConfig) (*PendingSweeper, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", cfg.Interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &PendingSweeper{
		syncer:    syncer,
		cfg:       cfg,
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(s.tick),
		gocron.WithName("pending-purchase-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return s, nil
}

func (s *PendingSweeper) Start() {
	logger.Info("pending sweep scheduled", "interval", s.cfg.Interval, "min_age", s.cfg.MinAge, "batch", s.cfg.Batch)
	s.scheduler.Start()
}

func (s *PendingSweeper) Stop() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

func (s *PendingSweeper) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *PendingSweeper) tick() {
	if _, err := s.RunOnce(s.ctx); err != nil && s.ctx.Err() == nil {
		logger.Error("pending sweep failed", "error", err)
	}
}

func (s *PendingSweeper) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.syncer.SyncPending(ctx, s.cfg.MinAge, s.cfg.Batch)

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	if err != nil {
		return n, err
	}
	logger.Info("pending sweep finished", "updated", n, "took", time.Since(start))
	return n, nil
}
