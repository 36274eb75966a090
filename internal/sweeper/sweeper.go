// Package sweeper periodically removes sessions idle past their TTL.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Expirer removes sessions idle at now and reports how many it removed.
type Expirer interface {
	Expire(ctx context.Context, now time.Time) (int, error)
}

// Sweeper runs an Expirer on a fixed interval.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	onExpire func(n int)

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithExpiredHook is called with each positive removal count.
func WithExpiredHook(fn func(n int)) Option {
	return func(s *Sweeper) { s.onExpire = fn }
}

// New creates a sweeper. A non-positive interval defaults to five minutes.
func New(expirer Expirer, interval time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		expirer:  expirer,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins sweeping in the background until Stop or ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info("starting session sweeper", "interval", s.interval.String())
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the loop and waits for an in-flight sweep, up to timeout.
func (s *Sweeper) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("session sweeper stopped")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("session sweeper shutdown timed out")
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	n, err := s.expirer.Expire(ctx, s.now())
	if n > 0 && s.onExpire != nil {
		s.onExpire(n)
	}
	return n, err
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
