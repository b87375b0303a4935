package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Monitor struct {
	store       Pinger
	storeDriver string
	redis       Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor over the store and an optional Redis (nil when
// sessions are disabled).
func New(store Pinger, storeDriver string, redis Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:       store,
		storeDriver: storeDriver,
		redis:       redis,
		interval:    interval,
		stopCh:      make(chan struct{}),
		logger:      logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh pings every dependency once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	status := Status{
		Store:        m.check(ctx, "store", m.store, 3*time.Second),
		StoreDriver:  m.storeDriver,
		RedisEnabled: m.redis != nil,
		LastCheck:    time.Now().UTC(),
	}
	if m.redis != nil {
		status.Redis = m.check(ctx, "redis", m.redis, 2*time.Second)
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Healthy() != status.Healthy() {
		m.logger.Warn("dependency health changed",
			zap.Bool("healthy", status.Healthy()),
			zap.Bool("store", status.Store),
			zap.Bool("redis", status.Redis),
		)
	}
	return status
}

func (m *Monitor) check(ctx context.Context, name string, p Pinger, timeout time.Duration) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Debug("health check failed", zap.String("component", name), zap.Error(err))
		return false
	}
	return true
}
