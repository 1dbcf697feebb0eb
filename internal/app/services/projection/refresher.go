package projection

import (
	"context"
	"sync"
	"time"

	"github.com/scholarbridge/awards/internal/app/domain/application"
	"github.com/scholarbridge/awards/internal/app/metrics"
	"github.com/scholarbridge/awards/internal/app/system"
	"github.com/scholarbridge/awards/pkg/logger"
)

// Refresher periodically recomputes per-status application counts into the
// metrics gauges. Views themselves stay pull-based; this only keeps the
// operational dashboards current between requests.
type Refresher struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*Refresher)(nil)

// NewRefresher creates a refresher polling every 30 seconds.
func NewRefresher(service *Service, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("projection-refresher")
	}
	return &Refresher{
		service:  service,
		interval: 30 * time.Second,
		log:      log,
	}
}

func (r *Refresher) Name() string { return "projection-refresher" }

func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		r.tick(runCtx)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("projection refresher started")
	return nil
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (r *Refresher) tick(ctx context.Context) {
	apps, err := r.service.All(ctx)
	if err != nil {
		r.log.WithError(err).Warn("list applications failed")
		return
	}

	counts := make(map[application.Status]int, len(application.Statuses))
	for _, app := range apps {
		counts[app.Status]++
	}
	for _, status := range application.Statuses {
		metrics.SetApplicationCount(string(status), counts[status])
	}
}
