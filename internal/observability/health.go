package observability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// ProbeFunc checks one endpoint. A nil return is a success; an error, a
// panic, or missing the deadline is a failure. Probes perform their own
// I/O; the checker only bounds them with a timeout.
type ProbeFunc func(ctx context.Context) error

// HealthChecker runs registered probes, tracks consecutive failures, and
// derives per-endpoint status and rolling uptime from a fixed-size result
// ring.
type HealthChecker struct {
	mu        sync.Mutex
	endpoints map[string]*endpointHealth
	timeout   time.Duration
	ringSize  int
	unhealthy int
	logger    *zap.Logger
	now       func() time.Time
}

type endpointHealth struct {
	probe       ProbeFunc
	ring        []bool // true = success; fixed capacity circular buffer
	ringNext    int
	ringFilled  int
	consecutive int
	lastChecked time.Time
	lastError   string
}

// NewHealthChecker creates a checker with the timeout, ring size, and
// unhealthy threshold from cfg. logger may be nil.
func NewHealthChecker(cfg models.MonitorConfig, logger *zap.Logger) *HealthChecker {
	defaults := models.DefaultMonitorConfig()
	timeout := cfg.HealthCheckTimeout
	if timeout <= 0 {
		timeout = defaults.HealthCheckTimeout
	}
	ringSize := cfg.HealthRingSize
	if ringSize <= 0 {
		ringSize = defaults.HealthRingSize
	}
	unhealthy := cfg.UnhealthyThreshold
	if unhealthy <= 0 {
		unhealthy = defaults.UnhealthyThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthChecker{
		endpoints: make(map[string]*endpointHealth),
		timeout:   timeout,
		ringSize:  ringSize,
		unhealthy: unhealthy,
		logger:    logger,
		now:       time.Now,
	}
}

// Register adds an endpoint with its probe. Re-registering replaces the
// probe but keeps the accumulated history.
func (hc *HealthChecker) Register(endpoint string, probe ProbeFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	if existing, ok := hc.endpoints[endpoint]; ok {
		existing.probe = probe
		return
	}
	hc.endpoints[endpoint] = &endpointHealth{
		probe: probe,
		ring:  make([]bool, hc.ringSize),
	}
}

// Check runs one endpoint's probe with the configured timeout and records
// the outcome. Probe errors and panics become failures, never propagate.
func (hc *HealthChecker) Check(ctx context.Context, endpoint string) (models.HealthCheckState, error) {
	hc.mu.Lock()
	eh, ok := hc.endpoints[endpoint]
	hc.mu.Unlock()
	if !ok {
		return models.HealthCheckState{}, fmt.Errorf("unknown health check endpoint %q", endpoint)
	}

	err := hc.runProbe(ctx, eh.probe)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	eh.lastChecked = hc.now().UTC()
	if err != nil {
		prev := hc.statusLocked(eh)
		eh.consecutive++
		eh.lastError = err.Error()
		eh.push(false)
		if cur := hc.statusLocked(eh); cur != prev {
			hc.logger.Warn("endpoint health transition",
				zap.String("endpoint", endpoint),
				zap.String("status", string(cur)),
				zap.Int("consecutive_failures", eh.consecutive))
		}
	} else {
		eh.consecutive = 0
		eh.lastError = ""
		eh.push(true)
	}

	return hc.stateLocked(endpoint, eh), nil
}

// runProbe executes the probe in its own goroutine so a probe that never
// settles still fails at the deadline.
func (hc *HealthChecker) runProbe(ctx context.Context, probe ProbeFunc) error {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("probe panicked: %v", r)
			}
		}()
		done <- probe(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("health check timed out after %s", hc.timeout)
	}
}

// CheckAll probes every registered endpoint concurrently under a shared
// deadline so one slow probe can not serialize the rest.
func (hc *HealthChecker) CheckAll(ctx context.Context) []models.HealthCheckState {
	hc.mu.Lock()
	names := make([]string, 0, len(hc.endpoints))
	for name := range hc.endpoints {
		names = append(names, name)
	}
	hc.mu.Unlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(endpoint string) {
			defer wg.Done()
			_, _ = hc.Check(ctx, endpoint)
		}(name)
	}
	wg.Wait()

	return hc.States()
}

// States returns the current per-endpoint view, sorted by endpoint name.
func (hc *HealthChecker) States() []models.HealthCheckState {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	out := make([]models.HealthCheckState, 0, len(hc.endpoints))
	for name, eh := range hc.endpoints {
		out = append(out, hc.stateLocked(name, eh))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}

func (hc *HealthChecker) stateLocked(name string, eh *endpointHealth) models.HealthCheckState {
	return models.HealthCheckState{
		Endpoint:            name,
		Status:              hc.statusLocked(eh),
		ConsecutiveFailures: eh.consecutive,
		Uptime:              eh.uptime(),
		LastChecked:         eh.lastChecked,
		LastError:           eh.lastError,
	}
}

// statusLocked derives status from consecutive failures. The mapping is
// monotone: more failures never improve the status.
func (hc *HealthChecker) statusLocked(eh *endpointHealth) models.HealthStatus {
	switch {
	case eh.consecutive == 0:
		return models.StatusHealthy
	case eh.consecutive < hc.unhealthy:
		return models.StatusDegraded
	default:
		return models.StatusUnhealthy
	}
}

// push records one outcome into the circular buffer.
func (eh *endpointHealth) push(success bool) {
	eh.ring[eh.ringNext] = success
	eh.ringNext = (eh.ringNext + 1) % len(eh.ring)
	if eh.ringFilled < len(eh.ring) {
		eh.ringFilled++
	}
}

// uptime is the success percentage over the filled portion of the ring.
// An endpoint that was never checked reports 100.
func (eh *endpointHealth) uptime() float64 {
	if eh.ringFilled == 0 {
		return 100
	}
	successes := 0
	for i := 0; i < eh.ringFilled; i++ {
		if eh.ring[i] {
			successes++
		}
	}
	return float64(successes) / float64(eh.ringFilled) * 100
}
