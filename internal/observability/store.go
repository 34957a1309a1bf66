package observability

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// MetricsStore ingests per-request observations into a bounded, time-windowed
// buffer and computes endpoint aggregates on demand. Record is an O(1) append
// under a short mutex; old observations are dropped lazily by Sweep rather
// than on every write.
type MetricsStore struct {
	mu        sync.Mutex
	buf       []models.RequestObservation
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewMetricsStore creates a store retaining observations for cfg.MetricsRetention.
// logger may be nil.
func NewMetricsStore(cfg models.MonitorConfig, logger *zap.Logger) *MetricsStore {
	retention := cfg.MetricsRetention
	if retention <= 0 {
		retention = models.DefaultMonitorConfig().MetricsRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsStore{
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Record appends one observation. It never fails: malformed paths and
// negative durations are stored as-is and tolerated downstream.
func (s *MetricsStore) Record(obs models.RequestObservation) {
	if obs.Timestamp.IsZero() {
		obs.Timestamp = s.now().UTC()
	}
	s.mu.Lock()
	s.buf = append(s.buf, obs)
	s.mu.Unlock()
}

// Query returns a snapshot copy of all retained observations with
// Timestamp >= now - window. The copy lets percentile computation run
// concurrently with writers without observing a partially-mutated buffer.
func (s *MetricsStore) Query(window time.Duration) []models.RequestObservation {
	if window <= 0 || window > s.retention {
		window = s.retention
	}
	cutoff := s.now().Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RequestObservation, 0, len(s.buf))
	for _, obs := range s.buf {
		if !obs.Timestamp.Before(cutoff) {
			out = append(out, obs)
		}
	}
	return out
}

// Sweep evicts observations older than the retention period. It holds the
// write lock only for the duration of one compaction pass.
func (s *MetricsStore) Sweep() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.buf[:0]
	for _, obs := range s.buf {
		if !obs.Timestamp.Before(cutoff) {
			kept = append(kept, obs)
		}
	}
	evicted := len(s.buf) - len(kept)
	s.buf = kept
	if evicted > 0 {
		s.logger.Debug("evicted stale observations",
			zap.Int("evicted", evicted),
			zap.Int("retained", len(kept)))
	}
	return evicted
}

// Size reports the current buffer length, including not-yet-swept entries.
func (s *MetricsStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Aggregate groups retained observations within the window by normalized
// endpoint key and method, and computes per-group metrics. Throughput uses
// the window span clamped to a minimum of one minute so sub-minute windows
// do not blow up the rate.
func (s *MetricsStore) Aggregate(window time.Duration) []models.EndpointMetrics {
	if window <= 0 || window > s.retention {
		window = s.retention
	}
	obs := s.Query(window)

	type group struct {
		endpoint  string
		method    string
		durations []float64
		errors    int
		sum       float64
	}
	groups := make(map[string]*group)
	for _, o := range obs {
		key := o.Method + " " + NormalizeEndpoint(o.Path)
		g := groups[key]
		if g == nil {
			g = &group{endpoint: NormalizeEndpoint(o.Path), method: o.Method}
			groups[key] = g
		}
		g.durations = append(g.durations, o.DurationMs)
		g.sum += o.DurationMs
		if o.StatusCode >= 400 {
			g.errors++
		}
	}

	spanMinutes := window.Minutes()
	if spanMinutes < 1 {
		spanMinutes = 1
	}

	out := make([]models.EndpointMetrics, 0, len(groups))
	for _, g := range groups {
		n := len(g.durations)
		sort.Float64s(g.durations)

		m := models.EndpointMetrics{
			Endpoint:           g.endpoint,
			Method:             g.method,
			TotalRequests:      n,
			SuccessfulRequests: n - g.errors,
			ErrorRequests:      g.errors,
			P95ResponseTime:    nearestRank(g.durations, 95),
			P99ResponseTime:    nearestRank(g.durations, 99),
			Throughput:         float64(n) / spanMinutes,
		}
		if n > 0 {
			m.ErrorRate = float64(g.errors) / float64(n)
			m.AverageResponseTime = g.sum / float64(n)
		}
		out = append(out, m)
	}

	// Stable output order for consumers: busiest endpoints first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Overview summarizes all retained observations within the window.
func (s *MetricsStore) Overview(window time.Duration) models.OverviewMetrics {
	if window <= 0 || window > s.retention {
		window = s.retention
	}
	obs := s.Query(window)

	var sum float64
	var errors int
	for _, o := range obs {
		sum += o.DurationMs
		if o.StatusCode >= 400 {
			errors++
		}
	}

	spanMinutes := window.Minutes()
	if spanMinutes < 1 {
		spanMinutes = 1
	}

	ov := models.OverviewMetrics{
		TotalRequests: len(obs),
		TotalErrors:   errors,
		Throughput:    float64(len(obs)) / spanMinutes,
	}
	if len(obs) > 0 {
		ov.ErrorRate = float64(errors) / float64(len(obs))
		ov.AverageResponseTime = sum / float64(len(obs))
	}
	return ov
}

// Trends slices the last lookback buckets of fixed width into a chartable
// series. Buckets are aligned to the bucket width and returned oldest first;
// empty buckets are present with zero counts so charts keep their x axis.
func (s *MetricsStore) Trends(bucket time.Duration, lookback int) []models.TimeBucket {
	if bucket <= 0 {
		bucket = time.Hour
	}
	if lookback <= 0 {
		lookback = 24
	}
	obs := s.Query(time.Duration(lookback) * bucket)

	end := s.now().Truncate(bucket)
	start := end.Add(-time.Duration(lookback-1) * bucket)

	counts := make([]int, lookback)
	errs := make([]int, lookback)
	sums := make([]float64, lookback)
	for _, o := range obs {
		idx := int(o.Timestamp.Truncate(bucket).Sub(start) / bucket)
		if idx < 0 || idx >= lookback {
			continue
		}
		counts[idx]++
		sums[idx] += o.DurationMs
		if o.StatusCode >= 400 {
			errs[idx]++
		}
	}

	out := make([]models.TimeBucket, lookback)
	for i := range out {
		out[i] = models.TimeBucket{
			Start:        start.Add(time.Duration(i) * bucket),
			RequestCount: counts[i],
			ErrorCount:   errs[i],
		}
		if counts[i] > 0 {
			out[i].AverageResponseTime = sums[i] / float64(counts[i])
		}
	}
	return out
}

// nearestRank returns the p-th percentile of sorted values using the
// nearest-rank method without interpolation: index = floor(p/100 * n),
// clamped to [0, n-1].
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(p / 100 * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
