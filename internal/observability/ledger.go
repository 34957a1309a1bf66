package observability

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firstissue/pulse/pkg/models"
)

// ErrorLedger records classified errors, consolidating repeats of the same
// user-facing message within a rolling window into one counted entry. The
// ledger is capacity-bounded; once full, the oldest entry is evicted first.
type ErrorLedger struct {
	mu       sync.Mutex
	entries  []*ledgerEntry // insertion order, oldest first
	byKey    map[string]*ledgerEntry
	window   time.Duration
	capacity int
	topCount int
	weights  map[models.ErrorSeverity]int
	logger   *zap.Logger
	now      func() time.Time
}

type ledgerEntry struct {
	entry models.ErrorEntry
	users map[string]bool
}

// NewErrorLedger creates a ledger with the consolidation window, capacity,
// and severity weights from cfg. logger may be nil.
func NewErrorLedger(cfg models.MonitorConfig, logger *zap.Logger) *ErrorLedger {
	defaults := models.DefaultMonitorConfig()
	window := cfg.ErrorWindow
	if window <= 0 {
		window = defaults.ErrorWindow
	}
	capacity := cfg.ErrorLedgerCapacity
	if capacity <= 0 {
		capacity = defaults.ErrorLedgerCapacity
	}
	topCount := cfg.TopErrorCount
	if topCount <= 0 {
		topCount = defaults.TopErrorCount
	}
	weights := cfg.SeverityWeights
	if len(weights) == 0 {
		weights = defaults.SeverityWeights
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLedger{
		byKey:    make(map[string]*ledgerEntry),
		window:   window,
		capacity: capacity,
		topCount: topCount,
		weights:  weights,
		logger:   logger,
		now:      time.Now,
	}
}

// Log records one classified error occurrence. The classification comes from
// an external classifier; the ledger only consumes its result. Deduplication
// keys on the classification's user message, not the raw error text.
func (l *ErrorLedger) Log(rawErr error, class models.ErrorClassification, userID string) {
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byKey[class.UserMessage]; ok && now.Sub(existing.entry.LastSeen) <= l.window {
		existing.entry.Count++
		existing.entry.LastSeen = now
		if userID != "" && !existing.users[userID] {
			existing.users[userID] = true
			existing.entry.AffectedUsers = append(existing.entry.AffectedUsers, userID)
		}
		return
	}

	e := &ledgerEntry{
		entry: models.ErrorEntry{
			Message:   class.UserMessage,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
			Category:  class.Category,
			Severity:  class.Severity,
		},
		users: make(map[string]bool),
	}
	if userID != "" {
		e.users[userID] = true
		e.entry.AffectedUsers = []string{userID}
	}
	if rawErr != nil {
		l.logger.Debug("error recorded",
			zap.String("message", class.UserMessage),
			zap.String("category", string(class.Category)),
			zap.Error(rawErr))
	}

	l.entries = append(l.entries, e)
	l.byKey[class.UserMessage] = e

	if len(l.entries) > l.capacity {
		oldest := l.entries[0]
		l.entries = l.entries[1:]
		if l.byKey[oldest.entry.Message] == oldest {
			delete(l.byKey, oldest.entry.Message)
		}
	}
}

// Metrics returns the aggregate error read model. totalRequests is the
// request count observed by the metrics store over the same window and is
// used to derive the error rate; zero yields a zero rate.
func (l *ErrorLedger) Metrics(totalRequests int) models.ErrorMetrics {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := models.ErrorMetrics{
		ErrorsByCategory: make(map[models.ErrorCategory]int),
		ErrorsBySeverity: make(map[models.ErrorSeverity]int),
		HealthScore:      100,
	}

	// Worst severity seen per category drives the health penalty.
	worst := make(map[models.ErrorCategory]models.ErrorSeverity)
	for _, e := range l.entries {
		m.TotalErrors += e.entry.Count
		m.ErrorsByCategory[e.entry.Category] += e.entry.Count
		m.ErrorsBySeverity[e.entry.Severity] += e.entry.Count
		if current, ok := worst[e.entry.Category]; !ok || l.weights[e.entry.Severity] > l.weights[current] {
			worst[e.entry.Category] = e.entry.Severity
		}
	}

	for _, sev := range worst {
		m.HealthScore -= l.weights[sev]
	}
	if m.HealthScore < 0 {
		m.HealthScore = 0
	}

	if totalRequests > 0 {
		m.ErrorRate = float64(m.TotalErrors) / float64(totalRequests)
	}

	m.TopErrors = l.topErrorsLocked()
	return m
}

// topErrorsLocked returns up to topCount entries sorted by count descending.
// Callers must hold l.mu.
func (l *ErrorLedger) topErrorsLocked() []models.ErrorEntry {
	sorted := make([]models.ErrorEntry, 0, len(l.entries))
	for _, e := range l.entries {
		sorted = append(sorted, e.entry)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].LastSeen.After(sorted[j].LastSeen)
	})
	if len(sorted) > l.topCount {
		sorted = sorted[:l.topCount]
	}
	return sorted
}

// Summary returns the compact client/server error breakdown with the most
// recent entries first.
func (l *ErrorLedger) Summary() models.ErrorSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := models.ErrorSummary{}
	recent := make([]models.ErrorEntry, 0, len(l.entries))
	for _, e := range l.entries {
		s.TotalErrors += e.entry.Count
		switch e.entry.Category {
		case models.CategoryClient:
			s.ErrorsByType.Client += e.entry.Count
		case models.CategoryServer:
			s.ErrorsByType.Server += e.entry.Count
		}
		recent = append(recent, e.entry)
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].LastSeen.After(recent[j].LastSeen)
	})
	if len(recent) > l.topCount {
		recent = recent[:l.topCount]
	}
	s.RecentErrors = recent
	return s
}

// Len reports the number of stored entries after consolidation.
func (l *ErrorLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
