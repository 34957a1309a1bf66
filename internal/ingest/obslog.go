// Package ingest reads and writes JSONL observation logs: recorded request
// traffic that can be replayed through the monitor or kept as an audit
// trail alongside the in-memory engine.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/firstissue/pulse/pkg/models"
)

// ObservationFilter specifies criteria for reading observations.
type ObservationFilter struct {
	Since  *time.Time
	Until  *time.Time
	Method string
	Path   string
}

// ObservationLog persists request observations as append-only JSONL.
type ObservationLog interface {
	Append(obs models.RequestObservation) error
	Read(filter ObservationFilter) ([]models.RequestObservation, error)
	Close() error
}

// jsonlObservationLog implements ObservationLog using an append-only file.
type jsonlObservationLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLObservationLog opens (or creates) an observation log at path.
func NewJSONLObservationLog(path string) (ObservationLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening observation log: %w", err)
	}
	return &jsonlObservationLog{path: path, file: f}, nil
}

// Append writes one JSON-encoded observation followed by a newline.
func (l *jsonlObservationLog) Append(obs models.RequestObservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshalling observation: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing observation: %w", err)
	}
	return nil
}

// Read scans the log line by line and returns observations matching the
// filter. Malformed lines are skipped rather than failing the read.
func (l *jsonlObservationLog) Read(filter ObservationFilter) ([]models.RequestObservation, error) {
	return ReadObservations(l.path, filter)
}

// Close closes the underlying log file.
func (l *jsonlObservationLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing observation log: %w", err)
	}
	return nil
}

// ReadObservations reads a JSONL traffic file at path, applying the filter.
// A missing file yields an empty result.
func ReadObservations(path string, filter ObservationFilter) ([]models.RequestObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening observation log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []models.RequestObservation
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var obs models.RequestObservation
		if err := json.Unmarshal(line, &obs); err != nil {
			continue // skip malformed lines
		}

		if matchesFilter(obs, filter) {
			out = append(out, obs)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning observation log: %w", err)
	}

	return out, nil
}

// matchesFilter checks whether an observation satisfies all filter criteria.
func matchesFilter(obs models.RequestObservation, filter ObservationFilter) bool {
	if filter.Since != nil && obs.Timestamp.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && obs.Timestamp.After(*filter.Until) {
		return false
	}
	if filter.Method != "" && obs.Method != filter.Method {
		return false
	}
	if filter.Path != "" && obs.Path != filter.Path {
		return false
	}
	return true
}
