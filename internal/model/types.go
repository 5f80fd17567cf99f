package model

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Signal is one observed error occurrence. Signals are immutable once
// constructed; the cache only reads them.
type Signal struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"status_code"`
	Context    map[string]any `json:"context,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Source     string         `json:"source,omitempty"`
}

// Severity is derived from the status code, never stored.
func (s Signal) Severity() Severity {
	switch {
	case s.StatusCode >= 500:
		return SeverityCritical
	case s.StatusCode >= 400:
		return SeverityHigh
	case s.StatusCode >= 300:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Entry records a unique error signature plus its repeat count. It
// retains the first Signal that established it.
type Entry struct {
	Key       string    `json:"key"`
	Signal    Signal    `json:"signal"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Outcome is the deduplication verdict for one processed Signal.
type Outcome struct {
	Duplicate   bool   `json:"duplicate"`
	Entry       *Entry `json:"entry,omitempty"`
	ShouldLog   bool   `json:"should_log"`
	ShouldAlert bool   `json:"should_alert"`
	Key         string `json:"key"`
}

// Stats is a point-in-time aggregate over the cache's current entries.
type Stats struct {
	TotalErrors     int        `json:"total_errors"`
	UniqueErrors    int        `json:"unique_errors"`
	DuplicateErrors int        `json:"duplicate_errors"`
	HitRate         float64    `json:"hit_rate"`
	OldestError     *time.Time `json:"oldest_error,omitempty"`
	NewestError     *time.Time `json:"newest_error,omitempty"`
}

// AlertRecord is what the storage sink persists for each alert-worthy
// outcome.
type AlertRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Count     int       `json:"count"`
	Source    string    `json:"source,omitempty"`
}
