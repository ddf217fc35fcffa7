// Package responses defines API response types used by chronicle HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Records   int       `json:"records"`
}

// RecordResponse wraps a single record for API responses.
type RecordResponse struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Tags      []string       `json:"tags,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// RecordListResponse represents a list of records.
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}

// PutResponse represents the response for record creation.
type PutResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// CompactResponse represents the response for compaction triggers.
type CompactResponse struct {
	Status   string  `json:"status"`
	Records  int     `json:"records"`
	Duration float64 `json:"duration_seconds"`
}

// StatsResponse represents dataset statistics.
type StatsResponse struct {
	Dataset      string    `json:"dataset"`
	Driver       string    `json:"driver"`
	Records      int       `json:"records"`
	JournalBytes int64     `json:"journal_bytes"`
	Timestamp    time.Time `json:"timestamp"`
}
