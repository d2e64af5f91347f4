// Package ingest warms the upstream response cache by walking catalog pages
// ahead of users.
package ingest

import (
	"time"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

type Run struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Status         string     `json:"status"`
	ConfigPages    int        `json:"config_pages"`
	ConfigDetails  bool       `json:"config_details"`
	PagesFetched   int        `json:"pages_fetched"`
	EntriesFetched int        `json:"entries_fetched"`
	DetailsFetched int        `json:"details_fetched"`
	DetailsFailed  int        `json:"details_failed"`
	CachePruned    int64      `json:"cache_pruned"`
	CacheRows      int64      `json:"cache_rows"`
	Error          string     `json:"error,omitempty"`
}
