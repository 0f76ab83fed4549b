package store

import (
	"time"

	"github.com/uptrace/bun"
)

// ProcessedURL records a URL the pipeline has finished, so batch runs can
// skip it.
type ProcessedURL struct {
	bun.BaseModel `bun:"table:processed_urls"`

	ID          int64     `bun:"id,pk,autoincrement"`
	URL         string    `bun:"url,unique"`
	ProcessedAt time.Time `bun:"processed_at"`
	Records     int       `bun:"records"`
}

// Run is one pipeline invocation, batch or single.
type Run struct {
	bun.BaseModel `bun:"table:runs"`

	ID            int64      `bun:"id,pk,autoincrement"`
	StartedAt     time.Time  `bun:"started_at"`
	FinishedAt    *time.Time `bun:"finished_at"`
	URLsProcessed int        `bun:"urls_processed"`
	Records       int        `bun:"records"`
}
