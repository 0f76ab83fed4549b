// Package store keeps pipeline bookkeeping in a local SQLite file: which
// URLs are done and what each run produced.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type Config struct {
	Path  string
	Debug bool
}

type Store struct {
	bun *bun.DB
}

// Open opens (or creates) the SQLite store and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	s := &Store{bun: db}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	models := []any{(*ProcessedURL)(nil), (*Run)(nil)}
	for _, m := range models {
		if _, err := s.bun.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.bun.Close()
}

// HasURL reports whether url was already processed.
func (s *Store) HasURL(ctx context.Context, url string) (bool, error) {
	count, err := s.bun.NewSelect().Model((*ProcessedURL)(nil)).Where("url = ?", url).Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessed records url as done. Marking twice is a no-op.
func (s *Store) MarkProcessed(ctx context.Context, url string, records int) error {
	entry := &ProcessedURL{
		URL:         url,
		ProcessedAt: time.Now(),
		Records:     records,
	}
	_, err := s.bun.NewInsert().Model(entry).On("CONFLICT (url) DO NOTHING").Exec(ctx)
	return err
}

// ProcessedSet returns all processed URLs for batch filtering.
func (s *Store) ProcessedSet(ctx context.Context) (map[string]bool, error) {
	var urls []string
	err := s.bun.NewSelect().Model((*ProcessedURL)(nil)).Column("url").Scan(ctx, &urls)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(urls))
	for _, u := range urls {
		set[u] = true
	}
	return set, nil
}

// StartRun opens a run record and returns it for FinishRun.
func (s *Store) StartRun(ctx context.Context) (*Run, error) {
	run := &Run{StartedAt: time.Now()}
	if _, err := s.bun.NewInsert().Model(run).Exec(ctx); err != nil {
		return nil, err
	}
	return run, nil
}

// FinishRun closes a run with its totals.
func (s *Store) FinishRun(ctx context.Context, run *Run, urls, records int) error {
	now := time.Now()
	run.FinishedAt = &now
	run.URLsProcessed = urls
	run.Records = records
	_, err := s.bun.NewUpdate().Model(run).WherePK().Exec(ctx)
	return err
}

// Summary aggregates the store for the status command.
type Summary struct {
	URLs      int
	Records   int
	Runs      int
	LastRunAt *time.Time
	LastURLs  int
	LastCount int
}

func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	var err error
	if sum.URLs, err = s.bun.NewSelect().Model((*ProcessedURL)(nil)).Count(ctx); err != nil {
		return nil, err
	}

	var totalRecords sql.NullInt64
	err = s.bun.NewSelect().Model((*ProcessedURL)(nil)).
		ColumnExpr("sum(records)").
		Scan(ctx, &totalRecords)
	if err != nil {
		return nil, err
	}
	if totalRecords.Valid {
		sum.Records = int(totalRecords.Int64)
	}

	if sum.Runs, err = s.bun.NewSelect().Model((*Run)(nil)).Count(ctx); err != nil {
		return nil, err
	}

	last := new(Run)
	err = s.bun.NewSelect().Model(last).OrderExpr("started_at DESC").Limit(1).Scan(ctx)
	if err == nil {
		sum.LastRunAt = &last.StartedAt
		sum.LastURLs = last.URLsProcessed
		sum.LastCount = last.Records
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return sum, nil
}
