// Package pipeline sequences the fetch, clean, chunk, generate, and persist
// stages over one URL or a links file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avazquez/webtune/internal/chunker"
	"github.com/avazquez/webtune/internal/dataset"
	"github.com/avazquez/webtune/internal/generate"
	"github.com/avazquez/webtune/internal/links"
	"github.com/avazquez/webtune/internal/logging"
	"github.com/avazquez/webtune/internal/scrape"
	"github.com/avazquez/webtune/internal/store"
)

// Fetcher retrieves a page as markdown.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scrape.Result, error)
}

// Cleaner strips site boilerplate.
type Cleaner interface {
	Clean(content, url string) string
}

// Chunker splits cleaned markdown into token-bounded chunks.
type Chunker interface {
	Chunk(doc string) []chunker.Chunk
}

// Generator produces dialogues from one chunk.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Response, error)
}

// Writer persists dialogues and the companion logs.
type Writer interface {
	Append(dialogues []string, meta dataset.Meta) (int, error)
	LogInvalid(url, guideTitle, prompt, response string) error
	LogShortChunk(url, reason, text string) error
}

// Tracker is the processed-URL and run bookkeeping.
type Tracker interface {
	ProcessedSet(ctx context.Context) (map[string]bool, error)
	MarkProcessed(ctx context.Context, url string, records int) error
	StartRun(ctx context.Context) (*store.Run, error)
	FinishRun(ctx context.Context, run *store.Run, urls, records int) error
}

// Deps are the pipeline's collaborators, injected so stages can be replaced
// in tests.
type Deps struct {
	Scraper   Fetcher
	Cleaner   Cleaner
	Chunker   Chunker
	Generator Generator
	Writer    Writer
	Tracker   Tracker
}

type Pipeline struct {
	cfg  Config
	deps Deps
	log  logging.Logger
}

func New(cfg Config, deps Deps, log logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps, log: log.WithName("pipeline")}
}

// ProcessURL runs the full stage sequence for one URL and returns the number
// of records written.
func (p *Pipeline) ProcessURL(ctx context.Context, url string) (int, error) {
	log := p.log.WithValues("url", url)
	log.Info("processing url")

	res, err := p.deps.Scraper.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	if res.Content == "" {
		return 0, fmt.Errorf("fetched content is empty")
	}

	actualURL := res.URL
	if actualURL == "" {
		actualURL = url
	}
	date := scrape.ExtractDate(res.Content, url)

	cleaned := p.deps.Cleaner.Clean(res.Content, url)
	if cleaned == "" {
		return 0, fmt.Errorf("cleaned content is empty")
	}

	chunks := p.deps.Chunker.Chunk(cleaned)
	log.Info("content chunked", "chunks", len(chunks))

	total := 0
	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		log.Info("processing chunk", "index", i+1, "total", len(chunks), "tokens", ch.TokenCount)

		verdict := chunker.Classify(ch, p.cfg.MinChunkTokens)
		if verdict.Status == chunker.StatusRejected {
			log.Info("skipping rejected chunk", "reason", verdict.Reason)
			if err := p.deps.Writer.LogShortChunk(actualURL, verdict.Reason, ch.Text); err != nil {
				log.Error(err, "failed to log rejected chunk")
			}
			continue
		}

		n, err := p.generateChunk(ctx, ch, res.Title, actualURL, date)
		if err != nil {
			return total, err
		}
		total += n
	}

	log.Info("url completed", "records", total)
	return total, nil
}

// generateChunk prompts the model with retries. A response with no valid
// dialogues is retried; the last failure goes to the error log.
func (p *Pipeline) generateChunk(ctx context.Context, ch chunker.Chunk, title, url, date string) (int, error) {
	req := generate.Request{
		Text:           ch.Text,
		GuideTitle:     title,
		HeadingContext: ch.HeadingHierarchy(),
	}

	for attempt := 1; attempt <= p.cfg.RetryLimit; attempt++ {
		resp, err := p.deps.Generator.Generate(ctx, req)
		if err == nil {
			return p.deps.Writer.Append(resp.Dialogues, dataset.Meta{URL: url, Date: date})
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}

		p.log.Error(err, "generation attempt failed", "attempt", attempt, "limit", p.cfg.RetryLimit)
		if attempt == p.cfg.RetryLimit {
			if errors.Is(err, generate.ErrInvalidResponse) && resp != nil {
				if logErr := p.deps.Writer.LogInvalid(url, title, resp.Prompt, resp.Raw); logErr != nil {
					p.log.Error(logErr, "failed to log invalid response")
				}
			}
			// Give up on this chunk but keep the URL going.
			return 0, nil
		}
	}
	return 0, nil
}

// RunBatch processes every link in the links file that is not yet marked
// processed, pacing requests to the configured rate limit.
func (p *Pipeline) RunBatch(ctx context.Context) (int, error) {
	all, err := links.FromFile(p.cfg.LinksFile)
	if err != nil {
		return 0, err
	}

	done, err := p.deps.Tracker.ProcessedSet(ctx)
	if err != nil {
		return 0, fmt.Errorf("load processed set: %w", err)
	}

	var pending []string
	for _, u := range all {
		if !done[u] {
			pending = append(pending, u)
		}
	}
	p.log.Info("batch run", "links", len(all), "pending", len(pending))
	if len(pending) == 0 {
		return 0, nil
	}

	run, err := p.deps.Tracker.StartRun(ctx)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}

	pause := time.Minute / time.Duration(p.cfg.ScraperRateLimit)
	total := 0
	processed := 0

	for i, url := range pending {
		if err := ctx.Err(); err != nil {
			break
		}

		records, err := p.ProcessURL(ctx, url)
		total += records
		if err != nil {
			p.log.Error(err, "url failed, continuing", "url", url)
		} else {
			if err := p.deps.Tracker.MarkProcessed(ctx, url, records); err != nil {
				p.log.Error(err, "failed to mark url processed", "url", url)
			}
			processed++
		}

		if i < len(pending)-1 {
			p.log.Debug("rate limiting", "pause", pause.String())
			select {
			case <-time.After(pause):
			case <-ctx.Done():
			}
		}
	}

	if err := p.deps.Tracker.FinishRun(ctx, run, processed, total); err != nil {
		p.log.Error(err, "failed to finish run record")
	}
	return total, nil
}

// RunSingle processes the configured target URL once, without marking it
// processed.
func (p *Pipeline) RunSingle(ctx context.Context) (int, error) {
	if p.cfg.TargetURL == "" {
		return 0, fmt.Errorf("target url is required in single mode")
	}
	return p.ProcessURL(ctx, p.cfg.TargetURL)
}
