package chunker

import (
	"strings"

	"github.com/avazquez/webtune/internal/logging"
)

// Options bound the chunker. MaxTokens is the per-chunk token budget;
// MinLevel is the shallowest heading level that opens a new chunk.
type Options struct {
	MaxTokens  int
	MinLevel   int
	Structured StructuredOptions
}

func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 3500
	}
	if o.MinLevel < 1 || o.MinLevel > 6 {
		o.MinLevel = 2
	}
	o.Structured = o.Structured.withDefaults()
	return o
}

// strategy attempts one way of splitting an oversized section. It reports
// false when the section has no boundary of its kind, letting the next
// strategy in the chain try.
type strategy func(sec section, path []Heading) ([]Chunk, bool)

// Chunker splits markdown documents into token-bounded chunks. It is purely
// computational and safe to use concurrently on independent documents.
type Chunker struct {
	counter    TokenCounter
	opts       Options
	log        logging.Logger
	splitter   *structuredSplitter
	strategies []strategy
}

func New(counter TokenCounter, opts Options, log logging.Logger) *Chunker {
	opts = opts.withDefaults()
	c := &Chunker{
		counter: counter,
		opts:    opts,
		log:     log.WithName("chunker"),
	}
	c.splitter = newStructuredSplitter(counter, opts.Structured, opts.MaxTokens, c.log)
	c.strategies = []strategy{c.splitByHeadings, c.splitStructured, c.splitByParagraphs}
	return c
}

// Chunk splits a document into ordered chunks. An empty or blank document
// yields an empty sequence; a document with no qualifying heading yields a
// single section subject to the usual budget chain.
func (c *Chunker) Chunk(doc string) []Chunk {
	secs := splitSections(doc, c.opts.MinLevel, true)
	secs = mergeShortPreamble(secs)

	var chunks []Chunk
	for _, sec := range secs {
		chunks = append(chunks, c.chunkSection(sec, nil)...)
	}
	c.log.Debug("document chunked", "sections", len(secs), "chunks", len(chunks))
	return chunks
}

func (c *Chunker) chunkSection(sec section, parent []Heading) []Chunk {
	path := parent
	if sec.title != "" {
		path = appendPath(parent, Heading{Level: sec.level, Title: sec.title})
	}

	tokens := c.counter.Count(sec.text)
	if tokens <= c.opts.MaxTokens {
		return []Chunk{{Text: sec.text, TokenCount: tokens, HeadingPath: path}}
	}

	for _, split := range c.strategies {
		if out, ok := split(sec, path); ok {
			return out
		}
	}

	// Last resort: exceed the budget rather than truncate content.
	c.log.Info("emitting oversized chunk: no split point",
		"tokens", tokens, "limit", c.opts.MaxTokens)
	return []Chunk{{Text: sec.text, TokenCount: tokens, HeadingPath: path, Oversized: true}}
}

// splitByHeadings re-splits at the next-deeper heading level found inside the
// section.
func (c *Chunker) splitByHeadings(sec section, path []Heading) ([]Chunk, bool) {
	next := sec.level + 1
	if sec.level == 0 {
		next = c.opts.MinLevel
	}
	if next > 6 {
		return nil, false
	}

	subs := splitSections(sec.text, next, false)
	if len(subs) <= 1 {
		return nil, false
	}

	var chunks []Chunk
	for _, sub := range subs {
		chunks = append(chunks, c.chunkSection(sub, path)...)
	}
	return chunks, true
}

// splitStructured delegates detected long tables, lists, and nested bullet
// tables to the structured splitter.
func (c *Chunker) splitStructured(sec section, path []Heading) ([]Chunk, bool) {
	blocks, ok := c.splitter.Split(sec.text)
	if !ok {
		return nil, false
	}

	chunks := make([]Chunk, 0, len(blocks))
	for _, b := range blocks {
		if b.prose && b.oversized {
			// Surrounding prose still has paragraph boundaries; only the
			// structure itself is irreducible. Send it back through the
			// chain instead of accepting it over budget.
			chunks = append(chunks, c.chunkSection(section{text: b.text, level: sec.level}, path)...)
			continue
		}
		chunks = append(chunks, Chunk{
			Text:        b.text,
			TokenCount:  b.tokens,
			HeadingPath: path,
			Oversized:   b.oversized,
		})
	}
	return chunks, true
}

// splitByParagraphs accumulates blank-line-delimited blocks under the budget.
func (c *Chunker) splitByParagraphs(sec section, path []Heading) ([]Chunk, bool) {
	paras := splitParagraphs(sec.text)
	if len(paras) <= 1 {
		return nil, false
	}

	var chunks []Chunk
	var cur []string
	curTokens := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		text := strings.Join(cur, "\n\n")
		chunks = append(chunks, Chunk{
			Text:        text,
			TokenCount:  c.counter.Count(text),
			HeadingPath: path,
		})
		cur = nil
		curTokens = 0
	}

	for _, p := range paras {
		pt := c.counter.Count(p)
		switch {
		case pt > c.opts.MaxTokens:
			flush()
			c.log.Info("paragraph alone exceeds budget, keeping whole",
				"tokens", pt, "limit", c.opts.MaxTokens)
			chunks = append(chunks, Chunk{
				Text:        p,
				TokenCount:  pt,
				HeadingPath: path,
				Oversized:   true,
			})
		case curTokens+pt > c.opts.MaxTokens && len(cur) > 0:
			flush()
			cur = append(cur, p)
			curTokens = pt
		default:
			cur = append(cur, p)
			curTokens += pt
		}
	}
	flush()
	return chunks, true
}

// splitParagraphs splits text at blank-line boundaries, dropping empty
// blocks.
func splitParagraphs(text string) []string {
	var paras []string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				paras = append(paras, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		paras = append(paras, strings.Join(cur, "\n"))
	}
	return paras
}

// appendPath copies before appending so sibling sections never share backing
// arrays.
func appendPath(path []Heading, h Heading) []Heading {
	out := make([]Heading, len(path), len(path)+1)
	copy(out, path)
	return append(out, h)
}
