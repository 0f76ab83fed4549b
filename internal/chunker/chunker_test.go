package chunker

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-logr/logr"

	"github.com/avazquez/webtune/internal/logging"
)

// wordCounter stands in for the tokenizer so tests stay deterministic and
// offline.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func newTestChunker(maxTokens int) *Chunker {
	return New(wordCounter{}, Options{MaxTokens: maxTokens}, logging.New(logr.Discard()))
}

func TestChunkEmptyDocument(t *testing.T) {
	c := newTestChunker(100)
	if got := c.Chunk(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty document, got %d", len(got))
	}
	if got := c.Chunk("  \n\n \t\n"); len(got) != 0 {
		t.Fatalf("expected no chunks for blank document, got %d", len(got))
	}
}

func TestChunkSingleSectionUnderBudget(t *testing.T) {
	c := newTestChunker(100)
	chunks := c.Chunk("## Setup\n\nInstall the launcher and log in.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Oversized {
		t.Fatalf("chunk should not be oversized")
	}
	if got := chunks[0].TokenCount; got > 100 {
		t.Fatalf("token count %d exceeds budget", got)
	}
}

func TestChunkTwoSectionsInOrder(t *testing.T) {
	c := newTestChunker(100)
	chunks := c.Chunk("## A\npara1\n## B\npara2")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "## A") {
		t.Fatalf("first chunk should start with %q, got %q", "## A", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, "## B") {
		t.Fatalf("second chunk should start with %q, got %q", "## B", chunks[1].Text)
	}
}

func TestChunkNoQualifyingHeadings(t *testing.T) {
	c := newTestChunker(100)
	body := "Just a body with no headings at all.\n\nSecond paragraph."
	chunks := c.Chunk(body)
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
	if chunks[0].Text != body {
		t.Fatalf("chunk should contain the whole body")
	}
	if len(chunks[0].HeadingPath) != 0 {
		t.Fatalf("expected empty heading path, got %v", chunks[0].HeadingPath)
	}
}

func TestChunkRecursesIntoDeeperHeadings(t *testing.T) {
	c := newTestChunker(8)
	doc := "## Outer\nshort intro here\n### Inner\n" +
		"one two three four five six seven eight nine ten"
	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected section to split at deeper heading, got %d chunks", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "## Outer") {
		t.Fatalf("first chunk should keep the outer heading, got %q", chunks[0].Text)
	}
	last := chunks[len(chunks)-1]
	titles := last.Titles()
	if len(titles) < 2 || titles[0] != "Outer" || titles[1] != "Inner" {
		t.Fatalf("expected nested heading path [Outer Inner], got %v", titles)
	}
}

func TestChunkParagraphAccumulation(t *testing.T) {
	c := newTestChunker(10)
	doc := "alpha beta gamma delta\n\nepsilon zeta eta theta\n\niota kappa lambda mu"
	chunks := c.Chunk(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected paragraph split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if ch.TokenCount > 10 {
			t.Fatalf("chunk %d exceeds budget: %d tokens", i, ch.TokenCount)
		}
	}
}

func TestChunkOversizedParagraphKeptWhole(t *testing.T) {
	c := newTestChunker(5)
	para := "one two three four five six seven eight nine ten"
	chunks := c.Chunk(para)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !chunks[0].Oversized {
		t.Fatalf("expected oversized flag on irreducible paragraph")
	}
	if chunks[0].Text != para {
		t.Fatalf("oversized paragraph must not be truncated")
	}
}

func TestChunkIdempotent(t *testing.T) {
	c := newTestChunker(12)
	doc := "## A\nfirst second third fourth fifth sixth seventh\n\neighth ninth tenth\n## B\nmore words in the second section here"
	first := c.Chunk(doc)
	second := c.Chunk(doc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("chunking is not idempotent")
	}
}

func TestChunkConcatenationPreservesContent(t *testing.T) {
	c := newTestChunker(8)
	doc := "intro line that is fairly long so it stays a real preamble paragraph on its own with many words\n\n" +
		"## First\nalpha beta gamma delta epsilon zeta\n\neta theta iota kappa\n\n" +
		"## Second\nlambda mu nu xi omicron pi rho sigma"
	chunks := c.Chunk(doc)

	var got []string
	for _, ch := range chunks {
		got = append(got, nonBlankLines(ch.Text)...)
	}
	want := nonBlankLines(doc)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("content not preserved:\nwant %v\ngot  %v", want, got)
	}
}

func TestChunkMergesShortPreamble(t *testing.T) {
	c := newTestChunker(100)
	chunks := c.Chunk("A short intro.\n\n## Guide\ncontent goes here")
	if len(chunks) != 1 {
		t.Fatalf("expected preamble merged into first section, got %d chunks", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "A short intro.") || !strings.Contains(chunks[0].Text, "## Guide") {
		t.Fatalf("merged chunk missing parts: %q", chunks[0].Text)
	}
}

func TestChunkKeepsLongPreambleSeparate(t *testing.T) {
	c := newTestChunker(200)
	pre := strings.Repeat("long preamble text ", 12) // > 160 chars
	chunks := c.Chunk(pre + "\n\n## Guide\ncontent goes here")
	if len(chunks) != 2 {
		t.Fatalf("expected separate preamble chunk, got %d chunks", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "## Guide") {
		t.Fatalf("long preamble should not absorb the heading section")
	}
}

func TestChunkNumberedHeadingsWithRule(t *testing.T) {
	c := newTestChunker(100)
	doc := "1.  Introduction\n\n***\n\nwelcome to the guide\n\n2.  Enhancement\n\n***\n\nhow to enhance gear"
	chunks := c.Chunk(doc)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 numbered sections, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "1.") || !strings.HasPrefix(chunks[1].Text, "2.") {
		t.Fatalf("numbered sections out of order: %q / %q", chunks[0].Text, chunks[1].Text)
	}
}

func TestChunkNumberedWithoutRuleIgnored(t *testing.T) {
	c := newTestChunker(100)
	doc := "Some prose first.\n\n1. not a heading, just an ordered list item\n2. second item"
	chunks := c.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("ordered list items must not split the document, got %d chunks", len(chunks))
	}
}

func TestChunkSetextHeading(t *testing.T) {
	c := newTestChunker(100)
	chunks := c.Chunk("Overview\n---\nbody text here\n\nAnother Section\n---\nmore body text")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 setext sections, got %d", len(chunks))
	}
	if chunks[0].HeadingPath[0].Title != "Overview" {
		t.Fatalf("unexpected title %q", chunks[0].HeadingPath[0].Title)
	}
}

func TestHeadingHierarchy(t *testing.T) {
	ch := Chunk{HeadingPath: []Heading{{Level: 2, Title: "Gear"}, {Level: 3, Title: "Enhancement"}}}
	want := "## Gear\n  ### Enhancement"
	if got := ch.HeadingHierarchy(); got != want {
		t.Fatalf("hierarchy mismatch:\nwant %q\ngot  %q", want, got)
	}

	empty := Chunk{}
	if got := empty.HeadingHierarchy(); got != "Guide Section" {
		t.Fatalf("expected fallback label, got %q", got)
	}
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
