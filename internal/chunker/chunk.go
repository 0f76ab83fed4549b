// Package chunker splits cleaned markdown documents into token-bounded,
// heading-aware chunks for downstream dataset generation. Oversized sections
// are re-split through an ordered strategy chain: deeper headings first, then
// table/list structure, then paragraph accumulation, with a last-resort
// oversized emission that never truncates content.
package chunker

import (
	"strings"
)

// TokenCounter reports the token count of a text span. Implementations must
// be deterministic for identical input.
type TokenCounter interface {
	Count(text string) int
}

// Heading is one level of a chunk's enclosing heading path.
type Heading struct {
	Level int
	Title string
}

// Chunk is a contiguous span of document text bounded by heading and token
// constraints. Oversized marks a chunk that exceeds the budget because no
// valid split point existed inside it.
type Chunk struct {
	Text        string
	TokenCount  int
	HeadingPath []Heading
	Oversized   bool
}

// HeadingHierarchy renders the heading path as an indented markdown block for
// prompt context. Chunks with no enclosing heading render a generic label.
func (c Chunk) HeadingHierarchy() string {
	if len(c.HeadingPath) == 0 {
		return "Guide Section"
	}
	lines := make([]string, 0, len(c.HeadingPath))
	for i, h := range c.HeadingPath {
		level := h.Level
		if level < 1 {
			level = i + 1
		}
		indent := strings.Repeat("  ", i)
		lines = append(lines, indent+strings.Repeat("#", level)+" "+h.Title)
	}
	return strings.Join(lines, "\n")
}

// Titles returns the heading path as plain title strings.
func (c Chunk) Titles() []string {
	titles := make([]string, 0, len(c.HeadingPath))
	for _, h := range c.HeadingPath {
		titles = append(titles, h.Title)
	}
	return titles
}
