package chunker

import "fmt"

// Status classifies a chunk's suitability for generation.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Verdict is the quality filter's decision for one chunk. Rejected chunks
// stay in the emitted sequence; the verdict tags them for downstream
// skip-and-log so borderline content can be audited.
type Verdict struct {
	Status     Status
	Reason     string
	TokenCount int
}

// Classify rejects a chunk iff its token count is strictly below minTokens.
// Oversized chunks are accepted: exceeding the budget is an expected
// last-resort outcome, not a quality failure.
func Classify(c Chunk, minTokens int) Verdict {
	if c.TokenCount < minTokens {
		return Verdict{
			Status:     StatusRejected,
			Reason:     fmt.Sprintf("chunk below minimum size: %d < %d tokens", c.TokenCount, minTokens),
			TokenCount: c.TokenCount,
		}
	}
	return Verdict{Status: StatusAccepted, TokenCount: c.TokenCount}
}
