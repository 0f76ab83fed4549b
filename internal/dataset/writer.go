// Package dataset appends generated dialogues to the output JSONL file and
// keeps the companion logs for invalid responses and rejected chunks.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/avazquez/webtune/internal/logging"
)

// TokenCounter counts tokens for the answer_tokens metadata field.
type TokenCounter interface {
	Count(text string) int
}

// Meta is the per-URL metadata stamped onto every record.
type Meta struct {
	URL  string
	Date string
}

// Writer appends records to the dataset file. All writes are append-only so
// interrupted runs never lose earlier output.
type Writer struct {
	path          string
	shortChunkLog string
	counter       TokenCounter
	log           logging.Logger
}

func NewWriter(path, shortChunkLog string, counter TokenCounter, log logging.Logger) *Writer {
	return &Writer{
		path:          path,
		shortChunkLog: shortChunkLog,
		counter:       counter,
		log:           log.WithName("dataset"),
	}
}

type turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Append enriches each dialogue line with url, lang, date, and answer_tokens
// and appends it to the output file. Lines that fail to parse are skipped.
// Returns the number of records written.
func (w *Writer) Append(dialogues []string, meta Meta) (int, error) {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", w.path, err)
	}
	defer f.Close()

	written := 0
	for _, line := range dialogues {
		var item map[string]any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			w.log.Error(err, "skipping unparseable dialogue line")
			continue
		}

		item["url"] = meta.URL
		item["lang"] = "en"
		if meta.Date != "" {
			item["date"] = meta.Date
		}
		item["answer_tokens"] = w.answerTokens(line)

		out, err := json.Marshal(item)
		if err != nil {
			w.log.Error(err, "skipping unserializable dialogue line")
			continue
		}
		if _, err := f.Write(append(out, '\n')); err != nil {
			return written, fmt.Errorf("write %s: %w", w.path, err)
		}
		written++
	}

	w.log.Info("records appended", "count", written, "file", w.path)
	return written, nil
}

// answerTokens sums the token counts of the assistant turns.
func (w *Writer) answerTokens(line string) int {
	var doc struct {
		Conversations []turn `json:"conversations"`
	}
	if err := json.Unmarshal([]byte(line), &doc); err != nil {
		return 0
	}
	total := 0
	for _, t := range doc.Conversations {
		if t.Role == "assistant" {
			total += w.counter.Count(t.Content)
		}
	}
	return total
}

const (
	responseTruncateAt = 2000
	separator          = "================================================================================"
	thinSeparator      = "--------------------------------------------------------------------------------"
)

// LogInvalid records a model response that produced no valid dialogues,
// together with the prompt that was sent, in the sibling _errors.log file.
func (w *Writer) LogInvalid(url, guideTitle, prompt, response string) error {
	path := errorLogPath(w.path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "URL: %s\n", url)
	fmt.Fprintf(&b, "Guide Title: %s\n", guideTitle)
	b.WriteString(thinSeparator + "\n")
	if prompt != "" {
		b.WriteString("PROMPT SENT TO MODEL:\n")
		b.WriteString(thinSeparator + "\n")
		b.WriteString(prompt)
		b.WriteString("\n" + thinSeparator + "\n\n")
	}
	b.WriteString("INVALID MODEL RESPONSE:\n")
	if len(response) > responseTruncateAt {
		b.WriteString(response[:responseTruncateAt])
		fmt.Fprintf(&b, "\n... [truncated, total length %d chars]\n", len(response))
	} else {
		b.WriteString(response)
	}
	b.WriteString("\n" + separator + "\n\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.log.Info("invalid response logged", "file", path)
	return nil
}

// LogShortChunk records a chunk the quality filter rejected, so borderline
// content can be reviewed later.
func (w *Writer) LogShortChunk(url, reason, text string) error {
	if w.shortChunkLog == "" {
		return nil
	}
	f, err := os.OpenFile(w.shortChunkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.shortChunkLog, err)
	}
	defer f.Close()

	preview := text
	if len(preview) > 200 {
		preview = preview[:200]
	}
	entry := fmt.Sprintf("URL: %s\nReason: %s\n%s\n%s\n", url, reason, preview, thinSeparator)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("write %s: %w", w.shortChunkLog, err)
	}
	return nil
}

func errorLogPath(outputPath string) string {
	if strings.HasSuffix(outputPath, ".jsonl") {
		return strings.TrimSuffix(outputPath, ".jsonl") + "_errors.log"
	}
	return outputPath + "_errors.log"
}
