package generate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/tmc/langchaingo/llms"

	"github.com/avazquez/webtune/internal/logging"
)

type fakeLLM struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.prompt = tc.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func newTestGenerator(llm *fakeLLM) *Generator {
	return &Generator{
		llm:      llm,
		template: defaultMetaPrompt,
		timeout:  time.Second,
		log:      logging.New(logr.Discard()),
	}
}

func TestGenerateValidResponse(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n" + validDialogue + "\n```"}
	g := newTestGenerator(llm)

	resp, err := g.Generate(context.Background(), Request{
		Text:           "## Enhancement\nUse black stones.",
		GuideTitle:     "Enhancement Guide",
		HeadingContext: "## Enhancement",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(resp.Dialogues) != 1 {
		t.Fatalf("expected 1 dialogue, got %d", len(resp.Dialogues))
	}
	if !strings.Contains(llm.prompt, "Guide Title: Enhancement Guide") {
		t.Fatalf("prompt missing guide title:\n%s", llm.prompt)
	}
	if !strings.Contains(llm.prompt, "Section Hierarchy:\n## Enhancement") {
		t.Fatalf("prompt missing heading context:\n%s", llm.prompt)
	}
	if !strings.HasSuffix(llm.prompt, "## Enhancement\nUse black stones.") {
		t.Fatalf("prompt should end with the chunk text:\n%s", llm.prompt)
	}
	if strings.Contains(llm.prompt, "{context}") {
		t.Fatalf("context placeholder not substituted")
	}
}

func TestGenerateInvalidResponse(t *testing.T) {
	llm := &fakeLLM{reply: "I cannot produce JSON for this."}
	g := newTestGenerator(llm)

	resp, err := g.Generate(context.Background(), Request{Text: "chunk"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if resp.Raw != "I cannot produce JSON for this." {
		t.Fatalf("raw response not preserved: %q", resp.Raw)
	}
	if resp.Prompt == "" {
		t.Fatalf("prompt not preserved for error logging")
	}
}

func TestGenerateEmptyText(t *testing.T) {
	g := newTestGenerator(&fakeLLM{})
	if _, err := g.Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error for empty source text")
	}
}

func TestGenerateAnnotatesTimeout(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	g := newTestGenerator(llm)

	_, err := g.Generate(context.Background(), Request{Text: "chunk"})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout annotation, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("wrapped error should keep its identity")
	}
}

func TestLoadTemplateValidation(t *testing.T) {
	if _, err := loadTemplate("/nonexistent/prompt.txt"); err == nil {
		t.Fatalf("expected error for missing file")
	}
	tpl, err := loadTemplate("")
	if err != nil {
		t.Fatalf("default template: %v", err)
	}
	if !strings.Contains(tpl, "{context}") {
		t.Fatalf("default template missing placeholder")
	}
}
