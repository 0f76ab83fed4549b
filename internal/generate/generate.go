// Package generate turns content chunks into conversational training
// dialogues by prompting a local ollama model.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/avazquez/webtune/internal/logging"
)

// ErrInvalidResponse marks a model response with no valid dialogues in it.
// The raw response travels back with the error so it can be logged.
var ErrInvalidResponse = errors.New("no valid dialogues in model response")

// Config holds the generation model settings.
type Config struct {
	ModelName   string
	OllamaURL   string
	CallTimeout time.Duration
	PromptFile  string
}

// Request is one chunk to generate dialogues from. GuideTitle and
// HeadingContext feed the prompt's context block.
type Request struct {
	Text           string
	GuideTitle     string
	HeadingContext string
}

// Response carries the validated dialogue JSON lines plus the raw exchange
// for error logging.
type Response struct {
	Dialogues []string
	Raw       string
	Prompt    string
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Generator prompts the model once per chunk and validates the output.
type Generator struct {
	llm      contentGenerator
	template string
	timeout  time.Duration
	log      logging.Logger
}

// New builds a generator. The meta prompt comes from cfg.PromptFile when set,
// otherwise the built-in template.
func New(cfg Config, log logging.Logger) (*Generator, error) {
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("generation model name is required")
	}

	template, err := loadTemplate(cfg.PromptFile)
	if err != nil {
		return nil, err
	}

	client, err := ollama.New(
		ollama.WithModel(cfg.ModelName),
		ollama.WithServerURL(cfg.OllamaURL),
		ollama.WithKeepAlive("5m"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &Generator{
		llm:      client,
		template: template,
		timeout:  cfg.CallTimeout,
		log:      log.WithName("generate"),
	}, nil
}

func loadTemplate(path string) (string, error) {
	if path == "" {
		return defaultMetaPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template %s: %w", path, err)
	}
	if !strings.Contains(string(data), "{context}") {
		return "", fmt.Errorf("prompt template %s missing {context} placeholder", path)
	}
	return string(data), nil
}

// Generate sends one chunk to the model. On ErrInvalidResponse the returned
// Response still carries the raw text and prompt for the error log.
func (g *Generator) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Text == "" {
		return nil, fmt.Errorf("source text is empty")
	}

	prompt := g.buildPrompt(req)
	resp := &Response{Prompt: prompt}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	g.log.Info("sending chunk to generator model")
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	out, err := g.llm.GenerateContent(ctx, messages)
	if err != nil {
		return resp, g.annotateError(err)
	}
	if len(out.Choices) == 0 {
		return resp, fmt.Errorf("empty model response")
	}

	resp.Raw = CleanResponse(out.Choices[0].Content)
	resp.Dialogues = ParseDialogues(resp.Raw)
	if len(resp.Dialogues) == 0 {
		return resp, ErrInvalidResponse
	}

	g.log.Debug("dialogues generated", "count", len(resp.Dialogues))
	return resp, nil
}

func (g *Generator) buildPrompt(req Request) string {
	var parts []string
	if req.GuideTitle != "" {
		parts = append(parts, "Guide Title: "+req.GuideTitle)
	}
	if req.HeadingContext != "" {
		parts = append(parts, "Section Hierarchy:\n"+req.HeadingContext)
	}
	context := strings.Join(parts, "\n\n")
	return strings.ReplaceAll(g.template, "{context}", context) + "\n" + req.Text
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Generator) annotateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("model call timed out after %s: %w", g.timeout, err)
	}
	return err
}
