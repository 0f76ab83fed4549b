package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

const (
	urlToMarkdownEndpoint = "https://urltomarkdown.herokuapp.com/"
	toMarkdownEndpoint    = "https://www.tomarkdown.org/api/url-to-markdown"
	jinaEndpoint          = "https://r.jina.ai/"
)

// urlToMarkdown fetches a page through the urltomarkdown conversion service.
// The response body is the markdown itself.
type urlToMarkdown struct {
	client   *http.Client
	endpoint string
}

func newURLToMarkdown(client *http.Client) *urlToMarkdown {
	return &urlToMarkdown{client: client, endpoint: urlToMarkdownEndpoint}
}

func (u *urlToMarkdown) Name() string { return "urltomarkdown" }

func (u *urlToMarkdown) Fetch(ctx context.Context, target string) (*Result, error) {
	q := url.Values{}
	q.Set("url", target)
	q.Set("title", "false")
	q.Set("links", "true")
	q.Set("clean", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Return-Format", "markdown")

	body, err := doRequest(u.client, req)
	if err != nil {
		return nil, err
	}
	return &Result{URL: target, Content: string(body)}, nil
}

// toMarkdown posts the target URL to the tomarkdown conversion service with
// rendering options matching the markdown dialect the chunker expects: ATX
// headings, *** rules, * bullets, fenced code blocks.
type toMarkdown struct {
	client   *http.Client
	endpoint string
}

func newToMarkdown(client *http.Client) *toMarkdown {
	return &toMarkdown{client: client, endpoint: toMarkdownEndpoint}
}

func (t *toMarkdown) Name() string { return "tomarkdown" }

type toMarkdownRequest struct {
	URL             string            `json:"url"`
	AdvancedOptions toMarkdownAdvOpts `json:"advancedOptions"`
	Options         toMarkdownOpts    `json:"options"`
}

type toMarkdownAdvOpts struct {
	TargetSelectors  []string `json:"targetSelectors"`
	WaitForSelectors []string `json:"waitForSelectors"`
	ExcludeSelectors []string `json:"excludeSelectors"`
	RemoveImages     bool     `json:"removeImages"`
	BypassCache      bool     `json:"bypassCache"`
	UseV2            bool     `json:"useV2"`
	Timeout          int      `json:"timeout"`
	PreExecuteJs     string   `json:"preExecuteJs"`
}

type toMarkdownOpts struct {
	HeadingStyle       string `json:"headingStyle"`
	Hr                 string `json:"hr"`
	BulletListMarker   string `json:"bulletListMarker"`
	CodeBlockStyle     string `json:"codeBlockStyle"`
	Fence              string `json:"fence"`
	EmDelimiter        string `json:"emDelimiter"`
	StrongDelimiter    string `json:"strongDelimiter"`
	LinkStyle          string `json:"linkStyle"`
	LinkReferenceStyle string `json:"linkReferenceStyle"`
}

func (t *toMarkdown) Fetch(ctx context.Context, target string) (*Result, error) {
	payload := toMarkdownRequest{
		URL: target,
		AdvancedOptions: toMarkdownAdvOpts{
			TargetSelectors:  []string{},
			WaitForSelectors: []string{},
			ExcludeSelectors: []string{},
			Timeout:          10,
		},
		Options: toMarkdownOpts{
			HeadingStyle:       "atx",
			Hr:                 "***",
			BulletListMarker:   "*",
			CodeBlockStyle:     "fenced",
			Fence:              "```",
			EmDelimiter:        "_",
			StrongDelimiter:    "**",
			LinkStyle:          "inlined",
			LinkReferenceStyle: "full",
		},
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(t.client, req)
	if err != nil {
		return nil, err
	}
	return &Result{URL: target, Content: gjson.GetBytes(body, "markdown").String()}, nil
}

// jina fetches through the Jina AI reader, which returns the page as JSON
// with title and markdown content under data.
type jina struct {
	client   *http.Client
	endpoint string
}

func newJina(client *http.Client) *jina {
	return &jina{client: client, endpoint: jinaEndpoint}
}

func (j *jina) Name() string { return "jina" }

func (j *jina) Fetch(ctx context.Context, target string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.endpoint+target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(j.client, req)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	if data := root.Get("data"); data.Exists() {
		root = data
	}
	return &Result{
		Title:   root.Get("title").String(),
		URL:     target,
		Content: root.Get("content").String(),
	}, nil
}

// readabilityLocal fetches the raw HTML itself and converts it locally:
// readability extracts the article body, html-to-markdown renders it.
type readabilityLocal struct {
	client    *http.Client
	converter *md.Converter
}

func newReadability(client *http.Client) *readabilityLocal {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &readabilityLocal{client: client, converter: conv}
}

func (r *readabilityLocal) Name() string { return "readability" }

func (r *readabilityLocal) Fetch(ctx context.Context, target string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	body, err := doRequest(r.client, req)
	if err != nil {
		return nil, err
	}

	pageURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}

	markdown, err := r.converter.ConvertString(article.Content)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}

	title := article.Title
	if title == "" {
		title = pageTitle(body)
	}
	return &Result{Title: title, URL: target, Content: markdown}, nil
}

// pageTitle pulls the document title from the raw HTML. Readability leaves the
// title empty on pages without article metadata.
func pageTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
