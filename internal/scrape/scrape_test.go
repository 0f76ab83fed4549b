package scrape

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"

	"github.com/avazquez/webtune/internal/logging"
)

type stubStrategy struct {
	name   string
	result *Result
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Fetch(ctx context.Context, url string) (*Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newStubScraper() (*Scraper, map[string]*stubStrategy) {
	s := New(time.Second, logging.New(logr.Discard()))
	stubs := map[string]*stubStrategy{}
	for _, name := range []string{"urltomarkdown", "tomarkdown", "jina", "readability"} {
		st := &stubStrategy{name: name, result: &Result{Content: name}}
		stubs[name] = st
		s.Register(st)
	}
	return s, stubs
}

func TestFetchRoutesByDomain(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://blackdesertfoundry.com/guide", "urltomarkdown"},
		{"https://garmoth.com/guides/enhancement", "tomarkdown"},
		{"https://www.playblackdesert.com/wiki/detail?id=1", "tomarkdown"},
		{"https://example.com/anything", "jina"},
	}
	for _, tc := range cases {
		s, stubs := newStubScraper()
		res, err := s.Fetch(context.Background(), tc.url)
		if err != nil {
			t.Fatalf("%s: %v", tc.url, err)
		}
		if res.Content != tc.want {
			t.Fatalf("%s routed to %q, want %q", tc.url, res.Content, tc.want)
		}
		if stubs[tc.want].calls != 1 {
			t.Fatalf("%s: strategy %q called %d times", tc.url, tc.want, stubs[tc.want].calls)
		}
	}
}

func TestFetchFallsBackToReadability(t *testing.T) {
	s, stubs := newStubScraper()
	stubs["jina"].err = errors.New("service down")
	stubs["readability"].result = &Result{Content: "local copy"}

	res, err := s.Fetch(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("expected fallback to succeed: %v", err)
	}
	if res.Content != "local copy" {
		t.Fatalf("expected fallback result, got %q", res.Content)
	}
	if stubs["readability"].calls != 1 {
		t.Fatalf("fallback called %d times", stubs["readability"].calls)
	}
}

func TestFetchReportsBothFailures(t *testing.T) {
	s, stubs := newStubScraper()
	stubs["jina"].err = errors.New("service down")
	stubs["readability"].err = errors.New("no article")

	if _, err := s.Fetch(context.Background(), "https://example.com/page"); err == nil {
		t.Fatalf("expected error when both strategies fail")
	}
}

func TestURLToMarkdownFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got != "https://blackdesertfoundry.com/g" {
			t.Errorf("unexpected url param %q", got)
		}
		if got := r.URL.Query().Get("title"); got != "false" {
			t.Errorf("unexpected title param %q", got)
		}
		w.Write([]byte("# Guide\n\nbody"))
	}))
	defer srv.Close()

	st := newURLToMarkdown(srv.Client())
	st.endpoint = srv.URL + "/"
	res, err := st.Fetch(context.Background(), "https://blackdesertfoundry.com/g")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.HasPrefix(res.Content, "# Guide") {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestToMarkdownFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if got := gjson.GetBytes(body, "url").String(); got != "https://garmoth.com/g" {
			t.Errorf("unexpected url in payload: %q", got)
		}
		if got := gjson.GetBytes(body, "options.headingStyle").String(); got != "atx" {
			t.Errorf("unexpected heading style %q", got)
		}
		if got := gjson.GetBytes(body, "options.hr").String(); got != "***" {
			t.Errorf("unexpected hr %q", got)
		}
		w.Write([]byte(`{"markdown": "1.  Intro\n\n***\n\ncontent"}`))
	}))
	defer srv.Close()

	st := newToMarkdown(srv.Client())
	st.endpoint = srv.URL
	res, err := st.Fetch(context.Background(), "https://garmoth.com/g")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.HasPrefix(res.Content, "1.  Intro") {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestJinaFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"title": "Guide Title", "content": "## Section\ntext"}}`))
	}))
	defer srv.Close()

	st := newJina(srv.Client())
	st.endpoint = srv.URL + "/"
	res, err := st.Fetch(context.Background(), "https://example.com/g")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Title != "Guide Title" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if !strings.Contains(res.Content, "## Section") {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestJinaFetchTopLevelPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Flat", "content": "body"}`))
	}))
	defer srv.Close()

	st := newJina(srv.Client())
	st.endpoint = srv.URL + "/"
	res, err := st.Fetch(context.Background(), "https://example.com/g")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Title != "Flat" || res.Content != "body" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDoRequestRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	st := newJina(srv.Client())
	st.endpoint = srv.URL + "/"
	if _, err := st.Fetch(context.Background(), "https://example.com/g"); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestReadabilityFetch(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Enhancement Guide</title></head><body>
<article>
<h1>Enhancement Guide</h1>
<p>Enhancing gear in the game raises its stats at the risk of failure, and every
player eventually needs a working strategy for it to progress past mid game.</p>
<p>This guide walks through the materials you need, the failstack values worth
using at each level, and the common mistakes that waste silver for no benefit.</p>
<p>Start by gathering black stones from the central market or from grinding
spots, then build failstacks on cheap gear before attempting your real pieces.</p>
</article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	st := newReadability(srv.Client())
	res, err := st.Fetch(context.Background(), srv.URL+"/guide")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(res.Content, "failstack") {
		t.Fatalf("converted markdown missing article text: %q", res.Content)
	}
}

func TestPageTitle(t *testing.T) {
	body := []byte(`<html><head><title>  Node Guide  </title></head><body><p>x</p></body></html>`)
	if got := pageTitle(body); got != "Node Guide" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := pageTitle([]byte("<p>no title element</p>")); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}
