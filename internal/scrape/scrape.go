// Package scrape fetches guide pages and returns their markdown rendering.
// Remote conversion services do the heavy lifting; a local readability
// strategy serves as the fallback when a remote service is down.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avazquez/webtune/internal/logging"
)

// Result is the fetched page: title may be empty when the service does not
// report one, content is markdown.
type Result struct {
	Title   string
	URL     string
	Content string
}

// Strategy is one way of turning a URL into markdown.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Result, error)
}

type route struct {
	domain   string
	strategy string
}

// Scraper routes URLs to named fetch strategies by domain substring. Unmatched
// URLs use the default strategy; when a remote strategy fails the local
// fallback gets a try before the error is surfaced.
type Scraper struct {
	strategies map[string]Strategy
	routes     []route
	defaultTo  string
	fallbackTo string
	log        logging.Logger
}

// New builds a scraper with the standard strategy set registered and routed.
func New(timeout time.Duration, log logging.Logger) *Scraper {
	client := &http.Client{Timeout: timeout}
	s := &Scraper{
		strategies: map[string]Strategy{},
		defaultTo:  "jina",
		fallbackTo: "readability",
		log:        log.WithName("scrape"),
	}
	s.Register(newURLToMarkdown(client))
	s.Register(newToMarkdown(client))
	s.Register(newJina(client))
	s.Register(newReadability(client))
	s.Route("blackdesertfoundry.com", "urltomarkdown")
	s.Route("garmoth.com", "tomarkdown")
	s.Route("playblackdesert.com", "tomarkdown")
	return s
}

// Register adds or replaces a strategy under its name.
func (s *Scraper) Register(st Strategy) {
	s.strategies[st.Name()] = st
}

// Route maps a domain substring to a registered strategy name. Routes are
// checked in registration order.
func (s *Scraper) Route(domain, strategy string) {
	s.routes = append(s.routes, route{domain: domain, strategy: strategy})
}

// Fetch retrieves url via its routed strategy, falling back to the local
// strategy on remote failure.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Result, error) {
	name := s.defaultTo
	for _, r := range s.routes {
		if strings.Contains(url, r.domain) {
			name = r.strategy
			break
		}
	}

	st, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("no strategy registered under %q", name)
	}

	s.log.Info("fetching page", "url", url, "strategy", name)
	res, err := st.Fetch(ctx, url)
	if err == nil {
		return res, nil
	}

	fb, ok := s.strategies[s.fallbackTo]
	if !ok || s.fallbackTo == name {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	s.log.Error(err, "strategy failed, trying fallback",
		"strategy", name, "fallback", s.fallbackTo)
	res, fbErr := fb.Fetch(ctx, url)
	if fbErr != nil {
		return nil, fmt.Errorf("fetch %s: %w (fallback: %v)", url, err, fbErr)
	}
	return res, nil
}
