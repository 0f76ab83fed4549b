// Package clean strips site boilerplate from fetched markdown. Each supported
// domain gets its own strategy; everything else goes through a generic
// link-stripping pass.
package clean

import (
	"regexp"
	"strings"

	"github.com/avazquez/webtune/internal/logging"
)

// Func is a cleaning strategy: markdown in, cleaned markdown out.
type Func func(content string) string

type entry struct {
	domain string
	fn     Func
}

// Registry routes content to a cleaning strategy by URL domain substring.
// Entries are checked in registration order; unmatched URLs use the default
// strategy.
type Registry struct {
	entries []entry
	overlay *Rules
	log     logging.Logger
}

// NewRegistry builds a registry with the built-in domain strategies.
func NewRegistry(log logging.Logger) *Registry {
	r := &Registry{log: log.WithName("clean")}
	r.Register("garmoth.com", cleanGarmoth)
	r.Register("playblackdesert.com", cleanPlayBlackDesert)
	r.Register("blackdesertfoundry.com", cleanFoundry)
	return r
}

// Register adds a strategy for a domain substring.
func (r *Registry) Register(domain string, fn Func) {
	r.entries = append(r.entries, entry{domain: domain, fn: fn})
}

// WithRules attaches an overlay of extra per-domain patterns applied after
// the domain strategy.
func (r *Registry) WithRules(rules *Rules) *Registry {
	r.overlay = rules
	return r
}

// Clean applies the strategy matching url's domain, then the overlay rules.
func (r *Registry) Clean(content, url string) string {
	if content == "" {
		return ""
	}

	cleaned := ""
	matched := false
	for _, e := range r.entries {
		if strings.Contains(url, e.domain) {
			r.log.Info("cleaning content", "strategy", e.domain)
			cleaned = e.fn(content)
			matched = true
			break
		}
	}
	if !matched {
		r.log.Info("cleaning content", "strategy", "default")
		cleaned = cleanDefault(content)
	}

	if r.overlay != nil {
		cleaned = r.overlay.apply(cleaned, url)
	}
	return cleaned
}

var (
	inlineLinkRe = regexp.MustCompile(`\[.*?\]\(.*?\)`)
	runsOfNLRe   = regexp.MustCompile(`\n+`)
	blankRunsRe  = regexp.MustCompile(`\n{3,}`)
)

// cleanDefault strips markdown links and collapses whitespace. Used for
// domains without a dedicated strategy.
func cleanDefault(content string) string {
	content = inlineLinkRe.ReplaceAllString(content, "")
	return strings.TrimSpace(runsOfNLRe.ReplaceAllString(content, "\n"))
}

func collapseBlankLines(content string) string {
	return blankRunsRe.ReplaceAllString(content, "\n\n")
}
