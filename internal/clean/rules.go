package clean

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"sigs.k8s.io/yaml"
)

// DomainRules are extra cleanup patterns for one domain, layered on top of
// the built-in strategy.
type DomainRules struct {
	Domain     string   `json:"domain"`
	StripLines []string `json:"stripLines"`
	CutAfter   []string `json:"cutAfter"`
}

// Rules is the overlay file format: per-domain line patterns to drop and
// markers that end the useful content.
type Rules struct {
	Domains []DomainRules `json:"domains"`

	compiled []compiledRules
}

type compiledRules struct {
	domain string
	strip  []*regexp.Regexp
	cut    []*regexp.Regexp
}

// LoadRules reads and compiles an overlay rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}

	for _, d := range rules.Domains {
		c := compiledRules{domain: d.Domain}
		for _, p := range d.StripLines {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %q for %s: %w", p, d.Domain, err)
			}
			c.strip = append(c.strip, re)
		}
		for _, p := range d.CutAfter {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule %q for %s: %w", p, d.Domain, err)
			}
			c.cut = append(c.cut, re)
		}
		rules.compiled = append(rules.compiled, c)
	}
	return &rules, nil
}

func (r *Rules) apply(content, url string) string {
	for _, c := range r.compiled {
		if !strings.Contains(url, c.domain) {
			continue
		}
		lines := strings.Split(content, "\n")
		var out []string
	scan:
		for _, line := range lines {
			for _, re := range c.cut {
				if re.MatchString(line) {
					break scan
				}
			}
			for _, re := range c.strip {
				if re.MatchString(line) {
					continue scan
				}
			}
			out = append(out, line)
		}
		content = strings.TrimSpace(strings.Join(out, "\n")) + "\n"
	}
	return content
}
