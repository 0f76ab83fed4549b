package chunker

import (
	"regexp"
	"sort"
	"strings"
)

var (
	atxHeadingRe    = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+([^\n]+?)[ \t]*$`)
	setextHeadingRe = regexp.MustCompile(`(?m)^([^\s#|][^\n]*?)[ \t]*\n(={3,}|-{3,})[ \t]*$`)
	numberedRe      = regexp.MustCompile(`(?m)^\d+\.[ \t]+(\S[^\n]*?)[ \t]*$`)
	hrRe            = regexp.MustCompile(`^\s*\*{3,}\s*$`)
)

type headingMark struct {
	start int
	level int
	title string
}

// section is a contiguous slice of document text headed by at most one
// heading. Level 0 means preamble text with no qualifying heading.
type section struct {
	text  string
	level int
	title string
}

// scanHeadings locates ATX headings in [lo,6], setext headings whose implied
// level is within range, and (optionally) numbered section headings like
// "2. Title" that are followed by a *** horizontal rule within the next three
// non-blank lines.
func scanHeadings(text string, lo int, numbered bool) []headingMark {
	var marks []headingMark

	for _, m := range atxHeadingRe.FindAllStringSubmatchIndex(text, -1) {
		level := m[3] - m[2]
		if level < lo {
			continue
		}
		marks = append(marks, headingMark{
			start: m[0],
			level: level,
			title: text[m[4]:m[5]],
		})
	}

	for _, m := range setextHeadingRe.FindAllStringSubmatchIndex(text, -1) {
		level := 1
		if text[m[4]] == '-' {
			level = 2
		}
		if level < lo {
			continue
		}
		marks = append(marks, headingMark{
			start: m[0],
			level: level,
			title: strings.TrimSpace(text[m[2]:m[3]]),
		})
	}

	if numbered {
		for _, m := range numberedRe.FindAllStringSubmatchIndex(text, -1) {
			if !hrFollows(text, m[1]) {
				continue
			}
			marks = append(marks, headingMark{
				start: m[0],
				level: lo,
				title: strings.TrimSpace(text[m[0]:m[1]]),
			})
		}
	}

	sort.Slice(marks, func(i, j int) bool { return marks[i].start < marks[j].start })

	// Drop duplicates at the same offset (a numbered line can also match the
	// setext pattern when underlined).
	out := marks[:0]
	last := -1
	for _, m := range marks {
		if m.start == last {
			continue
		}
		out = append(out, m)
		last = m.start
	}
	return out
}

// hrFollows reports whether a *** rule appears within the next three
// non-blank lines after offset end.
func hrFollows(text string, end int) bool {
	tail := text[end:]
	if i := strings.IndexByte(tail, '\n'); i >= 0 {
		tail = tail[i+1:]
	} else {
		return false
	}
	checked := 0
	for _, line := range strings.Split(tail, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if hrRe.MatchString(line) {
			return true
		}
		checked++
		if checked >= 3 {
			break
		}
	}
	return false
}

// splitSections partitions text at the shallowest qualifying heading level
// present. Deeper headings stay inside their enclosing section; an oversized
// section recurses into them later. Text before the first qualifying heading
// becomes a level-0 preamble section.
func splitSections(text string, minLevel int, numbered bool) []section {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	marks := scanHeadings(text, minLevel, numbered)
	if len(marks) == 0 {
		return []section{{text: trimmed}}
	}

	shallowest := marks[0].level
	for _, m := range marks {
		if m.level < shallowest {
			shallowest = m.level
		}
	}
	sel := marks[:0]
	for _, m := range marks {
		if m.level == shallowest {
			sel = append(sel, m)
		}
	}

	var secs []section
	if pre := strings.TrimSpace(text[:sel[0].start]); pre != "" {
		secs = append(secs, section{text: pre})
	}
	for i, m := range sel {
		end := len(text)
		if i+1 < len(sel) {
			end = sel[i+1].start
		}
		seg := strings.TrimSpace(text[m.start:end])
		if seg == "" {
			continue
		}
		secs = append(secs, section{text: seg, level: m.level, title: m.title})
	}
	return secs
}

const preambleMergeThreshold = 160

// mergeShortPreamble folds a short leading preamble into the first heading
// section so tiny intro fragments do not become standalone chunks.
func mergeShortPreamble(secs []section) []section {
	if len(secs) < 2 || secs[0].level != 0 || len(secs[0].text) > preambleMergeThreshold {
		return secs
	}
	secs[1].text = secs[0].text + "\n\n" + secs[1].text
	return secs[1:]
}
