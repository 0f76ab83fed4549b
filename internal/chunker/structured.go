package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/avazquez/webtune/internal/logging"
)

// StructuredOptions tune long table/list detection and splitting. Row/item
// caps are secondary to the token budget: a sub-block closes on whichever
// limit is reached first.
type StructuredOptions struct {
	ItemsPerChunk   int
	RowsPerChunk    int
	GroupsPerChunk  int
	MinLongList     int
	MinLongTable    int
	MinNestedGroups int
	MinNestedItems  int
}

func (o StructuredOptions) withDefaults() StructuredOptions {
	if o.ItemsPerChunk <= 0 {
		o.ItemsPerChunk = 12
	}
	if o.RowsPerChunk <= 0 {
		o.RowsPerChunk = 8
	}
	if o.GroupsPerChunk <= 0 {
		o.GroupsPerChunk = 8
	}
	if o.MinLongList <= 0 {
		o.MinLongList = 25
	}
	if o.MinLongTable <= 0 {
		o.MinLongTable = 15
	}
	if o.MinNestedGroups <= 0 {
		o.MinNestedGroups = 5
	}
	if o.MinNestedItems <= 0 {
		o.MinNestedItems = 12
	}
	return o
}

var (
	listItemRe     = regexp.MustCompile(`^[*+-][ \t]+\S`)
	orderedItemRe  = regexp.MustCompile(`^\d+\.[ \t]+\S`)
	tableSepRe     = regexp.MustCompile(`^\|[\s\-:]+\|`)
	mainBulletRe   = regexp.MustCompile(`^\*[ \t]+[\w\[]`)
	nestedBulletRe = regexp.MustCompile(`^[ \t]{2,}\*[ \t]+`)
	indentedRe     = regexp.MustCompile(`^[ \t]+`)
)

// annotationReserve keeps headroom in the budget for the part annotation
// line added to split sub-blocks.
const annotationReserve = 32

type subBlock struct {
	text      string
	tokens    int
	oversized bool
	// prose marks a sub-block of plain text around the structure, with no
	// repeated header or part annotation. Unlike a giant row or list item it
	// still has paragraph boundaries, so an over-budget prose block can be
	// split further by the caller.
	prose bool
}

// structuredSplitter breaks oversized tables, lists, and nested bullet
// tables into budget-sized sub-blocks, repeating table headers so every
// sub-block stays independently parseable.
type structuredSplitter struct {
	counter TokenCounter
	opts    StructuredOptions
	max     int
	log     logging.Logger
}

func newStructuredSplitter(counter TokenCounter, opts StructuredOptions, maxTokens int, log logging.Logger) *structuredSplitter {
	return &structuredSplitter{
		counter: counter,
		opts:    opts.withDefaults(),
		max:     maxTokens,
		log:     log,
	}
}

// Split detects the most specific structure first (nested bullet table, then
// table, then list) and splits it. It reports false when no long structure is
// present or the detected block is malformed, so the caller can fall back to
// paragraph splitting.
func (s *structuredSplitter) Split(text string) ([]subBlock, bool) {
	if s.detectNestedBulletTable(text) {
		if blocks, ok := s.splitNestedBulletTable(text); ok {
			return blocks, true
		}
	}
	if s.detectLongTable(text) {
		if blocks, ok := s.splitTable(text); ok {
			return blocks, true
		}
		s.log.Info("table block malformed, falling back to paragraph split")
	}
	if s.detectLongList(text) {
		if blocks, ok := s.splitList(text); ok {
			return blocks, true
		}
	}
	return nil, false
}

// detectLongTable reports whether text contains a markdown table with at
// least MinLongTable body rows.
func (s *structuredSplitter) detectLongTable(text string) bool {
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "|") && !tableSepRe.MatchString(stripped) {
			rows++
		}
	}
	if rows > 1 {
		rows-- // header row
	}
	return rows >= s.opts.MinLongTable
}

// detectLongList reports whether text contains a flat list with at least
// MinLongList top-level items. Nested bullet structures are excluded; they
// are handled as nested bullet tables.
func (s *structuredSplitter) detectLongList(text string) bool {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		if !mainBulletRe.MatchString(line) {
			continue
		}
		for j := i + 1; j < len(lines) && j < i+5; j++ {
			if nestedBulletRe.MatchString(lines[j]) {
				return false
			}
			if strings.TrimSpace(lines[j]) != "" && !mainBulletRe.MatchString(lines[j]) {
				break
			}
		}
	}

	items := 0
	for _, line := range lines {
		if listItemRe.MatchString(line) || orderedItemRe.MatchString(line) {
			items++
		}
	}
	return items >= s.opts.MinLongList
}

// detectNestedBulletTable reports whether text contains nested bullet points
// representing tabular data (main bullets each carrying indented sub-bullets).
func (s *structuredSplitter) detectNestedBulletTable(text string) bool {
	groups, nested := 0, 0
	inGroup, hasNested := false, false

	for _, line := range strings.Split(text, "\n") {
		switch {
		case mainBulletRe.MatchString(line):
			if inGroup && hasNested {
				groups++
			}
			inGroup = true
			hasNested = false
		case nestedBulletRe.MatchString(line) && inGroup:
			hasNested = true
			nested++
		}
	}
	if inGroup && hasNested {
		groups++
	}
	return groups >= s.opts.MinNestedGroups || nested >= s.opts.MinNestedItems
}

// splitTable splits a long markdown table. Every sub-block starts with the
// preamble (heading/context lines before the table) plus a verbatim copy of
// the header and separator rows. A single row wider than the budget is kept
// whole and flagged oversized.
func (s *structuredSplitter) splitTable(text string) ([]subBlock, bool) {
	lines := strings.Split(text, "\n")

	tableStart := -1
	var preLines []string
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			tableStart = i
			break
		}
		preLines = append(preLines, line)
	}
	if tableStart < 0 {
		return nil, false
	}

	var header, separator string
	var rows []string
	tableEnd := len(lines)
	for i := tableStart; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "|") {
			tableEnd = i
			break
		}
		if tableSepRe.MatchString(line) {
			separator = line
			continue
		}
		if header == "" {
			header = line
		} else {
			rows = append(rows, line)
		}
	}
	if header == "" || len(rows) == 0 {
		return nil, false
	}

	prefix := strings.TrimSpace(strings.Join(preLines, "\n"))
	suffix := strings.TrimSpace(strings.Join(lines[tableEnd:], "\n"))

	overhead := s.counter.Count(prefix) + s.counter.Count(header) +
		s.counter.Count(separator) + annotationReserve
	groups := s.groupByBudget(rows, overhead, s.opts.RowsPerChunk)

	s.log.Info("splitting table", "rows", len(rows), "sub_blocks", len(groups))

	blocks := make([]subBlock, 0, len(groups)+1)
	offset := 0
	for i, g := range groups {
		var parts []string
		if prefix != "" {
			parts = append(parts, prefix)
		}
		if len(groups) > 1 {
			parts = append(parts, fmt.Sprintf("**[Part %d: Rows %d-%d of %d total]**",
				i+1, offset+1, offset+len(g), len(rows)))
		}
		table := []string{header}
		if separator != "" {
			table = append(table, separator)
		}
		table = append(table, g...)
		parts = append(parts, strings.Join(table, "\n"))
		blocks = append(blocks, s.newSubBlock(strings.Join(parts, "\n\n")))
		offset += len(g)
	}
	if suffix != "" {
		blk := s.newSubBlock(suffix)
		blk.prose = true
		blocks = append(blocks, blk)
	}
	return blocks, true
}

// splitList splits a long flat list. Items keep their continuation lines;
// nothing is split mid-item and no item is duplicated or dropped.
func (s *structuredSplitter) splitList(text string) ([]subBlock, bool) {
	lines := strings.Split(text, "\n")

	listStart := -1
	var preLines []string
	for i, line := range lines {
		if listItemRe.MatchString(line) || orderedItemRe.MatchString(line) {
			listStart = i
			break
		}
		preLines = append(preLines, line)
	}
	if listStart < 0 {
		return nil, false
	}

	var items []string
	var cur []string
	for i := listStart; i < len(lines); i++ {
		line := lines[i]
		if listItemRe.MatchString(line) || orderedItemRe.MatchString(line) {
			if len(cur) > 0 {
				items = append(items, strings.Join(cur, "\n"))
			}
			cur = []string{line}
		} else if len(cur) > 0 {
			cur = append(cur, line)
		}
	}
	if len(cur) > 0 {
		items = append(items, strings.Join(cur, "\n"))
	}
	if len(items) == 0 {
		return nil, false
	}

	prefix := strings.TrimSpace(strings.Join(preLines, "\n"))
	overhead := s.counter.Count(prefix) + annotationReserve
	groups := s.groupByBudget(items, overhead, s.opts.ItemsPerChunk)

	s.log.Info("splitting list", "items", len(items), "sub_blocks", len(groups))

	return s.renderGroups(groups, prefix, "Items", len(items)), true
}

// splitNestedBulletTable splits nested bullet tables group-wise: a main
// bullet with its indented sub-bullets is one irreducible group.
func (s *structuredSplitter) splitNestedBulletTable(text string) ([]subBlock, bool) {
	lines := strings.Split(text, "\n")

	nestedStart := -1
	var preLines []string
	for i, line := range lines {
		if mainBulletRe.MatchString(line) && followedByNested(lines, i) {
			nestedStart = i
			break
		}
		preLines = append(preLines, line)
	}
	if nestedStart < 0 {
		return nil, false
	}

	var groups []string
	var cur []string
scan:
	for i := nestedStart; i < len(lines); i++ {
		line := lines[i]
		switch {
		case mainBulletRe.MatchString(line):
			if len(cur) > 0 {
				groups = append(groups, strings.Join(cur, "\n"))
			}
			cur = []string{line}
		case len(cur) > 0 && (indentedRe.MatchString(line) || strings.TrimSpace(line) == ""):
			cur = append(cur, line)
		case len(cur) > 0 && strings.TrimSpace(line) != "":
			// End of the nested structure.
			break scan
		}
	}
	if len(cur) > 0 {
		groups = append(groups, strings.Join(cur, "\n"))
	}
	if len(groups) == 0 {
		return nil, false
	}

	prefix := strings.TrimSpace(strings.Join(preLines, "\n"))
	overhead := s.counter.Count(prefix) + annotationReserve
	grouped := s.groupByBudget(groups, overhead, s.opts.GroupsPerChunk)

	s.log.Info("splitting nested bullet table", "groups", len(groups), "sub_blocks", len(grouped))

	return s.renderGroups(grouped, prefix, "Groups", len(groups)), true
}

func followedByNested(lines []string, i int) bool {
	for j := i + 1; j < len(lines) && j < i+5; j++ {
		if nestedBulletRe.MatchString(lines[j]) {
			return true
		}
		if strings.TrimSpace(lines[j]) != "" && !indentedRe.MatchString(lines[j]) {
			return false
		}
	}
	return false
}

// groupByBudget accumulates units into groups under the effective token
// budget, closing a group when the next unit would exceed it or the unit cap
// is reached. A unit that alone exceeds the budget becomes its own group.
func (s *structuredSplitter) groupByBudget(units []string, overhead, unitCap int) [][]string {
	effective := s.max - overhead
	if effective < 1 {
		effective = 1
	}

	var groups [][]string
	var cur []string
	curTokens := 0

	flush := func() {
		if len(cur) > 0 {
			groups = append(groups, cur)
			cur = nil
			curTokens = 0
		}
	}

	for _, u := range units {
		ut := s.counter.Count(u)
		switch {
		case ut > effective:
			flush()
			groups = append(groups, []string{u})
		case (curTokens+ut > effective || len(cur) >= unitCap) && len(cur) > 0:
			flush()
			cur = []string{u}
			curTokens = ut
		default:
			cur = append(cur, u)
			curTokens += ut
		}
	}
	flush()
	return groups
}

// renderGroups assembles annotated sub-blocks for list-like structures.
func (s *structuredSplitter) renderGroups(groups [][]string, prefix, unit string, total int) []subBlock {
	blocks := make([]subBlock, 0, len(groups))
	offset := 0
	for i, g := range groups {
		var parts []string
		if prefix != "" {
			parts = append(parts, prefix)
		}
		if len(groups) > 1 {
			parts = append(parts, fmt.Sprintf("**[Part %d: %s %d-%d of %d total]**",
				i+1, unit, offset+1, offset+len(g), total))
		}
		parts = append(parts, strings.Join(g, "\n"))
		blocks = append(blocks, s.newSubBlock(strings.Join(parts, "\n\n")))
		offset += len(g)
	}
	return blocks
}

func (s *structuredSplitter) newSubBlock(text string) subBlock {
	tokens := s.counter.Count(text)
	return subBlock{text: text, tokens: tokens, oversized: tokens > s.max}
}
