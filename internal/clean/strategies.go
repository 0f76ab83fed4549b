package clean

import (
	"fmt"
	"regexp"
	"strings"
)

// playblackdesert.com wiki pages wrap the article in a fixed header (title,
// Request Edit, edit date, share buttons) and close with social and policy
// link clusters.
var (
	pbdHeaderRe = regexp.MustCompile(
		`(?m)^###\s+(?P<title>.+?)\s+Request Edit\s*\r?\n+` +
			`\s*Last Edited on\s*:\s*.+?Share\s*\r?\n+` +
			`\s*Copy URL Facebook X\s*\r?\n*`)

	pbdCutMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^_*The content of the game guide may differ from the actual game content`),
		regexp.MustCompile(`(?i)^###\s*Request Edit\b`),
		regexp.MustCompile(`(?i)^Close Request to Update\b`),
		regexp.MustCompile(`(?i)^Send Request to Update\b`),
		regexp.MustCompile(`(?i)^\[!\[Image.*?PEGI`),
	}

	pbdSocialLineRe = regexp.MustCompile(`(?i)^\s*(Share|Copy URL|Facebook|Instagram|Twitch|Twitter|Youtube|Discord|TikTok)\b`)
	pbdLinkLineRe   = regexp.MustCompile(`^\[[^\]]*\]\(https?:`)
)

func cleanPlayBlackDesert(content string) string {
	loc := pbdHeaderRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return strings.TrimSpace(content)
	}
	title := content[loc[2]:loc[3]]
	body := content[loc[1]:]

	lines := strings.Split(body, "\n")

	// Everything from the earliest footer marker onward goes.
	cut := len(lines)
	for i, line := range lines {
		for _, re := range pbdCutMarkers {
			if re.MatchString(line) {
				cut = i
				break
			}
		}
		if cut != len(lines) {
			break
		}
	}
	lines = lines[:cut]

	// Social/share clusters (2+ consecutive lines) and link list clusters
	// (3+ consecutive markdown links) can appear mid-page too.
	lines = dropClusters(lines, pbdSocialLineRe, 2)
	lines = dropClusters(lines, pbdLinkLineRe, 3)

	body = collapseBlankLines(strings.Join(lines, "\n"))
	return fmt.Sprintf("### %s\n\n%s", title, strings.TrimSpace(body))
}

// dropClusters removes runs of minRun or more consecutive lines matching re.
func dropClusters(lines []string, re *regexp.Regexp, minRun int) []string {
	var out []string
	i := 0
	for i < len(lines) {
		if !re.MatchString(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}
		j := i
		for j < len(lines) && re.MatchString(lines[j]) {
			j++
		}
		if j-i < minRun {
			out = append(out, lines[i:j]...)
		}
		i = j
	}
	return out
}

// blackdesertfoundry.com pages carry site navigation, breadcrumbs, quick
// links, author footers, and a trailing disclaimer around the guide body.
var (
	foundryTitleRe         = regexp.MustCompile(`(?m)^Title:\s*(.+?)\s*-\s*BDFoundry\s*$`)
	foundryTitleFallbackRe = regexp.MustCompile(`(?m)^(.+?)\s*-\s*BDFoundry\s*$`)
	foundryTitleLineRe     = regexp.MustCompile(`(?im)^Title:.*?-\s*BDFoundry\s*$`)
	foundryDescriptionRe   = regexp.MustCompile(`(?im)^Description:.*$`)
	foundrySkipRe          = regexp.MustCompile(`(?im)^Skip to content\s*$`)
	foundryByLineRe        = regexp.MustCompile(`(?im)^\s*\[By\s+[^\]]+\]\(.*?\).*$`)
	foundryCheckTheseRe    = regexp.MustCompile(`(?im)^\s*###\s+Check\s+these\s+out\s+before\s+you\s+go!\s*$`)

	foundryIntroRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Introduction\s*\r?\n[-=]{3,}`),
		regexp.MustCompile(`(?im)^##\s+Introduction\s*$`),
		regexp.MustCompile(`(?im)^###\s+Introduction\s*$`),
		regexp.MustCompile(`(?im)^####\s+Introduction\s*$`),
	}
)

const disclaimerMarker = "The content of the game guide may differ from the actual game content"

func cleanFoundry(content string) string {
	if content == "" {
		return ""
	}

	title := "Unknown"
	if m := foundryTitleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	} else if m := foundryTitleFallbackRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	cleaned := content
	if idx := firstMatchStart(cleaned, foundryIntroRes); idx >= 0 {
		cleaned = cleaned[idx:]
	} else {
		cleaned = removeFirst(cleaned, foundryTitleLineRe)
		cleaned = removeFirst(cleaned, foundryDescriptionRe)
		cleaned = removeFirst(cleaned, foundrySkipRe)
	}

	cleaned = dropFoundryHeaderBlocks(cleaned)

	if idx := strings.Index(cleaned, disclaimerMarker); idx >= 0 {
		cleaned = cleaned[:idx]
	}

	cleaned = dropFoundryNavBlocks(cleaned)

	// Author footers end the useful content.
	cut := -1
	if loc := foundryByLineRe.FindStringIndex(cleaned); loc != nil {
		cut = loc[0]
	}
	if loc := foundryCheckTheseRe.FindStringIndex(cleaned); loc != nil && (cut < 0 || loc[0] < cut) {
		cut = loc[0]
	}
	if cut >= 0 {
		cleaned = cleaned[:cut]
	}
	cleaned = foundryByLineRe.ReplaceAllString(cleaned, "")

	return fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(cleaned))
}

// dropFoundryHeaderBlocks removes "Last Updated" and breadcrumb blocks: from
// the marker line up to the next heading or Introduction line.
func dropFoundryHeaderBlocks(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	skipping := false
	for _, line := range lines {
		if skipping {
			if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "Introduction") {
				skipping = false
			} else {
				continue
			}
		}
		if strings.HasPrefix(line, "**Last Updated:**") || strings.HasPrefix(line, "You are here:") {
			skipping = true
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

var (
	foundryQuickLinksRe = regexp.MustCompile(`(?i)^\s*####\s*Quick\s+Links\s*$`)
	foundryNavHideRe    = regexp.MustCompile(`(?i)^\s*\*\*Navigation\*\*\s*Hide\s*$`)
)

// dropFoundryNavBlocks removes Quick Links and Navigation blocks: from the
// marker line up to the next section heading, author line, or Introduction.
func dropFoundryNavBlocks(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	skipping := false
	for _, line := range lines {
		if skipping {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "##") || strings.HasPrefix(trimmed, "[By") ||
				strings.HasPrefix(trimmed, "Introduction") {
				skipping = false
			} else {
				continue
			}
		}
		if foundryQuickLinksRe.MatchString(line) || foundryNavHideRe.MatchString(line) {
			skipping = true
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// garmoth.com guides start with a numbered Introduction section and end with
// a "Let us know!" feedback footer.
var (
	garmothTitleRe  = regexp.MustCompile(`(?m)^(?P<title>.+?)\s*\|\s*Guide\s*\|\s*Garmoth\.com\s*-\s*BDO\s*Companion\s*$`)
	garmothAuthorRe = regexp.MustCompile(`(?im)^!\[.*?\]\(.*?\)\s*By\s+.*$`)
	garmothFooterRe = regexp.MustCompile(`(?im)^.*?[*_]*\s*Let\s+us\s+know!\s*[*_]*.*$`)

	garmothIntroRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^1\.\s+Introduction\s*$`),
		regexp.MustCompile(`(?im)^##\s+Introduction\s*$`),
		regexp.MustCompile(`(?im)^###\s+Introduction\s*$`),
		regexp.MustCompile(`(?im)^####\s+Introduction\s*$`),
	}
)

func cleanGarmoth(content string) string {
	if content == "" {
		return ""
	}

	title := "Unknown"
	if m := garmothTitleRe.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}
	cleaned := strings.TrimSpace(content)

	if idx := firstMatchStart(cleaned, garmothIntroRes); idx >= 0 {
		cleaned = cleaned[idx:]
	} else if loc := garmothAuthorRe.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[loc[1]:]
	}

	if loc := garmothFooterRe.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[0]]
	}

	return fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(cleaned))
}

// firstMatchStart returns the start offset of the first pattern that matches,
// trying patterns in order, or -1.
func firstMatchStart(content string, res []*regexp.Regexp) int {
	for _, re := range res {
		if loc := re.FindStringIndex(content); loc != nil {
			return loc[0]
		}
	}
	return -1
}

func removeFirst(content string, re *regexp.Regexp) string {
	if loc := re.FindStringIndex(content); loc != nil {
		return content[:loc[0]] + content[loc[1]:]
	}
	return content
}
