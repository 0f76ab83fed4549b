package scrape

import (
	"regexp"
	"strings"
)

var (
	lastEditedRe  = regexp.MustCompile(`(?i)Last Edited on\s*:\s*(.*?)\s+Share`)
	lastUpdatedRe = regexp.MustCompile(`(?im)\*\*Last Updated:\*\*\s*(.*?)(?:\s*\||\s*$)`)
	updatedRe     = regexp.MustCompile(`(?im)Updated:\s*(.*?)(?:\s*\||\s*$)`)
)

// ExtractDate pulls the publication or last-update date out of fetched
// content. Each domain labels it differently; an empty string means no date
// was found.
func ExtractDate(content, url string) string {
	var re *regexp.Regexp
	switch {
	case strings.Contains(url, "playblackdesert.com"):
		re = lastEditedRe
	case strings.Contains(url, "blackdesertfoundry.com"):
		re = lastUpdatedRe
	case strings.Contains(url, "garmoth.com"):
		re = updatedRe
	default:
		return ""
	}

	if m := re.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
