package generate

import (
	"strings"

	"github.com/tidwall/gjson"
)

// CleanResponse strips markdown code fences and repairs the invalid JSON
// escapes smaller models tend to emit (\* or \[ inside strings).
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimSpace(text[len("```json"):])
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimSpace(text[len("```"):])
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-3])
	}
	return sanitizeEscapes(text)
}

// sanitizeEscapes drops the backslash of any escape sequence JSON does not
// define. A \u escape keeps its backslash only when four hex digits follow.
func sanitizeEscapes(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '\\' || i+1 >= len(text) {
			b.WriteByte(ch)
			continue
		}
		switch next := text[i+1]; next {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			b.WriteByte(ch)
		case 'u':
			if hasHex4(text[i+2:]) {
				b.WriteByte(ch)
			}
		default:
			// Invalid escape: drop the backslash, keep the character.
		}
	}
	return b.String()
}

func hasHex4(s string) bool {
	if len(s) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// ParseDialogues extracts valid dialogue objects from model output. The model
// may answer with a JSON array or with JSONL; both are accepted. Invalid
// entries are skipped, not fatal.
func ParseDialogues(text string) []string {
	var valid []string

	if root := gjson.Parse(text); root.IsArray() {
		for _, item := range root.Array() {
			if isValidDialogue(item) {
				valid = append(valid, item.Raw)
			}
		}
		return valid
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		if !gjson.Valid(line) {
			continue
		}
		if item := gjson.Parse(line); isValidDialogue(item) {
			valid = append(valid, line)
		}
	}
	return valid
}

// isValidDialogue requires a conversations array of at least two turns, each
// an object carrying role and content.
func isValidDialogue(item gjson.Result) bool {
	if !item.IsObject() {
		return false
	}
	convs := item.Get("conversations")
	if !convs.IsArray() {
		return false
	}
	turns := convs.Array()
	if len(turns) < 2 {
		return false
	}
	for _, turn := range turns {
		if !turn.IsObject() {
			return false
		}
		if !turn.Get("role").Exists() || !turn.Get("content").Exists() {
			return false
		}
	}
	return true
}
