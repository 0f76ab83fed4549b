package generate

import (
	"reflect"
	"testing"

	"github.com/tidwall/gjson"
)

const validDialogue = `{"conversations": [{"role": "user", "content": "How do I enhance?"}, {"role": "assistant", "content": "Use black stones."}]}`

func TestCleanResponseStripsFences(t *testing.T) {
	in := "```json\n" + validDialogue + "\n```"
	if got := CleanResponse(in); got != validDialogue {
		t.Fatalf("fences not stripped: %q", got)
	}

	in = "```\n" + validDialogue + "\n```"
	if got := CleanResponse(in); got != validDialogue {
		t.Fatalf("bare fences not stripped: %q", got)
	}

	if got := CleanResponse("  " + validDialogue + "  "); got != validDialogue {
		t.Fatalf("whitespace not trimmed: %q", got)
	}
}

func TestSanitizeEscapes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`text with \* invalid escape`, `text with * invalid escape`},
		{`bracket \[link\]`, `bracket [link]`},
		{`kept \n and \" and \\`, `kept \n and \" and \\`},
		{`unicode é stays`, `unicode é stays`},
		{`broken \uZZ goes`, `broken uZZ goes`},
		{`short \u12`, `short u12`},
		{`trailing backslash \`, `trailing backslash \`},
	}
	for _, tc := range cases {
		if got := sanitizeEscapes(tc.in); got != tc.want {
			t.Fatalf("sanitize %q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseDialoguesArray(t *testing.T) {
	text := `[` + validDialogue + `, {"conversations": [{"role": "user", "content": "only one turn"}]}]`
	got := ParseDialogues(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 valid dialogue, got %d", len(got))
	}
	if gjson.Get(got[0], "conversations.0.content").String() != "How do I enhance?" {
		t.Fatalf("unexpected dialogue %q", got[0])
	}
}

func TestParseDialoguesJSONL(t *testing.T) {
	text := validDialogue + "\n" +
		"not json at all\n" +
		`{"conversations": "not an array"}` + "\n" +
		`{"conversations": [{"role": "user", "content": "q"}, {"content": "missing role"}]}` + "\n" +
		validDialogue
	got := ParseDialogues(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 valid dialogues, got %d: %v", len(got), got)
	}
	if !reflect.DeepEqual(got[0], got[1]) {
		t.Fatalf("expected both valid lines to survive")
	}
}

func TestParseDialoguesEmpty(t *testing.T) {
	if got := ParseDialogues("the model refused to answer"); len(got) != 0 {
		t.Fatalf("expected no dialogues, got %v", got)
	}
}
