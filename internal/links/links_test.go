package links

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	doc := []byte(`# Guides

* [Enhancement](https://garmoth.com/guides/enhancement)
* [Nodes](https://blackdesertfoundry.com/node-guide/ "Node Guide")
* ![screenshot](https://example.com/image.png)
* [Enhancement again](https://garmoth.com/guides/enhancement)
* [Relative](/local/page)
* [Wiki](https://www.playblackdesert.com/wiki/detail?id=10)
`)

	want := []string{
		"https://garmoth.com/guides/enhancement",
		"https://blackdesertfoundry.com/node-guide/",
		"https://www.playblackdesert.com/wiki/detail?id=10",
	}
	got := Extract(doc)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("extract mismatch:\nwant %v\ngot  %v", want, got)
	}
}

func TestExtractEmpty(t *testing.T) {
	if got := Extract([]byte("no links here, just text")); len(got) != 0 {
		t.Fatalf("expected no links, got %v", got)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.md")
	if err := os.WriteFile(path, []byte("[g](https://garmoth.com/a)\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := FromFile(path)
	if err != nil {
		t.Fatalf("from file: %v", err)
	}
	if len(got) != 1 || got[0] != "https://garmoth.com/a" {
		t.Fatalf("unexpected links %v", got)
	}

	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
