// Package links reads the links file: a markdown document whose hyperlinks
// name the guide pages to process.
package links

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FromFile extracts the hyperlink destinations from a markdown file.
func FromFile(path string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read links file %s: %w", path, err)
	}
	return Extract(src), nil
}

// Extract walks the markdown AST and collects unique http(s) link
// destinations in document order. Image links are not links to guides and
// are skipped, as are bare autolinked URLs.
func Extract(src []byte) []string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var urls []string
	seen := map[string]bool{}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if !strings.HasPrefix(dest, "http://") && !strings.HasPrefix(dest, "https://") {
			return ast.WalkContinue, nil
		}
		if !seen[dest] {
			seen[dest] = true
			urls = append(urls, dest)
		}
		return ast.WalkContinue, nil
	})

	return urls
}
