// Package markup turns assistant answers (markdown) into the HTML fragment the
// widget drops into its results container.
package markup

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Render converts markdown to HTML. Raw HTML in the input is skipped.
func Render(md string) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}

	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank | html.SkipHTML
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return strings.TrimSpace(string(markdown.Render(doc, renderer)))
}
