// Renders markdown to HTML with goldmark.

package codec

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// Raw HTML inside markdown is passed through.
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// MarkdownToHTML renders CommonMark (plus GitHub tables, strikethrough and
// task lists) to an HTML fragment. The empty string renders to the empty
// string.
func MarkdownToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}
