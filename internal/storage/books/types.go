// Defines the in-memory book tree.

package books

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Format is the on-disk representation of a node's content.
type Format string

const (
	// Markdown content lives in a ".md" file.
	Markdown Format = "md"
	// HTML content lives in a ".html" file.
	HTML Format = "html"
)

// ParseFormat parses a page type as sent by clients.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Markdown, HTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Other returns the format a switch converts to.
func (f Format) Other() Format {
	if f == HTML {
		return Markdown
	}
	return HTML
}

// ContentType returns the MIME type of content stored in this format.
func (f Format) ContentType() string {
	if f == HTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// String returns the user facing name.
func (f Format) String() string {
	if f == HTML {
		return "HTML"
	}
	return "Markdown"
}

// fileName joins a base name and a format.
func fileName(base string, f Format) string {
	return base + "." + string(f)
}

// splitFileName is the inverse of fileName.
func splitFileName(name string) (string, Format, error) {
	ext := filepath.Ext(name)
	if ext == "" || strings.ContainsAny(name, `/\`) {
		return "", "", fmt.Errorf("invalid file name %q", name)
	}
	f, err := ParseFormat(ext[1:])
	if err != nil {
		return "", "", err
	}
	return strings.TrimSuffix(name, ext), f, nil
}

// Node is the part shared by pages and sub-pages.
type Node struct {
	Title  string
	Slug   string
	Format Format
	// Base is the file name without extension. It equals Slug for every node
	// the engine creates.
	Base string
}

// FileName returns the content file name inside the book directory.
func (n *Node) FileName() string {
	return fileName(n.Base, n.Format)
}

// SubPage is a depth 2 leaf.
type SubPage struct {
	Node
}

// Page is a depth 1 node. Pages is nil when the page has no sub-pages.
type Page struct {
	Node
	Pages []*SubPage
}

// FindSubPage returns the sub-page with the given slug, or nil.
func (p *Page) FindSubPage(slug string) *SubPage {
	for _, s := range p.Pages {
		if s.Slug == slug {
			return s
		}
	}
	return nil
}

// removeSubPage removes the sub-page and normalizes an empty list to nil.
func (p *Page) removeSubPage(slug string) {
	p.Pages = slices.DeleteFunc(p.Pages, func(s *SubPage) bool { return s.Slug == slug })
	if len(p.Pages) == 0 {
		p.Pages = nil
	}
}

// Book is a whole tree as described by its index file.
type Book struct {
	Title string
	Slug  string
	Pages []*Page
}

// FindPage returns the page with the given slug, or nil.
func (b *Book) FindPage(slug string) *Page {
	for _, p := range b.Pages {
		if p.Slug == slug {
			return p
		}
	}
	return nil
}

func (b *Book) removePage(slug string) {
	b.Pages = slices.DeleteFunc(b.Pages, func(p *Page) bool { return p.Slug == slug })
}

// FileNames returns every content file referenced by the tree, pages first
// followed by their sub-pages.
func (b *Book) FileNames() []string {
	var out []string
	for _, p := range b.Pages {
		out = append(out, p.FileName())
		for _, s := range p.Pages {
			out = append(out, s.FileName())
		}
	}
	return out
}

// Summary is the listing projection of a book.
type Summary struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Content is a node's content file.
type Content struct {
	FileName string
	Format   Format
	Body     string
}

// Result is the confirmation returned by mutations.
type Result struct {
	Message string
}

// Conversion is the confirmation returned by a format switch.
type Conversion struct {
	Message string
	From    Format
	To      Format
}

// Direction returns "HTML to Markdown" or "Markdown to HTML".
func (c *Conversion) Direction() string {
	return c.From.String() + " to " + c.To.String()
}
