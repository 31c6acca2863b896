// Converts HTML fragments back to markdown by walking the goquery DOM.

package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToMarkdown converts an HTML fragment or document to markdown. Elements
// without a markdown equivalent are reduced to their text. Markdown input is
// returned as a single paragraph per block of text, so the function is total.
func HTMLToMarkdown(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	var c converter
	c.blocks(doc.Find("body").First())
	if len(c.out) == 0 {
		return "", nil
	}
	return strings.Join(c.out, "\n\n") + "\n", nil
}

var spaces = regexp.MustCompile(`\s+`)

// converter accumulates markdown blocks in document order.
type converter struct {
	out []string
}

func (c *converter) add(block string) {
	if block = strings.TrimSpace(block); block != "" {
		c.out = append(c.out, block)
	}
}

// blocks converts the children of s. Runs of inline content between block
// elements become paragraphs.
func (c *converter) blocks(s *goquery.Selection) {
	var run strings.Builder
	flush := func() {
		c.add(run.String())
		run.Reset()
	}
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		name := goquery.NodeName(n)
		if !isBlock(name) {
			run.WriteString(inline(n))
			return
		}
		flush()
		c.block(name, n)
	})
	flush()
}

func (c *converter) block(name string, n *goquery.Selection) {
	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(name[1:])
		c.add(strings.Repeat("#", level) + " " + strings.TrimSpace(inlineChildren(n)))
	case "p":
		c.add(inlineChildren(n))
	case "hr":
		c.add("---")
	case "pre":
		c.add(fence(n))
	case "blockquote":
		var sub converter
		sub.blocks(n)
		c.add(prefixLines(strings.Join(sub.out, "\n\n"), "> ", "> "))
	case "ul", "ol":
		c.add(list(n, name == "ol"))
	case "table":
		c.add(table(n))
	case "head", "script", "style", "template":
	default:
		c.blocks(n)
	}
}

func isBlock(name string) bool {
	switch name {
	case "address", "article", "aside", "blockquote", "body", "details", "dialog", "dd", "div", "dl", "dt",
		"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"head", "header", "hr", "html", "li", "main", "nav", "ol", "p", "pre", "script", "section",
		"style", "table", "template", "ul":
		return true
	}
	return false
}

func inlineChildren(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, n *goquery.Selection) {
		b.WriteString(inline(n))
	})
	return b.String()
}

func inline(n *goquery.Selection) string {
	switch goquery.NodeName(n) {
	case "#text":
		return spaces.ReplaceAllString(n.Text(), " ")
	case "#comment":
		return ""
	case "strong", "b":
		return emphasis("**", inlineChildren(n))
	case "em", "i":
		return emphasis("_", inlineChildren(n))
	case "del", "s", "strike":
		return emphasis("~~", inlineChildren(n))
	case "code":
		return "`" + n.Text() + "`"
	case "br":
		return "  \n"
	case "a":
		text := inlineChildren(n)
		href, ok := n.Attr("href")
		if !ok || href == "" {
			return text
		}
		return "[" + strings.TrimSpace(text) + "](" + href + ")"
	case "img":
		src, _ := n.Attr("src")
		alt, _ := n.Attr("alt")
		return "![" + alt + "](" + src + ")"
	default:
		return inlineChildren(n)
	}
}

// emphasis wraps the trimmed text in marker, keeping the surrounding
// whitespace outside of the markers.
func emphasis(marker, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	lead := text[:strings.Index(text, trimmed)]
	trail := text[len(lead)+len(trimmed):]
	return lead + marker + trimmed + marker + trail
}

func fence(pre *goquery.Selection) string {
	lang := ""
	if class, ok := pre.Find("code").First().Attr("class"); ok {
		for c := range strings.FieldsSeq(class) {
			if l, found := strings.CutPrefix(c, "language-"); found {
				lang = l
				break
			}
		}
	}
	return "```" + lang + "\n" + strings.TrimRight(pre.Text(), "\n") + "\n```"
}

func list(s *goquery.Selection, ordered bool) string {
	var items []string
	i := 0
	s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		i++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(i) + ". "
		}
		var sub converter
		sub.blocks(li)
		items = append(items, prefixLines(strings.Join(sub.out, "\n"), marker, strings.Repeat(" ", len(marker))))
	})
	return strings.Join(items, "\n")
}

func table(s *goquery.Selection) string {
	var rows []string
	s.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.ReplaceAll(strings.TrimSpace(inlineChildren(cell)), "|", `\|`))
		})
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			rows = append(rows, "|"+strings.Repeat(" --- |", len(cells)))
		}
	})
	return strings.Join(rows, "\n")
}

// prefixLines prefixes the first line with first and the others with rest.
func prefixLines(text, first, rest string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		if l == "" {
			lines[i] = strings.TrimRight(p, " ")
		} else {
			lines[i] = p + l
		}
	}
	return strings.Join(lines, "\n")
}
