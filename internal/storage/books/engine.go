// Package books stores books as directories of markdown and HTML files
// described by a per-book index.json tree, and implements every mutation on
// that tree.
//
// A book directory looks like:
//
//	<root>/<book-slug>/index.json
//	<root>/<book-slug>/index.md
//	<root>/<book-slug>/<page-slug>.html
//	<root>/<book-slug>/<page-slug>-<sub-page-slug>.md
//
// Every mutation of a book runs under that book's lock. Content files are
// written before the index so a crash leaves at worst an orphaned file, never
// an index entry pointing at a file that was not written.
package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/maruel/mdbooks/internal/codec"
)

// rootPageSlug is the slug and base name of the page created with a book.
const rootPageSlug = "index"

// Options overrides the text functions used by an Engine. Nil fields use the
// codec package.
type Options struct {
	Slugify        func(title string) (string, error)
	MarkdownToHTML func(src string) (string, error)
	HTMLToMarkdown func(src string) (string, error)
}

// Engine implements the book operations on a books root directory.
type Engine struct {
	dir   *bookDir
	store *nodeStore
	opts  Options
	locks [lockStripes]sync.RWMutex
}

// NewEngine returns an Engine rooted at root, creating the directory if
// needed.
func NewEngine(root string, opts *Options) (*Engine, error) {
	if err := os.MkdirAll(root, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for the books root
		return nil, fmt.Errorf("failed to create books root: %w", err)
	}
	e := &Engine{
		dir: &bookDir{root: root},
		opts: Options{
			Slugify:        codec.Slugify,
			MarkdownToHTML: codec.MarkdownToHTML,
			HTMLToMarkdown: codec.HTMLToMarkdown,
		},
	}
	if opts != nil {
		if opts.Slugify != nil {
			e.opts.Slugify = opts.Slugify
		}
		if opts.MarkdownToHTML != nil {
			e.opts.MarkdownToHTML = opts.MarkdownToHTML
		}
		if opts.HTMLToMarkdown != nil {
			e.opts.HTMLToMarkdown = opts.HTMLToMarkdown
		}
	}
	e.store = &nodeStore{dir: e.dir}
	return e, nil
}

// Root returns the books root directory.
func (e *Engine) Root() string {
	return e.dir.root
}

var pageTypeRule = validation.Match(regexp.MustCompile(`^(html|md)$`)).Error("invalid page type")

// prepare validates creation input and derives the slug. It runs before any
// disk access.
func (e *Engine) prepare(title, pageType string) (string, string, Format, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, validation.Required.Error("title required")); err != nil {
		return "", "", "", validationError(err.Error())
	}
	if err := validation.Validate(pageType, validation.Required.Error("invalid page type"), pageTypeRule); err != nil {
		return "", "", "", validationError(err.Error())
	}
	slug, err := e.opts.Slugify(title)
	if err != nil {
		return "", "", "", &Error{Kind: KindValidation, Msg: "title has no usable characters", Err: err}
	}
	return title, slug, Format(pageType), nil
}

// initialContent is the content of a new node: a level one heading.
func (e *Engine) initialContent(title string, f Format) ([]byte, error) {
	src := "# " + title
	if f == HTML {
		out, err := e.opts.MarkdownToHTML(src)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
	return []byte(src), nil
}

// ensureFree fails with KindConflict when name is already on disk.
func (e *Engine) ensureFree(book, name string) error {
	found, err := e.dir.fileExists(book, name)
	if err != nil {
		return err
	}
	if found {
		return &Error{Kind: KindConflict, Msg: "file name " + name + " already in use", Book: book}
	}
	return nil
}

func pageNotFound(book, page string) error {
	return &Error{Kind: KindNotFound, Msg: "page not found", Book: book, Page: page}
}

func subPageNotFound(book, page, sub string) error {
	return &Error{Kind: KindNotFound, Msg: "sub-page not found", Book: book, Page: page, SubPage: sub}
}

// lookup resolves a page and optionally one of its sub-pages.
func lookup(b *Book, page, sub string) (*Page, *SubPage, error) {
	p := b.FindPage(page)
	if p == nil {
		return nil, nil, pageNotFound(b.Slug, page)
	}
	if sub == "" {
		return p, nil, nil
	}
	s := p.FindSubPage(sub)
	if s == nil {
		return nil, nil, subPageNotFound(b.Slug, page, sub)
	}
	return p, s, nil
}

// CreateBook creates a book with a single root page of the given type.
func (e *Engine) CreateBook(ctx context.Context, title, indexPageType string) (*Result, error) {
	title, slug, f, err := e.prepare(title, indexPageType)
	if err != nil {
		return nil, err
	}
	body, err := e.initialContent(title, f)
	if err != nil {
		return nil, err
	}
	err = e.mutate(ctx, slug, func() error {
		if err := e.dir.create(slug); err != nil {
			return err
		}
		root := &Page{Node: Node{Title: title, Slug: rootPageSlug, Format: f, Base: rootPageSlug}}
		b := &Book{Title: title, Slug: slug, Pages: []*Page{root}}
		if err := e.dir.writeFile(slug, root.FileName(), body); err != nil {
			return errors.Join(err, e.dir.remove(slug))
		}
		if err := e.store.save(b); err != nil {
			return errors.Join(err, e.dir.remove(slug))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Book created", "book", slug, "format", string(f))
	return &Result{Message: fmt.Sprintf("Book [%s] was created.", title)}, nil
}

// ListBooks returns every book under the root, sorted by slug. Directories
// without a readable index are skipped with a warning.
func (e *Engine) ListBooks(ctx context.Context) ([]Summary, error) {
	names, err := e.dir.list()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		var b *Book
		err := e.read(ctx, name, func() error {
			var err error
			b, err = e.store.load(name)
			return err
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.WarnContext(ctx, "Skipping book directory", "book", name, "err", err)
			continue
		}
		out = append(out, Summary{Slug: name, Title: b.Title})
	}
	return out, nil
}

// GetBook returns the tree of a book.
func (e *Engine) GetBook(ctx context.Context, book string) (*Book, error) {
	var b *Book
	err := e.read(ctx, book, func() error {
		var err error
		b, err = e.store.load(book)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetPageContent returns the content of a page.
func (e *Engine) GetPageContent(ctx context.Context, book, page string) (*Content, error) {
	return e.getContent(ctx, book, page, "")
}

// GetSubPageContent returns the content of a sub-page.
func (e *Engine) GetSubPageContent(ctx context.Context, book, page, sub string) (*Content, error) {
	if sub == "" {
		return nil, subPageNotFound(book, page, sub)
	}
	return e.getContent(ctx, book, page, sub)
}

func (e *Engine) getContent(ctx context.Context, book, page, sub string) (*Content, error) {
	var c *Content
	err := e.read(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, s, err := lookup(b, page, sub)
		if err != nil {
			return err
		}
		n := &p.Node
		if s != nil {
			n = &s.Node
		}
		raw, err := e.dir.readFile(book, n.FileName())
		if err != nil {
			return err
		}
		c = &Content{FileName: n.FileName(), Format: n.Format, Body: string(raw)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreatePage appends a page to a book.
func (e *Engine) CreatePage(ctx context.Context, book, title, pageType string) (*Result, error) {
	title, slug, f, err := e.prepare(title, pageType)
	if err != nil {
		return nil, err
	}
	body, err := e.initialContent(title, f)
	if err != nil {
		return nil, err
	}
	var msg string
	err = e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		if b.FindPage(slug) != nil {
			return &Error{Kind: KindConflict, Msg: "duplicate title", Book: book, Page: slug}
		}
		p := &Page{Node: Node{Title: title, Slug: slug, Format: f, Base: slug}}
		if err := e.ensureFree(book, p.FileName()); err != nil {
			return err
		}
		if err := e.dir.writeFile(book, p.FileName(), body); err != nil {
			return err
		}
		b.Pages = append(b.Pages, p)
		if err := e.store.save(b); err != nil {
			return errors.Join(err, e.dir.deleteFile(book, p.FileName()))
		}
		msg = fmt.Sprintf("New Page [%s] was created on Book [%s]", title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Page created", "book", book, "page", slug, "format", string(f))
	return &Result{Message: msg}, nil
}

// CreateSubPage appends a sub-page to a page. The sub-page slug and file name
// are prefixed with the page slug.
func (e *Engine) CreateSubPage(ctx context.Context, book, page, title, pageType string) (*Result, error) {
	title, own, f, err := e.prepare(title, pageType)
	if err != nil {
		return nil, err
	}
	body, err := e.initialContent(title, f)
	if err != nil {
		return nil, err
	}
	var msg, slug string
	err = e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, _, err := lookup(b, page, "")
		if err != nil {
			return err
		}
		slug = p.Slug + "-" + own
		if p.FindSubPage(slug) != nil {
			return &Error{Kind: KindConflict, Msg: "duplicate title", Book: book, Page: page, SubPage: slug}
		}
		s := &SubPage{Node: Node{Title: title, Slug: slug, Format: f, Base: slug}}
		if err := e.ensureFree(book, s.FileName()); err != nil {
			return err
		}
		if err := e.dir.writeFile(book, s.FileName(), body); err != nil {
			return err
		}
		p.Pages = append(p.Pages, s)
		if err := e.store.save(b); err != nil {
			return errors.Join(err, e.dir.deleteFile(book, s.FileName()))
		}
		msg = fmt.Sprintf("A Sub Page [%s] was created on Page [%s] inside Book [%s]", title, p.Title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Sub-page created", "book", book, "page", page, "subpage", slug, "format", string(f))
	return &Result{Message: msg}, nil
}

// EditPage replaces the content of a page verbatim. The index is unchanged.
func (e *Engine) EditPage(ctx context.Context, book, page, content string) (*Result, error) {
	var msg string
	err := e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, _, err := lookup(b, page, "")
		if err != nil {
			return err
		}
		if err := e.dir.writeFile(book, p.FileName(), []byte(content)); err != nil {
			return err
		}
		msg = fmt.Sprintf("Page [%s] inside Book [%s] was edited.", p.Title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Page edited", "book", book, "page", page, "bytes", len(content))
	return &Result{Message: msg}, nil
}

// EditSubPage replaces the content of a sub-page verbatim. The index is
// unchanged.
func (e *Engine) EditSubPage(ctx context.Context, book, page, sub, content string) (*Result, error) {
	var msg string
	err := e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, s, err := lookup(b, page, sub)
		if err != nil {
			return err
		}
		if s == nil {
			return subPageNotFound(book, page, sub)
		}
		if err := e.dir.writeFile(book, s.FileName(), []byte(content)); err != nil {
			return err
		}
		msg = fmt.Sprintf("Sub Page [%s] of Page [%s] inside Book [%s] was edited.", s.Title, p.Title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Sub-page edited", "book", book, "page", page, "subpage", sub, "bytes", len(content))
	return &Result{Message: msg}, nil
}

// DeletePage deletes a page, its sub-pages and their content files.
func (e *Engine) DeletePage(ctx context.Context, book, page string) (*Result, error) {
	var msg string
	err := e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, _, err := lookup(b, page, "")
		if err != nil {
			return err
		}
		for _, s := range p.Pages {
			if err := e.dir.deleteFile(book, s.FileName()); err != nil {
				return err
			}
		}
		if err := e.dir.deleteFile(book, p.FileName()); err != nil {
			return err
		}
		b.removePage(page)
		if err := e.store.save(b); err != nil {
			return err
		}
		msg = fmt.Sprintf("Page [%s] inside Book [%s] was deleted.", p.Title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Page deleted", "book", book, "page", page)
	return &Result{Message: msg}, nil
}

// DeleteSubPage deletes a sub-page and its content file.
func (e *Engine) DeleteSubPage(ctx context.Context, book, page, sub string) (*Result, error) {
	var msg string
	err := e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, s, err := lookup(b, page, sub)
		if err != nil {
			return err
		}
		if s == nil {
			return subPageNotFound(book, page, sub)
		}
		if err := e.dir.deleteFile(book, s.FileName()); err != nil {
			return err
		}
		p.removeSubPage(sub)
		if err := e.store.save(b); err != nil {
			return err
		}
		msg = fmt.Sprintf("Sub Page [%s] of Page [%s] inside Book [%s] was deleted.", s.Title, p.Title, b.Title)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Sub-page deleted", "book", book, "page", page, "subpage", sub)
	return &Result{Message: msg}, nil
}

// DeleteBook removes a book directory and everything in it. A book whose
// index is corrupt can still be deleted.
func (e *Engine) DeleteBook(ctx context.Context, book string) (*Result, error) {
	var title string
	err := e.mutate(ctx, book, func() error {
		found, err := e.dir.exists(book)
		if err != nil {
			return err
		}
		if !found {
			return notFoundError("book not found", book)
		}
		title = book
		if b, err := e.store.load(book); err == nil {
			title = b.Title
		}
		return e.dir.remove(book)
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Book deleted", "book", book)
	return &Result{Message: fmt.Sprintf("Book [%s] was deleted.", title)}, nil
}

// SwitchPageFormat converts a page between markdown and HTML.
func (e *Engine) SwitchPageFormat(ctx context.Context, book, page string) (*Conversion, error) {
	return e.switchFormat(ctx, book, page, "")
}

// SwitchSubPageFormat converts a sub-page between markdown and HTML.
func (e *Engine) SwitchSubPageFormat(ctx context.Context, book, page, sub string) (*Conversion, error) {
	if sub == "" {
		return nil, subPageNotFound(book, page, sub)
	}
	return e.switchFormat(ctx, book, page, sub)
}

func (e *Engine) switchFormat(ctx context.Context, book, page, sub string) (*Conversion, error) {
	var conv *Conversion
	err := e.mutate(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		p, s, err := lookup(b, page, sub)
		if err != nil {
			return err
		}
		n := &p.Node
		if s != nil {
			n = &s.Node
		}
		conv = &Conversion{From: n.Format, To: n.Format.Other()}
		if err := e.convert(ctx, b, n); err != nil {
			return err
		}
		if s != nil {
			conv.Message = fmt.Sprintf("Sub Page [%s] of Page [%s] inside Book [%s] was converted from %s.", s.Title, p.Title, b.Title, conv.Direction())
		} else {
			conv.Message = fmt.Sprintf("Page [%s] inside Book [%s] was converted from %s.", p.Title, b.Title, conv.Direction())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Format switched", "book", book, "page", page, "subpage", sub, "from", string(conv.From), "to", string(conv.To))
	return conv, nil
}

// convert transcodes the content file of n into the other format. The new
// file is written first, then the index, then the old file is removed. Once
// the index is saved the switch has happened: failing to remove the old file
// only leaves an orphan for Check to report.
func (e *Engine) convert(ctx context.Context, b *Book, n *Node) error {
	from, to := n.Format, n.Format.Other()
	oldName, newName := n.FileName(), fileName(n.Base, to)
	if err := e.ensureFree(b.Slug, newName); err != nil {
		return err
	}
	raw, err := e.dir.readFile(b.Slug, oldName)
	if err != nil {
		return err
	}
	var out string
	if to == HTML {
		out, err = e.opts.MarkdownToHTML(string(raw))
	} else {
		out, err = e.opts.HTMLToMarkdown(string(raw))
	}
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", oldName, err)
	}
	if err := e.dir.writeFile(b.Slug, newName, []byte(out)); err != nil {
		return err
	}
	n.Format = to
	if err := e.store.save(b); err != nil {
		n.Format = from
		return errors.Join(err, e.dir.deleteFile(b.Slug, newName))
	}
	if err := e.dir.deleteFile(b.Slug, oldName); err != nil {
		slog.WarnContext(ctx, "Failed to delete converted file", "book", b.Slug, "file", oldName, "err", err)
	}
	return nil
}

// Report is the result of an integrity check.
type Report struct {
	Book string `json:"book" yaml:"book"`
	// Missing lists files referenced by the index that are not on disk.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	// Orphans lists content files on disk that no node references.
	Orphans []string `json:"orphans,omitempty" yaml:"orphans,omitempty"`
}

// OK reports whether the index and the directory agree.
func (r *Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Orphans) == 0
}

// Check compares the index of a book with the files in its directory. It
// fails with KindCorrupt when the index itself is invalid. Nothing is
// modified.
func (e *Engine) Check(ctx context.Context, book string) (*Report, error) {
	r := &Report{Book: book}
	err := e.read(ctx, book, func() error {
		b, err := e.store.load(book)
		if err != nil {
			return err
		}
		onDisk, err := e.dir.contentFiles(book)
		if err != nil {
			return err
		}
		present := make(map[string]bool, len(onDisk))
		for _, name := range onDisk {
			present[name] = true
		}
		for _, name := range b.FileNames() {
			if present[name] {
				delete(present, name)
			} else {
				r.Missing = append(r.Missing, name)
			}
		}
		for _, name := range onDisk {
			if present[name] {
				r.Orphans = append(r.Orphans, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
