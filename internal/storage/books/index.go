// Loads and saves the per-book index file.

package books

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// indexBook is the on-disk shape of index.json.
type indexBook struct {
	Title string      `json:"title"`
	Slug  string      `json:"slug"`
	Pages []indexPage `json:"pages"`
}

type indexPage struct {
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	FileName string         `json:"fileName"`
	Pages    []indexSubPage `json:"pages"`
}

// indexSubPage always serializes "pages" as null.
type indexSubPage struct {
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	FileName string `json:"fileName"`
	Pages    []any  `json:"pages"`
}

// nodeStore reads and writes index files through a bookDir.
type nodeStore struct {
	dir *bookDir
}

// load reads the tree of book.
func (s *nodeStore) load(book string) (*Book, error) {
	raw, err := s.dir.readFile(book, indexFileName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundError("book not found", book)
		}
		return nil, err
	}
	b, err := decodeIndex(raw)
	if err != nil {
		return nil, corruptError(book, err)
	}
	// The directory name addresses the book, whatever the index claims.
	b.Slug = book
	return b, nil
}

// save atomically replaces the index of b. Callers invoke it only after the
// content files of the same operation were written.
func (s *nodeStore) save(b *Book) error {
	raw, err := encodeIndex(b)
	if err != nil {
		return err
	}
	return s.dir.writeFile(b.Slug, indexFileName, raw)
}

func decodeIndex(raw []byte) (*Book, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validateIndex(doc); err != nil {
		return nil, err
	}
	var ib indexBook
	if err := json.Unmarshal(raw, &ib); err != nil {
		return nil, fmt.Errorf("invalid index: %w", err)
	}
	b := &Book{Title: ib.Title, Slug: ib.Slug, Pages: make([]*Page, 0, len(ib.Pages))}
	for _, ip := range ib.Pages {
		base, f, err := splitFileName(ip.FileName)
		if err != nil {
			return nil, fmt.Errorf("page %q: %w", ip.Slug, err)
		}
		p := &Page{Node: Node{Title: ip.Title, Slug: ip.Slug, Format: f, Base: base}}
		for _, is := range ip.Pages {
			if len(is.Pages) != 0 {
				return nil, fmt.Errorf("sub-page %q has children", is.Slug)
			}
			base, f, err := splitFileName(is.FileName)
			if err != nil {
				return nil, fmt.Errorf("sub-page %q: %w", is.Slug, err)
			}
			p.Pages = append(p.Pages, &SubPage{Node: Node{Title: is.Title, Slug: is.Slug, Format: f, Base: base}})
		}
		b.Pages = append(b.Pages, p)
	}
	return b, nil
}

func encodeIndex(b *Book) ([]byte, error) {
	ib := indexBook{Title: b.Title, Slug: b.Slug, Pages: make([]indexPage, 0, len(b.Pages))}
	for _, p := range b.Pages {
		ip := indexPage{Title: p.Title, Slug: p.Slug, FileName: p.FileName()}
		for _, s := range p.Pages {
			ip.Pages = append(ip.Pages, indexSubPage{Title: s.Title, Slug: s.Slug, FileName: s.FileName()})
		}
		ib.Pages = append(ib.Pages, ip)
	}
	raw, err := json.MarshalIndent(&ib, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return append(raw, '\n'), nil
}
