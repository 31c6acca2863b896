// Handlers for book, page and sub-page operations.

package handlers

import (
	"context"

	"github.com/maruel/mdbooks/internal/server/dto"
	"github.com/maruel/mdbooks/internal/storage/books"
)

// BookHandler exposes the book engine over HTTP.
type BookHandler struct {
	engine *books.Engine
}

// NewBookHandler creates a new book handler.
func NewBookHandler(engine *books.Engine) *BookHandler {
	return &BookHandler{engine: engine}
}

func message(res *books.Result, err error) (*dto.MessageResponse, error) {
	if err != nil {
		return nil, toAPIError(err)
	}
	return &dto.MessageResponse{Message: res.Message}, nil
}

func conversion(c *books.Conversion, err error) (*dto.SwitchResponse, error) {
	if err != nil {
		return nil, toAPIError(err)
	}
	return &dto.SwitchResponse{
		Message:   c.Message,
		From:      string(c.From),
		To:        string(c.To),
		Direction: c.Direction(),
	}, nil
}

func content(c *books.Content, err error) (*dto.ContentResponse, error) {
	if err != nil {
		return nil, toAPIError(err)
	}
	return &dto.ContentResponse{FileName: c.FileName, Format: string(c.Format), Content: c.Body}, nil
}

// CreateBook creates a book with its root page.
func (h *BookHandler) CreateBook(ctx context.Context, req *dto.CreateBookRequest) (*dto.MessageResponse, error) {
	return message(h.engine.CreateBook(ctx, req.Title, req.IndexPageType))
}

// ListBooks lists every book.
func (h *BookHandler) ListBooks(ctx context.Context, req *dto.ListBooksRequest) (*dto.ListBooksResponse, error) {
	list, err := h.engine.ListBooks(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	out := &dto.ListBooksResponse{Books: make([]dto.BookSummary, 0, len(list))}
	for _, s := range list {
		out.Books = append(out.Books, dto.BookSummary{Slug: s.Slug, Title: s.Title})
	}
	return out, nil
}

// GetBook returns the tree of a book.
func (h *BookHandler) GetBook(ctx context.Context, req *dto.BookRequest) (*dto.BookResponse, error) {
	b, err := h.engine.GetBook(ctx, req.BookSlug)
	if err != nil {
		return nil, toAPIError(err)
	}
	return bookToResponse(b), nil
}

// GetPage returns the content of a page.
func (h *BookHandler) GetPage(ctx context.Context, req *dto.PageRequest) (*dto.ContentResponse, error) {
	return content(h.engine.GetPageContent(ctx, req.BookSlug, req.PageSlug))
}

// GetSubPage returns the content of a sub-page.
func (h *BookHandler) GetSubPage(ctx context.Context, req *dto.SubPageRequest) (*dto.ContentResponse, error) {
	return content(h.engine.GetSubPageContent(ctx, req.BookSlug, req.PageSlug, req.SubPageSlug))
}

// CreatePage appends a page to a book.
func (h *BookHandler) CreatePage(ctx context.Context, req *dto.CreatePageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.CreatePage(ctx, req.BookSlug, req.Title, req.PageType))
}

// CreateSubPage appends a sub-page to a page.
func (h *BookHandler) CreateSubPage(ctx context.Context, req *dto.CreateSubPageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.CreateSubPage(ctx, req.BookSlug, req.PageSlug, req.Title, req.PageType))
}

// EditPage replaces the content of a page.
func (h *BookHandler) EditPage(ctx context.Context, req *dto.EditPageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.EditPage(ctx, req.BookSlug, req.PageSlug, *req.Content))
}

// EditSubPage replaces the content of a sub-page.
func (h *BookHandler) EditSubPage(ctx context.Context, req *dto.EditSubPageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.EditSubPage(ctx, req.BookSlug, req.PageSlug, req.SubPageSlug, *req.Content))
}

// SwitchPage converts a page between Markdown and HTML.
func (h *BookHandler) SwitchPage(ctx context.Context, req *dto.PageRequest) (*dto.SwitchResponse, error) {
	return conversion(h.engine.SwitchPageFormat(ctx, req.BookSlug, req.PageSlug))
}

// SwitchSubPage converts a sub-page between Markdown and HTML.
func (h *BookHandler) SwitchSubPage(ctx context.Context, req *dto.SubPageRequest) (*dto.SwitchResponse, error) {
	return conversion(h.engine.SwitchSubPageFormat(ctx, req.BookSlug, req.PageSlug, req.SubPageSlug))
}

// DeleteBook removes a book and all its files.
func (h *BookHandler) DeleteBook(ctx context.Context, req *dto.BookRequest) (*dto.MessageResponse, error) {
	return message(h.engine.DeleteBook(ctx, req.BookSlug))
}

// DeletePage removes a page and its sub-pages.
func (h *BookHandler) DeletePage(ctx context.Context, req *dto.PageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.DeletePage(ctx, req.BookSlug, req.PageSlug))
}

// DeleteSubPage removes a sub-page.
func (h *BookHandler) DeleteSubPage(ctx context.Context, req *dto.SubPageRequest) (*dto.MessageResponse, error) {
	return message(h.engine.DeleteSubPage(ctx, req.BookSlug, req.PageSlug, req.SubPageSlug))
}

// bookToResponse renders b in the index file shape: the book's pages are
// always a list, a node without children has null pages.
func bookToResponse(b *books.Book) *dto.BookResponse {
	out := &dto.BookResponse{Title: b.Title, Slug: b.Slug, Pages: make([]dto.PageResponse, 0, len(b.Pages))}
	for _, p := range b.Pages {
		pr := dto.PageResponse{Title: p.Title, Slug: p.Slug, FileName: p.FileName()}
		for _, s := range p.Pages {
			pr.Pages = append(pr.Pages, dto.PageResponse{Title: s.Title, Slug: s.Slug, FileName: s.FileName()})
		}
		out.Pages = append(out.Pages, pr)
	}
	return out
}
