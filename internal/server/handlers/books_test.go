package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/maruel/mdbooks/internal/server/dto"
	"github.com/maruel/mdbooks/internal/storage/books"
)

func newTestEngine(t *testing.T) *books.Engine {
	t.Helper()
	e, err := books.NewEngine(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func ptr[T any](v T) *T { return &v }

func TestBookHandler(t *testing.T) {
	ctx := context.Background()
	h := NewBookHandler(newTestEngine(t))

	res, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "My Guide", IndexPageType: "md"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Book [My Guide] was created." {
		t.Errorf("Expected creation message, got %q", res.Message)
	}
	if _, err := h.CreatePage(ctx, &dto.CreatePageRequest{BookSlug: "my-guide", Title: "Install", PageType: "md"}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.CreateSubPage(ctx, &dto.CreateSubPageRequest{BookSlug: "my-guide", PageSlug: "install", Title: "Linux", PageType: "html"}); err != nil {
		t.Fatal(err)
	}

	t.Run("ListBooks", func(t *testing.T) {
		list, err := h.ListBooks(ctx, &dto.ListBooksRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if len(list.Books) != 1 || list.Books[0] != (dto.BookSummary{Slug: "my-guide", Title: "My Guide"}) {
			t.Errorf("ListBooks() = %+v", list.Books)
		}
	})

	t.Run("GetBook", func(t *testing.T) {
		b, err := h.GetBook(ctx, &dto.BookRequest{BookSlug: "my-guide"})
		if err != nil {
			t.Fatal(err)
		}
		if len(b.Pages) != 2 {
			t.Fatalf("Expected 2 pages, got %d", len(b.Pages))
		}
		if b.Pages[0].Pages != nil {
			t.Errorf("root page should have null pages, got %+v", b.Pages[0].Pages)
		}
		sub := b.Pages[1].Pages
		if len(sub) != 1 || sub[0].Slug != "install-linux" || sub[0].FileName != "install-linux.html" {
			t.Errorf("sub-pages = %+v", sub)
		}
	})

	t.Run("Edit and read", func(t *testing.T) {
		res, err := h.EditPage(ctx, &dto.EditPageRequest{BookSlug: "my-guide", PageSlug: "install", Content: ptr("# Install\n\nRun it.")})
		if err != nil {
			t.Fatal(err)
		}
		if res.Message != "Page [Install] inside Book [My Guide] was edited." {
			t.Errorf("EditPage() message = %q", res.Message)
		}
		c, err := h.GetPage(ctx, &dto.PageRequest{BookSlug: "my-guide", PageSlug: "install"})
		if err != nil {
			t.Fatal(err)
		}
		if c.Content != "# Install\n\nRun it." || c.Format != "md" || c.FileName != "install.md" {
			t.Errorf("GetPage() = %+v", c)
		}
		if _, err := h.EditSubPage(ctx, &dto.EditSubPageRequest{BookSlug: "my-guide", PageSlug: "install", SubPageSlug: "install-linux", Content: ptr("<p>apt</p>")}); err != nil {
			t.Fatal(err)
		}
		c, err = h.GetSubPage(ctx, &dto.SubPageRequest{BookSlug: "my-guide", PageSlug: "install", SubPageSlug: "install-linux"})
		if err != nil {
			t.Fatal(err)
		}
		if c.Content != "<p>apt</p>" {
			t.Errorf("GetSubPage() content = %q", c.Content)
		}
	})

	t.Run("Switch", func(t *testing.T) {
		sw, err := h.SwitchSubPage(ctx, &dto.SubPageRequest{BookSlug: "my-guide", PageSlug: "install", SubPageSlug: "install-linux"})
		if err != nil {
			t.Fatal(err)
		}
		if sw.From != "html" || sw.To != "md" || sw.Direction != "HTML to Markdown" {
			t.Errorf("SwitchSubPage() = %+v", sw)
		}
		sw, err = h.SwitchPage(ctx, &dto.PageRequest{BookSlug: "my-guide", PageSlug: "install"})
		if err != nil {
			t.Fatal(err)
		}
		if sw.Direction != "Markdown to HTML" {
			t.Errorf("SwitchPage() direction = %q", sw.Direction)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if _, err := h.DeleteSubPage(ctx, &dto.SubPageRequest{BookSlug: "my-guide", PageSlug: "install", SubPageSlug: "install-linux"}); err != nil {
			t.Fatal(err)
		}
		if _, err := h.DeletePage(ctx, &dto.PageRequest{BookSlug: "my-guide", PageSlug: "install"}); err != nil {
			t.Fatal(err)
		}
		res, err := h.DeleteBook(ctx, &dto.BookRequest{BookSlug: "my-guide"})
		if err != nil {
			t.Fatal(err)
		}
		if res.Message != "Book [My Guide] was deleted." {
			t.Errorf("DeleteBook() message = %q", res.Message)
		}
	})
}

func TestBookHandlerErrors(t *testing.T) {
	ctx := context.Background()
	h := NewBookHandler(newTestEngine(t))
	if _, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "Guide", IndexPageType: "md"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		call   func() error
		status int
		code   dto.ErrorCode
	}{
		{"bad type", func() error {
			_, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "X", IndexPageType: "txt"})
			return err
		}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"duplicate book", func() error {
			_, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "Guide", IndexPageType: "html"})
			return err
		}, http.StatusConflict, dto.ErrorCodeConflict},
		{"missing book", func() error {
			_, err := h.GetBook(ctx, &dto.BookRequest{BookSlug: "nope"})
			return err
		}, http.StatusNotFound, dto.ErrorCodeNotFound},
		{"missing page", func() error {
			_, err := h.GetPage(ctx, &dto.PageRequest{BookSlug: "guide", PageSlug: "nope"})
			return err
		}, http.StatusNotFound, dto.ErrorCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var ews dto.ErrorWithStatus
			if !errors.As(err, &ews) {
				t.Fatalf("Expected ErrorWithStatus, got %v", err)
			}
			if ews.StatusCode() != tt.status || ews.Code() != tt.code {
				t.Errorf("got %d %s, want %d %s", ews.StatusCode(), ews.Code(), tt.status, tt.code)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := toAPIError(&books.Error{Kind: books.KindCorrupt, Msg: "corrupt index", Book: "b", Err: cause})
	var apiErr *dto.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *dto.APIError, got %T", err)
	}
	if apiErr.Code() != dto.ErrorCodeCorruptIndex || apiErr.StatusCode() != http.StatusInternalServerError {
		t.Errorf("got %s %d", apiErr.Code(), apiErr.StatusCode())
	}
	if apiErr.Details()["book"] != "b" {
		t.Errorf("details = %v", apiErr.Details())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be preserved")
	}

	err = toAPIError(&books.Error{Kind: books.KindNotFound, Msg: "sub-page not found", Book: "b", Page: "p", SubPage: "p-s"})
	errors.As(err, &apiErr)
	if d := apiErr.Details(); d["page"] != "p" || d["subpage"] != "p-s" {
		t.Errorf("details = %v", d)
	}

	err = toAPIError(context.Canceled)
	errors.As(err, &apiErr)
	if apiErr.Code() != dto.ErrorCodeInternal {
		t.Errorf("Expected internal error, got %s", apiErr.Code())
	}
	if toAPIError(nil) != nil {
		t.Error("toAPIError(nil) should be nil")
	}
}
