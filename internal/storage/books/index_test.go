package books

import (
	"errors"
	"testing"
)

func TestEncodeIndex(t *testing.T) {
	b := &Book{
		Title: "My Guide",
		Slug:  "my-guide",
		Pages: []*Page{
			{Node: Node{Title: "My Guide", Slug: "index", Format: Markdown, Base: "index"}},
			{
				Node:  Node{Title: "Setup", Slug: "setup", Format: HTML, Base: "setup"},
				Pages: []*SubPage{{Node: Node{Title: "Install", Slug: "setup-install", Format: Markdown, Base: "setup-install"}}},
			},
		},
	}
	raw, err := encodeIndex(b)
	if err != nil {
		t.Fatal(err)
	}
	want := `{
  "title": "My Guide",
  "slug": "my-guide",
  "pages": [
    {
      "title": "My Guide",
      "slug": "index",
      "fileName": "index.md",
      "pages": null
    },
    {
      "title": "Setup",
      "slug": "setup",
      "fileName": "setup.html",
      "pages": [
        {
          "title": "Install",
          "slug": "setup-install",
          "fileName": "setup-install.md",
          "pages": null
        }
      ]
    }
  ]
}
`
	if string(raw) != want {
		t.Errorf("encodeIndex() =\n%s\nwant\n%s", raw, want)
	}

	got, err := decodeIndex(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != b.Title || len(got.Pages) != 2 || got.Pages[1].Pages[0].FileName() != "setup-install.md" {
		t.Errorf("decodeIndex() = %+v", got)
	}
}

func TestEncodeIndexEmpty(t *testing.T) {
	raw, err := encodeIndex(&Book{Title: "T", Slug: "t"})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"title\": \"T\",\n  \"slug\": \"t\",\n  \"pages\": []\n}\n"
	if string(raw) != want {
		t.Errorf("encodeIndex() = %q, want %q", raw, want)
	}
}

func TestIndexSchema(t *testing.T) {
	s := IndexSchema()
	for _, name := range []string{"title", "slug", "pages"} {
		if _, ok := s.Properties.Get(name); !ok {
			t.Errorf("schema has no %q property", name)
		}
	}
	for _, name := range s.Required {
		if name == "pages" {
			t.Error("pages must be optional")
		}
	}
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"minimal", `{"title": "T", "slug": "t", "pages": []}`, true},
		{"null pages", `{"title": "T", "slug": "t", "pages": null}`, true},
		{"extra field", `{"title": "T", "slug": "t", "pages": [], "author": "x"}`, true},
		{"no slug", `{"title": "T", "pages": []}`, false},
		{"page without file", `{"title": "T", "slug": "t", "pages": [{"title": "A", "slug": "a"}]}`, false},
		{"pages not a list", `{"title": "T", "slug": "t", "pages": {}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeIndex([]byte(tt.doc))
			if tt.valid && err != nil {
				t.Errorf("decodeIndex() error = %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("decodeIndex() succeeded, want error")
			}
		})
	}
}

func TestSplitFileName(t *testing.T) {
	tests := []struct {
		in     string
		base   string
		format Format
		ok     bool
	}{
		{"index.md", "index", Markdown, true},
		{"setup-install.html", "setup-install", HTML, true},
		{"a.b.md", "a.b", Markdown, true},
		{"index.json", "", "", false},
		{"index", "", "", false},
		{"dir/index.md", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, f, err := splitFileName(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("splitFileName(%q) error = %v", tt.in, err)
			}
			if base != tt.base || f != tt.format {
				t.Errorf("splitFileName(%q) = %q, %q", tt.in, base, f)
			}
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &Error{Kind: KindNotFound, Msg: "sub-page not found", Book: "guide", Page: "setup", SubPage: "setup-x", Err: cause}
	if got, want := err.Error(), "sub-page not found (book guide, page setup, sub-page setup-x): disk on fire"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("errors.Is(err, ErrConflict) = true")
	}
	if KindOf(cause) != 0 {
		t.Error("KindOf(plain error) != 0")
	}
	if got := validationError("title required").Error(); got != "title required" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	if _, err := ParseFormat("txt"); err == nil {
		t.Error("ParseFormat(txt) succeeded")
	}
	if f, err := ParseFormat("html"); err != nil || f != HTML {
		t.Errorf("ParseFormat(html) = %q, %v", f, err)
	}
	if Markdown.Other() != HTML || HTML.Other() != Markdown {
		t.Error("Other() is not an involution")
	}
	if HTML.ContentType() != "text/html; charset=utf-8" {
		t.Errorf("ContentType() = %q", HTML.ContentType())
	}
}
