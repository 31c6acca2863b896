package codec

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Guide", "my-guide"},
		{"Setup", "setup"},
		{"Install", "install"},
		{"  Press Release  ", "press-release"},
		{"Résumé", "resume"},
		{"Rsum", "rsum"},
		{"Café Guide", "cafe-guide"},
		{"Ünïcödé", "unicode"},
		{"C++ & Go", "c-and-go"},
		{"Part 1/2", "part-12"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, err := Slugify(tt.title)
			if err != nil {
				t.Fatalf("Slugify(%q) error = %v", tt.title, err)
			}
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
	t.Run("deterministic", func(t *testing.T) {
		a, _ := Slugify("My Guide")
		b, _ := Slugify("My Guide")
		if a != b {
			t.Errorf("Slugify is not deterministic: %q != %q", a, b)
		}
	})
	for _, title := range []string{"   ", "?!", "..."} {
		t.Run("empty "+title, func(t *testing.T) {
			if got, err := Slugify(title); err == nil {
				t.Errorf("Slugify(%q) = %q, want error", title, got)
			}
		})
	}
}

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Install", "<h1>Install</h1>\n"},
		{"empty", "", ""},
		{"emphasis", "**b** and _i_", "<p><strong>b</strong> and <em>i</em></p>\n"},
		{"list", "- a\n- b\n", "<ul>\n<li>a</li>\n<li>b</li>\n</ul>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarkdownToHTML(tt.in)
			if err != nil {
				t.Fatalf("MarkdownToHTML() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MarkdownToHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "<h1>Install</h1>\n", "# Install\n"},
		{"sections", "<h2>A</h2><p>B</p>", "## A\n\nB\n"},
		{"empty", "", ""},
		{"inline", "<p>Hello <strong>bold</strong> and <em>it</em></p>", "Hello **bold** and _it_\n"},
		{"link", `<p><a href="https://example.com">site</a></p>`, "[site](https://example.com)\n"},
		{"image", `<p><img src="a.png" alt="A"></p>`, "![A](a.png)\n"},
		{"unordered", "<ul><li>a</li><li>b</li></ul>", "- a\n- b\n"},
		{"ordered", "<ol><li>one</li><li>two</li></ol>", "1. one\n2. two\n"},
		{"code", "<pre><code class=\"language-go\">x := 1\n</code></pre>", "```go\nx := 1\n```\n"},
		{"inline code", "<p>run <code>make</code></p>", "run `make`\n"},
		{"quote", "<blockquote><p>q</p></blockquote>", "> q\n"},
		{"rule", "<hr>", "---\n"},
		{"already markdown", "# Install", "# Install\n"},
		{"whitespace", "<p>a\n   b</p>", "a b\n"},
		{"table", "<table><tr><th>k</th><th>v</th></tr><tr><td>1</td><td>2</td></tr></table>", "| k | v |\n| --- | --- |\n| 1 | 2 |\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToMarkdown(tt.in)
			if err != nil {
				t.Fatalf("HTMLToMarkdown() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HTMLToMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, src := range []string{"# Install\n", "## A\n\nB\n", "- a\n- b\n"} {
		h, err := MarkdownToHTML(src)
		if err != nil {
			t.Fatal(err)
		}
		got, err := HTMLToMarkdown(h)
		if err != nil {
			t.Fatal(err)
		}
		if got != src {
			t.Errorf("round trip of %q = %q", src, got)
		}
	}
}
