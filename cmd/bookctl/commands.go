package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/maruel/mdbooks/internal/storage/books"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errCheckFailed = errors.New("index and directory disagree")

// cli holds the flags shared by every command.
type cli struct {
	root string
}

func (c *cli) engine() (*books.Engine, error) {
	return books.NewEngine(c.root, nil)
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Manage books stored as markdown and HTML files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.root, "root", "./docs", "books root directory")
	root.AddCommand(c.booksCmd(), c.pagesCmd(), c.treeCmd(), c.checkCmd())
	return root
}

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "books", Short: "Create, list, show and delete books"}

	var pageType string
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a book with its root page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			res, err := e.CreateBook(cmd.Context(), args[0], pageType)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}
	create.Flags().StringVarP(&pageType, "type", "t", "md", "root page type (md or html)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			all, err := e.ListBooks(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, b := range all {
				if _, err := fmt.Fprintf(w, "%s\t%s\n", b.Slug, b.Title); err != nil {
					return err
				}
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <book> <page> [sub-page]",
		Short: "Print the content of a page or sub-page",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			var content *books.Content
			if len(args) == 3 {
				content, err = e.GetSubPageContent(cmd.Context(), args[0], args[1], args[2])
			} else {
				content, err = e.GetPageContent(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), content.Body)
			return err
		},
	}

	del := &cobra.Command{
		Use:   "delete <book>",
		Short: "Delete a book and all its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			res, err := e.DeleteBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}
	cmd.AddCommand(create, list, show, del)
	return cmd
}

func (c *cli) pagesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "pages", Short: "Create, edit, delete and convert pages"}
	var sub bool
	cmd.PersistentFlags().BoolVar(&sub, "sub", false, "operate on a sub-page; the last argument is the sub-page slug or title")

	var pageType string
	create := &cobra.Command{
		Use:   "create <book> [page] <title>",
		Short: "Append a page, or a sub-page with --sub",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sub != (len(args) == 3) {
				return errors.New("use <book> <title> for pages and --sub <book> <page> <title> for sub-pages")
			}
			e, err := c.engine()
			if err != nil {
				return err
			}
			var res *books.Result
			if sub {
				res, err = e.CreateSubPage(cmd.Context(), args[0], args[1], args[2], pageType)
			} else {
				res, err = e.CreatePage(cmd.Context(), args[0], args[1], pageType)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}
	create.Flags().StringVarP(&pageType, "type", "t", "md", "page type (md or html)")

	var file string
	edit := &cobra.Command{
		Use:   "edit <book> <page> [sub-page]",
		Short: "Replace the content of a page from --file or stdin",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSubArgs(sub, args); err != nil {
				return err
			}
			var raw []byte
			var err error
			if file == "" || file == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(file) //nolint:gosec // G304: the path is the operator's own argument
			}
			if err != nil {
				return err
			}
			e, err := c.engine()
			if err != nil {
				return err
			}
			var res *books.Result
			if sub {
				res, err = e.EditSubPage(cmd.Context(), args[0], args[1], args[2], string(raw))
			} else {
				res, err = e.EditPage(cmd.Context(), args[0], args[1], string(raw))
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}
	edit.Flags().StringVarP(&file, "file", "f", "", "file to read the content from (default stdin)")

	del := &cobra.Command{
		Use:   "delete <book> <page> [sub-page]",
		Short: "Delete a page with its sub-pages, or a sub-page with --sub",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSubArgs(sub, args); err != nil {
				return err
			}
			e, err := c.engine()
			if err != nil {
				return err
			}
			var res *books.Result
			if sub {
				res, err = e.DeleteSubPage(cmd.Context(), args[0], args[1], args[2])
			} else {
				res, err = e.DeletePage(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return err
		},
	}

	sw := &cobra.Command{
		Use:   "switch <book> <page> [sub-page]",
		Short: "Convert a page between markdown and HTML",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSubArgs(sub, args); err != nil {
				return err
			}
			e, err := c.engine()
			if err != nil {
				return err
			}
			var conv *books.Conversion
			if sub {
				conv, err = e.SwitchSubPageFormat(cmd.Context(), args[0], args[1], args[2])
			} else {
				conv, err = e.SwitchPageFormat(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), conv.Message)
			return err
		},
	}
	cmd.AddCommand(create, edit, del, sw)
	return cmd
}

func checkSubArgs(sub bool, args []string) error {
	if sub != (len(args) == 3) {
		return errors.New("use <book> <page> for pages and --sub <book> <page> <sub-page> for sub-pages")
	}
	return nil
}

// treeNode is the printable form of a book, page or sub-page.
type treeNode struct {
	Title    string     `json:"title" yaml:"title"`
	Slug     string     `json:"slug" yaml:"slug"`
	FileName string     `json:"fileName,omitempty" yaml:"fileName,omitempty"`
	Pages    []treeNode `json:"pages" yaml:"pages,omitempty"`
}

func toTree(b *books.Book) treeNode {
	t := treeNode{Title: b.Title, Slug: b.Slug, Pages: make([]treeNode, 0, len(b.Pages))}
	for _, p := range b.Pages {
		pn := treeNode{Title: p.Title, Slug: p.Slug, FileName: p.FileName()}
		for _, s := range p.Pages {
			pn.Pages = append(pn.Pages, treeNode{Title: s.Title, Slug: s.Slug, FileName: s.FileName()})
		}
		t.Pages = append(t.Pages, pn)
	}
	return t
}

func (c *cli) treeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tree <book>",
		Short: "Print the page tree of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			b, err := e.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), output, toTree(b))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml or json)")
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "check <book>",
		Short: "Validate the index and compare it with the files on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.engine()
			if err != nil {
				return err
			}
			r, err := e.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := encode(cmd.OutOrStdout(), output, r); err != nil {
				return err
			}
			if !r.OK() {
				return errCheckFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (yaml or json)")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
