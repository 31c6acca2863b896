// Maps books to directories and performs content file I/O.

package books

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// indexFileName is the per-book index file.
const indexFileName = "index.json"

// bookDir owns the directory layout under the books root. It does no
// locking; the engine sequences calls.
type bookDir struct {
	root string
	// removeFile deletes a content file. Nil means os.Remove.
	removeFile func(name string) error
}

// validName reports whether name can be used as a single path element.
// Dot files are reserved for temporary files.
func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func (d *bookDir) path(book string) (string, error) {
	if !validName(book) {
		return "", &Error{Kind: KindValidation, Msg: "invalid book slug", Book: book}
	}
	return filepath.Join(d.root, book), nil
}

func (d *bookDir) filePath(book, name string) (string, error) {
	dir, err := d.path(book)
	if err != nil {
		return "", err
	}
	if !validName(name) {
		return "", &Error{Kind: KindValidation, Msg: "invalid file name " + name, Book: book}
	}
	return filepath.Join(dir, name), nil
}

// create makes an empty book directory.
func (d *bookDir) create(book string) error {
	dir, err := d.path(book)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for book directories
		if errors.Is(err, fs.ErrExist) {
			return conflictError("book already exists", book)
		}
		return fmt.Errorf("failed to create book directory: %w", err)
	}
	return nil
}

// exists reports whether the book directory exists.
func (d *bookDir) exists(book string) (bool, error) {
	dir, err := d.path(book)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat book directory: %w", err)
	}
	return fi.IsDir(), nil
}

// writeFile atomically replaces name with data.
func (d *bookDir) writeFile(book, name string, data []byte) error {
	p, err := d.filePath(book, name)
	if err != nil {
		return err
	}
	return writeAtomic(p, data)
}

// readFile returns the content of name, failing with KindNotFound when it
// is missing.
func (d *bookDir) readFile(book, name string) ([]byte, error) {
	p, err := d.filePath(book, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // G304: name is a validated single path element
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Kind: KindNotFound, Msg: "content file " + name + " not found", Book: book, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// fileExists reports whether name is present in the book directory.
func (d *bookDir) fileExists(book, name string) (bool, error) {
	p, err := d.filePath(book, name)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return true, nil
}

// deleteFile removes name. A missing file is not an error so an interrupted
// deletion can be retried.
func (d *bookDir) deleteFile(book, name string) error {
	p, err := d.filePath(book, name)
	if err != nil {
		return err
	}
	rm := os.Remove
	if d.removeFile != nil {
		rm = d.removeFile
	}
	if err := rm(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// remove deletes the book directory and everything in it.
func (d *bookDir) remove(book string) error {
	dir, err := d.path(book)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete book directory: %w", err)
	}
	return nil
}

// list returns the names of the directories under the root, sorted.
func (d *bookDir) list() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read books root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && validName(e.Name()) {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// contentFiles returns the .md and .html files present in the book
// directory, sorted.
func (d *bookDir) contentFiles(book string) ([]string, error) {
	dir, err := d.path(book)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFoundError("book not found", book)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read book directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !validName(e.Name()) {
			continue
		}
		if _, _, err := splitFileName(e.Name()); err == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new content.
func writeAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		return errors.Join(fmt.Errorf("failed to write %s: %w", name, err), f.Close(), os.Remove(tmp))
	}
	if err := f.Sync(); err != nil {
		return errors.Join(fmt.Errorf("failed to sync %s: %w", name, err), f.Close(), os.Remove(tmp))
	}
	if err := f.Close(); err != nil {
		return errors.Join(fmt.Errorf("failed to close %s: %w", name, err), os.Remove(tmp))
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // G302: content files are world readable
		return errors.Join(fmt.Errorf("failed to chmod %s: %w", name, err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("failed to rename %s: %w", name, err), os.Remove(tmp))
	}
	return nil
}
