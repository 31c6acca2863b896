// Defines the error kinds returned by the book store.

package books

import (
	"errors"
	"strings"
)

// Kind classifies a store failure.
type Kind int

const (
	// KindValidation is bad or missing input.
	KindValidation Kind = iota + 1
	// KindConflict is a slug collision or an already existing book.
	KindConflict
	// KindNotFound is a missing book, page, sub-page or content file.
	KindNotFound
	// KindCorrupt is an unreadable or malformed index file.
	KindCorrupt
)

// Sentinel errors matching each Kind with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrCorrupt    = errors.New("corrupt index")
)

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	case KindCorrupt:
		return ErrCorrupt
	}
	return nil
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	case KindCorrupt:
		return "corrupt"
	}
	return "unknown"
}

// Error is a classified store failure with the slugs it is about.
type Error struct {
	Kind    Kind
	Msg     string
	Book    string
	Page    string
	SubPage string
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	var where []string
	if e.Book != "" {
		where = append(where, "book "+e.Book)
	}
	if e.Page != "" {
		where = append(where, "page "+e.Page)
	}
	if e.SubPage != "" {
		where = append(where, "sub-page "+e.SubPage)
	}
	if len(where) != 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(where, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf returns the Kind of err, or 0 when err is not a store error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func conflictError(msg, book string) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Book: book}
}

func notFoundError(msg, book string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg, Book: book}
}

func corruptError(book string, err error) *Error {
	return &Error{Kind: KindCorrupt, Msg: "corrupt index", Book: book, Err: err}
}
