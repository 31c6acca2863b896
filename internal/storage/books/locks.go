// Serializes access to a book.

package books

import (
	"context"
	"sync"

	"github.com/zeebo/xxh3"
)

// lockStripes is the number of locks shared by all books. Two books may map
// to the same stripe; that only serializes them.
const lockStripes = 64

// bookLock returns the lock guarding book. The set of locks is fixed so
// requests for unknown slugs allocate nothing.
func (e *Engine) bookLock(book string) *sync.RWMutex {
	return &e.locks[xxh3.HashString(book)%lockStripes]
}

// mutate runs fn while holding the book's write lock. fn loads the index,
// performs its content file side effects and saves the index; no other
// mutation of the same book can interleave with it.
func (e *Engine) mutate(ctx context.Context, book string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := e.bookLock(book)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// read runs fn while holding the book's read lock.
func (e *Engine) read(ctx context.Context, book string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := e.bookLock(book)
	mu.RLock()
	defer mu.RUnlock()
	return fn()
}
