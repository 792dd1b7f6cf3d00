// Package search serves the incremental catalog search endpoint. Responses
// from the backend can arrive out of order; a per-session loader tags every
// fetch with an increasing id and drops results a newer fetch has already
// superseded.
package search

import (
	"sync"

	"github.com/malikovshahriyor929/sahifa-x/internal/normalize"
)

// Loader holds one client session's accumulated results.
type Loader struct {
	mu     sync.Mutex
	latest uint64
	books  []normalize.Book
}

// Begin registers a new fetch and returns its id. Any in-flight fetch with a
// lower id is stale from this point on.
func (l *Loader) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest++
	return l.latest
}

// Apply merges a fetch result into the session. Replace drops the accumulated
// list first (a fresh query or first page). Returns the visible list and
// whether the result was applied; stale results leave the list untouched.
func (l *Loader) Apply(id uint64, incoming []normalize.Book, replace bool) ([]normalize.Book, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id != l.latest {
		return l.snapshot(), false
	}
	if replace {
		l.books = incoming
	} else {
		l.books = normalize.MergeBooks(l.books, incoming)
	}
	return l.snapshot(), true
}

// Snapshot returns the currently visible list.
func (l *Loader) Snapshot() []normalize.Book {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Loader) snapshot() []normalize.Book {
	out := make([]normalize.Book, len(l.books))
	copy(out, l.books)
	return out
}
