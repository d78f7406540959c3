// Package memory is an in-process document store used for demo mode and
// tests. Transactions hold a store-wide lock, so they are serializable, and
// writes are undone when the transaction function fails.
package memory

import (
	"context"
	"sort"
	"sync"

	"blackyoga/pkg/db"
)

type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]any
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]any)}
}

type txKey struct{}

type journal struct {
	store *Store
	undo  []func()
}

var _ db.TransactionManager = (*Store)(nil)
var _ db.Pinger = (*Store)(nil)

func (s *Store) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	j := &journal{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, j)); err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	j, ok := ctx.Value(txKey{}).(*journal)
	return ok && j.store == s
}

// acquire locks the store unless ctx already runs inside one of its
// transactions. The returned journal is nil outside a transaction.
func (s *Store) acquire(ctx context.Context) (*journal, func()) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok && j.store == s {
		return j, func() {}
	}
	s.mu.Lock()
	return nil, s.mu.Unlock
}

func (s *Store) collection(name string) map[string]any {
	c, ok := s.collections[name]
	if !ok {
		c = make(map[string]any)
		s.collections[name] = c
	}
	return c
}

// write stores doc under id and records how to revert it.
func (s *Store) write(j *journal, coll, id string, doc any, remove bool) {
	c := s.collection(coll)
	prev, existed := c[id]
	if remove {
		delete(c, id)
	} else {
		c[id] = doc
	}
	if j == nil {
		return
	}
	j.undo = append(j.undo, func() {
		if existed {
			c[id] = prev
		} else {
			delete(c, id)
		}
	})
}

func Get[T any](ctx context.Context, s *Store, coll, id string) (T, bool) {
	_, release := s.acquire(ctx)
	defer release()

	var zero T
	v, ok := s.collection(coll)[id]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// Insert stores doc only if id is free and reports whether it did.
func Insert[T any](ctx context.Context, s *Store, coll, id string, doc T) bool {
	j, release := s.acquire(ctx)
	defer release()

	if _, exists := s.collection(coll)[id]; exists {
		return false
	}
	s.write(j, coll, id, doc, false)
	return true
}

// Put stores doc under id, replacing any previous value.
func Put[T any](ctx context.Context, s *Store, coll, id string, doc T) {
	j, release := s.acquire(ctx)
	defer release()

	s.write(j, coll, id, doc, false)
}

// Delete removes id and reports whether it existed.
func Delete(ctx context.Context, s *Store, coll, id string) bool {
	j, release := s.acquire(ctx)
	defer release()

	if _, exists := s.collection(coll)[id]; !exists {
		return false
	}
	s.write(j, coll, id, nil, true)
	return true
}

// Filter returns the documents of coll accepted by keep, ordered by less.
func Filter[T any](ctx context.Context, s *Store, coll string, keep func(T) bool, less func(a, b T) bool) []T {
	_, release := s.acquire(ctx)
	defer release()

	var out []T
	for _, v := range s.collection(coll) {
		doc := v.(T)
		if keep == nil || keep(doc) {
			out = append(out, doc)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, k int) bool { return less(out[i], out[k]) })
	}
	return out
}

// Page applies offset and limit to docs.
func Page[T any](docs []T, limit int, offset int64) []T {
	if offset >= int64(len(docs)) {
		return []T{}
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
