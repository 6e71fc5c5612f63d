// Package store holds the item collection in memory.
//
// All mutations go through a single mutex, so each one is applied atomically
// and in order. When a Persister is attached every write goes to it first and
// is committed to memory only if it succeeded.
package store

import (
	"context"
	"crypto/rand"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sieve/internal/errors"
	"github.com/hpungsan/sieve/internal/item"
)

// Persister is the durable backing for a Store.
type Persister interface {
	// Load returns every stored item, newest-created first.
	Load(ctx context.Context) ([]*item.Item, error)
	// Save inserts or replaces an item by id.
	Save(ctx context.Context, it *item.Item) error
	// Delete removes an item; absent ids are not an error.
	Delete(ctx context.Context, id string) error
}

// Store is the in-memory item collection.
type Store struct {
	mu      sync.RWMutex
	items   []*item.Item
	persist Persister
	entropy io.Reader
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty, memory-only store.
func New(opts ...Option) *Store {
	s := &Store{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open returns a store loaded from p that writes through to it.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := New(opts...)
	items, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	s.persist = p
	return s, nil
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func (s *Store) indexOf(id string) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context, it *item.Item) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, it); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Create captures a draft as a new inbox item at the head of the collection.
func (s *Store) Create(ctx context.Context, d item.Draft) (*item.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	typ := d.Type
	if typ == "" {
		typ = item.TypeTask
	}
	it := &item.Item{
		ID:        s.newID(),
		Type:      typ,
		Title:     strings.TrimSpace(d.Title),
		Body:      d.Body,
		Tags:      item.NormalizeTags(d.Tags),
		Source:    d.Source,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
		Revision:  1,
		Stage:     item.StageInbox,
		Certainty: d.Certainty,
	}
	if err := s.save(ctx, it); err != nil {
		return nil, err
	}
	s.items = append([]*item.Item{it}, s.items...)
	return it.Clone(), nil
}

// Update replaces the stored item with the same id wholesale. It reports
// false, without error, when the id is unknown. Identity and audit fields
// are kept from the stored copy.
func (s *Store) Update(ctx context.Context, it *item.Item) (bool, error) {
	return s.replace(ctx, it, nil)
}

// UpdateIf is Update guarded by the stored revision: it returns CONFLICT
// when the stored item has moved past expected.
func (s *Store) UpdateIf(ctx context.Context, it *item.Item, expected int64) (bool, error) {
	return s.replace(ctx, it, &expected)
}

func (s *Store) replace(ctx context.Context, it *item.Item, expected *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(it.ID)
	if i < 0 {
		return false, nil
	}
	cur := s.items[i]
	if expected != nil && cur.Revision != *expected {
		return false, errors.NewRevisionConflict(it.ID, *expected, cur.Revision)
	}

	next := it.Clone()
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now().Unix()
	next.Revision = cur.Revision + 1
	if err := s.save(ctx, next); err != nil {
		return false, err
	}
	s.items[i] = next
	return true, nil
}

// ModifyFunc computes the next version of an item from a private copy of
// the current one. Returning nil leaves the item untouched.
type ModifyFunc func(cur *item.Item) (*item.Item, error)

// Modify applies fn to the item with id under the store lock. It returns
// the stored item afterwards and whether the id was found. An error from fn
// is returned as is and nothing is written.
func (s *Store) Modify(ctx context.Context, id string, fn ModifyFunc) (*item.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false, nil
	}
	cur := s.items[i]
	next, err := fn(cur.Clone())
	if err != nil {
		return nil, true, err
	}
	if next == nil {
		return cur.Clone(), true, nil
	}

	next = next.Clone()
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now().Unix()
	next.Revision = cur.Revision + 1
	if err := s.save(ctx, next); err != nil {
		return nil, true, err
	}
	s.items[i] = next
	return next.Clone(), true, nil
}

// Delete removes the item with id. It reports false when the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	if s.persist != nil {
		if err := s.persist.Delete(ctx, id); err != nil {
			return false, errors.NewInternal(err)
		}
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true, nil
}

// Put stores an item exactly as given, keeping its id and timestamps.
// An existing item with the same id is replaced in place; a new one is
// placed by creation time. Used by import.
func (s *Store) Put(ctx context.Context, it *item.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := it.Clone()
	if next.Revision < 1 {
		next.Revision = 1
	}
	if err := s.save(ctx, next); err != nil {
		return err
	}
	if i := s.indexOf(next.ID); i >= 0 {
		s.items[i] = next
		return nil
	}
	pos := sort.Search(len(s.items), func(i int) bool {
		return s.items[i].CreatedAt < next.CreatedAt
	})
	s.items = append(s.items, nil)
	copy(s.items[pos+1:], s.items[pos:])
	s.items[pos] = next
	return nil
}

// Get returns a copy of the item with id.
func (s *Store) Get(id string) (*item.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.items[i].Clone(), true
}

// All returns copies of every item, newest-created first.
func (s *Store) All() []*item.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*item.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
