package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"bookstore/internal/entity"
	"bookstore/internal/logger"
	"bookstore/internal/usecase"
)

// Cache key namespace for book projections. Everything under books:* is
// derived, disposable state; the store is always the source of truth.
const (
	collectionKey = "books:all"
	itemKeyPrefix = "books:id:"
	sweepPattern  = "books:*"
)

func itemKey(id int64) string {
	return itemKeyPrefix + strconv.FormatInt(id, 10)
}

// Coordinator implements usecase.BookService with the cache-aside pattern:
// reads check the cache first and lazily populate it on a miss; mutations go
// to the repository first and invalidate broadly on success. Every cache
// error is logged and swallowed, so a broken or absent cache (nil Store)
// degrades to every-lookup-is-a-miss without affecting correctness.
type Coordinator struct {
	repo  usecase.BookRepository
	store Store
	ttl   time.Duration
	log   *logrus.Entry
}

var _ usecase.BookService = (*Coordinator)(nil)

func NewCoordinator(repo usecase.BookRepository, store Store, ttl time.Duration) *Coordinator {
	return &Coordinator{
		repo:  repo,
		store: store,
		ttl:   ttl,
		log:   logger.WithComponent("cache"),
	}
}

func (c *Coordinator) List(ctx context.Context) ([]entity.Book, usecase.Source, error) {
	var books []entity.Book
	if c.lookup(ctx, collectionKey, &books) {
		return books, usecase.SourceCache, nil
	}

	books, err := c.repo.List(ctx)
	if err != nil {
		return nil, "", err
	}
	c.populate(ctx, collectionKey, books)
	return books, usecase.SourceDatabase, nil
}

func (c *Coordinator) Get(ctx context.Context, id int64) (entity.Book, usecase.Source, error) {
	key := itemKey(id)

	var book entity.Book
	if c.lookup(ctx, key, &book) {
		return book, usecase.SourceCache, nil
	}

	// Absence is never cached: a NotFound returns before populate.
	book, err := c.repo.Get(ctx, id)
	if err != nil {
		return entity.Book{}, "", err
	}
	c.populate(ctx, key, book)
	return book, usecase.SourceDatabase, nil
}

func (c *Coordinator) Create(ctx context.Context, in usecase.BookInput) (entity.Book, error) {
	book, err := c.repo.Create(ctx, in)
	if err != nil {
		return entity.Book{}, err
	}
	c.invalidate(ctx)
	return book, nil
}

func (c *Coordinator) Update(ctx context.Context, id int64, in usecase.BookInput) (entity.Book, error) {
	book, err := c.repo.Update(ctx, id, in)
	if err != nil {
		return entity.Book{}, err
	}
	c.invalidate(ctx)
	return book, nil
}

func (c *Coordinator) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// lookup reports whether key held a decodable entry. Errors and corrupt
// payloads count as misses.
func (c *Coordinator) lookup(ctx context.Context, key string, dest any) bool {
	if c.store == nil {
		return false
	}
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache lookup failed, falling back to store")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("corrupt cache entry, falling back to store")
		return false
	}
	return true
}

func (c *Coordinator) populate(ctx context.Context, key string, value any) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache encode failed")
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache populate failed")
	}
}

// invalidate removes every book projection after a successful mutation. A
// failed invalidation only prolongs staleness (bounded by the TTL), so errors
// are logged and dropped.
func (c *Coordinator) invalidate(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.DelPattern(ctx, sweepPattern); err != nil {
		c.log.WithError(err).Warn("cache sweep failed")
	}
	// A sibling read may repopulate the collection key between the sweep and
	// this point; deleting it once more is a no-op otherwise.
	if err := c.store.Del(ctx, collectionKey); err != nil {
		c.log.WithError(err).Warn("collection key delete failed")
	}
}
