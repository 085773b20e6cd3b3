package usecase

import (
	"context"
	"errors"

	"bookstore/internal/entity"
)

//go:generate mockgen -destination=mocks/book.go -package=mocks bookstore/internal/usecase BookRepository,BookService

// ErrNotFound is returned when no book exists for the requested id.
var ErrNotFound = errors.New("book not found")

// ErrDuplicateISBN is returned when a write would violate ISBN uniqueness.
var ErrDuplicateISBN = errors.New("isbn already exists")

// Source reports where a read was served from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceCache    Source = "cache"
)

// BookInput carries the mutable fields for create and update.
type BookInput struct {
	Title  string
	Author string
	ISBN   string
	Price  float64
	Stock  int
}

// BookRepository is the contract against the source of truth.
type BookRepository interface {
	Create(ctx context.Context, in BookInput) (entity.Book, error)
	Get(ctx context.Context, id int64) (entity.Book, error)
	// List returns every record, most recently created first
	// (created_at DESC, id DESC tiebreak).
	List(ctx context.Context) ([]entity.Book, error)
	Update(ctx context.Context, id int64, in BookInput) (entity.Book, error)
	Delete(ctx context.Context, id int64) error
}

// BookService is the surface the HTTP layer consumes. Reads additionally
// report their Source so responses can be tagged as served-from-cache.
type BookService interface {
	Create(ctx context.Context, in BookInput) (entity.Book, error)
	Get(ctx context.Context, id int64) (entity.Book, Source, error)
	List(ctx context.Context) ([]entity.Book, Source, error)
	Update(ctx context.Context, id int64, in BookInput) (entity.Book, error)
	Delete(ctx context.Context, id int64) error
}
