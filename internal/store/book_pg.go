package store

// BookRepository implementation (Postgres)

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"
)

const uniqueViolation = "23505"

type BookPG struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewBookPG(db *pgxpool.Pool, timeout time.Duration) *BookPG {
	return &BookPG{db: db, timeout: timeout}
}

func (r *BookPG) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *BookPG) Create(ctx context.Context, in usecase.BookInput) (entity.Book, error) {
	const query = `
	INSERT INTO books (title, author, isbn, price, stock, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	RETURNING id, title, author, isbn, price, stock, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, in.Title, in.Author, in.ISBN, in.Price, in.Stock))
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Book{}, usecase.ErrDuplicateISBN
		}
		return entity.Book{}, err
	}
	return b, nil
}

func (r *BookPG) Get(ctx context.Context, id int64) (entity.Book, error) {
	const query = `
	SELECT id, title, author, isbn, price, stock, created_at, updated_at
	FROM books
	WHERE id = $1
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, usecase.ErrNotFound
		}
		return entity.Book{}, err
	}
	return b, nil
}

func (r *BookPG) List(ctx context.Context) ([]entity.Book, error) {
	const query = `
	SELECT id, title, author, isbn, price, stock, created_at, updated_at
	FROM books
	ORDER BY created_at DESC, id DESC
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []entity.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (r *BookPG) Update(ctx context.Context, id int64, in usecase.BookInput) (entity.Book, error) {
	const query = `
	UPDATE books
	SET title = $1, author = $2, isbn = $3, price = $4, stock = $5, updated_at = NOW()
	WHERE id = $6
	RETURNING id, title, author, isbn, price, stock, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, in.Title, in.Author, in.ISBN, in.Price, in.Stock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Book{}, usecase.ErrNotFound
		}
		if isUniqueViolation(err) {
			return entity.Book{}, usecase.ErrDuplicateISBN
		}
		return entity.Book{}, err
	}
	return b, nil
}

func (r *BookPG) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM books WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (entity.Book, error) {
	var b entity.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
