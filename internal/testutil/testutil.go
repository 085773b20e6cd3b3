package testutil

import (
	"strconv"
	"time"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"
)

// TestBook is a mock book for testing
var TestBook = entity.Book{
	ID:        1,
	Title:     "Test Book Title",
	Author:    "Test Author",
	ISBN:      "9780123456789",
	Price:     19.99,
	Stock:     3,
	CreatedAt: time.Now(),
	UpdatedAt: time.Now(),
}

// BookFixture builds a book with a unique 13-digit ISBN derived from id.
func BookFixture(id int64) entity.Book {
	isbn := "978000000000" + strconv.FormatInt(id%10, 10)
	return entity.Book{
		ID:        id,
		Title:     "Book " + strconv.FormatInt(id, 10),
		Author:    "Author " + strconv.FormatInt(id, 10),
		ISBN:      isbn,
		Price:     9.99,
		Stock:     1,
		CreatedAt: time.Now().Add(-time.Duration(id) * time.Minute),
		UpdatedAt: time.Now(),
	}
}

// InputFor mirrors a fixture's mutable fields as a BookInput.
func InputFor(b entity.Book) usecase.BookInput {
	return usecase.BookInput{
		Title:  b.Title,
		Author: b.Author,
		ISBN:   b.ISBN,
		Price:  b.Price,
		Stock:  b.Stock,
	}
}
