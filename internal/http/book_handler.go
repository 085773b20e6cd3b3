package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"
)

type BookHandler struct {
	svc usecase.BookService
}

func NewBookHandler(svc usecase.BookService) *BookHandler {
	return &BookHandler{svc: svc}
}

// Register wires the book routes onto the mux using method patterns.
func (h *BookHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("GET /books/{id}", h.Get)
	mux.HandleFunc("PUT /books/{id}", h.Update)
	mux.HandleFunc("DELETE /books/{id}", h.Delete)
}

type bookPayload struct {
	Title  string  `json:"title" validate:"required"`
	Author string  `json:"author" validate:"required"`
	// ISBN is opaque text here; the store enforces uniqueness.
	ISBN   string  `json:"isbn" validate:"required"`
	Price  float64 `json:"price" validate:"gte=0"`
	Stock  int     `json:"stock" validate:"gte=0"`
}

func (p bookPayload) toInput() usecase.BookInput {
	return usecase.BookInput{
		Title:  p.Title,
		Author: p.Author,
		ISBN:   p.ISBN,
		Price:  p.Price,
		Stock:  p.Stock,
	}
}

func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, source, err := h.svc.List(r.Context())
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "server error", nil)
		return
	}
	if books == nil {
		books = []entity.Book{}
	}
	JSONSuccess(w, books, map[string]interface{}{
		"source": string(source),
		"count":  len(books),
	})
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, source, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeBookError(w, err)
		return
	}
	JSONSuccess(w, book, map[string]interface{}{
		"source": string(source),
	})
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	book, err := h.svc.Create(r.Context(), payload.toInput())
	if err != nil {
		writeBookError(w, err)
		return
	}
	JSONSuccessCreated(w, book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	book, err := h.svc.Update(r.Context(), id, payload.toInput())
	if err != nil {
		writeBookError(w, err)
		return
	}
	JSONSuccess(w, book, nil)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeBookError(w, err)
		return
	}
	JSONSuccess(w, map[string]interface{}{
		"id":      id,
		"deleted": true,
	}, nil)
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		JSONError(w, http.StatusBadRequest, "INVALID_ID", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request) (bookPayload, bool) {
	var payload bookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		JSONError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", nil)
		return bookPayload{}, false
	}
	if details := ValidateStruct(payload); details != nil {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid book payload", details)
		return bookPayload{}, false
	}
	return payload, true
}

func writeBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
	case errors.Is(err, usecase.ErrDuplicateISBN):
		JSONError(w, http.StatusConflict, "DUPLICATE_ISBN", "a book with this ISBN already exists", nil)
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "server error", nil)
	}
}
