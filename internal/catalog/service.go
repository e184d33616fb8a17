// Package catalog owns book metadata: creation, lookup, filtered listing,
// partial updates, and soft deletion. The availability bit lives in the same
// storage but is only ever flipped by the reservation service.
package catalog

import (
	"context"
	"fmt"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage"
)

// Service wraps the catalog storage with validation and the inactive-rows
// visibility policy.
type Service struct {
	books storage.Books
}

// NewService wires the catalog service.
func NewService(books storage.Books) *Service {
	return &Service{books: books}
}

// Create adds a new book to the catalog.
func (s *Service) Create(ctx context.Context, book domain.NewBook) (domain.Book, error) {
	if book.Title == "" || book.Author == "" {
		return domain.Book{}, fmt.Errorf("%w: title and author are required", domain.ErrValidation)
	}

	return s.books.Create(ctx, book)
}

// Get loads a single book. Seeing inactive books requires elevated book
// permissions; for everyone else a deactivated book is simply not found.
func (s *Service) Get(ctx context.Context, caller domain.Caller, bookID int64, includeInactive bool) (domain.Book, error) {
	if bookID <= 0 {
		return domain.Book{}, fmt.Errorf("%w: book id is required", domain.ErrValidation)
	}

	return s.books.ByID(ctx, nil, bookID, includeInactive && caller.CanManageBooks())
}

// List returns one page of catalog summaries plus the total count.
// The include-inactive switch is a policy decision, not a query-string
// convenience: it only takes effect for callers with elevated book
// permissions.
func (s *Service) List(ctx context.Context, caller domain.Caller, filter domain.BookFilter) ([]domain.BookSummary, int64, error) {
	if filter.IncludeInactive && !caller.CanManageBooks() {
		filter.IncludeInactive = false
	}

	return s.books.List(ctx, filter)
}

// Update applies a partial update to a book.
func (s *Service) Update(ctx context.Context, bookID int64, update domain.BookUpdate) (domain.Book, error) {
	if bookID <= 0 {
		return domain.Book{}, fmt.Errorf("%w: book id is required", domain.ErrValidation)
	}

	if update.IsEmpty() {
		return domain.Book{}, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	return s.books.Update(ctx, bookID, update)
}

// Deactivate soft-deletes a book. An open reservation on the book stays
// open; the book just never becomes available again.
func (s *Service) Deactivate(ctx context.Context, bookID int64) (domain.Book, error) {
	if bookID <= 0 {
		return domain.Book{}, fmt.Errorf("%w: book id is required", domain.ErrValidation)
	}

	return s.books.Deactivate(ctx, bookID)
}
