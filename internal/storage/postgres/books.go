package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage"
	"github.com/shelfward/shelfward/internal/storage/postgres/internal/adapters"
)

const (
	actionCreateBook     = "create-book"
	actionGetBook        = "get-book"
	actionListBooks      = "list-books"
	actionCountBooks     = "count-books"
	actionUpdateBook     = "update-book"
	actionDeactivateBook = "deactivate-book"

	colTitle       = "title"
	colAuthor      = "author"
	colGenre       = "genre"
	colPublisher   = "publisher"
	colPublishedAt = "published_at"
)

var bookColumns = []any{
	"id", colTitle, colAuthor, colGenre, colPublisher, colPublishedAt,
	colIsAvailable, colIsActive, "created_at", colUpdatedAt,
}

// Create inserts a new active, available book.
func (s *Store) Create(ctx context.Context, book domain.NewBook) (domain.Book, error) {
	var empty domain.Book

	record := goqu.Record{colTitle: book.Title, colAuthor: book.Author}
	if book.Genre != nil {
		record[colGenre] = *book.Genre
	}
	if book.Publisher != nil {
		record[colPublisher] = *book.Publisher
	}
	if book.PublishedAt != nil {
		record[colPublishedAt] = *book.PublishedAt
	}

	sqlQuery, _, toSQLErr := builder.
		Insert(tableBooks).
		Rows(record).
		Returning(bookColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionCreateBook, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanBook(rows)
}

// ByID loads a book, inside the given transaction when tx is non-nil.
// Inactive books are invisible unless includeInactive is set.
func (s *Store) ByID(ctx context.Context, tx storage.Tx, bookID int64, includeInactive bool) (domain.Book, error) {
	var empty domain.Book

	h, err := s.handleFor(tx)
	if err != nil {
		return empty, err
	}

	stmt := builder.
		From(tableBooks).
		Select(bookColumns...).
		Where(goqu.C("id").Eq(bookID))

	if !includeInactive {
		stmt = stmt.Where(goqu.C(colIsActive).IsTrue())
	}

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, h, actionGetBook, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanBook(rows)
}

// List returns one page of catalog summaries plus the unpaginated total.
func (s *Store) List(ctx context.Context, filter domain.BookFilter) ([]domain.BookSummary, int64, error) {
	where := buildBookFilter(filter)

	countQuery, _, countSQLErr := builder.
		From(tableBooks).
		Select(goqu.COUNT(goqu.Star())).
		Where(where...).
		ToSQL()
	if countSQLErr != nil {
		return nil, 0, s.buildErr(countSQLErr)
	}

	countRows, countErr := s.query(ctx, s.db, actionCountBooks, countQuery)
	if countErr != nil {
		return nil, 0, countErr
	}

	var total int64
	if countRows.Next() {
		if scanErr := countRows.Scan(&total); scanErr != nil {
			s.closeRows(countRows)
			return nil, 0, s.scanErr(scanErr)
		}
	}
	s.closeRows(countRows)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	sqlQuery, _, toSQLErr := builder.
		From(tableBooks).
		Select("id", colTitle).
		Where(where...).
		Order(goqu.C("id").Asc()).
		Limit(uint(pageSize)).
		Offset(uint((page - 1) * pageSize)).
		ToSQL()
	if toSQLErr != nil {
		return nil, 0, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionListBooks, sqlQuery)
	if queryErr != nil {
		return nil, 0, queryErr
	}
	defer s.closeRows(rows)

	summaries := make([]domain.BookSummary, 0)

	for rows.Next() {
		var summary domain.BookSummary
		if scanErr := rows.Scan(&summary.ID, &summary.Title); scanErr != nil {
			return nil, 0, s.scanErr(scanErr)
		}

		summaries = append(summaries, summary)
	}

	return summaries, total, nil
}

// Update applies a partial update and bumps updated_at.
func (s *Store) Update(ctx context.Context, bookID int64, update domain.BookUpdate) (domain.Book, error) {
	var empty domain.Book

	if update.IsEmpty() {
		return empty, domain.ErrNothingToUpdate
	}

	record := goqu.Record{colUpdatedAt: now()}
	if update.Title != nil {
		record[colTitle] = *update.Title
	}
	if update.Author != nil {
		record[colAuthor] = *update.Author
	}
	if update.Genre != nil {
		record[colGenre] = *update.Genre
	}
	if update.Publisher != nil {
		record[colPublisher] = *update.Publisher
	}
	if update.PublishedAt != nil {
		record[colPublishedAt] = *update.PublishedAt
	}
	if update.IsAvailable != nil {
		record[colIsAvailable] = *update.IsAvailable
	}

	sqlQuery, _, toSQLErr := builder.
		Update(tableBooks).
		Set(record).
		Where(goqu.C("id").Eq(bookID)).
		Returning(bookColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionUpdateBook, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanBook(rows)
}

// Deactivate soft-deletes an active book. The availability bit is left
// untouched: a reserved book that gets deactivated keeps its open
// reservation, it just never returns to circulation.
func (s *Store) Deactivate(ctx context.Context, bookID int64) (domain.Book, error) {
	var empty domain.Book

	sqlQuery, _, toSQLErr := builder.
		Update(tableBooks).
		Set(goqu.Record{colIsActive: false, colUpdatedAt: now()}).
		Where(
			goqu.C("id").Eq(bookID),
			goqu.C(colIsActive).IsTrue(),
		).
		Returning(bookColumns...).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionDeactivateBook, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanBook(rows)
}

func (s *Store) scanBook(rows adapters.DBRows) (domain.Book, error) {
	var empty domain.Book

	if !rows.Next() {
		return empty, domain.ErrBookNotFound
	}

	var book domain.Book
	scanErr := rows.Scan(
		&book.ID, &book.Title, &book.Author, &book.Genre, &book.Publisher, &book.PublishedAt,
		&book.IsAvailable, &book.IsActive, &book.CreatedAt, &book.UpdatedAt,
	)
	if scanErr != nil {
		return empty, s.scanErr(scanErr)
	}

	return book, nil
}

func buildBookFilter(filter domain.BookFilter) []goqu.Expression {
	where := make([]goqu.Expression, 0)

	if !filter.IncludeInactive {
		where = append(where, goqu.C(colIsActive).IsTrue())
	}
	if filter.Title != "" {
		where = append(where, goqu.C(colTitle).ILike("%"+filter.Title+"%"))
	}
	if filter.Author != "" {
		where = append(where, goqu.C(colAuthor).ILike("%"+filter.Author+"%"))
	}
	if filter.Genre != "" {
		where = append(where, goqu.C(colGenre).ILike("%"+filter.Genre+"%"))
	}
	if filter.Publisher != "" {
		where = append(where, goqu.C(colPublisher).ILike("%"+filter.Publisher+"%"))
	}
	if filter.Available != nil {
		where = append(where, goqu.C(colIsAvailable).Eq(*filter.Available))
	}
	if filter.PublishedFrom != nil {
		where = append(where, goqu.C(colPublishedAt).Gte(*filter.PublishedFrom))
	}
	if filter.PublishedUntil != nil {
		where = append(where, goqu.C(colPublishedAt).Lte(*filter.PublishedUntil))
	}

	return where
}
