package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/shelfward/internal/domain"
)

func bookRow(id int64, title string, available, active bool) []any {
	createdAt := time.Now().UTC()

	return []any{id, title, "Author", nil, nil, nil, available, active, createdAt, createdAt}
}

func Test_BookByID_When_InactiveRowsAreExcluded(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{queryQueue: []queryResult{{rows: nil}}}
	store := newFakeStore(db)

	// act
	_, err := store.ByID(ctx, nil, 5, false)

	// assert
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], `"is_active" IS TRUE`)
}

func Test_BookByID_When_InactiveRowsAreIncluded(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{
		queryQueue: []queryResult{{rows: [][]any{bookRow(5, "Hidden", true, false)}}},
	}
	store := newFakeStore(db)

	// act
	book, err := store.ByID(ctx, nil, 5, true)

	// assert
	require.NoError(t, err)
	assert.False(t, book.IsActive)

	require.Len(t, db.queries, 1)
	assert.NotContains(t, db.queries[0], `"is_active" IS TRUE`)
}

func Test_ListBooks_When_FiltersAreSet(t *testing.T) {
	// setup
	ctx := context.Background()
	available := true
	db := &fakeDB{
		queryQueue: []queryResult{
			{rows: [][]any{{int64(1)}}},
			{rows: [][]any{{int64(5), "Solaris"}}},
		},
	}
	store := newFakeStore(db)

	// act
	summaries, total, err := store.List(ctx, domain.BookFilter{
		Title:     "sola",
		Available: &available,
		Page:      2,
		PageSize:  10,
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Solaris", summaries[0].Title)

	require.Len(t, db.queries, 2)
	assert.Contains(t, db.queries[0], "COUNT(*)")
	assert.Contains(t, db.queries[1], `ILIKE '%sola%'`)
	assert.Contains(t, db.queries[1], "LIMIT 10")
	assert.Contains(t, db.queries[1], "OFFSET 10")
}

func Test_UpdateBook_When_UpdateIsEmpty(t *testing.T) {
	// setup
	ctx := context.Background()
	store := newFakeStore(&fakeDB{})

	// act
	_, err := store.Update(ctx, 5, domain.BookUpdate{})

	// assert
	assert.ErrorIs(t, err, domain.ErrNothingToUpdate)
}

func Test_DeactivateBook_When_BookIsAlreadyInactive(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{queryQueue: []queryResult{{rows: nil}}}
	store := newFakeStore(db)

	// act
	_, err := store.Deactivate(ctx, 5)

	// assert
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}
