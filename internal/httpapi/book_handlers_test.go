package httpapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfward/shelfward/internal/domain"
)

func Test_CreateBook_When_CallerHasPermission(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanCreateBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodPost, "/v1/books", token, map[string]any{
		"title":        "Solaris",
		"author":       "Stanislaw Lem",
		"published_at": "1961-06-01",
	})

	// assert
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Solaris", body["title"])
	assert.Equal(t, true, body["is_available"])
}

func Test_CreateBook_When_CallerLacksPermission(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	user := ta.addUser(t, "reader@example.com", "pw", domain.Permissions{})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodPost, "/v1/books", token, map[string]any{
		"title":  "Solaris",
		"author": "Stanislaw Lem",
	})

	// assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_CreateBook_When_Unauthenticated(t *testing.T) {
	// setup
	ta := newTestAPI(t)

	// act
	rec := ta.do(t, http.MethodPost, "/v1/books", "", map[string]any{
		"title":  "Solaris",
		"author": "Stanislaw Lem",
	})

	// assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_CreateBook_When_DateIsMalformed(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanCreateBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodPost, "/v1/books", token, map[string]any{
		"title":        "Solaris",
		"author":       "Stanislaw Lem",
		"published_at": "June 1961",
	})

	// assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_GetBook_When_BookExists(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	book := ta.addBook(t, "Solaris", true, true)

	// act
	rec := ta.do(t, http.MethodGet, "/v1/books/1", "", nil)

	// assert
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(book.ID), body["id"])
}

func Test_GetBook_When_IDIsMalformed(t *testing.T) {
	// setup
	ta := newTestAPI(t)

	// act
	rec := ta.do(t, http.MethodGet, "/v1/books/abc", "", nil)

	// assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_GetBook_When_BookIsInactive(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Hidden", true, false)

	// act: anonymous callers never see inactive rows, even when asking
	rec := ta.do(t, http.MethodGet, "/v1/books/1?includeInactive=true", "", nil)

	// assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_GetBook_When_InactiveAndCallerManagesBooks(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Hidden", true, false)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanUpdateBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodGet, "/v1/books/1?includeInactive=true", token, nil)

	// assert
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_ListBooks_When_Paginated(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Solaris", true, true)
	ta.addBook(t, "The Dispossessed", true, true)

	// act
	rec := ta.do(t, http.MethodGet, "/v1/books?page=1&pageSize=10", "", nil)

	// assert
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	pagination, ok := body["pagination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), pagination["currentPage"])
	assert.Equal(t, float64(1), pagination["totalPages"])
	assert.Equal(t, float64(10), pagination["pageSize"])
	assert.Equal(t, float64(2), pagination["totalItems"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func Test_UpdateBook_When_CallerHasPermission(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Solariss", true, true)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanUpdateBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodPut, "/v1/books/1", token, map[string]any{
		"title": "Solaris",
	})

	// assert
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Solaris", decodeBody(t, rec)["title"])
}

func Test_UpdateBook_When_NothingToUpdate(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Solaris", true, true)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanUpdateBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodPut, "/v1/books/1", token, map[string]any{})

	// assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_DeleteBook_When_CallerHasPermission(t *testing.T) {
	// setup
	ta := newTestAPI(t)
	ta.addBook(t, "Solaris", true, true)
	user := ta.addUser(t, "librarian@example.com", "pw", domain.Permissions{CanDeleteBooks: true})
	token := ta.tokenFor(t, user)

	// act
	rec := ta.do(t, http.MethodDelete, "/v1/books/1", token, nil)

	// assert
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "book disabled", body["message"])

	// a second delete finds nothing
	rec = ta.do(t, http.MethodDelete, "/v1/books/1", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
