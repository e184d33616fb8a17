package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shelfward/shelfward/internal/catalog"
	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/httpapi"
	"github.com/shelfward/shelfward/internal/identity"
	"github.com/shelfward/shelfward/internal/reservation"
	"github.com/shelfward/shelfward/internal/storage"
)

const testSecret = "test-secret"

// memStore is an in-memory implementation of all storage contracts so the
// HTTP surface can be exercised end to end without a database.
type memStore struct {
	mu           sync.Mutex
	books        map[int64]domain.Book
	users        map[int64]domain.User
	reservations map[int64]domain.Reservation
	nextID       int64
}

type memTx struct {
	store *memStore
	undo  []func()
	done  bool
}

func newMemStore() *memStore {
	return &memStore{
		books:        make(map[int64]domain.Book),
		users:        make(map[int64]domain.User),
		reservations: make(map[int64]domain.Reservation),
		nextID:       1,
	}
}

func (m *memStore) nextIDLocked() int64 {
	id := m.nextID
	m.nextID++

	return id
}

func (m *memStore) Begin(_ context.Context) (storage.Tx, error) {
	return &memTx{store: m}, nil
}

func (t *memTx) Commit(_ context.Context) error {
	t.done = true
	t.undo = nil

	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}

	t.undo = nil
	t.done = true

	return nil
}

func (m *memStore) pushUndo(tx storage.Tx, fn func()) {
	if mt, ok := tx.(*memTx); ok {
		mt.undo = append(mt.undo, fn)
	}
}

// Books

func (m *memStore) Create(_ context.Context, book domain.NewBook) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := domain.Book{
		ID:          m.nextIDLocked(),
		Title:       book.Title,
		Author:      book.Author,
		Genre:       book.Genre,
		Publisher:   book.Publisher,
		PublishedAt: book.PublishedAt,
		IsAvailable: true,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	m.books[created.ID] = created

	return created, nil
}

func (m *memStore) ByID(_ context.Context, _ storage.Tx, bookID int64, includeInactive bool) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok || (!book.IsActive && !includeInactive) {
		return domain.Book{}, domain.ErrBookNotFound
	}

	return book, nil
}

func (m *memStore) List(_ context.Context, filter domain.BookFilter) ([]domain.BookSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.BookSummary
	for _, book := range m.books {
		if !book.IsActive && !filter.IncludeInactive {
			continue
		}
		result = append(result, domain.BookSummary{ID: book.ID, Title: book.Title})
	}

	return result, int64(len(result)), nil
}

func (m *memStore) Update(_ context.Context, bookID int64, update domain.BookUpdate) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok || !book.IsActive {
		return domain.Book{}, domain.ErrBookNotFound
	}

	if update.Title != nil {
		book.Title = *update.Title
	}
	if update.Author != nil {
		book.Author = *update.Author
	}
	if update.IsAvailable != nil {
		book.IsAvailable = *update.IsAvailable
	}
	m.books[bookID] = book

	return book, nil
}

func (m *memStore) Deactivate(_ context.Context, bookID int64) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok || !book.IsActive {
		return domain.Book{}, domain.ErrBookNotFound
	}

	book.IsActive = false
	m.books[bookID] = book

	return book, nil
}

// Availability

func (m *memStore) TryReserve(_ context.Context, tx storage.Tx, bookID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok || !book.IsActive || !book.IsAvailable {
		return false, nil
	}

	book.IsAvailable = false
	m.books[bookID] = book
	m.pushUndo(tx, func() {
		book.IsAvailable = true
		m.books[bookID] = book
	})

	return true, nil
}

func (m *memStore) Release(_ context.Context, tx storage.Tx, bookID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[bookID]
	if !ok || !book.IsActive || book.IsAvailable {
		return false, nil
	}

	book.IsAvailable = true
	m.books[bookID] = book
	m.pushUndo(tx, func() {
		book.IsAvailable = false
		m.books[bookID] = book
	})

	return true, nil
}

// Ledger

func (m *memStore) Open(_ context.Context, tx storage.Tx, userID int64, bookID int64) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.reservations {
		if existing.BookID == bookID && existing.Open() {
			return domain.Reservation{}, domain.ErrBookUnavailable
		}
	}

	created := domain.Reservation{
		ID:         m.nextIDLocked(),
		UserID:     userID,
		BookID:     bookID,
		ReservedAt: time.Now().UTC(),
	}
	m.reservations[created.ID] = created
	m.pushUndo(tx, func() {
		delete(m.reservations, created.ID)
	})

	return created, nil
}

func (m *memStore) Close(_ context.Context, tx storage.Tx, reservationID int64) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}

	if !reservation.Open() {
		return domain.Reservation{}, domain.ErrReservationAlreadyClosed
	}

	before := reservation
	returnedAt := time.Now().UTC()
	reservation.ReturnedAt = &returnedAt
	m.reservations[reservationID] = reservation
	m.pushUndo(tx, func() {
		m.reservations[reservationID] = before
	})

	return reservation, nil
}

func (m *memStore) Get(_ context.Context, reservationID int64) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reservation, ok := m.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}

	return reservation, nil
}

func (m *memStore) ListByBook(_ context.Context, bookID int64) ([]domain.BookReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.BookReservation
	for _, r := range m.reservations {
		if r.BookID == bookID {
			user := m.users[r.UserID]
			result = append(result, domain.BookReservation{
				ID:         r.ID,
				ReservedAt: r.ReservedAt,
				ReturnedAt: r.ReturnedAt,
				UserID:     r.UserID,
				UserName:   user.Name,
				UserEmail:  user.Email,
			})
		}
	}

	return result, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]domain.UserReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.UserReservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			book := m.books[r.BookID]
			result = append(result, domain.UserReservation{
				ID:         r.ID,
				ReservedAt: r.ReservedAt,
				ReturnedAt: r.ReturnedAt,
				BookID:     r.BookID,
				BookTitle:  book.Title,
				BookAuthor: book.Author,
			})
		}
	}

	return result, nil
}

// Users

func (m *memStore) CreateUser(_ context.Context, name, email, passwordHash string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return domain.User{}, domain.ErrEmailAlreadyInUse
		}
	}

	created := domain.User{
		ID:           m.nextIDLocked(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	m.users[created.ID] = created

	return created, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}

	return domain.User{}, domain.ErrUserNotFound
}

func (m *memStore) UserByID(_ context.Context, userID int64, includeInactive bool) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok || (!user.IsActive && !includeInactive) {
		return domain.User{}, domain.ErrUserNotFound
	}

	return user, nil
}

func (m *memStore) UpdateUser(_ context.Context, userID int64, update domain.UserUpdate) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok || !user.IsActive {
		return domain.User{}, domain.ErrUserNotFound
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	m.users[userID] = user

	return user, nil
}

func (m *memStore) DeactivateUser(_ context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok || !user.IsActive {
		return domain.User{}, domain.ErrUserNotFound
	}

	user.IsActive = false
	m.users[userID] = user

	return user, nil
}

func (m *memStore) SeedUser(_ context.Context, name, email, passwordHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return false, nil
		}
	}

	created := domain.User{
		ID:           m.nextIDLocked(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		Permissions: domain.Permissions{
			CanCreateBooks: true,
			CanUpdateBooks: true,
			CanDeleteBooks: true,
			CanUpdateUsers: true,
			CanDeleteUsers: true,
		},
	}
	m.users[created.ID] = created

	return true, nil
}

// Harness

type testAPI struct {
	api    *httpapi.API
	router *gin.Engine
	store  *memStore
	tokens *identity.TokenCodec
}

func newTestAPI(t *testing.T, options ...httpapi.Option) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	tokens := identity.NewTokenCodec([]byte(testSecret), time.Hour)

	api := httpapi.New(
		identity.NewService(store, tokens),
		catalog.NewService(store),
		reservation.NewService(store, store, store, store),
		tokens,
		options...,
	)
	t.Cleanup(api.Close)

	return &testAPI{api: api, router: api.Router(), store: store, tokens: tokens}
}

func (ta *testAPI) addBook(t *testing.T, title string, available, active bool) domain.Book {
	t.Helper()

	ta.store.mu.Lock()
	defer ta.store.mu.Unlock()

	book := domain.Book{
		ID:          ta.store.nextIDLocked(),
		Title:       title,
		Author:      "Author",
		IsAvailable: available,
		IsActive:    active,
	}
	ta.store.books[book.ID] = book

	return book
}

func (ta *testAPI) addUser(t *testing.T, email, password string, perms domain.Permissions) domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	ta.store.mu.Lock()
	defer ta.store.mu.Unlock()

	user := domain.User{
		ID:           ta.store.nextIDLocked(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		Permissions:  perms,
	}
	ta.store.users[user.ID] = user

	return user
}

func (ta *testAPI) tokenFor(t *testing.T, user domain.User) string {
	t.Helper()

	token, err := ta.tokens.Issue(user)
	require.NoError(t, err)

	return token
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}
