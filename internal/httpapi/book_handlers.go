package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shelfward/shelfward/internal/domain"
)

const dateLayout = "2006-01-02"

type bookPayload struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Genre       *string `json:"genre"`
	Publisher   *string `json:"publisher"`
	PublishedAt *string `json:"published_at"`
	IsAvailable *bool   `json:"is_available"`
}

// POST /v1/books
func (a *API) handleCreateBook(c *gin.Context) {
	var in bookPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	publishedAt, ok := parseOptionalDate(c, in.PublishedAt)
	if !ok {
		return
	}

	book, err := a.catalog.Create(c.Request.Context(), domain.NewBook{
		Title:       in.Title,
		Author:      in.Author,
		Genre:       in.Genre,
		Publisher:   in.Publisher,
		PublishedAt: publishedAt,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, book)
}

// GET /v1/books/:id
func (a *API) handleGetBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	caller, _ := callerFrom(c)
	includeInactive := c.Query("includeInactive") == "true"

	book, err := a.catalog.Get(c.Request.Context(), caller, bookID, includeInactive)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

// GET /v1/books
func (a *API) handleListBooks(c *gin.Context) {
	caller, _ := callerFrom(c)

	filter := domain.BookFilter{
		Title:           c.Query("title"),
		Author:          c.Query("author"),
		Genre:           c.Query("genre"),
		Publisher:       c.Query("publisher"),
		IncludeInactive: c.Query("includeInactive") == "true",
	}

	switch c.Query("available") {
	case "true":
		v := true
		filter.Available = &v
	case "false":
		v := false
		filter.Available = &v
	}

	from, ok := parseOptionalDateQuery(c, "startDate")
	if !ok {
		return
	}
	filter.PublishedFrom = from

	until, ok := parseOptionalDateQuery(c, "endDate")
	if !ok {
		return
	}
	filter.PublishedUntil = until

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	items, total, err := a.catalog.List(c.Request.Context(), caller, filter)
	if err != nil {
		a.respondError(c, err)
		return
	}

	totalPages := (total + int64(filter.PageSize) - 1) / int64(filter.PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"pagination": gin.H{
			"currentPage": filter.Page,
			"totalPages":  totalPages,
			"pageSize":    filter.PageSize,
			"totalItems":  total,
		},
	})
}

// PUT /v1/books/:id
func (a *API) handleUpdateBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in bookPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	publishedAt, ok := parseOptionalDate(c, in.PublishedAt)
	if !ok {
		return
	}

	update := domain.BookUpdate{
		Genre:       in.Genre,
		Publisher:   in.Publisher,
		PublishedAt: publishedAt,
		IsAvailable: in.IsAvailable,
	}
	if in.Title != "" {
		update.Title = &in.Title
	}
	if in.Author != "" {
		update.Author = &in.Author
	}

	book, err := a.catalog.Update(c.Request.Context(), bookID, update)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, book)
}

// DELETE /v1/books/:id
func (a *API) handleDeleteBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	book, err := a.catalog.Deactivate(c.Request.Context(), bookID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book disabled", "book": book})
}

// pathID parses a positive integer path parameter, responding 400 itself
// when the value is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid " + name + " parameter"})
		return 0, false
	}

	return id, true
}

func parseOptionalDate(c *gin.Context, value *string) (*time.Time, bool) {
	if value == nil || *value == "" {
		return nil, true
	}

	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid date, expected YYYY-MM-DD"})
		return nil, false
	}

	return &parsed, true
}

func parseOptionalDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	value := c.Query(name)

	return parseOptionalDate(c, &value)
}
