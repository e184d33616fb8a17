package domain

import (
	"time"
)

// Book is a catalog record. IsAvailable is the availability bit owned by the
// availability store; IsActive is the soft-delete flag. A book with
// IsActive == false is invisible to normal reads and can never become
// available again through a reservation return.
type Book struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Genre       *string    `json:"genre"`
	Publisher   *string    `json:"publisher"`
	PublishedAt *time.Time `json:"published_at"`
	IsAvailable bool       `json:"is_available"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BookSummary is the projection returned by paginated catalog listings.
type BookSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// BookFilter holds the optional catalog listing criteria. Text fields match
// case-insensitively as substrings. Available distinguishes "not filtered"
// (nil) from an explicit true/false filter.
type BookFilter struct {
	Title           string
	Author          string
	Genre           string
	Publisher       string
	Available       *bool
	PublishedFrom   *time.Time
	PublishedUntil  *time.Time
	IncludeInactive bool
	Page            int
	PageSize        int
}

// BookUpdate carries a partial update; nil fields are left untouched.
type BookUpdate struct {
	Title       *string
	Author      *string
	Genre       *string
	Publisher   *string
	PublishedAt *time.Time
	IsAvailable *bool
}

// IsEmpty reports whether the update would change nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil &&
		u.Publisher == nil && u.PublishedAt == nil && u.IsAvailable == nil
}

// NewBook holds the fields required to create a catalog record.
type NewBook struct {
	Title       string
	Author      string
	Genre       *string
	Publisher   *string
	PublishedAt *time.Time
}
