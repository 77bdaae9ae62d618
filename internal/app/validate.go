package app

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	minUsernameLen = 3
	minContentLen  = 10
	maxContentLen  = 2000
	minRating      = 1
	maxRating      = 5

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 50
)

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateRegister(username, email, password string) []FieldError {
	var fields []FieldError
	if len(username) < minUsernameLen {
		fields = append(fields, FieldError{Message: "Username must be at least 3 characters long", Path: "username"})
	}
	if !emailRx.MatchString(email) {
		fields = append(fields, FieldError{Message: "Invalid email address", Path: "email"})
	}
	if len(password) < 6 {
		fields = append(fields, FieldError{Message: "Password must be at least 6 characters", Path: "password"})
	}
	return fields
}

func validateLogin(email, password string) []FieldError {
	var fields []FieldError
	if !emailRx.MatchString(email) {
		fields = append(fields, FieldError{Message: "Invalid email address", Path: "email"})
	}
	if password == "" {
		fields = append(fields, FieldError{Message: "Password is required", Path: "password"})
	}
	return fields
}

// normalizePage applies defaults and bounds-checks page/limit. Zero values
// mean "not supplied".
func normalizePage(page, limit int) (int, int, []FieldError) {
	var fields []FieldError
	if page == 0 {
		page = defaultPage
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 1 {
		fields = append(fields, FieldError{Message: "Page must be at least 1", Path: "page"})
	}
	if limit < 1 || limit > maxLimit {
		fields = append(fields, FieldError{Message: "Limit must be between 1 and 50", Path: "limit"})
	}
	return page, limit, fields
}

func validateBookInput(in BookInput) []FieldError {
	var fields []FieldError
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, FieldError{Message: "Title is required", Path: "title"})
	}
	if strings.TrimSpace(in.Author) == "" {
		fields = append(fields, FieldError{Message: "Author is required", Path: "author"})
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, FieldError{Message: "Description is required", Path: "description"})
	}
	if !isValidURL(in.CoverImage) {
		fields = append(fields, FieldError{Message: "Invalid URL for cover image", Path: "coverImage"})
	}
	if strings.TrimSpace(in.ISBN) == "" {
		fields = append(fields, FieldError{Message: "ISBN is required", Path: "isbn"})
	}
	if len(in.Genres) == 0 {
		fields = append(fields, FieldError{Message: "At least one genre is required", Path: "genre"})
	}
	if _, err := parseDate(in.PublishedDate); err != nil {
		fields = append(fields, FieldError{Message: "Invalid date format", Path: "publishedDate"})
	}
	return fields
}

func validateRating(rating int) *FieldError {
	if rating < minRating {
		return &FieldError{Message: "Rating must be at least 1", Path: "rating"}
	}
	if rating > maxRating {
		return &FieldError{Message: "Rating cannot be more than 5", Path: "rating"}
	}
	return nil
}

func validateContent(content string) *FieldError {
	if len(content) < minContentLen {
		return &FieldError{Message: "Review must be at least 10 characters long", Path: "content"}
	}
	if len(content) > maxContentLen {
		return &FieldError{Message: "Review cannot exceed 2000 characters", Path: "content"}
	}
	return nil
}

func validateReviewInput(in ReviewInput) []FieldError {
	var fields []FieldError
	if strings.TrimSpace(in.BookID) == "" {
		fields = append(fields, FieldError{Message: "Book ID is required", Path: "bookId"})
	}
	if f := validateRating(in.Rating); f != nil {
		fields = append(fields, *f)
	}
	if f := validateContent(in.Content); f != nil {
		fields = append(fields, *f)
	}
	return fields
}

func validateReviewPatch(patch ReviewPatch) []FieldError {
	if patch.Rating == nil && patch.Content == nil {
		return []FieldError{{Message: "At least one field must be provided for update", Path: ""}}
	}
	var fields []FieldError
	if patch.Rating != nil {
		if f := validateRating(*patch.Rating); f != nil {
			fields = append(fields, *f)
		}
	}
	if patch.Content != nil {
		if f := validateContent(*patch.Content); f != nil {
			fields = append(fields, *f)
		}
	}
	return fields
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
