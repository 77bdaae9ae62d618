package store

import (
	"errors"

	"bookreviews/pkg/domain"
)

// ErrDuplicateKey reports a uniqueness-constraint violation (duplicate
// username/email, or a second review for the same book by the same user).
// Under concurrent writers the database index is the arbiter: exactly one
// insert succeeds, the rest surface this error.
var ErrDuplicateKey = errors.New("duplicate key")

// BookFilter scopes and pages a catalog listing.
type BookFilter struct {
	Genre  string // exact tag match, empty means all
	Search string // case-insensitive substring on title or author
	Page   int    // 1-based
	Limit  int
}

// ReviewFilter scopes and pages a review listing.
type ReviewFilter struct {
	BookID string
	UserID string
	Page   int // 1-based
	Limit  int
}

// Store defines persistence operations for users, books, and reviews.
type Store interface {
	// users
	CreateUser(domain.User) error
	UpdateUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)

	// books
	CreateBook(domain.Book) error
	UpdateBook(domain.Book) error
	DeleteBook(id string) error
	GetBook(id string) (domain.Book, bool, error)
	ListBooks(BookFilter) ([]domain.Book, int64, error)
	FeaturedBooks(limit int) ([]domain.Book, error)
	SetBookAggregates(bookID string, averageRating float64, totalReviews int64) error

	// reviews
	CreateReview(domain.Review) error
	UpdateReview(domain.Review) error
	DeleteReview(id string) error
	GetReview(id string) (domain.Review, bool, error)
	ListReviews(ReviewFilter) ([]domain.Review, int64, error)
	ReviewsForBook(bookID string) ([]domain.Review, error)
}

// SessionStore issues and resolves bearer tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
