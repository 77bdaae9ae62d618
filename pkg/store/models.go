package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID             string    `gorm:"primaryKey"`
	Username       string    `gorm:"uniqueIndex;not null"`
	Email          string    `gorm:"uniqueIndex;not null"`
	PasswordHash   string    `gorm:"not null"`
	IsAdmin        bool      `gorm:"not null;default:false"`
	Bio            string
	ProfilePicture string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type BookModel struct {
	ID            string         `gorm:"primaryKey"`
	Title         string         `gorm:"not null;index"`
	Author        string         `gorm:"not null;index"`
	Description   string         `gorm:"not null"`
	CoverImage    string         `gorm:"not null"`
	ISBN          string         `gorm:"not null"`
	Genres        datatypes.JSON `gorm:"type:jsonb;not null"`
	PublishedDate time.Time      `gorm:"not null"`
	AverageRating float64        `gorm:"not null;default:0"`
	TotalReviews  int64          `gorm:"not null;default:0"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	UpdatedAt     time.Time      `gorm:"not null"`
}

// ReviewModel carries the composite unique index that makes one review per
// (book, user) pair a database-level guarantee.
type ReviewModel struct {
	ID              string    `gorm:"primaryKey"`
	BookID          string    `gorm:"not null;index;uniqueIndex:idx_reviews_book_user"`
	UserID          string    `gorm:"not null;index;uniqueIndex:idx_reviews_book_user"`
	Rating          int       `gorm:"not null"`
	OriginalContent string    `gorm:"not null"`
	RefinedContent  string
	IsRefined       bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null;index"`
	UpdatedAt       time.Time `gorm:"not null"`
}
