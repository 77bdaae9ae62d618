package domain

import "time"

// User is a registered account. The password hash never leaves the server.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Profile is the public projection of a user, safe for anonymous readers.
// It carries neither email nor credentials.
type Profile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	IsAdmin        bool      `json:"isAdmin"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PublicProfile converts a user into its public projection.
func (u User) PublicProfile() Profile {
	return Profile{
		ID:             u.ID,
		Username:       u.Username,
		IsAdmin:        u.IsAdmin,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

// Book is a catalog entry. AverageRating and TotalReviews are derived from
// the book's reviews and are only ever written by the review aggregator.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	CoverImage    string    `json:"coverImage"`
	ISBN          string    `json:"isbn"`
	Genres        []string  `json:"genre"`
	PublishedDate time.Time `json:"publishedDate"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int64     `json:"totalReviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Review ties one user's rating and text to one book.
type Review struct {
	ID              string    `json:"id"`
	BookID          string    `json:"bookId"`
	UserID          string    `json:"userId"`
	Rating          int       `json:"rating"`
	OriginalContent string    `json:"originalContent"`
	RefinedContent  string    `json:"refinedContent,omitempty"`
	IsRefined       bool      `json:"isRefined"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Optional summaries attached by list queries.
	User *ReviewerRef `json:"user,omitempty"`
	Book *BookRef     `json:"book,omitempty"`
}

// ReviewerRef is the reviewer summary embedded in review listings.
type ReviewerRef struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// BookRef is the book summary embedded in review listings.
type BookRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage,omitempty"`
}
