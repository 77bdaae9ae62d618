package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookreviews/internal/util"
	"bookreviews/pkg/domain"
	"bookreviews/pkg/store"
)

const featuredBookCount = 6

// BookPage is the catalog listing envelope.
type BookPage struct {
	Books       []domain.Book `json:"books"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalBooks  int64         `json:"totalBooks"`
}

// ListBooksParams scopes a catalog listing. Zero page/limit take defaults.
type ListBooksParams struct {
	Page   int
	Limit  int
	Genre  string
	Search string
}

// ListBooks returns a newest-first page of the catalog, optionally filtered
// by exact genre tag and a case-insensitive title/author search.
func (a *App) ListBooks(ctx context.Context, params ListBooksParams) (BookPage, error) {
	page, limit, fields := normalizePage(params.Page, params.Limit)
	if len(fields) > 0 {
		return BookPage{}, validationError(fields)
	}
	books, total, err := a.store.ListBooks(store.BookFilter{
		Genre:  strings.TrimSpace(params.Genre),
		Search: strings.TrimSpace(params.Search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return BookPage{}, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return BookPage{
		Books:       books,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		TotalBooks:  total,
	}, nil
}

// GetBook returns one catalog entry.
func (a *App) GetBook(ctx context.Context, id string) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// FeaturedBooks returns the top books by average rating, ties broken by
// review count.
func (a *App) FeaturedBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := a.store.FeaturedBooks(featuredBookCount)
	if err != nil {
		return nil, fmt.Errorf("featured books: %w", err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

// BookInput carries the fields of a new catalog entry.
type BookInput struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	CoverImage    string   `json:"coverImage"`
	ISBN          string   `json:"isbn"`
	Genres        []string `json:"genre"`
	PublishedDate string   `json:"publishedDate"`
}

// CreateBook adds a catalog entry. Aggregates start at zero and are owned by
// the review aggregator from then on.
func (a *App) CreateBook(ctx context.Context, in BookInput) (domain.Book, error) {
	if fields := validateBookInput(in); len(fields) > 0 {
		return domain.Book{}, validationError(fields)
	}
	published, _ := parseDate(in.PublishedDate)
	now := time.Now().UTC()
	book := domain.Book{
		ID:            util.NewID(),
		Title:         strings.TrimSpace(in.Title),
		Author:        strings.TrimSpace(in.Author),
		Description:   in.Description,
		CoverImage:    in.CoverImage,
		ISBN:          strings.TrimSpace(in.ISBN),
		Genres:        in.Genres,
		PublishedDate: published,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.CreateBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book created", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// BookPatch carries a partial catalog update. Nil fields stay unchanged.
type BookPatch struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Description   *string  `json:"description"`
	CoverImage    *string  `json:"coverImage"`
	ISBN          *string  `json:"isbn"`
	Genres        []string `json:"genre"`
	PublishedDate *string  `json:"publishedDate"`
}

// UpdateBook applies a partial update to a catalog entry. Supplied fields are
// validated like on create; aggregates are never touched here.
func (a *App) UpdateBook(ctx context.Context, id string, patch BookPatch) (domain.Book, error) {
	book, found, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return domain.Book{}, ErrBookNotFound
	}

	var fields []FieldError
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			fields = append(fields, FieldError{Message: "Title is required", Path: "title"})
		} else {
			book.Title = strings.TrimSpace(*patch.Title)
		}
	}
	if patch.Author != nil {
		if strings.TrimSpace(*patch.Author) == "" {
			fields = append(fields, FieldError{Message: "Author is required", Path: "author"})
		} else {
			book.Author = strings.TrimSpace(*patch.Author)
		}
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			fields = append(fields, FieldError{Message: "Description is required", Path: "description"})
		} else {
			book.Description = *patch.Description
		}
	}
	if patch.CoverImage != nil {
		if !isValidURL(*patch.CoverImage) {
			fields = append(fields, FieldError{Message: "Invalid URL for cover image", Path: "coverImage"})
		} else {
			book.CoverImage = *patch.CoverImage
		}
	}
	if patch.ISBN != nil {
		if strings.TrimSpace(*patch.ISBN) == "" {
			fields = append(fields, FieldError{Message: "ISBN is required", Path: "isbn"})
		} else {
			book.ISBN = strings.TrimSpace(*patch.ISBN)
		}
	}
	if patch.Genres != nil {
		if len(patch.Genres) == 0 {
			fields = append(fields, FieldError{Message: "At least one genre is required", Path: "genre"})
		} else {
			book.Genres = patch.Genres
		}
	}
	if patch.PublishedDate != nil {
		published, err := parseDate(*patch.PublishedDate)
		if err != nil {
			fields = append(fields, FieldError{Message: "Invalid date format", Path: "publishedDate"})
		} else {
			book.PublishedDate = published
		}
	}
	if len(fields) > 0 {
		return domain.Book{}, validationError(fields)
	}
	book.UpdatedAt = time.Now().UTC()

	if err := a.store.UpdateBook(book); err != nil {
		return domain.Book{}, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// DeleteBook removes a catalog entry and its reviews.
func (a *App) DeleteBook(ctx context.Context, id string) error {
	_, found, err := a.store.GetBook(id)
	if err != nil {
		return fmt.Errorf("fetch book: %w", err)
	}
	if !found {
		return ErrBookNotFound
	}
	if err := a.store.DeleteBook(id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	util.LoggerFromContext(ctx).Info("book deleted", "book_id", id)
	return nil
}

func totalPages(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
