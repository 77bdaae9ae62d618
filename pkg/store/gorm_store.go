package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bookreviews/pkg/domain"
)

const migrateLockID int64 = 52415241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock
// so concurrent instances do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &BookModel{}, &ReviewModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)"); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)")
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string) error {
	_, err := conn.ExecContext(ctx, query, migrateLockID)
	return err
}

func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}

// CreateUser inserts a new user. Duplicate username/email surfaces as
// ErrDuplicateKey via the unique indexes.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	return translateDuplicate(s.db.Create(&model).Error)
}

// UpdateUser persists profile changes.
func (s *GormStore) UpdateUser(u domain.User) error {
	model := userToModel(u)
	return translateDuplicate(s.db.Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":        model.Username,
		"bio":             model.Bio,
		"profile_picture": model.ProfilePicture,
		"updated_at":      model.UpdatedAt,
	}).Error)
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.findUser("email = ?", email)
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.findUser("username = ?", username)
}

func (s *GormStore) findUser(cond string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(cond, arg).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// CreateBook inserts a catalog entry.
func (s *GormStore) CreateBook(b domain.Book) error {
	model, err := bookToModel(b)
	if err != nil {
		return err
	}
	return translateDuplicate(s.db.Create(&model).Error)
}

// UpdateBook rewrites the caller-editable fields of a book. Aggregate fields
// are deliberately excluded; SetBookAggregates owns those.
func (s *GormStore) UpdateBook(b domain.Book) error {
	model, err := bookToModel(b)
	if err != nil {
		return err
	}
	return s.db.Model(&BookModel{}).Where("id = ?", b.ID).Updates(map[string]any{
		"title":          model.Title,
		"author":         model.Author,
		"description":    model.Description,
		"cover_image":    model.CoverImage,
		"isbn":           model.ISBN,
		"genres":         model.Genres,
		"published_date": model.PublishedDate,
		"updated_at":     model.UpdatedAt,
	}).Error
}

// DeleteBook removes a book together with its reviews.
func (s *GormStore) DeleteBook(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ReviewModel{}, "book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&BookModel{}, "id = ?", id).Error
	})
}

// GetBook retrieves a book by ID.
func (s *GormStore) GetBook(id string) (domain.Book, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Book{}, false, nil
		}
		return domain.Book{}, false, err
	}
	return bookFromModel(model), true, nil
}

// ListBooks returns one page of the catalog plus the total match count.
// Ordering is newest first.
func (s *GormStore) ListBooks(filter BookFilter) ([]domain.Book, int64, error) {
	query := s.db.Model(&BookModel{})
	if filter.Genre != "" {
		tag, err := json.Marshal([]string{filter.Genre})
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("genres @> ?", datatypes.JSON(tag))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR author ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []BookModel
	if err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, total, nil
}

// FeaturedBooks returns the top books by rating, then by review volume.
func (s *GormStore) FeaturedBooks(limit int) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Order("average_rating DESC, total_reviews DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(models))
	for _, m := range models {
		books = append(books, bookFromModel(m))
	}
	return books, nil
}

// SetBookAggregates writes the derived rating fields for a book.
func (s *GormStore) SetBookAggregates(bookID string, averageRating float64, totalReviews int64) error {
	return s.db.Model(&BookModel{}).Where("id = ?", bookID).Updates(map[string]any{
		"average_rating": averageRating,
		"total_reviews":  totalReviews,
	}).Error
}

// CreateReview inserts a review. The composite unique index rejects a second
// review for the same (book, user) pair with ErrDuplicateKey.
func (s *GormStore) CreateReview(r domain.Review) error {
	model := reviewToModel(r)
	return translateDuplicate(s.db.Create(&model).Error)
}

// UpdateReview rewrites a review's mutable fields.
func (s *GormStore) UpdateReview(r domain.Review) error {
	model := reviewToModel(r)
	return s.db.Model(&ReviewModel{}).Where("id = ?", r.ID).Updates(map[string]any{
		"rating":           model.Rating,
		"original_content": model.OriginalContent,
		"refined_content":  model.RefinedContent,
		"is_refined":       model.IsRefined,
		"updated_at":       model.UpdatedAt,
	}).Error
}

// DeleteReview removes a review.
func (s *GormStore) DeleteReview(id string) error {
	return s.db.Delete(&ReviewModel{}, "id = ?", id).Error
}

// GetReview retrieves one review.
func (s *GormStore) GetReview(id string) (domain.Review, bool, error) {
	var model ReviewModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Review{}, false, nil
		}
		return domain.Review{}, false, err
	}
	return reviewFromModel(model), true, nil
}

// ListReviews returns one page of reviews, newest first, optionally scoped to
// a book or user, with reviewer and book summaries attached.
func (s *GormStore) ListReviews(filter ReviewFilter) ([]domain.Review, int64, error) {
	query := s.db.Model(&ReviewModel{})
	if filter.BookID != "" {
		query = query.Where("book_id = ?", filter.BookID)
	}
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ReviewModel
	if err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	reviews := make([]domain.Review, 0, len(models))
	for _, m := range models {
		reviews = append(reviews, reviewFromModel(m))
	}
	if err := s.attachRefs(reviews); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ReviewsForBook returns every review of a book, for aggregate recomputation.
func (s *GormStore) ReviewsForBook(bookID string) ([]domain.Review, error) {
	var models []ReviewModel
	if err := s.db.Where("book_id = ?", bookID).Find(&models).Error; err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(models))
	for _, m := range models {
		reviews = append(reviews, reviewFromModel(m))
	}
	return reviews, nil
}

func (s *GormStore) attachRefs(reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	userIDs := make([]string, 0, len(reviews))
	bookIDs := make([]string, 0, len(reviews))
	seenUser := make(map[string]bool, len(reviews))
	seenBook := make(map[string]bool, len(reviews))
	for _, r := range reviews {
		if !seenUser[r.UserID] {
			seenUser[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
		if !seenBook[r.BookID] {
			seenBook[r.BookID] = true
			bookIDs = append(bookIDs, r.BookID)
		}
	}

	var users []UserModel
	if err := s.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return err
	}
	var books []BookModel
	if err := s.db.Where("id IN ?", bookIDs).Find(&books).Error; err != nil {
		return err
	}
	userRefs := make(map[string]*domain.ReviewerRef, len(users))
	for _, u := range users {
		userRefs[u.ID] = &domain.ReviewerRef{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
	}
	bookRefs := make(map[string]*domain.BookRef, len(books))
	for _, b := range books {
		bookRefs[b.ID] = &domain.BookRef{ID: b.ID, Title: b.Title, Author: b.Author, CoverImage: b.CoverImage}
	}
	for i := range reviews {
		reviews[i].User = userRefs[reviews[i].UserID]
		reviews[i].Book = bookRefs[reviews[i].BookID]
	}
	return nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		IsAdmin:        u.IsAdmin,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		IsAdmin:        m.IsAdmin,
		Bio:            m.Bio,
		ProfilePicture: m.ProfilePicture,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func bookToModel(b domain.Book) (BookModel, error) {
	genres, err := json.Marshal(b.Genres)
	if err != nil {
		return BookModel{}, fmt.Errorf("encode genres: %w", err)
	}
	return BookModel{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		CoverImage:    b.CoverImage,
		ISBN:          b.ISBN,
		Genres:        datatypes.JSON(genres),
		PublishedDate: b.PublishedDate,
		AverageRating: b.AverageRating,
		TotalReviews:  b.TotalReviews,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}, nil
}

func bookFromModel(m BookModel) domain.Book {
	var genres []string
	if len(m.Genres) > 0 {
		_ = json.Unmarshal(m.Genres, &genres)
	}
	return domain.Book{
		ID:            m.ID,
		Title:         m.Title,
		Author:        m.Author,
		Description:   m.Description,
		CoverImage:    m.CoverImage,
		ISBN:          m.ISBN,
		Genres:        genres,
		PublishedDate: m.PublishedDate,
		AverageRating: m.AverageRating,
		TotalReviews:  m.TotalReviews,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func reviewToModel(r domain.Review) ReviewModel {
	return ReviewModel{
		ID:              r.ID,
		BookID:          r.BookID,
		UserID:          r.UserID,
		Rating:          r.Rating,
		OriginalContent: r.OriginalContent,
		RefinedContent:  r.RefinedContent,
		IsRefined:       r.IsRefined,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func reviewFromModel(m ReviewModel) domain.Review {
	return domain.Review{
		ID:              m.ID,
		BookID:          m.BookID,
		UserID:          m.UserID,
		Rating:          m.Rating,
		OriginalContent: m.OriginalContent,
		RefinedContent:  m.RefinedContent,
		IsRefined:       m.IsRefined,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
