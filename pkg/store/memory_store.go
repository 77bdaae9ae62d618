package store

import (
	"sort"
	"strings"
	"sync"

	"bookreviews/pkg/domain"
)

// MemoryStore keeps all records in-process. It mirrors the uniqueness
// guarantees of the database store so application behavior is identical in
// tests and local runs without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	usernames map[string]string // lowercase username -> user ID
	emails    map[string]string // lowercase email -> user ID
	books     map[string]domain.Book
	reviews   map[string]domain.Review
	pairs     map[string]string // bookID+"\x00"+userID -> review ID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		usernames: make(map[string]string),
		emails:    make(map[string]string),
		books:     make(map[string]domain.Book),
		reviews:   make(map[string]domain.Review),
		pairs:     make(map[string]string),
	}
}

// CreateUser inserts a user, rejecting duplicate username or email.
func (m *MemoryStore) CreateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.usernames[strings.ToLower(u.Username)]; taken {
		return ErrDuplicateKey
	}
	if _, taken := m.emails[strings.ToLower(u.Email)]; taken {
		return ErrDuplicateKey
	}
	m.users[u.ID] = u
	m.usernames[strings.ToLower(u.Username)] = u.ID
	m.emails[strings.ToLower(u.Email)] = u.ID
	return nil
}

// UpdateUser persists profile changes, keeping the username index current.
func (m *MemoryStore) UpdateUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.users[u.ID]
	if !ok {
		return nil
	}
	newName := strings.ToLower(u.Username)
	if newName != strings.ToLower(prev.Username) {
		if _, taken := m.usernames[newName]; taken {
			return ErrDuplicateKey
		}
		delete(m.usernames, strings.ToLower(prev.Username))
		m.usernames[newName] = u.ID
	}
	m.users[u.ID] = u
	return nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[strings.ToLower(username)]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// CreateBook inserts a catalog entry.
func (m *MemoryStore) CreateBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
	return nil
}

// UpdateBook rewrites caller-editable fields, preserving aggregates.
func (m *MemoryStore) UpdateBook(b domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.books[b.ID]
	if !ok {
		return nil
	}
	b.AverageRating = prev.AverageRating
	b.TotalReviews = prev.TotalReviews
	b.CreatedAt = prev.CreatedAt
	m.books[b.ID] = b
	return nil
}

// DeleteBook removes a book together with its reviews.
func (m *MemoryStore) DeleteBook(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
	for rid, r := range m.reviews {
		if r.BookID == id {
			delete(m.reviews, rid)
			delete(m.pairs, pairKey(r.BookID, r.UserID))
		}
	}
	return nil
}

// GetBook retrieves a book by ID.
func (m *MemoryStore) GetBook(id string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok, nil
}

// ListBooks filters, sorts newest-first, and pages the catalog.
func (m *MemoryStore) ListBooks(filter BookFilter) ([]domain.Book, int64, error) {
	m.mu.RLock()
	matched := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		if filter.Genre != "" && !hasGenre(b.Genres, filter.Genre) {
			continue
		}
		if filter.Search != "" && !matchesSearch(b, filter.Search) {
			continue
		}
		matched = append(matched, b)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	return pageSlice(matched, filter.Page, filter.Limit), total, nil
}

// FeaturedBooks sorts by average rating, then review count, both descending.
func (m *MemoryStore) FeaturedBooks(limit int) ([]domain.Book, error) {
	m.mu.RLock()
	books := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	m.mu.RUnlock()

	sort.Slice(books, func(i, j int) bool {
		if books[i].AverageRating != books[j].AverageRating {
			return books[i].AverageRating > books[j].AverageRating
		}
		return books[i].TotalReviews > books[j].TotalReviews
	})
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

// SetBookAggregates writes the derived rating fields for a book.
func (m *MemoryStore) SetBookAggregates(bookID string, averageRating float64, totalReviews int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return nil
	}
	b.AverageRating = averageRating
	b.TotalReviews = totalReviews
	m.books[bookID] = b
	return nil
}

// CreateReview inserts a review, enforcing one per (book, user) pair.
func (m *MemoryStore) CreateReview(r domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(r.BookID, r.UserID)
	if _, exists := m.pairs[key]; exists {
		return ErrDuplicateKey
	}
	m.reviews[r.ID] = r
	m.pairs[key] = r.ID
	return nil
}

// UpdateReview rewrites a review's mutable fields.
func (m *MemoryStore) UpdateReview(r domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.reviews[r.ID]
	if !ok {
		return nil
	}
	r.BookID = prev.BookID
	r.UserID = prev.UserID
	r.CreatedAt = prev.CreatedAt
	m.reviews[r.ID] = r
	return nil
}

// DeleteReview removes a review.
func (m *MemoryStore) DeleteReview(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil
	}
	delete(m.reviews, id)
	delete(m.pairs, pairKey(r.BookID, r.UserID))
	return nil
}

// GetReview retrieves one review.
func (m *MemoryStore) GetReview(id string) (domain.Review, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reviews[id]
	return r, ok, nil
}

// ListReviews filters, sorts newest-first, pages, and attaches summaries.
func (m *MemoryStore) ListReviews(filter ReviewFilter) ([]domain.Review, int64, error) {
	m.mu.RLock()
	matched := make([]domain.Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		if filter.BookID != "" && r.BookID != filter.BookID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		matched = append(matched, r)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	page := pageSlice(matched, filter.Page, filter.Limit)

	m.mu.RLock()
	for i := range page {
		if u, ok := m.users[page[i].UserID]; ok {
			page[i].User = &domain.ReviewerRef{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
		}
		if b, ok := m.books[page[i].BookID]; ok {
			page[i].Book = &domain.BookRef{ID: b.ID, Title: b.Title, Author: b.Author, CoverImage: b.CoverImage}
		}
	}
	m.mu.RUnlock()
	return page, total, nil
}

// ReviewsForBook returns every review of a book.
func (m *MemoryStore) ReviewsForBook(bookID string) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reviews := make([]domain.Review, 0)
	for _, r := range m.reviews {
		if r.BookID == bookID {
			reviews = append(reviews, r)
		}
	}
	return reviews, nil
}

func pairKey(bookID, userID string) string {
	return bookID + "\x00" + userID
}

func hasGenre(genres []string, want string) bool {
	for _, g := range genres {
		if g == want {
			return true
		}
	}
	return false
}

func matchesSearch(b domain.Book, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(b.Title), needle) ||
		strings.Contains(strings.ToLower(b.Author), needle)
}

func pageSlice[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
