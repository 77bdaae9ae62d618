package store

import (
	"testing"
	"time"

	"bookreviews/pkg/domain"
)

func seedUser(t *testing.T, m *MemoryStore, id, username string) {
	t.Helper()
	err := m.CreateUser(domain.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
}

func TestMemoryStoreUserUniqueness(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "u1", "alice")

	err := m.CreateUser(domain.User{ID: "u2", Username: "Alice", Email: "x@example.com"})
	if err != ErrDuplicateKey {
		t.Fatalf("duplicate username error = %v, want ErrDuplicateKey", err)
	}
	err = m.CreateUser(domain.User{ID: "u3", Username: "bob", Email: "ALICE@example.com"})
	if err != ErrDuplicateKey {
		t.Fatalf("duplicate email error = %v, want ErrDuplicateKey", err)
	}
}

func TestMemoryStoreUsernameIndexFollowsUpdates(t *testing.T) {
	m := NewMemoryStore()
	seedUser(t, m, "u1", "alice")

	u, _, _ := m.GetUserByID("u1")
	u.Username = "alicia"
	if err := m.UpdateUser(u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, found, _ := m.GetUserByUsername("alice"); found {
		t.Fatalf("old username should be released")
	}
	if _, found, _ := m.GetUserByUsername("alicia"); !found {
		t.Fatalf("new username should resolve")
	}
	// released name can be claimed again
	if err := m.CreateUser(domain.User{ID: "u2", Username: "alice", Email: "second@example.com"}); err != nil {
		t.Fatalf("reclaim released username: %v", err)
	}
}

func TestMemoryStoreReviewUniquePair(t *testing.T) {
	m := NewMemoryStore()
	if err := m.CreateReview(domain.Review{ID: "r1", BookID: "b1", UserID: "u1"}); err != nil {
		t.Fatalf("create review: %v", err)
	}
	if err := m.CreateReview(domain.Review{ID: "r2", BookID: "b1", UserID: "u1"}); err != ErrDuplicateKey {
		t.Fatalf("duplicate pair error = %v, want ErrDuplicateKey", err)
	}
	// other book or other user is fine
	if err := m.CreateReview(domain.Review{ID: "r3", BookID: "b2", UserID: "u1"}); err != nil {
		t.Fatalf("other book: %v", err)
	}
	if err := m.CreateReview(domain.Review{ID: "r4", BookID: "b1", UserID: "u2"}); err != nil {
		t.Fatalf("other user: %v", err)
	}
	// deleting releases the pair
	if err := m.DeleteReview("r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.CreateReview(domain.Review{ID: "r5", BookID: "b1", UserID: "u1"}); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestMemoryStoreListBooksNewestFirst(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"b1", "b2", "b3"} {
		if err := m.CreateBook(domain.Book{ID: id, Title: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}); err != nil {
			t.Fatalf("create book: %v", err)
		}
	}
	books, total, err := m.ListBooks(BookFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(books) != 2 {
		t.Fatalf("total = %d, page len = %d", total, len(books))
	}
	if books[0].ID != "b3" || books[1].ID != "b2" {
		t.Fatalf("order = %s, %s; want b3, b2", books[0].ID, books[1].ID)
	}
}

func TestMemoryStoreUpdateBookPreservesAggregates(t *testing.T) {
	m := NewMemoryStore()
	if err := m.CreateBook(domain.Book{ID: "b1", Title: "Before"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SetBookAggregates("b1", 4.5, 7); err != nil {
		t.Fatalf("set aggregates: %v", err)
	}
	if err := m.UpdateBook(domain.Book{ID: "b1", Title: "After", AverageRating: 1, TotalReviews: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	b, _, _ := m.GetBook("b1")
	if b.Title != "After" || b.AverageRating != 4.5 || b.TotalReviews != 7 {
		t.Fatalf("book = %+v", b)
	}
}
