package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookreviews/internal/app"
	"bookreviews/pkg/domain"
	"bookreviews/pkg/store"
)

type failingGenerator struct{}

func (failingGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("provider down")
}

type testEnv struct {
	ts       *httptest.Server
	app      *app.App
	memStore *store.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	memStore := store.NewMemoryStore()
	a, err := app.New(app.Config{
		Store:     memStore,
		Sessions:  store.NewJWTSessionStore("test-secret", 0, store.NewMemoryTokenRevoker()),
		Generator: failingGenerator{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := New(Config{App: a})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, app: a, memStore: memStore}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

// register returns the new user's token.
func (e *testEnv) register(t *testing.T, username string) (string, domain.User) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, resp.StatusCode, body)
	}
	var out struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out.Token, out.User
}

// registerAdmin promotes a registered user to admin through the store.
func (e *testEnv) registerAdmin(t *testing.T, username string) string {
	t.Helper()
	token, user := e.register(t, username)
	stored, found, err := e.memStore.GetUserByID(user.ID)
	if err != nil || !found {
		t.Fatalf("fetch user %s: %v", username, err)
	}
	stored.IsAdmin = true
	if err := e.memStore.UpdateUser(stored); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	return token
}

func (e *testEnv) createBook(t *testing.T, adminToken, title string) domain.Book {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/books", adminToken, map[string]any{
		"title":         title,
		"author":        "Test Author",
		"description":   "A book used in HTTP tests.",
		"coverImage":    "https://example.com/cover.jpg",
		"isbn":          "978-0-00-000000-0",
		"genre":         []string{"Fiction"},
		"publishedDate": "2020-01-15",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create book: status %d, body %s", resp.StatusCode, body)
	}
	var book domain.Book
	if err := json.Unmarshal(body, &book); err != nil {
		t.Fatalf("decode book: %v", err)
	}
	return book
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)
	token, user := e.register(t, "alice")

	// register response must not leak the password hash
	resp, body := e.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if _, leaked := raw["passwordHash"]; leaked {
		t.Fatalf("password hash leaked: %s", body)
	}
	if raw["id"] != user.ID {
		t.Fatalf("me returned wrong user: %s", body)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/auth/me", "garbage-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d, want 401", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-pass",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d, want 401", resp.StatusCode)
	}

	// logout revokes
	resp, _ = e.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: status %d, want 204", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked token: status %d, want 401", resp.StatusCode)
	}
}

func TestRegisterValidationPayload(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ab", "email": "nope", "password": "nah",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out struct {
		Errors []struct {
			Message string `json:"message"`
			Path    string `json:"path"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode errors: %v, body %s", err, body)
	}
	if len(out.Errors) != 3 {
		t.Fatalf("got %d errors, want 3: %s", len(out.Errors), body)
	}
}

func TestRegisterConflict(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "alice")
	resp, _ := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "password1",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestBookAdminGate(t *testing.T) {
	e := newTestEnv(t)
	userToken, _ := e.register(t, "alice")
	adminToken := e.registerAdmin(t, "admin")

	resp, _ := e.do(t, http.MethodPost, "/api/books", userToken, map[string]any{"title": "x"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin create: status %d, want 403", resp.StatusCode)
	}

	book := e.createBook(t, adminToken, "Gated")

	resp, _ = e.do(t, http.MethodDelete, "/api/books/"+book.ID, userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin delete: status %d, want 403", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodDelete, "/api/books/"+book.ID, adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: status %d, want 200", resp.StatusCode)
	}
}

func TestListBooksEnvelope(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.registerAdmin(t, "admin")
	for i := 0; i < 12; i++ {
		e.createBook(t, adminToken, fmt.Sprintf("Book %02d", i))
	}

	resp, body := e.do(t, http.MethodGet, "/api/books?page=2&limit=10", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Books       []domain.Book `json:"books"`
		CurrentPage int           `json:"currentPage"`
		TotalPages  int           `json:"totalPages"`
		TotalBooks  int64         `json:"totalBooks"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(out.Books) != 2 || out.CurrentPage != 2 || out.TotalPages != 2 || out.TotalBooks != 12 {
		t.Fatalf("envelope = %+v", out)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/books?page=abc", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("non-numeric page: status %d, want 400", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/api/books?limit=99", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized limit: status %d, want 400", resp.StatusCode)
	}
}

func TestBookNotFound(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodGet, "/api/books/missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestFeaturedBooksRoute(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.registerAdmin(t, "admin")
	e.createBook(t, adminToken, "Solo")

	resp, body := e.do(t, http.MethodGet, "/api/books/featured", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var books []domain.Book
	if err := json.Unmarshal(body, &books); err != nil {
		t.Fatalf("decode featured: %v", err)
	}
	if len(books) != 1 {
		t.Fatalf("featured = %d books, want 1", len(books))
	}
}

func TestReviewFlow(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.registerAdmin(t, "admin")
	aliceToken, _ := e.register(t, "alice")
	bobToken, _ := e.register(t, "bob")
	book := e.createBook(t, adminToken, "Reviewed")

	// anonymous create is rejected
	resp, _ := e.do(t, http.MethodPost, "/api/reviews", "", map[string]any{
		"bookId": book.ID, "rating": 4, "content": "Anonymous review attempt here.",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous review: status %d, want 401", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodPost, "/api/reviews", aliceToken, map[string]any{
		"bookId": book.ID, "rating": 4, "content": "A perfectly valid book review.",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create review: status %d, body %s", resp.StatusCode, body)
	}
	var review domain.Review
	if err := json.Unmarshal(body, &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}

	// duplicate is a conflict
	resp, _ = e.do(t, http.MethodPost, "/api/reviews", aliceToken, map[string]any{
		"bookId": book.ID, "rating": 5, "content": "Second review, same user, same book.",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate review: status %d, want 409", resp.StatusCode)
	}

	// non-owner update is forbidden
	resp, _ = e.do(t, http.MethodPut, "/api/reviews/"+review.ID, bobToken, map[string]any{"rating": 1})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-owner update: status %d, want 403", resp.StatusCode)
	}

	// refinement provider is down: 502
	resp, _ = e.do(t, http.MethodPost, "/api/reviews/"+review.ID+"/refine", aliceToken, nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("refine failure: status %d, want 502", resp.StatusCode)
	}

	// aggregates visible through the book
	resp, body = e.do(t, http.MethodGet, "/api/books/"+book.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get book: status %d", resp.StatusCode)
	}
	var got domain.Book
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode book: %v", err)
	}
	if got.AverageRating != 4 || got.TotalReviews != 1 {
		t.Fatalf("aggregates = (%v, %d), want (4, 1)", got.AverageRating, got.TotalReviews)
	}

	resp, _ = e.do(t, http.MethodDelete, "/api/reviews/"+review.ID, aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete review: status %d", resp.StatusCode)
	}
}

func TestUserProfileRoutes(t *testing.T) {
	e := newTestEnv(t)
	aliceToken, alice := e.register(t, "alice")
	_, bob := e.register(t, "bob")

	resp, body := e.do(t, http.MethodGet, "/api/users/"+alice.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile: status %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if _, leaked := raw["email"]; leaked {
		t.Fatalf("public profile leaked email: %s", body)
	}

	// owner-only updates
	resp, _ = e.do(t, http.MethodPut, "/api/users/"+bob.ID, aliceToken, map[string]string{"bio": "hacked"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user update: status %d, want 403", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodPut, "/api/users/"+alice.ID, aliceToken, map[string]string{"bio": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("own update: status %d, want 200", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/users/"+alice.ID+"/reviews", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user reviews: status %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodDelete, "/api/auth/register", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}
