package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bookreviews/internal/app"
	"bookreviews/pkg/domain"
)

// /api/books: list and (admin) create.
func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListBooks(w, r)
	case http.MethodPost:
		s.adminOnly(s.handleCreateBook).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page, limit, fields := parsePageQuery(r)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	result, err := s.app.ListBooks(r.Context(), app.ListBooksParams{
		Page:   page,
		Limit:  limit,
		Genre:  r.URL.Query().Get("genre"),
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in app.BookInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	book, err := s.app.CreateBook(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, book)
}

// /api/books/featured or /api/books/{id}
func (s *Server) handleBookSubpath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/books/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if path == "featured" {
		s.handleFeaturedBooks(w, r)
		return
	}
	s.handleBookByID(w, r, path)
}

func (s *Server) handleFeaturedBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	books, err := s.app.FeaturedBooks(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, book)
	case http.MethodPut:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request, _ domain.User) {
			var patch app.BookPatch
			if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			book, err := s.app.UpdateBook(r.Context(), id, patch)
			if err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, book)
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request, _ domain.User) {
			if err := s.app.DeleteBook(r.Context(), id); err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}
