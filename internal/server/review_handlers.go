package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bookreviews/internal/app"
	"bookreviews/pkg/domain"
)

// /api/reviews: list and create.
func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListReviews(w, r)
	case http.MethodPost:
		s.authenticated(s.handleCreateReview).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	page, limit, fields := parsePageQuery(r)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	result, err := s.app.ListReviews(r.Context(), app.ListReviewsParams{
		BookID: r.URL.Query().Get("bookId"),
		UserID: r.URL.Query().Get("userId"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in app.ReviewInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	review, err := s.app.CreateReview(r.Context(), user.ID, in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// /api/reviews/{id} or /api/reviews/{id}/refine
func (s *Server) handleReviewSubpath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/reviews/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] != "refine" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			review, err := s.app.RefineReview(r.Context(), user.ID, id)
			if err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, review)
		}).ServeHTTP(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			var patch app.ReviewPatch
			if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&patch); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			review, err := s.app.UpdateReview(r.Context(), user.ID, id, patch)
			if err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, review)
		}).ServeHTTP(w, r)
	case http.MethodDelete:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			if err := s.app.DeleteReview(r.Context(), user.ID, id); err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted successfully"})
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}
