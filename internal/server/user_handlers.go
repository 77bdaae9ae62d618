package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bookreviews/internal/app"
	"bookreviews/pkg/domain"
)

// /api/users/{id} or /api/users/{id}/reviews
func (s *Server) handleUserSubpath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] != "reviews" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.handleUserReviews(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		profile, err := s.app.Profile(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	case http.MethodPut:
		s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
			var update app.ProfileUpdate
			if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&update); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			updated, err := s.app.UpdateProfile(r.Context(), user.ID, id, update)
			if err != nil {
				writeAppError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		}).ServeHTTP(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	page, limit, fields := parsePageQuery(r)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	result, err := s.app.ListReviews(r.Context(), app.ListReviewsParams{
		UserID: userID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
