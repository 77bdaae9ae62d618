package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bookreviews/internal/app"
	"bookreviews/internal/ratelimit"
	"bookreviews/internal/util"
	"bookreviews/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App

	// AuthLimiter rate limits register/login per client IP. Nil disables
	// limiting.
	AuthLimiter *ratelimit.FixedWindowLimiter
}

// Server exposes the REST API.
type Server struct {
	app         *app.App
	authLimiter *ratelimit.FixedWindowLimiter
	mux         *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:         cfg.App,
		authLimiter: cfg.AuthLimiter,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the handler with the full middleware chain applied.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithRequestLog(h)
	h = util.WithRequestID(h)
	h = util.WithCORS(h)
	h = util.WithSecurityHeaders(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/auth/me", s.handleMe)

	// books
	s.mux.HandleFunc("/api/books", s.handleBooks)
	s.mux.HandleFunc("/api/books/", s.handleBookSubpath)

	// reviews
	s.mux.HandleFunc("/api/reviews", s.handleReviews)
	s.mux.HandleFunc("/api/reviews/", s.handleReviewSubpath)

	// user profiles
	s.mux.HandleFunc("/api/users/", s.handleUserSubpath)

	// uploads
	s.mux.Handle("/api/uploads/covers", s.adminOnly(s.handleUpload("covers")))
	s.mux.Handle("/api/uploads/avatars", s.authenticated(s.handleUpload("avatars")))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

func (s *Server) allowAuthRequest(w http.ResponseWriter, r *http.Request) bool {
	if s.authLimiter == nil {
		return true
	}
	if s.authLimiter.Allow(util.ClientIP(r)) {
		return true
	}
	writeError(w, http.StatusTooManyRequests, "Too many requests, try again later")
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// query helpers

// parsePageQuery reads page/limit query params. Non-numeric values surface as
// field errors; range checks happen in the app layer.
func parsePageQuery(r *http.Request) (int, int, []app.FieldError) {
	var fields []app.FieldError
	page, limit := 0, 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, app.FieldError{Message: "Page must be a number", Path: "page"})
		} else {
			page = n
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, app.FieldError{Message: "Limit must be a number", Path: "limit"})
		} else {
			limit = n
		}
	}
	return page, limit, fields
}

// response helpers

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeFieldErrors(w http.ResponseWriter, fields []app.FieldError) {
	writeJSON(w, http.StatusBadRequest, map[string][]app.FieldError{"errors": fields})
}

// writeAppError maps application errors onto the HTTP error taxonomy.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		writeFieldErrors(w, verr.Fields)
	case errors.Is(err, app.ErrUserExists),
		errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrDuplicateReview):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrNotReviewOwner),
		errors.Is(err, app.ErrNotProfileOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrBookNotFound),
		errors.Is(err, app.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrRefinementFailed):
		writeError(w, http.StatusBadGateway, app.ErrRefinementFailed.Error())
	case errors.Is(err, app.ErrUploadsDisabled):
		writeError(w, http.StatusServiceUnavailable, app.ErrUploadsDisabled.Error())
	default:
		logger := slog.Default()
		if r != nil {
			logger = util.LoggerFromContext(r.Context())
		}
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
