package server

import (
	"net/http"

	"bookreviews/pkg/domain"
)

const maxUploadBytes = 5 << 20

// handleUpload stores a multipart image under the given prefix and returns
// the URL to place in coverImage or profilePicture.
func (s *Server) handleUpload(prefix string) authHandler {
	return func(w http.ResponseWriter, r *http.Request, _ domain.User) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field required")
			return
		}
		defer file.Close()

		url, err := s.app.UploadImage(r.Context(), prefix, file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}
