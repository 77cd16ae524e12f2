package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tagmark/tagmark-server/internal/http/response"
)

// maxImportSize bounds an uploaded bookmark file.
const maxImportSize = 10 << 20

// registerTransferRoutes mounts import and export. Both move Netscape
// bookmark HTML rather than JSON, so they are plain chi routes.
func (s *Server) registerTransferRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/bookmarks/import", s.handleImport)
		r.Get("/bookmarks/export", s.handleExport)
	})
}

// handleImport accepts the file either as the raw request body or as the
// "file" field of a multipart form.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing bookmark file", s.logger)
			return
		}
		defer file.Close()
		src = file
	}

	result, err := s.services.Transfer.Import(ctx, getUserID(ctx), src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "bookmark file too large", s.logger)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Buffer so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := s.services.Transfer.Export(ctx, getUserID(ctx), &buf); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="bookmarks.html"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("Failed to write export", "error", err)
	}
}
