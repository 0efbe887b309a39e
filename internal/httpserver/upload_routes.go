package httpserver

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chatapp/internal/config"
)

// maxUploadBytes caps image uploads at 5 MiB.
const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// UploadRoutes serves image attachment upload and download. Files are stored
// on local disk under cfg.UploadDir; the returned publicId is the stored
// filename and can be used to fetch the file back.
func UploadRoutes(cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
		if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
			return
		}

		file, header, err := req.FormFile("image")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
			return
		}
		defer file.Close()

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if _, ok := allowedImageExts[ext]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported image type"})
			return
		}

		name := uuid.NewString() + ext
		dst, err := os.Create(filepath.Join(cfg.UploadDir, name))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		defer dst.Close()

		if _, err := io.Copy(dst, file); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{
			"url":      "/api/v1/uploads/" + name,
			"publicId": name,
		})
	})

	r.Get("/{filename}", func(w http.ResponseWriter, req *http.Request) {
		filename := chi.URLParam(req, "filename")

		// Reject anything that could escape the upload dir.
		if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filename"})
			return
		}

		path := filepath.Join(cfg.UploadDir, filename)
		if _, err := os.Stat(path); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "file not found"})
			return
		}

		http.ServeFile(w, req, path)
	})

	return r
}
