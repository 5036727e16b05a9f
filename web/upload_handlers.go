// ABOUTME: Profile image uploads stored on local disk under ULID names
// ABOUTME: Accepts JPEG, PNG, WEBP and GIF up to the configured size and serves them back
package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/relationcraft/postman/apperr"
)

// allowedImageTypes maps sniffed content types to stored file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

const sniffLen = 512

type uploadResult struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.cfg.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<10)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			handleError(w, r, apperr.Validationf("파일 크기는 %dMB 이하여야 합니다", maxBytes>>20), s.logger)
			return
		}
		handleError(w, r, apperr.Validationf("파일이 없습니다"), s.logger)
		return
	}
	defer file.Close()

	if header.Size > maxBytes {
		handleError(w, r, apperr.Validationf("파일 크기는 %dMB 이하여야 합니다", maxBytes>>20), s.logger)
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		handleError(w, r, err, s.logger)
		return
	}
	head = head[:n]
	ext, ok := allowedImageTypes[http.DetectContentType(head)]
	if !ok {
		handleError(w, r, apperr.Validationf("JPEG, PNG, WEBP, GIF 파일만 업로드할 수 있습니다"), s.logger)
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	name := strings.ToLower(ulid.Make().String()) + ext
	dst, err := os.Create(filepath.Join(s.cfg.UploadDir, name))
	if err != nil {
		handleError(w, r, err, s.logger)
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		_ = os.Remove(dst.Name())
		handleError(w, r, err, s.logger)
		return
	}

	created(w, uploadResult{URL: "/api/files/" + name, Name: name, Size: written}, s.logger)
}

func (s *Server) handleServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		handleError(w, r, apperr.NotFoundf("file not found"), s.logger)
		return
	}
	if _, ok := allowedImageTypes[mimeForExt(filepath.Ext(name))]; !ok {
		handleError(w, r, apperr.NotFoundf("file not found"), s.logger)
		return
	}

	path := filepath.Join(s.cfg.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		handleError(w, r, apperr.NotFoundf("file not found"), s.logger)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}

func mimeForExt(ext string) string {
	for mime, e := range allowedImageTypes {
		if e == ext {
			return mime
		}
	}
	return ""
}
