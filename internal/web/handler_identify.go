package web

import (
	"io"
	"log/slog"
	"net/http"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing algorithm (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// handleIdentify takes a multipart "image" field and returns the items the
// vision backend found, each with its matching categories.
func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		s.badRequest(w, r, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		s.badRequest(w, r, "image file required")
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		s.badRequest(w, r, "unsupported image format")
		return
	}

	items, err := s.service.IdentifyItems(r.Context(), imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
