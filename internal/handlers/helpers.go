package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/audile/internal/interfaces"
	"github.com/ternarybob/audile/internal/services/orchestrator"
)

// maxUploadBytes caps multipart uploads at 64 MB.
const maxUploadBytes = 64 << 20

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps the error taxonomy onto HTTP statuses: validation
// failures are 400, a busy analysis slot is 409, missing records are 404,
// everything else is 500.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case interfaces.IsValidationError(err):
		return WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orchestrator.ErrAnalysisInFlight):
		return WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, interfaces.ErrEntryNotFound):
		return WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrBlobNotFound):
		return WriteError(w, http.StatusGone, "Session document is no longer stored. Re-upload the original file.")
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// readUploads collects uploaded files from a multipart form field. When
// single is set only the first file is honored.
func readUploads(r *http.Request, field string, single bool) ([]orchestrator.FileUpload, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, fmt.Errorf("failed to parse upload: %w", err)
		}
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	if single {
		headers = headers[:1]
	}

	uploads := make([]orchestrator.FileUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", header.Filename, err)
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		uploads = append(uploads, orchestrator.FileUpload{
			Name:        header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return uploads, nil
}

// pathSegment returns the path segment after prefix, trimming any trailing
// subpath. "/api/history/abc/export" with prefix "/api/history/" yields
// "abc".
func pathSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
