package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/a3tai/mcp-idcard-reader/internal/card"
	"github.com/a3tai/mcp-idcard-reader/internal/verify"
)

// maxFormMemory is how much of a multipart form is kept in memory; the
// rest spills to temporary files.
const maxFormMemory = 32 << 20

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("bad request")

type handlers struct {
	svc     *card.Service
	maxBody int64
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("idcard api: %v", err)
	}
	writeJSON(w, status, map[string]any{
		"status":  http.StatusText(status),
		"message": err.Error(),
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, card.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, card.ErrNoSource),
		errors.Is(err, card.ErrUnsupportedFormat),
		errors.Is(err, card.ErrNoClaim):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GET /healthz
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/v1/idcard/info
func (h *handlers) info(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ServerInfo(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/idcard/extract
// multipart/form-data with file fields "front" and/or "back"
func (h *handlers) extract(w http.ResponseWriter, r *http.Request) {
	front, back, err := h.readSides(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result, err := h.svc.ExtractUpload(r.Context(), front, back)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/idcard/extract-text
// JSON {"front_text": "...", "back_text": "..."}
func (h *handlers) extractText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var req card.ExtractTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if !errors.As(err, &maxBytes) {
			err = fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
		}
		writeError(w, statusFor(err), err)
		return
	}

	result, err := h.svc.ExtractText(req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// POST /api/v1/idcard/verify
// multipart/form-data with "front"/"back" files and "full_name", "id_number",
// "dob" fields
func (h *handlers) verifyCard(w http.ResponseWriter, r *http.Request) {
	front, back, err := h.readSides(w, r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	claim := verify.Claim{
		FullName: r.FormValue("full_name"),
		IDNumber: r.FormValue("id_number"),
		DOB:      r.FormValue("dob"),
	}
	result, err := h.svc.VerifyUpload(r.Context(), front, back, claim)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// readSides parses the multipart body and returns the card side uploads.
// Parse failures other than the size limit are reported as bad requests.
func (h *handlers) readSides(w http.ResponseWriter, r *http.Request) (front, back card.Upload, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return card.Upload{}, card.Upload{}, err
		}
		return card.Upload{}, card.Upload{}, fmt.Errorf("%w: failed to parse multipart form: %v", errBadRequest, err)
	}

	if front, err = readPart(r, "front"); err != nil {
		return card.Upload{}, card.Upload{}, err
	}
	if back, err = readPart(r, "back"); err != nil {
		return card.Upload{}, card.Upload{}, err
	}
	return front, back, nil
}

// readPart reads one file field. A missing field is an empty upload.
func readPart(r *http.Request, field string) (card.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return card.Upload{}, nil
	}
	if err != nil {
		return card.Upload{}, fmt.Errorf("cannot read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return card.Upload{}, fmt.Errorf("cannot read %s: %w", field, err)
	}
	return card.Upload{Name: header.Filename, Data: data}, nil
}
