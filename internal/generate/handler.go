package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const maxRequestSize = 1 << 20

// ImageSaver persists generated images and returns the URL they are served at.
type ImageSaver interface {
	SaveImage(data []byte) (string, error)
}

// Handler proxies generation requests to the configured Service, so API
// keys never reach the browser.
type Handler struct {
	svc     Service
	images  ImageSaver
	timeout time.Duration
}

func NewHandler(svc Service, images ImageSaver, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{svc: svc, images: images, timeout: timeout}
}

// Register mounts the generation routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/expand", h.Expand).Methods(http.MethodPost)
	r.HandleFunc("/illustrate", h.Illustrate).Methods(http.MethodPost)
}

// Expand handles POST /expand.
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Options.Depth == 0 {
		req.Options.Depth = 1
	}
	if !valid(w, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	tree, err := h.svc.Expand(ctx, req.Topic, req.Options)
	if err == nil {
		tree.Prune(req.Options.Depth)
		if tree.Size() == 0 {
			err = ErrEmpty
		}
	}
	if err != nil {
		handleError(w, "expand", err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Illustrate handles POST /illustrate. The image is stored as an asset and
// returned by URL.
func (h *Handler) Illustrate(w http.ResponseWriter, r *http.Request) {
	var req illustrateRequest
	if !decode(w, r, &req) || !valid(w, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	img, err := h.svc.Illustrate(ctx, req.Prompt)
	if err == nil && (img == nil || len(img.Data) == 0) {
		err = ErrEmpty
	}
	if err != nil {
		handleError(w, "illustrate", err)
		return
	}
	if h.images != nil {
		url, err := h.images.SaveImage(img.Data)
		if err != nil {
			handleError(w, "save image", err)
			return
		}
		img = &Image{MimeType: "image/png", URL: url}
	}
	writeJSON(w, http.StatusOK, img)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func valid(w http.ResponseWriter, req any) bool {
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatValidationError(err)})
		return false
	}
	return true
}

func handleError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrEmpty):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "generator returned no content"})
	case errors.Is(err, ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "generator not configured"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "generator timed out"})
	default:
		slog.Error("generation failed", "op", op, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "generation failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
