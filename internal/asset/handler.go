// Package asset stores images attached to media nodes, both uploaded by
// users and produced by the illustration generator.
package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

var (
	ErrUnsupportedType = errors.New("only PNG, JPEG and GIF images are supported")
	ErrNotFound        = errors.New("asset not found")
)

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string
	log *slog.Logger
}

// NewHandler creates an asset handler that stores files in dir.
func NewHandler(dir string, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Handler{dir: dir, log: logger}, nil
}

// Register mounts the asset routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/assets/upload", h.Upload).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/assets/{assetId}", h.Remove).Methods(http.MethodDelete)
	r.PathPrefix("/assets/").Handler(h.Serve()).Methods(http.MethodGet, http.MethodHead)
}

// Upload handles POST /assets/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file too large (max 10MB)"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read file"})
		return
	}

	stored, err := h.store(data)
	switch {
	case errors.Is(err, ErrUnsupportedType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		h.log.Error("store upload", "error", err, "name", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save file"})
		return
	}
	stored.Name = header.Filename
	writeJSON(w, http.StatusOK, stored)
}

// SaveImage stores generated image bytes and returns their URL.
func (h *Handler) SaveImage(data []byte) (string, error) {
	stored, err := h.store(data)
	if err != nil {
		return "", err
	}
	return stored.URL, nil
}

// store sniffs, decodes and re-encodes data as PNG under a fresh asset id.
func (h *Handler) store(data []byte) (*UploadResponse, error) {
	switch http.DetectContentType(data) {
	case "image/png", "image/jpeg", "image/gif":
	default:
		return nil, ErrUnsupportedType
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, err)
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	path := filepath.Join(h.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return nil, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close asset file: %w", err)
	}

	b := img.Bounds()
	h.log.Info("asset stored", "id", assetID, "width", b.Dx(), "height", b.Dy())
	return &UploadResponse{
		ID:     assetID,
		URL:    "/assets/" + filename,
		Width:  b.Dx(),
		Height: b.Dy(),
		Type:   "png",
	}, nil
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	if assetID == "" || strings.ContainsAny(assetID, `/\.`) {
		return fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	err := os.Remove(filepath.Join(h.dir, assetID+".png"))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	return err
}

// Remove handles DELETE /assets/{assetId}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.Delete(mux.Vars(r)["assetId"])
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "asset not found"})
	case err != nil:
		h.log.Error("delete asset", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete asset"})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
