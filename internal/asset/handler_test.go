package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newHandler(t *testing.T) (*Handler, *mux.Router) {
	t.Helper()
	h, err := NewHandler(t.TempDir(), nil)
	require.NoError(t, err)
	r := mux.NewRouter()
	h.Register(r)
	return h, r
}

func upload(t *testing.T, r http.Handler, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_UploadAndServe(t *testing.T) {
	_, r := newHandler(t)

	rec := upload(t, r, "photo.png", pngBytes(t, 3, 2))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, strings.HasPrefix(resp.ID, "asset_"))
	assert.Equal(t, "/assets/"+resp.ID+".png", resp.URL)
	assert.Equal(t, 3, resp.Width)
	assert.Equal(t, 2, resp.Height)
	assert.Equal(t, "photo.png", resp.Name)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "immutable")
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
}

func TestHandler_UploadRejects(t *testing.T) {
	_, r := newHandler(t)

	rec := upload(t, r, "notes.txt", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/assets/upload", strings.NewReader("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SaveImage(t *testing.T) {
	h, _ := newHandler(t)

	url, err := h.SaveImage(pngBytes(t, 4, 4))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/assets/asset_"))
	_, err = os.Stat(filepath.Join(h.dir, strings.TrimPrefix(url, "/assets/")))
	assert.NoError(t, err)

	_, err = h.SaveImage([]byte("GIF? no"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestHandler_Delete(t *testing.T) {
	h, r := newHandler(t)
	url, err := h.SaveImage(pngBytes(t, 1, 1))
	require.NoError(t, err)
	id := strings.TrimSuffix(strings.TrimPrefix(url, "/assets/"), ".png")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/assets/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/assets/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.ErrorIs(t, h.Delete("../etc"), ErrNotFound)
}
