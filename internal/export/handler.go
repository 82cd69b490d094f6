package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/store"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

const maxUploadSize = 16 << 20 // 16MB

var validate = validator.New()

// Loader reads stored maps for GET exports.
type Loader interface {
	Load(ctx context.Context, id string) (*document.Document, error)
}

type Handler struct {
	maps Loader
}

// NewHandler creates an export handler. maps may be nil, in which case only
// POSTed documents can be exported.
func NewHandler(maps Loader) *Handler {
	return &Handler{maps: maps}
}

// Register mounts the export routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/export/{format}", h.ExportDocument).Methods(http.MethodPost)
	r.HandleFunc("/api/maps/{mapId}/export/{format}", h.ExportMap).Methods(http.MethodGet)
}

// ExportDocument handles POST /export/{format} with a document body.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request too large", http.StatusBadRequest)
		return
	}
	doc, fixes, err := document.Parse(data)
	if err != nil {
		http.Error(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}
	if fixes > 0 {
		slog.Warn("export repaired document", "id", doc.ID, "fixes", fixes)
	}
	h.write(w, r, doc)
}

// ExportMap handles GET /api/maps/{mapId}/export/{format}.
func (h *Handler) ExportMap(w http.ResponseWriter, r *http.Request) {
	if h.maps == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	doc, err := h.maps.Load(r.Context(), mux.Vars(r)["mapId"])
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "map not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load map for export", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.write(w, r, doc)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, doc *document.Document) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, "invalid format: must be png, opml, or csv", http.StatusBadRequest)
		return
	}
	opts, err := pngOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exportID := typeid.NewExportID()
	slog.Info("export started", "export", exportID, "map", doc.ID, "format", format, "nodes", doc.Graph.Len())

	// Buffer so a failed render can still report an error status.
	var buf bytes.Buffer
	if err := Write(&buf, format, doc, opts); err != nil {
		slog.Error("export failed", "export", exportID, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, SafeName(doc.ProjectName), format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)

	slog.Info("export complete", "export", exportID, "format", format, "size", buf.Len())
}

func pngOptions(r *http.Request) (PNGOptions, error) {
	q := r.URL.Query()
	opts := PNGOptions{Background: q.Get("background")}
	for key, dst := range map[string]*float64{"padding": &opts.Padding, "scale": &opts.Scale} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("%s must be a number", key)
		}
		*dst = f
	}
	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return opts, fmt.Errorf("%s is out of range", strings.ToLower(verrs[0].Field()))
		}
		return opts, err
	}
	return opts, nil
}
