package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/store"
)

func newServer(t *testing.T) (*Service, *mux.Router) {
	t.Helper()
	svc := NewService(store.NewMemory())
	r := mux.NewRouter()
	NewHandler(svc).Register(r)
	return svc, r
}

func do(r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, url, strings.NewReader(body)))
	return rec
}

func TestService_Create(t *testing.T) {
	svc, _ := newServer(t)
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		m, err := svc.Create(ctx, "Trip", false)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(m.ID, "map_"))
		assert.Equal(t, 1, m.Nodes)

		doc, err := svc.Get(ctx, m.ID)
		require.NoError(t, err)
		root, ok := doc.Graph.Node(doc.Graph.Roots()[0])
		require.True(t, ok)
		assert.Equal(t, "Trip", root.Label)
	})

	t.Run("sample", func(t *testing.T) {
		m, err := svc.Create(ctx, "Tour", true)
		require.NoError(t, err)
		assert.Equal(t, "Tour", m.Name)
		assert.Greater(t, m.Nodes, 1)
	})
}

func TestService_Rename(t *testing.T) {
	svc, _ := newServer(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, "Draft", false)
	require.NoError(t, err)

	got, err := svc.Rename(ctx, m.ID, "  Final ")
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Name)

	doc, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	root, _ := doc.Graph.Node(doc.Graph.Roots()[0])
	assert.Equal(t, "Final", root.Label)

	_, err = svc.Rename(ctx, "map_missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ReplacePinsID(t *testing.T) {
	svc, _ := newServer(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, "Target", false)
	require.NoError(t, err)

	data, err := document.NewSampleDocument("map_other").Marshal()
	require.NoError(t, err)
	got, err := svc.Replace(ctx, m.ID, data)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = svc.Get(ctx, "map_other")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Replace(ctx, m.ID, []byte(`{"version":99}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestHandler_CRUD(t *testing.T) {
	_, r := newServer(t)

	rec := do(r, http.MethodPost, "/api/maps", `{"name":"Garden"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Map
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = do(r, http.MethodGet, "/api/maps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Map
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = do(r, http.MethodGet, "/api/maps/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc, _, err := document.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Garden", doc.ProjectName)

	sample, err := document.NewSampleDocument("ignored").Marshal()
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/maps/"+created.ID, bytes.NewReader(sample)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodPatch, "/api/maps/"+created.ID, `{"name":"Orchard"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodDelete, "/api/maps/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(r, http.MethodGet, "/api/maps/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_BadRequests(t *testing.T) {
	svc, r := newServer(t)
	m, err := svc.Create(context.Background(), "Kept", false)
	require.NoError(t, err)

	tests := []struct {
		name, method, url, body string
		want                    int
	}{
		{"missing name", http.MethodPost, "/api/maps", `{}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/maps", `{`, http.StatusBadRequest},
		{"invalid document", http.MethodPut, "/api/maps/" + m.ID, `[]`, http.StatusBadRequest},
		{"replace unknown map", http.MethodPut, "/api/maps/map_nope", `{}`, http.StatusNotFound},
		{"empty rename", http.MethodPatch, "/api/maps/" + m.ID, `{"name":""}`, http.StatusBadRequest},
		{"delete unknown map", http.MethodDelete, "/api/maps/map_nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(r, tt.method, tt.url, tt.body).Code)
		})
	}
}
