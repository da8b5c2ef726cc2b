package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
	"github.com/tair/inventory-console/internal/product/usecase"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) (*mux.Router, *ProductHandler, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	h := NewProductHandler(usecase.New(repo, nil), prometheus.NewRegistry())
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	h.RegisterHealthCheck(router, nil)
	return router, h, repo
}

func do(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestSearchProducts(t *testing.T) {
	router, _, _ := newTestRouter(t)

	tests := []struct {
		name    string
		url     string
		wantLen int
	}{
		{"all", "/api/products/search", 5},
		{"by name", "/api/products/search?name=chair", 1},
		{"by category", "/api/products/search?category=Electronics", 3},
		{"no match", "/api/products/search?name=nomatch", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, router, httptest.NewRequest(http.MethodGet, tt.url, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var products []domain.Product
			require.NoError(t, json.Unmarshal(env.Data, &products))
			assert.Len(t, products, tt.wantLen)
		})
	}
}

func TestUpdateProductPartialPatch(t *testing.T) {
	router, _, repo := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/products/1", strings.NewReader(`{"stock":0,"brand":""}`))
	req.Header.Set(ActorHeader, "alice")
	rec, env := do(t, router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var product domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, domain.StatusOutOfStock, product.Status)
	assert.Empty(t, product.Brand)
	assert.Equal(t, "Wireless Headphones", product.Name)

	logs, err := repo.FindLogs(req.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", logs[0].ChangedBy)
}

func TestUpdateProductErrors(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec, env := do(t, router, httptest.NewRequest(http.MethodPut, "/api/products/99", strings.NewReader(`{"stock":1}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodPut, "/api/products/1", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodPut, "/api/products/0", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndDeleteProduct(t *testing.T) {
	router, h, _ := newTestRouter(t)

	rec, env := do(t, router, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Desk Lamp","stock":3,"status":"Out of Stock"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, uint(6), created.ID)
	assert.Equal(t, domain.StatusInStock, created.Status)
	assert.Equal(t, float64(6), testutil.ToFloat64(h.totalProducts))

	rec, _ = do(t, router, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"stock":3}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodDelete, "/api/products/6", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodDelete, "/api/products/6", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistory(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/api/products/1/history", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var logs []domain.InventoryLog
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, 110, logs[0].NewStock)
}

func TestImportAndExport(t *testing.T) {
	router, _, _ := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("name,stock\nDesk Lamp,2\nErgonomic Chair,1\n"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, env := do(t, router, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, []domain.Duplicate{{Name: "Ergonomic Chair", ExistingID: 2}}, result.Duplicates)

	rec, _ = do(t, router, httptest.NewRequest(http.MethodGet, "/api/products/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products.csv")
	assert.Contains(t, rec.Body.String(), "Desk Lamp")
}

func TestImportRejectsMissingFileAndEmptyCSV(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec, _ := do(t, router, httptest.NewRequest(http.MethodPost, "/api/products/import", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_, err := mw.CreateFormFile("file", "empty.csv")
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec, _ = do(t, router, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, h, _ := newTestRouter(t)

	rec, env := do(t, router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	do(t, router, httptest.NewRequest(http.MethodGet, "/api/products/search", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(h.requestCounter.WithLabelValues(http.MethodGet, "/api/products/search", "200")))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(domain.MutationError("delete", 1, domain.ErrNotFound)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.ErrInvalidInput))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(domain.ImportError(assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(assert.AnError))
}
