package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	producthttp "github.com/tair/inventory-console/internal/product/delivery/http"
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/repository"
	"github.com/tair/inventory-console/internal/product/usecase"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	repo := repository.NewMemoryRepository()
	h := producthttp.NewProductHandler(usecase.New(repo, nil), prometheus.NewRegistry())
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(baseURL string) *Client {
	return New(Config{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Actor:   "operator",
		Breaker: BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2},
	})
}

func TestClientAgainstBackend(t *testing.T) {
	// given
	c := newClient(newBackend(t).URL)
	ctx := context.Background()

	// when
	products, err := c.List(ctx, "", "Electronics")

	// then
	require.NoError(t, err)
	assert.Len(t, products, 3)

	stock := 0
	updated, err := c.Update(ctx, 1, domain.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, domain.StatusOutOfStock, updated.Status)

	logs, err := c.History(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, 0, logs[0].NewStock)
	assert.Equal(t, "operator", logs[0].ChangedBy)

	created, err := c.Create(ctx, domain.ProductInput{Name: "Desk Lamp", Category: "Furniture", Stock: 3})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.StatusInStock, created.Status)

	require.NoError(t, c.Delete(ctx, created.ID))
}

func TestClientActorFromContext(t *testing.T) {
	// given
	c := newClient(newBackend(t).URL)
	ctx := domain.WithActor(context.Background(), "alice")
	stock := 7

	// when
	_, err := c.Update(ctx, 3, domain.ProductPatch{Stock: &stock})

	// then
	require.NoError(t, err)
	logs, err := c.History(ctx, 3)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "alice", logs[0].ChangedBy)
}

func TestClientErrorKinds(t *testing.T) {
	c := newClient(newBackend(t).URL)
	ctx := context.Background()

	err := c.Delete(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrMutation)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Update(ctx, 99, domain.ProductPatch{})
	assert.ErrorIs(t, err, domain.ErrMutation)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.History(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrFetch)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.Create(ctx, domain.ProductInput{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrMutation)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClientImportExport(t *testing.T) {
	c := newClient(newBackend(t).URL)
	ctx := context.Background()

	// given
	file := "name,unit,category,brand,stock,status,image\n" +
		"wireless headphones,pcs,Electronics,Sony,5,In Stock,\n" +
		",pcs,Electronics,Logi,5,In Stock,\n" +
		"Bluetooth Speaker,pcs,Electronics,Sony,9,In Stock,\n"

	// when
	result, err := c.Import(ctx, strings.NewReader(file))

	// then
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, uint(1), result.Duplicates[0].ExistingID)

	var buf bytes.Buffer
	require.NoError(t, c.Export(ctx, &buf))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,image,unit,category,brand,stock,status"))
	assert.Contains(t, buf.String(), "Bluetooth Speaker")

	_, err = c.Import(ctx, strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrImport)
}

func TestClientBreakerIgnoresClientErrors(t *testing.T) {
	// given
	c := newClient(newBackend(t).URL)
	ctx := context.Background()

	// when
	for i := 0; i < 5; i++ {
		_ = c.Delete(ctx, 99)
	}

	// then
	_, err := c.List(ctx, "", "")
	assert.NoError(t, err)
}

func TestClientBreakerOpensOnServerErrors(t *testing.T) {
	// given
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)
	c := newClient(srv.URL)
	ctx := context.Background()

	// when
	for i := 0; i < 4; i++ {
		_, err := c.List(ctx, "", "")
		assert.ErrorIs(t, err, domain.ErrFetch)
	}

	// then
	assert.Equal(t, int32(2), calls.Load())
}
