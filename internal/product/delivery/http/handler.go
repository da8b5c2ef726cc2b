package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/usecase"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/internal/product/usecase/query"
	"github.com/tair/inventory-console/pkg/logger"
)

const maxImportSize = 10 << 20

// ProductHandler handles HTTP requests for products using CQRS pattern
type ProductHandler struct {
	uc *usecase.UseCases

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestSummary *prometheus.SummaryVec
	totalProducts  prometheus.Gauge
}

// NewProductHandler creates a new product handler and registers its metrics with reg
func NewProductHandler(uc *usecase.UseCases, reg prometheus.Registerer) *ProductHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_requests_total",
			Help: "Total number of requests to inventory service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_service_request_duration_seconds",
			Help:    "Duration of inventory service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Summary metric for percentile calculation (p50, p90, p95, p99)
	requestSummary := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "inventory_service_request_duration_summary",
			Help: "Summary of request durations with percentiles (client-side quantiles)",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)

	totalProducts := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_service_total_products",
			Help: "Total number of products in the system",
		},
	)

	reg.MustRegister(requestCounter, requestLatency, requestSummary, totalProducts)

	return &ProductHandler{
		uc:             uc,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		requestSummary: requestSummary,
		totalProducts:  totalProducts,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *ProductHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	router.Use(ActorMiddleware)

	router.HandleFunc("/api/products/search", h.metricsMiddleware("/api/products/search", h.SearchProducts)).Methods(http.MethodGet)
	router.HandleFunc("/api/products/export", h.metricsMiddleware("/api/products/export", h.ExportProducts)).Methods(http.MethodGet)
	router.HandleFunc("/api/products/import", h.metricsMiddleware("/api/products/import", h.ImportProducts)).Methods(http.MethodPost)
	router.HandleFunc("/api/products", h.metricsMiddleware("/api/products", h.CreateProduct)).Methods(http.MethodPost)
	router.HandleFunc("/api/products/{id:[0-9]+}", h.metricsMiddleware("/api/products/{id}", h.UpdateProduct)).Methods(http.MethodPut)
	router.HandleFunc("/api/products/{id:[0-9]+}", h.metricsMiddleware("/api/products/{id}", h.DeleteProduct)).Methods(http.MethodDelete)
	router.HandleFunc("/api/products/{id:[0-9]+}/history", h.metricsMiddleware("/api/products/{id}/history", h.GetHistory)).Methods(http.MethodGet)
}

// SearchProducts handles GET /api/products/search?name=&category=
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := query.ListProductsQuery{
		Name:     r.URL.Query().Get("name"),
		Category: r.URL.Query().Get("category"),
	}

	products, err := h.uc.List.Handle(r.Context(), q)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to search products")
		respondFailure(w, err, "Failed to search products")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
	})
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.uc.Create.Handle(r.Context(), command.CreateProductCommand{Input: input})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		respondFailure(w, err, "Failed to create product")
		return
	}

	h.updateProductsMetric(r.Context())

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// UpdateProduct handles PUT /api/products/{id}. Only fields present in the body are written.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.uc.Update.Handle(r.Context(), command.UpdateProductCommand{ID: id, Patch: patch})
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("product_id", id).Msg("Failed to update product")
		respondFailure(w, err, "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.uc.Delete.Handle(r.Context(), command.DeleteProductCommand{ID: id}); err != nil {
		logger.Error(r.Context()).Err(err).Uint("product_id", id).Msg("Failed to delete product")
		respondFailure(w, err, "Failed to delete product")
		return
	}

	h.updateProductsMetric(r.Context())

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// GetHistory handles GET /api/products/{id}/history
func (h *ProductHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	logs, err := h.uc.History.Handle(r.Context(), query.GetHistoryQuery{ProductID: id})
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("product_id", id).Msg("Failed to get history")
		respondFailure(w, err, "Failed to get history")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    logs,
	})
}

// ImportProducts handles POST /api/products/import with a multipart "file" field
func (h *ProductHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	result, err := h.uc.Import.Handle(r.Context(), command.ImportProductsCommand{File: file})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to import products")
		respondFailure(w, err, "Import failed")
		return
	}

	h.updateProductsMetric(r.Context())

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Import completed",
		Data:    result,
	})
}

// ExportProducts handles GET /api/products/export
func (h *ProductHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.uc.Export.Handle(r.Context(), &buf); err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to export products")
		respondFailure(w, err, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// RegisterHealthCheck serves /health; ping may be nil when there is no database.
func (h *ProductHandler) RegisterHealthCheck(router *mux.Router, ping func(ctx context.Context) error) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				respondError(w, http.StatusServiceUnavailable, "Database unavailable")
				return
			}
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Inventory service is healthy",
		})
	}).Methods(http.MethodGet)
}

// updateProductsMetric updates the total products gauge
func (h *ProductHandler) updateProductsMetric(ctx context.Context) {
	products, err := h.uc.List.Handle(ctx, query.ListProductsQuery{})
	if err == nil {
		h.totalProducts.Set(float64(len(products)))
	}
}

func productID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return uint(id), true
}

// StatusFor maps a use case error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrImport):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondFailure(w http.ResponseWriter, err error, fallback string) {
	status := StatusFor(err)
	message := fallback
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	respondError(w, status, message)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
