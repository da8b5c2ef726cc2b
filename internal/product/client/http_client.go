package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

// ActorHeader names the operator recorded in the inventory log
const ActorHeader = "X-Actor"

// BreakerConfig tunes the circuit breaker in front of the backend
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Config holds the REST client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	Actor   string
	Breaker BreakerConfig
}

// Client is a domain.DataService over the inventory REST API
type Client struct {
	baseURL    string
	actor      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

var _ domain.DataService = (*Client)(nil)

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend answered %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code onto the domain sentinels
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusUnprocessableEntity:
		return domain.ErrImport
	default:
		return nil
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// New creates a new REST client
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	st := gobreaker.Settings{
		Name:        "inventory-backend",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 4xx answers are the caller's problem, not an unhealthy backend.
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Logger.Warn().
				Str("circuit", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		actor:   cfg.Actor,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](st),
	}
}

func (c *Client) List(ctx context.Context, query, category string) ([]domain.Product, error) {
	params := url.Values{}
	if query != "" {
		params.Set("name", query)
	}
	if category != "" {
		params.Set("category", category)
	}
	path := "/api/products/search"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var products []domain.Product
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, domain.FetchError("list", 0, err)
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

func (c *Client) Update(ctx context.Context, id uint, patch domain.ProductPatch) (*domain.Product, error) {
	var product domain.Product
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), patch, &product); err != nil {
		return nil, domain.MutationError("update", id, err)
	}
	product.Normalize()
	return &product, nil
}

func (c *Client) Delete(ctx context.Context, id uint) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil); err != nil {
		return domain.MutationError("delete", id, err)
	}
	return nil
}

func (c *Client) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	var product domain.Product
	if err := c.doJSON(ctx, http.MethodPost, "/api/products", input, &product); err != nil {
		return nil, domain.MutationError("create", 0, err)
	}
	product.Normalize()
	return &product, nil
}

func (c *Client) History(ctx context.Context, id uint) ([]domain.InventoryLog, error) {
	var logs []domain.InventoryLog
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d/history", id), nil, &logs); err != nil {
		return nil, domain.FetchError("history", id, err)
	}
	return logs, nil
}

func (c *Client) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.csv")
	if err != nil {
		return nil, domain.ImportError(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, domain.ImportError(fmt.Errorf("failed to read import file: %w", err))
	}
	if err := mw.Close(); err != nil {
		return nil, domain.ImportError(err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/products/import", &body, mw.FormDataContentType())
	if err != nil {
		return nil, domain.ImportError(err)
	}
	defer resp.Body.Close()

	var result domain.ImportResult
	if err := decodeEnvelope(resp.Body, &result); err != nil {
		return nil, domain.ImportError(err)
	}
	return &result, nil
}

func (c *Client) Export(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/products/export", nil, "")
	if err != nil {
		return domain.ExportError(err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return domain.ExportError(fmt.Errorf("failed to copy export: %w", err))
	}
	return nil
}

// doJSON sends payload as JSON and decodes the envelope's data into out
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp.Body, out)
}

// do runs one request through the circuit breaker. Non-2xx answers come back
// as *StatusError with the body already closed.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(ActorHeader, c.actorFor(ctx))

	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			defer resp.Body.Close()
			var env envelope
			_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)
			message := env.Error
			if message == "" {
				message = http.StatusText(resp.StatusCode)
			}
			return nil, &StatusError{Code: resp.StatusCode, Message: message}
		}
		return resp, nil
	})
}

func (c *Client) actorFor(ctx context.Context) string {
	if actor := domain.ActorFrom(ctx); actor != domain.DefaultActor || c.actor == "" {
		return actor
	}
	return c.actor
}

func decodeEnvelope(r io.Reader, out any) error {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("backend reported failure: %s", env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
