package http

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tair/inventory-console/internal/console"
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/pkg/logger"
)

// Response is the envelope of every JSON answer
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QueryRequest changes the search text and/or category. Absent fields keep
// their current value.
type QueryRequest struct {
	Text     *string `json:"text"`
	Category *string `json:"category"`
}

// PageRequest moves to an explicit page or one step with action next/prev
type PageRequest struct {
	Page   int    `json:"page"`
	Action string `json:"action"`
}

type SortRequest struct {
	Sort string `json:"sort"`
}

// ConsoleHandler serves the console engine over HTTP
type ConsoleHandler struct {
	console  *console.Console
	feed     *console.Feed
	gatherer prometheus.Gatherer
}

// NewConsoleHandler creates a handler. gatherer backs /metrics and may be nil.
func NewConsoleHandler(c *console.Console, feed *console.Feed, gatherer prometheus.Gatherer) *ConsoleHandler {
	return &ConsoleHandler{console: c, feed: feed, gatherer: gatherer}
}

// NewApp creates a fiber app with the console middleware chain and routes
func NewApp(h *ConsoleHandler, readTimeout, writeTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Inventory Console",
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New())
	app.Use(TracingMiddleware())
	app.Use(LoggingMiddleware())
	app.Use(ActorMiddleware())

	h.RegisterRoutes(app)
	return app
}

func (h *ConsoleHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	if h.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/view", h.GetView)
	api.Patch("/query", h.SetQuery)
	api.Post("/page", h.SetPage)
	api.Post("/sort", h.SetSort)

	api.Post("/edit/save", h.SaveEdit)
	api.Post("/edit/:id<int>", h.StartEdit)
	api.Patch("/edit", h.SetEditFields)
	api.Delete("/edit", h.CancelEdit)

	api.Post("/products", h.CreateProduct)
	api.Delete("/products/:id<int>", h.DeleteProduct)
	api.Get("/products/:id<int>/history", h.GetHistory)

	api.Post("/import", h.Import)
	api.Get("/export", h.Export)

	api.Get("/notifications", h.Notifications)
	api.Delete("/notifications/:id<int>", h.DismissNotification)
}

// GetView handles GET /api/view
func (h *ConsoleHandler) GetView(c *fiber.Ctx) error {
	return c.JSON(Response{Success: true, Data: h.console.View()})
}

// SetQuery handles PATCH /api/query. The load happens after the debounce window.
func (h *ConsoleHandler) SetQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	q := h.console.Coordinator().Query()
	if req.Text != nil {
		q.Text = *req.Text
	}
	if req.Category != nil {
		q.Category = *req.Category
	}
	h.console.Coordinator().Set(q)

	return c.Status(fiber.StatusAccepted).JSON(Response{
		Success: true,
		Message: "Query scheduled",
		Data:    q,
	})
}

// SetPage handles POST /api/page
func (h *ConsoleHandler) SetPage(c *fiber.Ctx) error {
	var req PageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	pager := h.console.Pager()
	switch req.Action {
	case "next":
		pager.Next()
	case "prev":
		pager.Prev()
	case "":
		if err := pager.GoTo(req.Page); err != nil {
			return respondFailure(c, err)
		}
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Unknown page action")
	}

	return c.JSON(Response{Success: true, Data: h.console.View()})
}

// SetSort handles POST /api/sort
func (h *ConsoleHandler) SetSort(c *fiber.Ctx) error {
	var req SortRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.console.SetSort(req.Sort); err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{Success: true, Data: h.console.View()})
}

// StartEdit handles POST /api/edit/:id
func (h *ConsoleHandler) StartEdit(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	buf, err := h.console.Edit().Start(id)
	if err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{Success: true, Data: buf})
}

// SetEditFields handles PATCH /api/edit with a field→value object
func (h *ConsoleHandler) SetEditFields(c *fiber.Ctx) error {
	var fields map[string]string
	if err := c.BodyParser(&fields); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	buf, err := h.console.Edit().SetAll(fields)
	if err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{Success: true, Data: buf})
}

// SaveEdit handles POST /api/edit/save
func (h *ConsoleHandler) SaveEdit(c *fiber.Ctx) error {
	product, err := h.console.Edit().Save(c.UserContext())
	if err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// CancelEdit handles DELETE /api/edit
func (h *ConsoleHandler) CancelEdit(c *fiber.Ctx) error {
	h.console.Edit().Cancel()
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateProduct handles POST /api/products
func (h *ConsoleHandler) CreateProduct(c *fiber.Ctx) error {
	var input domain.ProductInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	product, err := h.console.Create(c.UserContext(), input)
	if err != nil {
		return respondFailure(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/products/:id
func (h *ConsoleHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.console.Delete(c.UserContext(), id); err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{Success: true, Message: "Product deleted successfully"})
}

// GetHistory handles GET /api/products/:id/history
func (h *ConsoleHandler) GetHistory(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	history, err := h.console.History(c.UserContext(), id)
	if err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{Success: true, Data: history})
}

// Import handles POST /api/import with a multipart "file" field
func (h *ConsoleHandler) Import(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}
	file, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable file")
	}
	defer file.Close()

	result, err := h.console.Import(c.UserContext(), file)
	if err != nil {
		return respondFailure(c, err)
	}
	return c.JSON(Response{
		Success: true,
		Message: console.ImportSummary(result),
		Data:    result,
	})
}

// Export handles GET /api/export
func (h *ConsoleHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.console.Export(c.UserContext(), &buf); err != nil {
		return respondFailure(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Attachment("products.csv")
	return c.Send(buf.Bytes())
}

// Notifications handles GET /api/notifications
func (h *ConsoleHandler) Notifications(c *fiber.Ctx) error {
	return c.JSON(Response{Success: true, Data: h.feed.Active()})
}

// DismissNotification handles DELETE /api/notifications/:id
func (h *ConsoleHandler) DismissNotification(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid notification ID")
	}
	if !h.feed.Dismiss(uint64(id)) {
		return fiber.NewError(fiber.StatusNotFound, "Notification not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Health handles GET /health
func (h *ConsoleHandler) Health(c *fiber.Ctx) error {
	return c.JSON(Response{Success: true, Message: "Inventory console is healthy"})
}

func productID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid product ID")
	}
	return uint(id), nil
}

// StatusFor maps an engine error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, console.ErrNotEditing):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrImport):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrMutation), errors.Is(err, domain.ErrExport):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func respondFailure(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	return c.Status(status).JSON(Response{Success: false, Error: err.Error()})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error(c.UserContext()).Err(err).Str("path", c.Path()).Msg("Unhandled console error")
	}
	return c.Status(code).JSON(Response{Success: false, Error: err.Error()})
}
