package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/inventory-console/internal/product/domain"
)

var tracer = otel.Tracer("product-repository")

// TracingRepository wraps a ProductRepository with a span per call
type TracingRepository struct {
	next domain.ProductRepository
}

// NewTracingRepository creates a new repository with tracing
func NewTracingRepository(next domain.ProductRepository) *TracingRepository {
	return &TracingRepository{next: next}
}

// Search with tracing
func (r *TracingRepository) Search(ctx context.Context, name, category string) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.Search",
		trace.WithAttributes(
			attribute.String("query.name", name),
			attribute.String("query.category", category),
		),
	)
	defer span.End()

	products, err := r.next.Search(ctx, name, category)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return products, nil
}

// FindAll with tracing
func (r *TracingRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll")
	defer span.End()

	products, err := r.next.FindAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(products)))
	return products, nil
}

// FindByID with tracing
func (r *TracingRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	product, err := r.next.FindByID(ctx, id)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("product.name", product.Name),
		attribute.Int("product.stock", product.Stock),
	)
	return product, nil
}

// FindByName with tracing
func (r *TracingRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByName",
		trace.WithAttributes(
			attribute.String("product.name", name),
		),
	)
	defer span.End()

	product, err := r.next.FindByName(ctx, name)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.id", int(product.ID)))
	return product, nil
}

// Create with tracing
func (r *TracingRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.name", product.Name),
			attribute.String("product.category", product.Category),
			attribute.Int("product.stock", product.Stock),
		),
	)
	defer span.End()

	if err := r.next.Create(ctx, product); err != nil {
		recordError(span, err)
		return err
	}

	span.SetAttributes(attribute.Int("product.id", int(product.ID)))
	return nil
}

// Update with tracing
func (r *TracingRepository) Update(ctx context.Context, product *domain.Product, entry *domain.InventoryLog) error {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int("product.id", int(product.ID)),
			attribute.Int("product.stock", product.Stock),
			attribute.Bool("inventory_log.appended", entry != nil),
		),
	)
	defer span.End()

	if err := r.next.Update(ctx, product, entry); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Delete with tracing
func (r *TracingRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(
			attribute.Int("product.id", int(id)),
		),
	)
	defer span.End()

	if err := r.next.Delete(ctx, id); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// FindLogs with tracing
func (r *TracingRepository) FindLogs(ctx context.Context, productID uint) ([]domain.InventoryLog, error) {
	ctx, span := tracer.Start(ctx, "repository.FindLogs",
		trace.WithAttributes(
			attribute.Int("product.id", int(productID)),
		),
	)
	defer span.End()

	logs, err := r.next.FindLogs(ctx, productID)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(logs)))
	return logs, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
