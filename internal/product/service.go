package product

import (
	"context"
	"io"
	"time"

	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/usecase"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/internal/product/usecase/query"
)

// Latency is the artificial delay added before each LocalService operation.
type Latency struct {
	List    time.Duration
	Update  time.Duration
	Delete  time.Duration
	Create  time.Duration
	History time.Duration
	Import  time.Duration
	Export  time.Duration
}

// DemoLatency mimics a slow remote backend.
func DemoLatency() Latency {
	return Latency{
		List:    600 * time.Millisecond,
		Update:  500 * time.Millisecond,
		Delete:  400 * time.Millisecond,
		Create:  500 * time.Millisecond,
		History: 400 * time.Millisecond,
		Import:  time.Second,
	}
}

// LocalService is an in-process domain.DataService over the product use cases.
type LocalService struct {
	uc      *usecase.UseCases
	latency Latency
}

var _ domain.DataService = (*LocalService)(nil)

func NewLocalService(uc *usecase.UseCases, latency Latency) *LocalService {
	return &LocalService{uc: uc, latency: latency}
}

func (s *LocalService) List(ctx context.Context, q, category string) ([]domain.Product, error) {
	if err := wait(ctx, s.latency.List); err != nil {
		return nil, domain.FetchError("list", 0, err)
	}
	products, err := s.uc.List.Handle(ctx, query.ListProductsQuery{Name: q, Category: category})
	if err != nil {
		return nil, domain.FetchError("list", 0, err)
	}
	return products, nil
}

func (s *LocalService) Update(ctx context.Context, id uint, patch domain.ProductPatch) (*domain.Product, error) {
	if err := wait(ctx, s.latency.Update); err != nil {
		return nil, domain.MutationError("update", id, err)
	}
	product, err := s.uc.Update.Handle(ctx, command.UpdateProductCommand{ID: id, Patch: patch})
	if err != nil {
		return nil, domain.MutationError("update", id, err)
	}
	return product, nil
}

func (s *LocalService) Delete(ctx context.Context, id uint) error {
	if err := wait(ctx, s.latency.Delete); err != nil {
		return domain.MutationError("delete", id, err)
	}
	if err := s.uc.Delete.Handle(ctx, command.DeleteProductCommand{ID: id}); err != nil {
		return domain.MutationError("delete", id, err)
	}
	return nil
}

func (s *LocalService) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	if err := wait(ctx, s.latency.Create); err != nil {
		return nil, domain.MutationError("create", 0, err)
	}
	product, err := s.uc.Create.Handle(ctx, command.CreateProductCommand{Input: input})
	if err != nil {
		return nil, domain.MutationError("create", 0, err)
	}
	return product, nil
}

func (s *LocalService) History(ctx context.Context, id uint) ([]domain.InventoryLog, error) {
	if err := wait(ctx, s.latency.History); err != nil {
		return nil, domain.FetchError("history", id, err)
	}
	logs, err := s.uc.History.Handle(ctx, query.GetHistoryQuery{ProductID: id})
	if err != nil {
		return nil, domain.FetchError("history", id, err)
	}
	return logs, nil
}

func (s *LocalService) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	if err := wait(ctx, s.latency.Import); err != nil {
		return nil, domain.ImportError(err)
	}
	result, err := s.uc.Import.Handle(ctx, command.ImportProductsCommand{File: r})
	if err != nil {
		return nil, domain.ImportError(err)
	}
	return result, nil
}

func (s *LocalService) Export(ctx context.Context, w io.Writer) error {
	if err := wait(ctx, s.latency.Export); err != nil {
		return domain.ExportError(err)
	}
	if err := s.uc.Export.Handle(ctx, w); err != nil {
		return domain.ExportError(err)
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
