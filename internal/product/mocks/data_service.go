package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/tair/inventory-console/internal/product/domain"
)

type DataService struct {
	mock.Mock
}

func (m *DataService) List(ctx context.Context, query, category string) ([]domain.Product, error) {
	args := m.Called(ctx, query, category)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *DataService) Update(ctx context.Context, id uint, patch domain.ProductPatch) (*domain.Product, error) {
	args := m.Called(ctx, id, patch)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

func (m *DataService) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *DataService) Create(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, input)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

func (m *DataService) History(ctx context.Context, id uint) ([]domain.InventoryLog, error) {
	args := m.Called(ctx, id)
	logs, _ := args.Get(0).([]domain.InventoryLog)
	return logs, args.Error(1)
}

func (m *DataService) Import(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	args := m.Called(ctx, r)
	result, _ := args.Get(0).(*domain.ImportResult)
	return result, args.Error(1)
}

func (m *DataService) Export(ctx context.Context, w io.Writer) error {
	return m.Called(ctx, w).Error(0)
}
