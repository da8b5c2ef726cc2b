// Package mocks holds testify mocks of the product contracts.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tair/inventory-console/internal/product/domain"
)

type ProductRepository struct {
	mock.Mock
}

func (m *ProductRepository) Search(ctx context.Context, name, category string) ([]domain.Product, error) {
	args := m.Called(ctx, name, category)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}

func (m *ProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

func (m *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	args := m.Called(ctx, name)
	product, _ := args.Get(0).(*domain.Product)
	return product, args.Error(1)
}

func (m *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *ProductRepository) Update(ctx context.Context, product *domain.Product, entry *domain.InventoryLog) error {
	return m.Called(ctx, product, entry).Error(0)
}

func (m *ProductRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProductRepository) FindLogs(ctx context.Context, productID uint) ([]domain.InventoryLog, error) {
	args := m.Called(ctx, productID)
	logs, _ := args.Get(0).([]domain.InventoryLog)
	return logs, args.Error(1)
}
