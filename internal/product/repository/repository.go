package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tair/inventory-console/internal/product/domain"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{}, &domain.InventoryLog{})
}

// Search filters by case-insensitive name substring and exact category, ordered by id.
func (r *GormProductRepository) Search(ctx context.Context, name, category string) ([]domain.Product, error) {
	tx := r.db.WithContext(ctx).Order("id")
	if name != "" {
		tx = tx.Where("name ILIKE ?", "%"+escapeLike(name)+"%")
	}
	if category != "" {
		tx = tx.Where("category = ?", category)
	}

	var products []domain.Product
	if err := tx.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.Search(ctx, "", "")
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		Order("id").
		First(&product).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	product.Normalize()
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product, entry *domain.InventoryLog) error {
	product.Normalize()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(product).Select("*").Omit("created_at").Updates(product)
		if res.Error != nil {
			return fmt.Errorf("failed to save product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if entry == nil {
			return nil
		}
		entry.ProductID = product.ID
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append inventory log: %w", err)
		}
		return nil
	})
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Where("product_id = ?", id).Delete(&domain.InventoryLog{}).Error
	})
}

// FindLogs returns the product's inventory log, most recent first.
func (r *GormProductRepository) FindLogs(ctx context.Context, productID uint) ([]domain.InventoryLog, error) {
	var logs []domain.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("timestamp DESC, id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
