package domain

import (
	"context"
	"strings"
	"time"
)

// Status is the availability label shown next to a product
type Status string

const (
	StatusInStock    Status = "In Stock"
	StatusOutOfStock Status = "Out of Stock"
)

// DeriveStatus is the only place where stock is turned into a status.
func DeriveStatus(stock int) Status {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product represents the product entity
type Product struct {
	ID        uint      `json:"id" gorm:"primaryKey" csv:"id"`
	Name      string    `json:"name" gorm:"not null;index" csv:"name"`
	Image     string    `json:"image" csv:"image"`
	Unit      string    `json:"unit" csv:"unit"`
	Category  string    `json:"category" gorm:"index" csv:"category"`
	Brand     string    `json:"brand" csv:"brand"`
	Stock     int       `json:"stock" gorm:"not null;default:0" csv:"stock"`
	Status    Status    `json:"status" gorm:"not null" csv:"status"`
	CreatedAt time.Time `json:"-" csv:"-"`
	UpdatedAt time.Time `json:"-" csv:"-"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// IsAvailable checks if product is in stock
func (p *Product) IsAvailable() bool {
	return DeriveStatus(p.Stock) == StatusInStock
}

// Normalize recomputes the derived status, ignoring whatever status was supplied.
func (p *Product) Normalize() {
	p.Status = DeriveStatus(p.Stock)
}

// Matches reports whether the product satisfies a name/category filter:
// case-insensitive substring on name, exact match on category.
func (p *Product) Matches(query, category string) bool {
	if query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
		return false
	}
	if category != "" && p.Category != category {
		return false
	}
	return true
}

// ProductInput carries the fields of a product that does not exist yet.
type ProductInput struct {
	Name     string `json:"name" validate:"required,max=200" csv:"name"`
	Image    string `json:"image" validate:"max=500" csv:"image"`
	Unit     string `json:"unit" validate:"max=50" csv:"unit"`
	Category string `json:"category" validate:"max=100" csv:"category"`
	Brand    string `json:"brand" validate:"max=100" csv:"brand"`
	Stock    int    `json:"stock" validate:"min=0" csv:"stock"`
}

// ToProduct builds an unsaved product from the input.
func (in ProductInput) ToProduct() Product {
	p := Product{
		Name:     strings.TrimSpace(in.Name),
		Image:    in.Image,
		Unit:     in.Unit,
		Category: in.Category,
		Brand:    in.Brand,
		Stock:    in.Stock,
	}
	p.Normalize()
	return p
}

// ProductPatch is a partial update. A nil field is omitted; a non-nil field is
// written even when it points at the zero value.
type ProductPatch struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,max=200"`
	Image    *string `json:"image,omitempty" validate:"omitnil,max=500"`
	Unit     *string `json:"unit,omitempty" validate:"omitnil,max=50"`
	Category *string `json:"category,omitempty" validate:"omitnil,max=100"`
	Brand    *string `json:"brand,omitempty" validate:"omitnil,max=100"`
	Stock    *int    `json:"stock,omitempty"`
}

// IsEmpty reports whether the patch carries no field at all.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Image == nil && p.Unit == nil &&
		p.Category == nil && p.Brand == nil && p.Stock == nil
}

// ApplyTo merges the patch into product and recomputes the status.
func (p ProductPatch) ApplyTo(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.Unit != nil {
		product.Unit = *p.Unit
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	product.Normalize()
}

// ProductRepository defines the contract for product data access
type ProductRepository interface {
	Search(ctx context.Context, name, category string) ([]Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	FindByID(ctx context.Context, id uint) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	// Update saves product and, when entry is not nil, appends it to the
	// product's inventory log in the same unit of work.
	Update(ctx context.Context, product *Product, entry *InventoryLog) error
	Delete(ctx context.Context, id uint) error
	FindLogs(ctx context.Context, productID uint) ([]InventoryLog, error)
}
