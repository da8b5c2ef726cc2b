// Package usecase groups the product command and query handlers.
package usecase

import (
	"github.com/tair/inventory-console/internal/product/domain"
	"github.com/tair/inventory-console/internal/product/usecase/command"
	"github.com/tair/inventory-console/internal/product/usecase/query"
)

// UseCases is the full set of handlers served by the REST API and the local service
type UseCases struct {
	Create *command.CreateProductHandler
	Update *command.UpdateProductHandler
	Delete *command.DeleteProductHandler
	Import *command.ImportProductsHandler

	List    *query.ListProductsHandler
	History *query.GetHistoryHandler
	Export  *query.ExportProductsHandler
}

// New builds every handler on top of repo. publisher may be nil.
func New(repo domain.ProductRepository, publisher command.StockEventPublisher) *UseCases {
	return NewUseCases(
		command.NewCreateProductHandler(repo),
		command.NewUpdateProductHandler(repo, publisher),
		command.NewDeleteProductHandler(repo),
		command.NewImportProductsHandler(repo),
		query.NewListProductsHandler(repo),
		query.NewGetHistoryHandler(repo),
		query.NewExportProductsHandler(repo),
	)
}

// NewUseCases is the provider used by Wire
func NewUseCases(
	create *command.CreateProductHandler,
	update *command.UpdateProductHandler,
	del *command.DeleteProductHandler,
	imp *command.ImportProductsHandler,
	list *query.ListProductsHandler,
	history *query.GetHistoryHandler,
	export *query.ExportProductsHandler,
) *UseCases {
	return &UseCases{
		Create:  create,
		Update:  update,
		Delete:  del,
		Import:  imp,
		List:    list,
		History: history,
		Export:  export,
	}
}
