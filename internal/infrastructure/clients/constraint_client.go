package clients

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/resilience"
)

type shelfResponse struct {
	CodShelf    string       `json:"codShelf"`
	ProductList []shelfStock `json:"productList"`
}

type shelfStock struct {
	CodProduct string  `json:"codProduct"`
	Stock      float64 `json:"stock"`
}

// ConstraintClient checks product lines against the product catalog and the
// shelf service
type ConstraintClient struct {
	products *downstream
	shelves  *downstream
}

var _ domain.ConstraintChecker = (*ConstraintClient)(nil)

func NewConstraintClient(product, shelf Config, breakers *resilience.CircuitBreakerRegistry, logger *logging.Logger, metrics Metrics) *ConstraintClient {
	return &ConstraintClient{
		products: newDownstream(product, breakers, logger, metrics),
		shelves:  newDownstream(shelf, breakers, logger, metrics),
	}
}

// CheckProduct answers OK for any 2xx from the catalog
func (c *ConstraintClient) CheckProduct(ctx context.Context, caller domain.Caller, codProduct string) (domain.ConstraintOutcome, error) {
	resp, err := c.products.call(ctx, caller, "get_product", func(r *resty.Request) *resty.Request {
		return r.SetPathParam("codProduct", codProduct)
	}, http.MethodGet, "/{codProduct}")
	if err != nil {
		return domain.OutcomeTransportError, err
	}
	if !resp.IsSuccess() {
		return domain.OutcomeProductNotFound, nil
	}
	return domain.OutcomeOK, nil
}

// CheckShelf checks the shelf exists. Goods leaving it must also be on it
// in sufficient stock.
func (c *ConstraintClient) CheckShelf(ctx context.Context, caller domain.Caller, shelfID, codProduct string, quantity int, direction domain.ShelfDirection) (domain.ConstraintOutcome, error) {
	resp, err := c.shelves.call(ctx, caller, "get_shelf", func(r *resty.Request) *resty.Request {
		return r.SetPathParam("shelfId", shelfID)
	}, http.MethodGet, "/shelf/{shelfId}")
	if err != nil {
		return domain.OutcomeTransportError, err
	}
	if !resp.IsSuccess() {
		return domain.OutcomeShelfNotFound, nil
	}
	if direction == domain.DirectionTo {
		return domain.OutcomeOK, nil
	}

	var shelf shelfResponse
	if err := c.shelves.decode("get_shelf", resp, &shelf); err != nil {
		return domain.OutcomeTransportError, err
	}
	return stockOutcome(shelf, codProduct, quantity), nil
}

func stockOutcome(shelf shelfResponse, codProduct string, quantity int) domain.ConstraintOutcome {
	for _, entry := range shelf.ProductList {
		if entry.CodProduct != codProduct {
			continue
		}
		if entry.Stock-float64(quantity) < 0 {
			return domain.OutcomeInsufficientStock
		}
		return domain.OutcomeOK
	}
	return domain.OutcomeProductNotOnShelf
}
