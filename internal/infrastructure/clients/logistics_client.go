package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/resilience"
)

type transferRequest struct {
	ProductList []domain.ProductLine `json:"productList"`
}

// LogisticsClient reports finished transfers to the logistics service
type LogisticsClient struct {
	logistics *downstream
}

var _ domain.TransferGateway = (*LogisticsClient)(nil)

func NewLogisticsClient(config Config, breakers *resilience.CircuitBreakerRegistry, logger *logging.Logger, metrics Metrics) *LogisticsClient {
	return &LogisticsClient{logistics: newDownstream(config, breakers, logger, metrics)}
}

// RequestTransfer sends one transfer request. Non-2xx answers are errors.
func (c *LogisticsClient) RequestTransfer(ctx context.Context, caller domain.Caller, lines []domain.ProductLine) error {
	resp, err := c.logistics.call(ctx, caller, "shelf_transfer", func(r *resty.Request) *resty.Request {
		return r.SetHeader("Content-Type", "application/json").
			SetBody(transferRequest{ProductList: lines})
	}, http.MethodPut, "/shelf/transfer")
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("logistics rejected transfer with status %d", resp.StatusCode())
	}
	return nil
}
