package application

import (
	"context"
	"sync"
	"time"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/logging"
)

const defaultNotifyTimeout = 10 * time.Second

// CompletionNotifier tells logistics about the goods of completed tasks. It
// runs detached from the request: callers get no result and failures are
// only logged.
type CompletionNotifier struct {
	gateway domain.TransferGateway
	timeout time.Duration
	metrics Metrics
	logger  *logging.Logger
	wg      sync.WaitGroup
}

// NewCompletionNotifier creates a CompletionNotifier
func NewCompletionNotifier(gateway domain.TransferGateway, timeout time.Duration, metrics Metrics, logger *logging.Logger) *CompletionNotifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &CompletionNotifier{
		gateway: gateway,
		timeout: timeout,
		metrics: metrics,
		logger:  logger.WithComponent("completion-notifier"),
	}
}

// Notify sends one transfer request in the background and returns at once.
// The request outlives ctx cancellation but keeps its values for tracing.
func (n *CompletionNotifier) Notify(ctx context.Context, caller domain.Caller, codTask string, lines []domain.ProductLine) {
	snapshot := append([]domain.ProductLine(nil), lines...)
	detached := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()

		if err := n.gateway.RequestTransfer(ctx, caller, snapshot); err != nil {
			n.metrics.RecordNotification(false)
			n.logger.WithContext(ctx).WithError(err).Error("Failed to notify logistics of completed task",
				"codTask", codTask,
				"lines", len(snapshot),
			)
			return
		}

		n.metrics.RecordNotification(true)
		n.logger.WithContext(ctx).Info("Notified logistics of completed task", "codTask", codTask)
	}()
}

// Wait blocks until in-flight notifications finish. Used at shutdown.
func (n *CompletionNotifier) Wait() {
	n.wg.Wait()
}
