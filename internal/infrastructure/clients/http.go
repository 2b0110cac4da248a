package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/logging"
	"github.com/wms-platform/task-control-service/pkg/resilience"
	"github.com/wms-platform/task-control-service/pkg/tracing"
)

const tracerName = "task-control-service/clients"

// Metrics records downstream latency
type Metrics interface {
	RecordDownstreamRequest(downstream, operation string, status int, duration time.Duration)
}

// Config describes one remote service
type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
}

// TransportError means the remote service could not be asked at all: the
// connection failed, timed out, the breaker was open or the answer was
// unreadable.
type TransportError struct {
	Service   string
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// downstream is a single remote service. Calls are never retried.
type downstream struct {
	name    string
	client  *resty.Client
	breaker *resilience.CircuitBreaker
	logger  *logging.Logger
	metrics Metrics
	tracer  trace.Tracer
}

func newDownstream(config Config, breakers *resilience.CircuitBreakerRegistry, logger *logging.Logger, metrics Metrics) *downstream {
	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(config.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &downstream{
		name:    config.Name,
		client:  client,
		breaker: breakers.Get(config.Name),
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// call sends one request with the caller's bearer token. A non-nil error is
// always a *TransportError; any HTTP status is a valid answer.
func (d *downstream) call(ctx context.Context, caller domain.Caller, operation string, build func(*resty.Request) *resty.Request, method, path string) (*resty.Response, error) {
	ctx, span := d.tracer.Start(ctx, d.name+" "+operation, trace.WithSpanKind(trace.SpanKindClient))

	req := build(d.client.R().SetContext(ctx))
	if caller != nil && caller.Credential() != "" {
		req.SetAuthToken(caller.Credential())
	}
	tracing.InjectHTTPHeaders(ctx, req.Header)

	start := time.Now()
	result, err := d.breaker.Execute(func() (interface{}, error) {
		return req.Execute(method, path)
	})
	duration := time.Since(start)

	status := 0
	var resp *resty.Response
	if err == nil {
		resp = result.(*resty.Response)
		status = resp.StatusCode()
		span.SetAttributes(tracing.DownstreamSpanAttributes(d.name, operation, resp.Request.URL)...)
	}

	if d.metrics != nil {
		d.metrics.RecordDownstreamRequest(d.name, operation, status, duration)
	}
	d.logger.DownstreamCall(ctx, d.name, operation, status, duration, err)
	tracing.EndSpan(span, err)

	if err != nil {
		return nil, &TransportError{Service: d.name, Operation: operation, Err: err}
	}
	return resp, nil
}

func (d *downstream) decode(operation string, resp *resty.Response, out interface{}) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &TransportError{Service: d.name, Operation: operation, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
