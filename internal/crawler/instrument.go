package crawler

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.13.0/httpconv"
	"go.opentelemetry.io/otel/trace"

	"regscrape/internal/logger"
)

const tracerName = "regscrape/crawler"

type requestIDKey struct{}

type instrumentation struct {
	tracer  trace.Tracer
	log     *logger.Logger
	counter *uint64
}

// instrument wraps every request of the client in a span and debug logs.
// Spans go to the global tracer provider, a no-op unless one is installed.
func instrument(client *resty.Client, log *logger.Logger) {
	var counter uint64

	i := instrumentation{
		tracer:  otel.Tracer(tracerName),
		log:     log,
		counter: &counter,
	}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentation) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, _ := i.tracer.Start(req.Context(), req.Method)

	id := strconv.FormatUint(atomic.AddUint64(i.counter, 1), 10)
	ctx = context.WithValue(ctx, requestIDKey{}, id)

	i.log.Debug("start request", "method", req.Method, "url", req.URL, "request_id", id)

	req.SetContext(ctx)

	return nil
}

func (i instrumentation) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)

	defer span.End()

	// RawRequest is only populated after the built-in middlewares ran.
	span.SetName(fmt.Sprintf("http %s", res.Request.Method))
	span.SetAttributes(httpconv.ClientRequest(res.Request.RawRequest)...)
	span.SetAttributes(httpconv.ClientResponse(res.RawResponse)...)

	i.log.Debug("request finished",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"elapsed", res.Time(),
		"request_id", requestID(ctx),
	)

	return nil
}

func (i instrumentation) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)

	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	span.SetName(fmt.Sprintf("http %s", req.Method))

	if req.RawRequest != nil {
		span.SetAttributes(httpconv.ClientRequest(req.RawRequest)...)
	}

	i.log.Debug("request failed", "method", req.Method, "url", req.URL, "error", err, "request_id", requestID(ctx))
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}

	return "-"
}
