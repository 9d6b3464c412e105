package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_resty_request  = "resty.request"
	report_resty_response = "resty.response"
)

type instrumentResty struct {
	provider  string
	tel       API
	output    Output
	tracer    trace.Tracer
	idcounter *uint64
}

// InstrumentResty reports every request of client under the provider label:
// debug lines, upstream counters, a span per request and, when output is not
// nil, a full dump of the exchange.
func InstrumentResty(client *resty.Client, provider string, tel API, output Output) {
	var idcounter uint64
	i := instrumentResty{
		provider:  provider,
		tel:       tel,
		output:    output,
		tracer:    otel.Tracer(fmt.Sprintf("upstream/%s", provider)),
		idcounter: &idcounter,
	}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id        uint64
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	id := atomic.AddUint64(i.idcounter, 1)
	ctx, _ := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
	ctx = context.WithValue(ctx, reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_resty_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	outcome := OutcomeOk
	if res.IsError() {
		outcome = OutcomeHttpError
	}
	upstreamRequests.WithLabelValues(i.provider, outcome).Inc()

	ctx := res.Request.Context()
	reqCtx, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		return nil
	}

	span := trace.SpanFromContext(ctx)
	defer span.End()
	if outcome != OutcomeOk {
		span.SetStatus(codes.Error, res.Status())
	}
	span.SetAttributes(
		attribute.String("http.request.method", res.Request.Method),
		attribute.String("url.full", redactUrl(res.Request.URL)),
		attribute.Int("http.response.status_code", res.StatusCode()),
	)

	duration := time.Since(reqCtx.startTime)
	upstreamDuration.WithLabelValues(i.provider).Observe(duration.Seconds())

	i.tel.ReportDebug(
		report_resty_response,
		reqCtx.id,
		duration.String(),
		res.Status(),
	)
	if i.output != nil {
		i.output.Write(fmt.Sprintf("%s-%d.txt", i.provider, reqCtx.id), formatHttpMessage(res))
	}

	return nil
}

// errors are reported as warnings by the clients themselves, this only keeps
// the metrics and spans complete.
func (i instrumentResty) onError(req *resty.Request, err error) {
	upstreamRequests.WithLabelValues(i.provider, OutcomeFailed).Inc()
	err = redactError(err)

	ctx := req.Context()
	reqCtx, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		// the request never got past the rate limiter, so no span was started
		i.tel.ReportDebug(report_resty_response, req.Method, redactUrl(req.URL), err)
		return
	}

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, "request failed")
	span.End()

	i.tel.ReportDebug(
		report_resty_response,
		reqCtx.id,
		time.Since(reqCtx.startTime).String(),
		err,
	)
}
