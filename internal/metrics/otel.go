package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	promReaderFactory = prometheusComponents
	otlpReaderFactory = buildOTLPReader
	instrumentFactory = newOtelInstruments
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	Port         string
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and
// optional OTLP exporter. It returns a Recorder, the Prometheus HTTP handler,
// and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "livematch-service"
	}

	promReader, promHandler, err := promReaderFactory()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(promReader)}

	if cfg.OtlpEndpoint != "" {
		otlpReader, err := otlpReaderFactory(ctx, cfg.OtlpEndpoint, cfg.OtlpInsecure)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(otlpReader))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, nil, err
	}

	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)

	otelInst, err := instrumentFactory(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	rec := newRecorder(otelInst)
	shutdown := func(c context.Context) error {
		return provider.Shutdown(c)
	}

	return rec, promHandler, shutdown, nil
}

func buildOTLPReader(ctx context.Context, endpoint string, insecure bool) (sdkmetric.Reader, error) {
	otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if insecure {
		otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
	}
	otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second)), nil
}

type otelInstruments struct {
	ctx               context.Context
	meter             metric.Meter
	requests          metric.Int64Counter
	requestLatencyMs  metric.Float64Histogram
	providerAttempts  metric.Int64Counter
	providerErrors    metric.Int64Counter
	providerLatencyMs metric.Float64Histogram
	rateLimitHits     metric.Int64Counter
	retryAfterMs      metric.Float64Histogram
	fetchCycles       metric.Int64Counter
	fetchErrors       metric.Int64Counter
	fetchLatencyMs    metric.Float64Histogram
	pushConnects      metric.Int64Counter
	pushReconnects    metric.Int64Counter
	pushMessages      metric.Int64Counter
	pushDropped       metric.Int64Counter
	matcherCycles     metric.Int64Counter
	matcherMatches    metric.Int64Counter
	matcherAmbiguous  metric.Int64Counter
}

func prometheusComponents() (sdkmetric.Reader, http.Handler, error) {
	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}
	return promExp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter("livematch-service")
	ctx := context.Background()

	inst := &otelInstruments{ctx: ctx, meter: meter}

	var err error
	if inst.requests, err = meter.Int64Counter("http_requests_total"); err != nil {
		return nil, err
	}
	if inst.requestLatencyMs, err = meter.Float64Histogram("http_request_duration_ms"); err != nil {
		return nil, err
	}
	if inst.providerAttempts, err = meter.Int64Counter("provider_attempts_total"); err != nil {
		return nil, err
	}
	if inst.providerErrors, err = meter.Int64Counter("provider_errors_total"); err != nil {
		return nil, err
	}
	if inst.providerLatencyMs, err = meter.Float64Histogram("provider_duration_ms"); err != nil {
		return nil, err
	}
	if inst.rateLimitHits, err = meter.Int64Counter("provider_rate_limit_hits_total"); err != nil {
		return nil, err
	}
	if inst.retryAfterMs, err = meter.Float64Histogram("provider_retry_after_ms"); err != nil {
		return nil, err
	}
	if inst.fetchCycles, err = meter.Int64Counter("fetch_cycles_total"); err != nil {
		return nil, err
	}
	if inst.fetchErrors, err = meter.Int64Counter("fetch_errors_total"); err != nil {
		return nil, err
	}
	if inst.fetchLatencyMs, err = meter.Float64Histogram("fetch_cycle_duration_ms"); err != nil {
		return nil, err
	}
	if inst.pushConnects, err = meter.Int64Counter("push_connects_total"); err != nil {
		return nil, err
	}
	if inst.pushReconnects, err = meter.Int64Counter("push_reconnects_total"); err != nil {
		return nil, err
	}
	if inst.pushMessages, err = meter.Int64Counter("push_messages_total"); err != nil {
		return nil, err
	}
	if inst.pushDropped, err = meter.Int64Counter("push_messages_dropped_total"); err != nil {
		return nil, err
	}
	if inst.matcherCycles, err = meter.Int64Counter("matcher_cycles_total"); err != nil {
		return nil, err
	}
	if inst.matcherMatches, err = meter.Int64Counter("matcher_matches_total"); err != nil {
		return nil, err
	}
	if inst.matcherAmbiguous, err = meter.Int64Counter("matcher_ambiguous_total"); err != nil {
		return nil, err
	}

	return inst, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	}
	o.recordCounter(o.requests, 1, attrs...)
	o.recordHistogram(o.requestLatencyMs, float64(duration.Milliseconds()), attrs...)
}

func (o *otelInstruments) recordProviderAttempt(provider string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrProvider, provider)}
	o.recordCounter(o.providerAttempts, 1, attrs...)
	o.recordHistogram(o.providerLatencyMs, float64(duration.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.providerErrors, 1, attrs...)
	}
}

func (o *otelInstruments) recordRateLimit(provider string, retryAfter time.Duration) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrProvider, provider)}
	o.recordCounter(o.rateLimitHits, 1, attrs...)
	if retryAfter > 0 {
		o.recordHistogram(o.retryAfterMs, float64(retryAfter.Milliseconds()), attrs...)
	}
}

func (o *otelInstruments) recordFetchCycle(key string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrKey, key)}
	o.recordCounter(o.fetchCycles, 1, attrs...)
	o.recordHistogram(o.fetchLatencyMs, float64(duration.Milliseconds()), attrs...)
	if err != nil {
		o.recordCounter(o.fetchErrors, 1, attrs...)
	}
}

func (o *otelInstruments) recordPushConnect(matchID string, reconnect bool) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrMatchID, matchID)}
	o.recordCounter(o.pushConnects, 1, attrs...)
	if reconnect {
		o.recordCounter(o.pushReconnects, 1, attrs...)
	}
}

func (o *otelInstruments) recordPushMessage(msgType string, dropped bool) {
	if o == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String(AttrMsgType, msgType)}
	o.recordCounter(o.pushMessages, 1, attrs...)
	if dropped {
		o.recordCounter(o.pushDropped, 1, attrs...)
	}
}

func (o *otelInstruments) recordMatcherCycle(matched, ambiguous bool) {
	if o == nil {
		return
	}
	o.recordCounter(o.matcherCycles, 1)
	if matched {
		o.recordCounter(o.matcherMatches, 1)
	}
	if ambiguous {
		o.recordCounter(o.matcherAmbiguous, 1)
	}
}

func (o *otelInstruments) recordCounter(counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if o == nil {
		return
	}
	counter.Add(o.ctx, value, metric.WithAttributes(attrs...))
}

func (o *otelInstruments) recordHistogram(hist metric.Float64Histogram, value float64, attrs ...attribute.KeyValue) {
	if o == nil {
		return
	}
	hist.Record(o.ctx, value, metric.WithAttributes(attrs...))
}
