package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ordersCreated     metric.Int64Counter
	itemStatusChanges metric.Int64Counter
	settlements       metric.Int64Counter
	settledRevenue    metric.Int64Counter
	trackingDenied    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if log == nil {
		log = zap.NewNop()
	}
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("flushing shop metrics")
				return provider.Shutdown(ctx)
			},
		})
	}
	log.Info("otlp metrics exporter ready",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New registers the shop counters on the service meter.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "shoecare"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.ordersCreated, "shoecare_orders_created_total", "Orders taken at the counter.", ""},
		{&m.itemStatusChanges, "shoecare_item_status_changes_total", "Shoe item status transitions.", ""},
		{&m.settlements, "shoecare_settlements_total", "Settlement attempts by payment method and outcome.", ""},
		{&m.settledRevenue, "shoecare_settled_revenue_total", "Revenue realised by successful settlements.", "{IDR}"},
		{&m.trackingDenied, "shoecare_tracking_rate_limited_total", "Public tracking lookups rejected by the limiter.", ""},
	} {
		opts := []metric.Int64CounterOption{metric.WithDescription(c.desc)}
		if c.unit != "" {
			opts = append(opts, metric.WithUnit(c.unit))
		}
		counter, err := meter.Int64Counter(c.name, opts...)
		if err != nil {
			return nil, fmt.Errorf("metrics: %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

// NewNoop returns instruments bound to a noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordOrderCreated counts accepted orders by item count bucket.
func (m *Metrics) RecordOrderCreated(ctx context.Context, items int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("items", itemBucket(items)))
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordItemStatusChange counts per-item status transitions.
func (m *Metrics) RecordItemStatusChange(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from_status", strings.TrimSpace(from)),
		attribute.String("status", strings.TrimSpace(to)),
	)
	m.itemStatusChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSettlement counts settlements and the revenue they realise.
func (m *Metrics) RecordSettlement(ctx context.Context, paymentMethod, outcome string, amount int64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("payment_method", strings.TrimSpace(paymentMethod)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.settlements.Add(ctx, 1, metric.WithAttributes(attrs...))
	if outcome == OutcomeSuccess && amount > 0 {
		m.settledRevenue.Add(ctx, amount, metric.WithAttributes(attrs...))
	}
}

// RecordTrackingDenied counts public tracking requests rejected by the limiter.
func (m *Metrics) RecordTrackingDenied(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.trackingDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func itemBucket(items int) string {
	switch {
	case items <= 1:
		return "1"
	case items <= 3:
		return "2-3"
	default:
		return "4+"
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"items":          {},
	"status":         {},
	"from_status":    {},
	"payment_method": {},
	"outcome":        {},
	"route":          {},
	"method":         {},
	"status_code":    {},
	"reason":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
