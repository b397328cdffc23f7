package observability

import (
	"github.com/smallbiznis/shoecare/internal/config"
	"github.com/smallbiznis/shoecare/internal/observability/logger"
	"github.com/smallbiznis/shoecare/internal/observability/metrics"
	"github.com/smallbiznis/shoecare/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		func(cfg Config, app config.Config) logger.Config { return cfg.loggerConfig(app.ShopName) },
		logger.New,
		Config.tracingConfig,
		tracing.NewProvider,
		Config.metricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(announce),
)

// announce forces the tracer provider into the graph and records how
// telemetry leaves the process.
func announce(cfg Config, _ *sdktrace.TracerProvider, log *zap.Logger) {
	fields := []zap.Field{
		zap.String("environment", cfg.Environment),
		zap.Bool("debug", cfg.Debug()),
		zap.Bool("otlp", cfg.OtelEnabled),
	}
	if cfg.OtelEnabled {
		fields = append(fields,
			zap.String("otlp_endpoint", cfg.OtelExporterEndpoint),
			zap.String("otlp_protocol", cfg.OtelExporterProtocol),
		)
	}
	log.Info("observability ready", fields...)
}

func (c Config) loggerConfig(shop string) logger.Config {
	return logger.Config{
		Shop:                shop,
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) tracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) metricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
	}
}
