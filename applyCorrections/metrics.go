package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetrics installs a meter provider whose counters are read once,
// at the end of the program.
func setupMetrics() (*sdkmetric.ManualReader, func(context.Context) error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	return reader, provider.Shutdown
}

func logMetrics(ctx context.Context, reader *sdkmetric.ManualReader) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		logger.Error(fmt.Sprintf("error collecting metrics: %v", err))
		return
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, point := range sum.DataPoints {
				run, _ := point.Attributes.Value("run")
				logger.Info(fmt.Sprintf("%s{run=%s} %d", m.Name, run.AsString(), point.Value), "metrics")
			}
		}
	}
}
