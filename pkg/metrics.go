package corrections

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type eventCounters struct {
	read    metric.Int64Counter
	emitted metric.Int64Counter
	skipped metric.Int64Counter
}

var (
	counters     *eventCounters
	countersOnce sync.Once
	countersErr  error
)

// getCounters uses the global meter provider, which has to be set before the
// first run to be taken into account.
func getCounters() (*eventCounters, error) {
	countersOnce.Do(func() {
		counters, countersErr = newEventCounters(otel.Meter("muoncor"))
	})
	return counters, countersErr
}

func newEventCounters(meter metric.Meter) (*eventCounters, error) {
	read, err := meter.Int64Counter("muoncor.events.read",
		metric.WithDescription("Number of events read from the input"),
	)
	if err != nil {
		return nil, err
	}
	emitted, err := meter.Int64Counter("muoncor.events.emitted",
		metric.WithDescription("Number of corrected events written to the output"),
	)
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter("muoncor.events.skipped",
		metric.WithDescription("Number of events skipped by the selection"),
	)
	if err != nil {
		return nil, err
	}
	return &eventCounters{read: read, emitted: emitted, skipped: skipped}, nil
}

func (c *eventCounters) record(ctx context.Context, run string, emitted bool) {
	if c == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("run", run))
	c.read.Add(ctx, 1, attrs)
	if emitted {
		c.emitted.Add(ctx, 1, attrs)
	} else {
		c.skipped.Add(ctx, 1, attrs)
	}
}
