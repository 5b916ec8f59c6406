package mixer

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Carmen-Shannon/oxy-anim/engine/animation/mixer"

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// mixerMetrics publishes pool sizes and event counts of one mixer.
// Pool sizes are snapshotted at the end of every update so the collector never reads the pools.
type mixerMetrics struct {
	attrs metric.MeasurementOption

	activeActions  atomic.Int64
	activeBindings atomic.Int64

	actionsGauge  metric.Int64ObservableGauge
	bindingsGauge metric.Int64ObservableGauge
	loops         metric.Int64Counter
	finished      metric.Int64Counter

	registration metric.Registration
}

func newMixerMetrics(m metric.Meter, name string) (*mixerMetrics, error) {
	mm := &mixerMetrics{
		attrs: metric.WithAttributes(attribute.String("mixer", name)),
	}

	var err error
	mm.actionsGauge, err = m.Int64ObservableGauge(
		"mixer.actions.active",
		metric.WithDescription("Number of scheduled actions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active actions gauge: %w", err)
	}

	mm.bindingsGauge, err = m.Int64ObservableGauge(
		"mixer.bindings.active",
		metric.WithDescription("Number of property bindings in use"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating active bindings gauge: %w", err)
	}

	mm.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(mm.actionsGauge, mm.activeActions.Load(), mm.attrs)
			o.ObserveInt64(mm.bindingsGauge, mm.activeBindings.Load(), mm.attrs)
			return nil
		},
		mm.actionsGauge, mm.bindingsGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pool callback: %w", err)
	}

	mm.loops, err = m.Int64Counter(
		"mixer.events.loop",
		metric.WithDescription("Total loop events dispatched"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loop counter: %w", err)
	}

	mm.finished, err = m.Int64Counter(
		"mixer.events.finished",
		metric.WithDescription("Total finished events dispatched"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating finished counter: %w", err)
	}

	return mm, nil
}

func (mm *mixerMetrics) snapshot(actions, bindings int) {
	mm.activeActions.Store(int64(actions))
	mm.activeBindings.Store(int64(bindings))
}

func (mm *mixerMetrics) recordEvent(e Event) {
	ctx := context.Background()
	switch e.Type {
	case EventLoop:
		mm.loops.Add(ctx, 1, mm.attrs)
	case EventFinished:
		mm.finished.Add(ctx, 1, mm.attrs)
	}
}

func (mm *mixerMetrics) close() {
	if mm.registration != nil {
		_ = mm.registration.Unregister()
	}
}
