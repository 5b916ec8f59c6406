package mixer

import (
	"go.opentelemetry.io/otel/metric"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/binding"
)

// MixerBuilderOption is a functional option for configuring a Mixer.
// Use the With* functions to create options.
type MixerBuilderOption func(m *mixer)

// WithName names the mixer in log entries and metric attributes. Defaults to "mixer".
//
// Parameters:
//   - name: the mixer name
//
// Returns:
//   - MixerBuilderOption: option function to apply
func WithName(name string) MixerBuilderOption {
	return func(m *mixer) {
		if name != "" {
			m.name = name
		}
	}
}

// WithMeter sets the OpenTelemetry meter the mixer reports to.
// Defaults to the meter of the global provider, which is a no-op unless the host installs one.
//
// Parameters:
//   - meter: the meter
//
// Returns:
//   - MixerBuilderOption: option function to apply
func WithMeter(meter metric.Meter) MixerBuilderOption {
	return func(m *mixer) {
		m.meter = meter
	}
}

// WithLabels shares a label table with other mixers, so string values read from one can be applied by another.
// Mixers sharing a table must not be updated concurrently.
//
// Parameters:
//   - labels: the label table
//
// Returns:
//   - MixerBuilderOption: option function to apply
func WithLabels(labels *binding.Labels) MixerBuilderOption {
	return func(m *mixer) {
		m.labels = labels
	}
}
