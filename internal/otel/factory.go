package otel

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MetricFactory creates metrics under a common name prefix. Instruments are
// bound to the global meter, so they survive a later provider swap.
type MetricFactory struct {
	meter  metric.Meter
	prefix string
}

func NewFactory(meterName, prefix string) *MetricFactory {
	return &MetricFactory{
		meter:  otel.Meter(meterName),
		prefix: prefix,
	}
}

func (f *MetricFactory) name(suffix string) string {
	if f.prefix == "" {
		return suffix
	}
	return f.prefix + "." + suffix
}

func (f *MetricFactory) Int64Counter(target *metric.Int64Counter, name string, options ...metric.Int64CounterOption) {
	fullName := f.name(name)
	counter, err := f.meter.Int64Counter(fullName, options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create counter %s: %v", fullName, err))
	}
	*target = counter
}

func (f *MetricFactory) Int64UpDownCounter(target *metric.Int64UpDownCounter, name string, options ...metric.Int64UpDownCounterOption) {
	fullName := f.name(name)
	counter, err := f.meter.Int64UpDownCounter(fullName, options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create up-down counter %s: %v", fullName, err))
	}
	*target = counter
}

func (f *MetricFactory) Int64Gauge(target *metric.Int64Gauge, name string, options ...metric.Int64GaugeOption) {
	fullName := f.name(name)
	gauge, err := f.meter.Int64Gauge(fullName, options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create gauge %s: %v", fullName, err))
	}
	*target = gauge
}

func (f *MetricFactory) Int64Histogram(target *metric.Int64Histogram, name string, options ...metric.Int64HistogramOption) {
	fullName := f.name(name)
	histogram, err := f.meter.Int64Histogram(fullName, options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create histogram %s: %v", fullName, err))
	}
	*target = histogram
}
