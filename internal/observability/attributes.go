// Package observability provides metrics and instrumentation helpers.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys
const (
	attrJob     = "job"
	attrOutcome = "outcome"
)

func jobAttr(jobName string) attribute.KeyValue {
	return attribute.String(attrJob, jobName)
}

func outcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(attrOutcome, outcome)
}

// WithJob returns a metric option with the job attribute.
func WithJob(jobName string) metric.MeasurementOption {
	return metric.WithAttributes(jobAttr(jobName))
}

// WithOutcome returns a metric option with the outcome attribute.
func WithOutcome(outcome string) metric.MeasurementOption {
	return metric.WithAttributes(outcomeAttr(outcome))
}
