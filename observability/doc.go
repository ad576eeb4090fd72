// Package observability records tool invocations as Prometheus metrics and
// OpenTelemetry spans.
//
// An Observer is handed to every tool adapter. Start is called before the
// pipeline runs and returns a finish function that is called exactly once
// with the outcome label and the error, if any.
package observability
