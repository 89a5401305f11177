// Package tracing contains the tracing logic for ipfsapi, including configuring the tracer and
// helping keep consistent naming conventions across the client.
//
// Tracing is configured through environment variables, as consistent with the OpenTelemetry spec as possible:
//
// https://github.com/open-telemetry/opentelemetry-specification/blob/main/specification/sdk-environment-variables.md
//
//   - OTEL_TRACES_EXPORTER: a comma-separated list of exporters
//   - otlp
//   - none
//
// OTLP HTTP/gRPC:
//
//   - OTEL_EXPORTER_OTLP_PROTOCOL
//   - one of [grpc, http/protobuf]
//   - default: http/protobuf
//   - OTEL_EXPORTER_OTLP_ENDPOINT
//   - OTEL_EXPORTER_OTLP_HEADERS
//   - OTEL_EXPORTER_OTLP_TIMEOUT
//
// Each RPC call produces an RPC.<command> span (for example RPC.pin/add) with
// the HTTP client span of the request nested under it, so traces line up with
// the daemon's own when both export to the same collector.
//
// We follow the OpenTelemetry convention of using whatever TracerProvider is registered globally.
package tracing
