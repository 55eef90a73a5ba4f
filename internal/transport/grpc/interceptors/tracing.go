package interceptors

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"
)

// TracingOptions customises the tracing handler behaviour.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	Additional     []otelgrpc.Option
}

// Tracing instruments gRPC server traffic with OpenTelemetry. It runs as a
// stats handler, so spans start before any unary interceptor in the chain.
type Tracing struct {
	handler stats.Handler
}

// NewTracing builds the OpenTelemetry server handler with the supplied options.
func NewTracing(opts TracingOptions) *Tracing {
	options := make([]otelgrpc.Option, 0, len(opts.Additional)+2)
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	options = append(options, opts.Additional...)

	return &Tracing{handler: otelgrpc.NewServerHandler(options...)}
}

// ServerOption returns the grpc.ServerOption installing the stats handler.
// A nil Tracing yields an empty option.
func (t *Tracing) ServerOption() grpc.ServerOption {
	if t == nil || t.handler == nil {
		return grpc.EmptyServerOption{}
	}
	return grpc.StatsHandler(t.handler)
}
