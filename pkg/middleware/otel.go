package middleware

import (
	"context"

	"github.com/vango-dev/vtree/pkg/vtree"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "vtree"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "vtree").
	TracerName string

	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Filter determines which passes to trace.
	// If nil, all passes are traced.
	Filter func(p *vtree.Pass) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(p *vtree.Pass) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithPassFilter sets a filter function for passes.
func WithPassFilter(filter func(p *vtree.Pass) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(p *vtree.Pass) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that traces every pass.
//
// The span is started from Pass.Ctx and the resulting context replaces it for
// the rest of the chain. Errors are recorded on the span. The global tracer
// provider is used unless WithTracerProvider is given:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) vtree.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	tracer := provider.Tracer(config.TracerName)

	return func(p *vtree.Pass, next func() error) error {
		if config.Filter != nil && !config.Filter(p) {
			return next()
		}

		attrs := []attribute.KeyValue{
			attribute.String("vtree.pass", p.Kind.String()),
			attribute.String("vtree.size", p.Size.String()),
			attribute.String("vtree.options", p.Options.String()),
		}
		if root := p.Hierarchy.Root(); root != nil {
			attrs = append(attrs, attribute.String("vtree.root", root.String()))
		}
		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(p)...)
		}

		parent := p.Ctx
		if parent == nil {
			parent = context.Background()
		}
		spanCtx, span := tracer.Start(parent, "vtree."+p.Kind.String(),
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attrs...),
		)
		defer span.End()
		p.Ctx = context.WithValue(spanCtx, tracedKey{}, true)

		err := next()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.SetAttributes(
			attribute.Int("vtree.constructed", p.Stats.Constructed),
			attribute.Int("vtree.reused", p.Stats.Reused),
			attribute.Int("vtree.dismantled", p.Stats.Dismantled),
			attribute.Int("vtree.configured", p.Stats.Configured),
		)
		return err
	}
}

// SpanFromPass returns the span of the running pass, or nil when the pass is
// not traced.
func SpanFromPass(p *vtree.Pass) trace.Span {
	if p == nil || p.Ctx == nil {
		return nil
	}
	if traced, _ := p.Ctx.Value(tracedKey{}).(bool); !traced {
		return nil
	}
	return trace.SpanFromContext(p.Ctx)
}

// tracedKey marks a pass context that carries a span.
type tracedKey struct{}
