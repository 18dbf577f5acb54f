// Package middleware provides observability middleware for vtree hierarchies.
//
// This package includes:
//   - OpenTelemetry tracing of every pass
//   - Prometheus pass and view metrics
//   - Structured pass logging through log/slog
//
// # OpenTelemetry Middleware
//
// Each pass becomes a span named after the pass kind. The span carries the
// constrained size, the layout options and, once the pass returns, the view
// statistics.
//
//	h := vtree.NewHierarchy(ctx,
//	    vtree.WithMiddleware(
//	        middleware.OpenTelemetry(middleware.WithTracerName("my-app")),
//	    ),
//	)
//
// The span is stored in Pass.Ctx, so inner middleware can attach attributes
// through SpanFromPass.
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - vtree_passes_total: Passes by kind and status
//   - vtree_pass_duration_seconds: Pass duration histogram
//   - vtree_pass_errors_total: Failed passes by kind and error type
//   - vtree_views_total: View operations by kind
//   - vtree_live_views: Views currently constructed and not dismantled
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Ordering
//
// Middleware run in the order they are given. Put OpenTelemetry first so that
// the other middleware observe the span:
//
//	vtree.WithMiddleware(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(),
//	    middleware.Logger(slog.Default()),
//	)
package middleware
