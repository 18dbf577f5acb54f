package middleware

import (
	"log/slog"
	"time"

	"github.com/vango-dev/vtree/pkg/vtree"
)

// Logger creates middleware that logs every pass at info level, or at warn
// level when it fails. A nil logger uses slog.Default().
func Logger(logger *slog.Logger) vtree.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(p *vtree.Pass, next func() error) error {
		start := time.Now()
		err := next()

		attrs := []any{
			"pass", p.Kind.String(),
			"size", p.Size.String(),
			"duration", time.Since(start),
			"constructed", p.Stats.Constructed,
			"reused", p.Stats.Reused,
			"dismantled", p.Stats.Dismantled,
		}
		if err != nil {
			logger.Warn("vtree pass failed", append(attrs, "error", err)...)
			return err
		}
		logger.Info("vtree pass", attrs...)
		return nil
	}
}
