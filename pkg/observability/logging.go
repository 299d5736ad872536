package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/orocos/pkg/domain"
)

// LogHooks returns call hooks logging every call at debug level, and failures
// at warn level.
func LogHooks(logger *slog.Logger) domain.CallHooks {
	return domain.CallHooks{
		OnReturn: func(ctx context.Context, e *domain.CallEvent) {
			attrs := []any{
				"task", e.Task,
				"operation", e.Operation,
				"duration", e.Duration,
			}
			if e.Member != "" {
				attrs = append(attrs, "member", e.Member)
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "task call failed", append(attrs, "error", e.Err)...)
				return
			}
			logger.DebugContext(ctx, "task call", attrs...)
		},
	}
}
