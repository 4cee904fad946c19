package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LogHooks returns lifecycle hooks writing one structured record per pass
// outcome and one debug record per host mutation.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPassAbort: func(ctx context.Context, e *domain.PassEvent) {
			logger.WarnContext(ctx, "pass_abort",
				"root", e.Root,
				"revision", e.Revision,
				"duration", e.Duration,
				"err", e.Err,
			)
		},
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			logger.InfoContext(ctx, "commit",
				"root", e.Root,
				"revision", e.Revision,
				"placements", e.Placements,
				"updates", e.Updates,
				"deletions", e.Deletions,
				"failures", e.Failures,
				"skipped", e.Skipped,
			)
		},
		OnMutation: func(ctx context.Context, e *domain.MutationEvent) {
			logger.DebugContext(ctx, "mutation",
				"root", e.Root,
				"op", e.Op,
				"node_id", e.NodeID,
				"type", e.Type,
			)
		},
	}
}
