package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockbridge/stockbridge/internal/jobs"
	"github.com/stockbridge/stockbridge/internal/snapshot"
)

// Warmer is the slice of the snapshot service the warm job uses.
type Warmer interface {
	Fetch(ctx context.Context, warehouseRef string, opts snapshot.Options) (snapshot.Result, error)
}

// NewSnapshotWarmHandler returns the handler for TaskTypeSnapshotWarm. The
// fetch populates the short-TTL feed cache as a side effect.
func NewSnapshotWarmHandler(warmer Warmer, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SnapshotWarmPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.WarehouseRef == "" {
			return nil
		}
		tracker := metrics.Track("snapshot_warm")
		res, err := warmer.Fetch(ctx, payload.WarehouseRef, snapshot.Options{})
		if err != nil {
			return tracker.End(err)
		}
		logger.Info("snapshot cache warmed",
			slog.String("warehouse", res.LocationName),
			slog.Int("rows", len(res.Rows)),
		)
		return tracker.End(nil)
	}
}
