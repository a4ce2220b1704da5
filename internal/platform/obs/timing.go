package obs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type ctxKey string

const runIDKey ctxKey = "run_id"

// Attach a build run ID to the context so phase timings correlate.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Time returns a deferred closure that logs the operation's duration and
// outcome as a structured event.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	runID := RunID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Error().Str("run_id", runID).Str("op", name).
				Dur("dur", dur).Err(*errp).Msg("operation failed")
			return
		}
		log.Info().Str("run_id", runID).Str("op", name).
			Dur("dur", dur).Msg("operation complete")
	}
}
