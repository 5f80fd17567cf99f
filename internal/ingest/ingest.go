package ingest

import (
	"context"
	"log/slog"
	"time"

	"errgate/internal/model"
)

func SendNonBlocking(ctx context.Context, out chan<- model.Signal, sig model.Signal, logger *slog.Logger) bool {
	select {
	case out <- sig:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("signal channel full, dropping signal", "code", sig.Code, "source", sig.Source)
		}
		return false
	}
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
