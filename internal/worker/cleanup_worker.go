package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/spotiload/api/internal/cleanup"
)

// CleanupWorker runs the retention sweep when its scheduled task fires.
type CleanupWorker struct {
	sweeper *cleanup.Sweeper
}

func NewCleanupWorker(sweeper *cleanup.Sweeper) *CleanupWorker {
	return &CleanupWorker{sweeper: sweeper}
}

// ProcessTask sweeps all working directories once.
func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	w.sweeper.Sweep(time.Now())
	return nil
}
