package service

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task types routed through asynq
const (
	TaskTypeDownload = "download:process"
	TaskTypeCleanup  = "cleanup:sweep"
)

// DownloadTaskPayload identifies the job a download task processes.
type DownloadTaskPayload struct {
	JobID string `json:"jobId"`
}

// NewDownloadTask creates the batch-processing task for a job.
func NewDownloadTask(jobID string) (*asynq.Task, error) {
	data, err := json.Marshal(DownloadTaskPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDownload, data), nil
}

// NewCleanupTask creates a retention-sweep task.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCleanup, nil)
}
