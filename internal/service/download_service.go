package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/store"
)

var (
	// ErrDownloadInProgress means the job is already being processed.
	ErrDownloadInProgress = errors.New("download already in progress")
	// ErrFileNotFound means no archive exists under the requested name.
	ErrFileNotFound = errors.New("file not found")
)

// DownloadService starts batches and serves finished archives.
type DownloadService struct {
	jobs        *store.Jobs
	asynqClient *asynq.Client
	zipDir      string
}

func NewDownloadService(jobs *store.Jobs, asynqClient *asynq.Client, zipDir string) *DownloadService {
	return &DownloadService{jobs: jobs, asynqClient: asynqClient, zipDir: zipDir}
}

// Start marks a pending job as downloading and enqueues its batch
// task. A job that already completed is reported as such without
// re-processing; one that is mid-flight returns ErrDownloadInProgress.
// userID may be empty for anonymous downloads.
func (s *DownloadService) Start(ctx context.Context, jobID, userID string) (*model.StartDownloadResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch {
	case job.Status == model.JobStatusDownloading || job.Status == model.JobStatusProcessing:
		return nil, ErrDownloadInProgress
	case job.Status == model.JobStatusCompleted && job.DownloadURL != "":
		return &model.StartDownloadResponse{
			DownloadID:  job.ID,
			Status:      job.Status,
			Message:     "Download already completed",
			DownloadURL: job.DownloadURL,
		}, nil
	}

	job.Status = model.JobStatusDownloading
	job.Progress = 0
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	if userID != "" {
		if err := s.jobs.AppendHistory(ctx, userID, job.ID); err != nil {
			log.Printf("append history for user %s: %v", userID, err)
		}
	}

	task, err := NewDownloadTask(job.ID)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("download"),
		asynq.MaxRetry(2),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	return &model.StartDownloadResponse{
		DownloadID: job.ID,
		Status:     job.Status,
		Message:    "Download started",
	}, nil
}

// FilePath resolves an archive name to its path inside the zip
// directory, refusing anything that would escape it.
func (s *DownloadService) FilePath(filename string) (string, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return "", ErrFileNotFound
	}
	path := filepath.Join(s.zipDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}

// History lists the user's retained jobs, newest last.
func (s *DownloadService) History(ctx context.Context, userID string) ([]model.JobSummary, error) {
	return s.jobs.History(ctx, userID)
}
