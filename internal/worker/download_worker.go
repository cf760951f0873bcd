// Package worker hosts the asynq task handlers: the download batch
// orchestrator and the retention sweep.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/hibiken/asynq"

	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/pipeline"
	"github.com/spotiload/api/internal/service"
)

// JobStore is the slice of the record store the orchestrator needs.
type JobStore interface {
	Get(ctx context.Context, id string) (*model.Job, error)
	Save(ctx context.Context, job *model.Job) error
}

// TrackRunner runs the pipeline for one track.
type TrackRunner interface {
	Run(ctx context.Context, jobID string, track *model.Track, sink pipeline.Sink) (string, error)
}

// Archiver bundles finished files into one archive.
type Archiver interface {
	Create(files []string, baseName string) (string, error)
}

// Broadcaster delivers progress events to job subscribers.
type Broadcaster interface {
	pipeline.Sink
	JobEvent(jobID string, status model.JobStatus, message string, progress, completed, total int, downloadURL string)
}

// DownloadWorker processes one job's track batch end to end. While a
// batch runs the worker is the only writer of the job's mutable
// fields.
type DownloadWorker struct {
	store    JobStore
	pipeline TrackRunner
	packager Archiver
	hub      Broadcaster
}

func NewDownloadWorker(store JobStore, pipeline TrackRunner, packager Archiver, hub Broadcaster) *DownloadWorker {
	return &DownloadWorker{
		store:    store,
		pipeline: pipeline,
		packager: packager,
		hub:      hub,
	}
}

// ProcessTask handles one download batch. Each track runs to
// completion or error before the next starts; a failed track never
// aborts its siblings. The job ends completed when at least one file
// was produced, failed otherwise. Anything escaping the batch as a
// whole still lands the job in a terminal failed state with the cause
// surfaced.
func (w *DownloadWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.DownloadTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal download task payload: %w", err)
	}

	job, err := w.store.Get(ctx, payload.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", payload.JobID, err)
	}
	log.Printf("Starting download job %s (%d tracks)", job.ID, len(job.Tracks))

	total := len(job.Tracks)
	completed := 0
	var files []string

	defer func() {
		if r := recover(); r != nil {
			w.fail(ctx, job, completed, total, fmt.Sprintf("Download failed: %v", r))
		}
	}()

	emit := func(message string) {
		w.hub.JobEvent(job.ID, job.Status, message, job.Progress, completed, total, job.DownloadURL)
	}

	job.Status = model.JobStatusDownloading
	job.Progress = 0
	w.persist(ctx, job)
	emit("")

	for i := range job.Tracks {
		track := &job.Tracks[i]

		path, err := w.pipeline.Run(ctx, job.ID, track, w.hub)
		if err != nil {
			// Logged and skipped; the batch carries on.
			log.Printf("Job %s: track %q failed: %v", job.ID, track.Title, err)
		} else {
			files = append(files, path)
			completed++
		}

		job.Progress = batchProgress(completed, total)
		w.persist(ctx, job)
		emit("")
	}

	if len(files) == 0 {
		w.fail(ctx, job, completed, total, "No tracks were downloaded")
		return nil
	}

	job.Status = model.JobStatusProcessing
	if job.Progress < 95 {
		job.Progress = 95
	}
	w.persist(ctx, job)
	emit("Creating archive")

	zipPath, err := w.packager.Create(files, archiveBaseName(job))
	if err != nil {
		w.fail(ctx, job, completed, total, fmt.Sprintf("Download failed: %v", err))
		return nil
	}

	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.ZipPath = zipPath
	job.DownloadURL = "/api/download/file/" + filepath.Base(zipPath)
	if err := w.persist(ctx, job); err != nil {
		// The archive exists but the record does not say so; let asynq
		// retry the task, which will be cheap against the cached files.
		return err
	}
	emit("Download completed")

	log.Printf("Download job %s completed (%d/%d tracks)", job.ID, completed, total)
	return nil
}

func (w *DownloadWorker) fail(ctx context.Context, job *model.Job, completed, total int, message string) {
	job.Status = model.JobStatusFailed
	job.Progress = 0
	w.persist(ctx, job)
	w.hub.JobEvent(job.ID, job.Status, message, 0, completed, total, "")
	log.Printf("Download job %s failed: %s", job.ID, message)
}

// persist writes the record back, retrying once. A still-failing store
// must not silently swallow progress, so the error is logged and
// returned for the caller to surface where it matters.
func (w *DownloadWorker) persist(ctx context.Context, job *model.Job) error {
	err := w.store.Save(ctx, job)
	if err == nil {
		return nil
	}
	if err = w.store.Save(ctx, job); err != nil {
		log.Printf("Job %s: persist failed: %v", job.ID, err)
	}
	return err
}

func batchProgress(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// archiveBaseName picks the human-readable archive name: the playlist
// name, or "artist - title" for a single track.
func archiveBaseName(job *model.Job) string {
	if job.Kind == model.JobKindPlaylist || len(job.Tracks) == 0 {
		return job.Name
	}
	first := job.Tracks[0]
	return fmt.Sprintf("%s - %s", first.Artist, first.Title)
}
