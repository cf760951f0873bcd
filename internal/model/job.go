package model

import "time"

// JobKind distinguishes single-track jobs from playlist jobs
type JobKind string

const (
	JobKindTrack    JobKind = "track"
	JobKindPlaylist JobKind = "playlist"
)

// JobStatus is the job-level lifecycle
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
)

// Job is one download request: a track list plus batch-level state.
// While a batch runs, the download worker owns every mutable field;
// nothing else may write to the record concurrently.
type Job struct {
	ID          string    `json:"id"`
	Kind        JobKind   `json:"kind"`
	SpotifyID   string    `json:"spotifyId"`
	Name        string    `json:"name"`
	Tracks      []Track   `json:"tracks"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"` // 0-100 batch aggregate
	DownloadURL string    `json:"downloadUrl,omitempty"`
	ZipPath     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Terminal reports whether the job has reached a final status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobSummary is the history-listing shape of a job record.
type JobSummary struct {
	ID          string    `json:"id"`
	Kind        JobKind   `json:"kind"`
	Name        string    `json:"name"`
	Status      JobStatus `json:"status"`
	TrackCount  int       `json:"trackCount"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary converts a job into its history-listing shape.
func (j *Job) Summary() JobSummary {
	return JobSummary{
		ID:          j.ID,
		Kind:        j.Kind,
		Name:        j.Name,
		Status:      j.Status,
		TrackCount:  len(j.Tracks),
		DownloadURL: j.DownloadURL,
		CreatedAt:   j.CreatedAt,
	}
}
