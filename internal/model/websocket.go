package model

// WebSocket message types
const (
	WSMessageTypeTrackProgress = "track-progress"
	WSMessageTypeJobProgress   = "overall-progress"
	WSMessageTypePing          = "ping"
	WSMessageTypePong          = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSTrackProgressMessage reports one track's progress through the pipeline
type WSTrackProgressMessage struct {
	Type     string      `json:"type"`
	JobID    string      `json:"jobId"`
	TrackID  string      `json:"trackId"`
	Status   TrackStatus `json:"status"`
	Message  string      `json:"message,omitempty"`
	Progress int         `json:"progress"`
}

// WSJobProgressMessage reports batch-level progress for a job
type WSJobProgressMessage struct {
	Type            string    `json:"type"`
	JobID           string    `json:"jobId"`
	Status          JobStatus `json:"status"`
	Message         string    `json:"message,omitempty"`
	Progress        int       `json:"progress"`
	CompletedTracks int       `json:"completedTracks"`
	TotalTracks     int       `json:"totalTracks"`
	DownloadURL     string    `json:"downloadUrl,omitempty"`
}
