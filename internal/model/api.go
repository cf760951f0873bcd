package model

// ValidateURLRequest asks whether a URL points at downloadable content
type ValidateURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// ValidateURLResponse classifies a valid URL
type ValidateURLResponse struct {
	Kind JobKind `json:"type"`
	ID   string  `json:"id"`
}

// InfoRequest resolves a URL into its track list
type InfoRequest struct {
	URL string `json:"url" validate:"required"`
}

// InfoResponse carries the resolved descriptor list and the job id to
// start the download with
type InfoResponse struct {
	Kind       JobKind `json:"type"`
	DownloadID string  `json:"downloadId"`
	Name       string  `json:"name"`
	Tracks     []Track `json:"tracks"`
}

// StartDownloadRequest starts processing a previously created job
type StartDownloadRequest struct {
	DownloadID string `json:"downloadId" validate:"required"`
}

// StartDownloadResponse acknowledges a started (or already finished)
// download
type StartDownloadResponse struct {
	DownloadID  string    `json:"downloadId"`
	Status      JobStatus `json:"status"`
	Message     string    `json:"message"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}
