package model

// TrackStatus tracks a single track through the download pipeline
type TrackStatus string

const (
	TrackStatusPending     TrackStatus = "pending"
	TrackStatusLocating    TrackStatus = "locating"
	TrackStatusDownloading TrackStatus = "downloading"
	TrackStatusTranscoding TrackStatus = "transcoding"
	TrackStatusTagging     TrackStatus = "tagging"
	TrackStatusCompleted   TrackStatus = "completed"
	TrackStatusError       TrackStatus = "error"
)

// Track describes one song resolved from the catalog provider.
// All fields except Status and Progress are immutable once the job
// record is created; only the track pipeline mutates those two.
type Track struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Artist        string      `json:"artist"` // full artist credit, comma separated
	PrimaryArtist string      `json:"primaryArtist"`
	Album         string      `json:"album,omitempty"`
	ReleaseDate   string      `json:"releaseDate,omitempty"`
	AlbumArt      string      `json:"albumArt,omitempty"`
	Duration      int         `json:"duration"` // milliseconds
	ISRC          string      `json:"isrc,omitempty"`
	Popularity    int         `json:"popularity,omitempty"`
	Status        TrackStatus `json:"status"`
	Progress      int         `json:"progress"` // 0-100
}

// Year returns the release year portion of the release date, or "" if unknown.
func (t *Track) Year() string {
	if len(t.ReleaseDate) < 4 {
		return ""
	}
	return t.ReleaseDate[:4]
}
