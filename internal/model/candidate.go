package model

// Candidate is one search result from the external audio-source index.
// Candidates are transient; they are never persisted.
type Candidate struct {
	ID       string // video id usable by the fetcher
	URL      string
	Title    string
	Author   string // channel name, may be empty
	Duration string // "mm:ss" or "h:mm:ss"
}
