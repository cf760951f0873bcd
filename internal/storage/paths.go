// Package storage owns the working directories shared by every pipeline:
// raw downloads, transcoded output, and finished archives.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"github.com/spotiload/api/internal/model"
)

const (
	rawFormat    = "webm"
	outputFormat = "mp3"
)

// Paths holds the three working directories.
type Paths struct {
	Temp   string
	Output string
	Zip    string
}

// Ensure creates the working directories. It must be called once at
// startup, before any pipeline runs; creation is idempotent.
func (p Paths) Ensure() error {
	for _, dir := range []string{p.Temp, p.Output, p.Zip} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TrackBase derives the deterministic file stem for a track. Two jobs
// downloading the same track share the same files on purpose.
func TrackBase(t *model.Track) string {
	return fmt.Sprintf("%s-%s", slug.Make(t.PrimaryArtist), slug.Make(t.Title))
}

// RawFile is where the fetcher streams the unconverted audio.
func (p Paths) RawFile(t *model.Track) string {
	return filepath.Join(p.Temp, TrackBase(t)+"."+rawFormat)
}

// OutputFile is where the transcoder writes the finished track.
func (p Paths) OutputFile(t *model.Track) string {
	return filepath.Join(p.Output, TrackBase(t)+"."+outputFormat)
}

// RemoveIfExists deletes path, ignoring the case where it is already gone.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
