// Package pipeline turns one resolved track into a finished, tagged
// MP3 through a locate → fetch → transcode → tag state machine.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spotiload/api/internal/cleanup"
	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/storage"
)

// Locator resolves a track to an external source handle.
type Locator interface {
	Locate(ctx context.Context, track *model.Track) (model.Candidate, error)
}

// Fetcher streams raw audio for a source into dst.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID, dst string, onProgress ProgressFunc) error
}

// Transcoder converts raw audio into the target format at dst.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, durationMS int, onProgress func(percent float64)) error
}

// Tagger embeds metadata into a finished file.
type Tagger interface {
	Tag(ctx context.Context, path string, track *model.Track) error
}

// Sink receives per-track progress events. Delivery is fire-and-forget;
// implementations must never block the pipeline.
type Sink interface {
	TrackEvent(jobID, trackID string, status model.TrackStatus, message string, progress int)
}

// TrackPipeline drives one track through the full download flow.
type TrackPipeline struct {
	locator    Locator
	fetcher    Fetcher
	transcoder Transcoder
	tagger     Tagger
	paths      storage.Paths
	guard      *cleanup.Guard
}

func NewTrackPipeline(locator Locator, fetcher Fetcher, transcoder Transcoder, tagger Tagger, paths storage.Paths, guard *cleanup.Guard) *TrackPipeline {
	return &TrackPipeline{
		locator:    locator,
		fetcher:    fetcher,
		transcoder: transcoder,
		tagger:     tagger,
		paths:      paths,
		guard:      guard,
	}
}

// Run processes the track and returns the finished file path. Track
// status moves pending → locating → downloading → transcoding →
// tagging → completed; errors from the first three stages are returned
// as *StageError after an error event has been emitted. Tagging
// failures degrade gracefully and never fail the track.
func (p *TrackPipeline) Run(ctx context.Context, jobID string, track *model.Track, sink Sink) (string, error) {
	emit := func(status model.TrackStatus, message string, progress int) {
		track.Status = status
		track.Progress = progress
		if sink != nil {
			sink.TrackEvent(jobID, track.ID, status, message, progress)
		}
	}
	fail := func(stage Stage, err error) (string, error) {
		emit(model.TrackStatusError, fmt.Sprintf("Error downloading %s: %v", track.Title, err), 0)
		return "", &StageError{Stage: stage, Track: track.Title, Err: err}
	}

	emit(model.TrackStatusLocating, fmt.Sprintf("Locating %s", track.Title), 0)

	out := p.paths.OutputFile(track)
	if exists(out) {
		// A previous job already produced this file; nothing to redo.
		emit(model.TrackStatusCompleted, fmt.Sprintf("Downloaded %s", track.Title), 100)
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return fail(StageLocate, err)
	}
	candidate, err := p.locator.Locate(ctx, track)
	if err != nil {
		return fail(StageLocate, err)
	}

	raw := p.paths.RawFile(track)
	if p.guard != nil {
		p.guard.Hold(raw, out)
		defer p.guard.Release(raw, out)
	}

	emit(model.TrackStatusDownloading, fmt.Sprintf("Downloading %s", track.Title), 0)

	last := 0
	if err := ctx.Err(); err != nil {
		return fail(StageFetch, err)
	}
	err = p.fetcher.Fetch(ctx, candidate.ID, raw, func(downloaded, total int64) {
		if total <= 0 {
			// Source did not report a length; nothing to scale against.
			return
		}
		percent := int(downloaded * fetchScaleMax / total)
		if percent > fetchScaleMax {
			percent = fetchScaleMax
		}
		if percent > last {
			last = percent
			emit(model.TrackStatusDownloading, fmt.Sprintf("Downloading %s", track.Title), percent)
		}
	})
	if err != nil {
		return fail(StageFetch, err)
	}

	emit(model.TrackStatusTranscoding, fmt.Sprintf("Converting %s", track.Title), 50)
	last = 50

	if err := ctx.Err(); err != nil {
		return fail(StageTranscode, err)
	}
	err = p.transcoder.Transcode(ctx, raw, out, track.Duration, func(percent float64) {
		scaled := 50 + int(percent/2)
		if scaled > 100 {
			scaled = 100
		}
		if scaled > last {
			last = scaled
			emit(model.TrackStatusTranscoding, fmt.Sprintf("Converting %s", track.Title), scaled)
		}
	})
	if err != nil {
		return fail(StageTranscode, err)
	}

	emit(model.TrackStatusTagging, fmt.Sprintf("Tagging %s", track.Title), 100)
	if err := p.tagger.Tag(ctx, out, track); err != nil {
		// The file stays valid audio without tags.
		log.Printf("tagging %s: %v", track.Title, err)
	}

	if err := storage.RemoveIfExists(raw); err != nil {
		log.Printf("remove temp file %s: %v", raw, err)
	}

	emit(model.TrackStatusCompleted, fmt.Sprintf("Downloaded %s", track.Title), 100)
	return out, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
