package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spotiload/api/internal/cleanup"
	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/storage"
)

type fakeLocator struct {
	candidate model.Candidate
	err       error
}

func (f *fakeLocator) Locate(ctx context.Context, track *model.Track) (model.Candidate, error) {
	return f.candidate, f.err
}

type fakeFetcher struct {
	err      error
	progress []int64 // downloaded values to report against total 100
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceID, dst string, onProgress ProgressFunc) error {
	if f.err != nil {
		return f.err
	}
	for _, d := range f.progress {
		onProgress(d, 100)
	}
	return os.WriteFile(dst, []byte("raw audio"), 0o644)
}

type fakeTranscoder struct {
	err      error
	progress []float64
}

func (f *fakeTranscoder) Transcode(ctx context.Context, src, dst string, durationMS int, onProgress func(float64)) error {
	if f.err != nil {
		return f.err
	}
	for _, p := range f.progress {
		onProgress(p)
	}
	return os.WriteFile(dst, []byte("mp3 audio"), 0o644)
}

type fakeTagger struct {
	err    error
	tagged []string
}

func (f *fakeTagger) Tag(ctx context.Context, path string, track *model.Track) error {
	f.tagged = append(f.tagged, path)
	return f.err
}

type trackEvent struct {
	status   model.TrackStatus
	message  string
	progress int
}

type recordingSink struct {
	events []trackEvent
}

func (s *recordingSink) TrackEvent(jobID, trackID string, status model.TrackStatus, message string, progress int) {
	s.events = append(s.events, trackEvent{status, message, progress})
}

func (s *recordingSink) statuses() []model.TrackStatus {
	out := make([]model.TrackStatus, len(s.events))
	for i, e := range s.events {
		out[i] = e.status
	}
	return out
}

func pipelineTrack() *model.Track {
	return &model.Track{
		ID:            "t1",
		Title:         "Midnight",
		Artist:        "Aeon",
		PrimaryArtist: "Aeon",
		Duration:      200000,
		Status:        model.TrackStatusPending,
	}
}

func testPipeline(t *testing.T, loc Locator, f Fetcher, tr Transcoder, tag Tagger) (*TrackPipeline, storage.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := storage.Paths{
		Temp:   filepath.Join(dir, "temp"),
		Output: filepath.Join(dir, "output"),
		Zip:    filepath.Join(dir, "zips"),
	}
	if err := paths.Ensure(); err != nil {
		t.Fatalf("ensure paths: %v", err)
	}
	return NewTrackPipeline(loc, f, tr, tag, paths, cleanup.NewGuard()), paths
}

func TestRun_HappyPath(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	tagger := &fakeTagger{}
	p, paths := testPipeline(t, loc, &fakeFetcher{}, &fakeTranscoder{}, tagger)

	track := pipelineTrack()
	sink := &recordingSink{}

	out, err := p.Run(context.Background(), "job-1", track, sink)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != paths.OutputFile(track) {
		t.Errorf("unexpected output path: %q", out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if _, err := os.Stat(paths.RawFile(track)); !os.IsNotExist(err) {
		t.Error("temp file should be removed after a successful run")
	}
	if len(tagger.tagged) != 1 || tagger.tagged[0] != out {
		t.Errorf("expected the output file to be tagged, got %v", tagger.tagged)
	}

	want := []model.TrackStatus{
		model.TrackStatusLocating,
		model.TrackStatusDownloading,
		model.TrackStatusTranscoding,
		model.TrackStatusTagging,
		model.TrackStatusCompleted,
	}
	got := sink.statuses()
	if len(got) != len(want) {
		t.Fatalf("expected statuses %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected status %s, got %s", i, want[i], got[i])
		}
	}

	if track.Status != model.TrackStatusCompleted {
		t.Errorf("track status = %s, want completed", track.Status)
	}
	if track.Progress != 100 {
		t.Errorf("track progress = %d, want 100", track.Progress)
	}
}

func TestRun_CachedOutputSkipsStages(t *testing.T) {
	loc := &fakeLocator{err: errors.New("must not be called")}
	p, paths := testPipeline(t, loc, &fakeFetcher{err: errors.New("must not be called")}, &fakeTranscoder{}, &fakeTagger{})

	track := pipelineTrack()
	out := paths.OutputFile(track)
	if err := os.WriteFile(out, []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	sink := &recordingSink{}
	got, err := p.Run(context.Background(), "job-1", track, sink)
	if err != nil {
		t.Fatalf("Run failed on cached output: %v", err)
	}
	if got != out {
		t.Errorf("expected cached path %q, got %q", out, got)
	}

	last := sink.events[len(sink.events)-1]
	if last.status != model.TrackStatusCompleted || last.progress != 100 {
		t.Errorf("expected a completed/100 event, got %s/%d", last.status, last.progress)
	}
}

func TestRun_LocateFailure(t *testing.T) {
	loc := &fakeLocator{err: errors.New("no source")}
	p, _ := testPipeline(t, loc, &fakeFetcher{}, &fakeTranscoder{}, &fakeTagger{})

	track := pipelineTrack()
	sink := &recordingSink{}

	_, err := p.Run(context.Background(), "job-1", track, sink)
	if err == nil {
		t.Fatal("expected an error")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected a *StageError, got %T", err)
	}
	if stageErr.Stage != StageLocate {
		t.Errorf("expected stage locate, got %s", stageErr.Stage)
	}

	last := sink.events[len(sink.events)-1]
	if last.status != model.TrackStatusError {
		t.Errorf("expected a final error event, got %s", last.status)
	}
	if last.progress != 0 {
		t.Errorf("error event progress = %d, want 0", last.progress)
	}
	if !strings.Contains(last.message, "Error downloading Midnight") {
		t.Errorf("unexpected error message: %q", last.message)
	}
	if track.Status != model.TrackStatusError {
		t.Errorf("track status = %s, want error", track.Status)
	}
}

func TestRun_FetchFailure(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	p, _ := testPipeline(t, loc, &fakeFetcher{err: errors.New("stream broken")}, &fakeTranscoder{}, &fakeTagger{})

	_, err := p.Run(context.Background(), "job-1", pipelineTrack(), &recordingSink{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected a *StageError, got %v", err)
	}
	if stageErr.Stage != StageFetch {
		t.Errorf("expected stage fetch, got %s", stageErr.Stage)
	}
}

func TestRun_TranscodeFailure(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	p, _ := testPipeline(t, loc, &fakeFetcher{}, &fakeTranscoder{err: errors.New("ffmpeg exploded")}, &fakeTagger{})

	_, err := p.Run(context.Background(), "job-1", pipelineTrack(), &recordingSink{})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected a *StageError, got %v", err)
	}
	if stageErr.Stage != StageTranscode {
		t.Errorf("expected stage transcode, got %s", stageErr.Stage)
	}
}

func TestRun_TaggingFailureStillCompletes(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	p, _ := testPipeline(t, loc, &fakeFetcher{}, &fakeTranscoder{}, &fakeTagger{err: errors.New("bad artwork")})

	track := pipelineTrack()
	sink := &recordingSink{}

	out, err := p.Run(context.Background(), "job-1", track, sink)
	if err != nil {
		t.Fatalf("tagging failures must not fail the track: %v", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Errorf("output file missing: %v", statErr)
	}
	if track.Status != model.TrackStatusCompleted {
		t.Errorf("track status = %s, want completed", track.Status)
	}
}

func TestRun_ProgressScale(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	fetcher := &fakeFetcher{progress: []int64{20, 60, 100}}
	transcoder := &fakeTranscoder{progress: []float64{25, 75, 100}}
	p, _ := testPipeline(t, loc, fetcher, transcoder, &fakeTagger{})

	sink := &recordingSink{}
	if _, err := p.Run(context.Background(), "job-1", pipelineTrack(), sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var progress []int
	for _, e := range sink.events {
		progress = append(progress, e.progress)
	}

	// Fetch reports map to the 0-50 half, transcode to 50-100.
	for i, e := range sink.events {
		switch e.status {
		case model.TrackStatusDownloading:
			if e.progress > 50 {
				t.Errorf("event %d: fetch progress %d above 50", i, e.progress)
			}
		case model.TrackStatusTranscoding:
			if e.progress < 50 || e.progress > 100 {
				t.Errorf("event %d: transcode progress %d outside 50-100", i, e.progress)
			}
		}
	}

	// Progress never moves backwards.
	last := -1
	for i, pnt := range progress {
		if pnt < last {
			t.Errorf("event %d: progress went backwards (%d after %d)", i, pnt, last)
		}
		last = pnt
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("final progress = %d, want 100", progress[len(progress)-1])
	}
}

// lengthlessFetcher reports progress without a known total, as the
// ProgressFunc contract allows.
type lengthlessFetcher struct{}

func (f *lengthlessFetcher) Fetch(ctx context.Context, sourceID, dst string, onProgress ProgressFunc) error {
	onProgress(1024, 0)
	onProgress(4096, 0)
	return os.WriteFile(dst, []byte("raw audio"), 0o644)
}

func TestRun_FetchWithoutKnownLength(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	p, _ := testPipeline(t, loc, &lengthlessFetcher{}, &fakeTranscoder{}, &fakeTagger{})

	track := pipelineTrack()
	sink := &recordingSink{}

	out, err := p.Run(context.Background(), "job-1", track, sink)
	if err != nil {
		t.Fatalf("Run failed on a source without a length: %v", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Errorf("output file missing: %v", statErr)
	}
	if track.Status != model.TrackStatusCompleted {
		t.Errorf("track status = %s, want completed", track.Status)
	}

	// Unscalable reports are dropped, not emitted as garbage.
	for i, e := range sink.events {
		if e.progress < 0 || e.progress > 100 {
			t.Errorf("event %d: progress %d out of range", i, e.progress)
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	loc := &fakeLocator{candidate: model.Candidate{ID: "vid"}}
	p, _ := testPipeline(t, loc, &fakeFetcher{}, &fakeTranscoder{}, &fakeTagger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, "job-1", pipelineTrack(), &recordingSink{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in the chain, got %v", err)
	}
}
