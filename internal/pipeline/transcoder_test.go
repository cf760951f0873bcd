package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubFFmpeg writes a shell script that mimics ffmpeg's -progress
// output, touching its last argument as the output file.
func stubFFmpeg(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestTranscode_ReportsProgress(t *testing.T) {
	stub := stubFFmpeg(t, `
for last; do :; done
echo "out_time_ms=50000000"
echo "out_time_ms=100000000"
echo "out_time_ms=200000000"
: > "$last"
`)

	tr := &FFmpegTranscoder{binary: stub, bitrate: 320}
	dst := filepath.Join(t.TempDir(), "out.mp3")

	var percents []float64
	err := tr.Transcode(context.Background(), "in.webm", dst, 200000, func(p float64) {
		percents = append(percents, p)
	})
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	want := []float64{25, 50, 100}
	if len(percents) != len(want) {
		t.Fatalf("expected %d progress reports, got %v", len(want), percents)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Errorf("report %d: got %v, want %v", i, percents[i], want[i])
		}
	}

	if _, err := os.Stat(dst); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestTranscode_ClampsOverrun(t *testing.T) {
	stub := stubFFmpeg(t, `
for last; do :; done
echo "out_time_ms=999000000"
: > "$last"
`)

	tr := &FFmpegTranscoder{binary: stub, bitrate: 320}
	dst := filepath.Join(t.TempDir(), "out.mp3")

	var got float64
	err := tr.Transcode(context.Background(), "in.webm", dst, 200000, func(p float64) { got = p })
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if got != 100 {
		t.Errorf("overrunning out_time should clamp to 100, got %v", got)
	}
}

func TestTranscode_FailureRemovesPartialOutput(t *testing.T) {
	stub := stubFFmpeg(t, `
for last; do :; done
: > "$last"
echo "corrupt input stream" >&2
exit 1
`)

	tr := &FFmpegTranscoder{binary: stub, bitrate: 320}
	dst := filepath.Join(t.TempDir(), "out.mp3")

	err := tr.Transcode(context.Background(), "in.webm", dst, 200000, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "corrupt input stream") {
		t.Errorf("error should carry the stderr detail, got %v", err)
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Error("partial output should be removed on failure")
	}
}

func TestNewFFmpegTranscoder_DefaultBitrate(t *testing.T) {
	tr := NewFFmpegTranscoder(0)
	if tr.bitrate != 320 {
		t.Errorf("default bitrate = %d, want 320", tr.bitrate)
	}
}
