package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kkdai/youtube/v2"

	"github.com/spotiload/api/internal/storage"
)

// ProgressFunc receives byte-level fetch progress. bytesTotal may be
// zero when the source does not report a length.
type ProgressFunc func(bytesDownloaded, bytesTotal int64)

// YouTubeFetcher streams the audio track of a YouTube video to disk.
type YouTubeFetcher struct {
	client youtube.Client
}

func NewYouTubeFetcher() *YouTubeFetcher {
	return &YouTubeFetcher{}
}

// Fetch streams the highest-bitrate audio-only format of videoID into
// dst. If dst already exists the fetch is skipped outright; that is a
// cache hit, not an error, and no network I/O happens. On failure the
// partial file is removed so it can never masquerade as a finished
// download.
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID, dst string, onProgress ProgressFunc) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return fmt.Errorf("resolve video %s: %w", videoID, err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return fmt.Errorf("video %s has no audio-only format", videoID)
	}

	stream, size, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("open stream for %s: %w", videoID, err)
	}
	defer stream.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	pw := &progressWriter{dst: out, total: size, onProgress: onProgress}
	if _, err := io.Copy(pw, stream); err != nil {
		out.Close()
		_ = storage.RemoveIfExists(dst)
		return fmt.Errorf("stream %s: %w", videoID, err)
	}

	if err := out.Close(); err != nil {
		_ = storage.RemoveIfExists(dst)
		return err
	}
	return nil
}

func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

// progressWriter forwards written bytes to the destination while
// reporting progress at a throttled cadence: callbacks fire only when
// the 0-50 scaled percentage advances by at least 5 points, so a slow
// subscriber is never flooded with byte-level noise.
type progressWriter struct {
	dst        io.Writer
	total      int64
	written    int64
	lastPoint  int
	onProgress ProgressFunc
}

const (
	fetchScaleMax      = 50
	fetchProgressDelta = 5
)

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	w.written += int64(n)

	if err == nil && w.onProgress != nil && w.total > 0 {
		point := int(w.written * fetchScaleMax / w.total)
		if point >= w.lastPoint+fetchProgressDelta {
			w.lastPoint = point
			w.onProgress(w.written, w.total)
		}
	}
	return n, err
}
