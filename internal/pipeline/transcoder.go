package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spotiload/api/internal/storage"
)

// FFmpegTranscoder converts raw audio to MP3 at a fixed bitrate by
// driving an external ffmpeg process.
type FFmpegTranscoder struct {
	binary  string
	bitrate int // kbps
}

func NewFFmpegTranscoder(bitrate int) *FFmpegTranscoder {
	if bitrate <= 0 {
		bitrate = 320
	}
	return &FFmpegTranscoder{binary: "ffmpeg", bitrate: bitrate}
}

// Transcode converts src into an MP3 at dst. durationMS is the track's
// known length, used to turn ffmpeg's out_time reports into a 0-100
// stage percentage; the caller rescales that into the track's overall
// progress range. On failure no partial destination file remains.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, src, dst string, durationMS int, onProgress func(percent float64)) error {
	cmd := exec.CommandContext(ctx, t.binary,
		"-y",
		"-i", src,
		"-vn",
		"-b:a", fmt.Sprintf("%dk", t.bitrate),
		"-f", "mp3",
		"-progress", "pipe:1",
		"-nostats",
		"-loglevel", "error",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "out_time_ms=") {
			continue
		}
		us, err := strconv.ParseInt(strings.TrimPrefix(line, "out_time_ms="), 10, 64)
		if err != nil || durationMS <= 0 || onProgress == nil {
			continue
		}
		percent := float64(us) / 1000 / float64(durationMS) * 100
		if percent > 100 {
			percent = 100
		}
		onProgress(percent)
	}

	if err := cmd.Wait(); err != nil {
		_ = storage.RemoveIfExists(dst)
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf("%s: %w", t.binary, err)
		}
		return fmt.Errorf("%s: %s", t.binary, detail)
	}
	return nil
}
