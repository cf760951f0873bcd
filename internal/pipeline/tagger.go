package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/nfnt/resize"

	"github.com/spotiload/api/internal/model"
)

// Covers larger than this are downscaled before embedding to keep the
// finished files reasonably sized.
const maxArtworkWidth = 600

// ID3Tagger embeds track metadata and cover art into finished MP3s.
type ID3Tagger struct {
	client *http.Client
}

func NewID3Tagger() *ID3Tagger {
	return &ID3Tagger{client: &http.Client{Timeout: 30 * time.Second}}
}

// Tag rewrites path's ID3 frames in place from the track descriptor.
// The file is valid audio with or without tags, so callers treat any
// error here as a degraded but successful download.
func (t *ID3Tagger) Tag(ctx context.Context, path string, track *model.Track) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(track.Title)
	tag.SetArtist(track.Artist)
	tag.SetAlbum(track.Album)
	if year := track.Year(); year != "" {
		tag.SetYear(year)
	}
	if track.ISRC != "" {
		tag.AddTextFrame("TSRC", id3v2.EncodingUTF8, track.ISRC)
	}
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding: id3v2.EncodingUTF8,
		Language: "eng",
		Text:     "Downloaded with spotiload",
	})

	if track.AlbumArt != "" {
		if art, err := t.fetchArtwork(ctx, track.AlbumArt); err != nil {
			// Art problems must not fail the track.
			return tag.Save()
		} else if art != nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     art,
			})
		}
	}

	return tag.Save()
}

// fetchArtwork downloads the cover image, downscaling oversized art.
func (t *ID3Tagger) fetchArtwork(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		// Not a JPEG we can inspect; embed the bytes as-is.
		return data, nil
	}
	if img.Bounds().Dx() <= maxArtworkWidth {
		return data, nil
	}

	scaled := resize.Resize(maxArtworkWidth, 0, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, nil); err != nil {
		return data, nil
	}
	return buf.Bytes(), nil
}
