package catalog

import (
	"regexp"

	"github.com/spotiload/api/internal/model"
)

var (
	trackURLPattern    = regexp.MustCompile(`^(https?://)?(open\.spotify\.com|spotify)/track/([a-zA-Z0-9]+)(\?.*)?$`)
	playlistURLPattern = regexp.MustCompile(`^(https?://)?(open\.spotify\.com|spotify)/playlist/([a-zA-Z0-9]+)(\?.*)?$`)
)

// ParseURL classifies a Spotify URL and extracts its resource id.
func ParseURL(url string) (model.JobKind, string, bool) {
	if m := trackURLPattern.FindStringSubmatch(url); m != nil {
		return model.JobKindTrack, m[3], true
	}
	if m := playlistURLPattern.FindStringSubmatch(url); m != nil {
		return model.JobKindPlaylist, m[3], true
	}
	return "", "", false
}
