package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/spotiload/api/internal/model"
)

// ErrSourceNotFound means no playable source came back for a track.
var ErrSourceNotFound = errors.New("no suitable audio source found")

// Searcher is the external audio-source index.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.Candidate, error)
}

// Locator resolves a track to its best external audio source.
type Locator struct {
	searcher Searcher
	limit    int
}

func NewLocator(searcher Searcher, limit int) *Locator {
	if limit <= 0 {
		limit = 5
	}
	return &Locator{searcher: searcher, limit: limit}
}

// Locate queries the source index for the track and returns the best
// match. Returns ErrSourceNotFound when nothing playable came back.
func (l *Locator) Locate(ctx context.Context, track *model.Track) (model.Candidate, error) {
	query := fmt.Sprintf("%s - %s audio", track.PrimaryArtist, track.Title)

	results, err := l.searcher.Search(ctx, query, l.limit)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("search %q: %w", query, err)
	}

	// Keep only results that actually carry playable video content.
	playable := results[:0]
	for _, c := range results {
		if c.ID != "" && c.Duration != "" {
			playable = append(playable, c)
		}
	}

	best, ok := BestMatch(track, playable)
	if !ok {
		return model.Candidate{}, ErrSourceNotFound
	}
	return best, nil
}
