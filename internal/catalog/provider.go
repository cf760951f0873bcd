// Package catalog resolves Spotify references into track descriptors.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/spotiload/api/internal/model"
)

// Provider fetches track and playlist metadata from the Spotify API.
type Provider struct {
	client *spotify.Client
}

func NewProvider(creds *Credentials) *Provider {
	httpClient := oauth2.NewClient(context.Background(), creds)
	return &Provider{client: spotify.New(httpClient)}
}

// Track fetches metadata for a single track.
func (p *Provider) Track(ctx context.Context, id string) (model.Track, error) {
	ft, err := p.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return model.Track{}, fmt.Errorf("fetch track %s: %w", id, err)
	}
	return fromFullTrack(*ft), nil
}

// Playlist fetches a playlist's name and every track in it, walking
// the API's pagination until exhausted.
func (p *Provider) Playlist(ctx context.Context, id string) (string, []model.Track, error) {
	playlist, err := p.client.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, fmt.Errorf("fetch playlist %s: %w", id, err)
	}

	var tracks []model.Track
	page := playlist.Tracks
	for {
		for _, item := range page.Tracks {
			if item.Track.ID == "" {
				continue // removed or local-only entry
			}
			tracks = append(tracks, fromFullTrack(item.Track))
		}

		err := p.client.NextPage(ctx, &page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("fetch playlist %s tracks: %w", id, err)
		}
	}

	return playlist.Name, tracks, nil
}

func fromFullTrack(ft spotify.FullTrack) model.Track {
	names := make([]string, 0, len(ft.Artists))
	for _, artist := range ft.Artists {
		names = append(names, artist.Name)
	}

	track := model.Track{
		ID:          string(ft.ID),
		Title:       ft.Name,
		Artist:      strings.Join(names, ", "),
		Album:       ft.Album.Name,
		ReleaseDate: ft.Album.ReleaseDate,
		Duration:    int(ft.Duration),
		ISRC:        ft.ExternalIDs["isrc"],
		Popularity:  int(ft.Popularity),
		Status:      model.TrackStatusPending,
	}
	if len(names) > 0 {
		track.PrimaryArtist = names[0]
	}
	if len(ft.Album.Images) > 0 {
		track.AlbumArt = ft.Album.Images[0].URL
	}
	return track
}
