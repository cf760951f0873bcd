package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spotiload/api/internal/catalog"
	"github.com/spotiload/api/internal/model"
	"github.com/spotiload/api/internal/store"
)

// ErrInvalidURL means the submitted URL is not a recognized track or
// playlist reference.
var ErrInvalidURL = errors.New("invalid Spotify URL")

// CatalogService resolves catalog references and creates job records.
type CatalogService struct {
	provider  *catalog.Provider
	jobs      *store.Jobs
	retention time.Duration
}

func NewCatalogService(provider *catalog.Provider, jobs *store.Jobs, retention time.Duration) *CatalogService {
	return &CatalogService{provider: provider, jobs: jobs, retention: retention}
}

// Validate classifies a URL without touching the catalog API.
func (s *CatalogService) Validate(url string) (*model.ValidateURLResponse, error) {
	kind, id, ok := catalog.ParseURL(url)
	if !ok {
		return nil, ErrInvalidURL
	}
	return &model.ValidateURLResponse{Kind: kind, ID: id}, nil
}

// Resolve fetches metadata for the URL's content and creates a pending
// job record holding the track list.
func (s *CatalogService) Resolve(ctx context.Context, url string) (*model.Job, error) {
	kind, id, ok := catalog.ParseURL(url)
	if !ok {
		return nil, ErrInvalidURL
	}

	var (
		name   string
		tracks []model.Track
	)
	switch kind {
	case model.JobKindTrack:
		track, err := s.provider.Track(ctx, id)
		if err != nil {
			return nil, err
		}
		name = track.Title
		tracks = []model.Track{track}
	case model.JobKindPlaylist:
		var err error
		name, tracks, err = s.provider.Playlist(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	job := &model.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		SpotifyID: id,
		Name:      name,
		Tracks:    tracks,
		Status:    model.JobStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return job, nil
}

// Status returns the current job record.
func (s *CatalogService) Status(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.Get(ctx, jobID)
}
