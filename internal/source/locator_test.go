package source

import (
	"context"
	"errors"
	"testing"

	"github.com/spotiload/api/internal/model"
)

type fakeSearcher struct {
	query   string
	limit   int
	results []model.Candidate
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	f.query = query
	f.limit = limit
	return f.results, f.err
}

func TestLocate_QueryForm(t *testing.T) {
	fs := &fakeSearcher{results: []model.Candidate{
		{ID: "v1", Title: "Aeon - Midnight (Official Audio)", Duration: "3:22"},
	}}
	loc := NewLocator(fs, 5)

	_, err := loc.Locate(context.Background(), testTrack())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.query != "Aeon - Midnight audio" {
		t.Errorf("unexpected query: %q", fs.query)
	}
	if fs.limit != 5 {
		t.Errorf("unexpected limit: %d", fs.limit)
	}
}

func TestLocate_EmptyResults(t *testing.T) {
	loc := NewLocator(&fakeSearcher{}, 5)

	_, err := loc.Locate(context.Background(), testTrack())
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestLocate_FiltersUnplayable(t *testing.T) {
	fs := &fakeSearcher{results: []model.Candidate{
		{ID: "", Title: "Aeon - Midnight (Official Audio)", Duration: "3:22"},
		{ID: "live", Title: "Aeon - Midnight (Official Audio)", Duration: ""},
		{ID: "ok", Title: "Midnight cover", Duration: "3:30"},
	}}
	loc := NewLocator(fs, 5)

	best, err := loc.Locate(context.Background(), testTrack())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The better-scoring candidates lack an ID or duration and must be
	// dropped before matching.
	if best.ID != "ok" {
		t.Errorf("expected the playable candidate, got %q", best.ID)
	}
}

func TestLocate_AllUnplayable(t *testing.T) {
	fs := &fakeSearcher{results: []model.Candidate{
		{ID: "", Title: "a", Duration: "3:22"},
		{ID: "b", Title: "b", Duration: ""},
	}}
	loc := NewLocator(fs, 5)

	_, err := loc.Locate(context.Background(), testTrack())
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestLocate_SearchError(t *testing.T) {
	wantErr := errors.New("network down")
	loc := NewLocator(&fakeSearcher{err: wantErr}, 5)

	_, err := loc.Locate(context.Background(), testTrack())
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the search error to propagate, got %v", err)
	}
}

func TestNewLocator_DefaultLimit(t *testing.T) {
	fs := &fakeSearcher{results: []model.Candidate{
		{ID: "v1", Title: "x", Duration: "1:00"},
	}}
	loc := NewLocator(fs, 0)

	if _, err := loc.Locate(context.Background(), testTrack()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.limit != 5 {
		t.Errorf("expected default limit 5, got %d", fs.limit)
	}
}
