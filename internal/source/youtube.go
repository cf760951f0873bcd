package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/spotiload/api/internal/model"
)

const (
	searchEndpoint = "https://www.youtube.com/youtubei/v1/search?prettyPrint=false"

	// Innertube web client identity; the search endpoint rejects
	// requests without one.
	innertubeClientName    = "WEB"
	innertubeClientVersion = "2.20240304.00.00"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// YouTubeSearcher queries YouTube's innertube search API.
type YouTubeSearcher struct {
	client   *http.Client
	endpoint string
}

func NewYouTubeSearcher() *YouTubeSearcher {
	return &YouTubeSearcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: searchEndpoint,
	}
}

type searchRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
		} `json:"client"`
	} `json:"context"`
	Query string `json:"query"`
}

type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	OwnerText struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"ownerText"`
}

// Search returns up to limit video results for the query. Non-video
// entries (channels, playlists, shelves) are dropped here, so callers
// only ever see playable candidates.
func (s *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]model.Candidate, error) {
	var reqBody searchRequest
	reqBody.Context.Client.ClientName = innertubeClientName
	reqBody.Context.Client.ClientVersion = innertubeClientVersion
	reqBody.Query = query

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube search: HTTP %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("youtube search: decode response: %w", err)
	}

	var candidates []model.Candidate
	for _, section := range result.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		for _, item := range section.ItemSectionRenderer.Contents {
			vr := item.VideoRenderer
			if vr == nil || vr.VideoID == "" || len(vr.Title.Runs) == 0 {
				continue
			}

			c := model.Candidate{
				ID:       vr.VideoID,
				URL:      "https://www.youtube.com/watch?v=" + vr.VideoID,
				Title:    vr.Title.Runs[0].Text,
				Duration: vr.LengthText.SimpleText,
			}
			if len(vr.OwnerText.Runs) > 0 {
				c.Author = vr.OwnerText.Runs[0].Text
			}

			candidates = append(candidates, c)
			if len(candidates) >= limit {
				return candidates, nil
			}
		}
	}

	return candidates, nil
}
