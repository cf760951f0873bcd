package source

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spotiload/api/internal/model"
)

// Scoring penalties. Lower totals are better; a perfect candidate
// scores zero.
const (
	penaltyTitleMiss   = 10
	penaltyArtistMiss  = 8
	penaltyKeywordMiss = 5
	penaltyChannelMiss = 3

	// Candidates running more than this many seconds past the track
	// are likely compilations or full albums.
	durationSlackSeconds = 30
	durationPenaltyCap   = 10
)

var audioKeywords = []string{"audio", "official", "lyric"}

// ScoredCandidate pairs a candidate with its match score. It exists
// only during matcher evaluation.
type ScoredCandidate struct {
	Candidate model.Candidate
	Score     float64
}

// Score rates how well a candidate matches a track. Deterministic and
// free of I/O so it can be exercised without any network access.
func Score(track *model.Track, c model.Candidate) float64 {
	var score float64

	title := strings.ToLower(c.Title)
	if !strings.Contains(title, strings.ToLower(track.Title)) {
		score += penaltyTitleMiss
	}
	if !strings.Contains(title, strings.ToLower(track.PrimaryArtist)) {
		score += penaltyArtistMiss
	}

	keyword := false
	for _, kw := range audioKeywords {
		if strings.Contains(title, kw) {
			keyword = true
			break
		}
	}
	if !keyword {
		score += penaltyKeywordMiss
	}

	candidateSeconds := DurationSeconds(c.Duration)
	trackSeconds := float64(track.Duration) / 1000
	if excess := float64(candidateSeconds) - trackSeconds; excess > durationSlackSeconds {
		penalty := excess / 10
		if penalty > durationPenaltyCap {
			penalty = durationPenaltyCap
		}
		score += penalty
	}

	if c.Author != "" && !strings.Contains(strings.ToLower(c.Author), strings.ToLower(track.PrimaryArtist)) {
		score += penaltyChannelMiss
	}

	return score
}

// BestMatch picks the lowest-scoring candidate, breaking ties by
// first-seen order. It always returns a candidate when the list is
// non-empty, however poor the best score is; there is deliberately no
// acceptance ceiling.
func BestMatch(track *model.Track, candidates []model.Candidate) (model.Candidate, bool) {
	if len(candidates) == 0 {
		return model.Candidate{}, false
	}

	scored := make([]ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoredCandidate{Candidate: c, Score: Score(track, c)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})

	return scored[0].Candidate, true
}

// DurationSeconds converts a "mm:ss" or "h:mm:ss" duration string to
// seconds. Unparseable parts count as zero.
func DurationSeconds(d string) int {
	seconds := 0
	for _, part := range strings.Split(d, ":") {
		n, _ := strconv.Atoi(strings.TrimSpace(part))
		seconds = seconds*60 + n
	}
	return seconds
}
