package pipeline

import "fmt"

// Stage names the pipeline step an error originated in.
type Stage string

const (
	StageLocate    Stage = "locate"
	StageFetch     Stage = "fetch"
	StageTranscode Stage = "transcode"
	StageTag       Stage = "tag"
)

// StageError classifies a track failure by pipeline stage. Per-track
// stage errors never abort the batch; the orchestrator logs them and
// moves on to the next track.
type StageError struct {
	Stage Stage
	Track string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Track, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
