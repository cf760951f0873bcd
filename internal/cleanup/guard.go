package cleanup

import "sync"

// Guard tracks files that an in-flight pipeline still depends on so
// the sweeper never deletes them out from under a running download,
// regardless of how the age thresholds relate to processing time.
type Guard struct {
	mu    sync.Mutex
	paths map[string]int
}

func NewGuard() *Guard {
	return &Guard{paths: make(map[string]int)}
}

// Hold marks paths as in use. Holds are counted, so two jobs sharing a
// track's files release independently.
func (g *Guard) Hold(paths ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range paths {
		g.paths[p]++
	}
}

// Release drops one hold from each path.
func (g *Guard) Release(paths ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range paths {
		if g.paths[p] <= 1 {
			delete(g.paths, p)
		} else {
			g.paths[p]--
		}
	}
}

// Held reports whether any pipeline still depends on path.
func (g *Guard) Held(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.paths[path]
	return ok
}
