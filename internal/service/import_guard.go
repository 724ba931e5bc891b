package service

import (
	"context"
	"sort"
	"sync"
	"time"
)

// importGuard tracks the files being imported. A path is imported by at most
// one goroutine at a time, and shutdown can wait for the rest.
type importGuard struct {
	mu       sync.Mutex
	inFlight map[string]time.Time
	wg       sync.WaitGroup
}

// Begin marks path as importing. Returns false if it already is.
func (g *importGuard) Begin(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight == nil {
		g.inFlight = make(map[string]time.Time)
	}
	if _, ok := g.inFlight[path]; ok {
		return false
	}
	g.inFlight[path] = time.Now()
	g.wg.Add(1)
	return true
}

// End releases path. Must follow a successful Begin.
func (g *importGuard) End(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, path)
	g.wg.Done()
}

// Pending returns the paths still importing, oldest first.
func (g *importGuard) Pending() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	paths := make([]string, 0, len(g.inFlight))
	for p := range g.inFlight {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return g.inFlight[paths[i]].Before(g.inFlight[paths[j]])
	})
	return paths
}

// Wait blocks until no import is running, or returns ctx.Err() if ctx ends
// first.
func (g *importGuard) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
