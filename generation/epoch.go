package generation

import (
	"sync"
	"time"
)

// epochStaleAfter is how long a tuple's latest epoch is remembered. It must
// exceed the longest generation, including retries.
const epochStaleAfter = 15 * time.Minute

// epochs tracks the latest generation started per cache tuple so a late
// result cannot overwrite the entry of a newer generation.
type epochs struct {
	mu      sync.Mutex
	next    uint64
	latest  map[string]epochMark
	begins  int
	nowFunc func() time.Time
}

type epochMark struct {
	epoch   uint64
	started time.Time
}

func newEpochs(now func() time.Time) *epochs {
	return &epochs{latest: make(map[string]epochMark), nowFunc: now}
}

// begin records a new generation for key and returns its epoch.
func (e *epochs) begin(key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.nowFunc()
	e.next++
	e.latest[key] = epochMark{epoch: e.next, started: now}

	e.begins++
	if e.begins >= 256 {
		e.begins = 0
		for k, m := range e.latest {
			if now.Sub(m.started) > epochStaleAfter {
				delete(e.latest, k)
			}
		}
	}
	return e.next
}

// current reports whether epoch is still the latest for key.
func (e *epochs) current(key string, epoch uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.latest[key]
	return !ok || m.epoch == epoch
}
