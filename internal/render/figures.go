package render

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Figures tracks which figure identifiers are currently held open. A render
// call opens its figure, draws into it and releases it before returning, so
// an identifier only collides while another call is still using it.
type Figures struct {
	mu    sync.Mutex
	open  map[int]struct{}
	gauge prometheus.Gauge
}

// NewFigures creates an empty registry. gauge may be nil.
func NewFigures(gauge prometheus.Gauge) *Figures {
	return &Figures{open: make(map[int]struct{}), gauge: gauge}
}

// Open claims id and returns the function that releases it. The release
// function is safe to call more than once.
func (f *Figures) Open(id int) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.open[id]; busy {
		return nil, fmt.Errorf("figure %d is already open", id)
	}
	f.open[id] = struct{}{}
	if f.gauge != nil {
		f.gauge.Inc()
	}

	var once sync.Once
	return func() { once.Do(func() { f.close(id) }) }, nil
}

func (f *Figures) close(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, id)
	if f.gauge != nil {
		f.gauge.Dec()
	}
}

// IsOpen reports whether id is currently claimed.
func (f *Figures) IsOpen(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.open[id]
	return ok
}

// Len returns the number of open figures.
func (f *Figures) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}
