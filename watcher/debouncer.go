package watcher

import (
	"sort"
	"sync"
	"time"
)

// Change is a file system change, collapsed over the debounce window.
type Change struct {
	Path string
	Op   Op
}

// Op is the kind of file system operation.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	default:
		return "rename"
	}
}

// Debouncer collects changes and emits them as one batch after a quiet period.
// Changes of the same path within the window are collapsed into the latest one.
type Debouncer struct {
	interval time.Duration
	changes  map[string]Change
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []Change
	closed   bool
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		changes:  make(map[string]Change),
		output:   make(chan []Change, 16),
	}
}

// Output returns the channel that receives batches, sorted by path.
func (d *Debouncer) Output() <-chan []Change {
	return d.output
}

// Add records a change and restarts the quiet period.
func (d *Debouncer) Add(path string, op Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.changes[path] = Change{Path: path, Op: op}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop drops pending changes and closes the output channel.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.changes = nil
	close(d.output)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || len(d.changes) == 0 {
		return
	}

	batch := make([]Change, 0, len(d.changes))
	for _, change := range d.changes {
		batch = append(batch, change)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })

	d.changes = make(map[string]Change)
	select {
	case d.output <- batch:
	default:
		// output full, retry after another interval
		for _, change := range batch {
			d.changes[change.Path] = change
		}
		d.timer = time.AfterFunc(d.interval, d.flush)
	}
}
