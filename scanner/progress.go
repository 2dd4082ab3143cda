package scanner

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is how often indexing progress is logged.
const DefaultProgressInterval = 10 * time.Second

// progressReporter logs the number of indexed files at a fixed interval
// until stopped.
type progressReporter struct {
	logger   *slog.Logger
	interval time.Duration

	count atomic.Int64
	last  atomic.Value // string

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func startProgress(logger *slog.Logger, interval time.Duration) *progressReporter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	p := &progressReporter{
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *progressReporter) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			last, _ := p.last.Load().(string)
			p.logger.Info(fmt.Sprintf("%s indexed...  (last one was %s)", pluralizeFiles(p.count.Load()), last))
		}
	}
}

func (p *progressReporter) increment(path string) {
	p.count.Add(1)
	p.last.Store(path)
}

// cancel stops the reporter and waits for its goroutine. Safe to call more than once.
func (p *progressReporter) cancel() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	<-p.done
}

// finish stops the reporter and logs the total.
func (p *progressReporter) finish() {
	p.cancel()
	p.logger.Info(fmt.Sprintf("%s indexed", pluralizeFiles(p.count.Load())))
}

func pluralizeFiles(n int64) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
