// Package warnings collects the messages shown to the user at the end of an analysis.
package warnings

import (
	"log/slog"
	"sync"
)

// Collector keeps analysis warnings in the order they were first reported.
type Collector struct {
	mu       sync.Mutex
	logger   *slog.Logger
	seen     map[string]struct{}
	messages []string
}

// NewCollector creates an empty collector. Each new warning is also logged.
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// AddUnique records message unless it was already recorded.
func (c *Collector) AddUnique(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.seen[message]; exists {
		return
	}
	c.seen[message] = struct{}{}
	c.messages = append(c.messages, message)
	if c.logger != nil {
		c.logger.Warn(message)
	}
}

// Warnings returns the recorded messages.
func (c *Collector) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.messages...)
}
