package scanner

import "sync/atomic"

// IDGenerator hands out file identities, unique for the run and starting at 1.
type IDGenerator struct {
	last atomic.Int64
}

// Next returns a new identity.
func (g *IDGenerator) Next() int {
	return int(g.last.Add(1))
}
