package proxy

import "sync/atomic"

// counters holds the cumulative tx/rx byte totals for one egress, updated
// atomically as transfers complete.
type counters struct {
	tx atomic.Int64
	rx atomic.Int64
}

func (c *counters) add(tx, rx int64) {
	c.tx.Add(tx)
	c.rx.Add(rx)
}

func (c *counters) snapshot() (tx, rx int64) {
	return c.tx.Load(), c.rx.Load()
}

// Snapshot is one egress's {tx, rx} pair returned by Stats, suitable for
// diffing on a periodic interval.
type Snapshot struct {
	EgressID string
	Tx       int64
	Rx       int64
}
