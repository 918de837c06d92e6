package proxy

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// EgressSender is what the dispatch loop calls for every routed request.
// Egress satisfies it by opening a stream through its Connector (which, for
// a persistent transport like QUIC, auto-reconnects if needed) and relaying
// bytes in both directions.
type EgressSender interface {
	Send(ctx context.Context, req ProxyRequest) (up, down int64, err error)
}

// Send opens an outbound stream through the egress's Connector, which always
// connects to the egress's own configured address, and relays bytes between
// it and req.Client until either side closes, folding the transfer's totals
// into the egress's cumulative counters before returning. req.Remote is not
// written to the stream (it appears only in error messages); for
// ForwardHTTP the replayed request head carries the Host header.
func (e *Egress) Send(ctx context.Context, req ProxyRequest) (int64, int64, error) {
	stream, err := e.Connector.Connect(ctx)
	if err != nil {
		return 0, 0, kerrors.Wrap(err, "proxy: egress %s connecting to %s", e.ID, req.Remote.Address())
	}
	defer stream.Close()

	if req.Kind == ForwardHTTP && len(req.HTTPHead) > 0 {
		if _, err := stream.Write(req.HTTPHead); err != nil {
			return 0, 0, kerrors.Wrap(err, "proxy: egress %s writing http head to %s", e.ID, req.Remote.Address())
		}
	}

	var c copier
	c.run(req.Client, stream)
	up, down := c.totals()
	e.counters.add(up, down)
	return up, down, nil
}

// Snapshot returns this egress's cumulative {tx, rx} totals.
func (e *Egress) Snapshot() Snapshot {
	tx, rx := e.counters.snapshot()
	return Snapshot{EgressID: e.ID, Tx: tx, Rx: rx}
}
