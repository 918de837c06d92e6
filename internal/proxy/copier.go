package proxy

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

// copier relays bytes between a client stream and an egress stream in both
// directions concurrently, exposing two atomic counters for the current
// transfer; callers fold the final totals into the owning egress's
// cumulative counters on completion.
type copier struct {
	up   atomic.Int64 // client -> egress
	down atomic.Int64 // egress -> client
}

// run copies both directions until either side reaches EOF or errors, then
// half-closes the other direction so the still-open side can drain. It
// returns once both directions have stopped.
func (c *copier) run(client, egress transport.Stream) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		n, _ := io.Copy(countingWriter{egress, &c.up}, client)
		_ = n
		egress.CloseWrite()
	}()

	go func() {
		defer wg.Done()
		n, _ := io.Copy(countingWriter{client, &c.down}, egress)
		_ = n
		client.CloseWrite()
	}()

	wg.Wait()
}

func (c *copier) totals() (up, down int64) {
	return c.up.Load(), c.down.Load()
}

type countingWriter struct {
	w io.Writer
	n *atomic.Int64
}

func (cw countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n.Add(int64(n))
	return n, err
}
