package proxy

import "io"

// duplexStream is an in-memory transport.Stream backed by two independent
// io.Pipe halves, so CloseWrite can half-close without tearing down reads,
// matching what the copier relies on for a real TCP/QUIC stream.
type duplexStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (d *duplexStream) Read(p []byte) (int, error)  { return d.r.Read(p) }
func (d *duplexStream) Write(p []byte) (int, error) { return d.w.Write(p) }
func (d *duplexStream) CloseWrite() error            { return d.w.Close() }
func (d *duplexStream) Close() error {
	d.w.Close()
	return d.r.Close()
}

// newStreamPair returns two ends of an in-memory duplex connection: writes
// to one side's Write become reads from the other side's Read, and vice
// versa.
func newStreamPair() (*duplexStream, *duplexStream) {
	r1, w1 := io.Pipe()
	r2, w2 := io.Pipe()
	return &duplexStream{r: r1, w: w2}, &duplexStream{r: r2, w: w1}
}
