// Package transport implements the Acceptor/Connector tagged union that
// backs every proxy ingress and egress: a fixed set of concrete transport
// kinds (tcp, quic) behind one pair of interfaces, rather than open-ended
// plugin polymorphism.
package transport

import (
	"context"
	"io"
	"net"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Stream is one duplex byte stream, whether a raw TCP connection or a
// substream multiplexed over a QUIC connection.
type Stream interface {
	io.ReadWriteCloser
	// CloseWrite half-closes the stream for writing, signalling EOF to the
	// peer while still permitting reads, the way a TCP FIN does.
	CloseWrite() error
}

// Acceptor produces an unbounded sequence of inbound duplex streams for an
// ingress. Accept blocks until a stream arrives, the context is canceled, or
// the underlying listener is closed.
type Acceptor interface {
	Accept(ctx context.Context) (Stream, net.Addr, error)
	Close() error
}

// Connector produces outbound duplex streams on demand for an egress. A
// Connector may hold a persistent underlying connection (QUIC) that it
// reconnects transparently before returning a new stream, or it may dial a
// fresh connection per call (TCP).
type Connector interface {
	Connect(ctx context.Context) (Stream, error)
	Close() error
}

// Kind names a concrete transport variant. The tagged union is closed over
// this small set rather than open to arbitrary registration.
type Kind string

const (
	KindTCP  Kind = "tcp"
	KindQUIC Kind = "quic"
)

func (k Kind) valid() bool {
	return k == KindTCP || k == KindQUIC
}

// ParseKind validates a configured transport kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.valid() {
		return "", kerrors.New(kerrors.Parse, "transport: unknown kind %q, want tcp or quic", s)
	}
	return k, nil
}
