package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// quicStream adapts a quic.Stream to Stream; QUIC streams already expose a
// half-close via Close on the write side through CancelWrite/Close semantics,
// so CloseWrite just closes the write side without tearing down reads.
type quicStream struct {
	quic.Stream
}

func (s *quicStream) CloseWrite() error {
	return s.Stream.Close()
}

// QUICAcceptor accepts QUIC connections and hands out one substream per
// Accept call. Each Accept accepts a new connection and returns the first
// substream the peer opens on it; further substreams on an already accepted
// connection are never accepted.
type QUICAcceptor struct {
	ln *quic.Listener
}

// ListenQUIC starts listening on addr with the given mutually-authenticated
// TLS config.
func ListenQUIC(addr string, tlsConf *tls.Config) (*QUICAcceptor, error) {
	ln, err := quic.ListenAddr(addr, tlsConf, &quic.Config{})
	if err != nil {
		return nil, kerrors.Wrap(err, "transport: listening quic on %s", addr)
	}
	return &QUICAcceptor{ln: ln}, nil
}

func (a *QUICAcceptor) Accept(ctx context.Context) (Stream, net.Addr, error) {
	conn, err := a.ln.Accept(ctx)
	if err != nil {
		return nil, nil, kerrors.Wrap(err, "transport: quic accept connection")
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, nil, kerrors.Wrap(err, "transport: quic accept substream")
	}
	return &quicStream{Stream: stream}, conn.RemoteAddr(), nil
}

func (a *QUICAcceptor) Close() error { return a.ln.Close() }

// QUICConnector holds a persistent QUIC connection, opening a fresh
// substream per Connect call and transparently reconnecting the underlying
// connection if it has been lost since the previous call.
type QUICConnector struct {
	addr    string
	tlsConf *tls.Config

	mu   sync.Mutex
	conn quic.Connection
}

// DialQUIC creates a connector that lazily establishes (and re-establishes)
// one persistent connection to addr.
func DialQUIC(addr string, tlsConf *tls.Config) *QUICConnector {
	return &QUICConnector{addr: addr, tlsConf: tlsConf}
}

func (c *QUICConnector) Connect(ctx context.Context) (Stream, error) {
	conn, err := c.connection(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		// The connection may have died between uses; drop it and retry once
		// against a freshly dialed connection.
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn, err = c.connection(ctx)
		if err != nil {
			return nil, err
		}
		stream, err = conn.OpenStreamSync(ctx)
		if err != nil {
			return nil, kerrors.Wrap(err, "transport: opening quic substream to %s", c.addr)
		}
	}
	return &quicStream{Stream: stream}, nil
}

func (c *QUICConnector) connection(ctx context.Context) (quic.Connection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil && c.conn.Context().Err() == nil {
		return c.conn, nil
	}
	conn, err := quic.DialAddr(ctx, c.addr, c.tlsConf, &quic.Config{})
	if err != nil {
		return nil, kerrors.Wrap(err, "transport: dialing quic %s", c.addr)
	}
	c.conn = conn
	return conn, nil
}

func (c *QUICConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.CloseWithError(0, "closed")
}
