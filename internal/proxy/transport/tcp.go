package transport

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// tcpStream wraps a *tls.Conn to additionally satisfy CloseWrite via the
// underlying net.Conn's half-close, which *tls.Conn does not expose itself
// once the handshake has wrapped the raw socket.
type tcpStream struct {
	*tls.Conn
	raw net.Conn
}

func (s *tcpStream) CloseWrite() error {
	if cw, ok := s.raw.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return s.Conn.Close()
}

// TCPAcceptor accepts mutually-authenticated TLS-over-TCP connections.
type TCPAcceptor struct {
	ln net.Listener
}

// ListenTCP starts listening on addr with the given TLS config, which must
// require and verify a client certificate.
func ListenTCP(addr string, tlsConf *tls.Config) (*TCPAcceptor, error) {
	ln, err := tls.Listen("tcp", addr, tlsConf)
	if err != nil {
		return nil, kerrors.Wrap(err, "transport: listening tcp on %s", addr)
	}
	return &TCPAcceptor{ln: ln}, nil
}

func (a *TCPAcceptor) Accept(ctx context.Context) (Stream, net.Addr, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := a.ln.Accept()
		ch <- result{conn, err}
	}()
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, nil, kerrors.Wrap(r.err, "transport: tcp accept")
		}
		tlsConn, ok := r.conn.(*tls.Conn)
		if !ok {
			return nil, nil, kerrors.New(kerrors.Bug, "transport: tcp listener yielded a non-TLS connection")
		}
		return &tcpStream{Conn: tlsConn, raw: tlsConn.NetConn()}, r.conn.RemoteAddr(), nil
	}
}

func (a *TCPAcceptor) Close() error { return a.ln.Close() }

// TCPConnector dials a fresh mutually-authenticated TLS-over-TCP connection
// on every Connect call.
type TCPConnector struct {
	addr    string
	tlsConf *tls.Config
}

// DialTCP creates a connector that dials addr per Connect call.
func DialTCP(addr string, tlsConf *tls.Config) *TCPConnector {
	return &TCPConnector{addr: addr, tlsConf: tlsConf}
}

func (c *TCPConnector) Connect(ctx context.Context) (Stream, error) {
	dialer := tls.Dialer{Config: c.tlsConf}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, kerrors.Wrap(err, "transport: dialing tcp %s", c.addr)
	}
	tlsConn := conn.(*tls.Conn)
	return &tcpStream{Conn: tlsConn, raw: tlsConn.NetConn()}, nil
}

func (c *TCPConnector) Close() error { return nil }
