package proxy

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/obs"
	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

// SOCKS5 wire constants, RFC 1928.
const (
	socks5Version = 0x05

	socks5AddrIPv4   = 0x01
	socks5AddrDomain = 0x03
	socks5AddrIPv6   = 0x04

	socks5CmdConnect = 0x01

	socks5ReplySuccess             = 0x00
	socks5ReplyCommandNotSupported = 0x07
)

// SOCKS5Server runs a SOCKS5 ingress: the no-authentication greeting
// exchange followed by a CONNECT command. Unlike the HTTP ingress, SOCKS5
// only ever produces ForwardTcp requests — the protocol has no notion of
// an HTTP request to decode headers from.
type SOCKS5Server struct {
	ID         string
	Acceptor   transport.Acceptor
	Dispatcher *Dispatcher
}

func (s *SOCKS5Server) Serve(ctx context.Context) {
	log := obs.Logger.WithField("component", "proxy.ingress.socks5").WithField("ingress", s.ID)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stream, _, err := s.Acceptor.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warnf("accept failed: %v", err)
			continue
		}
		go s.handle(stream, log)
	}
}

func (s *SOCKS5Server) handle(stream transport.Stream, log *logrus.Entry) {
	if err := socks5Greet(stream); err != nil {
		log.Warnf("greeting failed: %v", err)
		stream.Close()
		return
	}

	remote, err := socks5ReadRequest(stream)
	if err != nil {
		log.Warnf("request parse failed: %v", err)
		socks5Reply(stream, socks5ReplyCommandNotSupported)
		stream.Close()
		return
	}

	if err := socks5Reply(stream, socks5ReplySuccess); err != nil {
		stream.Close()
		return
	}

	s.Dispatcher.Submit(s.ID, ProxyRequest{Kind: ForwardTCP, Remote: remote, Client: stream})
}

// socks5Greet reads the client's method-selection message and always
// selects "no authentication required" (0x00); the core does not implement
// SOCKS5 username/password or GSSAPI authentication.
func socks5Greet(stream transport.Stream) error {
	hdr := make([]byte, 2)
	if _, err := readFull(stream, hdr); err != nil {
		return kerrors.Wrap(err, "socks5: reading greeting header")
	}
	if hdr[0] != socks5Version {
		return kerrors.New(kerrors.Parse, "socks5: unsupported version %d", hdr[0])
	}
	nMethods := int(hdr[1])
	methods := make([]byte, nMethods)
	if _, err := readFull(stream, methods); err != nil {
		return kerrors.Wrap(err, "socks5: reading method list")
	}
	_, err := stream.Write([]byte{socks5Version, 0x00})
	return err
}

// socks5ReadRequest reads the command request and returns the requested
// remote address; only CONNECT is supported, matching the core's
// ForwardTcp-only SOCKS5 surface.
func socks5ReadRequest(stream transport.Stream) (NetLocation, error) {
	hdr := make([]byte, 4)
	if _, err := readFull(stream, hdr); err != nil {
		return NetLocation{}, kerrors.Wrap(err, "socks5: reading request header")
	}
	ver, cmd, atyp := hdr[0], hdr[1], hdr[3]
	if ver != socks5Version {
		return NetLocation{}, kerrors.New(kerrors.Parse, "socks5: unsupported version %d", ver)
	}
	if cmd != socks5CmdConnect {
		return NetLocation{}, kerrors.New(kerrors.Parse, "socks5: unsupported command %d", cmd)
	}

	var host string
	switch atyp {
	case socks5AddrIPv4:
		b := make([]byte, 4)
		if _, err := readFull(stream, b); err != nil {
			return NetLocation{}, kerrors.Wrap(err, "socks5: reading ipv4 address")
		}
		host = net.IP(b).String()

	case socks5AddrDomain:
		lenBuf := make([]byte, 1)
		if _, err := readFull(stream, lenBuf); err != nil {
			return NetLocation{}, kerrors.Wrap(err, "socks5: reading domain length")
		}
		domain := make([]byte, lenBuf[0])
		if _, err := readFull(stream, domain); err != nil {
			return NetLocation{}, kerrors.Wrap(err, "socks5: reading domain")
		}
		host = string(domain)

	case socks5AddrIPv6:
		b := make([]byte, 16)
		if _, err := readFull(stream, b); err != nil {
			return NetLocation{}, kerrors.Wrap(err, "socks5: reading ipv6 address")
		}
		host = net.IP(b).String()

	default:
		return NetLocation{}, kerrors.New(kerrors.Parse, "socks5: unsupported address type %d", atyp)
	}

	portBuf := make([]byte, 2)
	if _, err := readFull(stream, portBuf); err != nil {
		return NetLocation{}, kerrors.Wrap(err, "socks5: reading port")
	}
	return NetLocation{Host: host, Port: int(binary.BigEndian.Uint16(portBuf))}, nil
}

// socks5Reply sends a fixed 0.0.0.0:0 bound-address reply; the core never
// reports a distinct bind address since outbound connections are made by
// the egress, not a locally bound socket the client can observe.
func socks5Reply(stream transport.Stream, code byte) error {
	reply := []byte{socks5Version, code, 0x00, socks5AddrIPv4, 0, 0, 0, 0, 0, 0}
	_, err := stream.Write(reply)
	return err
}

func readFull(stream transport.Stream, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := stream.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
