package proxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/obs"
	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

// proxySpecificHeaders are stripped from a forwarded HTTP request before it
// is replayed on the egress side.
var proxySpecificHeaders = []string{
	"Proxy-Connection",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Connection",
	"Accept-Encoding",
}

const connectionEstablished = "HTTP/1.1 200 Connection Established\r\n\r\n"

// bufferedStream lets ingress parsing consume a client stream through a
// bufio.Reader (so HTTP request-line/header parsing can use the standard
// library's reader) while preserving any bytes the reader buffered but
// didn't hand back, so the dispatch-time copier sees the same byte stream a
// raw passthrough would have.
type bufferedStream struct {
	transport.Stream
	r *bufio.Reader
}

func (b *bufferedStream) Read(p []byte) (int, error) { return b.r.Read(p) }

// Server runs one ingress's accept loop, parsing each accepted stream into
// a ProxyRequest and submitting it to the dispatcher under this ingress's
// id.
type Server struct {
	ID         string
	Acceptor   transport.Acceptor
	Dispatcher *Dispatcher
}

// Serve accepts connections until ctx is canceled. Accept errors are logged
// and do not terminate the loop; only ctx cancellation (which also signals
// the acceptor is being torn down) stops it.
func (s *Server) Serve(ctx context.Context) {
	log := obs.Logger.WithField("component", "proxy.ingress").WithField("ingress", s.ID)
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
		go s.handle(ctx, stream, log)
	}
}

func (s *Server) handle(ctx context.Context, stream transport.Stream, log *logrus.Entry) {
	r := bufio.NewReader(stream)
	req, err := http.ReadRequest(r)
	if err != nil {
		stream.Close()
		return
	}

	wrapped := &bufferedStream{Stream: stream, r: r}

	switch {
	case req.Method == http.MethodConnect:
		remote, err := parseHostPort(req.Host, 443)
		if err != nil {
			respondError(stream, http.StatusBadRequest)
			return
		}
		if _, err := stream.Write([]byte(connectionEstablished)); err != nil {
			stream.Close()
			return
		}
		s.Dispatcher.Submit(s.ID, ProxyRequest{Kind: ForwardTCP, Remote: remote, Client: wrapped})

	case req.URL.IsAbs() || req.Header.Get("Proxy-Connection") != "":
		defaultPort := 80
		if req.URL.Scheme == "https" {
			defaultPort = 443
		}
		host := req.URL.Host
		if host == "" {
			host = req.Host
		}
		remote, err := parseHostPort(host, defaultPort)
		if err != nil {
			respondError(stream, http.StatusBadRequest)
			return
		}
		head := stripProxyHeaders(req)
		s.Dispatcher.Submit(s.ID, ProxyRequest{Kind: ForwardHTTP, Remote: remote, Client: wrapped, HTTPHead: head})

	default:
		respondError(stream, http.StatusBadRequest)
		stream.Close()
	}
}

// parseHostPort splits a "host:port" or bare "host" authority into a
// NetLocation, defaulting the port when absent.
func parseHostPort(authority string, defaultPort int) (NetLocation, error) {
	host, portStr, err := net.SplitHostPort(authority)
	if err != nil {
		return NetLocation{Host: authority, Port: defaultPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return NetLocation{}, kerrors.New(kerrors.Parse, "proxy: bad port in authority %q", authority)
	}
	return NetLocation{Host: host, Port: port}, nil
}

// stripProxyHeaders rebuilds the request line and header block to forward
// to the egress, in origin-form (path + query, no scheme/host), with every
// proxy-specific header removed.
func stripProxyHeaders(req *http.Request) []byte {
	for _, h := range proxySpecificHeaders {
		req.Header.Del(h)
	}

	path := req.URL.Path
	if path == "" {
		path = "/"
	}
	if req.URL.RawQuery != "" {
		path += "?" + req.URL.RawQuery
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.Method, path)
	fmt.Fprintf(&b, "Host: %s\r\n", req.URL.Host)
	for key, values := range req.Header {
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", key, v)
		}
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func respondError(w transport.Stream, status int) {
	fmt.Fprintf(w, "HTTP/1.1 %d %s\r\nConnection: close\r\n\r\n", status, http.StatusText(status))
}
