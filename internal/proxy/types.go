// Package proxy implements the forward proxy: ingress protocol handlers
// accept inbound connections and translate them into routed requests, a
// single dispatch loop hands each request to the egress its routing rule
// selected, and byte counters accumulate per egress for periodic stats
// snapshots.
package proxy

import (
	"fmt"

	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

// RequestKind distinguishes a raw byte-stream forward from an HTTP forward
// whose proxy-specific headers must be stripped before relaying.
type RequestKind int

const (
	ForwardTCP RequestKind = iota
	ForwardHTTP
)

func (k RequestKind) String() string {
	if k == ForwardHTTP {
		return "forward_http"
	}
	return "forward_tcp"
}

// NetLocation names a remote endpoint a routing rule's matcher is tested
// against.
type NetLocation struct {
	Host string
	Port int
}

func (l NetLocation) Address() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// ProxyRequest is what an ingress hands to the dispatch loop: the remote the
// client asked to reach, the accepted client stream to relay, and, for
// ForwardHTTP, the already-stripped request line and headers to replay on
// the egress side.
type ProxyRequest struct {
	Kind   RequestKind
	Remote NetLocation
	Client transport.Stream

	// HTTPHead is the re-serializable request line + header block for
	// ForwardHTTP requests, already stripped of proxy-specific headers. Nil
	// for ForwardTCP.
	HTTPHead []byte
}

// Ingress pairs an id with the Acceptor it wraps; a dispatcher-facing
// handler reads ProxyRequests off it and tags them with this id for
// routing.
type Ingress struct {
	ID       string
	Acceptor transport.Acceptor
}

// Egress pairs an id with the Connector and byte counters a routed request
// is forwarded through.
type Egress struct {
	ID        string
	Connector transport.Connector

	counters counters
}

// Rule is one routing table entry.
type Rule struct {
	SourceIDs []string
	Matcher   Matcher
	Dest      string
}

func (r Rule) hasSource(sourceID string) bool {
	for _, id := range r.SourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}
