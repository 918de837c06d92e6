package proxy

import (
	"context"

	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/proxy/transport"
	"github.com/kerneld-io/kerneld/internal/tlsutil"
)

// TLSConfig names the mutual-TLS material an ingress or egress transport
// negotiates from.
type TLSConfig struct {
	CACert string `mapstructure:"ca_cert"`
	Cert   string `mapstructure:"cert"`
	Key    string `mapstructure:"key"`
}

func (t TLSConfig) material() tlsutil.Material {
	return tlsutil.Material{CACert: t.CACert, Cert: t.Cert, Key: t.Key}
}

// IngressConfig describes one configured ingress: its id, protocol
// ("http" or "socks5"), listen address, underlying transport kind, and TLS
// material.
type IngressConfig struct {
	ID        string    `mapstructure:"id"`
	Protocol  string    `mapstructure:"protocol"`
	Addr      string    `mapstructure:"addr"`
	Transport string    `mapstructure:"transport"`
	TLS       TLSConfig `mapstructure:"tls"`
}

// EgressConfig describes one configured egress: its id, the address it
// connects to, underlying transport kind, and TLS material.
type EgressConfig struct {
	ID        string    `mapstructure:"id"`
	Addr      string    `mapstructure:"addr"`
	Transport string    `mapstructure:"transport"`
	TLS       TLSConfig `mapstructure:"tls"`
}

// RuleConfig is one routing table entry as read from configuration, before
// its target specs are compiled into a Matcher.
type RuleConfig struct {
	SourceIDs []string `mapstructure:"source_ids"`
	Targets   []string `mapstructure:"targets"`
	Dest      string   `mapstructure:"dest"`
}

// Config is the full forward-proxy configuration: parallel
// ingress/egress/routing arrays.
type Config struct {
	Ingress []IngressConfig `mapstructure:"ingress"`
	Egress  []EgressConfig  `mapstructure:"egress"`
	Routing []RuleConfig    `mapstructure:"routing"`
}

// Built is everything BuildFromConfig assembles: the running ingress
// servers (not yet serving — call Serve per server), the egress registry,
// and the dispatcher wired to route between them.
type Built struct {
	Servers    []Runnable
	Egresses   map[string]*Egress
	Router     *Router
	Dispatcher *Dispatcher
}

// Runnable is satisfied by both the HTTP and SOCKS5 ingress servers.
type Runnable interface {
	Serve(ctx context.Context)
}

// BuildFromConfig constructs every ingress acceptor, egress connector, and
// routing rule named in cfg. lookup resolves "geosite:<tag>" targets; it
// may be nil if no rule uses one.
func BuildFromConfig(cfg Config, lookup GeositeLookup) (*Built, error) {
	egresses := make(map[string]*Egress, len(cfg.Egress))
	for _, ec := range cfg.Egress {
		connector, err := buildConnector(ec)
		if err != nil {
			return nil, err
		}
		egresses[ec.ID] = &Egress{ID: ec.ID, Connector: connector}
	}

	rules := make([]Rule, 0, len(cfg.Routing))
	for _, rc := range cfg.Routing {
		matcher, err := CompileMatchers(rc.Targets, lookup)
		if err != nil {
			return nil, kerrors.Wrap(err, "proxy: compiling rule targeting %v", rc.Targets)
		}
		rules = append(rules, Rule{SourceIDs: rc.SourceIDs, Matcher: matcher, Dest: rc.Dest})
	}
	router := NewRouter(rules)
	dispatcher := NewDispatcher(router, egresses)

	servers := make([]Runnable, 0, len(cfg.Ingress))
	for _, ic := range cfg.Ingress {
		acceptor, err := buildAcceptor(ic)
		if err != nil {
			return nil, err
		}
		switch ic.Protocol {
		case "", "http":
			servers = append(servers, &Server{ID: ic.ID, Acceptor: acceptor, Dispatcher: dispatcher})
		case "socks5":
			servers = append(servers, &SOCKS5Server{ID: ic.ID, Acceptor: acceptor, Dispatcher: dispatcher})
		default:
			return nil, kerrors.New(kerrors.Parse, "proxy: unknown ingress protocol %q for %q", ic.Protocol, ic.ID)
		}
	}

	return &Built{Servers: servers, Egresses: egresses, Router: router, Dispatcher: dispatcher}, nil
}

func buildAcceptor(ic IngressConfig) (transport.Acceptor, error) {
	tlsConf, err := tlsutil.ServerConfig(ic.TLS.material())
	if err != nil {
		return nil, kerrors.Wrap(err, "proxy: building tls config for ingress %q", ic.ID)
	}
	kind, err := transport.ParseKind(ic.Transport)
	if err != nil {
		return nil, kerrors.Wrap(err, "proxy: ingress %q", ic.ID)
	}
	switch kind {
	case transport.KindTCP:
		return transport.ListenTCP(ic.Addr, tlsConf)
	case transport.KindQUIC:
		return transport.ListenQUIC(ic.Addr, tlsConf)
	default:
		return nil, kerrors.New(kerrors.Bug, "proxy: unreachable transport kind %q", kind)
	}
}

func buildConnector(ec EgressConfig) (transport.Connector, error) {
	tlsConf, err := tlsutil.ClientConfig(ec.TLS.material(), "")
	if err != nil {
		return nil, kerrors.Wrap(err, "proxy: building tls config for egress %q", ec.ID)
	}
	kind, err := transport.ParseKind(ec.Transport)
	if err != nil {
		return nil, kerrors.Wrap(err, "proxy: egress %q", ec.ID)
	}
	switch kind {
	case transport.KindTCP:
		return transport.DialTCP(ec.Addr, tlsConf), nil
	case transport.KindQUIC:
		return transport.DialQUIC(ec.Addr, tlsConf), nil
	default:
		return nil, kerrors.New(kerrors.Bug, "proxy: unreachable transport kind %q", kind)
	}
}

// Run starts every ingress server and the dispatch loop, blocking until ctx
// is canceled.
func (b *Built) Run(ctx context.Context) {
	for _, s := range b.Servers {
		go s.Serve(ctx)
	}
	b.Dispatcher.Run(ctx)
}
