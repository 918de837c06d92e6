// Package tlsutil loads the mutual-TLS material the proxy's ingress and
// egress transports negotiate with: a CA certificate plus a leaf
// certificate/key pair, always verified in both directions.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Material names the three PEM files a transport's TLS config is built
// from: every transport always negotiates TLS from a configured
// {ca_cert, cert, key} triple.
type Material struct {
	CACert string
	Cert   string
	Key    string
}

// ServerConfig builds a server-side *tls.Config requiring and verifying a
// client certificate signed by CACert.
func ServerConfig(m Material) (*tls.Config, error) {
	pool, cert, err := load(m)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ClientConfig builds a client-side *tls.Config presenting a client
// certificate and verifying the server's certificate against CACert.
func ClientConfig(m Material, serverName string) (*tls.Config, error) {
	pool, cert, err := load(m)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func load(m Material) (*x509.CertPool, tls.Certificate, error) {
	caPEM, err := os.ReadFile(m.CACert)
	if err != nil {
		return nil, tls.Certificate{}, kerrors.Wrap(err, "tlsutil: reading CA certificate %s", m.CACert)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, tls.Certificate{}, kerrors.New(kerrors.Parse, "tlsutil: no certificates found in %s", m.CACert)
	}

	cert, err := tls.LoadX509KeyPair(m.Cert, m.Key)
	if err != nil {
		return nil, tls.Certificate{}, kerrors.Wrap(err, "tlsutil: loading cert/key pair %s/%s", m.Cert, m.Key)
	}
	return pool, cert, nil
}
