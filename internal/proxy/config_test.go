package proxy

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/proxy/transport"
)

func generateSelfSigned(t *testing.T, dir, name string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, name+"-cert.pem")
	keyPath = filepath.Join(dir, name+"-key.pem")

	certOut, err := os.Create(certPath)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	require.NoError(t, certOut.Close())

	keyBytes, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyOut, err := os.Create(keyPath)
	require.NoError(t, err)
	require.NoError(t, pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}))
	require.NoError(t, keyOut.Close())

	return certPath, keyPath
}

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	certPath, keyPath := generateSelfSigned(t, dir, "leaf")
	tlsCfg := TLSConfig{CACert: certPath, Cert: certPath, Key: keyPath}

	return Config{
		Ingress: []IngressConfig{
			{ID: "lan", Protocol: "http", Addr: "127.0.0.1:0", Transport: "tcp", TLS: tlsCfg},
		},
		Egress: []EgressConfig{
			{ID: "direct", Addr: "127.0.0.1:1", Transport: "tcp", TLS: tlsCfg},
		},
		Routing: []RuleConfig{
			{SourceIDs: []string{"lan"}, Targets: []string{"d:example.com"}, Dest: "direct"},
		},
	}
}

func TestBuildFromConfigAssemblesServersEgressesAndRouter(t *testing.T) {
	built, err := BuildFromConfig(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, s := range built.Servers {
			if srv, ok := s.(*Server); ok {
				srv.Acceptor.(*transport.TCPAcceptor).Close()
			}
		}
	})

	require.Len(t, built.Servers, 1)
	require.Contains(t, built.Egresses, "direct")

	dest, err := built.Router.Route("lan", NetLocation{Host: "example.com", Port: 443})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest)
}

func TestBuildFromConfigRejectsUnknownTransport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Egress[0].Transport = "carrier-pigeon"
	_, err := BuildFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestBuildFromConfigRejectsUnknownIngressProtocol(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingress[0].Protocol = "gopher"
	_, err := BuildFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestBuildFromConfigFailsWithoutGeositeLookupWhenRuleNeedsOne(t *testing.T) {
	cfg := testConfig(t)
	cfg.Routing[0].Targets = []string{"geosite:ads"}
	_, err := BuildFromConfig(cfg, nil)
	assert.Error(t, err)
}
