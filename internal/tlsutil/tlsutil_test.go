package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// generateSelfSigned writes a minimal self-signed cert/key pair usable as
// both CA and leaf for this package's own loading logic.
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

func TestServerConfigRequiresClientCert(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := generateSelfSigned(t, dir, "leaf")

	cfg, err := ServerConfig(Material{CACert: certPath, Cert: certPath, Key: keyPath})
	require.NoError(t, err)
	require.Equal(t, tls.RequireAndVerifyClientCert, cfg.ClientAuth)
	require.Len(t, cfg.Certificates, 1)
	require.NotNil(t, cfg.ClientCAs)
}

func TestClientConfigSetsServerName(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := generateSelfSigned(t, dir, "leaf")

	cfg, err := ClientConfig(Material{CACert: certPath, Cert: certPath, Key: keyPath}, "example.internal")
	require.NoError(t, err)
	require.Equal(t, "example.internal", cfg.ServerName)
	require.NotNil(t, cfg.RootCAs)
}

func TestLoadMissingCAFileFails(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := generateSelfSigned(t, dir, "leaf")

	_, err := ServerConfig(Material{CACert: filepath.Join(dir, "missing.pem"), Cert: certPath, Key: keyPath})
	require.Error(t, err)
}
