package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
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
)

func parsePEMCert(t *testing.T, certPEM []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	require.Equal(t, "CERTIFICATE", block.Type)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestNewAuthority(t *testing.T) {
	ca, err := NewAuthority("ContactKeeper CA")
	require.NoError(t, err)

	assert.True(t, ca.Cert.IsCA)
	assert.Equal(t, "ContactKeeper CA", ca.Cert.Subject.CommonName)
	assert.NotZero(t, ca.Cert.KeyUsage&x509.KeyUsageCertSign)
	assert.Greater(t, ca.Cert.NotAfter.Sub(ca.Cert.NotBefore), 9*365*24*time.Hour)
}

func TestIssueClient_VerifiesAgainstCA(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	require.NoError(t, err)

	certPEM, keyPEM, err := ca.IssueClient("  alice ")
	require.NoError(t, err)

	cert := parsePEMCert(t, certPEM)
	assert.Equal(t, "alice", cert.Subject.CommonName)
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}, cert.ExtKeyUsage)

	pool := x509.NewCertPool()
	pool.AddCert(ca.Cert)
	_, err = cert.Verify(x509.VerifyOptions{
		Roots:     pool,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	assert.NoError(t, err)

	_, err = tls.X509KeyPair(certPEM, keyPEM)
	assert.NoError(t, err)
}

func TestIssueClient_EmptyLogin(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	require.NoError(t, err)

	_, _, err = ca.IssueClient(" ")
	assert.ErrorIs(t, err, ErrEmptyLogin)
}

func TestIssueServer_Hosts(t *testing.T) {
	ca, err := NewAuthority("Test CA")
	require.NoError(t, err)

	certPEM, _, err := ca.IssueServer("localhost", "127.0.0.1")
	require.NoError(t, err)

	cert := parsePEMCert(t, certPEM)
	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())
	assert.NoError(t, cert.VerifyHostname("localhost"))

	_, _, err = ca.IssueServer()
	assert.Error(t, err)
}

func TestWritePairAndLoadAuthority(t *testing.T) {
	dir := t.TempDir()
	ca, err := NewAuthority("Test CA")
	require.NoError(t, err)

	certPEM, keyPEM, err := ca.PEM()
	require.NoError(t, err)
	require.NoError(t, WritePair(dir, "ca", certPEM, keyPEM))

	info, err := os.Stat(filepath.Join(dir, "ca.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadAuthority(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	require.NoError(t, err)
	assert.Equal(t, ca.Cert.SerialNumber, loaded.Cert.SerialNumber)

	clientPEM, _, err := loaded.IssueClient("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", parsePEMCert(t, clientPEM).Subject.CommonName)
}

func TestLoadAuthority_RSAKey(t *testing.T) {
	dir := t.TempDir()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "RSA CA"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	require.NoError(t, WritePair(dir, "ca",
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	))

	ca, err := LoadAuthority(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	require.NoError(t, err)

	_, _, err = ca.PEM()
	assert.Error(t, err)

	_, _, err = ca.IssueClient("carol")
	assert.NoError(t, err)
}

func TestLoadAuthority_Errors(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")

	_, err := LoadAuthority(certPath, keyPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(certPath, []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte("garbage"), 0o600))
	_, err = LoadAuthority(certPath, keyPath)
	assert.EqualError(t, err, "invalid CA cert PEM")

	ca, err := NewAuthority("Test CA")
	require.NoError(t, err)
	certPEM, _, err := ca.PEM()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(certPath, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}), 0o600))
	_, err = LoadAuthority(certPath, keyPath)
	assert.EqualError(t, err, "unsupported key type: PRIVATE KEY")
}
