package main

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	block, _ := pem.Decode(data)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

func TestRun_CreatesCAServerAndClients(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, run([]string{"-dir", dir, "-host", "localhost", "alice", "bob"}, &out))

	for _, name := range []string{"ca", "server", "alice", "bob"} {
		assert.FileExists(t, filepath.Join(dir, name+".crt"))
		assert.FileExists(t, filepath.Join(dir, name+".key"))
	}

	ca := readCert(t, filepath.Join(dir, "ca.crt"))
	pool := x509.NewCertPool()
	pool.AddCert(ca)

	alice := readCert(t, filepath.Join(dir, "alice.crt"))
	assert.Equal(t, "alice", alice.Subject.CommonName)
	_, err := alice.Verify(x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}})
	assert.NoError(t, err)

	server := readCert(t, filepath.Join(dir, "server.crt"))
	_, err = server.Verify(x509.VerifyOptions{Roots: pool, DNSName: "localhost"})
	assert.NoError(t, err)

	assert.Contains(t, out.String(), "created CA")
	assert.Contains(t, out.String(), "issued client certificate for bob")
}

func TestRun_ReusesExistingCA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run([]string{"-dir", dir}, &bytes.Buffer{}))
	first := readCert(t, filepath.Join(dir, "ca.crt"))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-dir", dir, "carol"}, &out))

	second := readCert(t, filepath.Join(dir, "ca.crt"))
	assert.Equal(t, first.SerialNumber, second.SerialNumber)
	assert.NotContains(t, out.String(), "created CA")
	assert.Equal(t, "carol", readCert(t, filepath.Join(dir, "carol.crt")).Subject.CommonName)
}

func TestRun_EmptyLogin(t *testing.T) {
	err := run([]string{"-dir", t.TempDir(), ""}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_ReservedLogin(t *testing.T) {
	err := run([]string{"-dir", t.TempDir(), "server"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "reserved")
}

func TestSplitHosts(t *testing.T) {
	assert.Equal(t, []string{"localhost", "10.0.0.1"}, splitHosts(" localhost, ,10.0.0.1"))
	assert.Nil(t, splitHosts(""))
}
