//go:build unit || e2e

package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewServiceAccountKey returns a fresh RSA key and its PKCS#8 PEM text with
// newlines escaped, the way PRIVATE_KEY arrives from the environment.
func NewServiceAccountKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	pemText := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	return key, strings.ReplaceAll(pemText, "\n", `\n`)
}
