// Package tlsutil generates the self-signed certificate pair the admin
// server uses when USE_HTTPS is enabled (spec.md §6). Certificate
// generation proper is named an out-of-scope external collaborator
// (spec.md §1) for the persisted, operator-facing certificate story; this
// is the minimal in-memory fallback the core needs to honor USE_HTTPS with
// no such collaborator wired in. No library in the example pack addresses
// ad-hoc self-signed certificate generation, so this is one of the few
// places this repo reaches for the standard library (crypto/x509,
// crypto/tls) by necessity rather than by choice.
package tlsutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"time"

	"github.com/thehillbeyondthisone/BackendBuddy/internal/errors"
)

// selfSignedValidity is deliberately short-lived: this pair is regenerated
// fresh on every process start, never persisted to disk.
const selfSignedValidity = 90 * 24 * time.Hour

// GenerateSelfSigned returns an in-memory self-signed certificate covering
// localhost and 127.0.0.1, suitable for loopback development TLS only.
func GenerateSelfSigned() (tls.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to generate TLS key")
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to generate certificate serial number")
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "backendbuddy dev"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(selfSignedValidity),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:         true,
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, "failed to create self-signed certificate")
	}

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  priv,
	}, nil
}
