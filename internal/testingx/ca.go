package testingx

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

	"github.com/probekit/tlscheck/internal/runtimex"
)

// CA is a certificate authority generated on the fly, which allows
// tests to run TLS servers on loopback with certificates that a
// suitably configured client will verify successfully.
type CA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

// MustNewCA creates a new CA. This function panics on failure, which
// is acceptable because we only use it in testing code.
func MustNewCA() *CA {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	runtimex.PanicOnError(err, "ecdsa.GenerateKey failed")
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "testing CA",
			Organization: []string{"tlscheck"},
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	runtimex.PanicOnError(err, "x509.CreateCertificate failed")
	cert, err := x509.ParseCertificate(der)
	runtimex.PanicOnError(err, "x509.ParseCertificate failed")
	return &CA{cert: cert, key: key}
}

// CertPool returns a new x509.CertPool containing this CA only.
func (ca *CA) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(ca.cert)
	return pool
}

// MustNewServerCertificate issues a server certificate signed by
// this CA and valid for the given names. Each name may be a DNS name
// or an IP address. This function panics on failure.
func (ca *CA) MustNewServerCertificate(names ...string) tls.Certificate {
	runtimex.PanicIfTrue(len(names) <= 0, "testingx: no names for the certificate")
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	runtimex.PanicOnError(err, "ecdsa.GenerateKey failed")
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	runtimex.PanicOnError(err, "rand.Int failed")
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   names[0],
			Organization: []string{"tlscheck"},
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, name := range names {
		if ip := net.ParseIP(name); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
			continue
		}
		template.DNSNames = append(template.DNSNames, name)
	}
	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key)
	runtimex.PanicOnError(err, "x509.CreateCertificate failed")
	leaf, err := x509.ParseCertificate(der)
	runtimex.PanicOnError(err, "x509.ParseCertificate failed")
	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}
}
