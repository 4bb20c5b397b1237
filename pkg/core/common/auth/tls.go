package auth

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"runtime"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// AugmentCertPoolFromCAFile adds the PEM certs in caCertPath to basePool
func AugmentCertPoolFromCAFile(basePool *x509.CertPool, caCertPath string) error {
	bytes, err := os.ReadFile(caCertPath)
	if err != nil {
		return errors.Wrapf(err, "CA cert path %s could not be read", caCertPath)
	}

	if !basePool.AppendCertsFromPEM(bytes) {
		return errors.Errorf("CA cert file %s is not the right format", caCertPath)
	}

	return nil
}

// TLSConfig fills in the root CAs and client certificate of tlsConfig so it
// can be used for talking to OpenStack endpoints that use a private CA or
// require client certs.
func TLSConfig(tlsConfig *tls.Config, caCertPath string, clientCertPath string, clientKeyPath string) (*tls.Config, error) {
	certs, err := CertPool()
	if err != nil {
		return nil, err
	}

	if caCertPath != "" {
		if certs == nil {
			certs = x509.NewCertPool()
		}
		if err := AugmentCertPoolFromCAFile(certs, caCertPath); err != nil {
			return nil, err
		}
	}

	if clientCertPath != "" && clientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(clientCertPath, clientKeyPath)
		if err != nil {
			return nil, errors.Wrapf(err, "client cert/key could not be loaded from %s/%s",
				clientCertPath, clientKeyPath)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
		log.Infof("Configured TLS client cert in %s with key %s", clientCertPath, clientKeyPath)
	}

	tlsConfig.RootCAs = certs

	return tlsConfig, nil
}

// CertPool returns the system cert pool, or nil on Windows where the system
// pool can't be loaded and Go falls back to the platform verifier.
func CertPool() (*x509.CertPool, error) {
	if runtime.GOOS == "windows" {
		return nil, nil
	}
	certs, err := x509.SystemCertPool()
	if err != nil {
		return nil, errors.WithMessage(err, "could not load system x509 cert pool")
	}
	return certs, nil
}
