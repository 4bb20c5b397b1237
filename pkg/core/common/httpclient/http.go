package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/signalfx/collectd-openstack/pkg/core/common/auth"
	"github.com/signalfx/collectd-openstack/pkg/utils/timeutil"
)

// DefaultTimeout is used when httpTimeout is not set.  A hung OpenStack API
// call would otherwise stall the plugin's read loop forever.
const DefaultTimeout = 30 * time.Second

// HTTPConfig configures the HTTP client used to talk to the OpenStack APIs.
// It is embedded inline in each plugin's config.
type HTTPConfig struct {
	// HTTP timeout for each API request. Accepts a duration string such as
	// "10s" or a number of seconds.  Defaults to 30s.
	HTTPTimeout timeutil.Duration `yaml:"httpTimeout"`

	// If true, the TLS certificates of the OpenStack endpoints are not
	// verified.
	SkipVerify bool `yaml:"skipVerify"`

	// Path to the CA cert that has signed the endpoints' TLS certs
	CACertPath string `yaml:"caCertPath"`
	// Path to the client TLS cert to use for TLS required connections
	ClientCertPath string `yaml:"clientCertPath"`
	// Path to the client TLS key to use for TLS required connections
	ClientKeyPath string `yaml:"clientKeyPath"`
}

// Timeout returns the configured timeout, or DefaultTimeout if unset
func (h *HTTPConfig) Timeout() time.Duration {
	if h.HTTPTimeout <= 0 {
		return DefaultTimeout
	}
	return h.HTTPTimeout.AsDuration()
}

// Build returns a configured http.Client
func (h *HTTPConfig) Build() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if h.SkipVerify || h.CACertPath != "" || h.ClientCertPath != "" {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: h.SkipVerify, // nolint: gosec
		}
		if _, err := auth.TLSConfig(tlsConfig, h.CACertPath, h.ClientCertPath, h.ClientKeyPath); err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConfig
	}

	return &http.Client{
		Timeout:   h.Timeout(),
		Transport: transport,
	}, nil
}
