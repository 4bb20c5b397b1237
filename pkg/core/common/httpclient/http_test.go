package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/signalfx/collectd-openstack/pkg/utils/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	conf := &HTTPConfig{}
	client, err := conf.Build()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout)
	assert.IsType(t, &http.Transport{}, client.Transport)
}

func TestBuildSkipVerify(t *testing.T) {
	conf := &HTTPConfig{
		HTTPTimeout: timeutil.Duration(5 * time.Second),
		SkipVerify:  true,
	}
	client, err := conf.Build()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.True(t, client.Transport.(*http.Transport).TLSClientConfig.InsecureSkipVerify)
}

func TestBuildBadCACert(t *testing.T) {
	conf := &HTTPConfig{CACertPath: "/nonexistent/ca.pem"}
	_, err := conf.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/ca.pem")
}
