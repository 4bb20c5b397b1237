package openstack

import (
	"testing"

	"github.com/signalfx/collectd-openstack/pkg/core/config"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(key string, values ...string) config.Node {
	return config.Node{Key: key, Values: values}
}

func TestParseSettingsDefaults(t *testing.T) {
	logger, hook := test.NewNullLogger()

	s, err := ParseSettings(nil, DefaultSettings("openstack-nova"), logger)
	require.NoError(t, err)

	assert.Equal(t, "admin", s.Username)
	assert.Equal(t, "openstack", s.TenantName)
	assert.Equal(t, "openstack", s.ProjectName)
	assert.Equal(t, "default", s.ProjectDomain)
	assert.Equal(t, "default", s.UserDomain)
	assert.Equal(t, "http://api.example.com:5000/v2.0", s.AuthURL)
	assert.Equal(t, "openstack-nova", s.Prefix)
	assert.Equal(t, 60.0, s.Interval)
	assert.Equal(t, 16.0, s.AllocationRatioCores)
	assert.Equal(t, 1.5, s.AllocationRatioRam)
	assert.True(t, s.Legacy())
	assert.False(t, s.NoTenants)
	assert.Empty(t, hook.AllEntries())
}

func TestParseSettingsAllKeys(t *testing.T) {
	logger, hook := test.NewNullLogger()

	s, err := ParseSettings([]config.Node{
		node("Username", "monitor"),
		node("Password", "s3cret"),
		node("TenantName", "ops"),
		node("ProjectName", "ops-project"),
		node("ProjectDomain", "pd"),
		node("UserDomain", "ud"),
		node("AuthURL", "http://keystone:5000/v3"),
		node("KeystoneVersion", "v3"),
		node("Region", "RegionTwo"),
		node("EndpointType", "internal"),
		node("Prefix", "os-nova"),
		node("Interval", "30"),
		node("Verbose", "True"),
		node("Debug", "true"),
		node("AllocationRatioCores", "4"),
		node("AllocationRatioRam", "1.0"),
		node("ReservedNodeCores", "2"),
		node("ReservedNodeRamMB", "2048"),
		node("ReservedCores", "8"),
		node("ReservedRamMB", ""),
		node("NoTenants", "true"),
	}, DefaultSettings("openstack-nova"), logger)
	require.NoError(t, err)

	assert.Equal(t, Settings{
		Username:             "monitor",
		Password:             "s3cret",
		TenantName:           "ops",
		ProjectName:          "ops-project",
		ProjectDomain:        "pd",
		UserDomain:           "ud",
		AuthURL:              "http://keystone:5000/v3",
		KeystoneVersion:      "v3",
		Region:               "RegionTwo",
		EndpointType:         "internal",
		Prefix:               "os-nova",
		Interval:             30,
		Verbose:              true,
		Debug:                true,
		NoTenants:            true,
		AllocationRatioCores: 4,
		AllocationRatioRam:   1,
		ReservedNodeCores:    2,
		ReservedNodeRamMB:    2048,
		ReservedCores:        8,
		ReservedRamMB:        0,
	}, s)
	assert.False(t, s.Legacy())
	assert.Empty(t, hook.AllEntries())
}

func TestParseSettingsVerbose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	defaults := DefaultSettings("openstack-keystone")

	s, err := ParseSettings([]config.Node{node("Verbose", "true")}, defaults, logger)
	require.NoError(t, err)
	assert.True(t, s.Verbose)

	s, err = ParseSettings([]config.Node{node("Verbose", "Yes")}, defaults, logger)
	require.NoError(t, err)
	assert.False(t, s.Verbose)

	s, err = ParseSettings([]config.Node{node("Debug", "1")}, defaults, logger)
	require.NoError(t, err)
	assert.False(t, s.Debug)
}

func TestParseSettingsFromAgentConfig(t *testing.T) {
	logger, hook := test.NewNullLogger()

	conf, err := config.LoadYAML([]byte(`
plugins:
  - type: openstack-keystone
    config:
      Verbose: Yes
      Debug: on
      Password: 0123
      TenantName: 1e3
`))
	require.NoError(t, err)

	s, err := ParseSettings(conf.Plugins[0].Config, DefaultSettings("openstack-keystone"), logger)
	require.NoError(t, err)
	assert.False(t, s.Verbose)
	assert.False(t, s.Debug)
	assert.Equal(t, "0123", s.Password)
	assert.Equal(t, "1e3", s.TenantName)
	assert.Empty(t, hook.AllEntries())
}

func TestParseSettingsUnknownKey(t *testing.T) {
	logger, hook := test.NewNullLogger()
	defaults := DefaultSettings("openstack-keystone")

	s, err := ParseSettings([]config.Node{node("Colour", "blue")}, defaults, logger)
	require.NoError(t, err)

	assert.Equal(t, defaults, s)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "openstack-keystone: unknown config key: Colour", hook.LastEntry().Message)
}

func TestParseSettingsNoTenants(t *testing.T) {
	logger, _ := test.NewNullLogger()
	defaults := DefaultSettings("openstack-nova")

	for value, expected := range map[string]bool{
		"":      true,
		"true":  true,
		"yes":   true,
		"false": false,
		"False": false,
	} {
		s, err := ParseSettings([]config.Node{node("NoTenants", value)}, defaults, logger)
		require.NoError(t, err)
		assert.Equal(t, expected, s.NoTenants, "NoTenants %q", value)
	}

	s, err := ParseSettings([]config.Node{node("NoTenants")}, defaults, logger)
	require.NoError(t, err)
	assert.True(t, s.NoTenants)
}

func TestParseSettingsEmptyNode(t *testing.T) {
	logger, hook := test.NewNullLogger()
	defaults := DefaultSettings("openstack-nova")

	s, err := ParseSettings([]config.Node{node("Username")}, defaults, logger)
	require.NoError(t, err)
	assert.Equal(t, "admin", s.Username)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
}

func TestParseSettingsBadNumber(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := ParseSettings([]config.Node{node("AllocationRatioRam", "lots")}, DefaultSettings("openstack-nova"), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AllocationRatioRam")
}
