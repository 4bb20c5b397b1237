// Package config contains the agent configuration, which is loaded from a
// YAML file and describes the writer that samples go to and the plugin
// instances to run.
package config

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/common/httpclient"
	log "github.com/sirupsen/logrus"
)

// Config is the top level agent config
type Config struct {
	// The host name reported on every sample.  If blank, the
	// COLLECTD_HOSTNAME envvar is used, falling back to the OS hostname.
	Hostname string `yaml:"hostname"`
	// How often plugins read, in seconds, when they don't set their own
	// interval.  If blank, the COLLECTD_INTERVAL envvar is used, falling
	// back to 60.
	IntervalSeconds int `yaml:"intervalSeconds" validate:"gte=0"`
	// Logging config for the agent itself
	Logging LogConfig `yaml:"logging"`
	// Where samples are sent
	Writer WriterConfig `yaml:"writer"`
	// The plugin instances to run
	Plugins []PluginConfig `yaml:"plugins" validate:"dive"`
}

// LogConfig configures logrus
type LogConfig struct {
	// One of debug, info, warn or error
	Level string `yaml:"level" default:"info" validate:"oneof=trace debug info warn warning error"`
	// Either text or json
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// WriterConfig chooses and configures the destination of samples
type WriterConfig struct {
	// putval prints collectd Exec plugin PUTVAL lines on stdout, network
	// speaks the collectd binary protocol, signalfx sends to the SignalFx
	// ingest API, prometheus serves a scrape endpoint and log only logs
	// every sample.  collectd reads the plugin name of a PUTVAL line up to
	// the first dash, so use network to keep names like openstack-nova.
	Type       string           `yaml:"type" default:"putval" validate:"oneof=putval network signalfx prometheus log"`
	Network    NetworkConfig    `yaml:"network"`
	SignalFx   SignalFxConfig   `yaml:"signalfx"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// NetworkConfig is for the collectd network protocol writer
type NetworkConfig struct {
	// host:port of the collectd network plugin listener
	Address string `yaml:"address" default:"localhost:25826"`
	// One of none, sign or encrypt
	SecurityLevel string `yaml:"securityLevel" default:"none" validate:"omitempty,oneof=none sign encrypt"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password" neverLog:"true"`
}

// SignalFxConfig is for the SignalFx ingest writer
type SignalFxConfig struct {
	AccessToken string `yaml:"accessToken" neverLog:"true"`
	IngestURL   string `yaml:"ingestURL" default:"https://ingest.signalfx.com"`
}

// PrometheusConfig is for the Prometheus scrape endpoint writer
type PrometheusConfig struct {
	ListenAddress string `yaml:"listenAddress" default:":9191"`
	Path          string `yaml:"path" default:"/metrics"`
}

// PluginConfig configures a single plugin instance
type PluginConfig struct {
	// The plugin type, e.g. openstack-nova
	Type string `yaml:"type" validate:"required"`
	// Overrides the agent-wide interval for this plugin when non-zero.  The
	// plugin's own Interval config key takes precedence over both.
	IntervalSeconds int `yaml:"intervalSeconds" validate:"gte=0"`

	httpclient.HTTPConfig `yaml:",inline"`

	// The collectd-style configuration block for the plugin, as an ordered
	// mapping of keys to a value or a list of values.
	Config Block `yaml:"config"`

	// Filled in by the loader
	Hostname string `yaml:"-" hash:"ignore"`
}

// ID returns a hash that uniquely identifies this plugin configuration
func (pc *PluginConfig) ID() uint64 {
	hash, err := hashstructure.Hash(pc, nil)
	if err != nil {
		log.WithError(err).Error("Could not get hash of PluginConfig struct")
		return 0
	}
	return hash
}

// Validate makes sure there are no plugin configurations that would run the
// exact same plugin twice.
func (c *Config) Validate() error {
	seen := map[uint64]int{}
	for i := range c.Plugins {
		id := c.Plugins[i].ID()
		if prev, ok := seen[id]; ok {
			return errors.Errorf("plugins[%d] (%s) is a duplicate of plugins[%d]", i, c.Plugins[i].Type, prev)
		}
		seen[id] = i
	}
	return nil
}

func (pc *PluginConfig) String() string {
	return fmt.Sprintf("%s (%d)", pc.Type, pc.ID())
}
