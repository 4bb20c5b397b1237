// Package plugins is the glue between the agent config and the OpenStack
// plugin implementations.  Plugin types register a factory from the init
// function of their package, and the Manager creates, configures and runs one
// fresh instance per plugin config.
//
// Every instance is configured exactly once and connected exactly once.
// After that it is read on its interval from a single goroutine, so reads of
// the same instance never overlap.
package plugins

import (
	"context"
	"sort"
	"time"

	"collectd.org/api"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	log "github.com/sirupsen/logrus"
)

// Plugin is what every plugin instance must implement
type Plugin interface {
	// Configure is called once with the plugin's config and the writer that
	// samples should go to
	Configure(conf *config.PluginConfig, writer api.Writer, logger log.FieldLogger) error
	// Connect is called once, after Configure and before the first Read
	Connect(ctx context.Context) error
	// Read runs a single cycle and returns the number of samples written
	Read(ctx context.Context) (int, error)
	// Interval is how often Read should be called
	Interval() time.Duration
}

// Factory is a niladic function that creates an unconfigured instance of a
// plugin.
type Factory func() Plugin

// Factories holds all of the registered plugin factories
var Factories = map[string]Factory{}

// Register a new plugin type.  This is intended to be called from the init
// function of the package of a specific plugin implementation.
func Register(_type string, factory Factory) {
	if _, ok := Factories[_type]; ok {
		panic("Plugin type '" + _type + "' already registered")
	}
	Factories[_type] = factory
}

// DeregisterAll unregisters all plugin types.  Primarily intended for testing
// purposes.
func DeregisterAll() {
	for k := range Factories {
		delete(Factories, k)
	}
}

// Types returns the registered plugin types in sorted order
func Types() []string {
	out := make([]string, 0, len(Factories))
	for k := range Factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Creates a new, unconfigured instance of a plugin of _type.  Returns nil if
// the plugin type is not registered.
func newPlugin(_type string) Plugin {
	if factory, ok := Factories[_type]; ok {
		return factory()
	}

	log.WithFields(log.Fields{
		"pluginType": _type,
	}).Error("Plugin type not supported")
	return nil
}
