// Package nova contains the openstack-nova plugin, which reports the limits
// and quotas of every project (or tenant) along with the utilization of
// every hypervisor.
package nova

import (
	"context"

	"github.com/signalfx/collectd-openstack/pkg/plugins"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

const pluginType = "openstack-nova"

func init() {
	plugins.Register(pluginType, func() plugins.Plugin { return New() })
}

// Plugin is a nova plugin instance
type Plugin struct {
	*openstack.Base
}

var _ plugins.Plugin = &Plugin{}

// New creates an unconfigured nova plugin
func New() *Plugin {
	p := &Plugin{}
	p.Base = openstack.NewBase(pluginType, p)
	return p
}

// Collect builds the stats tree for one read cycle
func (p *Plugin) Collect(ctx context.Context) (openstack.Group, error) {
	identity, err := p.Session.Identity()
	if err != nil {
		return nil, err
	}
	compute, err := p.Session.Compute()
	if err != nil {
		return nil, err
	}

	c := &collector{
		identity: identity,
		compute:  compute,
		settings: p.Settings,
	}

	tree := openstack.Group{}
	stats := tree.Sub(p.Settings.Prefix)

	if p.Settings.Legacy() {
		err = c.collectV2(stats)
	} else {
		err = c.collectV3(stats)
	}
	if err != nil {
		return nil, err
	}
	return tree, nil
}
