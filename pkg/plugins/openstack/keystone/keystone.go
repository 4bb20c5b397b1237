// Package keystone contains the openstack-keystone plugin, which counts the
// projects (or tenants), users, roles, services and endpoints known to the
// identity service, along with the number of users in each project.
package keystone

import (
	"context"
	"encoding/json"

	"github.com/gophercloud/gophercloud"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

const pluginType = "openstack-keystone"

func init() {
	plugins.Register(pluginType, func() plugins.Plugin { return New() })
}

// Plugin is a keystone plugin instance
type Plugin struct {
	*openstack.Base
}

var _ plugins.Plugin = &Plugin{}

// New creates an unconfigured keystone plugin
func New() *Plugin {
	p := &Plugin{}
	p.Base = openstack.NewBase(pluginType, p)
	return p
}

// Collect builds the stats tree for one read cycle
func (p *Plugin) Collect(ctx context.Context) (openstack.Group, error) {
	client, err := p.Session.Identity()
	if err != nil {
		return nil, err
	}

	tree := openstack.Group{}
	stats := tree.Sub(p.Settings.Prefix)

	if p.Settings.Legacy() {
		err = collectV2(client, stats, p.Settings.NoTenants)
	} else {
		err = collectV3(client, stats, p.Settings.NoTenants)
	}
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// countList counts the items of a list response that gophercloud has no
// typed support for
func countList(client *gophercloud.ServiceClient, key string, path ...string) (int, error) {
	var body map[string]json.RawMessage
	if _, err := client.Get(client.ServiceURL(path...), &body, nil); err != nil {
		return 0, err
	}

	raw, ok := body[key]
	if !ok {
		return 0, errors.Errorf("response has no %q list", key)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, errors.Wrapf(err, "could not decode %q list", key)
	}
	return len(items), nil
}
