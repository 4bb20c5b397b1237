// Package all imports every plugin package so that their init functions
// register them.
package all

import (
	// Include all plugin packages so that init is called for registration.
	_ "github.com/signalfx/collectd-openstack/pkg/plugins/openstack/keystone"
	_ "github.com/signalfx/collectd-openstack/pkg/plugins/openstack/nova"
)
