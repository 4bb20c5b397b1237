package keystone

import (
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/identity/v2/extensions/admin/roles"
	"github.com/gophercloud/gophercloud/openstack/identity/v2/tenants"
	"github.com/gophercloud/gophercloud/openstack/identity/v2/users"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

func collectV2(client *gophercloud.ServiceClient, stats openstack.Group, noTenants bool) error {
	tenantPages, err := tenants.List(client, nil).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list tenants")
	}
	tenantList, err := tenants.ExtractTenants(tenantPages)
	if err != nil {
		return errors.Wrap(err, "could not extract tenants")
	}

	userPages, err := users.List(client).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list users")
	}
	userList, err := users.ExtractUsers(userPages)
	if err != nil {
		return errors.Wrap(err, "could not extract users")
	}

	rolePages, err := roles.List(client).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list roles")
	}
	roleList, err := roles.ExtractRoles(rolePages)
	if err != nil {
		return errors.Wrap(err, "could not extract roles")
	}

	serviceCount, err := countList(client, "OS-KSADM:services", "OS-KSADM", "services")
	if err != nil {
		return errors.Wrap(err, "could not list services")
	}

	endpointCount, err := countList(client, "endpoints", "endpoints")
	if err != nil {
		return errors.Wrap(err, "could not list endpoints")
	}

	totals := stats.Sub("totals")
	totals.Sub("tenants").Set("count", float64(len(tenantList)))
	totals.Sub("users").Set("count", float64(len(userList)))
	totals.Sub("roles").Set("count", float64(len(roleList)))
	totals.Sub("services").Set("count", float64(serviceCount))
	totals.Sub("endpoints").Set("count", float64(endpointCount))

	if noTenants {
		return nil
	}

	for _, tenant := range tenantList {
		count, err := countList(client, "users", "tenants", tenant.ID, "users")
		if err != nil {
			return errors.Wrapf(err, "could not list users of tenant %s", tenant.Name)
		}
		stats.Sub("tenant-"+tenant.Name).Sub("users").Set("count", float64(count))
	}
	return nil
}
