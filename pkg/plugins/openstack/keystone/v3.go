package keystone

import (
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/endpoints"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/projects"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/roles"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/services"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/users"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

func collectV3(client *gophercloud.ServiceClient, stats openstack.Group, noTenants bool) error {
	projectPages, err := projects.List(client, projects.ListOpts{}).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list projects")
	}
	projectList, err := projects.ExtractProjects(projectPages)
	if err != nil {
		return errors.Wrap(err, "could not extract projects")
	}

	userPages, err := users.List(client, users.ListOpts{}).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list users")
	}
	userList, err := users.ExtractUsers(userPages)
	if err != nil {
		return errors.Wrap(err, "could not extract users")
	}

	rolePages, err := roles.List(client, roles.ListOpts{}).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list roles")
	}
	roleList, err := roles.ExtractRoles(rolePages)
	if err != nil {
		return errors.Wrap(err, "could not extract roles")
	}

	servicePages, err := services.List(client, services.ListOpts{}).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list services")
	}
	serviceList, err := services.ExtractServices(servicePages)
	if err != nil {
		return errors.Wrap(err, "could not extract services")
	}

	endpointPages, err := endpoints.List(client, endpoints.ListOpts{}).AllPages()
	if err != nil {
		return errors.Wrap(err, "could not list endpoints")
	}
	endpointList, err := endpoints.ExtractEndpoints(endpointPages)
	if err != nil {
		return errors.Wrap(err, "could not extract endpoints")
	}

	totals := stats.Sub("totals")
	totals.Sub("projects").Set("count", float64(len(projectList)))
	totals.Sub("users").Set("count", float64(len(userList)))
	totals.Sub("roles").Set("count", float64(len(roleList)))
	totals.Sub("services").Set("count", float64(len(serviceList)))
	totals.Sub("endpoints").Set("count", float64(len(endpointList)))

	if noTenants {
		return nil
	}

	usersByProject := map[string]int{}
	for _, u := range userList {
		if u.DefaultProjectID != "" {
			usersByProject[u.DefaultProjectID]++
		}
	}
	for _, project := range projectList {
		stats.Sub("project-"+project.Name).Sub("users").Set("count", float64(usersByProject[project.ID]))
	}
	return nil
}
