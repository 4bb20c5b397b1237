package nova

import (
	"github.com/gophercloud/gophercloud/openstack/identity/v3/projects"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

func (c *collector) collectV3(stats openstack.Group) error {
	if !c.settings.NoTenants {
		pages, err := projects.List(c.identity, projects.ListOpts{}).AllPages()
		if err != nil {
			return errors.Wrap(err, "could not list projects")
		}
		projectList, err := projects.ExtractProjects(pages)
		if err != nil {
			return errors.Wrap(err, "could not extract projects")
		}

		for _, project := range projectList {
			limits, err := c.absoluteLimits(project.ID)
			if err != nil {
				return err
			}
			quotas, err := c.quotas(project.ID)
			if err != nil {
				return err
			}

			p := stats.Sub("project-" + project.Name)
			setAll(p.Sub("limits"), limits)
			setAll(p.Sub("quotas"), quotas)
		}
	}

	hypervisorList, err := c.hypervisors()
	if err != nil {
		return err
	}
	for i := range hypervisorList {
		h := &hypervisorList[i]
		g := stats.Sub("hypervisor-" + h.HypervisorHostname)
		setAll(g, hypervisorStats(h))
		g.Set("disk_available_least", float64(h.DiskAvailableLeast))
		g.Set("local_gb", float64(h.LocalGB))
		g.Set("local_gb_used", float64(h.LocalGBUsed))
		setOvercommit(g, h, c.settings)
	}
	return nil
}
