package nova

import (
	"strings"

	"github.com/gophercloud/gophercloud/openstack/identity/v2/tenants"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

// The quotas reported by the legacy version
var legacyQuotas = []string{"cores", "fixed_ips", "floating_ips", "instances", "key_pairs", "ram", "security_groups"}

func (c *collector) collectV2(stats openstack.Group) error {
	if !c.settings.NoTenants {
		pages, err := tenants.List(c.identity, nil).AllPages()
		if err != nil {
			return errors.Wrap(err, "could not list tenants")
		}
		tenantList, err := tenants.ExtractTenants(pages)
		if err != nil {
			return errors.Wrap(err, "could not extract tenants")
		}

		for _, tenant := range tenantList {
			limits, err := c.absoluteLimits(tenant.ID)
			if err != nil {
				return err
			}
			quotas, err := c.quotas(tenant.ID)
			if err != nil {
				return err
			}

			t := stats.Sub("tenant-" + tenant.Name)
			l := t.Sub("limits")
			for name, v := range limits {
				if isRAM(name) {
					v *= bytesPerMB
				}
				l.Set(name, v)
			}
			q := t.Sub("quotas")
			for _, name := range legacyQuotas {
				v, ok := quotas[name]
				if !ok {
					return errors.Errorf("quotas of %s have no %s", tenant.Name, name)
				}
				if name == "ram" {
					v *= bytesPerMB
				}
				q.Set(name, v)
			}
		}
	}

	conf := stats.Sub("cluster").Sub("config")
	conf.Set("AllocationRatioCores", c.settings.AllocationRatioCores)
	conf.Set("AllocationRatioRam", c.settings.AllocationRatioRam)
	conf.Set("ReservedNodeCores", c.settings.ReservedNodeCores)
	conf.Set("ReservedNodeRamMB", c.settings.ReservedNodeRamMB)
	conf.Set("ReservedCores", c.settings.ReservedCores)
	conf.Set("ReservedRamMB", c.settings.ReservedRamMB)

	hypervisorList, err := c.hypervisors()
	if err != nil {
		return err
	}
	for i := range hypervisorList {
		h := &hypervisorList[i]
		g := stats.Sub("hypervisor-" + h.HypervisorHostname)
		setAll(g, hypervisorStats(h))
		setOvercommit(g, h, c.settings)
	}

	aggregateList, err := c.aggregates()
	if err != nil {
		return err
	}
	// hypervisors in windows aggregates are reported a second time under
	// their own name
	for _, aggregate := range aggregateList {
		if aggregate.Metadata["os_distro"] != "windows" {
			continue
		}
		for _, host := range aggregate.Hosts {
			for i := range hypervisorList {
				h := &hypervisorList[i]
				if !strings.HasPrefix(h.HypervisorHostname, host) {
					continue
				}
				g := stats.Sub("windows-hypervisor-" + h.HypervisorHostname)
				setAll(g, hypervisorStats(h))
				setOvercommit(g, h, c.settings)
			}
		}
	}
	return nil
}
