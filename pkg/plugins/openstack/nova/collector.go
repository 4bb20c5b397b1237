package nova

import (
	"strings"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/aggregates"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/hypervisors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/limits"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/quotasets"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
)

// bytesPerMB converts the RAM limits and quotas of the legacy version
const bytesPerMB = 1024 * 1024

type collector struct {
	identity *gophercloud.ServiceClient
	compute  *gophercloud.ServiceClient
	settings openstack.Settings
}

// absoluteLimits returns every numeric absolute limit of a project
func (c *collector) absoluteLimits(projectID string) (map[string]float64, error) {
	var body struct {
		Limits struct {
			Absolute map[string]interface{} `json:"absolute"`
		} `json:"limits"`
	}
	if err := limits.Get(c.compute, limits.GetOpts{TenantID: projectID}).ExtractInto(&body); err != nil {
		return nil, errors.Wrapf(err, "could not get limits of %s", projectID)
	}
	return numericFields(body.Limits.Absolute), nil
}

// quotas returns every numeric quota of a project
func (c *collector) quotas(projectID string) (map[string]float64, error) {
	var body struct {
		QuotaSet map[string]interface{} `json:"quota_set"`
	}
	if err := quotasets.Get(c.compute, projectID).ExtractInto(&body); err != nil {
		return nil, errors.Wrapf(err, "could not get quotas of %s", projectID)
	}
	q := numericFields(body.QuotaSet)
	delete(q, "id")
	return q, nil
}

func (c *collector) hypervisors() ([]hypervisors.Hypervisor, error) {
	pages, err := hypervisors.List(c.compute, hypervisors.ListOpts{}).AllPages()
	if err != nil {
		return nil, errors.Wrap(err, "could not list hypervisors")
	}
	list, err := hypervisors.ExtractHypervisors(pages)
	return list, errors.Wrap(err, "could not extract hypervisors")
}

func (c *collector) aggregates() ([]aggregates.Aggregate, error) {
	pages, err := aggregates.List(c.compute).AllPages()
	if err != nil {
		return nil, errors.Wrap(err, "could not list aggregates")
	}
	list, err := aggregates.ExtractAggregates(pages)
	return list, errors.Wrap(err, "could not extract aggregates")
}

// hypervisorStats are the utilization fields reported by both versions
func hypervisorStats(h *hypervisors.Hypervisor) map[string]float64 {
	return map[string]float64{
		"current_workload":   float64(h.CurrentWorkload),
		"free_disk_gb":       float64(h.FreeDiskGB),
		"free_ram_mb":        float64(h.FreeRamMB),
		"hypervisor_version": float64(h.HypervisorVersion),
		"memory_mb":          float64(h.MemoryMB),
		"memory_mb_used":     float64(h.MemoryMBUsed),
		"running_vms":        float64(h.RunningVMs),
		"vcpus":              float64(h.VCPUs),
		"vcpus_used":         float64(h.VCPUsUsed),
	}
}

// setOvercommit adds the capacity of a hypervisor after the cluster wide
// allocation ratios and per node reservations are applied
func setOvercommit(g openstack.Group, h *hypervisors.Hypervisor, s openstack.Settings) {
	memoryOvercommit := float64(h.MemoryMB) * s.AllocationRatioRam
	vcpusOvercommit := float64(h.VCPUs) * s.AllocationRatioCores

	g.Set("memory_mb_overcommit", memoryOvercommit)
	g.Set("memory_mb_overcommit_withreserve", memoryOvercommit-s.ReservedNodeRamMB)
	g.Set("vcpus_overcommit", vcpusOvercommit)
	g.Set("vcpus_overcommit_withreserve", vcpusOvercommit-s.ReservedNodeCores)
}

func setAll(g openstack.Group, values map[string]float64) {
	for k, v := range values {
		g.Set(k, v)
	}
}

func numericFields(m map[string]interface{}) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if f, ok := v.(float64); ok {
			out[k] = f
		}
	}
	return out
}

func isRAM(name string) bool {
	return strings.Contains(strings.ToLower(name), "ram")
}
