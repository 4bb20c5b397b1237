package utils

import (
	"testing"
	"time"

	"collectd.org/api"
	"github.com/stretchr/testify/assert"
)

func TestValueListToString(t *testing.T) {
	vl := &api.ValueList{
		Identifier: api.Identifier{
			Host:           "collector",
			Plugin:         "openstack-nova",
			PluginInstance: "hypervisor-cmp1",
			Type:           "gauge",
			TypeInstance:   "vcpus",
		},
		Time:     time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Interval: time.Minute,
		Values:   []api.Value{api.Gauge(48)},
	}

	s := ValueListToString(vl)
	assert.Contains(t, s, "collector/openstack-nova-hypervisor-cmp1/gauge-vcpus")
	assert.Contains(t, s, "[48]")
	assert.Contains(t, s, "interval 1m0s")
}
