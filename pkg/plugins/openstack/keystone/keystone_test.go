package keystone

import (
	"context"
	"net/http"
	"testing"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/neotest"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/collectd-openstack/pkg/plugins/openstack"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveV3(t *testing.T, fake *neotest.FakeOpenStack) {
	fake.HandleFixtures(t, "testdata/v3.json")
}

func serveV2(t *testing.T, fake *neotest.FakeOpenStack) {
	fake.HandleFixtures(t, "testdata/v2.json")
}

func connectedPlugin(t *testing.T, fake *neotest.FakeOpenStack, version string, extra ...config.Node) (*Plugin, *neotest.TestWriter, *test.Hook) {
	logger, hook := test.NewNullLogger()
	w := neotest.NewTestWriter()

	nodes := append([]config.Node{
		{Key: "AuthURL", Values: []string{fake.AuthURL(version)}},
		{Key: "KeystoneVersion", Values: []string{version}},
		{Key: "Username", Values: []string{fake.Username}},
		{Key: "Password", Values: []string{fake.Password}},
	}, extra...)

	p := New()
	require.NoError(t, p.Configure(&config.PluginConfig{Type: pluginType, Hostname: "collector1", Config: nodes}, w, logger))
	require.NoError(t, p.Connect(context.Background()))
	return p, w, hook
}

func valuesByName(t *testing.T, w *neotest.TestWriter, count int) map[string]float64 {
	vls := w.WaitForValueLists(count, 1)
	require.Len(t, vls, count)
	out := map[string]float64{}
	for _, vl := range vls {
		assert.Equal(t, "gauge", vl.Type)
		assert.Equal(t, "collector1", vl.Host)
		assert.Equal(t, pluginType, vl.Plugin)
		out[vl.PluginInstance+"."+vl.TypeInstance] = float64(vl.Values[0].(api.Gauge))
	}
	return out
}

func TestCollectV3(t *testing.T) {
	fake := neotest.NewFakeOpenStack()
	fake.Start()
	defer fake.Close()
	serveV3(t, fake)

	p, w, hook := connectedPlugin(t, fake, "v3")

	count, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.Empty(t, hook.AllEntries())

	assert.Equal(t, map[string]float64{
		"totals.projects-count":  3,
		"totals.users-count":     4,
		"totals.roles-count":     2,
		"totals.services-count":  2,
		"totals.endpoints-count": 3,

		"project-admin.users-count": 1,
		"project-demo.users-count":  2,
		"project-empty.users-count": 0,
	}, valuesByName(t, w, count))
}

func TestCollectV3NoTenants(t *testing.T) {
	fake := neotest.NewFakeOpenStack()
	fake.Start()
	defer fake.Close()
	serveV3(t, fake)

	p, _, _ := connectedPlugin(t, fake, "v3", config.Node{Key: "NoTenants", Values: []string{"true"}})

	tree, err := p.Collect(context.Background())
	require.NoError(t, err)
	stats := tree[pluginType].(openstack.Group)
	assert.Len(t, stats, 1)
	assert.Equal(t, 5, tree.Leaves())
}

func TestCollectV2(t *testing.T) {
	fake := neotest.NewFakeOpenStack()
	fake.Start()
	defer fake.Close()
	serveV2(t, fake)

	p, w, _ := connectedPlugin(t, fake, "v2", config.Node{Key: "TenantName", Values: []string{"admin"}})

	count, err := p.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	assert.Equal(t, map[string]float64{
		"totals.tenants-count":   2,
		"totals.users-count":     3,
		"totals.roles-count":     1,
		"totals.services-count":  3,
		"totals.endpoints-count": 4,

		"tenant-admin.users-count": 1,
		"tenant-demo.users-count":  2,
	}, valuesByName(t, w, count))
}

func TestCollectPrefix(t *testing.T) {
	fake := neotest.NewFakeOpenStack()
	fake.Start()
	defer fake.Close()
	serveV3(t, fake)

	p, _, _ := connectedPlugin(t, fake, "v3", config.Node{Key: "Prefix", Values: []string{"keystone-east"}})

	tree, err := p.Collect(context.Background())
	require.NoError(t, err)
	assert.Contains(t, tree, "keystone-east")
}

func TestCollectFailsMidway(t *testing.T) {
	fake := neotest.NewFakeOpenStack()
	fake.Start()
	defer fake.Close()
	serveV3(t, fake)
	fake.HandleStatus("/v3/roles", http.StatusServiceUnavailable)

	p, w, hook := connectedPlugin(t, fake, "v3")

	count, err := p.Read(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, count)
	w.EnsureNoValueLists(t, 100*time.Millisecond)

	var cycleErr *openstack.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, openstack.StageCollect, cycleErr.Stage)

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "could not list roles")
}
