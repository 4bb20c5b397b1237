package plugins

import (
	"context"
	"sync"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// mockPlugin keeps track of how it has been called so that the tests don't
// have to pry into the internals of the manager.
type mockPlugin struct {
	configureErr error
	connectErr   error
	readErr      error

	writer         api.Writer
	conf           *config.PluginConfig
	configureCalls atomic.Int32
	connectCalls   atomic.Int32
	readCalls      atomic.Int32
	inRead         atomic.Int32
	overlapped     atomic.Bool
}

func (m *mockPlugin) Configure(conf *config.PluginConfig, w api.Writer, _ log.FieldLogger) error {
	m.configureCalls.Inc()
	m.conf = conf
	m.writer = w
	return m.configureErr
}

func (m *mockPlugin) Connect(context.Context) error {
	m.connectCalls.Inc()
	return m.connectErr
}

func (m *mockPlugin) Read(ctx context.Context) (int, error) {
	if m.inRead.Inc() > 1 {
		m.overlapped.Store(true)
	}
	defer m.inRead.Dec()
	m.readCalls.Inc()

	time.Sleep(5 * time.Millisecond)
	if m.readErr != nil {
		return 0, m.readErr
	}

	err := m.writer.Write(ctx, &api.ValueList{
		Identifier: api.Identifier{Host: m.conf.Hostname, Plugin: m.conf.Type, Type: "gauge", TypeInstance: "reads"},
		Time:       time.Now(),
		Interval:   m.Interval(),
		Values:     []api.Value{api.Gauge(m.readCalls.Load())},
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (m *mockPlugin) Interval() time.Duration {
	return 20 * time.Millisecond
}

// registerMockPlugins registers a plugin type for each way a plugin can
// behave and returns a function that lists the instances created so far.
func registerMockPlugins() func(_type string) []*mockPlugin {
	var lock sync.Mutex
	instances := map[string][]*mockPlugin{}

	track := func(_type string, create func() *mockPlugin) {
		Register(_type, func() Plugin {
			p := create()
			lock.Lock()
			instances[_type] = append(instances[_type], p)
			lock.Unlock()
			return p
		})
	}

	track("mock-good", func() *mockPlugin { return &mockPlugin{} })
	track("mock-badconfig", func() *mockPlugin { return &mockPlugin{configureErr: errors.New("unknown key")} })
	track("mock-noconnect", func() *mockPlugin { return &mockPlugin{connectErr: errors.New("401 Unauthorized")} })
	track("mock-failread", func() *mockPlugin { return &mockPlugin{readErr: errors.New("503 Service Unavailable")} })

	return func(_type string) []*mockPlugin {
		lock.Lock()
		defer lock.Unlock()
		return append([]*mockPlugin(nil), instances[_type]...)
	}
}
