package plugins

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/collectd-openstack/pkg/core/writer"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// Manager coordinates the startup and shutdown of plugin instances based on
// the configuration provided by the user.  All instances share the same
// writer.
type Manager struct {
	writer writer.Writer

	lock          sync.Mutex
	activePlugins []*ActivePlugin
}

// NewManager creates a new instance of the Manager
func NewManager(w writer.Writer) *Manager {
	return &Manager{
		writer: w,
	}
}

// Start creates, configures and connects an instance for each config and
// then starts reading them on their intervals.  Instances that fail to
// configure or connect are logged and skipped.  It returns the number of
// instances that were started.
func (m *Manager) Start(ctx context.Context, confs []config.PluginConfig) int {
	m.lock.Lock()
	defer m.lock.Unlock()

	ready, _ := m.setup(ctx, confs)
	for _, ap := range ready {
		ap.logger.WithField("interval", ap.instance.Interval()).Info("Starting plugin")
		ap.start(ctx)
	}
	m.activePlugins = append(m.activePlugins, ready...)
	return len(ready)
}

// ReadOnce creates, configures and connects an instance for each config and
// reads every one of them a single time, concurrently.  It returns the total number of
// samples written and an error if any instance failed at any stage.
func (m *Manager) ReadOnce(ctx context.Context, confs []config.PluginConfig) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	ready, setupFailures := m.setup(ctx, confs)
	var total, failed atomic.Int64
	failed.Add(int64(setupFailures))

	var g errgroup.Group
	for _, ap := range ready {
		ap := ap
		g.Go(func() error {
			count, err := ap.read(ctx)
			total.Add(int64(count))
			if err != nil {
				failed.Inc()
			}
			ap.logger.WithField("samples", count).Info("Read plugin")
			return nil
		})
	}
	_ = g.Wait()
	m.activePlugins = append(m.activePlugins, ready...)

	if n := failed.Load(); n > 0 {
		return int(total.Load()), errors.Errorf("%d of %d plugins failed", n, len(confs))
	}
	return int(total.Load()), nil
}

func (m *Manager) setup(ctx context.Context, confs []config.PluginConfig) ([]*ActivePlugin, int) {
	var ready []*ActivePlugin
	failed := 0

	for i := range confs {
		conf := &confs[i]
		ap, err := m.createAndConfigure(ctx, conf)
		if err != nil {
			log.WithFields(log.Fields{
				"pluginType": conf.Type,
				"error":      err,
			}).Error("Could not start plugin")
			failed++
			continue
		}
		ready = append(ready, ap)
	}
	return ready, failed
}

func (m *Manager) createAndConfigure(ctx context.Context, conf *config.PluginConfig) (*ActivePlugin, error) {
	log.WithFields(log.Fields{
		"pluginType": conf.Type,
		"pluginID":   conf.ID(),
	}).Info("Creating new plugin")

	instance := newPlugin(conf.Type)
	if instance == nil {
		return nil, errors.Errorf("Could not create new plugin of type %s", conf.Type)
	}

	ap := newActivePlugin(instance, conf, m.writer)
	if err := ap.configure(); err != nil {
		return nil, errors.Wrap(err, "could not configure plugin")
	}
	if err := ap.connect(ctx); err != nil {
		return nil, errors.Wrap(err, "could not connect plugin")
	}
	return ap, nil
}

// Stats returns the read statistics of every running plugin
func (m *Manager) Stats() []Stats {
	m.lock.Lock()
	defer m.lock.Unlock()

	out := make([]Stats, 0, len(m.activePlugins))
	for _, ap := range m.activePlugins {
		out = append(out, ap.Stats())
	}
	return out
}

// Shutdown will stop all managed plugins
func (m *Manager) Shutdown() {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i := range m.activePlugins {
		m.activePlugins[i].Shutdown()
	}
	m.activePlugins = nil
}
