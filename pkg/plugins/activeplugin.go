package plugins

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/collectd-openstack/pkg/core/writer"
	"github.com/signalfx/collectd-openstack/pkg/utils"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// ActivePlugin is a wrapper for an actual plugin instance that keeps some
// metadata about it, such as its config and read statistics, and drives its
// read loop.
type ActivePlugin struct {
	instance Plugin
	id       uint64
	config   *config.PluginConfig
	writer   writer.Writer
	logger   log.FieldLogger

	configured bool
	connected  bool
	// cancel function for the read loop context
	cancel context.CancelFunc

	readFailures     atomic.Uint64
	readCalls        atomic.Uint64
	samplesSent      atomic.Uint64
	intervalExceeded atomic.Uint64
}

func newActivePlugin(instance Plugin, conf *config.PluginConfig, w writer.Writer) *ActivePlugin {
	return &ActivePlugin{
		instance: instance,
		id:       conf.ID(),
		config:   conf,
		writer:   w,
		logger: log.WithFields(log.Fields{
			"plugin":   conf.Type,
			"pluginID": conf.ID(),
		}),
	}
}

// configure calls the instance's Configure method.  It can only succeed
// once.
func (ap *ActivePlugin) configure() error {
	if ap.configured {
		return errors.New("plugin is already configured")
	}
	if err := ap.instance.Configure(ap.config, ap.writer, ap.logger); err != nil {
		return err
	}
	ap.configured = true
	return nil
}

// connect calls the instance's Connect method.  A plugin that fails to
// connect is never read, and the only way to recover it is to restart.
func (ap *ActivePlugin) connect(ctx context.Context) error {
	if !ap.configured {
		return errors.New("plugin must be configured before connecting")
	}
	if ap.connected {
		return nil
	}
	if err := ap.instance.Connect(ctx); err != nil {
		return err
	}
	ap.connected = true
	return nil
}

// read runs one cycle and flushes the writer afterwards
func (ap *ActivePlugin) read(ctx context.Context) (int, error) {
	interval := ap.instance.Interval()

	start := time.Now()
	count, err := ap.instance.Read(ctx)
	ap.readCalls.Inc()
	ap.samplesSent.Add(uint64(count))
	if err != nil {
		// the plugin has already logged the failure
		ap.readFailures.Inc()
	}

	if flushErr := ap.writer.Flush(ctx); flushErr != nil {
		ap.logger.WithError(flushErr).Error("Could not flush samples")
		if err == nil {
			err = flushErr
		}
	}

	elapsed := time.Since(start)
	if elapsed > interval {
		ap.intervalExceeded.Inc()
		ap.logger.Warnf("plugin %s took too long to run (%s) which will cause lagging samples", ap.config.Type, elapsed)
	}
	return count, err
}

// start launches the read loop
func (ap *ActivePlugin) start(ctx context.Context) {
	ctx, ap.cancel = context.WithCancel(ctx)
	utils.RunOnInterval(ctx, func(ctx context.Context) {
		_, _ = ap.read(ctx)
	}, ap.instance.Interval())
}

// Stats returns the read statistics of the plugin
func (ap *ActivePlugin) Stats() Stats {
	return Stats{
		Type:             ap.config.Type,
		ID:               ap.id,
		ReadCalls:        ap.readCalls.Load(),
		ReadFailures:     ap.readFailures.Load(),
		SamplesSent:      ap.samplesSent.Load(),
		IntervalExceeded: ap.intervalExceeded.Load(),
	}
}

// Shutdown stops the read loop
func (ap *ActivePlugin) Shutdown() {
	if ap.cancel != nil {
		ap.cancel()
	}
}

// Stats are the counters kept for each plugin instance
type Stats struct {
	Type             string
	ID               uint64
	ReadCalls        uint64
	ReadFailures     uint64
	SamplesSent      uint64
	IntervalExceeded uint64
}
