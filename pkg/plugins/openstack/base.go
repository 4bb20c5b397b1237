// Package openstack contains the parts shared by the OpenStack plugins: the
// config parser, the authenticated session, the stats tree and the logic
// that turns a tree into collectd gauges every read cycle.
package openstack

import (
	"context"
	"fmt"
	"time"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/collectd-openstack/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// The stages of a read cycle that can fail
const (
	StageConnect  = "connect"
	StageCollect  = "collect"
	StageDispatch = "dispatch"
)

// CycleError is the error returned by a failed read cycle
type CycleError struct {
	Stage string
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Cause returns the underlying error
func (e *CycleError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error
func (e *CycleError) Unwrap() error {
	return e.Err
}

// Collector gathers a fresh stats tree from an OpenStack service.  Any error
// discards the whole tree.
type Collector interface {
	Collect(ctx context.Context) (Group, error)
}

// Base is embedded by every OpenStack plugin and drives the read cycle
// around the plugin's Collector.
type Base struct {
	Settings Settings
	Session  *Session

	prefix     string
	collector  Collector
	dispatcher *Dispatcher
	logger     log.FieldLogger
}

// NewBase creates a plugin base with prefix as the default metric prefix
func NewBase(prefix string, collector Collector) *Base {
	return &Base{
		Settings:  DefaultSettings(prefix),
		prefix:    prefix,
		collector: collector,
		logger:    log.StandardLogger(),
	}
}

// Configure parses the plugin's config nodes and prepares the session and
// dispatcher.  It must be called exactly once, before Connect.
func (b *Base) Configure(conf *config.PluginConfig, writer api.Writer, logger log.FieldLogger) error {
	if logger != nil {
		b.logger = logger
	}

	defaults := DefaultSettings(b.prefix)
	if conf.IntervalSeconds > 0 {
		defaults.Interval = float64(conf.IntervalSeconds)
	}

	settings, err := ParseSettings(conf.Config, defaults, b.logger)
	if err != nil {
		return err
	}
	if settings.Interval <= 0 {
		return errors.Errorf("%s: interval must be positive, got %v", settings.Prefix, settings.Interval)
	}
	b.Settings = settings

	httpClient, err := conf.HTTPConfig.Build()
	if err != nil {
		return errors.Wrap(err, "could not build HTTP client")
	}
	b.Session = NewSession(settings, httpClient)

	b.dispatcher = &Dispatcher{
		Host:     conf.Hostname,
		Interval: b.Interval(),
		Writer:   writer,
		Logger:   b.logger,
		Debug:    settings.Debug,
	}
	return nil
}

// Interval is how often Read should be called
func (b *Base) Interval() time.Duration {
	return utils.SecondsToDuration(b.Settings.Interval)
}

// Connect authenticates the session.  A plugin that fails to connect should
// not be read.
func (b *Base) Connect(ctx context.Context) error {
	if b.Session == nil {
		return &CycleError{Stage: StageConnect, Err: errors.New("plugin is not configured")}
	}
	if err := b.Session.Connect(ctx); err != nil {
		return &CycleError{Stage: StageConnect, Err: err}
	}
	return nil
}

// Read runs one read cycle, collecting a stats tree and dispatching it, and
// returns the number of samples written.  Failures are logged once here, with
// a stack trace, and also returned.
func (b *Base) Read(ctx context.Context) (int, error) {
	start := time.Now()
	tree, err := b.collector.Collect(ctx)
	if err != nil {
		b.logger.Errorf("%s: failed to get stats :: %+v", b.Settings.Prefix, err)
		return 0, &CycleError{Stage: StageCollect, Err: err}
	}
	b.logVerbose("collected new data from service :: took %s", time.Since(start))

	count, err := b.dispatcher.Dispatch(ctx, tree)
	if err != nil {
		if errors.Cause(err) == ErrNoStats {
			b.logger.Errorf("%s: %v", b.Settings.Prefix, err)
		} else {
			b.logger.Errorf("%s: failed to dispatch values :: %+v", b.Settings.Prefix, err)
		}
		return count, &CycleError{Stage: StageDispatch, Err: err}
	}
	b.logVerbose("dispatched %d values", count)

	return count, nil
}

// Logger is the plugin instance's logger
func (b *Base) Logger() log.FieldLogger {
	return b.logger
}

func (b *Base) logVerbose(format string, args ...interface{}) {
	if b.Settings.Verbose {
		b.logger.Infof(b.Settings.Prefix+": "+format, args...)
	}
}
