// Package writer contains the destinations that dispatched samples are
// submitted to.  Every writer is safe for use by multiple plugin instances
// at once.
package writer

import (
	"context"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
)

// Writer accepts collectd value lists and delivers them somewhere.  Flush is
// called at the end of every read cycle.
type Writer interface {
	api.Writer
	Flush(ctx context.Context) error
	Close() error
}

// New creates the writer described by conf
func New(conf config.WriterConfig) (Writer, error) {
	switch conf.Type {
	case "putval", "":
		return NewPutvalWriter(nil), nil
	case "network":
		return NewNetworkWriter(conf.Network)
	case "signalfx":
		return NewSignalFxWriter(conf.SignalFx)
	case "prometheus":
		return NewPrometheusWriter(conf.Prometheus)
	case "log":
		return NewLogWriter(nil), nil
	default:
		return nil, errors.Errorf("unknown writer type %q", conf.Type)
	}
}
