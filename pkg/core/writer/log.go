package writer

import (
	"context"

	"collectd.org/api"
	"github.com/signalfx/collectd-openstack/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// LogWriter only logs the samples it gets, which is handy when trying out a
// config with the read command.
type LogWriter struct {
	logger log.FieldLogger
}

var _ Writer = &LogWriter{}

// NewLogWriter logs to logger, or the standard logger if nil
func NewLogWriter(logger log.FieldLogger) *LogWriter {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogWriter{logger: logger.WithField("writer", "log")}
}

// Write implements api.Writer
func (l *LogWriter) Write(_ context.Context, vl *api.ValueList) error {
	l.logger.Info(utils.ValueListToString(vl))
	return nil
}

// Flush is a no-op
func (l *LogWriter) Flush(context.Context) error { return nil }

// Close is a no-op
func (l *LogWriter) Close() error { return nil }
