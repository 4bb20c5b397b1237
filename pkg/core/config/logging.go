package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// ConfigureLogging sets up the standard logrus logger.  Logs always go to
// stderr since stdout carries PUTVAL lines when running under the collectd
// Exec plugin.
func ConfigureLogging(conf LogConfig) error {
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", conf.Level)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch conf.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&prefixed.TextFormatter{FullTimestamp: true})
	}
	return nil
}
