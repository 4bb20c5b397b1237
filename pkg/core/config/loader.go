package config

import (
	"math"
	"os"
	"regexp"
	"strconv"

	fqdn "github.com/Showmax/go-fqdn"
	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// DefaultIntervalSeconds is used when neither the config file nor collectd
// provide an interval.
const DefaultIntervalSeconds = 60

// LoadConfig reads, renders and validates the agent config file at path.
func LoadConfig(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}

	conf, err := LoadYAML(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "config file %s", path)
	}
	return conf, nil
}

// LoadYAML does the work of LoadConfig on the raw file content.
func LoadYAML(content []byte) (*Config, error) {
	conf := &Config{}

	if err := yaml.UnmarshalStrict(content, conf); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}

	if err := defaults.Set(conf); err != nil {
		return nil, errors.Wrap(err, "config defaults are wrong types")
	}

	if err := conf.initialize(); err != nil {
		return nil, err
	}

	if err := ValidateStruct(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// initialize expands envvars in the writer settings and fills in values
// that come from the collectd environment.  Plugin config blocks expand
// their own envvars while being decoded.
func (c *Config) initialize() error {
	c.Hostname = expandEnv(c.Hostname)
	for _, field := range []*string{
		&c.Writer.Network.Address,
		&c.Writer.Network.Username,
		&c.Writer.Network.Password,
		&c.Writer.SignalFx.AccessToken,
		&c.Writer.SignalFx.IngestURL,
	} {
		*field = expandEnv(*field)
	}

	if c.Hostname == "" {
		c.Hostname = defaultHostname()
	}
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = defaultIntervalSeconds()
	}

	for i := range c.Plugins {
		pc := &c.Plugins[i]
		if err := defaults.Set(pc); err != nil {
			return errors.Wrapf(err, "plugins[%d] defaults are wrong types", i)
		}
		pc.Hostname = c.Hostname
		if pc.IntervalSeconds == 0 {
			pc.IntervalSeconds = c.IntervalSeconds
		}
	}
	return nil
}

// collectd's Exec plugin passes these to the processes it starts
func defaultHostname() string {
	if h := os.Getenv("COLLECTD_HOSTNAME"); h != "" {
		return h
	}

	host := fqdn.Get()
	if host == "unknown" || host == "localhost" {
		log.Info("Error getting fully qualified hostname, using plain hostname")

		var err error
		host, err = os.Hostname()
		if err != nil {
			log.WithError(err).Error("Error getting system simple hostname, using localhost")
			return "localhost"
		}
	}

	log.Infof("Using hostname %s", host)
	return host
}

func defaultIntervalSeconds() int {
	if v := os.Getenv("COLLECTD_INTERVAL"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err == nil && secs > 0 {
			return int(math.Ceil(secs))
		}
		log.WithField("COLLECTD_INTERVAL", v).Warn("Ignoring invalid collectd interval")
	}
	return DefaultIntervalSeconds
}

var envVarRE = regexp.MustCompile(`\${\s*([\w-]+?)\s*}`)

// Replaces envvar syntax with the actual envvars, so that secrets like the
// OpenStack password don't have to live in the config file.  This runs on
// parsed values so the envvar content is never read as YAML.
func expandEnv(value string) string {
	return envVarRE.ReplaceAllStringFunc(value, func(ref string) string {
		parts := envVarRE.FindStringSubmatch(ref)
		return os.Getenv(parts[1])
	})
}
