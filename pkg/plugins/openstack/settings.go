package openstack

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	log "github.com/sirupsen/logrus"
)

// Keystone API versions that select the collection strategy of every
// plugin.  The legacy version also selects tenant-scoped v2.0 tokens.
const (
	LegacyVersion  = "v2"
	CurrentVersion = "v3"
)

// Settings is the parsed configuration of one plugin instance.  It is
// created once by ParseSettings and never modified afterwards.
type Settings struct {
	Username      string
	Password      string
	TenantName    string
	ProjectName   string
	ProjectDomain string
	UserDomain    string
	AuthURL       string

	// KeystoneVersion is LegacyVersion or anything else for the current API
	KeystoneVersion string
	Region          string
	// EndpointType is the catalog interface to use: public, internal or
	// admin.  Blank means public, and the identity client uses AuthURL.
	EndpointType string

	Prefix string
	// Interval in seconds
	Interval  float64
	Verbose   bool
	Debug     bool
	NoTenants bool

	AllocationRatioCores float64
	AllocationRatioRam   float64
	ReservedNodeCores    float64
	ReservedNodeRamMB    float64
	ReservedCores        float64
	ReservedRamMB        float64
}

// DefaultSettings returns the settings that apply before any config is
// parsed, using prefix as the metric prefix.
func DefaultSettings(prefix string) Settings {
	return Settings{
		Username:             "admin",
		TenantName:           "openstack",
		ProjectName:          "openstack",
		ProjectDomain:        "default",
		UserDomain:           "default",
		AuthURL:              "http://api.example.com:5000/v2.0",
		KeystoneVersion:      LegacyVersion,
		Prefix:               prefix,
		Interval:             60,
		AllocationRatioCores: 16,
		AllocationRatioRam:   1.5,
	}
}

// Legacy is true when the v2 collection strategies should be used
func (s Settings) Legacy() bool {
	return s.KeystoneVersion == LegacyVersion
}

// ParseSettings applies the config nodes in order on top of defaults.
// Unknown keys are logged as a warning and otherwise ignored.  A numeric key
// whose value can't be parsed is an error.
func ParseSettings(nodes []config.Node, defaults Settings, logger log.FieldLogger) (Settings, error) {
	s := defaults

	for _, node := range nodes {
		if node.Key == "NoTenants" {
			s.NoTenants = node.Value() != "false" && node.Value() != "False"
			continue
		}

		target, known := s.field(node.Key)
		if !known {
			logger.Warnf("%s: unknown config key: %s", s.Prefix, node.Key)
			continue
		}
		if len(node.Values) == 0 {
			logger.Warnf("%s: config key %s has no value", s.Prefix, node.Key)
			continue
		}

		val := node.Values[0]
		switch t := target.(type) {
		case *string:
			*t = val
		case *bool:
			*t = val == "True" || val == "true"
		case *float64:
			f, err := parseFloat(val)
			if err != nil {
				return s, errors.Wrapf(err, "%s: invalid value for %s", s.Prefix, node.Key)
			}
			*t = f
		}
	}

	return s, nil
}

// field maps a config key to the settings field it sets
func (s *Settings) field(key string) (interface{}, bool) {
	fields := map[string]interface{}{
		"Username":             &s.Username,
		"Password":             &s.Password,
		"TenantName":           &s.TenantName,
		"AuthURL":              &s.AuthURL,
		"Verbose":              &s.Verbose,
		"Debug":                &s.Debug,
		"AllocationRatioCores": &s.AllocationRatioCores,
		"AllocationRatioRam":   &s.AllocationRatioRam,
		"ReservedNodeCores":    &s.ReservedNodeCores,
		"ReservedNodeRamMB":    &s.ReservedNodeRamMB,
		"ReservedCores":        &s.ReservedCores,
		"ReservedRamMB":        &s.ReservedRamMB,
		"Prefix":               &s.Prefix,
		"Interval":             &s.Interval,
		"Region":               &s.Region,
		"EndpointType":         &s.EndpointType,
		"ProjectName":          &s.ProjectName,
		"KeystoneVersion":      &s.KeystoneVersion,
		"ProjectDomain":        &s.ProjectDomain,
		"UserDomain":           &s.UserDomain,
	}
	f, ok := fields[key]
	return f, ok
}

// empty numeric values count as zero
func parseFloat(val string) (float64, error) {
	if val == "" {
		return 0, nil
	}
	return strconv.ParseFloat(val, 64)
}
