// Package timeutil has helpers for durations that appear in config files.
package timeutil

import (
	"time"

	"github.com/pkg/errors"
)

// Duration is a time.Duration that can be unmarshaled from YAML as either a
// duration string ("10s") or a bare number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var secs float64
	if err := unmarshal(&secs); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.AsDuration().String(), nil
}

// AsDuration returns the standard library form of the duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}
