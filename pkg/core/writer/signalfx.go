package writer

import (
	"context"
	"math"
	"strings"
	"sync"

	"collectd.org/api"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	"github.com/signalfx/golib/v3/datapoint"
	"github.com/signalfx/golib/v3/sfxclient"
)

// SignalFxWriter converts value lists to SignalFx datapoints and sends them to
// the ingest API once per read cycle.
type SignalFxWriter struct {
	lock    sync.Mutex
	sink    *sfxclient.HTTPSink
	pending []*datapoint.Datapoint
}

var _ Writer = &SignalFxWriter{}

// NewSignalFxWriter creates a writer that sends to conf.IngestURL
func NewSignalFxWriter(conf config.SignalFxConfig) (*SignalFxWriter, error) {
	if conf.AccessToken == "" {
		return nil, errors.New("signalfx writer requires accessToken")
	}
	sink := sfxclient.NewHTTPSink()
	sink.AuthToken = conf.AccessToken
	sink.DatapointEndpoint = strings.TrimSuffix(conf.IngestURL, "/") + "/v2/datapoint"
	return &SignalFxWriter{sink: sink}, nil
}

// Write implements api.Writer by queueing the value list until Flush
func (s *SignalFxWriter) Write(_ context.Context, vl *api.ValueList) error {
	dps, err := ValueListToDatapoints(vl)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.pending = append(s.pending, dps...)
	s.lock.Unlock()
	return nil
}

// Flush sends everything queued since the last flush
func (s *SignalFxWriter) Flush(ctx context.Context) error {
	s.lock.Lock()
	dps := s.pending
	s.pending = nil
	s.lock.Unlock()

	if len(dps) == 0 {
		return nil
	}
	return errors.Wrapf(s.sink.AddDatapoints(ctx, dps), "could not send %d datapoints", len(dps))
}

// Close drops anything that was not flushed
func (s *SignalFxWriter) Close() error {
	s.lock.Lock()
	s.pending = nil
	s.lock.Unlock()
	return nil
}

// ValueListToDatapoints converts a collectd value list the same way the
// SignalFx collectd integration does: the metric name is type.type_instance
// and plugin, plugin_instance and host become dimensions.
func ValueListToDatapoints(vl *api.ValueList) ([]*datapoint.Datapoint, error) {
	dims := map[string]string{}
	if vl.Host != "" {
		dims["host"] = vl.Host
	}
	if vl.Plugin != "" {
		dims["plugin"] = vl.Plugin
	}
	if vl.PluginInstance != "" {
		dims["plugin_instance"] = vl.PluginInstance
	}

	name := vl.Type
	if vl.TypeInstance != "" {
		name += "." + vl.TypeInstance
	}

	dps := make([]*datapoint.Datapoint, 0, len(vl.Values))
	for i, v := range vl.Values {
		metric := name
		if len(vl.Values) > 1 && i < len(vl.DSNames) {
			metric += "." + vl.DSNames[i]
		}

		var value datapoint.Value
		metricType := datapoint.Gauge
		switch val := v.(type) {
		case api.Gauge:
			f := float64(val)
			if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
				value = datapoint.NewIntValue(int64(f))
			} else {
				value = datapoint.NewFloatValue(f)
			}
		case api.Derive:
			value = datapoint.NewIntValue(int64(val))
			metricType = datapoint.Counter
		case api.Counter:
			value = datapoint.NewIntValue(int64(val))
			metricType = datapoint.Counter
		default:
			return nil, errors.Errorf("unsupported value type %T in %s", v, vl.Identifier)
		}

		dps = append(dps, datapoint.New(metric, dims, value, metricType, vl.Time))
	}
	return dps, nil
}
