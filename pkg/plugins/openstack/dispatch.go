package openstack

import (
	"context"
	"time"

	"collectd.org/api"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// ErrNoStats is returned when there is nothing in the tree to dispatch
var ErrNoStats = errors.New("failed to retrieve stats")

// Dispatcher flattens a stats tree into one gauge per leaf
type Dispatcher struct {
	Host     string
	Interval time.Duration
	Writer   api.Writer
	Logger   log.FieldLogger
	// Debug logs every sample and a dump of the tree
	Debug bool
}

// Dispatch writes every leaf of tree in sorted key order and returns how
// many samples were written.  A leaf at the wrong depth or a failed write
// stops the dispatch, but samples already written stay written.
func (d *Dispatcher) Dispatch(ctx context.Context, tree Group) (int, error) {
	if len(tree) == 0 {
		return 0, ErrNoStats
	}

	if d.Debug {
		d.Logger.Infof("dispatching %d new stats :: %s", len(tree), spew.Sdump(tree))
	}

	now := time.Now()
	count := 0

	for _, plugin := range utils.SortedKeys(tree) {
		instances, ok := tree[plugin].(Group)
		if !ok {
			return count, errors.Errorf("stats for %s are not grouped by instance", plugin)
		}
		for _, instance := range utils.SortedKeys(instances) {
			types, ok := instances[instance].(Group)
			if !ok {
				return count, errors.Errorf("stats for %s.%s are not grouped by type", plugin, instance)
			}
			for _, typ := range utils.SortedKeys(types) {
				switch n := types[typ].(type) {
				case Value:
					if err := d.dispatchValue(ctx, now, plugin, instance, typ, "", n); err != nil {
						return count, err
					}
					count++
				case Group:
					for _, typeInstance := range utils.SortedKeys(n) {
						v, ok := n[typeInstance].(Value)
						if !ok {
							return count, errors.Errorf("stat %s.%s.%s.%s is not a value", plugin, instance, typ, typeInstance)
						}
						if err := d.dispatchValue(ctx, now, plugin, instance, typ, typeInstance, v); err != nil {
							return count, err
						}
						count++
					}
				}
			}
		}
	}

	return count, nil
}

func (d *Dispatcher) dispatchValue(ctx context.Context, now time.Time, plugin, instance, typ, typeInstance string, v Value) error {
	vl := &api.ValueList{
		Identifier: api.Identifier{
			Host:           d.Host,
			Plugin:         plugin,
			PluginInstance: instance,
			Type:           "gauge",
			TypeInstance:   TypeInstance(typ, typeInstance),
		},
		Time:     now,
		Interval: d.Interval,
		Values:   []api.Value{api.Gauge(v)},
	}

	if err := d.Writer.Write(ctx, vl); err != nil {
		return errors.Wrapf(err, "failed to write %s", vl.Identifier.String())
	}

	if d.Debug {
		d.Logger.Infof("sent metric %s", utils.ValueListToString(vl))
	}
	return nil
}

// TypeInstance names a sample by its metric type and optional sub-instance
func TypeInstance(typ, sub string) string {
	if sub == "" {
		return typ
	}
	return typ + "-" + sub
}
