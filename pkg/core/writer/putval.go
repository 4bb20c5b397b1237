package writer

import (
	"context"
	"io"
	"os"
	"sync"

	"collectd.org/api"
	"collectd.org/format"
)

// PutvalWriter prints PUTVAL lines, which is how processes started by the
// collectd Exec plugin submit values.  The identifier joins plugin and
// plugin instance with a dash and collectd splits it at the first dash, so
// openstack-nova/hypervisor-x arrives as plugin "openstack" with instance
// "nova-hypervisor-x".  Use the network writer to keep the plugin name.
type PutvalWriter struct {
	lock   sync.Mutex
	putval *format.Putval
}

var _ Writer = &PutvalWriter{}

// NewPutvalWriter writes to w, or to stdout if w is nil
func NewPutvalWriter(w io.Writer) *PutvalWriter {
	if w == nil {
		w = os.Stdout
	}
	return &PutvalWriter{putval: format.NewPutval(w)}
}

// Write implements api.Writer
func (p *PutvalWriter) Write(ctx context.Context, vl *api.ValueList) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.putval.Write(ctx, vl)
}

// Flush is a no-op since every line is written as it comes
func (p *PutvalWriter) Flush(context.Context) error { return nil }

// Close is a no-op
func (p *PutvalWriter) Close() error { return nil }
