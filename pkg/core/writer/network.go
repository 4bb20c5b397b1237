package writer

import (
	"context"
	"sync"

	"collectd.org/api"
	"collectd.org/network"
	"github.com/pkg/errors"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
)

// NetworkWriter sends value lists to a collectd network plugin listener using
// the collectd binary protocol.
type NetworkWriter struct {
	lock   sync.Mutex
	client *network.Client
}

var _ Writer = &NetworkWriter{}

var securityLevels = map[string]network.SecurityLevel{
	"":        network.None,
	"none":    network.None,
	"sign":    network.Sign,
	"encrypt": network.Encrypt,
}

// NewNetworkWriter dials the configured collectd server
func NewNetworkWriter(conf config.NetworkConfig) (*NetworkWriter, error) {
	level, ok := securityLevels[conf.SecurityLevel]
	if !ok {
		return nil, errors.Errorf("unknown security level %q", conf.SecurityLevel)
	}

	client, err := network.Dial(conf.Address, network.ClientOptions{
		SecurityLevel: level,
		Username:      conf.Username,
		Password:      conf.Password,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial collectd at %s", conf.Address)
	}
	return &NetworkWriter{client: client}, nil
}

// Write implements api.Writer
func (n *NetworkWriter) Write(ctx context.Context, vl *api.ValueList) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.client.Write(ctx, vl)
}

// Flush sends any buffered values
func (n *NetworkWriter) Flush(context.Context) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.client.Flush()
}

// Close flushes and closes the connection
func (n *NetworkWriter) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.client.Close()
}
