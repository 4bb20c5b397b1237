package writer

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"collectd.org/api"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/signalfx/collectd-openstack/pkg/core/config"
	log "github.com/sirupsen/logrus"
)

// PrometheusWriter keeps the latest value of every gauge and serves them on
// a scrape endpoint.  A series that is not written again within
// staleIntervals of its own interval is dropped on the next Flush, so
// deleted projects and hypervisors stop being scraped.
type PrometheusWriter struct {
	registry *prometheus.Registry
	gauges   *prometheus.GaugeVec
	server   *http.Server
	listener net.Listener

	lock    sync.Mutex
	expires map[api.Identifier]time.Time
	now     func() time.Time
}

// collectd times out values after two intervals as well
const staleIntervals = 2

var _ Writer = &PrometheusWriter{}

// NewPrometheusWriter starts serving the scrape endpoint right away
func NewPrometheusWriter(conf config.PrometheusConfig) (*PrometheusWriter, error) {
	gauges := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "collectd",
		Name:      "openstack_gauge",
		Help:      "Gauges dispatched by the collectd OpenStack plugins",
	}, []string{"host", "plugin", "plugin_instance", "type_instance"})

	registry := prometheus.NewRegistry()
	if err := registry.Register(gauges); err != nil {
		return nil, errors.Wrap(err, "could not register gauges")
	}

	listener, err := net.Listen("tcp", conf.ListenAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "could not listen on %s", conf.ListenAddress)
	}

	router := mux.NewRouter()
	router.Handle(conf.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Prometheus writer stopped serving")
		}
	}()

	return &PrometheusWriter{
		registry: registry,
		gauges:   gauges,
		server:   server,
		listener: listener,
		expires:  map[api.Identifier]time.Time{},
		now:      time.Now,
	}, nil
}

// Addr is the address the scrape endpoint is listening on
func (p *PrometheusWriter) Addr() string {
	return p.listener.Addr().String()
}

// Write implements api.Writer
func (p *PrometheusWriter) Write(_ context.Context, vl *api.ValueList) error {
	for _, v := range vl.Values {
		g, ok := v.(api.Gauge)
		if !ok {
			return errors.Errorf("unsupported value type %T in %s", v, vl.Identifier)
		}
		p.gauges.WithLabelValues(labelValues(vl.Identifier)...).Set(float64(g))
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	if vl.Interval > 0 {
		p.expires[vl.Identifier] = vl.Time.Add(staleIntervals * vl.Interval)
	} else {
		p.expires[vl.Identifier] = time.Time{}
	}
	return nil
}

// Flush drops the series that have gone stale
func (p *PrometheusWriter) Flush(context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	now := p.now()
	for id, expires := range p.expires {
		if !expires.IsZero() && now.After(expires) {
			p.gauges.DeleteLabelValues(labelValues(id)...)
			delete(p.expires, id)
		}
	}
	return nil
}

func labelValues(id api.Identifier) []string {
	return []string{id.Host, id.Plugin, id.PluginInstance, id.TypeInstance}
}

// Close stops the scrape endpoint
func (p *PrometheusWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.server.Shutdown(ctx)
}
