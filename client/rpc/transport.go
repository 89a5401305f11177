package rpc

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ipfs-shipyard/ipfsapi/config"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewApiFromConfig builds a handle for addr (multiaddr or URL) using the
// transport settings of cfg. When cfg enables metrics, request counters are
// registered on reg.
func NewApiFromConfig(addr string, cfg *config.Config, reg prometheus.Registerer) (*HttpApi, error) {
	transport := newTransport(cfg.API.DisableKeepAlives.WithDefault(false))

	endpoint := addr
	if strings.HasPrefix(addr, "/") {
		a, err := ma.NewMultiaddr(addr)
		if err != nil {
			return nil, &EndpointError{Endpoint: addr, Err: err}
		}
		endpoint, err = dialEndpoint(a, transport)
		if err != nil {
			return nil, err
		}
	}

	var rt http.RoundTripper = otelhttp.NewTransport(transport)
	if cfg.Metrics.Enabled.WithDefault(false) {
		var err error
		rt, err = InstrumentRoundTripper(reg, rt)
		if err != nil {
			return nil, err
		}
	}

	api, err := NewURLApiWithClient(endpoint, &http.Client{Transport: rt})
	if err != nil {
		return nil, err
	}
	for k, vs := range cfg.API.HTTPHeaders {
		for _, v := range vs {
			api.Headers.Add(k, v)
		}
	}
	return api, nil
}

// InstrumentRoundTripper counts and times RPC requests going through next.
// Registering twice on the same registerer reuses the existing collectors.
func InstrumentRoundTripper(reg prometheus.Registerer, next http.RoundTripper) (http.RoundTripper, error) {
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ipfsapi",
		Subsystem: "rpc",
		Name:      "requests_total",
		Help:      "RPC requests sent to the daemon, by status code and method.",
	}, []string{"code", "method"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ipfsapi",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "Time until the daemon's response headers arrived.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"}))
	if err != nil {
		return nil, err
	}

	inFlight, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ipfsapi",
		Subsystem: "rpc",
		Name:      "in_flight_requests",
		Help:      "RPC requests waiting for response headers.",
	}))
	if err != nil {
		return nil, err
	}

	return promhttp.InstrumentRoundTripperInFlight(inFlight,
		promhttp.InstrumentRoundTripperCounter(requests,
			promhttp.InstrumentRoundTripperDuration(duration, next),
		),
	), nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
