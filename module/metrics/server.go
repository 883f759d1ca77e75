package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	metricsEndpoint = "/metrics"
	shutdownTimeout = 5 * time.Second
)

// Server exposes a prometheus gatherer over http.
type Server struct {
	log    zerolog.Logger
	addr   string
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer serves gatherer on /metrics at port. Port 0 picks a free
// port, see Addr. With enableProfiler the pprof handlers are mounted
// under /debug/pprof/.
func NewServer(log zerolog.Logger, port uint, gatherer prometheus.Gatherer, enableProfiler bool) *Server {
	mux := http.NewServeMux()
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if enableProfiler {
		mux.Handle("/debug/pprof/", http.DefaultServeMux)
	}

	return &Server{
		log:    log.With().Str("component", "metrics_server").Logger(),
		addr:   ":" + strconv.FormatUint(uint64(port), 10),
		server: &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
}

// Ready binds the port and serves in the background. The channel is closed
// once the port is bound; a bind failure is logged.
func (m *Server) Ready() <-chan struct{} {
	ready := make(chan struct{})
	defer close(ready)

	listener, err := net.Listen("tcp", m.addr)
	if err != nil {
		m.log.Error().Err(err).Str("address", m.addr).Msg("could not bind metrics server")
		return ready
	}
	m.mu.Lock()
	m.listener = listener
	m.mu.Unlock()

	m.log.Info().Str("address", listener.Addr().String()).Str("endpoint", metricsEndpoint).Msg("metrics server started")
	go func() {
		err := m.server.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			m.log.Debug().Msg("metrics server stopped")
			return
		}
		m.log.Error().Err(err).Msg("metrics server failed")
	}()
	return ready
}

// Addr returns the bound address, or the configured one before Ready.
func (m *Server) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return m.addr
	}
	return m.listener.Addr().String()
}

// Done shuts the server down, waiting for in-flight scrapes for a bounded
// time.
func (m *Server) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := m.server.Shutdown(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("metrics server did not shut down cleanly")
		}
	}()
	return done
}
