package monitoring

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fieldlens/backend/internal/logging"
)

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics for the default registry at addr in the
// background. Binding happens before returning so a bad address fails
// loudly; the bound address is available as srv.Addr ("host:0" picks a
// free port). Close the returned server to stop it.
func Serve(addr string, log *logging.Logger) (*http.Server, error) {
	if log == nil {
		log = logging.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind metrics endpoint %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(prometheus.DefaultGatherer))

	srv := &http.Server{Addr: ln.Addr().String(), Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()

	log.Info("metrics endpoint listening", zap.String("addr", srv.Addr))
	return srv, nil
}
