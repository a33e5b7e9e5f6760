// Package metrics exposes the decoder's operational state as Prometheus
// collectors, in the style madpsy-ka9q_ubersdr registers its noise-floor
// and session gauges with promauto.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decoder holds the Prometheus collectors for one decode session.
type Decoder struct {
	framesTotal    prometheus.Counter
	fieldsTotal    prometheus.Counter
	vsyncRelocks   prometheus.Counter
	sourceOverflow prometheus.Counter

	hsyncOffset prometheus.Gauge
	syncLevel   prometheus.Gauge
}

// NewDecoder registers and returns a Decoder metrics set, labeled with
// the decoder mode (mono/colour) so a mode switch starts a fresh series.
func NewDecoder(mode string) *Decoder {
	labels := prometheus.Labels{"mode": mode}

	return &Decoder{
		framesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "apollotv_frames_total",
			Help:        "Total number of complete frames decoded.",
			ConstLabels: labels,
		}),
		fieldsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "apollotv_fields_total",
			Help:        "Total number of complete colour fields decoded.",
			ConstLabels: labels,
		}),
		vsyncRelocks: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "apollotv_vsync_relocks_total",
			Help:        "Total number of vertical-sync pattern matches that forced a line re-lock.",
			ConstLabels: labels,
		}),
		sourceOverflow: promauto.NewCounter(prometheus.CounterOpts{
			Name:        "apollotv_source_overflow_total",
			Help:        "Total number of sample buffers dropped because the decoder fell behind the source.",
			ConstLabels: labels,
		}),
		hsyncOffset: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "apollotv_hsync_offset_samples",
			Help:        "Current horizontal-sync timing correction, in samples.",
			ConstLabels: labels,
		}),
		syncLevel: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "apollotv_sync_level",
			Help:        "Current tracked sync-tip reference level.",
			ConstLabels: labels,
		}),
	}
}

// ObserveLine updates the gauges that change every line.
func (m *Decoder) ObserveLine(hsyncOffset int, syncLevel int32) {
	m.hsyncOffset.Set(float64(hsyncOffset))
	m.syncLevel.Set(float64(syncLevel))
}

// ObserveVsyncRelock records a forced line re-lock from a vsync pattern match.
func (m *Decoder) ObserveVsyncRelock() { m.vsyncRelocks.Inc() }

// ObserveFrame records one completed frame.
func (m *Decoder) ObserveFrame() { m.framesTotal.Inc() }

// ObserveField records one completed colour field.
func (m *Decoder) ObserveField() { m.fieldsTotal.Inc() }

// ObserveSourceOverflow records n sample buffers dropped by the source
// since the last observation (a monotonically increasing counter is
// sampled and diffed by the caller).
func (m *Decoder) ObserveSourceOverflow(n uint64) {
	m.sourceOverflow.Add(float64(n))
}

// Serve starts an HTTP server exposing the collectors registered by
// NewDecoder (and any other promauto-registered collector) at /metrics on
// addr, in the style madpsy-ka9q_ubersdr starts its own HTTP server: built
// and handed to the caller so it can be shut down on exit, and run in the
// background with errors other than a clean Shutdown reported on errCh.
func Serve(addr string) (*http.Server, <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	return server, errCh
}

// Shutdown gracefully stops a Serve-started server.
func Shutdown(server *http.Server) error {
	return server.Shutdown(context.Background())
}
