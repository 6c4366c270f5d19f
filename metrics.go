package blog

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of a build or server. A nil
// *Metrics records nothing.
type Metrics struct {
	Registry *prom.Registry

	buildDuration   prom.Histogram
	pagesRendered   *prom.CounterVec
	darkModeToggles *prom.CounterVec
}

// NewMetrics registers the blog collectors plus Go and process collectors
// on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prom.NewRegistry(),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blog",
			Name:      "build_duration_seconds",
			Help:      "Time spent loading and rendering the site",
			Buckets:   prom.ExponentialBuckets(0.05, 2, 10),
		}),
		pagesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blog",
			Name:      "pages_rendered_total",
			Help:      "Pages rendered, by page kind",
		}, []string{"kind"}),
		darkModeToggles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blog",
			Name:      "dark_mode_toggles_total",
			Help:      "Dark mode toggles, by resulting mode",
		}, []string{"mode"}),
	}
	m.Registry.MustRegister(m.buildDuration, m.pagesRendered, m.darkModeToggles)
	m.Registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
}

func (m *Metrics) pageRendered(kind string) {
	if m == nil {
		return
	}
	m.pagesRendered.WithLabelValues(kind).Inc()
}

func (m *Metrics) darkModeToggled(dark bool) {
	if m == nil {
		return
	}
	mode := "light"
	if dark {
		mode = "dark"
	}
	m.darkModeToggles.WithLabelValues(mode).Inc()
}
