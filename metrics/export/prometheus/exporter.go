package prometheus

import (
	"fmt"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goAccount.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders engine metrics in Prometheus text exposition
// format. It holds no state of its own; every Render call takes a fresh
// snapshot from the source.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from the given
// [goAccount.Engine].
func NewPrometheusExporter(engine *goAccount.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter from a custom
// metrics source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler serving the rendered metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render produces the full exposition document. An engine with no recorded
// activity renders to the empty string.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		counter{name: def.Name, help: def.Help, value: snapshot.Counters[def.ID]}.render(&b)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(
			internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		histogram{name: def.Name, help: def.Help, cumulative: buckets}.render(&b)
	}

	counter{
		name:  "goaccount_audit_dropped_total",
		help:  "Dropped audit events due to dispatcher backpressure.",
		value: dropped,
	}.render(&b)

	return b.String()
}

type counter struct {
	name  string
	help  string
	value uint64
}

func (c counter) render(b *strings.Builder) {
	writeHeader(b, c.name, c.help, "counter")
	fmt.Fprintf(b, "%s %d\n", c.name, c.value)
}

type histogram struct {
	name       string
	help       string
	cumulative [8]uint64
}

func (h histogram) render(b *strings.Builder) {
	writeHeader(b, h.name, h.help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		fmt.Fprintf(b, "%s_bucket{le=%q} %d\n", h.name, le, h.cumulative[i])
	}
	fmt.Fprintf(b, "%s_count %d\n", h.name, h.cumulative[len(h.cumulative)-1])
	// The core snapshot carries bucket counts only, so _sum stays a stable
	// zero rather than being omitted.
	fmt.Fprintf(b, "%s_sum 0\n", h.name)
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}
