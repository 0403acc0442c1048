package observability

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// PrometheusExporter serves registry metrics in Prometheus text
// exposition format (version 0.0.4).
type PrometheusExporter struct {
	registry *Registry
}

// NewPrometheusExporter creates a new exporter backed by the given registry.
func NewPrometheusExporter(registry *Registry) *PrometheusExporter {
	return &PrometheusExporter{registry: registry}
}

// ServeHTTP implements http.Handler for the /metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(e.Format()))
}

// Format renders every registered metric as a # HELP / # TYPE header
// followed by its sample lines, families separated by blank lines.
func (e *PrometheusExporter) Format() string {
	var b strings.Builder

	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	for _, name := range sortedKeys(e.registry.counters) {
		c := e.registry.counters[name]
		writeHeader(&b, c.name, c.help, "counter")
		writeSample(&b, c.name, c.labels, formatFloat(c.Value()))
		b.WriteByte('\n')
	}

	for _, name := range sortedKeys(e.registry.gauges) {
		g := e.registry.gauges[name]
		writeHeader(&b, g.name, g.help, "gauge")
		writeSample(&b, g.name, g.labels, formatFloat(g.Value()))
		b.WriteByte('\n')
	}

	for _, name := range sortedKeys(e.registry.histograms) {
		h := e.registry.histograms[name]
		buckets, counts, sum, count := h.BucketCounts()

		writeHeader(&b, h.name, h.help, "histogram")
		for i, bound := range buckets {
			writeSample(&b, h.name+"_bucket", withLabel(h.labels, "le", formatFloat(bound)), strconv.FormatInt(counts[i], 10))
		}
		writeSample(&b, h.name+"_bucket", withLabel(h.labels, "le", "+Inf"), strconv.FormatInt(count, 10))
		writeSample(&b, h.name+"_sum", h.labels, formatFloat(sum))
		writeSample(&b, h.name+"_count", h.labels, strconv.FormatInt(count, 10))
		b.WriteByte('\n')
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP " + name + " " + help + "\n")
	b.WriteString("# TYPE " + name + " " + kind + "\n")
}

// writeSample emits one exposition line: name{labels} value.
func writeSample(b *strings.Builder, name string, labels map[string]string, value string) {
	b.WriteString(name)
	b.WriteString(labelString(labels))
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

// labelString renders labels as {k1="v1",k2="v2"} in sorted key order,
// or an empty string when there are none.
func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, k := range sortedKeys(labels) {
		parts = append(parts, k+"="+strconv.Quote(labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// withLabel merges one extra pair into a label set without mutating it.
func withLabel(base map[string]string, key, value string) map[string]string {
	merged := make(map[string]string, len(base)+1)
	for k, v := range base {
		merged[k] = v
	}
	merged[key] = value
	return merged
}

// formatFloat renders a float for exposition output; whole numbers come
// out without a decimal point.
func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
