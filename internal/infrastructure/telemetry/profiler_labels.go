package telemetry

import (
	"context"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelOperation = "operation"
	ProfilingLabelJob       = "job"
)

// MaxLabelValueLength truncates label values
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped: one series per id would swamp the
// profiler's index
var highCardinalityLabels = []string{"actor_id", "request_id", "order_id", "product_id", "trace_id"}

// WithProfilingLabels runs fn with pprof labels attached, so samples taken
// inside can be filtered by them in Pyroscope
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels returns key/value pairs sorted by key, without empty or
// high-cardinality entries
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		k = sanitizeLabelKey(k)
		if k == "" || v == "" || slices.Contains(highCardinalityLabels, k) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		v := labelValue(labels, k)
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}

func labelValue(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	for k, v := range labels {
		if sanitizeLabelKey(k) == key {
			return v
		}
	}
	return ""
}

// sanitizeLabelKey lowercases key and maps anything outside [a-z0-9_] to '_'
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, key)
}
