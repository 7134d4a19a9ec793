package telemetry

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelPlatform  = "platform"
	ProfilingLabelOperation = "operation"
	ProfilingLabelTopic     = "topic"
	ProfilingLabelRoute     = "route"
)

// maxLabelValueLength bounds label values to keep series small
const maxLabelValueLength = 128

// highCardinalityLabels are dropped; per-merchant and per-connection IDs would
// create a series per store
var highCardinalityLabels = map[string]bool{
	"merchant_id":   true,
	"connection_id": true,
	"delivery_id":   true,
	"product_id":    true,
	"request_id":    true,
	"trace_id":      true,
}

// WithProfilingLabels runs fn with pprof labels so Pyroscope can slice CPU
// time by platform and operation
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// SyncLabels labels a sync or webhook operation for one platform
func SyncLabels(platform, operation string) map[string]string {
	return map[string]string{
		ProfilingLabelPlatform:  strings.ToLower(platform),
		ProfilingLabelOperation: operation,
	}
}

// sanitizeLabels normalizes keys, drops empty and high-cardinality labels,
// and returns key/value pairs sorted by normalized key. When raw keys collide
// after normalization, the lexically smallest raw key wins.
func sanitizeLabels(labels map[string]string) []string {
	raw := make([]string, 0, len(labels))
	for k := range labels {
		raw = append(raw, k)
	}
	sort.Strings(raw)

	clean := make(map[string]string, len(labels))
	for _, k := range raw {
		v := labels[k]
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || highCardinalityLabels[key] {
			continue
		}
		if _, dup := clean[key]; dup {
			continue
		}
		clean[key] = truncateLabelValue(v)
	}

	keys := make([]string, 0, len(clean))
	for k := range clean {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, clean[k])
	}
	return pairs
}

func truncateLabelValue(v string) string {
	if len(v) <= maxLabelValueLength {
		return v
	}
	cut := maxLabelValueLength
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return v[:cut]
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(key))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, key)
}
