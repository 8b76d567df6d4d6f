package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/XploY04/jobs.ai/internal/model"
)

// Accessors for raw-record values. Raw payloads are whatever JSON the source
// returned, so every lookup tolerates absent keys and unexpected types.

func str(raw model.RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func strOr(raw model.RawRecord, key, fallback string) string {
	if s := str(raw, key); s != "" {
		return s
	}
	return fallback
}

// numStr renders a numeric or string value as a string; salaries are stored
// as text because sources disagree on integer vs float vs "competitive".
func numStr(raw model.RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', 2, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func boolVal(raw model.RawRecord, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	default:
		return false
	}
}

func nestedStr(raw model.RawRecord, keys ...string) string {
	var cur any = map[string]any(raw)
	for _, key := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = m[key]
	}
	if s, ok := cur.(string); ok {
		return s
	}
	return ""
}

func strSlice(raw model.RawRecord, key string) []string {
	items, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// timeVal resolves the first present key into a timestamp. Unix epochs
// (numeric or digit-string) and ISO-8601 strings are both accepted; anything
// unparseable yields nil so the finalizer can substitute ingestion time.
func timeVal(raw model.RawRecord, keys ...string) *time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if t := ParseTime(v); t != nil {
			return t
		}
	}
	return nil
}
