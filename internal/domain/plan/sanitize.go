package plan

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Sanitize repairs an untrusted task list. It never fails and always returns
// a list of the same length:
//   - titles and descriptions are trimmed; a whitespace-only title counts
//     as missing, so a missing or blank title becomes "Task {i+1}"
//   - a non-string description becomes ""
//   - dependsOn keeps only integers in [0, len(raw)); anything else is dropped
//
// The dependency bound is the total list length, so a task may reference a
// later one. No cycle detection is done; scheduling ignores dependencies.
func Sanitize(raw []RawTask) []Task {
	out := make([]Task, len(raw))
	for i := range raw {
		out[i] = Task{
			Title:       sanitizeTitle(raw[i].Title, i),
			Description: sanitizeDescription(raw[i].Description),
			DependsOn:   sanitizeDeps(raw[i].DependsOn, len(raw)),
		}
	}
	return out
}

func sanitizeTitle(v any, i int) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return "Task " + strconv.Itoa(i+1)
}

func sanitizeDescription(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func sanitizeDeps(v any, total int) []int {
	deps := []int{}
	for _, e := range asList(v) {
		idx, ok := asIndex(e)
		if !ok || idx < 0 || idx >= total {
			continue
		}
		deps = append(deps, idx)
	}
	return deps
}

// asList returns v as a slice when it is any kind of list, else nil.
func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out
	case []float64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out
	}
	return nil
}

// asIndex reports whether v is an integral number and returns it.
func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return floatIndex(n)
	case float32:
		return floatIndex(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			if i > math.MaxInt32 || i < math.MinInt32 {
				return 0, false
			}
			return int(i), true
		}
		// 1.0 and 1e0 are whole numbers too.
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatIndex(f)
	}
	return 0, false
}

func floatIndex(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
