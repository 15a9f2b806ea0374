// Package state implements the nested string-keyed state map the GOAP
// planner reasons over. Two layers of nesting are conventional
// (e.g. character_status.alive, combat_context.status); leaves are
// scalars (bool, string, int, float64).
//
// Matching rules, shared by preconditions and goals:
//   - scalars match by exact equality (numerics compare by value, so
//     int 5 matches float64 5)
//   - string predicates prefixed "<", "<=", ">", ">=" compare
//     numerically
//   - list-valued predicates match by set containment
package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Map is a nested state mapping. Values are scalars, []any lists, or
// nested Map / map[string]any levels.
type Map map[string]any

// New returns an empty state map.
func New() Map {
	return Map{}
}

// Clone returns a deep copy. The copy shares nothing with the original.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Map:
		return t.Clone()
	case map[string]any:
		return Map(t).Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Get resolves a dotted path ("combat_context.status"). The second
// return is false when any path element is missing.
func (m Map) Get(path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur := any(m)
	for _, p := range parts {
		level, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = level[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// GetBool returns the path value as a bool, false when absent or not a
// bool.
func (m Map) GetBool(path string) bool {
	v, ok := m.Get(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetString returns the path value as a string, empty when absent.
func (m Map) GetString(path string) string {
	v, ok := m.Get(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetNumber returns the path value as a float64 and whether it was
// numeric.
func (m Map) GetNumber(path string) (float64, bool) {
	v, ok := m.Get(path)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Set writes a dotted path, creating intermediate levels as needed.
func (m Map) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := asMap(cur[p])
		if !ok {
			next = Map{}
			cur[p] = next
		}
		cur[p] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Merge overlays the delta onto the map in place. Nested levels merge
// recursively; leaves overwrite.
func (m Map) Merge(delta Map) {
	for k, v := range delta {
		dl, dOK := asMap(v)
		el, eOK := asMap(m[k])
		if dOK && eOK {
			el.Merge(dl.Clone())
			m[k] = el
			continue
		}
		m[k] = cloneValue(v)
	}
}

// Satisfies reports whether every condition leaf matches this map under
// the package matching rules. An empty condition set is trivially
// satisfied.
func (m Map) Satisfies(conditions Map) bool {
	for k, want := range conditions {
		if !m.satisfiesKey(k, want) {
			return false
		}
	}
	return true
}

func (m Map) satisfiesKey(key string, want any) bool {
	if wl, ok := asMap(want); ok {
		got, exists := asMap(m[key])
		if !exists {
			return false
		}
		return got.Satisfies(wl)
	}
	got, exists := m[key]
	if !exists {
		return false
	}
	return MatchValue(got, want)
}

// UnsatisfiedKeys counts the top-level goal keys not yet satisfied.
// Used as the planner's admissible heuristic (weights are >= 1).
func (m Map) UnsatisfiedKeys(goal Map) int {
	n := 0
	for k, want := range goal {
		if !m.satisfiesKey(k, want) {
			n++
		}
	}
	return n
}

// MatchValue applies the matching rules for a single leaf: comparison
// predicates, list containment, then exact equality.
func MatchValue(got, want any) bool {
	if pred, ok := want.(string); ok {
		if op, operand, isPred := parsePredicate(pred); isPred {
			gv, numeric := toFloat(got)
			if !numeric {
				return false
			}
			switch op {
			case "<":
				return gv < operand
			case "<=":
				return gv <= operand
			case ">":
				return gv > operand
			case ">=":
				return gv >= operand
			}
		}
	}
	if list, ok := want.([]any); ok {
		for _, e := range list {
			if MatchValue(got, e) {
				return true
			}
		}
		return false
	}
	if gf, gok := toFloat(got); gok {
		if wf, wok := toFloat(want); wok {
			return gf == wf
		}
	}
	return got == want
}

func parsePredicate(s string) (op string, operand float64, ok bool) {
	for _, candidate := range []string{"<=", ">=", "<", ">"} {
		if strings.HasPrefix(s, candidate) {
			v, err := strconv.ParseFloat(strings.TrimSpace(s[len(candidate):]), 64)
			if err != nil {
				return "", 0, false
			}
			return candidate, v, true
		}
	}
	return "", 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}

func asMap(v any) (Map, bool) {
	switch t := v.(type) {
	case Map:
		return t, true
	case map[string]any:
		return Map(t), true
	default:
		return nil, false
	}
}

// Hash returns a stable serialization of the map, used as the planner's
// closed-set key. Keys are emitted sorted at every level so structurally
// equal states hash equally.
func (m Map) Hash() string {
	var sb strings.Builder
	writeCanonical(&sb, m)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v any) {
	switch t := v.(type) {
	case Map:
		writeCanonicalMap(sb, t)
	case map[string]any:
		writeCanonicalMap(sb, Map(t))
	case []any:
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, e)
		}
		sb.WriteByte(']')
	case string:
		data, _ := json.Marshal(t)
		sb.Write(data)
	default:
		if f, ok := toFloat(t); ok {
			sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
			return
		}
		fmt.Fprintf(sb, "%v", t)
	}
}

func writeCanonicalMap(sb *strings.Builder, m Map) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		writeCanonical(sb, m[k])
	}
	sb.WriteByte('}')
}

// Diff returns the dotted leaf paths at which other differs from m
// (changed, added, or removed), sorted. Used for divergence detection.
func (m Map) Diff(other Map) []string {
	changed := map[string]struct{}{}
	diffInto(changed, "", m, other)
	diffInto(changed, "", other, m)
	out := make([]string, 0, len(changed))
	for k := range changed {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func diffInto(changed map[string]struct{}, prefix string, a, b Map) {
	for k, av := range a {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		bv, ok := b[k]
		if !ok {
			changed[path] = struct{}{}
			continue
		}
		am, aIsMap := asMap(av)
		bm, bIsMap := asMap(bv)
		if aIsMap && bIsMap {
			diffInto(changed, path, am, bm)
			continue
		}
		if aIsMap != bIsMap || !MatchValue(av, bv) {
			changed[path] = struct{}{}
		}
	}
}
