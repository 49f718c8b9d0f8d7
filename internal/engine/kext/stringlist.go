package kext

import (
	"fmt"
	"sort"
)

// Shape records which form a list-valued descriptor field arrived in.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeMapping
	ShapeSequence
	ShapeScalar
	ShapeOther
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	case ShapeScalar:
		return "scalar"
	default:
		return "other"
	}
}

// StringList is the decoded form of a field that may be a dictionary, an
// array or a single value. Items is always non-nil.
type StringList struct {
	Shape Shape
	Items []string
}

// DecodeStringList classifies v once. Mapping keys come out sorted because Go
// maps carry no encounter order. Sequence elements that are not scalars are
// dropped.
func DecodeStringList(v any) StringList {
	switch t := v.(type) {
	case nil:
		return StringList{Shape: ShapeAbsent, Items: []string{}}
	case map[string]any:
		return StringList{Shape: ShapeMapping, Items: sortedKeys(t)}
	case Descriptor:
		return StringList{Shape: ShapeMapping, Items: sortedKeys(t)}
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return StringList{Shape: ShapeMapping, Items: keys}
	case []string:
		return StringList{Shape: ShapeSequence, Items: append([]string{}, t...)}
	case []any:
		items := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := scalarString(e); ok {
				items = append(items, s)
			}
		}
		return StringList{Shape: ShapeSequence, Items: items}
	}
	if s, ok := scalarString(v); ok {
		if isZero(v) {
			return StringList{Shape: ShapeScalar, Items: []string{}}
		}
		return StringList{Shape: ShapeScalar, Items: []string{s}}
	}
	return StringList{Shape: ShapeOther, Items: []string{}}
}

// Requirements applies the mapping-or-sequence rule: any other shape is empty.
func (l StringList) Requirements() []string {
	if l.Shape == ShapeMapping || l.Shape == ShapeSequence {
		return l.Items
	}
	return []string{}
}

// Providers applies the provider rule: sequences pass through, a non-empty
// scalar becomes one element, anything else is empty. Zero scalars were
// already decoded to no items.
func (l StringList) Providers() []string {
	switch l.Shape {
	case ShapeSequence, ShapeScalar:
		return l.Items
	}
	return []string{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t), true
	}
	return "", false
}

// isZero reports scalars that count as "no value": empty strings, false and
// numeric zero.
func isZero(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case float32:
		return t == 0
	case float64:
		return t == 0
	}
	return fmt.Sprint(v) == "0"
}
