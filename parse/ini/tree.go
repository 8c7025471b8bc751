package ini

import (
	"fmt"
	"reflect"
	"sort"
)

// =========================
// Tree Definitions
// =========================

// Section is a node of the parsed configuration tree. Items maps each key to
// either a nested *Section or a leaf value (string, bool, int64, float64,
// complex128, []any, Tuple, Set, FrozenSet, []byte, ByteArray, Range, or an
// instance produced by a registered type factory).
type Section struct {
	Items map[string]any
}

func NewSection() *Section {
	return &Section{Items: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *Section) Get(key string) (any, bool) {
	v, ok := s.Items[key]
	return v, ok
}

// Set stores value under key, overwriting any prior entry.
func (s *Section) Set(key string, value any) {
	if s.Items == nil {
		s.Items = make(map[string]any)
	}
	s.Items[key] = value
}

// Delete removes key from the section.
func (s *Section) Delete(key string) {
	delete(s.Items, key)
}

// Len returns the number of entries in the section.
func (s *Section) Len() int {
	return len(s.Items)
}

// Keys returns the section's keys sorted lexicographically.
func (s *Section) Keys() []string {
	keys := make([]string, 0, len(s.Items))
	for key := range s.Items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Merge deep-merges src into the section. Nested maps and sections merge
// recursively into existing subsections; leaf values overwrite.
func (s *Section) Merge(src any) error {
	switch m := src.(type) {
	case *Section:
		for key, value := range m.Items {
			if err := s.mergeEntry(key, value); err != nil {
				return err
			}
		}
	case map[string]any:
		for key, value := range m {
			if err := s.mergeEntry(key, value); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("ini: cannot merge %T into a section", src)
	}
	return nil
}

func (s *Section) mergeEntry(key string, value any) error {
	if s.Items == nil {
		s.Items = make(map[string]any)
	}
	switch nested := value.(type) {
	case *Section, map[string]any:
		sub, ok := s.Items[key].(*Section)
		if !ok {
			sub = NewSection()
			s.Items[key] = sub
		}
		return sub.Merge(nested)
	default:
		s.Items[key] = value
	}
	return nil
}

// ToMap returns the section as a plain nested map. Nested sections are copied
// recursively; leaf values are shared.
func (s *Section) ToMap() map[string]any {
	out := make(map[string]any, len(s.Items))
	for key, value := range s.Items {
		if sub, ok := value.(*Section); ok {
			out[key] = sub.ToMap()
			continue
		}
		out[key] = value
	}
	return out
}

// Equal reports deep structural equality between the section and other, which
// may be another *Section or a plain nested map[string]any.
func (s *Section) Equal(other any) bool {
	switch m := other.(type) {
	case *Section:
		return s.Equal(m.ToMap())
	case map[string]any:
		if len(s.Items) != len(m) {
			return false
		}
		for key, value := range s.Items {
			want, ok := m[key]
			if !ok {
				return false
			}
			if sub, ok := value.(*Section); ok {
				if !sub.Equal(want) {
					return false
				}
				continue
			}
			if !reflect.DeepEqual(value, want) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// traverse walks the tree along path and returns the section found. Empty
// path entries are scope padding and skipped. A missing key is reported as a
// *LookupError, a non-section intermediate as a *ConsistencyError.
func (s *Section) traverse(path []string) (*Section, error) {
	node := s
	for _, key := range path {
		if key == "" {
			continue
		}
		next, ok := node.Items[key]
		if !ok {
			return nil, &LookupError{Path: path, Key: key}
		}
		sub, ok := next.(*Section)
		if !ok {
			return nil, &ConsistencyError{Msg: fmt.Sprintf("path expected a section at %q during traversal", key)}
		}
		node = sub
	}
	return node, nil
}

// =========================
// Leaf Kinds
// =========================

// Tuple is a fixed ordered sequence leaf.
type Tuple []any

// Set is an ordered-unique collection leaf. Element order is first-insertion
// order so serialization stays deterministic.
type Set []any

// FrozenSet is the immutable variant of Set.
type FrozenSet []any

// ByteArray is the mutable byte-sequence leaf; plain []byte is the immutable
// one.
type ByteArray []byte

// Range is an arithmetic integer sequence with an exclusive stop.
type Range struct {
	Start int
	Stop  int
	Step  int
}

// Len returns the number of values the range produces.
func (r Range) Len() int {
	if r.Step == 0 {
		return 0
	}
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Stop >= r.Start {
		return 0
	}
	return (r.Start - r.Stop - r.Step - 1) / -r.Step
}

// Values expands the range into its integer sequence.
func (r Range) Values() []int {
	n := r.Len()
	out := make([]int, 0, n)
	for i, v := 0, r.Start; i < n; i, v = i+1, v+r.Step {
		out = append(out, v)
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
}

// uniqueElems deduplicates elems preserving first-insertion order.
func uniqueElems(elems []any) []any {
	out := make([]any, 0, len(elems))
	for _, elem := range elems {
		seen := false
		for _, prev := range out {
			if reflect.DeepEqual(prev, elem) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, elem)
		}
	}
	return out
}
