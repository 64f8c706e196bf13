// Package dtypes provides the composite RDF value containers of the OLDAP
// library: unordered sets with RDF-list emission, language-restricted sets,
// language-tagged string maps with change tracking, namespace IRIs and
// blank nodes. The containers are notifying: an owner (a PropertyClass, a
// ResourceClass or a resource instance) registers a callback that fires on
// every in-place mutation so the owner can record a MODIFY change entry.
package dtypes

import (
	"sort"
	"strings"

	"oldap.evalgo.org/oldaperror"
	"oldap.evalgo.org/xsd"
)

// Notifier is the callback a container invokes after an in-place mutation.
type Notifier func()

// RdfSet is an unordered set of RDF values keyed by their term form, with
// RDF collection emission `( e1 e2 … )`.
type RdfSet[T xsd.Value] struct {
	data     map[string]T
	old      map[string]T
	notifier Notifier
}

// NewRdfSet builds a set from the given elements.
func NewRdfSet[T xsd.Value](values ...T) *RdfSet[T] {
	s := &RdfSet[T]{data: make(map[string]T, len(values))}
	for _, v := range values {
		s.data[v.ToRDF()] = v
	}
	return s
}

// SetNotifier registers the mutation callback.
func (s *RdfSet[T]) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *RdfSet[T]) notify() {
	if s.notifier != nil {
		s.notifier()
	}
}

// snapshot preserves the pre-mutation state once, so Undo can restore it.
func (s *RdfSet[T]) snapshot() {
	if s.old != nil {
		return
	}
	s.old = make(map[string]T, len(s.data))
	for k, v := range s.data {
		s.old[k] = v
	}
}

// Add inserts a value and notifies the owner.
func (s *RdfSet[T]) Add(v T) {
	s.snapshot()
	s.data[v.ToRDF()] = v
	s.notify()
}

// Discard removes a value if present and notifies the owner.
func (s *RdfSet[T]) Discard(v T) {
	s.snapshot()
	delete(s.data, v.ToRDF())
	s.notify()
}

// Contains reports membership.
func (s *RdfSet[T]) Contains(v T) bool {
	_, ok := s.data[v.ToRDF()]
	return ok
}

// Len returns the number of elements.
func (s *RdfSet[T]) Len() int {
	return len(s.data)
}

// Values returns the elements ordered by their RDF term form, so emission
// is deterministic.
func (s *RdfSet[T]) Values() []T {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.data[k])
	}
	return out
}

// OldValues returns the elements as they were before the first un-cleared
// mutation, or the current elements if nothing changed.
func (s *RdfSet[T]) OldValues() []T {
	if s.old == nil {
		return s.Values()
	}
	keys := make([]string, 0, len(s.old))
	for k := range s.old {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.old[k])
	}
	return out
}

// Dirty reports whether the set has un-cleared mutations.
func (s *RdfSet[T]) Dirty() bool {
	return s.old != nil
}

// Undo restores the pre-mutation state.
func (s *RdfSet[T]) Undo() {
	if s.old == nil {
		return
	}
	s.data = s.old
	s.old = nil
}

// ClearChangeset forgets the pre-mutation snapshot.
func (s *RdfSet[T]) ClearChangeset() {
	s.old = nil
}

// Equal compares two sets element-wise.
func (s *RdfSet[T]) Equal(other *RdfSet[T]) bool {
	if other == nil || len(s.data) != len(other.data) {
		return false
	}
	for k := range s.data {
		if _, ok := other.data[k]; !ok {
			return false
		}
	}
	return true
}

// Copy returns an independent set with the same elements.
func (s *RdfSet[T]) Copy() *RdfSet[T] {
	c := &RdfSet[T]{data: make(map[string]T, len(s.data)), notifier: nil}
	for k, v := range s.data {
		c.data[k] = v
	}
	return c
}

func (s *RdfSet[T]) String() string {
	parts := make([]string, 0, len(s.data))
	for _, v := range s.Values() {
		parts = append(parts, v.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ToRDF emits the set as an RDF collection.
func (s *RdfSet[T]) ToRDF() string {
	parts := make([]string, 0, len(s.data))
	for _, v := range s.Values() {
		parts = append(parts, v.ToRDF())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// XsdSet narrows RdfSet to XSD values. Values added through AddCoerced are
// coerced to the datatype of the existing elements; the promoted Add stores
// a value as given.
type XsdSet struct {
	RdfSet[xsd.Value]
}

// NewXsdSet builds a set from the given XSD values.
func NewXsdSet(values ...xsd.Value) *XsdSet {
	s := &XsdSet{RdfSet[xsd.Value]{data: make(map[string]xsd.Value, len(values))}}
	for _, v := range values {
		s.data[v.ToRDF()] = v
	}
	return s
}

// AddCoerced inserts a value, re-parsing it under the datatype of the set's
// existing elements. Adding to an empty set is an inconsistency because the
// element type is unknown.
func (s *XsdSet) AddCoerced(v xsd.Value) error {
	if s.Len() == 0 {
		return oldaperror.New(oldaperror.Inconsistency, "cannot coerce %q into an empty set", v.String())
	}
	elem := s.Values()[0]
	coerced, err := xsd.Convert(v.String(), xsd.DatatypeOf(elem))
	if err != nil {
		return err
	}
	s.Add(coerced)
	return nil
}
