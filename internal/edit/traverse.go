// Package edit implements parameter introspection and scoped state editing
// for differentiable objects.
//
// An object participating in this package declares, per named operation, the
// ordered list of tensors that operation depends on (the Module contract).
// On top of that contract the package provides identity-based deduplication
// of aliased tensors, temporary parameter substitution with guaranteed
// restoration, and a gradient-probing verifier that checks the declared list
// against the tensors an operation actually uses.
package edit

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/editgrad/editgrad/internal/tensor"
)

// DefaultMaxDepth is the traversal depth budget used by Collect and Install.
const DefaultMaxDepth = 20

// Slot is an addressable reference to a child value inside a container.
// Writing through Set replaces the slot's occupant in place.
type Slot struct {
	// Key identifies the slot within its container, for diagnostics.
	Key string

	// Get reads the slot's current value.
	Get func() any

	// Set replaces the slot's value. For tensor slots the engine only ever
	// writes *tensor.Tensor values.
	Set func(v any)
}

// Traversable is implemented by container types that expose their child
// slots to the traversal engine. Implementations must return slots in a
// stable order across calls.
//
// Slices and maps are traversed without implementing Traversable: slices in
// index order, maps in sorted key order.
type Traversable interface {
	Slots() []Slot
}

// ident is a surrogate identity key: the value's address qualified by its
// type, so a pointer to a struct and a pointer to its first field do not
// collide.
type ident struct {
	typ reflect.Type
	ptr uintptr
}

// identityOf derives a surrogate identity for v. Values without a stable
// address (scalars, strings, nil) report ok=false and are never tracked;
// they cannot participate in cycles.
func identityOf(v any) (ident, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return ident{}, false
		}
		return ident{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Map, reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return ident{}, false
		}
		return ident{typ: rv.Type(), ptr: rv.Pointer()}, true
	default:
		return ident{}, false
	}
}

// canRecurse reports whether v is a container the engine can walk into.
// A typed nil pointer is not walkable even when its type implements
// Traversable.
func canRecurse(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return false
	}
	if _, ok := v.(Traversable); ok {
		return true
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return !rv.IsNil()
	default:
		return false
	}
}

// visitFunc is invoked for every value matching the recognition predicate.
// name is the synthetic path of the value; set writes a replacement into the
// owning container's slot.
type visitFunc func(v any, name string, set func(any)) error

// child is one enumerated element of a container.
type child struct {
	name  string
	value any
	set   func(any)
}

// children enumerates the direct children of obj in deterministic order.
// Returns ErrNotTraversable when obj is not a container.
func children(obj any, prefix string) ([]child, error) {
	if tr, ok := obj.(Traversable); ok {
		slots := tr.Slots()
		out := make([]child, 0, len(slots))
		for _, s := range slots {
			out = append(out, child{
				name:  prefix + "." + s.Key,
				value: s.Get(),
				set:   s.Set,
			})
		}
		return out, nil
	}

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice:
		out := make([]child, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			out = append(out, child{
				name:  fmt.Sprintf("%s[%d]", prefix, i),
				value: elem.Interface(),
				set:   func(v any) { elem.Set(reflect.ValueOf(v)) },
			})
		}
		return out, nil

	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]child, 0, len(keys))
		for _, k := range keys {
			out = append(out, child{
				name:  fmt.Sprintf("%s[%v]", prefix, k.Interface()),
				value: rv.MapIndex(k).Interface(),
				set:   func(v any) { rv.SetMapIndex(k, reflect.ValueOf(v)) },
			})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w (type %T)", ErrNotTraversable, obj)
	}
}

// walk visits every value reachable from obj. Values matching crit are
// handed to visit and not recursed into; containers are walked recursively,
// consuming one unit of depth budget per level; everything else is skipped.
//
// seen tracks the identity of every enumerated value across the whole
// traversal, so cyclic references terminate and aliased values are visited
// exactly once.
func walk(obj any, prefix string, crit func(any) bool, visit visitFunc, depth int, seen map[ident]struct{}) error {
	elems, err := children(obj, prefix)
	if err != nil {
		return err
	}

	for _, c := range elems {
		if id, ok := identityOf(c.value); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}

		switch {
		case crit(c.value):
			if err := visit(c.value, c.name, c.set); err != nil {
				return err
			}
		case canRecurse(c.value):
			if depth <= 0 {
				return fmt.Errorf("%w at %s", ErrDepthExceeded, c.name)
			}
			if err := walk(c.value, c.name, crit, visit, depth-1, seen); err != nil {
				return err
			}
		default:
			// Scalars, strings, unexposed objects: invisible to the engine.
		}
	}
	return nil
}

// isFloatTensor is the recognition predicate: only floating-point tensors
// participate in parameter bookkeeping.
func isFloatTensor(v any) bool {
	t, ok := v.(*tensor.Tensor)
	return ok && t != nil && t.DType().IsFloat()
}
