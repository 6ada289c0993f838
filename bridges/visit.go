package bridges

import (
	"reflect"
	"unsafe"

	"github.com/elliotchance/orderedmap/v2"
	"go.starlark.net/starlark"
)

type sliceIdentity struct {
	typ  reflect.Type
	data unsafe.Pointer
	len  int
}

type pointerIdentity struct {
	typ  reflect.Type
	addr unsafe.Pointer
}

type addrIdentity struct {
	addr uintptr
}

type intValue string

// containerIdentity returns a comparable key identifying the storage of a
// sequence or mapping. Empty containers hold nothing and cannot form a cycle,
// and may share storage, so they are not tracked. Callables and scalars are
// never tracked, so the same function may appear any number of times.
func containerIdentity(value any) (any, bool) {
	switch v := value.(type) {

	case Sourcer, starlark.Callable:
		return nil, false

	case *starlark.List:
		if v == nil || v.Len() == 0 {
			return nil, false
		}
		return v, true

	case *starlark.Dict:
		if v == nil || v.Len() == 0 {
			return nil, false
		}
		return v, true

	case starlark.Tuple:
		if len(v) == 0 {
			return nil, false
		}
		return sliceIdentity{
			typ:  tupleType,
			data: unsafe.Pointer(unsafe.SliceData(v)),
			len:  len(v),
		}, true

	case *orderedmap.OrderedMap[string, any]:
		if v == nil || v.Len() == 0 {
			return nil, false
		}
		return v, true

	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}
		return sliceIdentity{
			typ:  rv.Type(),
			data: rv.UnsafePointer(),
			len:  rv.Len(),
		}, true

	case reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return nil, false
		}
		return pointerIdentity{
			typ:  rv.Type(),
			addr: rv.UnsafePointer(),
		}, true

	case reflect.Pointer:
		if rv.IsNil() || rv.Type().Elem().Size() == 0 || !holdsContainer(rv.Elem()) {
			return nil, false
		}
		return pointerIdentity{
			typ:  rv.Type(),
			addr: rv.UnsafePointer(),
		}, true

	}

	return nil, false
}

var tupleType = reflect.TypeFor[starlark.Tuple]()

// holdsContainer reports whether a pointer target can lead back to itself.
func holdsContainer(target reflect.Value) bool {
	switch target.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	case reflect.Pointer:
		return !target.IsNil()
	case reflect.Interface:
		if target.IsNil() {
			return false
		}
		switch target.Elem().Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return true
		case reflect.Pointer:
			return !target.Elem().IsNil()
		}
	}
	return false
}

// equalityKey mirrors strict equality of the engine: containers and callables
// by identity, everything else by value.
func equalityKey(value any) (any, bool) {
	if key, ok := containerIdentity(value); ok {
		return key, true
	}

	switch v := value.(type) {
	case nil, starlark.NoneType:
		return nil, true
	case UndefinedType:
		return v, true
	case starlark.Int:
		return intValue(v.String()), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, true
		}
		return addrIdentity{addr: rv.Pointer()}, true
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return value, true
	case reflect.Func:
		if rv.IsNil() {
			return nil, true
		}
		// code pointer: closures of the same literal share one key
		return addrIdentity{addr: rv.Pointer()}, true
	}

	return nil, false
}

// visitSet holds the values seen during one encode call.
type visitSet struct {
	seen map[any]struct{}
	// records every value, not only containers
	byEquality bool
}

func newVisitSet(byEquality bool) *visitSet {
	return &visitSet{
		seen:       make(map[any]struct{}),
		byEquality: byEquality,
	}
}

// visit reports false if value was already seen.
func (v *visitSet) visit(value any) bool {
	var key any
	var ok bool
	if v.byEquality {
		key, ok = equalityKey(value)
	} else {
		key, ok = containerIdentity(value)
	}
	if !ok {
		return true
	}
	if _, seen := v.seen[key]; seen {
		return false
	}
	v.seen[key] = struct{}{}
	return true
}
