package scripts

import (
	"fmt"
	"reflect"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/reusee/bridgestr/bridges"
	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
)

// ToStarlarkValue converts a host value for use by scripts. Go funcs become
// builtins; structs become dicts of their exported fields.
func ToStarlarkValue(v any) starlark.Value {
	switch v := v.(type) {

	case nil, bridges.UndefinedType:
		return starlark.None

	case starlark.Value:
		return v

	case []byte:
		return starlark.Bytes(v)

	case *orderedmap.OrderedMap[string, any]:
		if v == nil {
			return starlark.None
		}
		d := starlark.NewDict(v.Len())
		for elem := v.Front(); elem != nil; elem = elem.Next() {
			d.SetKey(starlark.String(elem.Key), ToStarlarkValue(elem.Value))
		}
		return d

	}

	value := reflect.ValueOf(v)
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool())

	case reflect.String:
		return starlark.String(value.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return starlark.MakeUint64(value.Uint())

	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float())

	case reflect.Slice, reflect.Array:
		elems := make([]starlark.Value, value.Len())
		for i := range elems {
			elems[i] = ToStarlarkValue(value.Index(i).Interface())
		}
		return starlark.NewList(elems)

	case reflect.Map:
		d := starlark.NewDict(value.Len())
		iter := value.MapRange()
		for iter.Next() {
			d.SetKey(
				ToStarlarkValue(iter.Key().Interface()),
				ToStarlarkValue(iter.Value().Interface()),
			)
		}
		return d

	case reflect.Struct:
		typ := value.Type()
		d := starlark.NewDict(typ.NumField())
		for i := range typ.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			d.SetKey(
				starlark.String(field.Name),
				ToStarlarkValue(value.Field(i).Interface()),
			)
		}
		return d

	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			return starlark.None
		}
		return ToStarlarkValue(value.Elem().Interface())

	case reflect.Func:
		if value.IsNil() {
			return starlark.None
		}
		return starlarkutil.MakeFunc("", v)

	}

	panic(fmt.Errorf("unsupported type for starlark: %T", v))
}
