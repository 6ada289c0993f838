package bridges

import (
	"cmp"
	"encoding/base64"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"go.starlark.net/starlark"
)

// Encoder turns values into bridge strings.
//
// The output is JSON except for callables, which are registered in Registry
// and emitted as the quoted literal function:<handle>:<base64 source>.
type Encoder struct {
	Registry *Registry
	SourceOf SourceFunc

	// reject values whose containers are reached twice in one call
	DetectCycles bool

	// record every value and compare scalars by value. Older encoders did this
	// and rejected values like {"p": 1, "q": 1} as circular.
	visitByEquality bool
}

func NewEncoder(registry *Registry) *Encoder {
	return &Encoder{
		Registry:     registry,
		SourceOf:     DefaultSource,
		DetectCycles: true,
	}
}

// WithSource returns a copy sharing the registry but using another source accessor.
func (e *Encoder) WithSource(sourceOf SourceFunc) *Encoder {
	ret := *e
	ret.SourceOf = sourceOf
	return &ret
}

// Encode encodes value. On failure the partial output is discarded, but
// callables registered before the failure stay registered.
func (e *Encoder) Encode(value any) (string, error) {
	state := &encodeState{
		encoder: e,
		scalars: newScalarWriter(),
	}
	if e.DetectCycles {
		state.visited = newVisitSet(e.visitByEquality)
	}
	if err := state.encode(value); err != nil {
		return "", err
	}
	return string(state.buf), nil
}

type encodeState struct {
	encoder *Encoder
	scalars *scalarWriter
	visited *visitSet
	buf     []byte
	path    []any
}

func (s *encodeState) encode(value any) error {
	if s.visited != nil && !s.visited.visit(value) {
		return &CircularReferenceError{
			Path: s.pathString(),
		}
	}

	switch v := value.(type) {

	case nil, UndefinedType, starlark.NoneType:
		s.buf = append(s.buf, "null"...)
		return nil

	case bool:
		s.buf = appendBool(s.buf, v)
		return nil
	case starlark.Bool:
		s.buf = appendBool(s.buf, bool(v))
		return nil

	case string:
		s.buf = s.scalars.appendString(s.buf, v)
		return nil
	case starlark.String:
		s.buf = s.scalars.appendString(s.buf, string(v))
		return nil

	case int:
		s.buf = strconv.AppendInt(s.buf, int64(v), 10)
		return nil
	case int64:
		s.buf = strconv.AppendInt(s.buf, v, 10)
		return nil
	case float64:
		s.buf = appendFloat(s.buf, v, 64)
		return nil
	case starlark.Int:
		s.buf = append(s.buf, v.String()...)
		return nil
	case starlark.Float:
		s.buf = appendFloat(s.buf, float64(v), 64)
		return nil

	case *starlark.List:
		if v == nil {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		return s.encodeSequence(v.Len(), func(i int) any {
			return v.Index(i)
		})
	case starlark.Tuple:
		return s.encodeSequence(len(v), func(i int) any {
			return v[i]
		})

	case *starlark.Dict:
		if v == nil {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		items := v.Items()
		for _, item := range items {
			if _, ok := item[0].(starlark.String); !ok {
				return s.unsupported(fmt.Sprintf("dict key of type %s", item[0].Type()))
			}
		}
		return s.encodeMapping(len(items), func(i int) (string, any) {
			return string(items[i][0].(starlark.String)), items[i][1]
		})

	case *orderedmap.OrderedMap[string, any]:
		if v == nil {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		keys := make([]string, 0, v.Len())
		values := make([]any, 0, v.Len())
		for elem := v.Front(); elem != nil; elem = elem.Next() {
			keys = append(keys, elem.Key)
			values = append(values, elem.Value)
		}
		return s.encodeMapping(len(keys), func(i int) (string, any) {
			return keys[i], values[i]
		})

	case Sourcer:
		return s.encodeCallable(v)
	case starlark.Callable:
		return s.encodeCallable(v)

	case starlark.Value:
		// Bytes, Set and other engine types have no bridge form
		return s.unsupported(v.Type())

	}

	return s.encodeReflect(reflect.ValueOf(value))
}

func (s *encodeState) encodeReflect(value reflect.Value) error {
	switch value.Kind() {

	case reflect.Invalid:
		s.buf = append(s.buf, "null"...)
		return nil

	case reflect.Bool:
		s.buf = appendBool(s.buf, value.Bool())
		return nil

	case reflect.String:
		s.buf = s.scalars.appendString(s.buf, value.String())
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.buf = strconv.AppendInt(s.buf, value.Int(), 10)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		s.buf = strconv.AppendUint(s.buf, value.Uint(), 10)
		return nil

	case reflect.Float32:
		s.buf = appendFloat(s.buf, value.Float(), 32)
		return nil
	case reflect.Float64:
		s.buf = appendFloat(s.buf, value.Float(), 64)
		return nil

	case reflect.Pointer, reflect.Interface:
		if value.IsNil() {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		return s.encode(value.Elem().Interface())

	case reflect.Slice:
		if value.Type().Elem().Kind() == reflect.Uint8 {
			return s.unsupported("binary data")
		}
		return s.encodeSequence(value.Len(), func(i int) any {
			return value.Index(i).Interface()
		})

	case reflect.Array:
		return s.encodeSequence(value.Len(), func(i int) any {
			return value.Index(i).Interface()
		})

	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return s.unsupported(fmt.Sprintf("map key of type %s", value.Type().Key()))
		}
		keys := value.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return cmp.Compare(a.String(), b.String())
		})
		return s.encodeMapping(len(keys), func(i int) (string, any) {
			return keys[i].String(), value.MapIndex(keys[i]).Interface()
		})

	case reflect.Func:
		if value.IsNil() {
			s.buf = append(s.buf, "null"...)
			return nil
		}
		return s.encodeCallable(value.Interface())

	}

	return s.unsupported(value.Type().String())
}

func (s *encodeState) encodeSequence(n int, elem func(int) any) error {
	s.buf = append(s.buf, '[')
	for i := range n {
		if i > 0 {
			s.buf = append(s.buf, ',')
		}
		s.path = append(s.path, i)
		if err := s.encode(elem(i)); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	s.buf = append(s.buf, ']')
	return nil
}

func (s *encodeState) encodeMapping(n int, entry func(int) (string, any)) error {
	s.buf = append(s.buf, '{')
	for i := range n {
		if i > 0 {
			s.buf = append(s.buf, ',')
		}
		key, value := entry(i)
		s.buf = s.scalars.appendString(s.buf, key)
		s.buf = append(s.buf, ": "...)
		s.path = append(s.path, key)
		if err := s.encode(value); err != nil {
			return err
		}
		s.path = s.path[:len(s.path)-1]
	}
	s.buf = append(s.buf, '}')
	return nil
}

func (s *encodeState) encodeCallable(callable any) error {
	sourceOf := s.encoder.SourceOf
	if sourceOf == nil {
		sourceOf = DefaultSource
	}
	source, err := sourceOf(callable)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.pathString(), err)
	}

	handle := s.encoder.Registry.Register(callable)
	literal := "function:" +
		strconv.Itoa(int(handle)) +
		":" +
		base64.StdEncoding.EncodeToString([]byte(source))
	s.buf = s.scalars.appendString(s.buf, literal)

	return nil
}

func (s *encodeState) unsupported(what string) error {
	return fmt.Errorf("encode %s: %w: %s", s.pathString(), ErrUnsupportedValue, what)
}

func (s *encodeState) pathString() string {
	var b strings.Builder
	b.WriteString("$")
	for _, elem := range s.path {
		switch elem := elem.(type) {
		case int:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(elem))
			b.WriteString("]")
		case string:
			if isIdentifier(elem) {
				b.WriteString(".")
				b.WriteString(elem)
			} else {
				b.WriteString("[")
				b.WriteString(strconv.Quote(elem))
				b.WriteString("]")
			}
		}
	}
	return b.String()
}

func isIdentifier(str string) bool {
	if str == "" {
		return false
	}
	for i, r := range str {
		if r == '_' ||
			r >= 'a' && r <= 'z' ||
			r >= 'A' && r <= 'Z' ||
			i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
