package bridges

import (
	"fmt"
	"reflect"
	"runtime"

	"go.starlark.net/starlark"
)

// SourceFunc returns the printable definition of a callable.
type SourceFunc func(callable any) (string, error)

// Sourcer is a callable that prints its own definition.
type Sourcer interface {
	BridgeSource() (string, error)
}

func DefaultSource(callable any) (string, error) {
	switch callable := callable.(type) {

	case Sourcer:
		return callable.BridgeSource()

	case *starlark.Builtin:
		return callable.String(), nil

	}

	value := reflect.ValueOf(callable)
	if value.Kind() == reflect.Func && !value.IsNil() {
		fn := runtime.FuncForPC(value.Pointer())
		if fn == nil {
			return "", fmt.Errorf("%w: %T", ErrSourceUnavailable, callable)
		}
		return "func " + fn.Name(), nil
	}

	return "", fmt.Errorf("%w: %T", ErrSourceUnavailable, callable)
}
