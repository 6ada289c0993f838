package scripts

import (
	"fmt"

	"github.com/reusee/bridgestr/bridges"
	"go.starlark.net/starlark"
)

// Predeclared builds the names visible to a script: the bridge builtins plus
// the given host globals.
type Predeclared func(globals map[string]any) starlark.StringDict

func (Module) Predeclared(
	encode Encode,
	registry *bridges.Registry,
) Predeclared {

	bridgeString := starlark.NewBuiltin("bridge_string", func(
		thread *starlark.Thread,
		b *starlark.Builtin,
		args starlark.Tuple,
		kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var value starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
			return nil, err
		}
		str, err := encode(value)
		if err != nil {
			return nil, err
		}
		return starlark.String(str), nil
	})

	// resizes the callable registry; returns the previous limit
	bridgeSetLimit := starlark.NewBuiltin("bridge_set_limit", func(
		thread *starlark.Thread,
		b *starlark.Builtin,
		args starlark.Tuple,
		kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var limit int
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &limit); err != nil {
			return nil, err
		}
		if limit < 0 || limit > bridges.MaxLimit {
			return nil, fmt.Errorf("%s: limit out of range [0, %d]: %d", b.Name(), bridges.MaxLimit, limit)
		}
		previous := registry.Limit()
		registry.SetLimit(limit)
		return starlark.MakeInt(previous), nil
	})

	return func(globals map[string]any) starlark.StringDict {
		ret := starlark.StringDict{
			"bridge_string":    bridgeString,
			"bridge_set_limit": bridgeSetLimit,
		}
		for name, value := range globals {
			ret[name] = ToStarlarkValue(value)
		}
		return ret
	}
}
