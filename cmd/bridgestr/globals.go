package main

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"go.starlark.net/starlark"
)

// selectGlobals picks the value to encode. With no names every global is
// selected in sorted order, with one name its value alone.
func selectGlobals(globals starlark.StringDict, names []string) (any, error) {
	if len(names) == 0 {
		names = globals.Keys()
	} else if len(names) == 1 {
		value, ok := globals[names[0]]
		if !ok {
			return nil, fmt.Errorf("no such global: %s", names[0])
		}
		return value, nil
	}

	ret := orderedmap.NewOrderedMap[string, any]()
	for _, name := range names {
		value, ok := globals[name]
		if !ok {
			return nil, fmt.Errorf("no such global: %s", name)
		}
		ret.Set(name, value)
	}
	return ret, nil
}

func hostGlobals(globals starlark.StringDict) map[string]any {
	ret := make(map[string]any, len(globals))
	for name, value := range globals {
		ret[name] = value
	}
	return ret
}
