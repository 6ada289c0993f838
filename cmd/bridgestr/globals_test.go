package main

import (
	"strings"
	"testing"

	"github.com/elliotchance/orderedmap/v2"
	"go.starlark.net/starlark"
)

func TestSelectGlobals(t *testing.T) {
	globals := starlark.StringDict{
		"b": starlark.MakeInt(2),
		"a": starlark.MakeInt(1),
		"c": starlark.String("c"),
	}

	value, err := selectGlobals(globals, nil)
	if err != nil {
		t.Fatal(err)
	}
	if keys := keysOf(value); keys != "a b c" {
		t.Fatalf("got %v", keys)
	}

	value, err = selectGlobals(globals, []string{"c"})
	if err != nil {
		t.Fatal(err)
	}
	if value != starlark.String("c") {
		t.Fatalf("got %v", value)
	}

	value, err = selectGlobals(globals, []string{"c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if keys := keysOf(value); keys != "c a" {
		t.Fatalf("got %v", keys)
	}

	if _, err := selectGlobals(globals, []string{"x"}); err == nil {
		t.Fatal("should fail")
	}
	if _, err := selectGlobals(globals, []string{"a", "x"}); err == nil {
		t.Fatal("should fail")
	}
}

func keysOf(value any) string {
	var keys []string
	for elem := value.(*orderedmap.OrderedMap[string, any]).Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Key)
	}
	return strings.Join(keys, " ")
}
