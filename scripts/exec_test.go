package scripts

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/reusee/bridgestr/bridges"
	"github.com/reusee/bridgestr/logs"
	"github.com/reusee/bridgestr/modes"
	"github.com/reusee/dscope"
	"go.starlark.net/starlark"
)

func testScope(t *testing.T, buf *bytes.Buffer) dscope.Scope {
	return dscope.New(
		new(Module),
		modes.ForTest(t),
	).Fork(
		func() logs.Writer {
			return buf
		},
	)
}

// decodeFuncRef splits a quoted function:<handle>:<base64> literal.
func decodeFuncRef(t *testing.T, encoded string) (string, string) {
	t.Helper()
	literal, ok := strings.CutPrefix(encoded, `"function:`)
	if !ok {
		t.Fatalf("got %s", encoded)
	}
	literal, ok = strings.CutSuffix(literal, `"`)
	if !ok {
		t.Fatalf("got %s", encoded)
	}
	handle, b64, ok := strings.Cut(literal, ":")
	if !ok {
		t.Fatalf("got %s", encoded)
	}
	source, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatal(err)
	}
	return handle, string(source)
}

func TestExecFunctionSource(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
		encode Encode,
		registry *bridges.Registry,
	) {
		globals, err := exec(t.Context(), "main.star", []byte(`
def add(a, b):
    return a + b

double = lambda x: x * 2
`), nil)
		if err != nil {
			t.Fatal(err)
		}

		encoded, err := encode(globals["add"])
		if err != nil {
			t.Fatal(err)
		}
		handle, source := decodeFuncRef(t, encoded)
		if handle != "0" {
			t.Fatalf("got %s", handle)
		}
		if source != "def add(a, b):\n    return a + b" {
			t.Fatalf("got %q", source)
		}

		encoded, err = encode(globals["double"])
		if err != nil {
			t.Fatal(err)
		}
		handle, source = decodeFuncRef(t, encoded)
		if handle != "1" {
			t.Fatalf("got %s", handle)
		}
		if source != "lambda x: x * 2" {
			t.Fatalf("got %q", source)
		}

		fn, ok := registry.Lookup(0)
		if !ok || fn != globals["add"] {
			t.Fatalf("got %v", fn)
		}
	})
}

func TestExecBridgeString(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
	) {
		globals, err := exec(t.Context(), "bridge.star", []byte(`
def f(): pass
s = bridge_string({"x": 1, "y": [2, 3], "f": f})
n = bridge_string(limit)
`), map[string]any{
			"limit": 200,
		})
		if err != nil {
			t.Fatal(err)
		}

		want := `{"x": 1,"y": [2,3],"f": "function:0:` +
			base64.StdEncoding.EncodeToString([]byte("def f(): pass")) +
			`"}`
		if s := globals["s"].(starlark.String); string(s) != want {
			t.Fatalf("got %s", s)
		}
		if n := globals["n"].(starlark.String); n != "200" {
			t.Fatalf("got %s", n)
		}
	})
}

func TestExecCircular(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
	) {
		_, err := exec(t.Context(), "circular.star", []byte(`
a = {}
a["self"] = a
bridge_string(a)
`), nil)
		if err == nil {
			t.Fatal("should error")
		}
		if !strings.Contains(err.Error(), "circular reference at $.self") {
			t.Fatalf("got %v", err)
		}
		if !strings.Contains(err.Error(), "span: ") {
			t.Fatalf("got %v", err)
		}
	})
}

func TestExecPrint(t *testing.T) {
	buf := new(bytes.Buffer)
	testScope(t, buf).Call(func(
		exec Exec,
	) {
		if _, err := exec(t.Context(), "print.star", []byte(`print("hello")`), nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "msg=hello") ||
			!strings.Contains(buf.String(), "script=print.star") {
			t.Fatalf("got %s", buf.String())
		}
	})
}

func TestExecCancel(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
	) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := exec(ctx, "loop.star", []byte(`
while True:
    pass
`), nil)
		if err == nil || !strings.Contains(err.Error(), "cancel") {
			t.Fatalf("got %v", err)
		}
	})
}

func TestExecSyntaxError(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
	) {
		_, err := exec(t.Context(), "bad.star", []byte(`def (`), nil)
		if err == nil {
			t.Fatal("should error")
		}
	})
}

func TestSourceUnavailable(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
		encoder *bridges.Encoder,
		registry *bridges.Registry,
	) {
		globals, err := exec(t.Context(), "main.star", []byte(`
def f():
    return 1
`), nil)
		if err != nil {
			t.Fatal(err)
		}

		// the plain encoder does not know script sources
		_, err = encoder.Encode([]any{globals["f"]})
		if !errors.Is(err, bridges.ErrSourceUnavailable) {
			t.Fatalf("got %v", err)
		}
		if registry.Counter() != 0 {
			t.Fatalf("got %v", registry.Counter())
		}

		// nor does another index
		other := NewSources().Encoder(encoder)
		_, err = other.Encode(globals["f"])
		if !errors.Is(err, bridges.ErrSourceUnavailable) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestExecSetLimit(t *testing.T) {
	testScope(t, new(bytes.Buffer)).Call(func(
		exec Exec,
		registry *bridges.Registry,
	) {
		globals, err := exec(t.Context(), "limit.star", []byte(`
previous = bridge_set_limit(1)
def f(): pass
refs = [bridge_string(f) for _ in range(3)]
`), nil)
		if err != nil {
			t.Fatal(err)
		}
		if n := globals["previous"]; n.String() != "200" {
			t.Fatalf("got %v", n)
		}
		if registry.Limit() != 1 {
			t.Fatalf("got %v", registry.Limit())
		}
		refs := globals["refs"].(*starlark.List)
		var handles []string
		for i := range refs.Len() {
			handle, _ := decodeFuncRef(t, string(refs.Index(i).(starlark.String)))
			handles = append(handles, handle)
		}
		if got := strings.Join(handles, " "); got != "0 1 0" {
			t.Fatalf("got %s", got)
		}

		_, err = exec(t.Context(), "bad_limit.star", []byte(`bridge_set_limit(-1)`), nil)
		if err == nil || !strings.Contains(err.Error(), "out of range") {
			t.Fatalf("got %v", err)
		}
	})
}
