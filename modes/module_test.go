package modes

import (
	"testing"

	"github.com/reusee/dscope"
)

func TestForProduction(t *testing.T) {
	dscope.New(ForProduction()).Call(func(
		testT *testing.T,
		mode Mode,
	) {
		if testT != nil {
			t.Fatal()
		}
		if mode != ModeProduction {
			t.Fatalf("got %v", mode)
		}
	})
}

func TestForTest(t *testing.T) {
	dscope.New(ForTest(t)).Call(func(
		testT *testing.T,
		mode Mode,
	) {
		if testT != t {
			t.Fatal()
		}
		if mode != ModeDevelopment {
			t.Fatalf("got %v", mode)
		}
	})
}
