package cmd

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/o3lang/o3c/internal/pipeline"
)

// TestBuild_Fixtures compiles a handful of literal o3 programs end to
// end and snapshot-compares the emitted IR.
func TestBuild_Fixtures(t *testing.T) {
	fixtures := []struct {
		name string
		src  string
	}{
		{
			name: "arithmetic_and_globals",
			src: `module demo;
let base = 10;
pure fn square(x: i32) -> i32 { return x * x; }
fn main() -> i32 { return square(base) + 1; }
`,
		},
		{
			name: "control_flow",
			src: `module demo;
fn classify(n: i32) -> i32 {
  if (n < 0) {
    return -1;
  } else {
    return 1;
  }
}
fn main() -> i32 { return classify(5); }
`,
		},
		{
			name: "message_send_nil_short_circuit",
			src: `module demo;
fn main() -> i32 {
  return [nil doThing:1 with:2];
}
`,
		},
	}

	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			res := pipeline.Compile(fx.src, fx.name+".o3", pipeline.DefaultOptions())
			if len(res.Diagnostics) != 0 {
				t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
			}
			snaps.MatchSnapshot(t, res.IR)
		})
	}
}
