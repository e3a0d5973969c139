package pipeline

import (
	"strings"
	"testing"
)

func TestCompile_CleanProgramProducesIRAndManifest(t *testing.T) {
	src := `module demo;
let counter = 0;
pure fn add(a: i32, b: i32) -> i32 { return a + b; }
fn main() -> i32 { return add(1, counter); }
`
	res := Compile(src, "demo.o3", DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "define i32 @add") {
		t.Errorf("IR missing add definition:\n%s", res.IR)
	}
	if !strings.Contains(res.IR, "define i32 @main.entry()") {
		t.Errorf("IR missing synthesized entry point:\n%s", res.IR)
	}
	if !strings.Contains(res.Manifest, `"module": "demo"`) {
		t.Errorf("manifest missing module field:\n%s", res.Manifest)
	}
}

func TestCompile_ParseErrorSkipsLaterStages(t *testing.T) {
	res := Compile(`module demo; fn ( -> i32 { }`, "bad.o3", DefaultOptions())
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected parse diagnostics")
	}
	if res.IR != "" || res.Manifest != "" {
		t.Error("expected IR and manifest to be skipped after a parse error")
	}
}

func TestCompile_SemanticErrorSkipsIR(t *testing.T) {
	src := `module demo;
fn main() -> i32 { return undefinedName; }
`
	res := Compile(src, "bad.o3", DefaultOptions())
	if len(res.Diagnostics) == 0 {
		t.Fatal("expected semantic diagnostics")
	}
	var sawO3S202 bool
	for _, d := range res.Diagnostics {
		if d.Code == "O3S202" {
			sawO3S202 = true
		}
	}
	if !sawO3S202 {
		t.Errorf("expected O3S202 among diagnostics: %v", res.Diagnostics)
	}
	if res.IR != "" {
		t.Error("expected IR to be empty after a semantic error")
	}
}

func TestCompile_InvalidRuntimeDispatchSymbolFailsFast(t *testing.T) {
	opts := DefaultOptions()
	opts.RuntimeDispatchSymbol = "not a valid symbol"
	res := Compile(`module demo; fn main() -> i32 { return 0; }`, "demo.o3", opts)
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != "O3L300" {
		t.Fatalf("diags = %v, want single O3L300", res.Diagnostics)
	}
}
