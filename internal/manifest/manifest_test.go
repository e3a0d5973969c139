package manifest

import (
	"strings"
	"testing"

	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/parser"
	"github.com/o3lang/o3c/internal/semantic"
)

func buildManifest(t *testing.T, src string) Manifest {
	t.Helper()
	program, diags := parser.Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	surface, semDiags := semantic.Analyze(program, semantic.DefaultOptions())
	if len(semDiags) != 0 {
		t.Fatalf("unexpected semantic diagnostics: %v", semDiags)
	}
	contract, err := lower.TryNormalizeLoweringContract("", 0)
	if err != nil {
		t.Fatalf("unexpected contract error: %v", err)
	}
	return Build(program, surface, contract)
}

func TestBuild_FunctionSummary(t *testing.T) {
	src := `module demo;
pure fn add(a: i32, b: i32) -> i32 { return a + b; }
fn main() -> i32 { return add(1, 2); }
`
	m := buildManifest(t, src)
	if m.Module != "demo" {
		t.Errorf("Module = %q, want demo", m.Module)
	}
	if len(m.Functions) != 2 {
		t.Fatalf("len(Functions) = %d, want 2", len(m.Functions))
	}
	var add *FunctionSummary
	for i := range m.Functions {
		if m.Functions[i].Name == "add" {
			add = &m.Functions[i]
		}
	}
	if add == nil {
		t.Fatal("add function missing from manifest")
	}
	if !add.Pure {
		t.Error("add should be reported pure")
	}
	if add.ReturnType != "i32" {
		t.Errorf("ReturnType = %q, want i32", add.ReturnType)
	}
	if len(add.ParamTypes) != 2 || add.ParamTypes[0] != "i32" {
		t.Errorf("ParamTypes = %v", add.ParamTypes)
	}
}

func TestMarshal_ProducesJSON(t *testing.T) {
	m := buildManifest(t, "module demo;\nfn main() -> i32 { return 0; }\n")
	text, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(text, `"module": "demo"`) {
		t.Errorf("Marshal() = %s, missing module field", text)
	}
}
