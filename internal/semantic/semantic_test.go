package semantic

import (
	"testing"

	"github.com/o3lang/o3c/internal/parser"
)

func analyze(t *testing.T, src string) (*SymbolSurface, []string) {
	t.Helper()
	program, parseDiags := parser.Parse(src)
	if len(parseDiags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", parseDiags)
	}
	surface, diags := Analyze(program, DefaultOptions())
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return surface, codes
}

func TestAnalyze_CleanProgramProducesNoDiagnostics(t *testing.T) {
	surface, codes := analyze(t, `module demo;
let base = 10;
pure fn square(x: i32) -> i32 { return x * x; }
fn main() -> i32 { return square(base); }
`)
	if len(codes) != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes)
	}
	if !surface.Built {
		t.Error("expected surface to be marked built")
	}
	fn, ok := surface.Functions["square"]
	if !ok {
		t.Fatal("square missing from surface")
	}
	if !fn.Pure {
		t.Error("square should be surfaced as pure")
	}
}

func TestAnalyze_DuplicateTopLevelName(t *testing.T) {
	_, codes := analyze(t, `module demo;
let x = 1;
let x = 2;
fn main() -> i32 { return 0; }
`)
	if !containsCode(codes, "O3S200") {
		t.Errorf("expected O3S200 duplicate-name diagnostic, got %v", codes)
	}
}

func TestAnalyze_UndefinedIdentifier(t *testing.T) {
	_, codes := analyze(t, `module demo;
fn main() -> i32 { return y; }
`)
	if !containsCode(codes, "O3S202") {
		t.Errorf("expected O3S202 undefined-identifier diagnostic, got %v", codes)
	}
}

func TestAnalyze_ArityMismatch(t *testing.T) {
	_, codes := analyze(t, `module demo;
fn add(a: i32, b: i32) -> i32 { return a + b; }
fn main() -> i32 { return add(1); }
`)
	if !containsCode(codes, "O3S204") {
		t.Errorf("expected O3S204 arity-mismatch diagnostic, got %v", codes)
	}
}

func TestAnalyze_MissingReturnPath(t *testing.T) {
	_, codes := analyze(t, `module demo;
fn maybe(n: i32) -> i32 {
  if (n < 0) {
    return -1;
  }
}
`)
	if !containsCode(codes, "O3S205") {
		t.Errorf("expected O3S205 missing-return-path diagnostic, got %v", codes)
	}
}

func TestAnalyze_TooManyMessageSendArguments(t *testing.T) {
	_, codes := analyze(t, `module demo;
fn main() -> i32 {
  return [nil doThing:1 with:2 and:3 plus:4 extra:5];
}
`)
	if !containsCode(codes, "O3S208") {
		t.Errorf("expected O3S208 too-many-arguments diagnostic, got %v", codes)
	}
}

func TestAnalyze_BreakOutsideLoop(t *testing.T) {
	_, codes := analyze(t, `module demo;
fn main() -> i32 {
  break;
}
`)
	if !containsCode(codes, "O3S212") {
		t.Errorf("expected O3S212 break-outside-loop diagnostic, got %v", codes)
	}
}

func TestAnalyze_ImpureCallInPureFunctionIsRejected(t *testing.T) {
	_, codes := analyze(t, `module demo;
let counter = 0;
fn bump() -> i32 {
  counter += 1;
  return counter;
}
pure fn useBump() -> i32 {
  return bump();
}
`)
	if !containsCode(codes, "O3S215") {
		t.Errorf("expected O3S215 pure-contract violation diagnostic, got %v", codes)
	}
}

func containsCode(codes []string, want string) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}
