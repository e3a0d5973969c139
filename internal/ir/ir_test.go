package ir

import (
	"strings"
	"testing"

	"github.com/o3lang/o3c/internal/lower"
	"github.com/o3lang/o3c/internal/parser"
	"github.com/o3lang/o3c/internal/semantic"
)

func emitIR(t *testing.T, src string) Result {
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
	return Emit(program, surface, contract)
}

func TestEmit_SimpleFunctionAndEntryPoint(t *testing.T) {
	res := emitIR(t, `module demo;
pure fn square(x: i32) -> i32 { return x * x; }
fn main() -> i32 { return square(3); }
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "define i32 @square(i32 %arg.x)") {
		t.Errorf("missing square definition in IR:\n%s", res.IR)
	}
	if !strings.Contains(res.IR, "mul i32") {
		t.Errorf("expected a mul instruction in IR:\n%s", res.IR)
	}
	if !strings.Contains(res.IR, "lowering-contract: runtime_dispatch_symbol=objc3_msgsend_i32") {
		t.Errorf("missing lowering-contract header:\n%s", res.IR)
	}
}

func TestEmit_GlobalAndCompoundAssign(t *testing.T) {
	res := emitIR(t, `module demo;
let counter = 0;
fn bump() -> i32 {
  counter += 1;
  return counter;
}
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "@counter") {
		t.Errorf("expected global @counter in IR:\n%s", res.IR)
	}
	if !strings.Contains(res.IR, "add i32") {
		t.Errorf("expected add instruction from += lowering:\n%s", res.IR)
	}
	effect, ok := res.Effects["bump"]
	if !ok {
		t.Fatal("missing effect record for bump")
	}
	if !effect.WritesGlobal {
		t.Error("bump should be recorded as writing a global")
	}
}

func TestEmit_IfElseBothBranchesTerminate(t *testing.T) {
	res := emitIR(t, `module demo;
fn classify(n: i32) -> i32 {
  if (n < 0) {
    return -1;
  } else {
    return 1;
  }
}
fn main() -> i32 { return classify(5); }
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if strings.Count(res.IR, "ret i32") < 2 {
		t.Errorf("expected at least two ret instructions from both branches:\n%s", res.IR)
	}
}

func TestEmit_NilLiteralMessageSendFoldsWithoutCall(t *testing.T) {
	res := emitIR(t, `module demo;
fn main() -> i32 {
  return [nil doThing:1 with:2];
}
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if strings.Contains(res.IR, "call i32 @objc3_msgsend_i32") {
		t.Errorf("literal-nil receiver should fold without calling the dispatch shim:\n%s", res.IR)
	}
}

func TestEmit_MessageSendOnProvenNonNilConstantDispatchesUnconditionally(t *testing.T) {
	res := emitIR(t, `module demo;
fn main() -> i32 {
  let recv = 7;
  return [recv doThing:1 with:2];
}
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "call i32 @objc3_msgsend_i32(i32 7,") {
		t.Errorf("expected an unconditional dispatch call against the literal 7:\n%s", res.IR)
	}
	if strings.Contains(res.IR, "icmp ne i32 7, 0") {
		t.Errorf("a compile-time-nonzero receiver should skip the nil check entirely:\n%s", res.IR)
	}
}

func TestEmit_MessageSendOnUnprovenReceiverDispatchesConditionally(t *testing.T) {
	res := emitIR(t, `module demo;
fn main(recv: i32) -> i32 {
  return [recv doThing:1 with:2];
}
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "call i32 @objc3_msgsend_i32") {
		t.Errorf("expected a dispatch call for a non-nil-proven receiver:\n%s", res.IR)
	}
	if !strings.Contains(res.IR, "phi i32") {
		t.Errorf("a parameter receiver isn't proven non-nil, so it should still branch and phi-merge:\n%s", res.IR)
	}
}

func TestEmit_ShortCircuitAnd(t *testing.T) {
	res := emitIR(t, `module demo;
fn both(a: bool, b: bool) -> bool {
  return a && b;
}
`)
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected emit diagnostics: %v", res.Diagnostics)
	}
	if !strings.Contains(res.IR, "phi i1") {
		t.Errorf("expected an i1 phi merge for short-circuit &&:\n%s", res.IR)
	}
}
