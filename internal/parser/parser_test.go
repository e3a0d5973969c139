package parser

import (
	"testing"

	"github.com/o3lang/o3c/internal/ast"
)

func TestParseModuleAndGlobal(t *testing.T) {
	prog, diags := Parse(`module demo; let answer = 42;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !prog.ModuleDeclared || prog.ModuleName != "demo" {
		t.Fatalf("module = %q declared=%v", prog.ModuleName, prog.ModuleDeclared)
	}
	if len(prog.Globals) != 1 || prog.Globals[0].Name != "answer" {
		t.Fatalf("globals = %+v", prog.Globals)
	}
	num, ok := prog.Globals[0].Init.(*ast.NumberExpr)
	if !ok || num.Value != 42 {
		t.Fatalf("global init = %+v", prog.Globals[0].Init)
	}
}

func TestDuplicateModuleDiagnostic(t *testing.T) {
	_, diags := Parse(`module a; module b;`)
	if len(diags) != 1 || diags[0].Code != "O3S200" {
		t.Fatalf("diags = %v, want single O3S200", diags)
	}
}

func TestParseFunctionDecl(t *testing.T) {
	src := `fn add(a: i32, b: i32) -> i32 { return a + b; }`
	prog, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(prog.Functions) != 1 {
		t.Fatalf("functions = %+v", prog.Functions)
	}
	fn := prog.Functions[0]
	if fn.Name != "add" || len(fn.Params) != 2 || fn.IsPrototype {
		t.Fatalf("fn = %+v", fn)
	}
	if fn.Body == nil || len(fn.Body.Body) != 1 {
		t.Fatalf("fn body = %+v", fn.Body)
	}
	ret, ok := fn.Body.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("stmt = %+v", fn.Body.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Fatalf("return value = %+v", ret.Value)
	}
}

func TestParseExternPrototype(t *testing.T) {
	prog, diags := Parse(`extern fn puts(s: i32) -> i32;`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	fn := prog.Functions[0]
	if !fn.IsPrototype || fn.Body != nil {
		t.Fatalf("fn = %+v", fn)
	}
}

func TestParsePureModifier(t *testing.T) {
	prog, diags := Parse(`pure fn square(x: i32) -> i32 { return x * x; }`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !prog.Functions[0].Pure {
		t.Fatalf("expected pure fn")
	}
}

func TestParseMessageSend(t *testing.T) {
	src := `fn f() -> i32 { return [recv doThing:1 with:2]; }`
	prog, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	ret := prog.Functions[0].Body.Body[0].(*ast.ReturnStmt)
	msg, ok := ret.Value.(*ast.MessageSendExpr)
	if !ok {
		t.Fatalf("value = %+v", ret.Value)
	}
	if msg.Selector != "doThing:with:" || len(msg.Args) != 2 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestParseUnarySelector(t *testing.T) {
	src := `fn f() -> i32 { return [recv count]; }`
	prog, _ := Parse(src)
	ret := prog.Functions[0].Body.Body[0].(*ast.ReturnStmt)
	msg := ret.Value.(*ast.MessageSendExpr)
	if msg.Selector != "count" || len(msg.Args) != 0 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestParseIfWhileForSwitch(t *testing.T) {
	src := `fn f() -> i32 {
		let x = 0;
		if (x == 0) { x = 1; } else { x = 2; }
		while (x < 10) { x += 1; }
		for (let i = 0; i < 3; i += 1) { x += i; }
		switch (x) {
			case 1:
				x = 9;
			default:
				x = 0;
		}
		return x;
	}`
	_, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestParseAutoreleasePoolTag(t *testing.T) {
	src := `fn f() -> i32 {
		@autoreleasepool {
			let x = 1;
		}
		return 0;
	}`
	prog, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	block := prog.Functions[0].Body.Body[0].(*ast.BlockStmt)
	if block.Autorelease == nil || block.Autorelease.Depth != 1 || block.Autorelease.Serial != 0 {
		t.Fatalf("autorelease tag = %+v", block.Autorelease)
	}
}

func TestParseInterfaceAndImplementation(t *testing.T) {
	src := `
@protocol Greeter
- (i32)greet:(i32)times;
@end

@interface Greeting : NSObject
@property (nonatomic, strong) id name;
- (i32)greet:(i32)times;
@end

@implementation Greeting
@property (nonatomic, strong) id name;
- (i32)greet:(i32)times {
	return times;
}
@end
`
	prog, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(prog.Protocols) != 1 || prog.Protocols[0].Name != "Greeter" {
		t.Fatalf("protocols = %+v", prog.Protocols)
	}
	if len(prog.Interfaces) != 1 || prog.Interfaces[0].Super != "NSObject" {
		t.Fatalf("interfaces = %+v", prog.Interfaces)
	}
	if len(prog.Implementations) != 1 || len(prog.Implementations[0].Methods) != 1 {
		t.Fatalf("implementations = %+v", prog.Implementations)
	}
	method := prog.Implementations[0].Methods[0]
	if method.Name != "greet:" || method.Body == nil {
		t.Fatalf("method = %+v", method)
	}
}

func TestParseVectorAndObjectPointerTypes(t *testing.T) {
	src := `extern fn takesVec(v: i32x4, o: NSObject*) -> void;`
	_, diags := Parse(src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
}

func TestSyntaxErrorRecoveryContinuesParsing(t *testing.T) {
	src := `let a = ; let b = 2;`
	prog, diags := Parse(src)
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
	if len(prog.Globals) != 2 || prog.Globals[1].Name != "b" {
		t.Fatalf("globals = %+v", prog.Globals)
	}
}
