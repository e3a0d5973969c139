package lower

import "testing"

func TestIsValidRuntimeDispatchSymbol(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		expected bool
	}{
		{"default symbol", DefaultSymbol, true},
		{"leading underscore", "_msgSend", true},
		{"dotted and dollar", "objc3.msgSend$v2", true},
		{"empty", "", false},
		{"leading digit", "3msgSend", false},
		{"embedded space", "msg send", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidRuntimeDispatchSymbol(tt.symbol); got != tt.expected {
				t.Errorf("IsValidRuntimeDispatchSymbol(%q) = %v, want %v", tt.symbol, got, tt.expected)
			}
		})
	}
}

func TestTryNormalizeLoweringContract(t *testing.T) {
	t.Run("defaults on zero values", func(t *testing.T) {
		c, err := TryNormalizeLoweringContract("", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.RuntimeDispatchSymbol != DefaultSymbol {
			t.Errorf("symbol = %q, want %q", c.RuntimeDispatchSymbol, DefaultSymbol)
		}
		if c.ArgSlots != DefaultArgSlots {
			t.Errorf("argSlots = %d, want %d", c.ArgSlots, DefaultArgSlots)
		}
	})

	t.Run("rejects invalid symbol", func(t *testing.T) {
		if _, err := TryNormalizeLoweringContract("not a symbol", 4); err == nil {
			t.Fatal("expected error for invalid symbol, got nil")
		}
	})

	t.Run("rejects arg slots beyond max", func(t *testing.T) {
		if _, err := TryNormalizeLoweringContract(DefaultSymbol, MaxArgSlots+1); err == nil {
			t.Fatal("expected error for arg slots beyond max, got nil")
		}
	})

	t.Run("accepts custom valid contract", func(t *testing.T) {
		c, err := TryNormalizeLoweringContract("my_dispatch", 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.RuntimeDispatchSymbol != "my_dispatch" || c.ArgSlots != 8 {
			t.Errorf("got %+v", c)
		}
	})
}

func TestContractReplayKey(t *testing.T) {
	c := Contract{RuntimeDispatchSymbol: "objc3_msgsend_i32", ArgSlots: 4}
	want := "runtime_dispatch_symbol=objc3_msgsend_i32;runtime_dispatch_arg_slots=4;selector_global_ordering=lexicographic"
	if got := c.ReplayKey(); got != want {
		t.Errorf("ReplayKey() = %q, want %q", got, want)
	}
}

func TestBuildIRBoundary(t *testing.T) {
	c := Contract{RuntimeDispatchSymbol: "objc3_msgsend_i32", ArgSlots: 2}
	lines := BuildIRBoundary(c)
	if len(lines) != 2 {
		t.Fatalf("expected 2 header lines, got %d: %v", len(lines), lines)
	}
	wantDecl := "; runtime-dispatch-declaration: declare i32 @objc3_msgsend_i32(i32, i32*, i32, i32)"
	if lines[1] != wantDecl {
		t.Errorf("lines[1] = %q, want %q", lines[1], wantDecl)
	}
}

func TestTryGetCompoundAssignmentBinaryOpcode(t *testing.T) {
	tests := []struct {
		op       string
		expected BinaryOpcode
		ok       bool
	}{
		{"+=", OpAdd, true},
		{"-=", OpSub, true},
		{"*=", OpMul, true},
		{"/=", OpSDiv, true},
		{"%=", OpSRem, true},
		{"&=", OpAnd, true},
		{"|=", OpOr, true},
		{"^=", OpXor, true},
		{"<<=", OpShl, true},
		{">>=", OpAShr, true},
		{"=", "", false},
		{"+", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := TryGetCompoundAssignmentBinaryOpcode(tt.op)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("TryGetCompoundAssignmentBinaryOpcode(%q) = (%v, %v), want (%v, %v)", tt.op, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestBinaryOpcodeFor(t *testing.T) {
	tests := []struct {
		op       string
		expected BinaryOpcode
		ok       bool
	}{
		{"+", OpAdd, true},
		{"-", OpSub, true},
		{"*", OpMul, true},
		{"/", OpSDiv, true},
		{"%", OpSRem, true},
		{"&", OpAnd, true},
		{"|", OpOr, true},
		{"^", OpXor, true},
		{"<<", OpShl, true},
		{">>", OpAShr, true},
		{"==", "", false},
		{"&&", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, ok := BinaryOpcodeFor(tt.op)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("BinaryOpcodeFor(%q) = (%v, %v), want (%v, %v)", tt.op, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
