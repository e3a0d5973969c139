package lexer

import "testing"

func TestTokenizeBasic(t *testing.T) {
	input := `module m; let g = 1 + 2; fn main() -> i32 { return g; }`

	tests := []struct {
		expectedText string
		expectedType TokenType
	}{
		{"module", MODULE}, {"m", IDENT}, {";", SEMICOLON},
		{"let", LET}, {"g", IDENT}, {"=", ASSIGN}, {"1", INT}, {"+", PLUS}, {"2", INT}, {";", SEMICOLON},
		{"fn", FN}, {"main", IDENT}, {"(", LPAREN}, {")", RPAREN}, {"->", ARROW}, {"i32", I32},
		{"{", LBRACE}, {"return", RETURN}, {"g", IDENT}, {";", SEMICOLON}, {"}", RBRACE},
		{"", EOF},
	}

	tokens, diags := Tokenize(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("token count = %d, want %d (%v)", len(tokens), len(tests), tokens)
	}
	for i, tt := range tests {
		if tokens[i].Type != tt.expectedType {
			t.Fatalf("tokens[%d].Type = %v, want %v (text=%q)", i, tokens[i].Type, tt.expectedType, tokens[i].Text)
		}
		if tokens[i].Text != tt.expectedText {
			t.Fatalf("tokens[%d].Text = %q, want %q", i, tokens[i].Text, tt.expectedText)
		}
	}
}

func TestTokenizeCompoundOperators(t *testing.T) {
	input := `x += 1; y <<= 2; z >>= 3; a ++ ; b--; c && d || !e`
	want := []TokenType{
		IDENT, PLUS_ASSIGN, INT, SEMICOLON,
		IDENT, SHL_ASSIGN, INT, SEMICOLON,
		IDENT, SHR_ASSIGN, INT, SEMICOLON,
		IDENT, INCR, SEMICOLON,
		IDENT, DECR, SEMICOLON,
		IDENT, AND_AND, IDENT, OR_OR, BANG, IDENT,
		EOF,
	}
	tokens, diags := Tokenize(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(tokens) != len(want) {
		t.Fatalf("token count = %d, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Fatalf("tokens[%d].Type = %v, want %v", i, tokens[i].Type, w)
		}
	}
}

func TestNumberLiteralBases(t *testing.T) {
	input := `0b1_0 0o17 0xFF 0X1a 42 1_000`
	tokens, diags := Tokenize(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []string{"0b1_0", "0o17", "0xFF", "0X1a", "42", "1_000"}
	for i, w := range want {
		if tokens[i].Type != INT || tokens[i].Text != w {
			t.Fatalf("tokens[%d] = %+v, want INT %q", i, tokens[i], w)
		}
	}
}

func TestLineComments(t *testing.T) {
	input := "let a = 1; // trailing comment\nlet b = 2;"
	tokens, diags := Tokenize(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if tokens[len(tokens)-2].Pos.Line != 2 {
		t.Fatalf("expected second let on line 2, got %+v", tokens[len(tokens)-2])
	}
}

func TestBlockComments(t *testing.T) {
	input := "let a /* comment\nspanning lines */ = 1;"
	tokens, diags := Tokenize(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	var sawAssign bool
	for _, tok := range tokens {
		if tok.Type == ASSIGN {
			sawAssign = true
		}
	}
	if !sawAssign {
		t.Fatalf("expected assign token to survive block comment skip")
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	_, diags := Tokenize("let a = 1; /* oops")
	if len(diags) != 1 || diags[0].Code != "O3L002" {
		t.Fatalf("diags = %v, want single O3L002", diags)
	}
}

func TestNestedBlockComment(t *testing.T) {
	_, diags := Tokenize("/* outer /* inner */ */")
	if len(diags) != 1 || diags[0].Code != "O3L003" {
		t.Fatalf("diags = %v, want single O3L003", diags)
	}
}

func TestStrayBlockCommentClose(t *testing.T) {
	_, diags := Tokenize("let a = 1 */ ;")
	if len(diags) != 1 || diags[0].Code != "O3L004" {
		t.Fatalf("diags = %v, want single O3L004", diags)
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	_, diags := Tokenize("let a = 1 # 2;")
	if len(diags) != 1 || diags[0].Code != "O3L001" {
		t.Fatalf("diags = %v, want single O3L001", diags)
	}
}

func TestKeywordAliases(t *testing.T) {
	tokens, _ := Tokenize("YES NO NULL")
	want := []TokenType{TRUEKW, FALSEKW, NILKW, EOF}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Fatalf("tokens[%d].Type = %v, want %v", i, tokens[i].Type, w)
		}
	}
}

func TestPositionTracking(t *testing.T) {
	input := "let a\n= 1;"
	tokens, _ := Tokenize(input)
	// "=" sits at the start of line 2.
	var eq Token
	for _, tok := range tokens {
		if tok.Type == ASSIGN {
			eq = tok
		}
	}
	if eq.Pos.Line != 2 || eq.Pos.Column != 1 {
		t.Fatalf("assign pos = %+v, want line 2 col 1", eq.Pos)
	}
}
