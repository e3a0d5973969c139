// Package parser implements a recursive-descent, Pratt-style parser over
// the o3 token stream. It recognizes a small imperative core language
// plus Objective-C container declarations, and recovers from syntax
// errors using panic-mode synchronization so a single typo does not
// suppress every later diagnostic.
package parser

import (
	"strconv"
	"strings"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/diag"
	"github.com/o3lang/o3c/internal/lexer"
)

// Precedence levels, low to high.
const (
	_ int = iota
	LOWEST
	CONDITIONAL // ?:
	LOGIC_OR    // ||
	LOGIC_AND   // &&
	BIT_OR      // |
	BIT_XOR     // ^
	BIT_AND     // &
	EQUALITY    // == !=
	RELATIONAL  // < <= > >=
	SHIFT       // << >>
	ADDITIVE    // + -
	MULTIPLICATIVE
	UNARY
	POSTFIX
)

var precedences = map[lexer.TokenType]int{
	lexer.OR_OR:   LOGIC_OR,
	lexer.AND_AND: LOGIC_AND,
	lexer.PIPE:    BIT_OR,
	lexer.CARET:   BIT_XOR,
	lexer.AMP:     BIT_AND,
	lexer.EQ:      EQUALITY,
	lexer.NEQ:     EQUALITY,
	lexer.LT:      RELATIONAL,
	lexer.LE:      RELATIONAL,
	lexer.GT:      RELATIONAL,
	lexer.GE:      RELATIONAL,
	lexer.SHL:     SHIFT,
	lexer.SHR:     SHIFT,
	lexer.PLUS:    ADDITIVE,
	lexer.MINUS:   ADDITIVE,
	lexer.STAR:    MULTIPLICATIVE,
	lexer.SLASH:   MULTIPLICATIVE,
	lexer.PERCENT: MULTIPLICATIVE,
	lexer.LPAREN:  POSTFIX,
}

// Parser turns a token stream into a Program plus a list of parser
// diagnostics. It recovers from malformed declarations/statements using
// panic-mode synchronization and keeps going, so callers see every
// recoverable syntax error in one pass.
type Parser struct {
	tokens []lexer.Token
	pos    int

	diagnostics     []diag.Diagnostic
	releaseCounters autoreleaseCounters
}

// New constructs a Parser over a pre-lexed token stream.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse tokenizes source and parses it into a Program plus the combined
// lexer+parser diagnostics list (unsorted; the diagnostics bus sorts).
func Parse(source string) (*ast.Program, []diag.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source)
	p := New(tokens)
	program := p.ParseProgram()
	all := append(append([]diag.Diagnostic{}, lexDiags...), p.diagnostics...)
	return program, all
}

func (p *Parser) cur() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) peek() lexer.Token { return p.peekAt(1) }

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur().Type == t }

func (p *Parser) match(t lexer.TokenType) bool {
	if p.at(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorAt(pos lexer.Position, code, msg string) {
	p.diagnostics = append(p.diagnostics, diag.New(diag.Error, pos, code, msg))
}

func (p *Parser) errorHere(code, msg string) {
	p.errorAt(p.cur().Pos, code, msg)
}

// expect consumes t or records a diagnostic with the given code/message
// and leaves the cursor unmoved for the caller's recovery to handle.
func (p *Parser) expect(t lexer.TokenType, code, msg string) (lexer.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	p.errorHere(code, msg)
	return lexer.Token{}, false
}

// ParseProgram parses the entire token stream into a Program, recovering
// from malformed top-level declarations via panic-mode synchronization.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for !p.at(lexer.EOF) {
		switch p.cur().Type {
		case lexer.MODULE:
			p.parseModuleDecl(prog)
		case lexer.LET:
			p.parseGlobalDecl(prog)
		case lexer.PURE, lexer.EXTERN, lexer.FN:
			p.parseFunctionDecl(prog)
		case lexer.AT_INTERFACE:
			p.parseInterfaceDecl(prog)
		case lexer.AT_IMPLEMENTATION:
			p.parseImplementationDecl(prog)
		case lexer.AT_PROTOCOL:
			p.parseProtocolDecl(prog)
		case lexer.SEMICOLON:
			p.advance() // stray top-level semicolon, ignore
		default:
			p.errorHere("O3P100", "unsupported token at top level: "+p.cur().Text)
			p.synchronizeTopLevel()
		}
	}

	return prog
}

// synchronizeTopLevel scans to ';' or a keyword that can start a new
// top-level declaration, per spec §4.2.
func (p *Parser) synchronizeTopLevel() {
	for !p.at(lexer.EOF) {
		if p.at(lexer.SEMICOLON) {
			p.advance()
			return
		}
		switch p.cur().Type {
		case lexer.MODULE, lexer.LET, lexer.PURE, lexer.EXTERN, lexer.FN,
			lexer.AT_INTERFACE, lexer.AT_IMPLEMENTATION, lexer.AT_PROTOCOL:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseModuleDecl(prog *ast.Program) {
	kw := p.advance() // 'module'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected module name identifier")
	if !ok {
		p.synchronizeTopLevel()
		return
	}
	if _, ok := p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after module declaration"); !ok {
		p.synchronizeTopLevel()
		return
	}
	if prog.ModuleDeclared {
		p.errorAt(kw.Pos, "O3S200", "duplicate module declaration")
	}
	prog.ModuleDeclared = true
	prog.ModuleName = nameTok.Text
	prog.ModuleNamePos = kw.Pos
}

func (p *Parser) parseGlobalDecl(prog *ast.Program) {
	kw := p.advance() // 'let'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected identifier after 'let'")
	if !ok {
		p.synchronizeTopLevel()
		return
	}
	if _, ok := p.expect(lexer.ASSIGN, "O3P102", "expected '=' in global declaration"); !ok {
		p.synchronizeTopLevel()
		return
	}
	value := p.parseExpr(LOWEST)
	if _, ok := p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after global declaration"); !ok {
		p.synchronizeTopLevel()
		return
	}
	prog.Globals = append(prog.Globals, &ast.GlobalDecl{BaseNode: ast.At(kw.Pos), Name: nameTok.Text, Init: value})
}

func toInt32Literal(tok lexer.Token, p *Parser) (int32, bool) {
	text := tok.Text
	base := 10
	digits := text
	switch {
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		base = 2
		digits = text[2:]
	case strings.HasPrefix(text, "0o") || strings.HasPrefix(text, "0O"):
		base = 8
		digits = text[2:]
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		base = 16
		digits = text[2:]
	}

	if !validDigitSeparators(digits) {
		p.errorAt(tok.Pos, "O3P103", "invalid numeric literal: "+text)
		return 0, false
	}
	cleaned := strings.ReplaceAll(digits, "_", "")
	if cleaned == "" {
		p.errorAt(tok.Pos, "O3P103", "invalid numeric literal: "+text)
		return 0, false
	}

	val, err := strconv.ParseUint(cleaned, base, 64)
	if err != nil {
		p.errorAt(tok.Pos, "O3P103", "invalid numeric literal: "+text)
		return 0, false
	}
	// Non-decimal bases may spell any 32-bit bit pattern (including ones
	// whose top bit sets the sign); decimal literals must fit a positive
	// signed 32-bit value, matching ordinary integer-literal conventions.
	limit := uint64(0x7FFFFFFF)
	if base != 10 {
		limit = 0xFFFFFFFF
	}
	if val > limit {
		p.errorAt(tok.Pos, "O3P103", "numeric literal out of range for signed 32-bit: "+text)
		return 0, false
	}
	return int32(uint32(val)), true
}

// validDigitSeparators rejects leading, trailing, or adjacent '_' digit
// separators; a separator must sit strictly between two digit-for-base
// characters.
func validDigitSeparators(digits string) bool {
	if digits == "" {
		return false
	}
	if digits[0] == '_' || digits[len(digits)-1] == '_' {
		return false
	}
	for i := 0; i < len(digits)-1; i++ {
		if digits[i] == '_' && digits[i+1] == '_' {
			return false
		}
	}
	return true
}
