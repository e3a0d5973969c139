package parser

import (
	"strings"

	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lexer"
)

// parseExpr is the Pratt-parser entry point: it parses a prefix
// expression then repeatedly folds in infix operators whose precedence
// exceeds minPrec. The conditional `?:` is handled specially since it is
// right-associative and ternary, not a simple binary infix.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for {
		if p.at(lexer.QUESTION) && minPrec <= CONDITIONAL {
			left = p.parseConditional(left)
			continue
		}
		prec, ok := precedences[p.cur().Type]
		if !ok || prec <= minPrec {
			break
		}
		left = p.parseInfix(left, prec)
	}
	return left
}

func (p *Parser) parseConditional(cond ast.Expr) ast.Expr {
	q := p.advance() // '?'
	then := p.parseExpr(CONDITIONAL)
	if _, ok := p.expect(lexer.COLON, "O3P107", "expected ':' in conditional expression"); !ok {
		return &ast.ConditionalExpr{BaseNode: ast.At(q.Pos), Cond: cond, Then: then, Else: nil}
	}
	elseExpr := p.parseExpr(CONDITIONAL)
	return &ast.ConditionalExpr{BaseNode: ast.At(q.Pos), Cond: cond, Then: then, Else: elseExpr}
}

func (p *Parser) parseInfix(left ast.Expr, prec int) ast.Expr {
	opTok := p.advance()
	right := p.parseExpr(prec)
	return &ast.BinaryExpr{BaseNode: ast.At(opTok.Pos), Op: opTok.Text, Left: left, Right: right}
}

// parsePrefix parses unary operators and primary expressions.
func (p *Parser) parsePrefix() ast.Expr {
	switch p.cur().Type {
	case lexer.BANG, lexer.PLUS, lexer.MINUS, lexer.TILDE:
		opTok := p.advance()
		operand := p.parseExpr(UNARY)
		return &ast.UnaryExpr{BaseNode: ast.At(opTok.Pos), Op: opTok.Text, Operand: operand}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix handles call-expression application after a primary
// identifier; o3 has no other postfix forms in the scalar core.
func (p *Parser) parsePostfix(expr ast.Expr) ast.Expr {
	for p.at(lexer.LPAREN) {
		ident, ok := expr.(*ast.IdentExpr)
		if !ok {
			p.errorHere("O3P112", "call target must be an identifier")
			return expr
		}
		expr = p.parseCallArgs(ident)
	}
	return expr
}

func (p *Parser) parseCallArgs(ident *ast.IdentExpr) ast.Expr {
	lparen := p.advance() // '('
	var args []ast.Expr
	if !p.at(lexer.RPAREN) {
		args = append(args, p.parseExpr(LOWEST))
		for p.match(lexer.COMMA) {
			args = append(args, p.parseExpr(LOWEST))
		}
	}
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after call arguments")
	return &ast.CallExpr{BaseNode: ast.At(lparen.Pos), Name: ident.Name, Args: args}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Type {
	case lexer.INT:
		p.advance()
		val, ok := toInt32Literal(tok, p)
		if !ok {
			val = 0
		}
		return &ast.NumberExpr{BaseNode: ast.At(tok.Pos), Text: tok.Text, Value: val}
	case lexer.TRUEKW:
		p.advance()
		return &ast.BoolExpr{BaseNode: ast.At(tok.Pos), Value: true}
	case lexer.FALSEKW:
		p.advance()
		return &ast.BoolExpr{BaseNode: ast.At(tok.Pos), Value: false}
	case lexer.NILKW:
		p.advance()
		return &ast.NilExpr{BaseNode: ast.At(tok.Pos)}
	case lexer.IDENT:
		p.advance()
		return &ast.IdentExpr{BaseNode: ast.At(tok.Pos), Name: tok.Text}
	case lexer.LPAREN:
		p.advance()
		inner := p.parseExpr(LOWEST)
		p.expect(lexer.RPAREN, "O3P109", "expected ')' to close parenthesized expression")
		return inner
	case lexer.LBRACKET:
		return p.parseMessageSend()
	default:
		p.errorHere("O3P103", "expected expression, found '"+tok.Text+"'")
		return &ast.NumberExpr{BaseNode: ast.At(tok.Pos), Text: "0", Value: 0}
	}
}

// parseMessageSend parses `[ Receiver Selector [: Arg]* ]`. After the
// receiver, an identifier is the selector head; if a ':' follows, the
// selector is built keyword-style as "head:key1:key2:" from successive
// `identifier ':' arg` pieces, otherwise it is a unary selector.
func (p *Parser) parseMessageSend() ast.Expr {
	open := p.advance() // '['
	receiver := p.parseExpr(LOWEST)

	headTok, ok := p.expect(lexer.IDENT, "O3P113", "expected selector after message-send receiver")
	if !ok {
		p.expect(lexer.RBRACKET, "O3P113", "malformed message send")
		return &ast.MessageSendExpr{BaseNode: ast.At(open.Pos), Receiver: receiver, Selector: "", Args: nil}
	}

	var selector strings.Builder
	var args []ast.Expr
	selector.WriteString(headTok.Text)

	if p.at(lexer.COLON) {
		p.advance()
		selector.WriteByte(':')
		args = append(args, p.parseExpr(LOWEST))
		for p.at(lexer.IDENT) && p.peek().Type == lexer.COLON {
			keyTok := p.advance()
			p.advance() // ':'
			selector.WriteString(keyTok.Text)
			selector.WriteByte(':')
			args = append(args, p.parseExpr(LOWEST))
		}
	}

	p.expect(lexer.RBRACKET, "O3P113", "expected ']' to close message send")
	return &ast.MessageSendExpr{BaseNode: ast.At(open.Pos), Receiver: receiver, Selector: selector.String(), Args: args}
}
