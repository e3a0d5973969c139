package parser

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lexer"
	"github.com/o3lang/o3c/internal/types"
)

// parseFunctionDecl parses:
//
//	[pure] [extern] fn IDENT '(' params? ')' ['->' type] (';' | block)
//
// `extern` declares a prototype with no body; any other form requires a
// block body. `pure` marks the function as a candidate for the
// pure-contract fixed-point analysis.
func (p *Parser) parseFunctionDecl(prog *ast.Program) {
	start := p.cur()

	var pure, extern bool
	for {
		switch p.cur().Type {
		case lexer.PURE:
			if pure {
				p.errorHere("O3P100", "duplicate 'pure' modifier")
			}
			pure = true
			p.advance()
			continue
		case lexer.EXTERN:
			if extern {
				p.errorHere("O3P100", "duplicate 'extern' modifier")
			}
			extern = true
			p.advance()
			continue
		}
		break
	}

	if _, ok := p.expect(lexer.FN, "O3P100", "expected 'fn'"); !ok {
		p.synchronizeTopLevel()
		return
	}
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected function name identifier")
	if !ok {
		p.synchronizeTopLevel()
		return
	}

	if _, ok := p.expect(lexer.LPAREN, "O3P106", "expected '(' after function name"); !ok {
		p.synchronizeTopLevel()
		return
	}
	params := p.parseParamList()
	if _, ok := p.expect(lexer.RPAREN, "O3P109", "expected ')' after parameter list"); !ok {
		p.synchronizeTopLevel()
		return
	}

	var returnType = types.Simple(types.Void)
	if p.match(lexer.ARROW) {
		if t := p.parseTypeAnnotation("O3P114"); t != nil {
			returnType = t
		}
	}

	fn := &ast.FunctionDecl{
		BaseNode:   ast.At(start.Pos),
		Name:       nameTok.Text,
		Params:     params,
		ReturnType: returnType,
		Pure:       pure,
	}

	switch {
	case extern:
		if _, ok := p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after extern function declaration"); !ok {
			p.synchronizeTopLevel()
			return
		}
		fn.IsPrototype = true
	case p.at(lexer.SEMICOLON):
		p.errorHere("O3P100", "non-extern function must have a body")
		p.advance()
		fn.IsPrototype = true
	default:
		fn.Body = p.parseBlock()
	}

	prog.Functions = append(prog.Functions, fn)
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.at(lexer.RPAREN) {
		return params
	}
	params = append(params, p.parseParam())
	for p.match(lexer.COMMA) {
		params = append(params, p.parseParam())
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected parameter name")
	if !ok {
		return ast.Param{ParamPos: p.cur().Pos}
	}
	if _, ok := p.expect(lexer.COLON, "O3P107", "expected ':' after parameter name"); !ok {
		return ast.Param{Name: nameTok.Text, ParamPos: nameTok.Pos}
	}
	t := p.parseTypeAnnotation("O3P108")
	return ast.Param{Name: nameTok.Text, Type: t, ParamPos: nameTok.Pos}
}
