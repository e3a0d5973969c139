package parser

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lexer"
	"github.com/o3lang/o3c/internal/types"
)

// parseInterfaceDecl parses:
//
//	@interface Name [: Super] member* @end
func (p *Parser) parseInterfaceDecl(prog *ast.Program) {
	kw := p.advance() // '@interface'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected interface name identifier")
	if !ok {
		p.synchronizeContainer()
		return
	}
	var super string
	if p.match(lexer.COLON) {
		if superTok, ok := p.expect(lexer.IDENT, "O3P101", "expected superclass name after ':'"); ok {
			super = superTok.Text
		}
	}

	props, methods := p.parseContainerMembers()
	p.expect(lexer.AT_END, "O3P111", "expected '@end' to close @interface")

	prog.Interfaces = append(prog.Interfaces, &ast.InterfaceDecl{
		BaseNode: ast.At(kw.Pos), Name: nameTok.Text, Super: super,
		Properties: props, Methods: methods,
	})
}

// parseImplementationDecl parses `@implementation Name member* @end`.
func (p *Parser) parseImplementationDecl(prog *ast.Program) {
	kw := p.advance() // '@implementation'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected implementation name identifier")
	if !ok {
		p.synchronizeContainer()
		return
	}

	props, methods := p.parseContainerMembers()
	p.expect(lexer.AT_END, "O3P111", "expected '@end' to close @implementation")

	prog.Implementations = append(prog.Implementations, &ast.ImplementationDecl{
		BaseNode: ast.At(kw.Pos), Name: nameTok.Text,
		Properties: props, Methods: methods,
	})
}

// parseProtocolDecl parses `@protocol Name member* @end`.
func (p *Parser) parseProtocolDecl(prog *ast.Program) {
	kw := p.advance() // '@protocol'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected protocol name identifier")
	if !ok {
		p.synchronizeContainer()
		return
	}

	props, methods := p.parseContainerMembers()
	p.expect(lexer.AT_END, "O3P111", "expected '@end' to close @protocol")

	prog.Protocols = append(prog.Protocols, &ast.ProtocolDecl{
		BaseNode: ast.At(kw.Pos), Name: nameTok.Text,
		Properties: props, Methods: methods,
	})
}

// parseContainerMembers reads @property declarations and +/- method
// declarations until '@end' or EOF. A malformed member synchronizes to
// the next member-starting token rather than aborting the container.
func (p *Parser) parseContainerMembers() ([]ast.Property, []ast.Method) {
	var props []ast.Property
	var methods []ast.Method

	for !p.at(lexer.AT_END) && !p.at(lexer.EOF) {
		switch p.cur().Type {
		case lexer.AT_PROPERTY:
			props = append(props, p.parseProperty())
		case lexer.PLUS, lexer.MINUS:
			methods = append(methods, p.parseMethod())
		case lexer.SEMICOLON:
			p.advance()
		default:
			p.errorHere("O3P100", "expected '@property', '+', '-', or '@end' in container body")
			p.synchronizeContainer()
			if p.at(lexer.AT_END) || p.at(lexer.EOF) {
				return props, methods
			}
		}
	}
	return props, methods
}

func (p *Parser) parseProperty() ast.Property {
	kw := p.advance() // '@property'
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after '@property'")
	// Attribute list (nonatomic, strong, copy, ...) is accepted but
	// unvalidated: it has no bearing on the manifest-only container checks.
	for !p.at(lexer.RPAREN) && !p.at(lexer.EOF) {
		p.advance()
	}
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after property attributes")

	t := p.parseTypeAnnotation("O3P108")
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected property name")
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after property declaration")
	if !ok {
		return ast.Property{PropPos: kw.Pos, Type: t}
	}
	return ast.Property{PropPos: kw.Pos, Name: nameTok.Text, Type: t}
}

// parseMethod parses `('+' | '-') [ '(' type ')' ] selector-head
// [':' '(' type ')' name]* block`. Declaration-only forms (as used in
// @protocol) end at ';' with no body.
func (p *Parser) parseMethod() ast.Method {
	kw := p.advance() // '+' or '-'

	returnType := p.parseOptionalParenType("O3P114")

	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected method selector")
	if !ok {
		p.synchronizeContainer()
		return ast.Method{MethodPos: kw.Pos, ReturnType: returnType}
	}

	name := nameTok.Text
	var params []ast.Param
	if p.at(lexer.COLON) {
		for p.at(lexer.COLON) {
			p.advance()
			ptype := p.parseOptionalParenType("O3P108")
			argTok, ok := p.expect(lexer.IDENT, "O3P101", "expected parameter name in method selector")
			if !ok {
				break
			}
			params = append(params, ast.Param{Name: argTok.Text, Type: ptype, ParamPos: argTok.Pos})
			name += ":"
			if p.at(lexer.IDENT) && p.peek().Type == lexer.COLON {
				keyTok := p.advance()
				name += keyTok.Text
			}
		}
	}

	m := ast.Method{MethodPos: kw.Pos, Name: name, Params: params, ReturnType: returnType}
	if p.match(lexer.SEMICOLON) {
		return m
	}
	m.Body = p.parseBlock()
	return m
}

func (p *Parser) parseOptionalParenType(errCode string) *types.TypeAnnotation {
	if !p.match(lexer.LPAREN) {
		return nil
	}
	t := p.parseTypeAnnotation(errCode)
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after method type")
	return t
}

// synchronizeContainer scans to '@end', a member-starting token, or EOF.
func (p *Parser) synchronizeContainer() {
	for !p.at(lexer.EOF) {
		switch p.cur().Type {
		case lexer.AT_END, lexer.AT_PROPERTY, lexer.PLUS, lexer.MINUS:
			return
		}
		p.advance()
	}
}
