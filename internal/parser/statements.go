package parser

import (
	"github.com/o3lang/o3c/internal/ast"
	"github.com/o3lang/o3c/internal/lexer"
)

// autoreleaseDepth/autoreleaseSerial track nesting for
// AutoreleasePoolTag.Depth/Serial across nested `@autoreleasepool`
// blocks within a single parse.
type autoreleaseCounters struct {
	depth  int
	serial []int // serial[d] is the next serial to assign at depth d
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	open, ok := p.expect(lexer.LBRACE, "O3P110", "expected '{' to start a block")
	if !ok {
		return &ast.BlockStmt{BaseNode: ast.At(p.cur().Pos)}
	}
	block := &ast.BlockStmt{BaseNode: ast.At(open.Pos)}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		block.Body = append(block.Body, p.parseStatement())
	}
	p.expect(lexer.RBRACE, "O3P111", "expected '}' to close block")
	return block
}

// parseStatement dispatches on the leading token; unrecognized leading
// tokens fall through to an expression statement, and a malformed
// statement synchronizes to the next ';' or block-ending '}'.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.cur().Type {
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DO:
		return p.parseDoWhileStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.BREAK:
		tok := p.advance()
		p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after 'break'")
		return &ast.BreakStmt{BaseNode: ast.At(tok.Pos)}
	case lexer.CONTINUE:
		tok := p.advance()
		p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after 'continue'")
		return &ast.ContinueStmt{BaseNode: ast.At(tok.Pos)}
	case lexer.SEMICOLON:
		tok := p.advance()
		return &ast.EmptyStmt{BaseNode: ast.At(tok.Pos)}
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.AT_AUTORELEASEPOOL:
		return p.parseAutoreleasePoolStmt()
	case lexer.IDENT:
		if p.peek().Type == lexer.ASSIGN || isCompoundAssignOp(p.peek().Type) || p.peek().Type == lexer.INCR || p.peek().Type == lexer.DECR {
			return p.parseAssignStmt()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func isCompoundAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN,
		lexer.PERCENT_ASSIGN, lexer.AMP_ASSIGN, lexer.PIPE_ASSIGN, lexer.CARET_ASSIGN,
		lexer.SHL_ASSIGN, lexer.SHR_ASSIGN:
		return true
	}
	return false
}

func (p *Parser) parseLetStmt() ast.Stmt {
	kw := p.advance() // 'let'
	nameTok, ok := p.expect(lexer.IDENT, "O3P101", "expected identifier after 'let'")
	if !ok {
		p.synchronizeStatement()
		return &ast.EmptyStmt{BaseNode: ast.At(kw.Pos)}
	}
	if _, ok := p.expect(lexer.ASSIGN, "O3P102", "expected '=' in let statement"); !ok {
		p.synchronizeStatement()
		return &ast.EmptyStmt{BaseNode: ast.At(kw.Pos)}
	}
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after let statement")
	return &ast.LetStmt{BaseNode: ast.At(kw.Pos), Name: nameTok.Text, Value: value}
}

func (p *Parser) parseAssignStmt() ast.Stmt {
	nameTok := p.advance()
	opTok := p.cur()

	if opTok.Type == lexer.INCR || opTok.Type == lexer.DECR {
		p.advance()
		p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after increment/decrement statement")
		return &ast.AssignStmt{BaseNode: ast.At(nameTok.Pos), Name: nameTok.Text, Op: opTok.Text}
	}

	p.advance() // '=' or compound-assign operator
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after assignment")
	return &ast.AssignStmt{BaseNode: ast.At(nameTok.Pos), Name: nameTok.Text, Op: opTok.Text, Value: value}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	kw := p.advance()
	if p.at(lexer.SEMICOLON) {
		p.advance()
		return &ast.ReturnStmt{BaseNode: ast.At(kw.Pos)}
	}
	value := p.parseExpr(LOWEST)
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after return statement")
	return &ast.ReturnStmt{BaseNode: ast.At(kw.Pos), Value: value}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	kw := p.advance()
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after 'if'")
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after if condition")
	then := p.parseStatement()
	var elseStmt ast.Stmt
	if p.match(lexer.ELSE) {
		elseStmt = p.parseStatement()
	}
	return &ast.IfStmt{BaseNode: ast.At(kw.Pos), Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	kw := p.advance()
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after 'while'")
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after while condition")
	body := p.parseStatement()
	return &ast.WhileStmt{BaseNode: ast.At(kw.Pos), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhileStmt() ast.Stmt {
	kw := p.advance()
	body := p.parseStatement()
	p.expect(lexer.WHILE, "O3P100", "expected 'while' after do-block")
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after 'while'")
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after do-while condition")
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after do-while statement")
	return &ast.DoWhileStmt{BaseNode: ast.At(kw.Pos), Body: body, Cond: cond}
}

func (p *Parser) parseForStmt() ast.Stmt {
	kw := p.advance()
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after 'for'")

	fs := &ast.ForStmt{BaseNode: ast.At(kw.Pos)}

	if p.at(lexer.SEMICOLON) {
		p.advance()
	} else if p.at(lexer.LET) {
		fs.InitKind = ast.ForClauseLet
		fs.Init = p.parseLetStmt()
	} else {
		fs.InitKind = ast.ForClauseAssign
		fs.Init = p.parseAssignStmt()
	}

	if !p.at(lexer.SEMICOLON) {
		fs.Cond = p.parseExpr(LOWEST)
	}
	p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after for-loop condition")

	if !p.at(lexer.RPAREN) {
		fs.StepKind = ast.ForClauseAssign
		fs.Step = p.parseBareAssignOrExprStmt()
	}
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after for-loop clauses")

	fs.Body = p.parseStatement()
	return fs
}

// parseBareAssignOrExprStmt parses the for-loop step clause, which has
// no trailing ';' of its own (the enclosing '(' ... ')' delimits it).
func (p *Parser) parseBareAssignOrExprStmt() ast.Stmt {
	start := p.cur()
	if p.at(lexer.IDENT) && (p.peek().Type == lexer.ASSIGN || isCompoundAssignOp(p.peek().Type) || p.peek().Type == lexer.INCR || p.peek().Type == lexer.DECR) {
		nameTok := p.advance()
		opTok := p.cur()
		if opTok.Type == lexer.INCR || opTok.Type == lexer.DECR {
			p.advance()
			return &ast.AssignStmt{BaseNode: ast.At(nameTok.Pos), Name: nameTok.Text, Op: opTok.Text}
		}
		p.advance()
		value := p.parseExpr(LOWEST)
		return &ast.AssignStmt{BaseNode: ast.At(nameTok.Pos), Name: nameTok.Text, Op: opTok.Text, Value: value}
	}
	value := p.parseExpr(LOWEST)
	return &ast.ExprStmt{BaseNode: ast.At(start.Pos), Value: value}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	kw := p.advance()
	p.expect(lexer.LPAREN, "O3P106", "expected '(' after 'switch'")
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN, "O3P109", "expected ')' after switch condition")
	p.expect(lexer.LBRACE, "O3P110", "expected '{' to start switch body")

	sw := &ast.SwitchStmt{BaseNode: ast.At(kw.Pos), Cond: cond}
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		sw.Cases = append(sw.Cases, p.parseSwitchCase())
	}
	p.expect(lexer.RBRACE, "O3P111", "expected '}' to close switch body")
	return sw
}

func (p *Parser) parseSwitchCase() ast.SwitchCase {
	switch p.cur().Type {
	case lexer.CASE:
		kw := p.advance()
		var value int32
		if numTok, ok := p.expect(lexer.INT, "O3P103", "expected integer literal in case label"); ok {
			value, _ = toInt32Literal(numTok, p)
		}
		p.expect(lexer.COLON, "O3P107", "expected ':' after case label")
		body := p.parseCaseBody()
		return ast.SwitchCase{CasePos: kw.Pos, Value: value, Body: body}
	case lexer.DEFAULT:
		kw := p.advance()
		p.expect(lexer.COLON, "O3P107", "expected ':' after 'default'")
		body := p.parseCaseBody()
		return ast.SwitchCase{CasePos: kw.Pos, IsDefault: true, Body: body}
	default:
		p.errorHere("O3P100", "expected 'case' or 'default' in switch body")
		p.advance()
		return ast.SwitchCase{CasePos: p.cur().Pos}
	}
}

func (p *Parser) parseCaseBody() []ast.Stmt {
	var body []ast.Stmt
	for !p.at(lexer.CASE) && !p.at(lexer.DEFAULT) && !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		body = append(body, p.parseStatement())
	}
	return body
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur()
	value := p.parseExpr(LOWEST)
	if _, ok := p.expect(lexer.SEMICOLON, "O3P104", "expected ';' after expression statement"); !ok {
		p.synchronizeStatement()
	}
	return &ast.ExprStmt{BaseNode: ast.At(start.Pos), Value: value}
}

func (p *Parser) parseAutoreleasePoolStmt() ast.Stmt {
	p.advance() // '@autoreleasepool'
	p.releaseCounters.depth++
	depth := p.releaseCounters.depth
	for len(p.releaseCounters.serial) <= depth {
		p.releaseCounters.serial = append(p.releaseCounters.serial, 0)
	}
	serial := p.releaseCounters.serial[depth]
	p.releaseCounters.serial[depth]++

	block := p.parseBlock()
	block.Autorelease = &ast.AutoreleasePoolTag{Depth: depth, Serial: serial}
	p.releaseCounters.depth--
	return block
}

// synchronizeStatement scans to the next ';' or a block-terminating '}',
// used for statement-level recovery (as opposed to top-level recovery).
func (p *Parser) synchronizeStatement() {
	for !p.at(lexer.EOF) && !p.at(lexer.RBRACE) {
		if p.at(lexer.SEMICOLON) {
			p.advance()
			return
		}
		p.advance()
	}
}
