package parser

import (
	"strconv"
	"strings"

	"github.com/o3lang/o3c/internal/lexer"
	"github.com/o3lang/o3c/internal/types"
)

// parseTypeAnnotation parses a single declarator: a scalar or
// Objective-C-flavored spelling, followed by an optional `<...>` generic
// suffix (captured raw, never parsed further), trailing '*' pointer
// declarators, and trailing '?'/'!' nullability markers.
func (p *Parser) parseTypeAnnotation(errCode string) *types.TypeAnnotation {
	ann := p.parseBaseSpelling(errCode)
	if ann == nil {
		return nil
	}

	if p.at(lexer.LT) {
		ann.Generic = p.captureGenericSuffix(errCode)
	}

	for p.at(lexer.STAR) {
		p.advance()
		ann.PointerDepth++
	}

	var nullability strings.Builder
	for p.at(lexer.QUESTION) || p.at(lexer.BANG) {
		nullability.WriteString(p.advance().Text)
	}
	ann.Nullability = nullability.String()

	return ann
}

// parseBaseSpelling recognizes the keyword/identifier that opens a
// declarator, per the return/param type grammar ported from
// objc3_parser.cpp: scalar keywords, ObjC spelling keywords, then a bare
// identifier as either a vector shape (`i32x4`, `boolx8`, ...) or an
// object-pointer class name.
func (p *Parser) parseBaseSpelling(errCode string) *types.TypeAnnotation {
	tok := p.cur()
	switch tok.Type {
	case lexer.I32:
		p.advance()
		return types.Simple(types.I32)
	case lexer.BOOLKW, lexer.BOOL_OBJC:
		p.advance()
		return types.Simple(types.Bool)
	case lexer.VOIDKW:
		p.advance()
		return types.Simple(types.Void)
	case lexer.NSINTEGER, lexer.NSUINTEGER:
		p.advance()
		return &types.TypeAnnotation{Base: types.I32, Family: types.FamilyPlain}
	case lexer.ID_KW:
		p.advance()
		return &types.TypeAnnotation{Base: types.I32, Family: types.FamilyID}
	case lexer.CLASS_KW:
		p.advance()
		return &types.TypeAnnotation{Base: types.I32, Family: types.FamilyClass}
	case lexer.SEL_KW:
		p.advance()
		return &types.TypeAnnotation{Base: types.I32, Family: types.FamilySEL}
	case lexer.INSTANCETYPE:
		p.advance()
		return &types.TypeAnnotation{Base: types.I32, Family: types.FamilyInstancetype}
	case lexer.IDENT:
		return p.parseIdentSpelling()
	default:
		p.errorHere(errCode, "expected a type, found '"+tok.Text+"'")
		return nil
	}
}

// vectorLanes are the lane counts the o3 scalar-vector shape grammar
// accepts: `<scalar>x<lanes>`.
var vectorLanes = map[string]bool{"2": true, "4": true, "8": true, "16": true}

// parseIdentSpelling distinguishes a vector shape identifier
// (`i32x4`/`boolx8`/...) from a plain object-pointer class name.
func (p *Parser) parseIdentSpelling() *types.TypeAnnotation {
	tok := p.advance()
	name := tok.Text

	if lanes, scalar, ok := splitVectorShape(name); ok {
		return &types.TypeAnnotation{Base: scalar, Family: types.FamilyVector, VectorLanes: lanes}
	}
	return &types.TypeAnnotation{Base: types.I32, Family: types.FamilyObjectPointer, ObjectName: name}
}

func splitVectorShape(name string) (lanes int, base types.Scalar, ok bool) {
	idx := strings.LastIndexByte(name, 'x')
	if idx <= 0 || idx == len(name)-1 {
		return 0, 0, false
	}
	head, tail := name[:idx], name[idx+1:]
	if !vectorLanes[tail] {
		return 0, 0, false
	}
	switch head {
	case "i32":
		base = types.I32
	case "bool":
		base = types.Bool
	default:
		return 0, 0, false
	}
	n, err := strconv.Atoi(tail)
	if err != nil {
		return 0, 0, false
	}
	return n, base, true
}

// captureGenericSuffix reads a balanced `<...>` run as raw text without
// interpreting its contents, since o3's scalar core never resolves
// generic parameters.
func (p *Parser) captureGenericSuffix(errCode string) string {
	var sb strings.Builder
	depth := 0
	for {
		tok := p.cur()
		if tok.Type == lexer.EOF {
			p.errorAt(tok.Pos, errCode, "unterminated generic suffix")
			return sb.String()
		}
		sb.WriteString(tok.Text)
		if tok.Type == lexer.LT {
			depth++
		} else if tok.Type == lexer.GT {
			depth--
			p.advance()
			if depth == 0 {
				return sb.String()
			}
			continue
		}
		p.advance()
		if depth == 0 {
			return sb.String()
		}
	}
}
