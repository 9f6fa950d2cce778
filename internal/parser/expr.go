package parser

import (
	"github.com/casm-lang/casmc/internal/ast"
	"github.com/casm-lang/casmc/internal/lexer"
)

// parseExpression is the entry point for the full precedence chain
// (spec.md §4.2, low to high): assignment, logical-or, logical-and,
// equality, relational, additive, multiplicative, unary, primary.
func (p *Parser) parseExpression() (ast.Expr, bool) {
	return p.parseAssignment()
}

// parseAssignment is right-associative; its LHS must already have
// parsed as a variable reference — enforced by the semantic analyzer,
// not here, matching how the grammar in §4.2 leaves "must be a
// variable reference" as a semantic constraint rather than a syntactic
// one (the parser accepts any expression on the left and lets
// analysis reject a bad one with a precise diagnostic).
func (p *Parser) parseAssignment() (ast.Expr, bool) {
	left, ok := p.parseLogicalOr()
	if !ok {
		return nil, false
	}
	if tok, ok := p.match(lexer.ASSIGN); ok {
		right, ok := p.parseAssignment()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		return &ast.BinaryExpr{Op: ast.OpAssign, Left: left, Right: right, Location: tok.Location}, true
	}
	return left, true
}

func (p *Parser) parseLogicalOr() (ast.Expr, bool) {
	left, ok := p.parseLogicalAnd()
	if !ok {
		return nil, false
	}
	for p.check(lexer.OR) {
		tok := p.advance()
		right, ok := p.parseLogicalAnd()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right, Location: tok.Location}
	}
	return left, true
}

func (p *Parser) parseLogicalAnd() (ast.Expr, bool) {
	left, ok := p.parseEquality()
	if !ok {
		return nil, false
	}
	for p.check(lexer.AND) {
		tok := p.advance()
		right, ok := p.parseEquality()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right, Location: tok.Location}
	}
	return left, true
}

func (p *Parser) parseEquality() (ast.Expr, bool) {
	left, ok := p.parseRelational()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case lexer.EQ:
			op = ast.OpEq
		case lexer.NE:
			op = ast.OpNe
		default:
			return left, true
		}
		tok := p.advance()
		right, ok := p.parseRelational()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Location: tok.Location}
	}
}

func (p *Parser) parseRelational() (ast.Expr, bool) {
	left, ok := p.parseAdditive()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case lexer.LT:
			op = ast.OpLt
		case lexer.GT:
			op = ast.OpGt
		case lexer.LE:
			op = ast.OpLe
		case lexer.GE:
			op = ast.OpGe
		default:
			return left, true
		}
		tok := p.advance()
		right, ok := p.parseAdditive()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Location: tok.Location}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, bool) {
	left, ok := p.parseMultiplicative()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case lexer.PLUS:
			op = ast.OpAdd
		case lexer.MINUS:
			op = ast.OpSub
		default:
			return left, true
		}
		tok := p.advance()
		right, ok := p.parseMultiplicative()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Location: tok.Location}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		var op ast.BinaryOp
		switch p.current().Type {
		case lexer.STAR:
			op = ast.OpMul
		case lexer.SLASH:
			op = ast.OpDiv
		case lexer.PERCENT:
			op = ast.OpMod
		default:
			return left, true
		}
		tok := p.advance()
		right, ok := p.parseUnary()
		if !ok {
			p.errorf(p.current(), "expected expression after operator")
			return left, true
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right, Location: tok.Location}
	}
}

func (p *Parser) parseUnary() (ast.Expr, bool) {
	switch p.current().Type {
	case lexer.MINUS:
		tok := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand, Location: tok.Location}, true
	case lexer.NOT:
		tok := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand, Location: tok.Location}, true
	default:
		return p.parsePrimary()
	}
}

// parsePrimary covers int/bool literals, identifiers (with an optional
// `: IDENT` qualifier forming a `module:name` callee and an optional
// `(...)` call-argument list), and parenthesized sub-expressions.
func (p *Parser) parsePrimary() (ast.Expr, bool) {
	tok := p.current()
	switch tok.Type {
	case lexer.INT_LITERAL:
		p.advance()
		return &ast.IntLiteral{Value: tok.IntValue, Location: tok.Location}, true
	case lexer.TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true, Location: tok.Location}, true
	case lexer.FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false, Location: tok.Location}, true
	case lexer.LPAREN:
		p.advance()
		inner, ok := p.parseExpression()
		if !ok {
			return nil, false
		}
		p.expect(lexer.RPAREN, "')'")
		return inner, true
	case lexer.IDENT:
		p.advance()
		name := tok.Lexeme
		if _, ok := p.match(lexer.COLON); ok {
			qualifier := p.expect(lexer.IDENT, "identifier")
			name = name + ":" + qualifier.Lexeme
		}
		if p.check(lexer.LPAREN) {
			return p.parseCallArgs(name, tok.Location)
		}
		return &ast.VarExpr{Name: name, Location: tok.Location}, true
	default:
		p.errorf(tok, "unexpected token '%s' in expression", tok.Lexeme)
		return nil, false
	}
}

func (p *Parser) parseCallArgs(callee string, loc ast.SourceLocation) (ast.Expr, bool) {
	p.advance() // LPAREN
	var args []ast.Expr
	if !p.check(lexer.RPAREN) {
		for {
			arg, ok := p.parseExpression()
			if !ok {
				return nil, false
			}
			args = append(args, arg)
			if _, ok := p.match(lexer.COMMA); !ok {
				break
			}
		}
	}
	p.expect(lexer.RPAREN, "')'")
	return &ast.CallExpr{Callee: callee, Args: args, Location: loc}, true
}
