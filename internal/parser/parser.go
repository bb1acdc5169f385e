// Package parser implements the recursive-descent parser for the
// surface syntax. Statements are distinguished by the token trailing
// the leading identifier; type expressions parse with multiplicative
// over additive precedence, both right-associative.
package parser

import (
	"fmt"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/token"
)

type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) unexpected(tok token.Token) *diagnostics.DiagnosticError {
	if tok.Type == token.EOF {
		return diagnostics.NewError("P001", tok, "unexpected end")
	}
	name := tok.Lexeme
	if name == "" {
		name = string(tok.Type)
	}
	return diagnostics.NewError("P002", tok, fmt.Sprintf("unexpected token %q", name))
}

func (p *Parser) expect(t token.Type) error {
	tok := p.cur()
	if tok.Type != t {
		return p.unexpected(tok)
	}
	p.advance()
	return nil
}

func (p *Parser) parseIdentifier() (string, token.Token, error) {
	tok := p.cur()
	if tok.Type != token.IDENT {
		return "", tok, p.unexpected(tok)
	}
	p.advance()
	return tok.Lexeme, tok, nil
}

// ParseProgram parses declarations until end of input.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{}
	for {
		tok := p.cur()
		switch tok.Type {
		case token.EOF:
			program.Typed = len(program.Types) > 0 || anyAnnotated(program.Routines)
			return program, nil
		case token.TYPE:
			declaration, err := p.parseTypeDeclaration()
			if err != nil {
				return nil, err
			}
			program.Types = append(program.Types, declaration)
		case token.ROUTINE:
			routine, err := p.parseRoutine()
			if err != nil {
				return nil, err
			}
			program.Routines = append(program.Routines, routine)
		default:
			return nil, p.unexpected(tok)
		}
	}
}

func anyAnnotated(routines []*ast.RoutineDeclaration) bool {
	for _, routine := range routines {
		for _, formal := range routine.Formals {
			if formal.Type != nil {
				return true
			}
		}
	}
	return false
}

func (p *Parser) parseTypeDeclaration() (*ast.TypeDeclaration, error) {
	tok := p.cur()
	if err := p.expect(token.TYPE); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDeclaration{Token: tok, Name: name, Value: value}, nil
}

func (p *Parser) parseMultiplicative() (ast.TypeExpression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	tok := p.cur()
	switch tok.Type {
	case token.LOLLIPOP:
		p.advance()
		next, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		return &ast.LollipopType{Token: tok, Value: left, Next: next}, nil
	case token.TIMES:
		p.advance()
		next, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		return &ast.TimesType{Token: tok, Value: left, Next: next}, nil
	default:
		return left, nil
	}
}

func (p *Parser) parseAdditive() (ast.TypeExpression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	tok := p.cur()
	switch tok.Type {
	case token.WITH:
		p.advance()
		next, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.WithType{Token: tok, Accept: left, Deny: next}, nil
	case token.PLUS:
		p.advance()
		next, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.PlusType{Token: tok, Accept: left, Deny: next}, nil
	default:
		return left, nil
	}
}

func (p *Parser) parsePrimary() (ast.TypeExpression, error) {
	tok := p.cur()
	switch tok.Type {
	case token.LPAREN:
		p.advance()
		expression, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expression, nil
	case token.IDENT:
		p.advance()
		return &ast.TypeVariable{Token: tok, Name: tok.Lexeme}, nil
	case token.TIMES:
		// A leading ⊗ dualises the named type.
		p.advance()
		name, nameTok, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.TypeVariable{Token: nameTok, Name: name, IsDual: true}, nil
	case token.ONE:
		p.advance()
		return &ast.OneType{Token: tok}, nil
	default:
		return nil, p.unexpected(tok)
	}
}

func (p *Parser) parseRoutine() (*ast.RoutineDeclaration, error) {
	tok := p.cur()
	if err := p.expect(token.ROUTINE); err != nil {
		return nil, err
	}
	name, _, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	formal, err := p.parseFormal()
	if err != nil {
		return nil, err
	}
	formals := []*ast.Formal{formal}
	for {
		tok := p.cur()
		if tok.Type == token.RPAREN {
			break
		}
		if tok.Type != token.COMMA {
			return nil, p.unexpected(tok)
		}
		p.advance()
		formal, err := p.parseFormal()
		if err != nil {
			return nil, err
		}
		formals = append(formals, formal)
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.RoutineDeclaration{Token: tok, Name: name, Formals: formals, Body: body}, nil
}

func (p *Parser) parseFormal() (*ast.Formal, error) {
	name, tok, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	formal := &ast.Formal{Token: tok, Name: name}
	if p.cur().Type == token.COLON {
		p.advance()
		formal.Type, err = p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
	}
	return formal, nil
}

func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var statements []ast.Statement
	for {
		tok := p.cur()
		if tok.Type == token.RBRACE {
			break
		}
		if tok.Type == token.EOF {
			return nil, p.unexpected(tok)
		}
		statement, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}
	p.advance()
	return statements, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	identifier, tok, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	next := p.cur()
	switch next.Type {
	case token.COLON:
		p.advance()
		return &ast.LabelStatement{Token: tok, Name: identifier}, nil
	case token.ASSIGN:
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Token: tok, Name: identifier, Value: value}, nil
	case token.LPAREN:
		p.advance()
		actual, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		actuals := []ast.Expression{actual}
		for {
			tok := p.cur()
			if tok.Type == token.RPAREN {
				break
			}
			if tok.Type != token.COMMA {
				return nil, p.unexpected(tok)
			}
			p.advance()
			actual, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			actuals = append(actuals, actual)
		}
		p.advance()
		return &ast.CallStatement{Token: tok, Name: identifier, Actuals: actuals}, nil
	case token.RECEIVE:
		p.advance()
		variable, _, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.ReceiveStatement{Token: tok, Source: identifier, Variable: variable}, nil
	case token.SEND:
		p.advance()
		variable, _, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.SendStatement{Token: tok, Destination: identifier, Variable: variable}, nil
	case token.OFFER:
		p.advance()
		accepted, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.ELSE); err != nil {
			return nil, err
		}
		denied, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.OfferStatement{Token: tok, Client: identifier, Accepted: accepted, Denied: denied}, nil
	case token.ACCEPT:
		p.advance()
		return &ast.AcceptStatement{Token: tok, Server: identifier}, nil
	case token.DENY:
		p.advance()
		return &ast.DenyStatement{Token: tok, Server: identifier}, nil
	case token.CLOSE:
		p.advance()
		return &ast.CloseStatement{Token: tok, Name: identifier}, nil
	case token.CONNECT:
		p.advance()
		other, _, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.ConnectStatement{Token: tok, Left: identifier, Right: other}, nil
	default:
		return &ast.BranchStatement{Token: tok, Name: identifier}, nil
	}
}

// parseExpression parses a channel reference or a call with a hole:
// `f(a, , b)`. The hole is the empty slot between the Before actuals
// (each terminated by a comma) and the After actuals (each preceded by
// one); `f()` is the hole-only call.
func (p *Parser) parseExpression() (ast.Expression, error) {
	identifier, tok, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != token.LPAREN {
		return &ast.VariableExpression{Token: tok, Name: identifier}, nil
	}
	p.advance()
	var before []ast.Expression
	for {
		cur := p.cur()
		if cur.Type == token.RPAREN || cur.Type == token.COMMA {
			break
		}
		actual, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		before = append(before, actual)
		if err := p.expect(token.COMMA); err != nil {
			return nil, err
		}
	}
	var after []ast.Expression
	for {
		cur := p.cur()
		if cur.Type == token.RPAREN {
			break
		}
		if cur.Type != token.COMMA {
			return nil, p.unexpected(cur)
		}
		p.advance()
		actual, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		after = append(after, actual)
	}
	p.advance()
	return &ast.CallExpression{Token: tok, Name: identifier, Before: before, After: after}, nil
}
