// Package parser implements the syntax analysis for Kaulin.
// Expressions use precedence climbing with one function per level; statements use
// recursive descent. The first syntax error aborts the parse.
package parser

import (
	"strconv"

	"kaulin/internal/ast"
	"kaulin/internal/diag"
	"kaulin/internal/span"
	"kaulin/internal/token"
)

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a new parser from a token slice.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses tokens into a Program.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).Parse()
}

// Parse parses the whole token stream. It returns either a complete Program or the
// first syntax error, never both.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{}
	startPos := p.peek().Span.Start

	p.skipSep()
	for !p.isAtEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		program.Body = append(program.Body, stmt)
		p.skipSep()
	}

	program.StmtBase = makeStmtBase(startPos, p.peek().Span.End)
	return program, nil
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekKind() token.Kind {
	return p.peek().Kind
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peekKind() == kind
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			return true
		}
	}
	return false
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errorf("E2001", tok.Span, "expected '%s', got %s", kind, describe(tok))
}

func (p *Parser) isAtEnd() bool {
	return p.peekKind() == token.EOF
}

// skipSep skips optional statement terminators.
func (p *Parser) skipSep() {
	for p.check(token.SEMICOLON) {
		p.advance()
	}
}

func (p *Parser) errorf(code string, s span.Span, format string, args ...any) *diag.Diagnostic {
	return diag.Errorf(diag.Syntax, code, s, format, args...)
}

func describe(tok token.Token) string {
	if tok.Kind == token.EOF {
		return "end of input"
	}
	return "'" + tok.Lexeme + "'"
}

// ============================================================
// Statement parsing
// ============================================================

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peekKind() {
	case token.KW_LET, token.KW_CONST:
		return p.parseVarDecl()
	case token.KW_FUNCTION:
		return p.parseFuncDecl()
	case token.KW_WHILE:
		return p.parseWhile()
	case token.KW_FOR:
		return p.parseFor()
	default:
		return p.parseExprStmt()
	}
}

// parseVarDecl parses: (olkoon | vakio) IDENT [ = expr ]
func (p *Parser) parseVarDecl() (*ast.VarDeclaration, error) {
	start := p.advance()
	decl := &ast.VarDeclaration{Constant: start.Kind == token.KW_CONST}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err.(*diag.Diagnostic).WithHint("a declaration needs a name")
	}
	decl.Name = nameTok.Lexeme

	if p.check(token.ASSIGN) {
		p.advance()
		decl.Value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	} else if decl.Constant {
		return nil, p.errorf("E2004", p.makeSpan(start.Span.Start),
			"constant '%s' must be initialized", decl.Name)
	}

	decl.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return decl, nil
}

// parseFuncDecl parses: funktio IDENT ( params ) block
func (p *Parser) parseFuncDecl() (*ast.FunctionDeclaration, error) {
	start := p.advance()
	decl := &ast.FunctionDeclaration{}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	decl.Name = nameTok.Lexeme

	if decl.Params, err = p.parseParamList(); err != nil {
		return nil, err
	}
	if decl.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	decl.StmtBase = makeStmtBase(start.Span.Start, p.prevEnd())
	return decl, nil
}

// parseParamList parses: ( ident, ident, ... )
func (p *Parser) parseParamList() ([]string, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	params := []string{}
	if !p.check(token.RPAREN) {
		for {
			nameTok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, nameTok.Lexeme)
			if !p.check(token.COMMA) {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseWhile parses: kun expr block
func (p *Parser) parseWhile() (*ast.WhileLoop, error) {
	start := p.advance()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileLoop{
		StmtBase:  makeStmtBase(start.Span.Start, p.prevEnd()),
		Condition: cond,
		Body:      body,
	}, nil
}

// parseFor parses: toista ( [olkoon] IDENT = expr ; cond ; increment ) block
// The initializer becomes a synthetic VarDeclaration.
func (p *Parser) parseFor() (*ast.ForLoop, error) {
	start := p.advance()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	initStart := p.peek().Span.Start
	if p.check(token.KW_LET) {
		p.advance()
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	initVal, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	init := &ast.VarDeclaration{
		StmtBase: makeStmtBase(initStart, p.prevEnd()),
		Name:     nameTok.Lexeme,
		Value:    initVal,
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	incr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForLoop{
		StmtBase:  makeStmtBase(start.Span.Start, p.prevEnd()),
		Init:      init,
		Condition: cond,
		Increment: incr,
		Body:      body,
	}, nil
}

func (p *Parser) parseExprStmt() (*ast.ExpressionStatement, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{
		StmtBase: makeStmtBase(expr.GetSpan().Start, expr.GetSpan().End),
		Expr:     expr,
	}, nil
}

// parseBlock parses: { stmts }
func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Stmts: []ast.Stmt{}}

	p.skipSep()
	for !p.check(token.RBRACE) {
		if p.isAtEnd() {
			return nil, p.errorf("E2003", p.peek().Span, "missing '}' to close block opened at %s", open.Span.Start).
				WithHint("every '{' needs a matching '}'")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
		p.skipSep()
	}
	p.advance() // consume '}'

	block.Span = p.makeSpan(open.Span.Start)
	return block, nil
}

// ============================================================
// Expression parsing, loosest level first
// ============================================================

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssignment()
}

// parseAssignment is right-associative: a = b = c assigns c to both.
func (p *Parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if !p.check(token.ASSIGN) {
		return left, nil
	}
	p.advance()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentExpr{
		ExprBase: makeExprBase(left.GetSpan().Start, value.GetSpan().End),
		Assignee: left,
		Value:    value,
	}, nil
}

var comparisonOps = map[token.Kind]ast.BinaryOperator{
	token.EQ:  ast.Equal,
	token.NEQ: ast.NotEqual,
	token.LT:  ast.LessThan,
	token.GT:  ast.GreaterThan,
	token.LTE: ast.LessThanOrEqual,
	token.GTE: ast.GreaterThanOrEqual,
}

var logicalOps = map[token.Kind]ast.BinaryOperator{
	token.AND: ast.And,
	token.OR:  ast.Or,
}

var additiveOps = map[token.Kind]ast.BinaryOperator{
	token.PLUS:  ast.Add,
	token.MINUS: ast.Subtract,
}

var compoundOps = map[token.Kind]ast.BinaryOperator{
	token.PLUS_ASSIGN:  ast.Add,
	token.MINUS_ASSIGN: ast.Subtract,
}

var multiplicativeOps = map[token.Kind]ast.BinaryOperator{
	token.STAR:    ast.Multiply,
	token.SLASH:   ast.Divide,
	token.PERCENT: ast.Modulus,
}

var exponentOps = map[token.Kind]ast.BinaryOperator{
	token.POW: ast.Exponent,
}

// parseLeftAssoc folds `operand (op operand)*` from the left.
func (p *Parser) parseLeftAssoc(ops map[token.Kind]ast.BinaryOperator, operand func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.peekKind()]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			ExprBase: makeExprBase(left.GetSpan().Start, right.GetSpan().End),
			Op:       op,
			Left:     left,
			Right:    right,
		}
	}
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	return p.parseLeftAssoc(comparisonOps, p.parseLogical)
}

func (p *Parser) parseLogical() (ast.Expr, error) {
	return p.parseLeftAssoc(logicalOps, p.parseAdditive)
}

// parseAdditive handles + and -, and desugars `a += b` into `a = a + b`.
func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseLeftAssoc(additiveOps, p.parseMultiplicative)
	if err != nil {
		return nil, err
	}
	op, ok := compoundOps[p.peekKind()]
	if !ok {
		return left, nil
	}
	p.advance()
	rhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	whole := makeExprBase(left.GetSpan().Start, rhs.GetSpan().End)
	return &ast.AssignmentExpr{
		ExprBase: whole,
		Assignee: left,
		Value: &ast.BinaryExpr{
			ExprBase: whole,
			Op:       op,
			Left:     left,
			Right:    rhs,
		},
	}, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseLeftAssoc(multiplicativeOps, p.parseExponent)
}

// parseExponent folds ** from the left, so 2 ** 3 ** 2 is (2 ** 3) ** 2.
func (p *Parser) parseExponent() (ast.Expr, error) {
	return p.parseLeftAssoc(exponentOps, p.parseUnary)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	var op ast.UnaryOperator
	switch p.peekKind() {
	case token.MINUS:
		op = ast.Negate
	case token.BANG:
		op = ast.Not
	default:
		return p.parseCallMember()
	}
	start := p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{
		ExprBase: makeExprBase(start.Span.Start, operand.GetSpan().End),
		Op:       op,
		Operand:  operand,
	}, nil
}

// parseCallMember parses chains of .ident, [expr] and (args) suffixes.
func (p *Parser) parseCallMember() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peekKind() {
		case token.DOT:
			p.advance()
			propTok, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err.(*diag.Diagnostic).WithHint("use [ ] for computed member access")
			}
			expr = &ast.MemberExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, propTok.Span.End),
				Object:   expr,
				Property: &ast.Identifier{
					ExprBase: makeExprBase(propTok.Span.Start, propTok.Span.End),
					Symbol:   propTok.Lexeme,
				},
			}

		case token.LBRACKET:
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(token.RBRACKET)
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, end.Span.End),
				Object:   expr,
				Property: index,
				Computed: true,
			}

		case token.LPAREN:
			args, end, err := p.parseArgs(token.LPAREN, token.RPAREN)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{
				ExprBase: makeExprBase(expr.GetSpan().Start, end),
				Callee:   expr,
				Args:     args,
			}

		default:
			return expr, nil
		}
	}
}

// parseArgs parses `open expr, expr, ... close`; a trailing comma is allowed.
func (p *Parser) parseArgs(open, close token.Kind) ([]ast.Expr, span.Position, error) {
	if _, err := p.expect(open); err != nil {
		return nil, span.Position{}, err
	}
	args := []ast.Expr{}
	for !p.check(close) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, span.Position{}, err
		}
		args = append(args, arg)
		if !p.check(token.COMMA) {
			break
		}
		p.advance()
	}
	end, err := p.expect(close)
	if err != nil {
		return nil, span.Position{}, err
	}
	return args, end.Span.End, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	base := makeExprBase(tok.Span.Start, tok.Span.End)

	switch tok.Kind {
	case token.IDENT:
		p.advance()
		return &ast.Identifier{ExprBase: base, Symbol: tok.Lexeme}, nil

	case token.INT:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorf("E2005", tok.Span, "invalid number literal %q", tok.Lexeme)
		}
		return &ast.NumericLiteral{ExprBase: base, Value: val}, nil

	case token.FLOAT:
		p.advance()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, p.errorf("E2005", tok.Span, "invalid number literal %q", tok.Lexeme)
		}
		return &ast.FloatLiteral{ExprBase: base, Value: val}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLiteral{ExprBase: base, Value: tok.Lexeme}, nil

	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case token.LBRACKET:
		elements, end, err := p.parseArgs(token.LBRACKET, token.RBRACKET)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{
			ExprBase: makeExprBase(tok.Span.Start, end),
			Elements: elements,
		}, nil

	case token.LBRACE:
		return p.parseObjectLiteral()

	case token.KW_IF:
		return p.parseIfElse()

	default:
		return nil, p.errorf("E2002", tok.Span, "unexpected %s in expression", describe(tok))
	}
}

// parseObjectLiteral parses: { key: expr, key, ... }
func (p *Parser) parseObjectLiteral() (*ast.ObjectLiteral, error) {
	open := p.advance()
	obj := &ast.ObjectLiteral{Properties: []ast.Property{}}

	for !p.check(token.RBRACE) {
		if p.isAtEnd() {
			return nil, p.errorf("E2003", p.peek().Span, "missing '}' to close object opened at %s", open.Span.Start)
		}
		keyTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		prop := ast.Property{Key: keyTok.Lexeme}

		// shorthand { key } and { key, }
		if p.match(token.COMMA, token.RBRACE) {
			if p.check(token.COMMA) {
				p.advance()
			}
			prop.Span = keyTok.Span
			obj.Properties = append(obj.Properties, prop)
			continue
		}

		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		if prop.Value, err = p.parseExpr(); err != nil {
			return nil, err
		}
		prop.Span = span.Span{Start: keyTok.Span.Start, End: p.prevEnd()}
		obj.Properties = append(obj.Properties, prop)

		if !p.check(token.RBRACE) {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
	}
	p.advance() // consume '}'

	obj.ExprBase = makeExprBase(open.Span.Start, p.prevEnd())
	return obj, nil
}

// parseIfElse parses: jos expr block [ muuten ( block | jos ... ) ]
func (p *Parser) parseIfElse() (*ast.IfElseExpr, error) {
	start := p.advance()
	expr := &ast.IfElseExpr{}

	var err error
	if expr.Condition, err = p.parseExpr(); err != nil {
		return nil, err
	}
	if expr.Then, err = p.parseBlock(); err != nil {
		return nil, err
	}

	if p.check(token.KW_ELSE) {
		p.advance()
		if p.check(token.KW_IF) {
			// muuten jos: the else branch holds the nested if as its only statement
			nested, err := p.parseIfElse()
			if err != nil {
				return nil, err
			}
			expr.Else = &ast.Block{
				Span: nested.Span,
				Stmts: []ast.Stmt{&ast.ExpressionStatement{
					StmtBase: makeStmtBase(nested.Span.Start, nested.Span.End),
					Expr:     nested,
				}},
			}
		} else if expr.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}

	expr.ExprBase = makeExprBase(start.Span.Start, p.prevEnd())
	return expr, nil
}

// ============================================================
// Span helpers
// ============================================================

func (p *Parser) prevEnd() span.Position {
	if p.pos > 0 && p.pos-1 < len(p.tokens) {
		return p.tokens[p.pos-1].Span.End
	}
	return p.peek().Span.Start
}

func (p *Parser) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: p.prevEnd()}
}

func makeExprBase(start, end span.Position) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}

func makeStmtBase(start, end span.Position) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: span.Span{Start: start, End: end}}}
}
