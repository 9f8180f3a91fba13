// Package lexer implements the lexical analysis (tokenization) for Kaulin source text.
package lexer

import (
	"unicode"
	"unicode/utf8"

	"kaulin/internal/diag"
	"kaulin/internal/span"
	"kaulin/internal/token"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current byte offset in source
	line int // current line (1-based)
	col  int // current column in runes (1-based)
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source. On success the slice always ends with an EOF
// token; the first lexical error stops the scan.
func Tokenize(source string) ([]token.Token, error) {
	return New(source, "").Tokenize()
}

// Tokenize scans the entire source and returns all tokens, or the first lexical error.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var tokens []token.Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// Filename returns the name the lexer was created with.
func (l *Lexer) Filename() string {
	return l.filename
}

// ---- internal helpers ----

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current rune without advancing, or 0 at end of input.
func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

// peekNext returns the rune after the current one, or 0.
func (l *Lexer) peekNext() rune {
	if l.atEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if l.pos+size >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

// advance consumes the current rune and returns it.
func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeSpan(start span.Position) span.Span {
	return span.Span{Start: start, End: l.curPos()}
}

func (l *Lexer) makeToken(kind token.Kind, lexeme string, start span.Position) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Span: l.makeSpan(start)}
}

func (l *Lexer) errorf(code string, start span.Position, format string, args ...any) *diag.Diagnostic {
	return diag.Errorf(diag.Lexical, code, l.makeSpan(start), format, args...)
}

// skipTrivia skips whitespace and comments.
func (l *Lexer) skipTrivia() error {
	for !l.atEnd() {
		ch := l.peek()
		switch {
		case unicode.IsSpace(ch):
			l.advance()
		case ch == '/' && l.peekNext() == '/':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekNext() == '*':
			start := l.curPos()
			l.advance()
			l.advance()
			closed := false
			for !l.atEnd() {
				if l.peek() == '*' && l.peekNext() == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return l.errorf("E1005", start, "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

// ---- token reading ----

func (l *Lexer) nextToken() (token.Token, error) {
	if err := l.skipTrivia(); err != nil {
		return token.Token{}, err
	}

	start := l.curPos()
	if l.atEnd() {
		return l.makeToken(token.EOF, "", start), nil
	}

	ch := l.peek()
	switch {
	case ch == '"' || ch == '\'':
		return l.readString(start)
	case isDigit(ch):
		return l.readNumber(start)
	case isIdentStart(ch):
		return l.readIdentifier(start), nil
	default:
		return l.readOperator(start)
	}
}

// readString reads a quoted literal verbatim until the matching quote.
func (l *Lexer) readString(start span.Position) (token.Token, error) {
	quote := l.advance()
	textStart := l.pos
	for !l.atEnd() {
		if l.peek() == quote {
			text := l.source[textStart:l.pos]
			l.advance()
			return l.makeToken(token.STRING, text, start), nil
		}
		l.advance()
	}
	return token.Token{}, l.errorf("E1001", start, "unterminated string literal").
		WithHint("close the string with " + string(quote))
}

// readNumber reads a maximal run of digits and dots; one dot makes a FLOAT.
func (l *Lexer) readNumber(start span.Position) (token.Token, error) {
	numStart := l.pos
	dots := 0
	for !l.atEnd() {
		ch := l.peek()
		if ch == '.' {
			dots++
		} else if !isDigit(ch) {
			break
		}
		l.advance()
	}

	lexeme := l.source[numStart:l.pos]
	switch dots {
	case 0:
		return l.makeToken(token.INT, lexeme, start), nil
	case 1:
		return l.makeToken(token.FLOAT, lexeme, start), nil
	default:
		return token.Token{}, l.errorf("E1004", start, "malformed number literal %q", lexeme)
	}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	identStart := l.pos
	for !l.atEnd() && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := l.source[identStart:l.pos]
	return l.makeToken(token.LookupIdent(lexeme), lexeme, start)
}

var singleChar = map[rune]token.Kind{
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	'[': token.LBRACKET,
	']': token.RBRACKET,
	';': token.SEMICOLON,
	':': token.COLON,
	',': token.COMMA,
	'.': token.DOT,
	'%': token.PERCENT,
	'/': token.SLASH,
}

// compound maps a first character to its two-character operators.
var compound = map[rune][]struct {
	second rune
	kind   token.Kind
}{
	'=': {{'=', token.EQ}},
	'!': {{'=', token.NEQ}},
	'<': {{'=', token.LTE}},
	'>': {{'=', token.GTE}},
	'&': {{'&', token.AND}},
	'|': {{'|', token.OR}},
	'+': {{'=', token.PLUS_ASSIGN}},
	'-': {{'=', token.MINUS_ASSIGN}},
	'*': {{'*', token.POW}},
}

// fallback is the single-character form of a compound operator's first character.
var fallback = map[rune]token.Kind{
	'=': token.ASSIGN,
	'!': token.BANG,
	'<': token.LT,
	'>': token.GT,
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.STAR,
}

// readOperator reads punctuation or an operator, preferring two-character forms.
func (l *Lexer) readOperator(start span.Position) (token.Token, error) {
	ch := l.advance()

	if kind, ok := singleChar[ch]; ok {
		return l.makeToken(kind, string(ch), start), nil
	}

	for _, c := range compound[ch] {
		if l.peek() == c.second {
			l.advance()
			return l.makeToken(c.kind, string(ch)+string(c.second), start), nil
		}
	}
	if kind, ok := fallback[ch]; ok {
		return l.makeToken(kind, string(ch), start), nil
	}

	err := l.errorf("E1003", start, "unexpected character '%c'", ch)
	switch ch {
	case '&':
		err.WithHint("did you mean '&&'?")
	case '|':
		err.WithHint("did you mean '||'?")
	}
	return token.Token{}, err
}

// ---- character classification ----

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
