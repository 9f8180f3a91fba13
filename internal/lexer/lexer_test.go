package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaulin/internal/diag"
	"kaulin/internal/token"
)

func kinds(t *testing.T, source string) []token.Kind {
	t.Helper()
	tokens, err := New(source, "test.ka").Tokenize()
	require.NoError(t, err)
	out := make([]token.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeSimple(t *testing.T) {
	assert.Equal(t, []token.Kind{
		token.KW_LET, token.IDENT, token.ASSIGN,
		token.INT, token.PLUS, token.INT, token.SEMICOLON, token.EOF,
	}, kinds(t, `olkoon x = 1 + 2;`))
}

func TestTokenizeKeywords(t *testing.T) {
	assert.Equal(t, []token.Kind{
		token.KW_LET, token.KW_CONST, token.KW_FUNCTION, token.KW_IF,
		token.KW_ELSE, token.KW_WHILE, token.KW_FOR, token.EOF,
	}, kinds(t, `olkoon vakio funktio jos muuten kun toista`))
}

func TestTokenizeOperators(t *testing.T) {
	assert.Equal(t, []token.Kind{
		token.ASSIGN, token.EQ, token.NEQ,
		token.LT, token.LTE, token.GT, token.GTE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.POW, token.BANG, token.AND, token.OR,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN,
		token.EOF,
	}, kinds(t, `= == != < <= > >= + - * / % ** ! && || += -=`))
}

func TestTokenizeGreedyWithoutSpaces(t *testing.T) {
	assert.Equal(t, []token.Kind{
		token.IDENT, token.POW, token.MINUS, token.INT, token.EOF,
	}, kinds(t, `a**-2`))
	assert.Equal(t, []token.Kind{
		token.IDENT, token.PLUS_ASSIGN, token.INT, token.EOF,
	}, kinds(t, `a+=1`))
}

func TestTokenizeDelimiters(t *testing.T) {
	assert.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.DOT,
		token.SEMICOLON, token.COLON,
		token.EOF,
	}, kinds(t, `( ) { } [ ] , . ; :`))
}

func TestTokenizeStrings(t *testing.T) {
	tokens, err := Tokenize(`"hei maailma" 'yksi "lainaus"' "a\nb"`)
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	assert.Equal(t, token.STRING, tokens[0].Kind)
	assert.Equal(t, "hei maailma", tokens[0].Lexeme)
	assert.Equal(t, `yksi "lainaus"`, tokens[1].Lexeme)
	// no escape processing
	assert.Equal(t, `a\nb`, tokens[2].Lexeme)
}

func TestTokenizeNumbers(t *testing.T) {
	tokens, err := Tokenize(`123 3.14 0 42`)
	require.NoError(t, err)

	assert.Equal(t, token.INT, tokens[0].Kind)
	assert.Equal(t, "123", tokens[0].Lexeme)
	assert.Equal(t, token.FLOAT, tokens[1].Kind)
	assert.Equal(t, "3.14", tokens[1].Lexeme)
	assert.Equal(t, token.INT, tokens[3].Kind)
}

func TestTokenizeUnicodeIdentifiers(t *testing.T) {
	tokens, err := Tokenize(`epätosi tyhjä _x1`)
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, "epätosi", tokens[0].Lexeme)
	assert.Equal(t, "tyhjä", tokens[1].Lexeme)
	assert.Equal(t, token.IDENT, tokens[2].Kind)
}

func TestTokenizeComments(t *testing.T) {
	assert.Equal(t, []token.Kind{token.IDENT, token.IDENT, token.EOF},
		kinds(t, "x // rivikommentti\ny"))
	assert.Equal(t, []token.Kind{token.IDENT, token.IDENT, token.EOF},
		kinds(t, "x /* lohko\n * kommentti */ y"))
	assert.Equal(t, []token.Kind{token.INT, token.EOF},
		kinds(t, "/* a */ 1 /* b */"))
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Equal(t, []token.Kind{token.EOF}, kinds(t, ""))
	assert.Equal(t, []token.Kind{token.EOF}, kinds(t, "  \n\t // vain kommentti"))
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("olkoon x = 1\n  y")
	require.NoError(t, err)

	assert.Equal(t, 1, tokens[0].Span.Start.Line)
	assert.Equal(t, 1, tokens[0].Span.Start.Column)
	assert.Equal(t, 8, tokens[1].Span.Start.Column)
	assert.Equal(t, 2, tokens[4].Span.Start.Line)
	assert.Equal(t, 3, tokens[4].Span.Start.Column)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"unexpected character", "olkoon x = 1 @ 2", "E1003"},
		{"lone ampersand", "a & b", "E1003"},
		{"lone pipe", "a | b", "E1003"},
		{"second dot", "1.2.3", "E1004"},
		{"unterminated string", `"auki`, "E1001"},
		{"unterminated single-quoted string", `'auki`, "E1001"},
		{"unterminated block comment", "1 /* ei lopu", "E1005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.source)
			require.Error(t, err)
			assert.Nil(t, tokens)

			d, ok := diag.As(err)
			require.True(t, ok)
			assert.Equal(t, diag.Lexical, d.Kind)
			assert.Equal(t, tt.code, d.Code)
		})
	}
}

func TestTokenizeErrorNamesCharacterAndPosition(t *testing.T) {
	_, err := Tokenize("x\n  $")
	require.Error(t, err)
	d, _ := diag.As(err)
	assert.Contains(t, d.Message, "'$'")
	assert.Equal(t, 2, d.Span.Start.Line)
	assert.Equal(t, 3, d.Span.Start.Column)
}

func TestLexerKeepsFilename(t *testing.T) {
	assert.Equal(t, "ohjelma.ka", New("1", "ohjelma.ka").Filename())
}
