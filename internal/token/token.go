// Package token defines the token types produced by the lexer.
package token

import (
	"fmt"

	"kaulin/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Literals
	IDENT  // identifiers: x, summa, epätosi
	INT    // integer literals: 123
	FLOAT  // float literals: 3.14
	STRING // string literals: "hei", 'hei'

	// Operators
	ASSIGN  // =
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	POW     // **
	BANG    // !

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	AND // &&
	OR  // ||

	// Compound assignment
	PLUS_ASSIGN  // +=
	MINUS_ASSIGN // -=

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :

	// Keywords
	KW_LET      // olkoon
	KW_CONST    // vakio
	KW_FUNCTION // funktio
	KW_IF       // jos
	KW_ELSE     // muuten
	KW_WHILE    // kun
	KW_FOR      // toista
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ASSIGN:       "=",
	PLUS:         "+",
	MINUS:        "-",
	STAR:         "*",
	SLASH:        "/",
	PERCENT:      "%",
	POW:          "**",
	BANG:         "!",
	EQ:           "==",
	NEQ:          "!=",
	LT:           "<",
	LTE:          "<=",
	GT:           ">",
	GTE:          ">=",
	AND:          "&&",
	OR:           "||",
	PLUS_ASSIGN:  "+=",
	MINUS_ASSIGN: "-=",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACKET:  "[",
	RBRACKET:  "]",
	COMMA:     ",",
	DOT:       ".",
	SEMICOLON: ";",
	COLON:     ":",

	KW_LET:      "olkoon",
	KW_CONST:    "vakio",
	KW_FUNCTION: "funktio",
	KW_IF:       "jos",
	KW_ELSE:     "muuten",
	KW_WHILE:    "kun",
	KW_FOR:      "toista",
}

// String returns the human-readable name for a token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword returns true if the kind is a keyword.
func (k Kind) IsKeyword() bool {
	return k >= KW_LET && k <= KW_FOR
}

// IsLiteral returns true if the kind is a literal (ident/int/float/string).
func (k Kind) IsLiteral() bool {
	return k >= IDENT && k <= STRING
}

var keywords = map[string]Kind{
	"olkoon":  KW_LET,
	"vakio":   KW_CONST,
	"funktio": KW_FUNCTION,
	"jos":     KW_IF,
	"muuten":  KW_ELSE,
	"kun":     KW_WHILE,
	"toista":  KW_FOR,
}

// LookupIdent returns the keyword Kind for ident, or IDENT if it is not a keyword.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is an immutable lexical token with its kind, text and source location.
type Token struct {
	Kind   Kind      `json:"kind"`
	Lexeme string    `json:"lexeme"`
	Span   span.Span `json:"span"`
}

// String returns a human-readable representation of the token.
func (t Token) String() string {
	return fmt.Sprintf("%s %q %s", t.Kind, t.Lexeme, t.Span.Start)
}
