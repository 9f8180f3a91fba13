// Package diag provides the typed error value reported by every stage of the interpreter.
package diag

import (
	"errors"
	"fmt"

	"kaulin/internal/span"
)

// Kind classifies a diagnostic.
type Kind int

const (
	Lexical    Kind = iota // unrecognized character, malformed number, unterminated literal
	Syntax                 // unexpected or missing token, malformed declaration
	Name                   // redeclaration, unbound name, assignment to a constant
	Type                   // operand or callee of the wrong type, arity mismatch
	Arithmetic             // division or modulus by zero
	Resource               // call depth exhausted
)

var kindNames = [...]string{
	Lexical:    "LexicalError",
	Syntax:     "SyntaxError",
	Name:       "NameError",
	Type:       "TypeError",
	Arithmetic: "ArithmeticError",
	Resource:   "ResourceError",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Diagnostic is a fatal error with its source location.
type Diagnostic struct {
	Kind    Kind      `json:"kind"`
	Code    string    `json:"code"`           // stable error code, e.g. "E2001"
	Message string    `json:"message"`        // human-readable description
	Span    span.Span `json:"span"`           // source location
	Hint    string    `json:"hint,omitempty"` // optional hint
}

// Error renders the diagnostic as "<Kind> [code] at line:col: message".
func (d *Diagnostic) Error() string {
	msg := fmt.Sprintf("%s [%s]", d.Kind, d.Code)
	if d.Span.Start.IsValid() {
		msg += " at " + d.Span.Start.String()
	}
	msg += ": " + d.Message
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// WithHint returns d with the hint set.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// Errorf creates a diagnostic of the given kind at s.
func Errorf(kind Kind, code string, s span.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    s,
	}
}

// As extracts a *Diagnostic from err, following wrapped errors.
func As(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// IsKind reports whether err carries a diagnostic of kind k.
func IsKind(err error, k Kind) bool {
	d, ok := As(err)
	return ok && d.Kind == k
}
