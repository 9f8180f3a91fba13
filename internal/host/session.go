// Package host drives the pipeline from source text to a value and keeps one root
// environment alive across evaluations.
package host

import (
	"os"
	"path/filepath"

	"fortio.org/log"
	"github.com/pkg/errors"

	"kaulin/internal/ast"
	"kaulin/internal/lexer"
	"kaulin/internal/parser"
	"kaulin/internal/runtime"
	"kaulin/internal/token"
)

// SourceExt is the extension RunFile requires.
const SourceExt = ".ka"

// ErrNotSource is returned by RunFile for paths without the .ka extension.
var ErrNotSource = errors.New("not a Kaulin source file")

// Session evaluates programs against a persistent root environment, so bindings made
// by one Eval are visible to the next. A Session is not safe for concurrent use.
type Session struct {
	env    *runtime.Environment
	interp *runtime.Interpreter
}

// NewSession creates a session with a fresh root environment.
func NewSession(opts runtime.Options) *Session {
	return &Session{
		env:    runtime.NewGlobalEnvironment(opts),
		interp: runtime.NewInterpreter(opts),
	}
}

// Env returns the session's root environment. The REPL lists it for :vars.
func (s *Session) Env() *runtime.Environment {
	return s.env
}

// Tokenize runs only the lexer.
func Tokenize(source, filename string) ([]token.Token, error) {
	lx := lexer.New(source, filename)
	tokens, err := lx.Tokenize()
	log.LogVf("tokenized %s: %d tokens", lx.Filename(), len(tokens))
	return tokens, err
}

// Parse runs the lexer and the parser.
func Parse(source, filename string) (*ast.Program, error) {
	tokens, err := Tokenize(source, filename)
	if err != nil {
		return nil, err
	}
	return parser.New(tokens).Parse()
}

// Eval tokenizes, parses and evaluates source. Errors are returned as the
// *diag.Diagnostic produced by the failing stage. Bindings made before a runtime
// error stay in the environment.
func (s *Session) Eval(source, filename string) (runtime.Value, error) {
	program, err := Parse(source, filename)
	if err != nil {
		return nil, err
	}
	log.LogVf("evaluating %s: %d statements", filename, len(program.Body))
	return s.interp.Evaluate(program, s.env)
}

// RunFile reads and evaluates a .ka file.
func (s *Session) RunFile(path string) (runtime.Value, error) {
	if filepath.Ext(path) != SourceExt {
		return nil, errors.Wrapf(ErrNotSource, "%s: expected a %s file", path, SourceExt)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	log.Infof("running %s (%d bytes)", path, len(source))
	return s.Eval(string(source), path)
}
