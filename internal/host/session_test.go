package host

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaulin/internal/diag"
	"kaulin/internal/runtime"
	"kaulin/internal/token"
)

func newSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return NewSession(runtime.Options{Stdout: &out}), &out
}

func TestEvalPersistsBindings(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Eval(`olkoon x = 40`, "<repl>")
	require.NoError(t, err)
	_, err = s.Eval(`funktio kasvata(n) { n + 2 }`, "<repl>")
	require.NoError(t, err)

	val, err := s.Eval(`kasvata(x)`, "<repl>")
	require.NoError(t, err)
	assert.Equal(t, "42", val.String())
}

func TestEvalKeepsBindingsAfterRuntimeError(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Eval(`olkoon a = 1; a / 0`, "<repl>")
	require.Error(t, err)
	assert.True(t, diag.IsKind(err, diag.Arithmetic))

	val, err := s.Eval(`a`, "<repl>")
	require.NoError(t, err)
	assert.Equal(t, "1", val.String())
}

func TestEvalReportsEachStage(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.Eval(`olkoon x = @`, "<repl>")
	assert.True(t, diag.IsKind(err, diag.Lexical))

	_, err = s.Eval(`olkoon = 1`, "<repl>")
	assert.True(t, diag.IsKind(err, diag.Syntax))

	_, err = s.Eval(`puuttuu`, "<repl>")
	assert.True(t, diag.IsKind(err, diag.Name))
}

func TestEvalWritesToInjectedStdout(t *testing.T) {
	s, out := newSession(t)
	_, err := s.Eval(`tulosta("moi")`, "<repl>")
	require.NoError(t, err)
	assert.Equal(t, "moi\n", out.String())
}

func TestRunFile(t *testing.T) {
	s, out := newSession(t)
	path := filepath.Join(t.TempDir(), "ohjelma.ka")
	require.NoError(t, os.WriteFile(path, []byte("olkoon n = 6\ntulosta(n * 7)\nn"), 0o644))

	val, err := s.RunFile(path)
	require.NoError(t, err)
	assert.Equal(t, "6", val.String())
	assert.Equal(t, "42\n", out.String())
}

func TestRunFileRequiresExtension(t *testing.T) {
	s, _ := newSession(t)
	path := filepath.Join(t.TempDir(), "ohjelma.txt")
	require.NoError(t, os.WriteFile(path, []byte("1"), 0o644))

	_, err := s.RunFile(path)
	require.Error(t, err)
	assert.Equal(t, ErrNotSource, errors.Cause(err))
}

func TestRunFileMissing(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.RunFile(filepath.Join(t.TempDir(), "puuttuu.ka"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestRunFileDiagnosticCarriesPosition(t *testing.T) {
	s, _ := newSession(t)
	path := filepath.Join(t.TempDir(), "virhe.ka")
	require.NoError(t, os.WriteFile(path, []byte("olkoon x = 1\n\nx()"), 0o644))

	_, err := s.RunFile(path)
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.Type, d.Kind)
	assert.Equal(t, 3, d.Span.Start.Line)
}

func TestTokenizeAndParse(t *testing.T) {
	tokens, err := Tokenize(`olkoon x = 1`, "t.ka")
	require.NoError(t, err)
	assert.Equal(t, token.KW_LET, tokens[0].Kind)
	assert.Equal(t, token.EOF, tokens[len(tokens)-1].Kind)

	program, err := Parse("olkoon x = 1; x", "t.ka")
	require.NoError(t, err)
	assert.Len(t, program.Body, 2)
}

func TestEnvExposesRootBindings(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.Eval(`olkoon x = 1; jos tosi { olkoon sisä = 2 }`, "<repl>")
	require.NoError(t, err)

	val, err := s.Env().Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, "1", val.String())
	_, err = s.Env().Lookup("sisä")
	assert.True(t, diag.IsKind(err, diag.Name))
}
