package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaulin/internal/host"
	"kaulin/internal/runtime"
)

func TestPrintErrorDiagnostic(t *testing.T) {
	_, err := host.Tokenize(`"auki`, "t.ka")
	require.Error(t, err)

	var buf bytes.Buffer
	printError(&buf, err, false)
	assert.Equal(t, "LexicalError [E1001] at 1:1: unterminated string literal\n  hint: close the string with \"\n", buf.String())
}

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("levy täynnä"), false)
	assert.Equal(t, "error: levy täynnä\n", buf.String())
}

func TestPrintErrorColor(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.New("x"), true)
	assert.Equal(t, colorRed+"error: x"+colorReset+"\n", buf.String())
}

func TestDiagsToSlice(t *testing.T) {
	assert.Empty(t, diagsToSlice(nil))

	_, err := host.Parse("olkoon x =\n", "t.ka")
	require.Error(t, err)
	entries := diagsToSlice(err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SyntaxError", entries[0]["kind"])
	assert.Equal(t, "E2002", entries[0]["code"])
	assert.Equal(t, 2, entries[0]["line"])
}

func TestOpenBraces(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{`funktio f() {`, 1},
		{"funktio f() {\n  1\n}", 0},
		{`tulosta("{x")`, 0},
		{`tulosta('}')`, 0},
		{"olkoon a = 1 // {\n", 0},
		{"/* { */ jos tosi {", 1},
		{"/* {", 0},
		{`jos tosi { "}" `, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, openBraces(tt.src), tt.src)
	}
}

func TestPrintBindings(t *testing.T) {
	session := host.NewSession(runtime.Options{Stdout: &bytes.Buffer{}})
	_, err := session.Eval(`olkoon b = [1, "a"]; vakio a = 2`, "<repl>")
	require.NoError(t, err)

	var buf bytes.Buffer
	printBindings(&buf, session.Env())
	out := buf.String()
	assert.Contains(t, out, "a = 2\nb = [1, \"a\"]\n")
	assert.NotContains(t, out, "tulosta")
}
