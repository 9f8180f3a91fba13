package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"kaulin/internal/diag"
	"kaulin/internal/token"
)

// ---- ANSI colors ----

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// ---- output helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: JSON encoding failed: %v\n", err)
		os.Exit(1)
	}
}

// printError writes err to w. Diagnostics get their hint on a second line.
func printError(w io.Writer, err error, color bool) {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}

	d, ok := diag.As(err)
	if !ok {
		fmt.Fprintln(w, paint(colorRed, "error: "+err.Error()))
		return
	}
	hint := d.Hint
	d.Hint = ""
	fmt.Fprintln(w, paint(colorRed, d.Error()))
	if hint != "" {
		fmt.Fprintln(w, paint(colorYellow, "  hint: "+hint))
	}
	d.Hint = hint
}

func diagsToSlice(err error) []map[string]any {
	result := []map[string]any{}
	if err == nil {
		return result
	}
	d, ok := diag.As(err)
	if !ok {
		return append(result, map[string]any{"message": err.Error()})
	}
	entry := map[string]any{
		"kind":    d.Kind.String(),
		"code":    d.Code,
		"message": d.Message,
		"line":    d.Span.Start.Line,
		"column":  d.Span.Start.Column,
		"offset":  d.Span.Start.Offset,
	}
	if d.Hint != "" {
		entry["hint"] = d.Hint
	}
	return append(result, entry)
}

// ---- token output helpers ----

func printTokensText(tokens []token.Token, err error) {
	for _, tok := range tokens {
		fmt.Printf("%-12s %-20s %d:%d\n", tok.Kind, tok.Lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
	if err != nil {
		printError(os.Stderr, err, false)
	}
}

func printTokensJSON(tokens []token.Token, err error) {
	type tokenJSON struct {
		Kind   string `json:"kind"`
		Lexeme string `json:"lexeme"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
		Offset int    `json:"offset"`
	}

	toks := []tokenJSON{}
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}

	printJSON(map[string]any{
		"tokens":      toks,
		"diagnostics": diagsToSlice(err),
	})
}
