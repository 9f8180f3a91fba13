package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"fortio.org/log"
	"github.com/chzyer/readline"

	"kaulin/internal/config"
	"kaulin/internal/host"
	"kaulin/internal/runtime"
)

// ---- repl command ----

func cmdRepl(cfg config.Config) int {
	paint := func(c, s string) string {
		if !cfg.Color {
			return s
		}
		return c + s + colorReset
	}
	prompt := paint(colorGreen, cfg.Prompt)
	contPrompt := paint(colorGray, strings.Repeat(".", max(len(strings.TrimSpace(cfg.Prompt)), 3))+" ")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		log.Errf("readline init failed: %v", err)
		return 1
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s %s\n\n",
		paint(colorBold+colorCyan, "Kaulin REPL"), paint(colorGray, "(type 'exit' or Ctrl+D to quit)"))

	session := host.NewSession(runtime.Options{
		Stdout:       rl.Stdout(),
		Stdin:        &promptReader{rl: rl},
		MaxCallDepth: cfg.MaxCallDepth,
	})
	var accumulated strings.Builder
	braceDepth := 0

	for {
		if braceDepth > 0 {
			rl.SetPrompt(contPrompt)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if braceDepth > 0 {
					// cancel multi-line input
					accumulated.Reset()
					braceDepth = 0
					continue
				}
				fmt.Fprintf(rl.Stdout(), "\n%s\n", paint(colorGray, "(use 'exit' or Ctrl+D to quit)"))
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(rl.Stdout())
			}
			return 0
		}

		if braceDepth == 0 {
			switch strings.TrimSpace(line) {
			case "exit":
				return 0
			case ":vars":
				printBindings(rl.Stdout(), session.Env())
				continue
			}
		}

		accumulated.WriteString(line)
		accumulated.WriteString("\n")
		braceDepth = openBraces(accumulated.String())
		if braceDepth > 0 {
			continue
		}
		braceDepth = 0

		source := accumulated.String()
		accumulated.Reset()
		if strings.TrimSpace(source) == "" {
			continue
		}

		val, err := session.Eval(source, "<repl>")
		if err != nil {
			printError(rl.Stderr(), err, cfg.Color)
			continue
		}
		fmt.Fprintln(rl.Stdout(), paint(colorYellow, val.String()))
	}
}

// printBindings lists the non-native bindings of env, sorted by name.
func printBindings(w io.Writer, env *runtime.Environment) {
	snapshot := env.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name, val := range snapshot {
		if _, native := val.(*runtime.NativeFuncVal); !native {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s = %s\n", name, snapshot[name])
	}
}

// openBraces returns how many '{' in src are still unclosed, skipping string
// literals and comments.
func openBraces(src string) int {
	depth := 0
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; {
		case c == '"' || c == '\'':
			for i++; i < len(runes) && runes[i] != c; i++ {
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				i++
			}
			i++
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
	}
	return depth
}

// promptReader feeds syöte from readline, which owns the terminal while the REPL runs.
type promptReader struct {
	rl  *readline.Instance
	buf []byte
}

func (r *promptReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		r.rl.SetPrompt("")
		line, err := r.rl.Readline()
		if err != nil {
			return 0, io.EOF
		}
		r.buf = []byte(line + "\n")
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
