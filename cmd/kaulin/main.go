// Command kaulin is the CLI entry point for the Kaulin language.
//
// Usage:
//
//	kaulin [flags]                  Start interactive REPL
//	kaulin [flags] tokens <file>    Print tokens (--json for JSON)
//	kaulin [flags] parse  <file>    Print AST as JSON
//	kaulin [flags] run    <file>    Run a .ka source file
//	kaulin [flags] repl             Start interactive REPL
//
// Flags:
//
//	-config <path>   settings file (default ~/.kaulin.yml)
//	-v               verbose logging
package main

import (
	"flag"
	"fmt"
	"os"

	"fortio.org/log"

	"kaulin/internal/ast"
	"kaulin/internal/config"
	"kaulin/internal/host"
	"kaulin/internal/runtime"
)

func main() {
	configPath := flag.String("config", "", "path to settings file (default ~/"+config.FileName+")")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	cfg := loadConfig(*configPath)
	if *verbose {
		log.SetLogLevel(log.Verbose)
	} else {
		log.SetLogLevel(cfg.Level())
	}

	args := flag.Args()
	if len(args) == 0 {
		os.Exit(cmdRepl(cfg))
	}

	command := args[0]
	switch command {
	case "tokens":
		os.Exit(cmdTokens(fileArg(args), hasFlag(args, "--json")))
	case "parse":
		os.Exit(cmdParse(fileArg(args)))
	case "run":
		os.Exit(cmdRun(cfg, fileArg(args)))
	case "repl":
		os.Exit(cmdRepl(cfg))
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command '%s'\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  kaulin [flags]                   Start interactive REPL")
	fmt.Fprintln(os.Stderr, "  kaulin [flags] tokens <file> [--json]")
	fmt.Fprintln(os.Stderr, "  kaulin [flags] parse  <file>     Parse and print AST (JSON)")
	fmt.Fprintln(os.Stderr, "  kaulin [flags] run    <file>     Run a .ka source file")
	fmt.Fprintln(os.Stderr, "  kaulin [flags] repl             Start interactive REPL")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

// loadConfig reads the settings file. An explicit -config path must exist; the
// default one is optional.
func loadConfig(path string) config.Config {
	mustExist := path != ""
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, mustExist)
	if err != nil {
		log.Warnf("using default settings: %v", err)
		return config.Default()
	}
	return cfg
}

func fileArg(args []string) string {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		os.Exit(1)
	}
	return args[1]
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args[2:] {
		if arg == flag {
			return true
		}
	}
	return false
}

func readFile(filename string) (string, bool) {
	source, err := os.ReadFile(filename)
	if err != nil {
		log.Errf("cannot read file %s: %v", filename, err)
		return "", false
	}
	return string(source), true
}

// ---- tokens command ----

func cmdTokens(filename string, jsonMode bool) int {
	source, ok := readFile(filename)
	if !ok {
		return 1
	}
	tokens, err := host.Tokenize(source, filename)
	if jsonMode {
		printTokensJSON(tokens, err)
	} else {
		printTokensText(tokens, err)
	}
	if err != nil {
		return 1
	}
	return 0
}

// ---- parse command ----

func cmdParse(filename string) int {
	source, ok := readFile(filename)
	if !ok {
		return 1
	}
	program, err := host.Parse(source, filename)

	output := map[string]any{
		"diagnostics": diagsToSlice(err),
	}
	if program != nil {
		output["ast"] = ast.NodeToMap(program)
	}
	printJSON(output)

	if err != nil {
		return 1
	}
	return 0
}

// ---- run command ----

func cmdRun(cfg config.Config, filename string) int {
	session := host.NewSession(runtime.Options{MaxCallDepth: cfg.MaxCallDepth})
	if _, err := session.RunFile(filename); err != nil {
		printError(os.Stderr, err, false)
		return 1
	}
	return 0
}
