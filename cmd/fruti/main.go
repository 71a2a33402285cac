// Command fruti is the compiler entry point.
//
// Usage:
//
//	fruti <command> [options] <file>
//
// Commands:
//
//	build   compile a source file to IR
//	check   report diagnostics without generating IR
//	tokens  print the token stream
//	ast     print the syntax tree
//	symbols print the global scope after analysis
//
// The exit status is 0 on success, 1 when any error was reported and 2 on
// invalid usage. Warnings never fail a run.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/driver"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/symtab"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: fruti <command> [options] <file>\n")
	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  build <file>    Compile a source file to IR\n")
	fmt.Fprintf(w, "  check <file>    Report diagnostics only\n")
	fmt.Fprintf(w, "  tokens <file>   Print the token stream\n")
	fmt.Fprintf(w, "  ast <file>      Print the syntax tree\n")
	fmt.Fprintf(w, "  symbols <file>  Print the global scope\n")
	fmt.Fprintf(w, "\nRun 'fruti <command> -h' for command options.\n")
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return exitUsage
	}

	command, rest := args[0], args[1:]
	switch command {
	case "build":
		return runBuild(rest, stdout, stderr)
	case "check":
		return runCheck(rest, stdout, stderr)
	case "tokens":
		return runTokens(rest, stdout, stderr)
	case "ast":
		return runAST(rest, stdout, stderr)
	case "symbols":
		return runSymbols(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		usage(stderr)
		return exitUsage
	}
}

// options are the flags shared by every command.
type options struct {
	verbose   bool
	context   bool
	maxErrors int
	jobs      int
}

func (o *options) register(fs *flag.FlagSet) {
	fs.BoolVar(&o.verbose, "v", false, "log each phase to stderr")
	fs.BoolVar(&o.context, "context", false, "show the source line under each diagnostic")
	fs.IntVar(&o.maxErrors, "max-errors", 0, "stop reporting semantic errors after `n` (0 for the default)")
	fs.IntVar(&o.jobs, "j", 1, "analyze up to `n` function bodies concurrently")
}

func (o *options) config(stderr io.Writer) driver.Config {
	logger := log.New(io.Discard, "", 0)
	if o.verbose {
		logger = log.New(stderr, "fruti: ", 0)
	}
	return driver.Config{
		MaxErrors: o.maxErrors,
		Jobs:      o.jobs,
		Logger:    logger,
	}
}

// parseArgs parses command flags and returns the single input file.
// On failure it returns the exit code to use instead.
func parseArgs(name string, fs *flag.FlagSet, args []string, stderr io.Writer) (string, int, bool) {
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fruti %s [options] <file>\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", exitOK, false
		}
		return "", exitUsage, false
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", exitUsage, false
	}
	return fs.Arg(0), exitOK, true
}

func readSource(path string, stderr io.Writer) (string, bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "fruti: %v\n", err)
		return "", false
	}
	return string(src), true
}

// report renders diagnostics followed by a summary line.
func report(stderr io.Writer, ds []diag.Diagnostic, src string, context bool) {
	if len(ds) == 0 {
		return
	}
	r := &diag.Renderer{}
	if context {
		r.Source = src
	}
	if err := r.Render(stderr, ds); err != nil {
		return
	}
	fmt.Fprintln(stderr, diag.Summary(ds))
}

func hasErrors(ds []diag.Diagnostic) bool {
	for _, d := range ds {
		if d.IsError() {
			return true
		}
	}
	return false
}

func runBuild(args []string, stdout, stderr io.Writer) int {
	var opts options
	var output string
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	opts.register(fs)
	fs.StringVar(&output, "o", "", "write IR to `path` (default <file>.ll, - for stdout)")

	path, code, ok := parseArgs("build", fs, args, stderr)
	if !ok {
		return code
	}
	src, ok := readSource(path, stderr)
	if !ok {
		return exitError
	}

	res, err := driver.Compile(path, src, opts.config(stderr))
	report(stderr, res.Diagnostics, src, opts.context)
	if err != nil || res.HasErrors() {
		return exitError
	}

	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".ll"
	}
	if output == "-" {
		if _, err := io.WriteString(stdout, res.IR); err != nil {
			fmt.Fprintf(stderr, "fruti: %v\n", err)
			return exitError
		}
		return exitOK
	}
	if err := os.WriteFile(output, []byte(res.IR), 0o644); err != nil {
		fmt.Fprintf(stderr, "fruti: write IR: %v\n", err)
		return exitError
	}
	return exitOK
}

func runCheck(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	opts.register(fs)

	path, code, ok := parseArgs("check", fs, args, stderr)
	if !ok {
		return code
	}
	src, ok := readSource(path, stderr)
	if !ok {
		return exitError
	}

	res := driver.Check(path, src, opts.config(stderr))
	report(stderr, res.Diagnostics, src, opts.context)
	if res.HasErrors() {
		return exitError
	}
	return exitOK
}

func runTokens(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	opts.register(fs)

	path, code, ok := parseArgs("tokens", fs, args, stderr)
	if !ok {
		return code
	}
	src, ok := readSource(path, stderr)
	if !ok {
		return exitError
	}

	diags := diag.NewCollector()
	for _, tok := range lexer.Tokenize(src, path, diags) {
		fmt.Fprintf(stdout, "%s\t%-12s %q\n", tok.Span.Start, tok.Type, tok.Lexeme)
	}

	ds := diags.Sorted()
	report(stderr, ds, src, opts.context)
	if hasErrors(ds) {
		return exitError
	}
	return exitOK
}

func runAST(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("ast", flag.ContinueOnError)
	opts.register(fs)

	path, code, ok := parseArgs("ast", fs, args, stderr)
	if !ok {
		return code
	}
	src, ok := readSource(path, stderr)
	if !ok {
		return exitError
	}

	diags := diag.NewCollector()
	file := parser.Parse(lexer.Tokenize(src, path, diags), diags)
	if err := writeAST(stdout, file); err != nil {
		fmt.Fprintf(stderr, "fruti: %v\n", err)
		return exitError
	}

	ds := diags.Sorted()
	report(stderr, ds, src, opts.context)
	if hasErrors(ds) {
		return exitError
	}
	return exitOK
}

var errNoTree = errors.New("no syntax tree")

func writeAST(w io.Writer, file *ast.File) error {
	if file == nil {
		return errNoTree
	}
	_, err := io.WriteString(w, ast.Dump(file))
	return err
}

func runSymbols(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("symbols", flag.ContinueOnError)
	opts.register(fs)

	path, code, ok := parseArgs("symbols", fs, args, stderr)
	if !ok {
		return code
	}
	src, ok := readSource(path, stderr)
	if !ok {
		return exitError
	}

	res := driver.Check(path, src, opts.config(stderr))
	if res.Info != nil && res.Info.Globals != nil {
		table := symtab.NewTableWithGlobal(res.Info.Globals)
		if _, err := io.WriteString(stdout, table.DebugString()); err != nil {
			fmt.Fprintf(stderr, "fruti: %v\n", err)
			return exitError
		}
	}

	report(stderr, res.Diagnostics, src, opts.context)
	if res.HasErrors() {
		return exitError
	}
	return exitOK
}
