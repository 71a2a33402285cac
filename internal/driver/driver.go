// Package driver runs the compiler pipeline over one source file.
//
// PIPELINE:
// 1. Lexical analysis (lexer.Tokenize)
// 2. Syntax analysis (parser.Parse)
// 3. Semantic analysis (semantic.Analyze)
// 4. IR generation (ir.Generate), only when no phase reported an error
//
// Every phase reports into one diagnostics collector and hands its output to
// the next phase even when it found errors, so a single run reports problems
// from all front-end phases.
package driver

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fruti-lang/fruti/internal/diag"
	"github.com/fruti-lang/fruti/internal/ir"
	"github.com/fruti-lang/fruti/internal/lexer"
	"github.com/fruti-lang/fruti/internal/parser"
	"github.com/fruti-lang/fruti/internal/parser/ast"
	"github.com/fruti-lang/fruti/internal/semantic"
)

// Config carries settings into the pipeline. The zero value is usable.
type Config struct {
	// ModuleName names the IR module. Empty means the file's base name
	// without its extension.
	ModuleName string

	// MaxErrors caps semantic error reporting; 0 means
	// semantic.DefaultMaxErrors.
	MaxErrors int

	// Jobs is the number of function bodies analyzed concurrently. Values
	// below 2 analyze sequentially.
	Jobs int

	// Logger receives one line per phase. Nil discards.
	Logger *log.Logger
}

// Result holds everything the pipeline produced. Fields for phases that did
// not run are nil.
type Result struct {
	Tokens []lexer.Token
	File   *ast.File
	Info   *semantic.Info
	Module *ir.Module

	// IR is the textual form of Module
	IR string

	// Diagnostics from all phases, sorted by position
	Diagnostics []diag.Diagnostic
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Check tokenizes, parses and analyzes src. It never generates IR.
func Check(filename, src string, cfg Config) *Result {
	diags := diag.NewCollector()
	res := check(filename, src, cfg, diags)
	res.Diagnostics = diags.Sorted()
	return res
}

// Compile runs the full pipeline. Code generation runs only when the front
// end reported no errors. The returned error is non-nil only for a failure
// of the compiler itself and wraps ir.ErrInternal; it is also reported as an
// InternalError diagnostic.
func Compile(filename, src string, cfg Config) (*Result, error) {
	diags := diag.NewCollector()
	res := check(filename, src, cfg, diags)

	var err error
	if !diags.HasErrors() {
		logger := loggerOf(cfg)
		start := time.Now()
		res.Module, err = ir.Generate(res.File, res.Info, moduleName(filename, cfg))
		if err != nil {
			diags.Errorf(diag.PhaseCodegen, diag.KindInternalError, res.File.Span(), "%v", err)
			err = fmt.Errorf("generate %s: %w", filename, err)
		} else {
			res.IR = res.Module.String()
			logger.Printf("codegen: %d functions, %d strings in %s",
				len(res.Module.Functions), len(res.Module.Strings), time.Since(start))
		}
	}

	res.Diagnostics = diags.Sorted()
	return res, err
}

// check runs the front end, reporting into diags.
func check(filename, src string, cfg Config, diags *diag.Collector) *Result {
	logger := loggerOf(cfg)
	res := &Result{}

	start := time.Now()
	res.Tokens = lexer.Tokenize(src, filename, diags)
	logger.Printf("lex: %d tokens, %d diagnostics in %s", len(res.Tokens), diags.Len(), time.Since(start))

	start = time.Now()
	res.File = parser.Parse(res.Tokens, diags)
	logger.Printf("parse: %d declarations, %d nodes, %d diagnostics in %s",
		len(res.File.Decls), countNodes(res.File), diags.Len(), time.Since(start))

	start = time.Now()
	res.Info = semantic.Analyze(res.File, diags, semantic.Config{
		MaxErrors: cfg.MaxErrors,
		Jobs:      cfg.Jobs,
	})
	logger.Printf("analyze: %d functions, %d diagnostics in %s", len(res.Info.Funcs), diags.Len(), time.Since(start))
	if len(diags.Filter(diag.KindTooManyErrors)) > 0 {
		logger.Printf("analyze: error limit reached, later semantic errors were not reported")
	}

	return res
}

// countNodes returns the number of nodes in the tree rooted at file.
func countNodes(file *ast.File) int {
	n := 0
	ast.Inspect(file, func(ast.Node) bool {
		n++
		return true
	})
	return n
}

func loggerOf(cfg Config) *log.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return log.New(io.Discard, "", 0)
}

func moduleName(filename string, cfg Config) string {
	if cfg.ModuleName != "" {
		return cfg.ModuleName
	}
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
