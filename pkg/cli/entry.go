// Package cli is the command-line front end: it reads the source from
// a file argument or standard input, discovers the project config,
// runs the pipeline and reports the final counter or the first error.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/funvibe/chorus/internal/analyzer"
	"github.com/funvibe/chorus/internal/checker"
	"github.com/funvibe/chorus/internal/config"
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/interp"
	"github.com/funvibe/chorus/internal/lexer"
	"github.com/funvibe/chorus/internal/parser"
	"github.com/funvibe/chorus/internal/pipeline"
)

// Execute runs the interpreter for os.Args and returns the exit code.
func Execute() int {
	args := os.Args

	var source []byte
	var filePath, configDir string
	switch len(args) {
	case 1:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			reportError(args[0], fmt.Sprintf("reading standard input: %s", err))
			return 1
		}
		source = data
		configDir = "."
	case 2:
		data, err := os.ReadFile(args[1])
		if err != nil {
			reportError(args[0], err.Error())
			return 1
		}
		source = data
		filePath = args[1]
		configDir = filepath.Dir(args[1])
	default:
		reportError(args[0], "wrong argument count")
		return 1
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		reportError(args[0], err.Error())
		return 1
	}

	ctx := pipeline.NewContext(string(source))
	ctx.FilePath = filePath
	ctx.Config = cfg
	ctx.Stdin = os.Stdin
	if cfg.Trace {
		fmt.Fprintf(os.Stderr, "trace run %s\n", uuid.NewString())
		ctx.Trace = os.Stderr
	}

	ctx = runPipeline(ctx)
	if len(ctx.Errors) > 0 {
		for _, diagnostic := range ctx.Errors {
			reportDiagnostic(args[0], diagnostic)
		}
		return 1
	}

	fmt.Println(ctx.Result)
	return 0
}

// runPipeline drives one source through every stage.
func runPipeline(ctx *pipeline.Context) *pipeline.Context {
	processingPipeline := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
		&checker.CheckerProcessor{},
		&interp.InterpreterProcessor{},
	)
	return processingPipeline.Run(ctx)
}

func loadConfig(dir string) (*config.Config, error) {
	path, err := config.Find(dir)
	if err != nil || path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func reportDiagnostic(prog string, diagnostic *diagnostics.DiagnosticError) {
	reportError(prog, diagnostic.Error())
}

func reportError(prog string, message string) {
	if stderrIsTerminal() {
		fmt.Fprintf(os.Stderr, "\x1b[31m%s: %s\x1b[0m\n", filepath.Base(prog), message)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", filepath.Base(prog), message)
}

func stderrIsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}
