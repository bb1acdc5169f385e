// Package pipeline wires the compilation stages together. Each stage
// is a Processor that reads and extends a shared Context; a stage that
// finds errors appends them to Context.Errors and the pipeline stops
// before the next stage, so errors abort the run at the stage that
// produced them.
package pipeline

import (
	"io"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/config"
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/graph"
	"github.com/funvibe/chorus/internal/token"
)

// Context carries the artifacts of a single run through the stages.
type Context struct {
	SourceCode string
	FilePath   string
	Config     *config.Config

	// Stdin is where the interpreter reads the initial counter from in
	// the untyped dialect. Trace is where step traces go when enabled.
	Stdin io.Reader
	Trace io.Writer

	Tokens  []token.Token
	Program *ast.Program
	Graph   *graph.Graph

	// Result is the final counter after interpretation.
	Result uint32

	Errors []*diagnostics.DiagnosticError
}

func NewContext(source string) *Context {
	return &Context{SourceCode: source, Config: config.Default()}
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the stages in order, stopping at the first stage that
// leaves errors behind.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		if len(ctx.Errors) > 0 {
			break
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}
