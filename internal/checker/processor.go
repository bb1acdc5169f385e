package checker

import (
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/pipeline"
	"github.com/funvibe/chorus/internal/token"
)

// CheckerProcessor runs the linear-type checker. Untyped programs
// carry no type arena and skip the stage entirely.
type CheckerProcessor struct{}

func (cp *CheckerProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Graph == nil {
		err := diagnostics.NewError("C000", token.Token{}, "checker: graph is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	if ctx.Program == nil || !ctx.Program.Typed {
		return ctx
	}
	if err := Check(ctx.Graph); err != nil {
		d := diagnostics.NewError("C001", token.Token{}, err.Error())
		d.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, d)
	}
	return ctx
}
