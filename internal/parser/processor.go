package parser

import (
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/pipeline"
	"github.com/funvibe/chorus/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Tokens == nil {
		err := diagnostics.NewError("P000", token.Token{}, "parser: token stream is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	program, err := New(ctx.Tokens).ParseProgram()
	if err != nil {
		d, ok := err.(*diagnostics.DiagnosticError)
		if !ok {
			d = diagnostics.NewError("P999", token.Token{}, err.Error())
		}
		ctx.Errors = append(ctx.Errors, d)
		return ctx
	}
	program.File = ctx.FilePath

	for _, err := range ctx.Errors {
		if err.File == "" {
			err.File = ctx.FilePath
		}
	}

	ctx.Program = program
	return ctx
}
