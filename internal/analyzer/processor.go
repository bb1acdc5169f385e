package analyzer

import (
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/pipeline"
	"github.com/funvibe/chorus/internal/token"
)

type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Program == nil {
		err := diagnostics.NewError("A999", token.Token{}, "analyzer: tree is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	g, err := New().Analyze(ctx.Program)
	if err != nil {
		ctx.Errors = append(ctx.Errors, toDiagnostic(err))
		return ctx
	}
	ctx.Graph = g
	return ctx
}

func toDiagnostic(err error) *diagnostics.DiagnosticError {
	if d, ok := err.(*diagnostics.DiagnosticError); ok {
		return d
	}
	return diagnostics.NewError("A999", token.Token{}, err.Error())
}
