package lexer

import (
	"fmt"

	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/pipeline"
	"github.com/funvibe/chorus/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	l := New(ctx.SourceCode)
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			err := diagnostics.NewError("L001", tok, fmt.Sprintf("unexpected character %q", tok.Lexeme))
			err.File = ctx.FilePath
			ctx.Errors = append(ctx.Errors, err)
			return ctx
		}
		ctx.Tokens = append(ctx.Tokens, tok)
		if tok.Type == token.EOF {
			return ctx
		}
	}
}
