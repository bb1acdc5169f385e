package interp

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/pipeline"
	"github.com/funvibe/chorus/internal/token"
)

// InterpreterProcessor runs the program. In the untyped dialect the
// initial counter is read as one line of decimal input from
// ctx.Stdin; in the typed dialect it starts at zero.
type InterpreterProcessor struct{}

func (ip *InterpreterProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if ctx.Graph == nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError("R000", token.Token{}, "interpreter: graph is nil"))
		return ctx
	}

	var initial uint32
	if ctx.Program != nil && !ctx.Program.Typed {
		value, err := readCounter(ctx)
		if err != nil {
			ctx.Errors = append(ctx.Errors, diagnostics.NewError("R006", token.Token{}, err.Error()))
			return ctx
		}
		initial = value
	}

	interpreter, err := New(ctx.Graph, initial)
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError("R001", token.Token{}, err.Error()))
		return ctx
	}
	if ctx.Config != nil {
		interpreter.SetLimit(ctx.Config.Steps)
	}
	if ctx.Trace != nil {
		interpreter.SetTrace(ctx.Trace)
	}

	result, err := interpreter.Run()
	if err != nil {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError("R002", token.Token{}, err.Error()))
		return ctx
	}
	ctx.Result = result
	return ctx
}

func readCounter(ctx *pipeline.Context) (uint32, error) {
	if ctx.Stdin == nil {
		return 0, fmt.Errorf("missing counter input")
	}
	line, err := bufio.NewReader(ctx.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return 0, fmt.Errorf("missing counter input")
	}
	value, err := strconv.ParseUint(strings.TrimSpace(line), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid counter input %q", strings.TrimSpace(line))
	}
	return uint32(value), nil
}
