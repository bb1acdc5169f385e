package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/chorus/internal/analyzer"
	"github.com/funvibe/chorus/internal/checker"
	"github.com/funvibe/chorus/internal/graph"
	"github.com/funvibe/chorus/internal/lexer"
	"github.com/funvibe/chorus/internal/parser"
	"github.com/funvibe/chorus/internal/token"
)

func compile(t *testing.T, input string) *graph.Graph {
	t.Helper()
	l := lexer.New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	program, err := parser.New(tokens).ParseProgram()
	require.NoError(t, err)
	g, err := analyzer.New().Analyze(program)
	require.NoError(t, err)
	if program.Typed {
		require.NoError(t, checker.Check(g))
	}
	return g
}

func run(t *testing.T, input string, initial uint32) (uint32, error) {
	t.Helper()
	interpreter, err := New(compile(t, input), initial)
	if err != nil {
		return 0, err
	}
	return interpreter.Run()
}

func mustRun(t *testing.T, input string, initial uint32) uint32 {
	t.Helper()
	result, err := run(t, input, initial)
	require.NoError(t, err)
	return result
}

func TestDenyThenClose(t *testing.T) {
	assert.Equal(t, uint32(0), mustRun(t, "routine main(c: 1 & 1) { c deny  c close }", 0))
}

func TestAcceptsIncrementCounter(t *testing.T) {
	result := mustRun(t, `
type C = C & 1
routine main(c: C) { c accept  c accept  c accept  c deny  c close }
`, 0)
	assert.Equal(t, uint32(3), result)
}

func TestImmediateClose(t *testing.T) {
	// A close against the live sentinel halts with the counter as is.
	assert.Equal(t, uint32(0), mustRun(t, "routine main(c: 1) { c close }", 0))
}

func TestForwardCallChain(t *testing.T) {
	result := mustRun(t, `
routine a(c: 1) { b(c) }
routine b(c: 1) { c close }
routine main(c: 1) { a(c) }
`, 0)
	assert.Equal(t, uint32(0), result)
}

func TestUntypedInitialCounter(t *testing.T) {
	result := mustRun(t, "routine main(c) { c accept  c accept  c deny  c close }", 5)
	assert.Equal(t, uint32(7), result)
}

func TestSendReceiveAcrossActivations(t *testing.T) {
	result := mustRun(t, `
type T = 1 ⅋ 1
routine unit(u: 1) { u close }
routine prod(h: T, v: 1) { h send v  h close }
routine main(c: 1) { w = unit()  d = prod(, w)  d receive z  z close  d close  c close }
`, 0)
	assert.Equal(t, uint32(0), result)
}

func TestOfferAcrossActivations(t *testing.T) {
	// main offers on the endpoint handed back by chooser; chooser
	// denies, so main takes the else branch.
	result := mustRun(t, `
type W = 1 & 1
routine chooser(x: W) { x deny  x close }
routine main(c: 1) {
	d = chooser()
	d offer { d close  c close } else { d close  c close }
}`, 0)
	assert.Equal(t, uint32(0), result)
}

func TestConnectHandsOverInteraction(t *testing.T) {
	// main links its interaction channel to closer's endpoint; closer
	// inherits the sentinel and halts the program.
	result := mustRun(t, `
routine closer(x: 1) { x close }
routine main(c: 1) { d = closer()  c connect d }
`, 0)
	assert.Equal(t, uint32(0), result)
}

func TestConnectDropsSeveredPair(t *testing.T) {
	result := mustRun(t, `
routine unit(u: 1) { u close }
routine main(c: 1) { a = unit()  b = unit()  a connect b  c close }
`, 0)
	assert.Equal(t, uint32(0), result)
}

func TestNoMain(t *testing.T) {
	_, err := run(t, "routine f(c) { c close }", 0)
	require.Error(t, err)
	assert.Equal(t, "no main routine", err.Error())
}

func TestWrongMainFormalCount(t *testing.T) {
	_, err := run(t, "routine main(c, d) { c close  d close }", 0)
	require.Error(t, err)
	assert.Equal(t, "wrong main formal count", err.Error())
}

func TestOverwriting(t *testing.T) {
	_, err := run(t, `
routine f(x) { x close }
routine main(c) { c = f()  c close }
`, 0)
	require.Error(t, err)
	assert.Equal(t, `overwriting "c"`, err.Error())
}

func TestUnboundVariable(t *testing.T) {
	_, err := run(t, "routine main(c) { d close }", 0)
	require.Error(t, err)
	assert.Equal(t, `unbound variable "d"`, err.Error())
}

func TestStepLimit(t *testing.T) {
	interpreter, err := New(compile(t, "routine main(c) { l:  l }"), 0)
	require.NoError(t, err)
	interpreter.SetLimit(16)
	_, err = interpreter.Run()
	require.Error(t, err)
	assert.Equal(t, "step limit exceeded", err.Error())
}

func TestFlipTerminates(t *testing.T) {
	// The receives are on d, which is not main's interaction channel,
	// so main flips to prod, whose sends then meet them; each later
	// close flips the tree again until its pair lines up.
	result := mustRun(t, `
type T = 1 ⅋ (1 ⅋ 1)
routine unit(u: 1) { u close }
routine prod(h: T, v: 1, w: 1) { h send v  h send w  h close }
routine main(c: 1) {
	v = unit()
	w = unit()
	d = prod(, v, w)
	d receive x
	d receive y
	x close
	y close
	d close
	c close
}`, 0)
	assert.Equal(t, uint32(0), result)
}
