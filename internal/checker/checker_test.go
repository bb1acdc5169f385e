package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, input string) error {
	t.Helper()
	return Check(compile(t, input))
}

func TestDenyThenClose(t *testing.T) {
	assert.NoError(t, check(t, "routine main(c: 1 & 1) { c deny  c close }"))
}

func TestCounterProtocol(t *testing.T) {
	assert.NoError(t, check(t, `
type C = C & 1
routine main(c: C) { c accept  c accept  c accept  c deny  c close }
`))
}

func TestLeftoverChannel(t *testing.T) {
	err := check(t, "routine main(c: 1 ⊗ 1) { c receive v  c close }")
	require.Error(t, err)
	assert.Equal(t, "v is not closed", err.Error())
}

func TestConsumedChannel(t *testing.T) {
	err := check(t, `
routine f(x: 1) { x close }
routine main(c: 1) { f(c)  c close }
`)
	require.Error(t, err)
	assert.Equal(t, "c is closed", err.Error())
}

func TestNotWith(t *testing.T) {
	err := check(t, "routine main(c: 1 ⊕ 1) { c deny  c close }")
	require.Error(t, err)
	assert.Equal(t, "c is not with", err.Error())
}

func TestNotPlus(t *testing.T) {
	err := check(t, "routine main(c: 1 & 1) { c offer { c close } else { c close } }")
	require.Error(t, err)
	assert.Equal(t, "c is not plus", err.Error())
}

func TestNotTimes(t *testing.T) {
	err := check(t, "routine main(c: 1) { c receive v  v close  c close }")
	require.Error(t, err)
	assert.Equal(t, "c is not times", err.Error())
}

func TestNotLollipop(t *testing.T) {
	err := check(t, "routine main(c: 1 ⊗ 1) { c receive v  c send v  c close }")
	require.Error(t, err)
	assert.Equal(t, "c is not lollipop", err.Error())
}

func TestNotOne(t *testing.T) {
	err := check(t, "routine main(c: 1 ⊗ 1) { c close }")
	require.Error(t, err)
	assert.Equal(t, "c is not one", err.Error())
}

func TestOfferBranchContexts(t *testing.T) {
	assert.NoError(t, check(t, `
routine main(c: 1 ⊕ (1 ⊗ 1)) {
	c offer { } else { c receive v  v close }
	c close
}`))
}

func TestOfferBranchMismatch(t *testing.T) {
	err := check(t, `
routine main(c: 1 ⊕ (1 ⊗ 1)) {
	c offer { } else { c receive v }
	c close
}`)
	require.Error(t, err)
	assert.Equal(t, "v is not closed", err.Error())
}

func TestSendReceivePair(t *testing.T) {
	assert.NoError(t, check(t, `
type T = 1 ⅋ 1
routine unit(u: 1) { u close }
routine prod(h: T, v: 1) { h send v  h close }
routine main(c: 1) { w = unit()  d = prod(, w)  d receive z  z close  d close  c close }
`))
}

func TestCallFormalMismatch(t *testing.T) {
	err := check(t, `
routine f(x: 1 ⊗ 1) { x receive v  v close  x close }
routine main(c: 1) { f(c) }
`)
	require.Error(t, err)
	assert.Equal(t, "type mismatch", err.Error())
}

func TestHoleReturnsDual(t *testing.T) {
	// The hole of unit() delivers the dual of the formal's type.
	assert.NoError(t, check(t, `
routine unit(u: 1) { u close }
routine main(c: 1) { w = unit()  w close  c close }
`))
}

func TestConnectDuals(t *testing.T) {
	assert.NoError(t, check(t, `
routine unit(u: 1) { u close }
routine main(c: 1) { a = unit()  b = unit()  a connect b  c close }
`))
}

func TestConnectMismatch(t *testing.T) {
	err := check(t, `
routine unit(u: 1) { u close }
routine prod(h: 1 ⅋ 1, v: 1) { h send v  h close }
routine main(c: 1) { a = unit()  w = unit()  b = prod(, w)  a connect b  c close }
`)
	require.Error(t, err)
	assert.Equal(t, "type mismatch", err.Error())
}

func TestAssignOverwrite(t *testing.T) {
	err := check(t, `
routine unit(u: 1) { u close }
routine main(c: 1) { c = unit()  c close }
`)
	require.Error(t, err)
	assert.Equal(t, "c is not closed", err.Error())
}

func TestLoopWithStableContext(t *testing.T) {
	// The branch back-edge requires the context at the label to agree
	// with the context after one iteration, which recursion in P
	// provides.
	assert.NoError(t, check(t, `
type P = P ⊕ 1
routine loop(c: 1, d: P) {
	l:
	d offer { l } else { }
	d close
	c close
}
routine main(c: 1) { c close }
`))
}

func TestUnreachableCode(t *testing.T) {
	err := check(t, `
routine main(c: 1) { done  skipped:  c close  done:  c close }
`)
	require.Error(t, err)
	assert.Equal(t, "not in reverse topological order", err.Error())
}
