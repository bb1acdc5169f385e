// Package graph defines the compiled program: a flat node arena
// addressed by integer index, an optional type arena with explicit
// duals, and the routine table. The arenas grow during analysis and
// are never mutated afterwards.
package graph

import "github.com/funvibe/chorus/internal/ast"

// Graph is the analyzer's output.
type Graph struct {
	Nodes    []Node
	Types    []TypeNode
	Routines map[string]*Routine
}

// Routine records a routine's entry node and formal parameters.
type Routine struct {
	Start   int
	Formals []Formal
}

// Formal is one channel parameter; Type is the type-arena index of its
// session type, or -1 in the untyped dialect.
type Formal struct {
	Name string
	Type int
}

// Expressions survive compilation unchanged.
type Expression = ast.Expression

// Node is one control-flow record. Index 0 of the arena is always the
// End sentinel; all successor fields are arena indices.
type Node interface {
	graphNode()
}

type End struct{}

type Branch struct {
	Next int
}

type Assign struct {
	Name  string
	Value Expression
	Next  int
}

type Call struct {
	Name    string
	Actuals []Expression
	Next    int
}

type Receive struct {
	Source   string
	Variable string
	Next     int
}

type Send struct {
	Destination string
	Variable    string
	Next        int
}

type Offer struct {
	Client   string
	Accepted int
	Denied   int
}

type Accept struct {
	Server string
	Next   int
}

type Deny struct {
	Server string
	Next   int
}

type Close struct {
	Name string
	Next int
}

type Connect struct {
	Left  string
	Right string
	Next  int
}

func (*End) graphNode()     {}
func (*Branch) graphNode()  {}
func (*Assign) graphNode()  {}
func (*Call) graphNode()    {}
func (*Receive) graphNode() {}
func (*Send) graphNode()    {}
func (*Offer) graphNode()   {}
func (*Accept) graphNode()  {}
func (*Deny) graphNode()    {}
func (*Close) graphNode()   {}
func (*Connect) graphNode() {}

// TypeNode is one entry of the type arena. Connective entries are
// minted in consecutive pairs so that index i and i+1 are duals; the
// Dual field stores the partner explicitly. One is self-dual.
type TypeNode interface {
	typeNode()
}

// TypeVariable stands for a declared type; Node is patched to the
// declaration's arena index, IsDual selects its dual.
type TypeVariable struct {
	Node   int
	IsDual bool
	Dual   int
}

type Lollipop struct {
	Value int
	Next  int
	Dual  int
}

type Times struct {
	Value int
	Next  int
	Dual  int
}

type With struct {
	Accept int
	Deny   int
	Dual   int
}

type Plus struct {
	Accept int
	Deny   int
	Dual   int
}

type One struct{}

func (*TypeVariable) typeNode() {}
func (*Lollipop) typeNode()     {}
func (*Times) typeNode()        {}
func (*With) typeNode()         {}
func (*Plus) typeNode()         {}
func (*One) typeNode()          {}

// Dual returns the arena index of the dual of types[index] in O(1).
func Dual(types []TypeNode, index int) int {
	switch t := types[index].(type) {
	case *TypeVariable:
		return t.Dual
	case *Lollipop:
		return t.Dual
	case *Times:
		return t.Dual
	case *With:
		return t.Dual
	case *Plus:
		return t.Dual
	default:
		return index
	}
}
