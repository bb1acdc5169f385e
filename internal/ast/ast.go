// Package ast defines the surface tree produced by the parser: an
// ordered sequence of type declarations and routine declarations.
package ast

import "github.com/funvibe/chorus/internal/token"

// Node is the base interface for all tree nodes.
type Node interface {
	GetToken() token.Token
}

// Statement is a Node in a routine body.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node usable as an assignment value or call actual.
type Expression interface {
	Node
	expressionNode()
}

// TypeExpression is a Node in type position.
type TypeExpression interface {
	Node
	typeExpressionNode()
}

// Program is the root node of every tree our parser produces.
type Program struct {
	File     string
	Types    []*TypeDeclaration
	Routines []*RoutineDeclaration

	// Typed reports whether any type syntax occurs in the source; it
	// selects the dialect for the rest of the pipeline.
	Typed bool
}

// TypeDeclaration represents `type T = E`.
type TypeDeclaration struct {
	Token token.Token // the 'type' token
	Name  string
	Value TypeExpression
}

func (td *TypeDeclaration) GetToken() token.Token { return td.Token }

// RoutineDeclaration represents `routine f(x: T, y: U) { body }`.
type RoutineDeclaration struct {
	Token   token.Token // the 'routine' token
	Name    string
	Formals []*Formal
	Body    []Statement
}

func (rd *RoutineDeclaration) GetToken() token.Token { return rd.Token }

// Formal is one channel parameter; Type is nil in the untyped dialect.
type Formal struct {
	Token token.Token // the parameter name token
	Name  string
	Type  TypeExpression
}

func (f *Formal) GetToken() token.Token { return f.Token }

// Type expressions.

// TypeVariable references a declared type by name; IsDual selects the
// dual of the referenced type (`⊗ T`).
type TypeVariable struct {
	Token  token.Token
	Name   string
	IsDual bool
}

// LollipopType is `V ⅋ N`.
type LollipopType struct {
	Token token.Token
	Value TypeExpression
	Next  TypeExpression
}

// TimesType is `V ⊗ N`.
type TimesType struct {
	Token token.Token
	Value TypeExpression
	Next  TypeExpression
}

// WithType is `A & D`.
type WithType struct {
	Token  token.Token
	Accept TypeExpression
	Deny   TypeExpression
}

// PlusType is `A ⊕ D`.
type PlusType struct {
	Token  token.Token
	Accept TypeExpression
	Deny   TypeExpression
}

// OneType is the unit `1`.
type OneType struct {
	Token token.Token
}

func (tv *TypeVariable) GetToken() token.Token { return tv.Token }
func (lt *LollipopType) GetToken() token.Token { return lt.Token }
func (tt *TimesType) GetToken() token.Token    { return tt.Token }
func (wt *WithType) GetToken() token.Token     { return wt.Token }
func (pt *PlusType) GetToken() token.Token     { return pt.Token }
func (ot *OneType) GetToken() token.Token      { return ot.Token }

func (tv *TypeVariable) typeExpressionNode() {}
func (lt *LollipopType) typeExpressionNode() {}
func (tt *TimesType) typeExpressionNode()    {}
func (wt *WithType) typeExpressionNode()     {}
func (pt *PlusType) typeExpressionNode()     {}
func (ot *OneType) typeExpressionNode()      {}

// Statements.

// BranchStatement jumps to a label.
type BranchStatement struct {
	Token token.Token
	Name  string
}

// LabelStatement defines a jump target: `l:`.
type LabelStatement struct {
	Token token.Token
	Name  string
}

// AssignStatement binds a fresh channel: `x = e`.
type AssignStatement struct {
	Token token.Token
	Name  string
	Value Expression
}

// CallStatement transfers channels to a routine: `f(a, b)`.
type CallStatement struct {
	Token   token.Token
	Name    string
	Actuals []Expression
}

// ReceiveStatement is `c receive x`.
type ReceiveStatement struct {
	Token    token.Token
	Source   string
	Variable string
}

// SendStatement is `c send x`.
type SendStatement struct {
	Token       token.Token
	Destination string
	Variable    string
}

// OfferStatement is `c offer { … } else { … }`.
type OfferStatement struct {
	Token    token.Token
	Client   string
	Accepted []Statement
	Denied   []Statement
}

// AcceptStatement is `c accept`.
type AcceptStatement struct {
	Token  token.Token
	Server string
}

// DenyStatement is `c deny`.
type DenyStatement struct {
	Token  token.Token
	Server string
}

// CloseStatement is `c close`.
type CloseStatement struct {
	Token token.Token
	Name  string
}

// ConnectStatement is `a connect b`.
type ConnectStatement struct {
	Token token.Token
	Left  string
	Right string
}

func (bs *BranchStatement) GetToken() token.Token  { return bs.Token }
func (ls *LabelStatement) GetToken() token.Token   { return ls.Token }
func (as *AssignStatement) GetToken() token.Token  { return as.Token }
func (cs *CallStatement) GetToken() token.Token    { return cs.Token }
func (rs *ReceiveStatement) GetToken() token.Token { return rs.Token }
func (ss *SendStatement) GetToken() token.Token    { return ss.Token }
func (os *OfferStatement) GetToken() token.Token   { return os.Token }
func (as *AcceptStatement) GetToken() token.Token  { return as.Token }
func (ds *DenyStatement) GetToken() token.Token    { return ds.Token }
func (cs *CloseStatement) GetToken() token.Token   { return cs.Token }
func (cs *ConnectStatement) GetToken() token.Token { return cs.Token }

func (bs *BranchStatement) statementNode()  {}
func (ls *LabelStatement) statementNode()   {}
func (as *AssignStatement) statementNode()  {}
func (cs *CallStatement) statementNode()    {}
func (rs *ReceiveStatement) statementNode() {}
func (ss *SendStatement) statementNode()    {}
func (os *OfferStatement) statementNode()   {}
func (as *AcceptStatement) statementNode()  {}
func (ds *DenyStatement) statementNode()    {}
func (cs *CloseStatement) statementNode()   {}
func (cs *ConnectStatement) statementNode() {}

// Expressions.

// VariableExpression consumes a channel by name.
type VariableExpression struct {
	Token token.Token
	Name  string
}

// CallExpression invokes a routine with a hole: `f(a, , b)`. Before
// and After are the actuals on either side of the hole; the hole
// position is len(Before).
type CallExpression struct {
	Token  token.Token
	Name   string
	Before []Expression
	After  []Expression
}

func (ve *VariableExpression) GetToken() token.Token { return ve.Token }
func (ce *CallExpression) GetToken() token.Token     { return ce.Token }

func (ve *VariableExpression) expressionNode() {}
func (ce *CallExpression) expressionNode()     {}
