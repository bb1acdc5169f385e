// Package interp executes the graph without a scheduler. A single
// activation is active at any time; the others hang off it in a tree
// whose edges are channels, and the tree is re-rooted one edge at a
// time (flip) until the active routine's next opcode meets a matching
// partner. The root peer of the whole program is the interaction
// sentinel, which owns the counter the host observes.
package interp

import (
	"fmt"
	"io"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/graph"
)

type ErrorKind int

const (
	ErrNoMain ErrorKind = iota
	ErrWrongMainFormalCount
	ErrTypeError
	ErrOverwriting
	ErrUnboundVariable
	ErrStepLimit
)

type Error struct {
	Kind ErrorKind
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNoMain:
		return "no main routine"
	case ErrWrongMainFormalCount:
		return "wrong main formal count"
	case ErrTypeError:
		return "type error"
	case ErrOverwriting:
		return fmt.Sprintf("overwriting %q", e.Name)
	case ErrUnboundVariable:
		return fmt.Sprintf("unbound variable %q", e.Name)
	default:
		return "step limit exceeded"
	}
}

// peer is what sits at the far end of a channel: an inactive routine
// activation or the interaction sentinel.
type peer interface {
	isPeer()
}

// interaction is the sentinel owning the program counter. Deny ends
// it; any operation but Close against an ended sentinel is a type
// error.
type interaction struct {
	counter uint32
	ended   bool
}

// activation is an inactive routine. parent names the channel by
// which it refers to the edge toward the root; toInteraction names the
// channel through which it sees the sentinel.
type activation struct {
	node          int
	children      map[string]peer
	parent        string
	toInteraction string
}

func (*interaction) isPeer() {}
func (*activation) isPeer()  {}

type Interpreter struct {
	graph *graph.Graph

	// The active routine.
	node          int
	children      map[string]peer
	toInteraction string

	steps int
	limit int
	trace io.Writer
}

// New prepares a run of the routine named main, whose single formal is
// wired to the interaction sentinel holding initial.
func New(g *graph.Graph, initial uint32) (*Interpreter, error) {
	routine, ok := g.Routines["main"]
	if !ok {
		return nil, &Error{Kind: ErrNoMain}
	}
	if len(routine.Formals) != 1 {
		return nil, &Error{Kind: ErrWrongMainFormalCount}
	}
	formal := routine.Formals[0].Name
	return &Interpreter{
		graph:         g,
		node:          routine.Start,
		children:      map[string]peer{formal: &interaction{counter: initial}},
		toInteraction: formal,
	}, nil
}

// SetLimit bounds the number of steps; zero means unbounded.
func (in *Interpreter) SetLimit(limit int) { in.limit = limit }

// SetTrace enables a per-step trace.
func (in *Interpreter) SetTrace(w io.Writer) { in.trace = w }

// Run steps until the program halts and returns the final counter.
func (in *Interpreter) Run() (uint32, error) {
	for {
		if in.limit > 0 && in.steps >= in.limit {
			return 0, &Error{Kind: ErrStepLimit}
		}
		in.steps++
		if in.trace != nil {
			fmt.Fprintf(in.trace, "%6d %s\n", in.steps, nodeString(in.graph.Nodes[in.node]))
		}
		result, done, err := in.step()
		if err != nil {
			return 0, err
		}
		if done {
			return result, nil
		}
	}
}

func (in *Interpreter) step() (uint32, bool, error) {
	switch n := in.graph.Nodes[in.node].(type) {
	case *graph.Branch:
		in.node = n.Next
	case *graph.Assign:
		value, err := in.evaluate(n.Value)
		if err != nil {
			return 0, false, err
		}
		in.node = n.Next
		if !parentToInteraction(value) {
			in.toInteraction = n.Name
		}
		if _, ok := in.children[n.Name]; ok {
			return 0, false, &Error{Kind: ErrOverwriting, Name: n.Name}
		}
		in.children[n.Name] = value
	case *graph.Call:
		routine := in.graph.Routines[n.Name]
		children := make(map[string]peer, len(n.Actuals))
		toFormal := ""
		for i, expression := range n.Actuals {
			actual, err := in.evaluate(expression)
			if err != nil {
				return 0, false, err
			}
			if !parentToInteraction(actual) {
				toFormal = routine.Formals[i].Name
			}
			children[routine.Formals[i].Name] = actual
		}
		if toFormal != "" {
			in.node = routine.Start
			in.children = children
			in.toInteraction = toFormal
		} else {
			// None of the transferred channels leads to the sentinel:
			// the callee can never touch the counter and is dropped.
			in.node = n.Next
		}
	case *graph.Receive:
		remote, ok := in.children[n.Source]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Source}
		}
		if n.Source != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Source)
		}
		value, err := in.peerReceive(remote)
		if err != nil {
			return 0, false, err
		}
		in.node = n.Next
		if !parentToInteraction(value) {
			in.toInteraction = n.Variable
		}
		if _, ok := in.children[n.Variable]; ok {
			return 0, false, &Error{Kind: ErrOverwriting, Name: n.Variable}
		}
		in.children[n.Variable] = value
	case *graph.Send:
		remote, ok := in.children[n.Destination]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Destination}
		}
		if n.Destination != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Destination)
		}
		value, ok := in.children[n.Variable]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Variable}
		}
		delete(in.children, n.Variable)
		in.node = n.Next
		if !parentToInteraction(value) {
			in.toInteraction = n.Destination
		}
		if err := in.peerSend(remote, value); err != nil {
			return 0, false, err
		}
	case *graph.Offer:
		remote, ok := in.children[n.Client]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Client}
		}
		if n.Client != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Client)
		}
		accepted, err := in.peerOffer(remote)
		if err != nil {
			return 0, false, err
		}
		if accepted {
			in.node = n.Accepted
		} else {
			in.node = n.Denied
		}
	case *graph.Accept:
		remote, ok := in.children[n.Server]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Server}
		}
		if n.Server != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Server)
		}
		if err := in.peerChoose(remote, true); err != nil {
			return 0, false, err
		}
		in.node = n.Next
	case *graph.Deny:
		remote, ok := in.children[n.Server]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Server}
		}
		if n.Server != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Server)
		}
		if err := in.peerChoose(remote, false); err != nil {
			return 0, false, err
		}
		in.node = n.Next
	case *graph.Close:
		remote, ok := in.children[n.Name]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Name}
		}
		if n.Name != in.toInteraction || !in.parentPrincipal(remote) {
			return 0, false, in.flip(n.Name)
		}
		switch p := remote.(type) {
		case *interaction:
			return p.counter, true, nil
		case *activation:
			other, ok := in.graph.Nodes[p.node].(*graph.Close)
			if !ok {
				return 0, false, &Error{Kind: ErrTypeError}
			}
			in.node = other.Next
			in.children = p.children
			in.toInteraction = p.toInteraction
		}
	case *graph.Connect:
		left, ok := in.children[n.Left]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Left}
		}
		delete(in.children, n.Left)
		right, ok := in.children[n.Right]
		if !ok {
			return 0, false, &Error{Kind: ErrUnboundVariable, Name: n.Right}
		}
		delete(in.children, n.Right)
		switch {
		case n.Left == in.toInteraction:
			if err := in.becomeFused(right, left); err != nil {
				return 0, false, err
			}
		case n.Right == in.toInteraction:
			if err := in.becomeFused(left, right); err != nil {
				return 0, false, err
			}
		default:
			// The fused pair has no path to the sentinel; it is dropped
			// along with anything hanging under it.
			in.node = n.Next
		}
	case *graph.End:
		return 0, false, &Error{Kind: ErrTypeError}
	}
	return 0, false, nil
}

// becomeFused finishes a connect whose fused channel carries the
// interaction: near takes over as the active routine, with far on the
// other end of the fused channel. The previous active routine lost its
// path to the sentinel and is dropped.
func (in *Interpreter) becomeFused(near, far peer) error {
	act, ok := near.(*activation)
	if !ok {
		return &Error{Kind: ErrTypeError}
	}
	act.children[act.parent] = far
	in.node = act.node
	in.children = act.children
	in.toInteraction = act.parent
	return nil
}

// flip re-roots the tree one edge toward name: the peer there becomes
// the active routine and the current one becomes its inactive child.
func (in *Interpreter) flip(name string) error {
	act, ok := in.children[name].(*activation)
	if !ok {
		return &Error{Kind: ErrTypeError}
	}
	delete(in.children, name)
	act.children[act.parent] = &activation{
		node:          in.node,
		children:      in.children,
		parent:        name,
		toInteraction: in.toInteraction,
	}
	in.node = act.node
	in.children = act.children
	in.toInteraction = act.toInteraction
	return nil
}

// evaluate resolves an expression to the peer it denotes, consuming
// the channels it mentions.
func (in *Interpreter) evaluate(expression graph.Expression) (peer, error) {
	switch e := expression.(type) {
	case *ast.VariableExpression:
		value, ok := in.children[e.Name]
		if !ok {
			return nil, &Error{Kind: ErrUnboundVariable, Name: e.Name}
		}
		delete(in.children, e.Name)
		return value, nil
	case *ast.CallExpression:
		routine := in.graph.Routines[e.Name]
		children := make(map[string]peer, len(e.Before)+len(e.After))
		toIndex := len(e.Before)
		for i, expression := range e.Before {
			actual, err := in.evaluate(expression)
			if err != nil {
				return nil, err
			}
			if !parentToInteraction(actual) {
				toIndex = i
			}
			children[routine.Formals[i].Name] = actual
		}
		for offset, expression := range e.After {
			i := len(e.Before) + 1 + offset
			actual, err := in.evaluate(expression)
			if err != nil {
				return nil, err
			}
			if !parentToInteraction(actual) {
				toIndex = i
			}
			children[routine.Formals[i].Name] = actual
		}
		return &activation{
			node:          routine.Start,
			children:      children,
			parent:        routine.Formals[len(e.Before)].Name,
			toInteraction: routine.Formals[toIndex].Name,
		}, nil
	default:
		return nil, &Error{Kind: ErrTypeError}
	}
}

// parentPrincipal reports whether the peer's next opcode engages the
// channel it shares with the active routine.
func (in *Interpreter) parentPrincipal(p peer) bool {
	act, ok := p.(*activation)
	if !ok {
		return true
	}
	var principal string
	switch n := in.graph.Nodes[act.node].(type) {
	case *graph.Receive:
		principal = n.Source
	case *graph.Send:
		principal = n.Destination
	case *graph.Offer:
		principal = n.Client
	case *graph.Accept:
		principal = n.Server
	case *graph.Deny:
		principal = n.Server
	case *graph.Close:
		principal = n.Name
	default:
		return false
	}
	return principal == act.parent
}

// parentToInteraction reports whether the peer sees the sentinel
// through its own parent edge.
func parentToInteraction(p peer) bool {
	act, ok := p.(*activation)
	if !ok {
		return false
	}
	return act.parent == act.toInteraction
}

func (in *Interpreter) peerSend(p peer, value peer) error {
	act, ok := p.(*activation)
	if !ok {
		return &Error{Kind: ErrTypeError}
	}
	receive, ok := in.graph.Nodes[act.node].(*graph.Receive)
	if !ok {
		return &Error{Kind: ErrTypeError}
	}
	act.node = receive.Next
	if !parentToInteraction(value) {
		act.toInteraction = receive.Variable
	}
	if _, ok := act.children[receive.Variable]; ok {
		return &Error{Kind: ErrOverwriting, Name: receive.Variable}
	}
	act.children[receive.Variable] = value
	return nil
}

func (in *Interpreter) peerReceive(p peer) (peer, error) {
	act, ok := p.(*activation)
	if !ok {
		return nil, &Error{Kind: ErrTypeError}
	}
	send, ok := in.graph.Nodes[act.node].(*graph.Send)
	if !ok {
		return nil, &Error{Kind: ErrTypeError}
	}
	act.node = send.Next
	value, ok := act.children[send.Variable]
	if !ok {
		return nil, &Error{Kind: ErrUnboundVariable, Name: send.Variable}
	}
	delete(act.children, send.Variable)
	if !parentToInteraction(value) {
		act.toInteraction = act.parent
	}
	return value, nil
}

func (in *Interpreter) peerOffer(p peer) (bool, error) {
	act, ok := p.(*activation)
	if !ok {
		return false, &Error{Kind: ErrTypeError}
	}
	switch n := in.graph.Nodes[act.node].(type) {
	case *graph.Accept:
		act.node = n.Next
		return true, nil
	case *graph.Deny:
		act.node = n.Next
		return false, nil
	default:
		return false, &Error{Kind: ErrTypeError}
	}
}

func (in *Interpreter) peerChoose(p peer, accept bool) error {
	switch target := p.(type) {
	case *interaction:
		if target.ended {
			return &Error{Kind: ErrTypeError}
		}
		if accept {
			target.counter++
		} else {
			target.ended = true
		}
		return nil
	case *activation:
		offer, ok := in.graph.Nodes[target.node].(*graph.Offer)
		if !ok {
			return &Error{Kind: ErrTypeError}
		}
		if accept {
			target.node = offer.Accepted
		} else {
			target.node = offer.Denied
		}
		return nil
	default:
		return &Error{Kind: ErrTypeError}
	}
}

func nodeString(node graph.Node) string {
	switch n := node.(type) {
	case *graph.Branch:
		return fmt.Sprintf("branch -> %d", n.Next)
	case *graph.Assign:
		return fmt.Sprintf("assign %s", n.Name)
	case *graph.Call:
		return fmt.Sprintf("call %s/%d", n.Name, len(n.Actuals))
	case *graph.Receive:
		return fmt.Sprintf("receive %s from %s", n.Variable, n.Source)
	case *graph.Send:
		return fmt.Sprintf("send %s to %s", n.Variable, n.Destination)
	case *graph.Offer:
		return fmt.Sprintf("offer %s", n.Client)
	case *graph.Accept:
		return fmt.Sprintf("accept %s", n.Server)
	case *graph.Deny:
		return fmt.Sprintf("deny %s", n.Server)
	case *graph.Close:
		return fmt.Sprintf("close %s", n.Name)
	case *graph.Connect:
		return fmt.Sprintf("connect %s %s", n.Left, n.Right)
	default:
		return "end"
	}
}
