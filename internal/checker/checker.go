// Package checker verifies the linear typing judgment over the graph:
// every routine uses every channel exactly once, and every use agrees
// with the channel's session type. Type equality is decided through
// the canonical classes computed in classes.go.
package checker

import (
	"fmt"
	"sort"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/graph"
)

type ErrorKind int

const (
	ErrClosed ErrorKind = iota
	ErrNotClosed
	ErrNotLollipop
	ErrNotTimes
	ErrNotWith
	ErrNotPlus
	ErrNotOne
	ErrTypeMismatch
	ErrNotInReverseTopologicalOrder
)

type Error struct {
	Kind ErrorKind
	Name string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrClosed:
		return fmt.Sprintf("%s is closed", e.Name)
	case ErrNotClosed:
		return fmt.Sprintf("%s is not closed", e.Name)
	case ErrNotLollipop:
		return fmt.Sprintf("%s is not lollipop", e.Name)
	case ErrNotTimes:
		return fmt.Sprintf("%s is not times", e.Name)
	case ErrNotWith:
		return fmt.Sprintf("%s is not with", e.Name)
	case ErrNotPlus:
		return fmt.Sprintf("%s is not plus", e.Name)
	case ErrNotOne:
		return fmt.Sprintf("%s is not one", e.Name)
	case ErrTypeMismatch:
		return "type mismatch"
	default:
		return "not in reverse topological order"
	}
}

type Checker struct {
	graph   *graph.Graph
	gammas  []map[string]int
	eps     *epsilon
	classes []int
	queue   []int
}

// Check verifies the whole graph. The contexts are propagated from
// every routine's entry to a fix-point: a node is processed once, when
// its context is first seeded, and any further seeding of the same
// node only has to agree with the recorded context.
func Check(g *graph.Graph) error {
	classes, eps := buildClasses(g.Types)
	c := &Checker{
		graph:   g,
		gammas:  make([]map[string]int, len(g.Nodes)),
		eps:     eps,
		classes: classes,
	}

	names := make([]string, 0, len(g.Routines))
	for name := range g.Routines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		routine := g.Routines[name]
		gamma := make(map[string]int, len(routine.Formals))
		for _, formal := range routine.Formals {
			gamma[formal.Name] = c.eps.find(formal.Type)
		}
		if err := c.setGamma(routine.Start, gamma); err != nil {
			return err
		}
	}

	for len(c.queue) > 0 {
		index := c.queue[len(c.queue)-1]
		c.queue = c.queue[:len(c.queue)-1]
		if err := c.checkNode(index); err != nil {
			return err
		}
	}

	// Anything never seeded is code no forward path reaches.
	for index := range c.gammas {
		if c.gammas[index] == nil {
			return &Error{Kind: ErrNotInReverseTopologicalOrder}
		}
	}
	return nil
}

// setGamma seeds the context at index, or verifies agreement with the
// context recorded earlier through another path.
func (c *Checker) setGamma(index int, gamma map[string]int) error {
	recorded := c.gammas[index]
	if recorded == nil {
		c.gammas[index] = gamma
		c.queue = append(c.queue, index)
		return nil
	}
	if len(recorded) > len(gamma) {
		for name := range recorded {
			if _, ok := gamma[name]; !ok {
				return &Error{Kind: ErrClosed, Name: name}
			}
		}
	}
	for name, gammaType := range gamma {
		recordedType, ok := recorded[name]
		if !ok {
			return &Error{Kind: ErrNotClosed, Name: name}
		}
		if c.classes[gammaType] != c.classes[recordedType] {
			return &Error{Kind: ErrTypeMismatch}
		}
	}
	return nil
}

// checkExpression consumes the channels an expression mentions and
// returns the type index of its value; the hole position of a call
// yields the dual of the corresponding formal's type.
func (c *Checker) checkExpression(gamma map[string]int, expression graph.Expression) (int, error) {
	switch e := expression.(type) {
	case *ast.VariableExpression:
		t, ok := gamma[e.Name]
		if !ok {
			return 0, &Error{Kind: ErrClosed, Name: e.Name}
		}
		delete(gamma, e.Name)
		return t, nil
	case *ast.CallExpression:
		formals := c.graph.Routines[e.Name].Formals
		for index, actual := range e.Before {
			t, err := c.checkExpression(gamma, actual)
			if err != nil {
				return 0, err
			}
			if c.classes[formals[index].Type] != c.classes[t] {
				return 0, &Error{Kind: ErrTypeMismatch}
			}
		}
		for offset, actual := range e.After {
			t, err := c.checkExpression(gamma, actual)
			if err != nil {
				return 0, err
			}
			if c.classes[formals[len(e.Before)+1+offset].Type] != c.classes[t] {
				return 0, &Error{Kind: ErrTypeMismatch}
			}
		}
		return graph.Dual(c.graph.Types, formals[len(e.Before)].Type), nil
	default:
		return 0, &Error{Kind: ErrTypeMismatch}
	}
}

func (c *Checker) lookup(gamma map[string]int, name string) (graph.TypeNode, int, error) {
	t, ok := gamma[name]
	if !ok {
		return nil, 0, &Error{Kind: ErrClosed, Name: name}
	}
	rep := c.eps.find(t)
	return c.graph.Types[rep], rep, nil
}

func (c *Checker) checkNode(index int) error {
	gamma := make(map[string]int, len(c.gammas[index]))
	for name, t := range c.gammas[index] {
		gamma[name] = t
	}

	switch n := c.graph.Nodes[index].(type) {
	case *graph.Branch:
		return c.setGamma(n.Next, gamma)
	case *graph.Assign:
		t, err := c.checkExpression(gamma, n.Value)
		if err != nil {
			return err
		}
		if _, ok := gamma[n.Name]; ok {
			return &Error{Kind: ErrNotClosed, Name: n.Name}
		}
		gamma[n.Name] = c.eps.find(t)
		return c.setGamma(n.Next, gamma)
	case *graph.Call:
		formals := c.graph.Routines[n.Name].Formals
		for i, actual := range n.Actuals {
			t, err := c.checkExpression(gamma, actual)
			if err != nil {
				return err
			}
			if c.classes[formals[i].Type] != c.classes[t] {
				return &Error{Kind: ErrTypeMismatch}
			}
		}
		return c.setGamma(n.Next, gamma)
	case *graph.Receive:
		node, _, err := c.lookup(gamma, n.Source)
		if err != nil {
			return err
		}
		times, ok := node.(*graph.Times)
		if !ok {
			return &Error{Kind: ErrNotTimes, Name: n.Source}
		}
		if _, ok := gamma[n.Variable]; ok {
			return &Error{Kind: ErrNotClosed, Name: n.Variable}
		}
		gamma[n.Variable] = c.eps.find(times.Value)
		gamma[n.Source] = c.eps.find(times.Next)
		return c.setGamma(n.Next, gamma)
	case *graph.Send:
		node, _, err := c.lookup(gamma, n.Destination)
		if err != nil {
			return err
		}
		lollipop, ok := node.(*graph.Lollipop)
		if !ok {
			return &Error{Kind: ErrNotLollipop, Name: n.Destination}
		}
		t, ok := gamma[n.Variable]
		if !ok {
			return &Error{Kind: ErrClosed, Name: n.Variable}
		}
		delete(gamma, n.Variable)
		if c.classes[t] != c.classes[lollipop.Value] {
			return &Error{Kind: ErrTypeMismatch}
		}
		gamma[n.Destination] = c.eps.find(lollipop.Next)
		return c.setGamma(n.Next, gamma)
	case *graph.Offer:
		node, _, err := c.lookup(gamma, n.Client)
		if err != nil {
			return err
		}
		plus, ok := node.(*graph.Plus)
		if !ok {
			return &Error{Kind: ErrNotPlus, Name: n.Client}
		}
		delta := make(map[string]int, len(gamma))
		for name, t := range gamma {
			delta[name] = t
		}
		gamma[n.Client] = c.eps.find(plus.Accept)
		delta[n.Client] = c.eps.find(plus.Deny)
		if err := c.setGamma(n.Accepted, gamma); err != nil {
			return err
		}
		return c.setGamma(n.Denied, delta)
	case *graph.Accept:
		node, _, err := c.lookup(gamma, n.Server)
		if err != nil {
			return err
		}
		with, ok := node.(*graph.With)
		if !ok {
			return &Error{Kind: ErrNotWith, Name: n.Server}
		}
		gamma[n.Server] = c.eps.find(with.Accept)
		return c.setGamma(n.Next, gamma)
	case *graph.Deny:
		node, _, err := c.lookup(gamma, n.Server)
		if err != nil {
			return err
		}
		with, ok := node.(*graph.With)
		if !ok {
			return &Error{Kind: ErrNotWith, Name: n.Server}
		}
		gamma[n.Server] = c.eps.find(with.Deny)
		return c.setGamma(n.Next, gamma)
	case *graph.Close:
		t, ok := gamma[n.Name]
		if !ok {
			return &Error{Kind: ErrClosed, Name: n.Name}
		}
		delete(gamma, n.Name)
		if _, ok := c.graph.Types[c.eps.find(t)].(*graph.One); !ok {
			return &Error{Kind: ErrNotOne, Name: n.Name}
		}
		return c.setGamma(n.Next, gamma)
	case *graph.Connect:
		leftType, ok := gamma[n.Left]
		if !ok {
			return &Error{Kind: ErrClosed, Name: n.Left}
		}
		delete(gamma, n.Left)
		rightType, ok := gamma[n.Right]
		if !ok {
			return &Error{Kind: ErrClosed, Name: n.Right}
		}
		delete(gamma, n.Right)
		if c.classes[graph.Dual(c.graph.Types, leftType)] != c.classes[rightType] {
			return &Error{Kind: ErrTypeMismatch}
		}
		return c.setGamma(n.Next, gamma)
	case *graph.End:
		if len(gamma) > 0 {
			names := make([]string, 0, len(gamma))
			for name := range gamma {
				names = append(names, name)
			}
			sort.Strings(names)
			return &Error{Kind: ErrNotClosed, Name: names[0]}
		}
		return nil
	default:
		return &Error{Kind: ErrNotInReverseTopologicalOrder}
	}
}
