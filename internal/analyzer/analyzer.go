// Package analyzer translates the surface tree into the graph: a
// single backward sweep per routine body emits one arena node per
// statement with its successor index already known, while forward
// references to routines, labels and type names go through the patch
// table and are fixed up when the referent is published.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/diagnostics"
	"github.com/funvibe/chorus/internal/graph"
	"github.com/funvibe/chorus/internal/token"
)

type Analyzer struct {
	nodes []graph.Node
	types []graph.TypeNode

	// Program-scoped patch tables.
	routines  map[string]*patch[*graph.Routine]
	typeNames map[string]*patch[int]
}

func New() *Analyzer {
	return &Analyzer{
		nodes:     []graph.Node{&graph.End{}},
		routines:  make(map[string]*patch[*graph.Routine]),
		typeNames: make(map[string]*patch[int]),
	}
}

// Analyze compiles the whole program. The returned graph is sealed:
// callers must not mutate it.
func (a *Analyzer) Analyze(program *ast.Program) (*graph.Graph, error) {
	for _, declaration := range program.Types {
		if err := a.analyzeTypeDeclaration(declaration); err != nil {
			return nil, err
		}
	}
	for _, routine := range program.Routines {
		if err := a.analyzeRoutine(routine, program.Typed); err != nil {
			return nil, err
		}
	}
	return a.finish()
}

func (a *Analyzer) addNode(node graph.Node) int {
	index := len(a.nodes)
	a.nodes = append(a.nodes, node)
	return index
}

func (a *Analyzer) addTypeNode(node graph.TypeNode) int {
	index := len(a.types)
	a.types = append(a.types, node)
	return index
}

func (a *Analyzer) routinePatch(name string) *patch[*graph.Routine] {
	p, ok := a.routines[name]
	if !ok {
		p = &patch[*graph.Routine]{}
		a.routines[name] = p
	}
	return p
}

func (a *Analyzer) typePatch(name string) *patch[int] {
	p, ok := a.typeNames[name]
	if !ok {
		p = &patch[int]{}
		a.typeNames[name] = p
	}
	return p
}

func (a *Analyzer) analyzeTypeDeclaration(declaration *ast.TypeDeclaration) error {
	p := a.typePatch(declaration.Name)
	if p.resolved {
		return diagnostics.NewError("A004", declaration.Token,
			fmt.Sprintf("duplicate definition of type %q", declaration.Name))
	}
	index, err := a.emitTypeExpression(declaration.Value)
	if err != nil {
		return err
	}
	return p.publish(index)
}

// emitTypeExpression appends arena entries for expression and returns
// the index of its root. Every connective appends itself immediately
// followed by its dual, cross-pointing through the Dual fields;
// references to named types emit a placeholder pair whose Node fields
// are patched when the name is published.
func (a *Analyzer) emitTypeExpression(expression ast.TypeExpression) (int, error) {
	switch e := expression.(type) {
	case *ast.OneType:
		return a.addTypeNode(&graph.One{}), nil
	case *ast.TypeVariable:
		index := len(a.types)
		direct := &graph.TypeVariable{IsDual: e.IsDual, Dual: index + 1}
		mirror := &graph.TypeVariable{IsDual: !e.IsDual, Dual: index}
		a.addTypeNode(direct)
		a.addTypeNode(mirror)
		err := a.typePatch(e.Name).onResolve(func(target int) error {
			direct.Node = target
			mirror.Node = target
			return nil
		})
		return index, err
	case *ast.LollipopType:
		value, err := a.emitTypeExpression(e.Value)
		if err != nil {
			return 0, err
		}
		next, err := a.emitTypeExpression(e.Next)
		if err != nil {
			return 0, err
		}
		index := len(a.types)
		a.addTypeNode(&graph.Lollipop{Value: value, Next: next, Dual: index + 1})
		a.addTypeNode(&graph.Times{Value: graph.Dual(a.types, value), Next: graph.Dual(a.types, next), Dual: index})
		return index, nil
	case *ast.TimesType:
		value, err := a.emitTypeExpression(e.Value)
		if err != nil {
			return 0, err
		}
		next, err := a.emitTypeExpression(e.Next)
		if err != nil {
			return 0, err
		}
		index := len(a.types)
		a.addTypeNode(&graph.Times{Value: value, Next: next, Dual: index + 1})
		a.addTypeNode(&graph.Lollipop{Value: graph.Dual(a.types, value), Next: graph.Dual(a.types, next), Dual: index})
		return index, nil
	case *ast.WithType:
		accept, err := a.emitTypeExpression(e.Accept)
		if err != nil {
			return 0, err
		}
		deny, err := a.emitTypeExpression(e.Deny)
		if err != nil {
			return 0, err
		}
		index := len(a.types)
		a.addTypeNode(&graph.With{Accept: accept, Deny: deny, Dual: index + 1})
		a.addTypeNode(&graph.Plus{Accept: graph.Dual(a.types, accept), Deny: graph.Dual(a.types, deny), Dual: index})
		return index, nil
	case *ast.PlusType:
		accept, err := a.emitTypeExpression(e.Accept)
		if err != nil {
			return 0, err
		}
		deny, err := a.emitTypeExpression(e.Deny)
		if err != nil {
			return 0, err
		}
		index := len(a.types)
		a.addTypeNode(&graph.Plus{Accept: accept, Deny: deny, Dual: index + 1})
		a.addTypeNode(&graph.With{Accept: graph.Dual(a.types, accept), Deny: graph.Dual(a.types, deny), Dual: index})
		return index, nil
	default:
		return 0, diagnostics.NewError("A000", expression.GetToken(), "unsupported type expression")
	}
}

func (a *Analyzer) analyzeRoutine(routine *ast.RoutineDeclaration, typed bool) error {
	p := a.routinePatch(routine.Name)
	if p.resolved {
		return diagnostics.NewError("A004", routine.Token,
			fmt.Sprintf("duplicate definition of routine %q", routine.Name))
	}

	formals := make([]graph.Formal, len(routine.Formals))
	seen := make(map[string]bool, len(routine.Formals))
	for i, formal := range routine.Formals {
		if seen[formal.Name] {
			return diagnostics.NewError("A004", formal.Token,
				fmt.Sprintf("duplicate formal %q in routine %q", formal.Name, routine.Name))
		}
		seen[formal.Name] = true
		typeIndex := -1
		if typed {
			if formal.Type == nil {
				return diagnostics.NewError("A005", formal.Token,
					fmt.Sprintf("missing type annotation for formal %q", formal.Name))
			}
			var err error
			typeIndex, err = a.emitTypeExpression(formal.Type)
			if err != nil {
				return err
			}
		}
		formals[i] = graph.Formal{Name: formal.Name, Type: typeIndex}
	}

	ra := &routineAnalyzer{analyzer: a, labels: make(map[string]*patch[int]), typed: typed}
	start, err := ra.analyzeStatements(0, routine.Body)
	if err != nil {
		return err
	}
	if err := ra.finish(); err != nil {
		return err
	}
	return p.publish(&graph.Routine{Start: start, Formals: formals})
}

// checkExpression validates call arities inside an expression through
// the routine patch table.
func (a *Analyzer) checkExpression(expression ast.Expression) error {
	switch e := expression.(type) {
	case *ast.VariableExpression:
		return nil
	case *ast.CallExpression:
		for _, actual := range e.Before {
			if err := a.checkExpression(actual); err != nil {
				return err
			}
		}
		for _, actual := range e.After {
			if err := a.checkExpression(actual); err != nil {
				return err
			}
		}
		return a.deferArityCheck(e.Name, e.Token, len(e.Before)+1+len(e.After))
	default:
		return diagnostics.NewError("A000", expression.GetToken(), "unsupported expression")
	}
}

func (a *Analyzer) deferArityCheck(name string, tok token.Token, actualCount int) error {
	return a.routinePatch(name).onResolve(func(routine *graph.Routine) error {
		if len(routine.Formals) != actualCount {
			return diagnostics.NewError("A001", tok,
				fmt.Sprintf("incorrect number of actuals for %q", name))
		}
		return nil
	})
}

func (a *Analyzer) finish() (*graph.Graph, error) {
	routines := make(map[string]*graph.Routine, len(a.routines))
	for _, name := range sortedKeys(a.routines) {
		p := a.routines[name]
		if !p.resolved {
			return nil, diagnostics.NewError("A002", token.Token{},
				fmt.Sprintf("unknown routine %q", name))
		}
		routines[name] = p.value
	}
	for _, name := range sortedKeys(a.typeNames) {
		if !a.typeNames[name].resolved {
			return nil, diagnostics.NewError("A006", token.Token{},
				fmt.Sprintf("unknown type %q", name))
		}
	}
	return &graph.Graph{Nodes: a.nodes, Types: a.types, Routines: routines}, nil
}

func sortedKeys[T any](m map[string]*patch[T]) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// routineAnalyzer holds the label patches of one routine body; labels
// are routine-scoped. typed records the program's dialect; connect is
// rejected in the untyped dialect.
type routineAnalyzer struct {
	analyzer *Analyzer
	labels   map[string]*patch[int]
	typed    bool
}

func (ra *routineAnalyzer) labelPatch(name string) *patch[int] {
	p, ok := ra.labels[name]
	if !ok {
		p = &patch[int]{}
		ra.labels[name] = p
	}
	return p
}

func (ra *routineAnalyzer) finish() error {
	for _, name := range sortedKeys(ra.labels) {
		if !ra.labels[name].resolved {
			return diagnostics.NewError("A003", token.Token{},
				fmt.Sprintf("unknown label %q", name))
		}
	}
	return nil
}

// analyzeStatements compiles statements in reverse, threading last as
// the index of the rest of the body, and returns the entry index.
func (ra *routineAnalyzer) analyzeStatements(last int, statements []ast.Statement) (int, error) {
	a := ra.analyzer
	for i := len(statements) - 1; i >= 0; i-- {
		switch s := statements[i].(type) {
		case *ast.BranchStatement:
			node := &graph.Branch{}
			last = a.addNode(node)
			err := ra.labelPatch(s.Name).onResolve(func(target int) error {
				node.Next = target
				return nil
			})
			if err != nil {
				return 0, err
			}
		case *ast.LabelStatement:
			p := ra.labelPatch(s.Name)
			if p.resolved {
				return 0, diagnostics.NewError("A004", s.Token,
					fmt.Sprintf("duplicate definition of label %q", s.Name))
			}
			if err := p.publish(last); err != nil {
				return 0, err
			}
		case *ast.AssignStatement:
			if err := a.checkExpression(s.Value); err != nil {
				return 0, err
			}
			last = a.addNode(&graph.Assign{Name: s.Name, Value: s.Value, Next: last})
		case *ast.CallStatement:
			for _, actual := range s.Actuals {
				if err := a.checkExpression(actual); err != nil {
					return 0, err
				}
			}
			last = a.addNode(&graph.Call{Name: s.Name, Actuals: s.Actuals, Next: last})
			if err := a.deferArityCheck(s.Name, s.Token, len(s.Actuals)); err != nil {
				return 0, err
			}
		case *ast.ReceiveStatement:
			last = a.addNode(&graph.Receive{Source: s.Source, Variable: s.Variable, Next: last})
		case *ast.SendStatement:
			last = a.addNode(&graph.Send{Destination: s.Destination, Variable: s.Variable, Next: last})
		case *ast.OfferStatement:
			accepted, err := ra.analyzeStatements(last, s.Accepted)
			if err != nil {
				return 0, err
			}
			denied, err := ra.analyzeStatements(last, s.Denied)
			if err != nil {
				return 0, err
			}
			last = a.addNode(&graph.Offer{Client: s.Client, Accepted: accepted, Denied: denied})
		case *ast.AcceptStatement:
			last = a.addNode(&graph.Accept{Server: s.Server, Next: last})
		case *ast.DenyStatement:
			last = a.addNode(&graph.Deny{Server: s.Server, Next: last})
		case *ast.CloseStatement:
			last = a.addNode(&graph.Close{Name: s.Name, Next: last})
		case *ast.ConnectStatement:
			if !ra.typed {
				return 0, diagnostics.NewError("A007", s.Token, "connect requires the typed dialect")
			}
			last = a.addNode(&graph.Connect{Left: s.Left, Right: s.Right, Next: last})
		default:
			return 0, diagnostics.NewError("A000", s.GetToken(), "unsupported statement")
		}
	}
	return last, nil
}
