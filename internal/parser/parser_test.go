package parser_test

import (
	"testing"

	"github.com/funvibe/chorus/internal/ast"
	"github.com/funvibe/chorus/internal/lexer"
	"github.com/funvibe/chorus/internal/parser"
	"github.com/funvibe/chorus/internal/token"
)

func parse(t *testing.T, input string) *ast.Program {
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
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	return program
}

func TestTypePrecedence(t *testing.T) {
	program := parse(t, "type T = 1 ⊕ 1 ⊗ T")
	if len(program.Types) != 1 {
		t.Fatalf("types = %d, want 1", len(program.Types))
	}
	times, ok := program.Types[0].Value.(*ast.TimesType)
	if !ok {
		t.Fatalf("root = %T, want *ast.TimesType", program.Types[0].Value)
	}
	if _, ok := times.Value.(*ast.PlusType); !ok {
		t.Fatalf("value = %T, want *ast.PlusType", times.Value)
	}
	variable, ok := times.Next.(*ast.TypeVariable)
	if !ok || variable.Name != "T" || variable.IsDual {
		t.Fatalf("next = %#v, want type variable T", times.Next)
	}
}

func TestRightAssociativity(t *testing.T) {
	program := parse(t, "type T = 1 ⅋ 1 ⅋ 1")
	outer, ok := program.Types[0].Value.(*ast.LollipopType)
	if !ok {
		t.Fatalf("root = %T, want *ast.LollipopType", program.Types[0].Value)
	}
	if _, ok := outer.Value.(*ast.OneType); !ok {
		t.Fatalf("left = %T, want *ast.OneType", outer.Value)
	}
	if _, ok := outer.Next.(*ast.LollipopType); !ok {
		t.Fatalf("right = %T, want nested *ast.LollipopType", outer.Next)
	}
}

func TestDualTypeVariable(t *testing.T) {
	program := parse(t, "type D = ⊗T ⅋ 1")
	lollipop := program.Types[0].Value.(*ast.LollipopType)
	variable, ok := lollipop.Value.(*ast.TypeVariable)
	if !ok || variable.Name != "T" || !variable.IsDual {
		t.Fatalf("value = %#v, want dual type variable T", lollipop.Value)
	}
}

func TestParenthesizedType(t *testing.T) {
	program := parse(t, "type T = (1 ⊗ 1) & 1")
	with, ok := program.Types[0].Value.(*ast.WithType)
	if !ok {
		t.Fatalf("root = %T, want *ast.WithType", program.Types[0].Value)
	}
	if _, ok := with.Accept.(*ast.TimesType); !ok {
		t.Fatalf("accept = %T, want *ast.TimesType", with.Accept)
	}
}

func TestStatements(t *testing.T) {
	program := parse(t, `
routine worker(c: 1, d: 1 ⊕ 1) {
	l:
	x = c
	d offer {
		d accept
	} else {
		d deny
	}
	d receive y
	d send y
	x connect y
	c close
	l
}`)
	routine := program.Routines[0]
	if routine.Name != "worker" {
		t.Fatalf("name = %q, want worker", routine.Name)
	}
	if len(routine.Formals) != 2 || routine.Formals[0].Name != "c" || routine.Formals[1].Name != "d" {
		t.Fatalf("formals = %#v", routine.Formals)
	}

	kinds := make([]string, 0, len(routine.Body))
	for _, statement := range routine.Body {
		switch statement.(type) {
		case *ast.LabelStatement:
			kinds = append(kinds, "label")
		case *ast.AssignStatement:
			kinds = append(kinds, "assign")
		case *ast.OfferStatement:
			kinds = append(kinds, "offer")
		case *ast.ReceiveStatement:
			kinds = append(kinds, "receive")
		case *ast.SendStatement:
			kinds = append(kinds, "send")
		case *ast.ConnectStatement:
			kinds = append(kinds, "connect")
		case *ast.CloseStatement:
			kinds = append(kinds, "close")
		case *ast.BranchStatement:
			kinds = append(kinds, "branch")
		default:
			kinds = append(kinds, "other")
		}
	}
	want := []string{"label", "assign", "offer", "receive", "send", "connect", "close", "branch"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("statement %d = %s, want %s", i, kinds[i], want[i])
		}
	}

	offer := routine.Body[2].(*ast.OfferStatement)
	if len(offer.Accepted) != 1 || len(offer.Denied) != 1 {
		t.Fatalf("offer branches = %d/%d, want 1/1", len(offer.Accepted), len(offer.Denied))
	}
}

func TestCallExpressionHole(t *testing.T) {
	program := parse(t, "routine main(c: 1) { x = f(a, , b)  c close }")
	assign := program.Routines[0].Body[0].(*ast.AssignStatement)
	call, ok := assign.Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("value = %T, want *ast.CallExpression", assign.Value)
	}
	if call.Name != "f" || len(call.Before) != 1 || len(call.After) != 1 {
		t.Fatalf("call = %q before=%d after=%d, want f 1 1", call.Name, len(call.Before), len(call.After))
	}
}

func TestHoleOnlyCall(t *testing.T) {
	program := parse(t, "routine main(c: 1) { w = f()  c close }")
	assign := program.Routines[0].Body[0].(*ast.AssignStatement)
	call := assign.Value.(*ast.CallExpression)
	if len(call.Before) != 0 || len(call.After) != 0 {
		t.Fatalf("before=%d after=%d, want 0 0", len(call.Before), len(call.After))
	}
}

func TestCallStatement(t *testing.T) {
	program := parse(t, "routine main(c: 1) { f(c, g()) }")
	call := program.Routines[0].Body[0].(*ast.CallStatement)
	if call.Name != "f" || len(call.Actuals) != 2 {
		t.Fatalf("call = %q/%d, want f/2", call.Name, len(call.Actuals))
	}
	if _, ok := call.Actuals[0].(*ast.VariableExpression); !ok {
		t.Fatalf("actual 0 = %T, want variable", call.Actuals[0])
	}
	if _, ok := call.Actuals[1].(*ast.CallExpression); !ok {
		t.Fatalf("actual 1 = %T, want call", call.Actuals[1])
	}
}

func TestDialectDetection(t *testing.T) {
	cases := []struct {
		name  string
		input string
		typed bool
	}{
		{"untyped", "routine main(c) { c close }", false},
		{"annotated_formal", "routine main(c: 1) { c close }", true},
		{"type_declaration", "type T = 1 routine main(c) { c close }", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			program := parse(t, tc.input)
			if program.Typed != tc.typed {
				t.Fatalf("Typed = %v, want %v", program.Typed, tc.typed)
			}
		})
	}
}
