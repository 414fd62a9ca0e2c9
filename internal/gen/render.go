package gen

import (
	"fmt"
	"strconv"
	"strings"

	"projection-generator/expr"
)

var unaryOps = map[string]string{
	expr.OpNot: "OpNot",
	expr.OpNeg: "OpNeg",
}

var binaryOps = map[string]string{
	expr.OpEq:  "OpEq",
	expr.OpNe:  "OpNe",
	expr.OpLt:  "OpLt",
	expr.OpLe:  "OpLe",
	expr.OpGt:  "OpGt",
	expr.OpGe:  "OpGe",
	expr.OpAnd: "OpAnd",
	expr.OpOr:  "OpOr",
	expr.OpAdd: "OpAdd",
	expr.OpSub: "OpSub",
	expr.OpMul: "OpMul",
	expr.OpDiv: "OpDiv",
	expr.OpMod: "OpMod",
}

// treeWriter renders expression trees as expr constructor calls. The root
// construction puts one member per line; everything else stays inline.
type treeWriter struct {
	sb  strings.Builder
	pkg string
	err error
}

func newTreeWriter(pkg string) *treeWriter {
	return &treeWriter{pkg: pkg}
}

// lambda renders l and returns the Go expression.
func (w *treeWriter) lambda(l *expr.Lambda) (string, error) {
	w.sb.Reset()
	w.err = nil

	w.call("NewLambda")
	w.sb.WriteString(strconv.Quote(l.Param) + ", ")
	w.typ(l.Source)
	w.sb.WriteString(", ")

	if l.Body != nil && l.Body.Kind == expr.KindNew && len(l.Body.Fields) > 0 {
		w.call("New")
		w.typ(l.Body.Type)
		w.sb.WriteString(",\n")

		for _, f := range l.Body.Fields {
			w.sb.WriteByte('\t')
			w.field(f)
			w.sb.WriteString(",\n")
		}

		w.sb.WriteString("))")
	} else {
		w.node(l.Body)
		w.sb.WriteByte(')')
	}

	return w.sb.String(), w.err
}

func (w *treeWriter) fail(format string, args ...any) {
	if w.err == nil {
		w.err = fmt.Errorf(format, args...)
	}
}

func (w *treeWriter) call(name string) {
	w.sb.WriteString(w.pkg + "." + name + "(")
}

func (w *treeWriter) typ(t *expr.Type) {
	if t == nil {
		w.sb.WriteString("nil")
		return
	}

	if t.Nullable {
		w.call("Nullable")
	}

	switch t.Kind {
	case expr.TypeBasic:
		w.call("Basic")
		w.sb.WriteString(strconv.Quote(t.Name))
	case expr.TypeNamed:
		w.named("Named", t)
	case expr.TypeStruct:
		w.named("Struct", t)
	case expr.TypeShape:
		if t.Name == "" {
			w.fail("shape %s has no emitted name", t)
		}

		w.named("Shape", t)
	case expr.TypeSlice:
		w.call("SliceOf")
		w.typ(t.Elem)
	case expr.TypeMap:
		w.call("MapOf")
		w.typ(t.Key)
		w.sb.WriteString(", ")
		w.typ(t.Elem)
	default:
		w.fail("cannot render type kind %s", t.Kind)
	}

	w.sb.WriteByte(')')

	if t.Nullable {
		w.sb.WriteByte(')')
	}
}

func (w *treeWriter) named(ctor string, t *expr.Type) {
	w.call(ctor)
	w.sb.WriteString(strconv.Quote(t.Pkg) + ", " + strconv.Quote(t.Name))
}

func (w *treeWriter) field(f expr.Field) {
	w.call("F")
	w.sb.WriteString(strconv.Quote(f.Name) + ", ")
	w.node(f.Value)
	w.sb.WriteByte(')')
}

func (w *treeWriter) args(nodes ...*expr.Node) {
	for _, n := range nodes {
		w.sb.WriteString(", ")
		w.node(n)
	}
}

func (w *treeWriter) node(n *expr.Node) {
	if n == nil {
		w.sb.WriteString("nil")
		return
	}

	switch n.Kind {
	case expr.KindParam, expr.KindCapture:
		w.call(n.Kind.String())
		w.sb.WriteString(strconv.Quote(n.Name) + ", ")
		w.typ(n.Type)

	case expr.KindConst:
		w.call("Const")
		w.constant(n.Value)
		w.sb.WriteString(", ")
		w.typ(n.Type)

	case expr.KindNull, expr.KindEmpty:
		w.call(n.Kind.String())
		w.typ(n.Type)

	case expr.KindMember:
		if n.Safe {
			w.call("SafeMember")
		} else {
			w.call("Member")
		}

		w.node(n.Target)
		w.sb.WriteString(", " + strconv.Quote(n.Name) + ", ")
		w.typ(n.Type)

	case expr.KindCall:
		switch {
		case n.Safe:
			w.fail("null-propagating call %s was not rewritten", n.Name)
		case len(n.TypeArgs) > 0:
			w.fail("call %s has type arguments", n.Name)
		case n.Opaque:
			w.call("OpaqueCall")
		default:
			w.call("Call")
		}

		w.node(n.Target)
		w.sb.WriteString(", " + strconv.Quote(n.Name) + ", ")
		w.typ(n.Type)
		w.args(n.Args...)

	case expr.KindLambda:
		w.call("Fn")
		w.sb.WriteString("[]string{")

		for i, p := range n.Params {
			if i > 0 {
				w.sb.WriteString(", ")
			}

			w.sb.WriteString(strconv.Quote(p))
		}

		w.sb.WriteString("}")
		w.args(n.Body)

	case expr.KindUnary:
		w.call("Unary")
		w.op(unaryOps, n.Op)
		w.args(n.Left)
		w.sb.WriteString(", ")
		w.typ(n.Type)

	case expr.KindBinary:
		w.call("Binary")
		w.op(binaryOps, n.Op)
		w.args(n.Left, n.Right)
		w.sb.WriteString(", ")
		w.typ(n.Type)

	case expr.KindCond:
		w.call("Cond")
		w.node(n.Test)
		w.args(n.Then, n.Else)
		w.sb.WriteString(", ")
		w.typ(n.Type)

	case expr.KindCoalesce:
		w.call("Coalesce")
		w.node(n.Left)
		w.args(n.Right)
		w.sb.WriteString(", ")
		w.typ(n.Type)

	case expr.KindNew:
		w.call("New")
		w.typ(n.Type)

		for _, f := range n.Fields {
			w.sb.WriteString(", ")
			w.field(f)
		}

	default:
		w.fail("cannot render node kind %d", int(n.Kind))
		w.sb.WriteString("nil")

		return
	}

	w.sb.WriteByte(')')
}

func (w *treeWriter) op(names map[string]string, op string) {
	name, ok := names[op]
	if !ok {
		w.fail("unknown operator %q", op)
	}

	w.sb.WriteString(w.pkg + "." + name)
}

func (w *treeWriter) constant(v any) {
	switch c := v.(type) {
	case nil:
		w.sb.WriteString("nil")
	case string:
		w.sb.WriteString(strconv.Quote(c))
	case bool:
		w.sb.WriteString(strconv.FormatBool(c))
	case int:
		w.sb.WriteString("int64(" + strconv.Itoa(c) + ")")
	case int64:
		w.sb.WriteString("int64(" + strconv.FormatInt(c, 10) + ")")
	case float64:
		w.sb.WriteString("float64(" + strconv.FormatFloat(c, 'g', -1, 64) + ")")
	default:
		w.fail("cannot render constant of type %T", v)
		w.sb.WriteString("nil")
	}
}
