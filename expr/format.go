package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the lambda in selector notation.
func (l *Lambda) String() string {
	if l == nil {
		return "<nil>"
	}

	return l.Param + " => " + l.Body.String()
}

// String renders n in selector notation, e.g.
// `o.Customer != null ? o.Customer.Name : null`.
func (n *Node) String() string {
	var sb strings.Builder
	writeNode(&sb, n)

	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	if n == nil {
		sb.WriteString("<nil>")
		return
	}

	switch n.Kind {
	case KindParam, KindCapture:
		sb.WriteString(n.Name)
	case KindConst:
		writeConst(sb, n.Value)
	case KindNull:
		sb.WriteString("null")
	case KindEmpty:
		sb.WriteString("[]")
	case KindMember:
		writeOperand(sb, n.Target)
		sb.WriteString(link(n.Safe) + n.Name)
	case KindCall:
		if n.Target != nil {
			writeOperand(sb, n.Target)
			sb.WriteString(link(n.Safe))
		}

		sb.WriteString(n.Name)
		if len(n.TypeArgs) > 0 {
			parts := make([]string, len(n.TypeArgs))
			for i, t := range n.TypeArgs {
				parts[i] = t.String()
			}

			sb.WriteString("<" + strings.Join(parts, ", ") + ">")
		}

		sb.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			writeNode(sb, a)
		}

		sb.WriteByte(')')
	case KindLambda:
		if len(n.Params) == 1 {
			sb.WriteString(n.Params[0])
		} else {
			sb.WriteString("(" + strings.Join(n.Params, ", ") + ")")
		}

		sb.WriteString(" => ")
		writeNode(sb, n.Body)
	case KindUnary:
		sb.WriteString(n.Op)
		writeOperand(sb, n.Left)
	case KindBinary:
		writeOperand(sb, n.Left)
		sb.WriteString(" " + n.Op + " ")
		writeOperand(sb, n.Right)
	case KindCond:
		writeOperand(sb, n.Test)
		sb.WriteString(" ? ")
		writeOperand(sb, n.Then)
		sb.WriteString(" : ")
		writeOperand(sb, n.Else)
	case KindCoalesce:
		writeOperand(sb, n.Left)
		sb.WriteString(" ?? ")
		writeOperand(sb, n.Right)
	case KindNew:
		sb.WriteString("new ")
		if s := n.Type.ShapeRoot(); s != nil && s.Name != "" {
			sb.WriteString(s.Name + " ")
		}

		sb.WriteString("{ ")
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(f.Name + " = ")
			writeNode(sb, f.Value)
		}

		sb.WriteString(" }")
	default:
		fmt.Fprintf(sb, "<%s>", n.Kind)
	}
}

// writeOperand parenthesizes operator nodes so the printed form re-parses
// with the same structure.
func writeOperand(sb *strings.Builder, n *Node) {
	if n != nil && (n.Kind == KindBinary || n.Kind == KindCond ||
		n.Kind == KindCoalesce || n.Kind == KindLambda) {
		sb.WriteByte('(')
		writeNode(sb, n)
		sb.WriteByte(')')

		return
	}

	writeNode(sb, n)
}

func writeConst(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case string:
		sb.WriteString(strconv.Quote(x))
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	default:
		fmt.Fprint(sb, x)
	}
}

func link(safe bool) string {
	if safe {
		return "?."
	}

	return "."
}
