package selector

import "strings"

// Print renders e in canonical selector notation without comments or
// incidental whitespace.
func Print(e Expr) string {
	var sb strings.Builder
	write(&sb, e)

	return sb.String()
}

func write(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Ident:
		sb.WriteString(n.Name)
	case *Literal:
		sb.WriteString(n.Raw)
	case *MemberExpr:
		operand(sb, n.X)
		sb.WriteString(link(n.Safe) + n.Name)
	case *CallExpr:
		if n.X != nil {
			operand(sb, n.X)
			sb.WriteString(link(n.Safe))
		}

		sb.WriteString(n.Name)
		if len(n.TypeArgs) > 0 {
			sb.WriteString("<" + strings.Join(n.TypeArgs, ", ") + ">")
		}

		sb.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			write(sb, a)
		}

		sb.WriteByte(')')
	case *LambdaExpr:
		if len(n.Params) == 1 {
			sb.WriteString(n.Params[0])
		} else {
			sb.WriteString("(" + strings.Join(n.Params, ", ") + ")")
		}

		sb.WriteString(" => ")
		write(sb, n.Body)
	case *UnaryExpr:
		sb.WriteString(n.Op)
		operand(sb, n.X)
	case *BinaryExpr:
		operand(sb, n.X)
		sb.WriteString(" " + n.Op + " ")
		operand(sb, n.Y)
	case *CondExpr:
		operand(sb, n.Test)
		sb.WriteString(" ? ")
		operand(sb, n.Then)
		sb.WriteString(" : ")
		operand(sb, n.Else)
	case *NewExpr:
		sb.WriteString("new ")
		if n.Type != "" {
			sb.WriteString(n.Type + " ")
		}

		if len(n.Members) == 0 {
			sb.WriteString("{}")
			return
		}

		sb.WriteString("{ ")
		for i, m := range n.Members {
			if i > 0 {
				sb.WriteString(", ")
			}

			if m.Explicit {
				sb.WriteString(m.Name + " = ")
			}

			write(sb, m.Value)
		}

		sb.WriteString(" }")
	case *EmptyList:
		sb.WriteString("[]")
	}
}

func operand(sb *strings.Builder, e Expr) {
	switch e.(type) {
	case *BinaryExpr, *CondExpr, *LambdaExpr:
		sb.WriteByte('(')
		write(sb, e)
		sb.WriteByte(')')
	default:
		write(sb, e)
	}
}

func link(safe bool) string {
	if safe {
		return "?."
	}

	return "."
}
