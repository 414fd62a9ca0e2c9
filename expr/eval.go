package expr

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

var (
	// ErrNilDereference is returned when a non-propagating link is applied to null.
	ErrNilDereference = errors.New("nil dereference")
	// ErrOpaqueCall is returned for calls the evaluator cannot see through.
	ErrOpaqueCall = errors.New("opaque call")
	// ErrUnbound is returned for parameters or captures missing from the environment.
	ErrUnbound = errors.New("unbound reference")
	// ErrUnsupported is returned for nodes or methods the evaluator does not implement.
	ErrUnsupported = errors.New("unsupported")
)

// Apply evaluates the lambda for one source value. Records are map[string]any,
// sequences are []any, null is nil.
func (l *Lambda) Apply(arg any, captures map[string]any) (any, error) {
	return Eval(l.Body, map[string]any{l.Param: arg}, captures)
}

// Eval evaluates n with native null propagation: a?.b yields null when a is
// null and skips the rest of the chain, a ?? b yields b when a is null.
func Eval(n *Node, params, captures map[string]any) (any, error) {
	e := &evaluator{captures: captures}
	return e.eval(n, params)
}

type evaluator struct {
	captures map[string]any
}

type closure struct {
	params []string
	body   *Node
	scope  map[string]any
}

func (e *evaluator) eval(n *Node, scope map[string]any) (any, error) {
	switch n.Kind {
	case KindParam:
		v, ok := scope[n.Name]
		if !ok {
			return nil, fmt.Errorf("parameter %q: %w", n.Name, ErrUnbound)
		}

		return normalize(v), nil
	case KindCapture:
		v, ok := e.captures[n.Name]
		if !ok {
			return nil, fmt.Errorf("capture %q: %w", n.Name, ErrUnbound)
		}

		return normalize(v), nil
	case KindConst:
		return normalize(n.Value), nil
	case KindNull:
		return nil, nil
	case KindEmpty:
		return []any{}, nil
	case KindMember, KindCall:
		v, _, err := e.chain(n, scope)
		return v, err
	case KindLambda:
		return &closure{params: n.Params, body: n.Body, scope: scope}, nil
	case KindUnary:
		return e.unary(n, scope)
	case KindBinary:
		return e.binary(n, scope)
	case KindCond:
		t, err := e.eval(n.Test, scope)
		if err != nil {
			return nil, err
		}

		if truthy(t) {
			return e.eval(n.Then, scope)
		}

		return e.eval(n.Else, scope)
	case KindCoalesce:
		l, err := e.eval(n.Left, scope)
		if err != nil || l != nil {
			return l, err
		}

		return e.eval(n.Right, scope)
	case KindNew:
		out := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			v, err := e.eval(f.Value, scope)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}

			out[f.Name] = v
		}

		return out, nil
	}

	return nil, fmt.Errorf("node kind %s: %w", n.Kind, ErrUnsupported)
}

// chain evaluates a member access or call. The second result reports that a
// null-propagating link short-circuited the chain.
func (e *evaluator) chain(n *Node, scope map[string]any) (any, bool, error) {
	if n.Target == nil {
		return nil, false, fmt.Errorf("call %s without receiver: %w", n.Name, ErrUnsupported)
	}

	var (
		recv any
		err  error
	)

	if n.Target.IsChainLink() {
		var short bool
		recv, short, err = e.chain(n.Target, scope)
		if err != nil || short {
			return nil, short, err
		}
	} else {
		recv, err = e.eval(n.Target, scope)
		if err != nil {
			return nil, false, err
		}
	}

	if recv == nil && n.Safe {
		return nil, true, nil
	}

	if n.Kind == KindMember {
		if recv == nil {
			return nil, false, fmt.Errorf("member %s: %w", n.Name, ErrNilDereference)
		}

		rec, ok := recv.(map[string]any)
		if !ok {
			return nil, false, fmt.Errorf("member %s of %T: %w", n.Name, recv, ErrUnsupported)
		}

		return normalize(rec[n.Name]), false, nil
	}

	v, err := e.call(n, recv, scope)

	return v, false, err
}

func (e *evaluator) call(n *Node, recv any, scope map[string]any) (any, error) {
	if n.Opaque {
		return nil, fmt.Errorf("%s: %w", n.Name, ErrOpaqueCall)
	}

	args := make([]any, len(n.Args))
	for i, a := range n.Args {
		v, err := e.eval(a, scope)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	if s, ok := recv.(string); ok {
		return stringMethod(n.Name, s, args)
	}

	if recv == nil && !isSequenceMethod(n.Name) {
		return nil, fmt.Errorf("call %s: %w", n.Name, ErrNilDereference)
	}

	var seq []any
	if recv != nil {
		var ok bool
		if seq, ok = recv.([]any); !ok {
			return nil, fmt.Errorf("call %s on %T: %w", n.Name, recv, ErrUnsupported)
		}
	}

	return e.sequenceMethod(n.Name, seq, args)
}

var sequenceMethods = []string{
	"All", "Any", "Count", "Distinct", "First", "FirstOrDefault", "Max", "Min",
	"OrderBy", "OrderByDescending", "Select", "Skip", "Sum", "Take", "ToArray",
	"ToList", "Where",
}

// SequenceMethods lists the collection methods Eval implements, sorted.
func SequenceMethods() []string {
	return slices.Clone(sequenceMethods)
}

func isSequenceMethod(name string) bool {
	_, ok := slices.BinarySearch(sequenceMethods, name)
	return ok
}

func (e *evaluator) invoke(fn any, arg any) (any, error) {
	c, ok := fn.(*closure)
	if !ok || len(c.params) != 1 {
		return nil, fmt.Errorf("expected a single-parameter lambda, got %T: %w", fn, ErrUnsupported)
	}

	scope := make(map[string]any, len(c.scope)+1)
	for k, v := range c.scope {
		scope[k] = v
	}

	scope[c.params[0]] = arg

	return e.eval(c.body, scope)
}

func (e *evaluator) project(seq []any, args []any) ([]any, error) {
	if len(args) == 0 {
		return seq, nil
	}

	out := make([]any, len(seq))
	for i, v := range seq {
		r, err := e.invoke(args[0], v)
		if err != nil {
			return nil, err
		}

		out[i] = r
	}

	return out, nil
}

func (e *evaluator) filter(seq []any, args []any) ([]any, error) {
	if len(args) == 0 {
		return seq, nil
	}

	var out []any
	for _, v := range seq {
		ok, err := e.invoke(args[0], v)
		if err != nil {
			return nil, err
		}

		if truthy(ok) {
			out = append(out, v)
		}
	}

	return out, nil
}

func (e *evaluator) sequenceMethod(name string, seq []any, args []any) (any, error) {
	switch name {
	case "Select":
		if len(args) != 1 {
			return nil, fmt.Errorf("Select expects 1 argument: %w", ErrUnsupported)
		}

		out, err := e.project(seq, args)
		if out == nil {
			out = []any{}
		}

		return out, err
	case "Where":
		out, err := e.filter(seq, args)
		if out == nil {
			out = []any{}
		}

		return out, err
	case "ToList", "ToArray":
		return append([]any{}, seq...), nil
	case "Take", "Skip":
		k, ok := toInt(argAt(args, 0))
		if !ok {
			return nil, fmt.Errorf("%s expects an integer: %w", name, ErrUnsupported)
		}

		k = max(0, min(k, int64(len(seq))))
		if name == "Take" {
			return append([]any{}, seq[:k]...), nil
		}

		return append([]any{}, seq[k:]...), nil
	case "Distinct":
		var out []any
		for _, v := range seq {
			if !slices.ContainsFunc(out, func(o any) bool { return equal(o, v) }) {
				out = append(out, v)
			}
		}

		return append([]any{}, out...), nil
	case "OrderBy", "OrderByDescending":
		keys, err := e.project(seq, args)
		if err != nil {
			return nil, err
		}

		idx := make([]int, len(seq))
		for i := range idx {
			idx[i] = i
		}

		var cmpErr error
		slices.SortStableFunc(idx, func(a, b int) int {
			c, err := compare(keys[a], keys[b])
			if err != nil && cmpErr == nil {
				cmpErr = err
			}

			if name == "OrderByDescending" {
				return -c
			}

			return c
		})

		out := make([]any, len(seq))
		for i, j := range idx {
			out[i] = seq[j]
		}

		return out, cmpErr
	case "Count":
		matched, err := e.filter(seq, args)
		return int64(len(matched)), err
	case "Any":
		matched, err := e.filter(seq, args)
		return len(matched) > 0, err
	case "All":
		matched, err := e.filter(seq, args)
		return len(matched) == len(seq), err
	case "First", "FirstOrDefault":
		matched, err := e.filter(seq, args)
		if err != nil {
			return nil, err
		}

		if len(matched) == 0 {
			if name == "First" {
				return nil, fmt.Errorf("First on an empty sequence: %w", ErrUnsupported)
			}

			return nil, nil
		}

		return matched[0], nil
	case "Sum":
		vals, err := e.project(seq, args)
		if err != nil {
			return nil, err
		}

		var acc any = int64(0)
		for _, v := range vals {
			if v == nil {
				continue
			}

			if acc, err = arith(OpAdd, acc, v); err != nil {
				return nil, err
			}
		}

		return acc, nil
	case "Min", "Max":
		vals, err := e.project(seq, args)
		if err != nil {
			return nil, err
		}

		var best any
		for _, v := range vals {
			if v == nil {
				continue
			}

			if best == nil {
				best = v
				continue
			}

			c, err := compare(v, best)
			if err != nil {
				return nil, err
			}

			if (name == "Min" && c < 0) || (name == "Max" && c > 0) {
				best = v
			}
		}

		return best, nil
	}

	return nil, fmt.Errorf("method %s: %w", name, ErrUnsupported)
}

func stringMethod(name, s string, args []any) (any, error) {
	switch name {
	case "ToUpper":
		return strings.ToUpper(s), nil
	case "ToLower":
		return strings.ToLower(s), nil
	case "Trim":
		return strings.TrimSpace(s), nil
	}

	arg, ok := argAt(args, 0).(string)
	if !ok {
		return nil, fmt.Errorf("string method %s expects a string argument: %w", name, ErrUnsupported)
	}

	switch name {
	case "Contains":
		return strings.Contains(s, arg), nil
	case "StartsWith":
		return strings.HasPrefix(s, arg), nil
	case "EndsWith":
		return strings.HasSuffix(s, arg), nil
	}

	return nil, fmt.Errorf("string method %s: %w", name, ErrUnsupported)
}

func (e *evaluator) unary(n *Node, scope map[string]any) (any, error) {
	x, err := e.eval(n.Left, scope)
	if err != nil || x == nil {
		return nil, err
	}

	switch n.Op {
	case OpNot:
		b, ok := x.(bool)
		if !ok {
			return nil, fmt.Errorf("! on %T: %w", x, ErrUnsupported)
		}

		return !b, nil
	case OpNeg:
		return arith(OpSub, int64(0), x)
	}

	return nil, fmt.Errorf("unary %s: %w", n.Op, ErrUnsupported)
}

func (e *evaluator) binary(n *Node, scope map[string]any) (any, error) {
	l, err := e.eval(n.Left, scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpAnd:
		if !truthy(l) {
			return false, nil
		}

		r, err := e.eval(n.Right, scope)
		return truthy(r), err
	case OpOr:
		if truthy(l) {
			return true, nil
		}

		r, err := e.eval(n.Right, scope)
		return truthy(r), err
	}

	r, err := e.eval(n.Right, scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OpEq:
		return equal(l, r), nil
	case OpNe:
		return !equal(l, r), nil
	case OpLt, OpLe, OpGt, OpGe:
		if l == nil || r == nil {
			return false, nil
		}

		c, err := compare(l, r)
		if err != nil {
			return nil, err
		}

		switch n.Op {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	}

	if l == nil || r == nil {
		return nil, nil
	}

	return arith(n.Op, l, r)
}

func arith(op string, l, r any) (any, error) {
	if ls, ok := l.(string); ok && op == OpAdd {
		return ls + fmt.Sprint(r), nil
	}

	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		switch op {
		case OpAdd:
			return li + ri, nil
		case OpSub:
			return li - ri, nil
		case OpMul:
			return li * ri, nil
		case OpDiv, OpMod:
			if ri == 0 {
				return nil, errors.New("integer division by zero")
			}

			if op == OpDiv {
				return li / ri, nil
			}

			return li % ri, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, fmt.Errorf("%T %s %T: %w", l, op, r, ErrUnsupported)
	}

	switch op {
	case OpAdd:
		return lf + rf, nil
	case OpSub:
		return lf - rf, nil
	case OpMul:
		return lf * rf, nil
	case OpDiv:
		return lf / rf, nil
	}

	return nil, fmt.Errorf("operator %s on floats: %w", op, ErrUnsupported)
}

func compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			switch {
			case ai < bi:
				return -1, nil
			case ai > bi:
				return 1, nil
			}

			return 0, nil
		}
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			}

			return 0, nil
		}
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), nil
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0, nil
			case !ab:
				return -1, nil
			}

			return 1, nil
		}
	}

	return 0, fmt.Errorf("compare %T with %T: %w", a, b, ErrUnsupported)
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if c, err := compare(a, b); err == nil {
		return c == 0
	}

	return reflect.DeepEqual(a, b)
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return nil
}

func toInt(v any) (int64, bool) {
	i, ok := v.(int64)
	return i, ok
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}

	return 0, false
}

// normalize maps Go numeric kinds to int64 / float64 so that values from
// inputs, captures and constants compare uniformly.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	}

	return v
}
