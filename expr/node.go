package expr

import "fmt"

//go:generate go tool stringer -type=Kind -trimprefix=Kind

// Kind selects the variant of a Node.
type Kind int

const (
	KindInvalid Kind = iota
	KindParam
	KindCapture
	KindConst
	KindNull
	KindEmpty
	KindMember
	KindCall
	KindLambda
	KindUnary
	KindBinary
	KindCond
	KindCoalesce
	KindNew
)

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k <= KindInvalid || k > KindNew {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindParam; c <= KindNew; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}

	return fmt.Errorf("unknown node kind %q", text)
}

// Operators used by Unary and Binary nodes.
const (
	OpNot = "!"
	OpNeg = "-"

	OpEq  = "=="
	OpNe  = "!="
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpAnd = "&&"
	OpOr  = "||"
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
)

// Node is one expression tree node. Only the fields relevant to Kind are set:
//
//	Param, Capture   Name
//	Const            Value
//	Null, Empty      (Type only)
//	Member           Target, Name, Safe
//	Call             Target, Name, Args, TypeArgs, Safe, Opaque
//	Lambda           Params, Body
//	Unary            Op, Left
//	Binary           Op, Left, Right
//	Cond             Test, Then, Else
//	Coalesce         Left, Right
//	New              Fields
type Node struct {
	Kind Kind  `json:"kind"`
	Type *Type `json:"type,omitempty"`

	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
	Op    string `json:"op,omitempty"`

	// Safe marks a null-propagating link (a?.b). Rewritten trees never set it.
	Safe bool `json:"safe,omitempty"`
	// Opaque marks a call the generator cannot see through, such as a method
	// on a captured value. Opaque calls are never duplicated.
	Opaque bool `json:"opaque,omitempty"`

	Target   *Node   `json:"target,omitempty"`
	Args     []*Node `json:"args,omitempty"`
	TypeArgs []*Type `json:"type_args,omitempty"`

	Params []string `json:"params,omitempty"`
	Body   *Node    `json:"body,omitempty"`

	Left  *Node `json:"left,omitempty"`
	Right *Node `json:"right,omitempty"`

	Test *Node `json:"test,omitempty"`
	Then *Node `json:"then,omitempty"`
	Else *Node `json:"else,omitempty"`

	Fields []Field `json:"fields,omitempty"`
}

// Field is one member initializer of a New node.
type Field struct {
	Name  string `json:"name"`
	Value *Node  `json:"value"`
}

// Lambda is the root of a compiled projection: a single-parameter function
// from the source type to the output type.
type Lambda struct {
	Param  string `json:"param"`
	Source *Type  `json:"source"`
	Body   *Node  `json:"body"`
}

// Result returns the type the lambda produces.
func (l *Lambda) Result() *Type {
	if l == nil || l.Body == nil {
		return nil
	}

	return l.Body.Type
}

// IsChainLink reports whether n is a member access or a method call with a
// receiver, i.e. a link that can participate in a null-propagating chain.
func (n *Node) IsChainLink() bool {
	return n != nil && (n.Kind == KindMember || (n.Kind == KindCall && n.Target != nil))
}

// LiftedType returns the type n produces once null propagation is taken into
// account: a chain with a null-propagating link yields a nullable result, or
// an empty collection for collection-valued chains.
func (n *Node) LiftedType() *Type {
	if n == nil {
		return nil
	}

	if n.HasSafeLink() {
		return Nullable(n.Type)
	}

	return n.Type
}

// HasSafeLink reports whether the chain ending at n contains a
// null-propagating link.
func (n *Node) HasSafeLink() bool {
	for c := n; c.IsChainLink(); c = c.Target {
		if c.Safe {
			return true
		}
	}

	return false
}
