package selector

// Expr is a selector syntax tree node.
type Expr interface {
	Pos() int
	exprNode()
}

// Ident is a bare identifier: a lambda parameter, a capture or a type name
// such as Enumerable.
type Ident struct {
	At   int
	Name string
}

// LitKind classifies a literal.
type LitKind int

const (
	LitString LitKind = iota
	LitInt
	LitFloat
	LitBool
	LitNull
)

// Literal is a constant. Value holds a string, int64, float64, bool or nil.
type Literal struct {
	At    int
	Kind  LitKind
	Value any
	Raw   string
}

// MemberExpr is X.Name or, when Safe, X?.Name.
type MemberExpr struct {
	At   int
	X    Expr
	Name string
	Safe bool
}

// CallExpr is a method call X.Name<TypeArgs>(Args). X is nil for a call of
// a free identifier.
type CallExpr struct {
	At       int
	X        Expr
	Name     string
	Safe     bool
	TypeArgs []string
	Args     []Expr
}

// LambdaExpr is p => Body or (p, q) => Body.
type LambdaExpr struct {
	At     int
	Params []string
	Body   Expr
}

// UnaryExpr is a prefix operator applied to X.
type UnaryExpr struct {
	At int
	Op string
	X  Expr
}

// BinaryExpr is X Op Y, including the coalescing operator ??.
type BinaryExpr struct {
	At int
	Op string
	X  Expr
	Y  Expr
}

// CondExpr is Test ? Then : Else.
type CondExpr struct {
	At   int
	Test Expr
	Then Expr
	Else Expr
}

// NewExpr is an object construction. Type is empty for anonymous objects.
type NewExpr struct {
	At      int
	Type    string
	Members []Member
}

// Member is one initializer of a NewExpr. Without an explicit name the
// member is a shorthand and its name comes from the value.
type Member struct {
	At       int
	Name     string
	Explicit bool
	Value    Expr
}

// EmptyList is the [] literal.
type EmptyList struct {
	At int
}

func (e *Ident) Pos() int      { return e.At }
func (e *Literal) Pos() int    { return e.At }
func (e *MemberExpr) Pos() int { return e.At }
func (e *CallExpr) Pos() int   { return e.At }
func (e *LambdaExpr) Pos() int { return e.At }
func (e *UnaryExpr) Pos() int  { return e.At }
func (e *BinaryExpr) Pos() int { return e.At }
func (e *CondExpr) Pos() int   { return e.At }
func (e *NewExpr) Pos() int    { return e.At }
func (e *EmptyList) Pos() int  { return e.At }

func (*Ident) exprNode()      {}
func (*Literal) exprNode()    {}
func (*MemberExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*LambdaExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*CondExpr) exprNode()   {}
func (*NewExpr) exprNode()    {}
func (*EmptyList) exprNode()  {}
