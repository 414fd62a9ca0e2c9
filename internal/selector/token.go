package selector

import "fmt"

// TokenKind classifies a token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokFloat
	TokString
	TokOp
)

// Token is one lexeme. Pos is its byte offset in the selector text.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

func (t Token) String() string {
	switch t.Kind {
	case TokEOF:
		return "end of selector"
	case TokString:
		return "string " + t.Text
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

// is reports whether t is the operator or punctuation op.
func (t Token) is(op string) bool {
	return t.Kind == TokOp && t.Text == op
}

// isKeyword reports whether t is the identifier kw.
func (t Token) isKeyword(kw string) bool {
	return t.Kind == TokIdent && t.Text == kw
}
