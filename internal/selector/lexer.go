package selector

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"projection-generator/internal/diagnostic"
)

// Operators, longest first so that the lexer matches greedily.
var operators = []string{
	"=>", "?.", "??", "==", "!=", "<=", ">=", "&&", "||",
	".", "?", ":", "<", ">", "+", "-", "*", "/", "%", "!",
	"(", ")", "{", "}", "[", "]", ",", "=",
}

// Lex splits src into tokens, dropping whitespace and // and /* */ comments.
// The returned slice always ends with a TokEOF token.
func Lex(src string) ([]Token, error) {
	var toks []Token

	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])

		switch {
		case unicode.IsSpace(r):
			i += size

		case strings.HasPrefix(src[i:], "//"):
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				i = len(src)
			} else {
				i += end + 1
			}

		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, syntaxError(i, "unterminated comment")
			}

			i += end + 4

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}

				i += size
			}

			toks = append(toks, Token{Kind: TokIdent, Text: src[start:i], Pos: start})

		case isDigit(src[i]) || (src[i] == '.' && i+1 < len(src) && isDigit(src[i+1])):
			tok := lexNumber(src, i)
			toks = append(toks, tok)
			i += len(tok.Text)

		case r == '"':
			tok, err := lexString(src, i)
			if err != nil {
				return nil, err
			}

			toks = append(toks, tok)
			i += len(tok.Text)

		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, syntaxError(i, "unexpected character %q", r)
			}

			// "?." followed by a digit is a conditional whose branch is a
			// number like .5, not a null-propagating member access.
			if op == "?." && i+2 < len(src) && isDigit(src[i+2]) {
				op = "?"
			}

			toks = append(toks, Token{Kind: TokOp, Text: op, Pos: i})
			i += len(op)
		}
	}

	return append(toks, Token{Kind: TokEOF, Pos: len(src)}), nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}

	return ""
}

func lexNumber(src string, start int) Token {
	i := start
	kind := TokInt

	for i < len(src) && isDigit(src[i]) {
		i++
	}

	if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
		kind = TokFloat
		i++

		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}

	return Token{Kind: kind, Text: src[start:i], Pos: start}
}

func lexString(src string, start int) (Token, error) {
	i := start + 1
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case '"':
			return Token{Kind: TokString, Text: src[start : i+1], Pos: start}, nil
		case '\n':
			return Token{}, syntaxError(start, "newline in string literal")
		default:
			i++
		}
	}

	return Token{}, syntaxError(start, "unterminated string literal")
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func syntaxError(pos int, format string, args ...any) *diagnostic.Error {
	return diagnostic.Errorf(diagnostic.CodeUnsupportedSelectorShape,
		"offset %d: "+format, append([]any{pos}, args...)...)
}
