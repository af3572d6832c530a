package expr

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Keywords with no meaning in this grammar. Seeing one is a disallowed
// construct rather than a plain unresolved name.
var forbiddenWords = map[string]bool{
	"lambda": true, "import": true, "from": true, "exec": true, "eval": true,
	"def": true, "class": true, "global": true, "yield": true, "await": true,
	"for": true, "while": true, "if": true, "else": true, "in": true, "is": true,
	"__import__": true,
}

// Operators ordered longest first so the scanner is greedy.
var operators = []string{
	"**", "//", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!",
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			if i < len(src) && (isIdentStart(rune(src[i]))) {
				return nil, fmt.Errorf("%w: malformed number at offset %d", ErrSyntax, start)
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})
		case c == '"' || c == '\'':
			start := i
			var sb strings.Builder
			i++
			closed := false
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					sb.WriteByte(src[i+1])
					i += 2
					continue
				}
				if src[i] == c {
					closed = true
					i++
					break
				}
				sb.WriteByte(src[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated string at offset %d", ErrSyntax, start)
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), pos: start})
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) && (isIdentStart(rune(src[i])) || isDigit(src[i])) {
				i++
			}
			word := src[start:i]
			if forbiddenWords[word] {
				return nil, fmt.Errorf("%w: %q is not allowed", ErrDisallowed, word)
			}
			toks = append(toks, token{kind: tokIdent, text: word, pos: start})
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++
		case c == '.':
			return nil, fmt.Errorf("%w: attribute access is not allowed", ErrDisallowed)
		case c == '[' || c == ']':
			return nil, fmt.Errorf("%w: indexing is not allowed", ErrDisallowed)
		case c == '{' || c == '}':
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, i)
		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrSyntax, c, i)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || r < unicode.MaxASCII && unicode.IsLetter(r)
}
