package expr

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLParen
	tokRParen
	tokOp
	tokString
	tokNumber
	tokIdent
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// symbols longest first so "<=" wins over "<".
var symbols = []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">", "!"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r := rune(src[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '\'' || r == '"':
			end := strings.IndexByte(src[i+1:], src[i])
			if end < 0 {
				return nil, syntaxErr(i, "unterminated string")
			}
			toks = append(toks, token{tokString, src[i+1 : i+1+end], i})
			i += end + 2
		case isDigit(r) || (r == '-' && i+1 < len(src) && isDigit(rune(src[i+1]))):
			start := i
			i++
			for i < len(src) && (isDigit(rune(src[i])) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i], start})
		case isIdentStart(r):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			sym := ""
			for _, s := range symbols {
				if strings.HasPrefix(src[i:], s) {
					sym = s
					break
				}
			}
			if sym == "" {
				return nil, syntaxErr(i, "unexpected character %q", r)
			}
			toks = append(toks, token{tokOp, sym, i})
			i += len(sym)
		}
	}
	return append(toks, token{tokEOF, "", len(src)}), nil
}

func isDigit(r rune) bool     { return r >= '0' && r <= '9' }
func isIdentPart(r rune) bool { return isIdentStart(r) || isDigit(r) || r == '.' }

func isIdentStart(r rune) bool {
	return r == '_' || r == '/' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
