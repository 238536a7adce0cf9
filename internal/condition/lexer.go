package condition

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokIdent  tokenKind = iota // field path or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokString                  // "…" or '…'
	tokNumber                  // 42 | -3.5
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

var punctuation = map[rune]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	',': tokComma,
}

// lex splits an expression into tokens. Positions are rune offsets.
func lex(src string) ([]token, error) {
	rs := []rune(src)
	var out []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case punctuation[r] != 0:
			out = append(out, token{punctuation[r], string(r), i})
			i++

		case r == '=' || r == '!' || r == '<' || r == '>':
			if i+1 < len(rs) && rs[i+1] == '=' {
				out = append(out, token{tokOp, string(rs[i : i+2]), i})
				i += 2
				continue
			}
			if r == '=' || r == '!' {
				return nil, fmt.Errorf("position %d: %q must be followed by '='", i, r)
			}
			out = append(out, token{tokOp, string(r), i})
			i++

		case r == '"' || r == '\'':
			s, next, err := lexString(rs, i)
			if err != nil {
				return nil, err
			}
			out = append(out, token{tokString, s, i})
			i = next

		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			out = append(out, token{tokNumber, string(rs[i:j]), i})
			i = j

		case unicode.IsLetter(r) || r == '_':
			j := i + 1
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_' || rs[j] == '.') {
				j++
			}
			word := string(rs[i:j])
			if lw := strings.ToLower(word); lw == "true" || lw == "false" {
				out = append(out, token{tokBool, lw, i})
			} else {
				out = append(out, token{tokIdent, word, i})
			}
			i = j

		default:
			return nil, fmt.Errorf("position %d: unexpected character %q", i, r)
		}
	}
	return append(out, token{tokEOF, "", len(rs)}), nil
}

func lexString(rs []rune, start int) (string, int, error) {
	quote := rs[start]
	var b strings.Builder
	for j := start + 1; j < len(rs); j++ {
		switch rs[j] {
		case '\\':
			if j+1 < len(rs) {
				j++
				b.WriteRune(rs[j])
			}
		case quote:
			return b.String(), j + 1, nil
		default:
			b.WriteRune(rs[j])
		}
	}
	return "", 0, fmt.Errorf("position %d: unterminated string", start)
}
