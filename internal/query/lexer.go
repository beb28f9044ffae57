// Package query implements the restricted XPath-subset grammar of
// spec.md §4.3–§4.4: a hand-written recursive-descent compiler (no
// generic parsing framework, per spec.md §9) and an executor that
// walks a silo through the Nav interface, keeping this package free of
// any dependency on the silo's own binary format.
package query

import (
	"strings"

	"github.com/xmlsilo/xmlsilo/xerr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokSlash
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokEq
	tokNe
	tokLt
	tokGt
	tokLe
	tokGe
	tokAt
	tokStar
	tokAnd
	tokOr
	tokName
	tokInt
	tokString
)

type token struct {
	kind tokenKind
	text string
	ival int64
	pos  int
}

func isNameStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameCont(r byte) bool {
	return isNameStart(r) || (r >= '0' && r <= '9') || r == '-' || r == ':' || r == '.'
}

func isDigit(r byte) bool { return r >= '0' && r <= '9' }

// lex tokenizes s entirely up front; positions are byte offsets into s.
func lex(s string) ([]token, *xerr.Error) {
	var toks []token
	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/':
			toks = append(toks, token{kind: tokSlash, pos: i})
			i++
		case c == '[':
			toks = append(toks, token{kind: tokLBracket, pos: i})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokRBracket, pos: i})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i})
			i++
		case c == '@':
			toks = append(toks, token{kind: tokAt, pos: i})
			i++
		case c == '*':
			toks = append(toks, token{kind: tokStar, pos: i})
			i++
		case c == '=':
			toks = append(toks, token{kind: tokEq, pos: i})
			i++
		case c == '!':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{kind: tokNe, pos: i})
				i += 2
			} else {
				return nil, xerr.At(xerr.Unsupported, i, "unexpected character %q", c)
			}
		case c == '<':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{kind: tokLe, pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokLt, pos: i})
				i++
			}
		case c == '>':
			if i+1 < n && s[i+1] == '=' {
				toks = append(toks, token{kind: tokGe, pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokGt, pos: i})
				i++
			}
		case c == '"' || c == '\'':
			quote := c
			start := i + 1
			j := start
			for j < n && s[j] != quote {
				j++
			}
			if j >= n {
				return nil, xerr.At(xerr.Unsupported, i, "unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: s[start:j], pos: i})
			i = j + 1
		case isDigit(c):
			start := i
			j := i
			for j < n && isDigit(s[j]) {
				j++
			}
			var v int64
			for _, d := range s[start:j] {
				v = v*10 + int64(d-'0')
			}
			toks = append(toks, token{kind: tokInt, ival: v, text: s[start:j], pos: start})
			i = j
		case isNameStart(c):
			start := i
			j := i
			for j < n && isNameCont(s[j]) {
				j++
			}
			word := s[start:j]
			switch strings.ToLower(word) {
			case "and":
				toks = append(toks, token{kind: tokAnd, text: word, pos: start})
			case "or":
				toks = append(toks, token{kind: tokOr, text: word, pos: start})
			default:
				toks = append(toks, token{kind: tokName, text: word, pos: start})
			}
			i = j
		default:
			return nil, xerr.At(xerr.Unsupported, i, "unexpected character %q", c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: n})
	return toks, nil
}
