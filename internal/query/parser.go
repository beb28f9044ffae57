package query

import (
	"unicode/utf8"

	"github.com/xmlsilo/xmlsilo/xerr"
)

// Compile parses s into a Query. Errors are *xerr.Error of kind
// Unsupported carrying the rune offset of the token (or, for a
// malformed function call, the call's own starting position — see
// DESIGN.md's "Malformed function-call error position" for why that
// specific convention was chosen) where the grammar was violated.
func Compile(s string) (q *Query, err *xerr.Error) {
	defer func() {
		if err != nil && err.HasPos && err.Pos <= len(s) {
			err.Pos = utf8.RuneCountInString(s[:err.Pos])
		}
	}()
	toks, err := lex(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	q = &Query{}
	if p.peek().kind == tokSlash {
		q.Absolute = true
		p.advance()
	}
	steps, err := p.parseSteps()
	if err != nil {
		return nil, err
	}
	q.Steps = steps

	if p.peek().kind != tokEOF {
		return nil, xerr.At(xerr.Unsupported, p.peek().pos, "unexpected trailing input")
	}
	return q, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind tokenKind, what string) (token, *xerr.Error) {
	t := p.peek()
	if t.kind != kind {
		return token{}, xerr.At(xerr.Unsupported, t.pos, "expected %s", what)
	}
	return p.advance(), nil
}

func (p *parser) parseSteps() ([]Step, *xerr.Error) {
	var steps []Step
	step, err := p.parseStep()
	if err != nil {
		return nil, err
	}
	steps = append(steps, step)
	for p.peek().kind == tokSlash {
		p.advance()
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (p *parser) parseStep() (Step, *xerr.Error) {
	var step Step
	t := p.peek()
	switch t.kind {
	case tokStar:
		p.advance()
		step.Wildcard = true
	case tokName:
		p.advance()
		step.Name = t.text
	default:
		return Step{}, xerr.At(xerr.Unsupported, t.pos, "expected element name or '*'")
	}
	for p.peek().kind == tokLBracket {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return Step{}, err
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return Step{}, err
		}
		step.Predicates = append(step.Predicates, expr)
	}
	return step, nil
}

func (p *parser) parseExpr() (Expr, *xerr.Error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, *xerr.Error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, *xerr.Error) {
	left, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseCmp() (Expr, *xerr.Error) {
	left, err := p.parsePrim()
	if err != nil {
		return nil, err
	}
	op := ""
	switch p.peek().kind {
	case tokEq:
		op = "="
	case tokNe:
		op = "!="
	case tokLt:
		op = "<"
	case tokGt:
		op = ">"
	case tokLe:
		op = "<="
	case tokGe:
		op = ">="
	default:
		return left, nil
	}
	p.advance()
	right, err := p.parsePrim()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parsePrim() (Expr, *xerr.Error) {
	t := p.peek()
	switch t.kind {
	case tokInt:
		p.advance()
		return &Literal{Int: t.ival}, nil
	case tokString:
		p.advance()
		return &Literal{IsString: true, Str: t.text}, nil
	case tokAt:
		p.advance()
		nameTok, err := p.expect(tokName, "attribute name")
		if err != nil {
			return nil, err
		}
		return &AttrRef{Name: nameTok.text}, nil
	case tokName:
		nameTok := p.advance()
		if p.peek().kind == tokLParen {
			return p.parseFuncCall(nameTok)
		}
		return &NameRef{Name: nameTok.text}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return &Paren{Inner: inner}, nil
	default:
		return nil, xerr.At(xerr.Unsupported, t.pos, "unexpected token in expression")
	}
}

// parseFuncCall parses the argument list and closing paren of a call
// whose name token (and immediately-following '(') triggered it. Any
// failure while parsing the arguments is re-tagged with the call's own
// starting position rather than the position where parsing actually
// stalled — this is a deliberate, spec-mandated convention (see S5 in
// spec.md §8: "foo[bar(]" cites position 4, the start of "bar(", not
// the position of the unexpected ']').
func (p *parser) parseFuncCall(nameTok token) (Expr, *xerr.Error) {
	startPos := nameTok.pos
	p.advance() // consume '('

	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, xerr.At(xerr.Unsupported, startPos, "malformed call to %s(): %s", nameTok.text, err.Message)
			}
			args = append(args, arg)
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if p.peek().kind != tokRParen {
		return nil, xerr.At(xerr.Unsupported, startPos, "expected ')' in call to %s", nameTok.text)
	}
	p.advance()
	return &Call{Name: nameTok.text, Args: args}, nil
}
