package query

import (
	"strings"

	"github.com/xmlsilo/xmlsilo/xerr"
)

// Nav is the navigation surface the executor needs from a silo (or any
// other tree). It is defined here, not in terms of the silo's own
// offset type, so that the query package never imports the format it
// queries — the silo package implements Nav and boxes its Node handles
// as the opaque ref values this interface passes around.
type Nav interface {
	// Child returns ref's first child, or ok=false if it has none.
	Child(ref any) (any, bool, error)
	// Next returns ref's next sibling, or ok=false at the end of the
	// sibling chain.
	Next(ref any) (any, bool, error)
	// Name returns ref's element name.
	Name(ref any) (string, error)
	// Attr returns the named attribute's value, or ok=false if absent.
	Attr(ref any, name string) (string, bool, error)
	// Text returns ref's text content, or ok=false if absent.
	Text(ref any) (string, bool, error)
}

type evalCtx struct {
	nav      Nav
	cand     any
	position int
	last     int
}

func (c evalCtx) eval(e Expr) (value, *xerr.Error) {
	switch n := e.(type) {
	case *Literal:
		if n.IsString {
			return stringValue(n.Str), nil
		}
		return numberValue(float64(n.Int)), nil

	case *AttrRef:
		v, ok, err := c.nav.Attr(c.cand, n.Name)
		if err != nil {
			return value{}, xerr.Wrap(xerr.Internal, err, "attribute lookup failed")
		}
		if !ok {
			return noneValue(), nil
		}
		return stringValue(v), nil

	case *NameRef:
		child, ok, err := c.nav.Child(c.cand)
		if err != nil {
			return value{}, xerr.Wrap(xerr.Internal, err, "child lookup failed")
		}
		for ok {
			name, err := c.nav.Name(child)
			if err != nil {
				return value{}, xerr.Wrap(xerr.Internal, err, "name lookup failed")
			}
			if name == n.Name {
				text, hasText, err := c.nav.Text(child)
				if err != nil {
					return value{}, xerr.Wrap(xerr.Internal, err, "text lookup failed")
				}
				if !hasText {
					return stringValue(""), nil
				}
				return stringValue(text), nil
			}
			child, ok, err = c.nav.Next(child)
			if err != nil {
				return value{}, xerr.Wrap(xerr.Internal, err, "sibling lookup failed")
			}
		}
		return noneValue(), nil

	case *Call:
		return c.evalCall(n)

	case *Binary:
		return c.evalBinary(n)

	case *Paren:
		return c.eval(n.Inner)
	}
	return value{}, xerr.New(xerr.Internal, "unreachable expression kind")
}

func (c evalCtx) evalCall(call *Call) (value, *xerr.Error) {
	arity := func(n int) *xerr.Error {
		if len(call.Args) != n {
			return xerr.New(xerr.Unsupported, "%s() takes %d argument(s), got %d", call.Name, n, len(call.Args))
		}
		return nil
	}

	switch call.Name {
	case "text":
		if err := arity(0); err != nil {
			return value{}, err
		}
		text, ok, err := c.nav.Text(c.cand)
		if err != nil {
			return value{}, xerr.Wrap(xerr.Internal, err, "text lookup failed")
		}
		if !ok {
			return noneValue(), nil
		}
		return stringValue(text), nil

	case "first":
		if err := arity(0); err != nil {
			return value{}, err
		}
		return numberValue(1), nil

	case "last":
		if err := arity(0); err != nil {
			return value{}, err
		}
		return numberValue(float64(c.last)), nil

	case "position":
		if err := arity(0); err != nil {
			return value{}, err
		}
		return numberValue(float64(c.position)), nil

	case "contains":
		if err := arity(2); err != nil {
			return value{}, err
		}
		a, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		b, err := c.eval(call.Args[1])
		if err != nil {
			return value{}, err
		}
		return boolValue(strings.Contains(a.asString(), b.asString())), nil

	case "starts-with":
		if err := arity(2); err != nil {
			return value{}, err
		}
		a, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		b, err := c.eval(call.Args[1])
		if err != nil {
			return value{}, err
		}
		return boolValue(strings.HasPrefix(a.asString(), b.asString())), nil

	case "string-length":
		if err := arity(1); err != nil {
			return value{}, err
		}
		a, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		return numberValue(float64(len(a.asString()))), nil

	case "number":
		if err := arity(1); err != nil {
			return value{}, err
		}
		a, err := c.eval(call.Args[0])
		if err != nil {
			return value{}, err
		}
		if a.kind == kindNone {
			return noneValue(), nil
		}
		n, ok := a.asNumber()
		if !ok {
			return value{}, xerr.New(xerr.InvalidData, "cannot coerce %q to a number", a.asString())
		}
		return numberValue(n), nil

	default:
		return value{}, xerr.New(xerr.Unsupported, "unknown function %s()", call.Name)
	}
}

func (c evalCtx) evalBinary(n *Binary) (value, *xerr.Error) {
	switch n.Op {
	case "and":
		l, err := c.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		r, err := c.eval(n.Right)
		if err != nil {
			return value{}, err
		}
		return boolValue(l.asBool() && r.asBool()), nil
	case "or":
		l, err := c.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		r, err := c.eval(n.Right)
		if err != nil {
			return value{}, err
		}
		return boolValue(l.asBool() || r.asBool()), nil
	}

	l, err := c.eval(n.Left)
	if err != nil {
		return value{}, err
	}
	r, err := c.eval(n.Right)
	if err != nil {
		return value{}, err
	}

	// @name comparisons against none: spec.md §4.4 — false for every
	// operator except '!=' against a non-none operand, which is true.
	if l.kind == kindNone || r.kind == kindNone {
		bothNone := l.kind == kindNone && r.kind == kindNone
		if n.Op == "!=" && !bothNone {
			return boolValue(true), nil
		}
		return boolValue(false), nil
	}

	switch n.Op {
	case "=":
		return boolValue(valuesEqual(l, r)), nil
	case "!=":
		return boolValue(!valuesEqual(l, r)), nil
	case "<", "<=", ">", ">=":
		ln, lok := l.asNumber()
		rn, rok := r.asNumber()
		if !lok || !rok {
			return value{}, xerr.New(xerr.InvalidData, "cannot order-compare non-numeric operands with %s", n.Op)
		}
		switch n.Op {
		case "<":
			return boolValue(ln < rn), nil
		case "<=":
			return boolValue(ln <= rn), nil
		case ">":
			return boolValue(ln > rn), nil
		case ">=":
			return boolValue(ln >= rn), nil
		}
	}
	return value{}, xerr.New(xerr.Internal, "unreachable comparison operator %s", n.Op)
}
