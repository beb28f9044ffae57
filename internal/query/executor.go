package query

import "github.com/xmlsilo/xmlsilo/xerr"

// Execute runs q against start through nav, returning matching refs in
// document order. limit <= 0 means unbounded; a positive limit stops
// collecting as soon as the final step has produced that many matches,
// but every intermediate step still runs to completion since later
// predicates may depend on position()/last() over the full sibling
// group.
func Execute(nav Nav, start any, q *Query, limit int) ([]any, *xerr.Error) {
	candidates := []any{start}
	for i, step := range q.Steps {
		stepLimit := 0
		if i == len(q.Steps)-1 {
			stepLimit = limit
		}
		next, err := applyStep(nav, candidates, step, stepLimit)
		if err != nil {
			return nil, err
		}
		candidates = next
		if len(candidates) == 0 && i < len(q.Steps)-1 {
			break
		}
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// applyStep expands every ref in parents to its matching children,
// grouped per-parent so that position()/last() inside predicates are
// relative to that parent's matching siblings, not the flattened set
// across all parents. A positive limit stops the step once that many
// candidates have been kept.
func applyStep(nav Nav, parents []any, step Step, limit int) ([]any, *xerr.Error) {
	var result []any
	for _, parent := range parents {
		group, err := matchingChildren(nav, parent, step)
		if err != nil {
			return nil, err
		}
		last := len(group)
		for idx, cand := range group {
			position := idx + 1
			keep, err := evalPredicates(nav, cand, step.Predicates, position, last)
			if err != nil {
				return nil, err
			}
			if keep {
				result = append(result, cand)
				if limit > 0 && len(result) >= limit {
					return result, nil
				}
			}
		}
	}
	return result, nil
}

func matchingChildren(nav Nav, parent any, step Step) ([]any, *xerr.Error) {
	var group []any
	child, ok, err := nav.Child(parent)
	if err != nil {
		return nil, xerr.Wrap(xerr.Internal, err, "child lookup failed")
	}
	for ok {
		if step.Wildcard {
			group = append(group, child)
		} else {
			name, err := nav.Name(child)
			if err != nil {
				return nil, xerr.Wrap(xerr.Internal, err, "name lookup failed")
			}
			if name == step.Name {
				group = append(group, child)
			}
		}
		child, ok, err = nav.Next(child)
		if err != nil {
			return nil, xerr.Wrap(xerr.Internal, err, "sibling lookup failed")
		}
	}
	return group, nil
}

// evalPredicates applies every bracketed predicate of a step to cand.
// Per spec.md §4.4, any predicate whose value is numeric — a bare `[N]`
// literal, or a numeric function call like `[last()]` or `[first()]`
// — is the `[position()=N]` shorthand, not a boolean-coerced value: a
// nonzero result does not mean "keep", only an exact match against
// position() does. Every other predicate uses the ordinary
// boolean-coercion rule.
func evalPredicates(nav Nav, cand any, preds []Expr, position, last int) (bool, *xerr.Error) {
	ctx := evalCtx{nav: nav, cand: cand, position: position, last: last}
	for _, pred := range preds {
		v, err := ctx.eval(pred)
		if err != nil {
			return false, err
		}
		if v.kind == kindNumber {
			if float64(position) != v.num {
				return false, nil
			}
			continue
		}
		if !v.asBool() {
			return false, nil
		}
	}
	return true, nil
}
