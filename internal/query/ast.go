package query

// Query is a compiled xpath-subset expression: a sequence of steps
// applied left to right (spec.md §4.3 `path`).
type Query struct {
	Absolute bool
	Steps    []Step
}

// Step is one '/'-separated path component: a name test plus the
// predicates that filter its candidate set.
type Step struct {
	Wildcard   bool
	Name       string
	Predicates []Expr
}

// Expr is any node of a predicate's AST.
type Expr interface{ isExpr() }

// Literal is an INT or STRING primary.
type Literal struct {
	IsString bool
	Str      string
	Int      int64
}

// AttrRef is the `@NAME` primary: the current candidate's attribute
// value, or none if absent.
type AttrRef struct{ Name string }

// NameRef is the bare-NAME primary (spec.md Open Question, resolved in
// SPEC_FULL.md §4.1): the text of the candidate's first direct child
// element named Name, or none if there is no such child.
type NameRef struct{ Name string }

// Call is a func_call primary from the closed function set.
type Call struct {
	Name string
	Args []Expr
}

// Binary is a comparison or boolean-combination expression: cmp_expr's
// optional comparator, or or_expr/and_expr's 'or'/'and'.
type Binary struct {
	Op    string // "=", "!=", "<", ">", "<=", ">=", "and", "or"
	Left  Expr
	Right Expr
}

// Paren wraps a parenthesized sub-expression purely for fidelity to
// the source grammar; it evaluates identically to its inner Expr.
type Paren struct{ Inner Expr }

func (*Literal) isExpr() {}
func (*AttrRef) isExpr() {}
func (*NameRef) isExpr() {}
func (*Call) isExpr()    {}
func (*Binary) isExpr()  {}
func (*Paren) isExpr()   {}
