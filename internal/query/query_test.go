package query

import "testing"

// =============================================================================
// TEST FIXTURE: an in-memory tree implementing Nav
// =============================================================================

type fakeNode struct {
	name     string
	attrs    map[string]string
	text     string
	hasText  bool
	children []*fakeNode
}

type fakeNav struct{}

func (fakeNav) Child(ref any) (any, bool, error) {
	n := ref.(*fakeNode)
	if len(n.children) == 0 {
		return nil, false, nil
	}
	return n.children[0], true, nil
}

func (fakeNav) Next(ref any) (any, bool, error) {
	n := ref.(*fakeNode)
	parent := n.parentOf()
	if parent == nil {
		return nil, false, nil
	}
	for i, c := range parent.children {
		if c == n {
			if i+1 < len(parent.children) {
				return parent.children[i+1], true, nil
			}
			return nil, false, nil
		}
	}
	return nil, false, nil
}

func (fakeNav) Name(ref any) (string, error) {
	return ref.(*fakeNode).name, nil
}

func (fakeNav) Attr(ref any, name string) (string, bool, error) {
	n := ref.(*fakeNode)
	v, ok := n.attrs[name]
	return v, ok, nil
}

func (fakeNav) Text(ref any) (string, bool, error) {
	n := ref.(*fakeNode)
	return n.text, n.hasText, nil
}

// parentOf does a linear search from the fixture root since fakeNode
// carries no parent pointer; fine for small fixture trees in tests.
func (n *fakeNode) parentOf() *fakeNode {
	return findParent(fixtureRoot, n)
}

func findParent(root, target *fakeNode) *fakeNode {
	for _, c := range root.children {
		if c == target {
			return root
		}
		if p := findParent(c, target); p != nil {
			return p
		}
	}
	return nil
}

var fixtureRoot *fakeNode

func buildFixture() *fakeNode {
	root := &fakeNode{name: "", attrs: map[string]string{}}
	catalog := &fakeNode{name: "catalog", attrs: map[string]string{}}
	root.children = []*fakeNode{catalog}

	item1 := &fakeNode{
		name:    "item",
		attrs:   map[string]string{"id": "1", "g:ID": "sku-1"},
		text:    "",
		hasText: false,
	}
	title1 := &fakeNode{name: "title", text: "Blue Shirt", hasText: true}
	price1 := &fakeNode{name: "price", text: "19.99", hasText: true}
	item1.children = []*fakeNode{title1, price1}

	item2 := &fakeNode{
		name:  "item",
		attrs: map[string]string{"id": "2"},
	}
	title2 := &fakeNode{name: "title", text: "Red Hat", hasText: true}
	price2 := &fakeNode{name: "price", text: "9.99", hasText: true}
	item2.children = []*fakeNode{title2, price2}

	item3 := &fakeNode{
		name:  "item",
		attrs: map[string]string{"id": "3"},
	}
	title3 := &fakeNode{name: "title", text: "Green Scarf", hasText: true}
	item3.children = []*fakeNode{title3}

	catalog.children = []*fakeNode{item1, item2, item3}
	fixtureRoot = root
	return root
}

func names(nav Nav, refs []any) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		n, _ := nav.Name(r)
		out[i] = n
	}
	return out
}

// =============================================================================
// COMPILE TESTS
// =============================================================================

func TestCompileSimplePath(t *testing.T) {
	q, err := Compile("catalog/item")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Steps) != 2 || q.Steps[0].Name != "catalog" || q.Steps[1].Name != "item" {
		t.Fatalf("unexpected steps: %+v", q.Steps)
	}
}

func TestCompileMalformedFunctionCallCitesCallStart(t *testing.T) {
	_, err := Compile("foo[bar(]")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err.Pos != 4 {
		t.Fatalf("expected error position 4 (start of 'bar('), got %d", err.Pos)
	}
}

func TestCompileUnterminatedString(t *testing.T) {
	_, err := Compile(`item[@id="1]`)
	if err == nil {
		t.Fatalf("expected error for unterminated string literal")
	}
}

// =============================================================================
// EXECUTE TESTS
// =============================================================================

func TestExecuteWildcardStep(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/*")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	got := names(fakeNav{}, refs)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d: %v", len(got), got)
	}
}

func TestExecutePositionalShorthand(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item[2]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(refs))
	}
	id, _, _ := fakeNav{}.Attr(refs[0], "id")
	if id != "2" {
		t.Fatalf("expected item id=2, got %s", id)
	}
}

func TestExecuteLastFunction(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item[position()=last()]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(refs))
	}
	id, _, _ := fakeNav{}.Attr(refs[0], "id")
	if id != "3" {
		t.Fatalf("expected item id=3, got %s", id)
	}
}

// TestExecuteBareLastFunctionIsPositionalNotBoolean exercises spec.md
// §8 scenario S3 in its literal form, `item[last()]`: last() evaluates
// to a number (the sibling-group size, 3 here), and per §4.4 any
// numeric predicate value is the `[position()=N]` shorthand rather
// than a boolean-coerced one. A nonzero-is-true reading would wrongly
// keep every item, since 3 is always truthy.
func TestExecuteBareLastFunctionIsPositionalNotBoolean(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item[last()]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected exactly one match (the third item), got %d", len(refs))
	}
	id, _, _ := fakeNav{}.Attr(refs[0], "id")
	if id != "3" {
		t.Fatalf("expected item id=3, got %s", id)
	}
}

// TestExecuteBareFirstFunctionSelectsOnlyPositionOne confirms
// `[first()]` and `[1]` are exactly equivalent, both always numeric
// and hence positional, not "always true".
func TestExecuteBareFirstFunctionSelectsOnlyPositionOne(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item[first()]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected exactly one match (the first item), got %d", len(refs))
	}
	id, _, _ := fakeNav{}.Attr(refs[0], "id")
	if id != "1" {
		t.Fatalf("expected item id=1, got %s", id)
	}
}

func TestExecuteAttrComparison(t *testing.T) {
	root := buildFixture()
	q, err := Compile(`catalog/item[@id="1"]`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(refs))
	}
}

func TestExecuteNumericComparisonOnChildText(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item[number(price) < 15]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 match (Red Hat), got %d", len(refs))
	}
	title, _, _ := fakeNav{}.Text(refs[0].(*fakeNode).children[0])
	if title != "Red Hat" {
		t.Fatalf("expected Red Hat, got %q", title)
	}
}

func TestExecuteNumericComparisonSkipsMissingChild(t *testing.T) {
	// item3 has no <price>; number(price) must not match a numeric
	// comparison, since a missing bare-NAME resolves to none and
	// none coerces to false for ordering comparisons.
	root := buildFixture()
	q, err := Compile("catalog/item[number(price) < 15]")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	for _, r := range refs {
		id, _, _ := fakeNav{}.Attr(r, "id")
		if id == "3" {
			t.Fatalf("item 3 has no price and must not match")
		}
	}
}

func TestExecuteContainsFunction(t *testing.T) {
	root := buildFixture()
	q, err := Compile(`catalog/item[contains(title, "Hat")]`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(refs))
	}
}

func TestExecuteLimitTruncates(t *testing.T) {
	root := buildFixture()
	q, err := Compile("catalog/item")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	refs, xerr := Execute(fakeNav{}, root, q, 2)
	if xerr != nil {
		t.Fatalf("execute error: %v", xerr)
	}
	if len(refs) != 2 {
		t.Fatalf("expected limit to truncate to 2 results, got %d", len(refs))
	}
}

func TestExecuteNumberInvalidDataError(t *testing.T) {
	root := buildFixture()
	q, err := Compile(`catalog/item[number(@id) = 1 and number(title) > 0]`)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	// title is non-numeric text ("Blue Shirt" etc.) for every item, so
	// number(title) must fail with INVALID_DATA rather than silently
	// coercing to zero.
	_, xerr := Execute(fakeNav{}, root, q, 0)
	if xerr == nil {
		t.Fatalf("expected an error from number() on non-numeric text")
	}
}
