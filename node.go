package xmlsilo

import "github.com/xmlsilo/xmlsilo/xerr"

// Node is a lightweight handle pairing a silo with the byte offset of
// one of its node records. Two Nodes are equal iff they share a silo
// and an offset. Node carries no navigation state of its own — every
// operation re-derives its result by bounds-checked arithmetic on the
// silo's backing buffer (see SPEC_FULL.md §9, "pointer graph → arena +
// offsets").
//
// Data is a per-handle scratch mapping from opaque string keys to
// opaque byte payloads. It is not shared with other handles to the
// same node, including ones produced by navigating away and back; it
// exists purely for caller-attached derived data and is never read or
// written by the silo itself.
type Node struct {
	silo   *Silo
	offset uint32
	data   map[string][]byte
}

// Equal reports whether n and other refer to the same node in the same
// silo.
func (n Node) Equal(other Node) bool {
	return n.silo == other.silo && n.offset == other.offset
}

// IsZero reports whether n is the zero Node (no silo attached); this is
// what every navigation method returns in place of "none".
func (n Node) IsZero() bool {
	return n.silo == nil
}

// Element returns the node's interned element name.
func (n Node) Element() (string, error) {
	if n.silo == nil {
		return "", xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	s, err := n.silo.element(n)
	if err != nil {
		return "", err
	}
	return s, nil
}

// Text returns the node's text content, or ok=false if absent.
func (n Node) Text() (string, bool, error) {
	if n.silo == nil {
		return "", false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	v, ok, err := n.silo.text(n)
	if err != nil {
		return "", false, err
	}
	return v, ok, nil
}

// Attr returns the value of the named attribute, or ok=false if absent.
func (n Node) Attr(name string) (string, bool, error) {
	if n.silo == nil {
		return "", false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	v, ok, err := n.silo.attr(n, name)
	if err != nil {
		return "", false, err
	}
	return v, ok, nil
}

// Attrs returns all attributes in stored (document) order.
func (n Node) Attrs() ([]Attribute, error) {
	if n.silo == nil {
		return nil, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	count, err := n.silo.numAttrs(n)
	if err != nil {
		return nil, err
	}
	out := make([]Attribute, 0, count)
	for i := uint16(0); i < count; i++ {
		name, value, err := n.silo.attrAt(n, i)
		if err != nil {
			return nil, err
		}
		out = append(out, Attribute{Name: name, Value: value})
	}
	return out, nil
}

// Attribute is a name/value pair, returned in the order it was stored.
type Attribute struct {
	Name  string
	Value string
}

// Parent returns n's parent node, or ok=false at the sentinel root.
func (n Node) Parent() (Node, bool, error) {
	if n.silo == nil {
		return Node{}, false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	p, ok, err := n.silo.parent(n)
	if err != nil {
		return Node{}, false, err
	}
	return p, ok, nil
}

// Child returns n's first child, or ok=false if n has no children.
func (n Node) Child() (Node, bool, error) {
	if n.silo == nil {
		return Node{}, false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	c, ok, err := n.silo.child(n)
	if err != nil {
		return Node{}, false, err
	}
	return c, ok, nil
}

// Next returns n's next sibling, or ok=false at the end of the sibling
// chain.
func (n Node) Next() (Node, bool, error) {
	if n.silo == nil {
		return Node{}, false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	nx, ok, err := n.silo.next(n)
	if err != nil {
		return Node{}, false, err
	}
	return nx, ok, nil
}

// Children returns all of n's direct element children in document
// order.
func (n Node) Children() ([]Node, error) {
	var out []Node
	cur, ok, err := n.Child()
	if err != nil {
		return nil, err
	}
	for ok {
		out = append(out, cur)
		cur, ok, err = cur.Next()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Depth returns the number of parent traversals to reach the sentinel
// root; the sentinel itself has depth 0.
func (n Node) Depth() (int, error) {
	if n.silo == nil {
		return 0, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	d, err := n.silo.depth(n)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// Query evaluates xpath rooted at n. A leading '/' is rejected as
// absolute (spec.md §4.4, "subset-scoped queries") unless n is the
// sentinel root. limit of 0 means unlimited.
func (n Node) Query(xpath string, limit int) ([]Node, error) {
	if n.silo == nil {
		return nil, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	return n.silo.queryFrom(n, xpath, limit, false)
}

// QueryFirst evaluates xpath rooted at n and returns the first match,
// or a NotFound error if there is none.
func (n Node) QueryFirst(xpath string) (Node, error) {
	if n.silo == nil {
		return Node{}, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	results, err := n.silo.queryFrom(n, xpath, 1, true)
	if err != nil {
		return Node{}, err
	}
	return results[0], nil
}

// QueryText evaluates xpath rooted at n, returning the text of the
// first match, or "" with ok=false if there is no match or the match
// has no text.
func (n Node) QueryText(xpath string) (string, bool, error) {
	if n.silo == nil {
		return "", false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	results, err := n.silo.queryFrom(n, xpath, 1, false)
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}
	return results[0].Text()
}

// QueryExport evaluates xpath rooted at n, returning the exported XML
// of the first match, or "" with ok=false if there is no match.
func (n Node) QueryExport(xpath string, flags ExportFlags) (string, bool, error) {
	if n.silo == nil {
		return "", false, xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	results, err := n.silo.queryFrom(n, xpath, 1, false)
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}
	out, err := results[0].Export(flags)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// Export renders n (and, if INCLUDE_SIBLINGS is set, its following
// siblings) as XML text per flags.
func (n Node) Export(flags ExportFlags) (string, error) {
	if n.silo == nil {
		return "", xerr.New(xerr.InvalidArgument, "node is zero-valued")
	}
	return n.silo.export(n, flags)
}

// GetData returns the caller-attached payload for key on this handle,
// or ok=false if none was set.
func (n Node) GetData(key string) ([]byte, bool) {
	if n.data == nil {
		return nil, false
	}
	v, ok := n.data[key]
	return v, ok
}

// SetData attaches a payload to key on this handle. It does not persist
// to other handles, including ones navigated to the same node.
func (n *Node) SetData(key string, value []byte) {
	if n.data == nil {
		n.data = make(map[string][]byte)
	}
	n.data[key] = value
}
