package xmlsilo

import (
	"encoding/binary"

	"github.com/xmlsilo/xmlsilo/internal/locale"
	"github.com/xmlsilo/xmlsilo/internal/xmlimport"
)

// serializer lays a xmlimport.Node tree out as a silo's node region and
// string region. It is the inverse of reader.go's decode path: every
// offset it writes must be one decodeElementAt/decodeStringAt can read
// back without bounds errors.
type serializer struct {
	collapseWhitespace bool
	native             *locale.Matcher

	nodeRegion   []byte
	stringTable  map[string]uint32
	stringRegion []byte
}

func newSerializer(collapseWhitespace bool, native *locale.Matcher) *serializer {
	s := &serializer{
		collapseWhitespace: collapseWhitespace,
		native:             native,
		stringTable:        make(map[string]uint32),
	}
	// Offset 0 is reserved for the empty string (SPEC_FULL.md §3); every
	// absent-field sentinel points here.
	s.stringRegion = []byte{0}
	s.stringTable[""] = 0
	return s
}

// intern returns s's offset in the string region, adding it if not
// already present.
func (z *serializer) intern(s string) uint32 {
	if off, ok := z.stringTable[s]; ok {
		return off
	}
	off := uint32(len(z.stringRegion))
	z.stringRegion = append(z.stringRegion, s...)
	z.stringRegion = append(z.stringRegion, 0)
	z.stringTable[s] = off
	return off
}

// serializeDocument lays out root's element children directly under
// the synthetic sentinel root at node-region offset 0, matching the
// shape LoadFromBytes expects. It returns the finished node region and
// string region.
func (z *serializer) serializeDocument(root *xmlimport.Node) ([]byte, []byte) {
	children := z.filterLangGroup(root.ElementChildren())

	// Reserve the sentinel's own fixed-size record at offset 0; its
	// nameOff/textOff are both the empty-string sentinel, and it has
	// no attributes. Its "child" is whatever gets laid out right after
	// it, and its nextOff/parentOff are both 0 (itself), which is fine
	// since nothing ever asks the sentinel for its parent or sibling.
	z.nodeRegion = make([]byte, elementFixedSize)
	z.nodeRegion[0] = tagElement
	binary.LittleEndian.PutUint32(z.nodeRegion[1:5], 0)  // nameOff
	binary.LittleEndian.PutUint32(z.nodeRegion[5:9], 0)  // parentOff (self)
	binary.LittleEndian.PutUint32(z.nodeRegion[9:13], 0) // nextOff (self; never followed)
	binary.LittleEndian.PutUint32(z.nodeRegion[13:17], 0)
	binary.LittleEndian.PutUint16(z.nodeRegion[17:19], 0)

	z.layoutSiblings(children, 0)
	return z.nodeRegion, z.stringRegion
}

// layoutSiblings writes nodes in order as children of the element
// record at parentOff (already written) and always appends a trailing
// end-of-group sentinel, whether or not nodes is empty — every element
// record's child list (including an empty one) must terminate in a
// record Silo.child's tagAt probe reads as tagEnd.
//
// Each node's nextOff is patched once the offset it should point to —
// either the next sibling's start or this group's own trailing
// sentinel — becomes known, which is always immediately after that
// node's full subtree (header, attributes, and recursively laid-out
// children) has been written.
func (z *serializer) layoutSiblings(nodes []*xmlimport.Node, parentOff uint32) {
	for _, n := range nodes {
		offset := uint32(len(z.nodeRegion))
		z.reserveElement(n, parentOff)
		grandchildren := z.filterLangGroup(n.ElementChildren())
		z.layoutSiblings(grandchildren, offset)
		next := uint32(len(z.nodeRegion))
		binary.LittleEndian.PutUint32(z.nodeRegion[offset+9:offset+13], next)
	}
	z.appendEndSentinel()
}

// reserveElement appends n's fixed header and inline attribute records,
// with nameOff/textOff/parentOff resolved but nextOff left as a
// placeholder (0) to be patched by layoutSiblings once the offset it
// should point to is known.
func (z *serializer) reserveElement(n *xmlimport.Node, parentOff uint32) {
	rec := make([]byte, elementFixedSize)
	rec[0] = tagElement
	binary.LittleEndian.PutUint32(rec[1:5], z.intern(n.Name))
	binary.LittleEndian.PutUint32(rec[5:9], parentOff)
	binary.LittleEndian.PutUint32(rec[9:13], 0) // nextOff placeholder
	text := n.Text()
	if z.collapseWhitespace {
		text = collapseWhitespace(text)
	}
	if text == "" {
		binary.LittleEndian.PutUint32(rec[13:17], 0)
	} else {
		binary.LittleEndian.PutUint32(rec[13:17], z.intern(text))
	}
	binary.LittleEndian.PutUint16(rec[17:19], uint16(len(n.Attrs)))
	z.nodeRegion = append(z.nodeRegion, rec...)
	for _, a := range n.Attrs {
		attr := make([]byte, attrRecordSize)
		binary.LittleEndian.PutUint32(attr[0:4], z.intern(a.Name))
		binary.LittleEndian.PutUint32(attr[4:8], z.intern(a.Value))
		z.nodeRegion = append(z.nodeRegion, attr...)
	}
}

func (z *serializer) appendEndSentinel() {
	z.nodeRegion = append(z.nodeRegion, tagEnd)
}

// filterLangGroup applies CompileNativeLangs: among a run of adjacent
// siblings sharing the same element Name and carrying an xml:lang
// (spec.md §4.2's "translation group"), keep only the Matcher's
// best-matching one. Siblings without a lang conflict pass through
// untouched. Non-adjacent same-named siblings are different elements,
// not a translation group, and are never merged.
func (z *serializer) filterLangGroup(nodes []*xmlimport.Node) []*xmlimport.Node {
	if z.native.Empty() || len(nodes) == 0 {
		return nodes
	}
	ownLang := func(n *xmlimport.Node) string {
		for _, a := range n.Attrs {
			if a.Name == "xml:lang" {
				return a.Value
			}
		}
		return ""
	}
	var out []*xmlimport.Node
	i := 0
	for i < len(nodes) {
		j := i + 1
		for j < len(nodes) && nodes[j].Name == nodes[i].Name && ownLang(nodes[j]) != "" {
			j++
		}
		group := nodes[i:j]
		if len(group) <= 1 || ownLang(group[0]) == "" {
			out = append(out, nodes[i])
			i++
			continue
		}
		langs := make([]string, len(group))
		for k, g := range group {
			langs[k] = g.Lang
		}
		best := z.native.BestIndex(langs)
		out = append(out, group[best])
		i = j
	}
	return out
}

func collapseWhitespace(s string) string {
	var b []byte
	lastSpace := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		isSpace := c == ' ' || c == '\t' || c == '\n' || c == '\r'
		if isSpace {
			if !lastSpace {
				b = append(b, ' ')
			}
			lastSpace = true
			continue
		}
		b = append(b, c)
		lastSpace = false
	}
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return string(b)
}
