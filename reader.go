package xmlsilo

import (
	"encoding/binary"

	"github.com/xmlsilo/xmlsilo/xerr"
)

// decodeElementAt bounds-checks and decodes the element record at off
// within nodeRegion. It never reads outside nodeRegion: every slice
// access is preceded by a length check, so a truncated or adversarial
// buffer yields an *xerr.Error instead of a panic (spec.md §8 property 4).
func decodeElementAt(nodeRegion []byte, off uint32) (elementRecord, *xerr.Error) {
	if uint64(off)+1 > uint64(len(nodeRegion)) {
		return elementRecord{}, xerr.At(xerr.InvalidData, int(off), "node offset out of bounds")
	}
	tag := nodeRegion[off]
	if tag != tagElement {
		return elementRecord{}, xerr.At(xerr.InvalidData, int(off), "expected element record, found tag %d", tag)
	}
	end := uint64(off) + elementFixedSize
	if end > uint64(len(nodeRegion)) {
		return elementRecord{}, xerr.At(xerr.InvalidData, int(off), "truncated element record")
	}
	rec := elementRecord{}
	p := off + 1
	rec.nameOff = binary.LittleEndian.Uint32(nodeRegion[p : p+4])
	p += 4
	rec.parentOff = binary.LittleEndian.Uint32(nodeRegion[p : p+4])
	p += 4
	rec.nextOff = binary.LittleEndian.Uint32(nodeRegion[p : p+4])
	p += 4
	rec.textOff = binary.LittleEndian.Uint32(nodeRegion[p : p+4])
	p += 4
	rec.attrCount = binary.LittleEndian.Uint16(nodeRegion[p : p+2])
	p += 2
	rec.attrsAt = p

	attrsEnd := uint64(p) + uint64(rec.attrCount)*attrRecordSize
	if attrsEnd > uint64(len(nodeRegion)) {
		return elementRecord{}, xerr.At(xerr.InvalidData, int(off), "truncated attribute list")
	}
	rec.size = elementFixedSize + uint32(rec.attrCount)*attrRecordSize
	return rec, nil
}

// tagAt bounds-checks and returns the tag byte at off.
func tagAt(nodeRegion []byte, off uint32) (byte, *xerr.Error) {
	if uint64(off)+1 > uint64(len(nodeRegion)) {
		return 0, xerr.At(xerr.InvalidData, int(off), "node offset out of bounds")
	}
	return nodeRegion[off], nil
}

// decodeStringAt bounds-checks and decodes the NUL-terminated string at
// off within stringRegion.
func decodeStringAt(stringRegion []byte, off uint32) (string, *xerr.Error) {
	if uint64(off) > uint64(len(stringRegion)) {
		return "", xerr.At(xerr.InvalidData, int(off), "string offset out of bounds")
	}
	rest := stringRegion[off:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return "", xerr.At(xerr.InvalidData, int(off), "unterminated string")
}

// root returns the sentinel root node, or ok=false if the silo has no
// node region at all.
func (s *Silo) root() (Node, bool, *xerr.Error) {
	if len(s.nodeRegion) == 0 {
		return Node{}, false, nil
	}
	if _, err := decodeElementAt(s.nodeRegion, 0); err != nil {
		return Node{}, false, err
	}
	return Node{silo: s, offset: 0}, true, nil
}

// parent returns n's parent, or ok=false if n is the root sentinel.
func (s *Silo) parent(n Node) (Node, bool, *xerr.Error) {
	if n.offset == 0 {
		return Node{}, false, nil
	}
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return Node{}, false, err
	}
	if _, err := decodeElementAt(s.nodeRegion, rec.parentOff); err != nil {
		return Node{}, false, err
	}
	return Node{silo: s, offset: rec.parentOff}, true, nil
}

// next returns n's next sibling, or ok=false at the end of the sibling
// chain (the record at nextOff is an end-of-parent sentinel, or nextOff
// is the defensive 0-means-none encoding).
func (s *Silo) next(n Node) (Node, bool, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return Node{}, false, err
	}
	if rec.nextOff == 0 {
		return Node{}, false, nil
	}
	tag, err := tagAt(s.nodeRegion, rec.nextOff)
	if err != nil {
		return Node{}, false, err
	}
	if tag == tagEnd {
		return Node{}, false, nil
	}
	if _, err := decodeElementAt(s.nodeRegion, rec.nextOff); err != nil {
		return Node{}, false, err
	}
	return Node{silo: s, offset: rec.nextOff}, true, nil
}

// child returns n's first child, or ok=false if n has no children.
func (s *Silo) child(n Node) (Node, bool, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return Node{}, false, err
	}
	childOff := n.offset + rec.size
	tag, err := tagAt(s.nodeRegion, childOff)
	if err != nil {
		return Node{}, false, err
	}
	if tag == tagEnd {
		return Node{}, false, nil
	}
	if _, err := decodeElementAt(s.nodeRegion, childOff); err != nil {
		return Node{}, false, err
	}
	return Node{silo: s, offset: childOff}, true, nil
}

// element returns n's interned element name.
func (s *Silo) element(n Node) (string, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return "", err
	}
	return decodeStringAt(s.stringRegion, rec.nameOff)
}

// attr scans n's attributes linearly for name.
func (s *Silo) attr(n Node, name string) (string, bool, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return "", false, err
	}
	at := rec.attrsAt
	for i := uint16(0); i < rec.attrCount; i++ {
		nameOff, valueOff := attrRecord(s.nodeRegion, at)
		attrName, err := decodeStringAt(s.stringRegion, nameOff)
		if err != nil {
			return "", false, err
		}
		if attrName == name {
			val, err := decodeStringAt(s.stringRegion, valueOff)
			if err != nil {
				return "", false, err
			}
			return val, true, nil
		}
		at += attrRecordSize
	}
	return "", false, nil
}

// attrAt returns the name and value of n's i-th attribute in stored
// order; used by the exporter to preserve that order.
func (s *Silo) attrAt(n Node, i uint16) (name, value string, err *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return "", "", err
	}
	if i >= rec.attrCount {
		return "", "", xerr.New(xerr.InvalidArgument, "attribute index out of range")
	}
	at := rec.attrsAt + uint32(i)*attrRecordSize
	nameOff, valueOff := attrRecord(s.nodeRegion, at)
	name, err = decodeStringAt(s.stringRegion, nameOff)
	if err != nil {
		return "", "", err
	}
	value, err = decodeStringAt(s.stringRegion, valueOff)
	if err != nil {
		return "", "", err
	}
	return name, value, nil
}

func (s *Silo) numAttrs(n Node) (uint16, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return 0, err
	}
	return rec.attrCount, nil
}

// text returns n's text content, or ok=false if absent.
func (s *Silo) text(n Node) (string, bool, *xerr.Error) {
	rec, err := decodeElementAt(s.nodeRegion, n.offset)
	if err != nil {
		return "", false, err
	}
	if rec.textOff == 0 {
		return "", false, nil
	}
	val, err := decodeStringAt(s.stringRegion, rec.textOff)
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// depth counts parent traversals to reach the sentinel root.
func (s *Silo) depth(n Node) (int, *xerr.Error) {
	d := 0
	cur := n
	for cur.offset != 0 {
		p, ok, err := s.parent(cur)
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		cur = p
		d++
	}
	return d, nil
}
