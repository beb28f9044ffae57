package xmlsilo

import (
	"strings"

	"github.com/xmlsilo/xmlsilo/xerr"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// export renders n as XML text per flags (spec.md §4.5). With
// ExportIncludeSiblings it also renders n's following siblings.
func (s *Silo) export(n Node, flags ExportFlags) (string, error) {
	var sb strings.Builder
	if flags.has(ExportAddHeader) {
		sb.WriteString(xmlDeclaration)
	}
	multiline := flags.has(ExportMultiline) || flags.has(ExportIndent)
	indent := flags.has(ExportIndent)

	cur := n
	for {
		if err := s.exportNode(&sb, cur, 0, multiline, indent, flags.has(ExportCollapseEmpty)); err != nil {
			return "", err
		}
		if !flags.has(ExportIncludeSiblings) {
			break
		}
		nxt, ok, err := s.next(cur)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		cur = nxt
	}
	return sb.String(), nil
}

func (s *Silo) exportNode(sb *strings.Builder, n Node, depth int, multiline, indent, collapseEmpty bool) *xerr.Error {
	if indent {
		sb.WriteString(strings.Repeat("  ", depth))
	}

	name, err := s.element(n)
	if err != nil {
		return err
	}
	sb.WriteByte('<')
	sb.WriteString(name)

	count, err := s.numAttrs(n)
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		attrName, attrValue, err := s.attrAt(n, i)
		if err != nil {
			return err
		}
		sb.WriteByte(' ')
		sb.WriteString(attrName)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(attrValue))
		sb.WriteByte('"')
	}

	text, hasText, err := s.text(n)
	if err != nil {
		return err
	}
	child, hasChild, err := s.child(n)
	if err != nil {
		return err
	}

	if !hasText && !hasChild && collapseEmpty {
		sb.WriteString("/>")
		if multiline {
			sb.WriteByte('\n')
		}
		return nil
	}

	sb.WriteByte('>')
	if hasText {
		sb.WriteString(escapeText(text))
	}
	if hasChild {
		if multiline && !hasText {
			sb.WriteByte('\n')
		}
		cur := child
		for {
			if err := s.exportNode(sb, cur, depth+1, multiline, indent, collapseEmpty); err != nil {
				return err
			}
			nxt, ok, err := s.next(cur)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			cur = nxt
		}
		if indent && !hasText {
			sb.WriteString(strings.Repeat("  ", depth))
		}
	}
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
	if multiline {
		sb.WriteByte('\n')
	}
	return nil
}

func escapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&apos;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeAttr(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		case '\'':
			sb.WriteString("&apos;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
