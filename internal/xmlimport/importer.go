package xmlimport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/orisano/gosax"
	"github.com/xmlsilo/xmlsilo/xerr"
)

// Options controls Import's tolerance for malformed input.
type Options struct {
	// IgnoreInvalid skips a malformed subtree (mismatched close tag)
	// instead of aborting the whole import.
	IgnoreInvalid bool
	// KeepComments retains Comment-kind nodes in the tree. Either way
	// the serializer drops them (the silo format has no comment
	// record), so this only affects builder-tree memory use and
	// anything inspecting the tree before compilation.
	KeepComments bool
	// OnSkip, if set, is called with a diagnostic message whenever
	// IgnoreInvalid causes a subtree to be skipped.
	OnSkip func(msg string, byteOffset int)
}

type countingReader struct {
	r   io.Reader
	pos int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += n
	return n, err
}

// Import parses r into a single synthetic document root whose element
// children are the document's real top-level elements — mirroring the
// compiled silo's own root-sentinel shape (SPEC_FULL.md §3) one level
// up, before any offsets exist.
func Import(r io.Reader, opts Options) (*Node, error) {
	cr := &countingReader{r: r}
	gr := gosax.NewReaderSize(cr, 1024*1024*64)

	root := &Node{Kind: Element, Name: ""}
	stack := []*Node{root}
	langStack := []string{""}

	for {
		e, err := gr.Event()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, xerr.Wrap(xerr.InvalidData, err, "xml parse error")
		}
		switch e.Type() {
		case gosax.EventEOF:
			goto done
		case gosax.EventStart:
			name, attrsRaw := gosax.Name(e.Bytes)
			elem := &Node{Kind: Element, Name: string(name)}
			elem.Attrs = parseAttributes(attrsRaw)
			lang := langStack[len(langStack)-1]
			for _, a := range elem.Attrs {
				if a.Name == "xml:lang" {
					lang = a.Value
				}
			}
			elem.Lang = lang

			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, elem)

			selfClosing := len(e.Bytes) >= 2 && e.Bytes[len(e.Bytes)-2] == '/' && e.Bytes[len(e.Bytes)-1] == '>'
			if !selfClosing {
				stack = append(stack, elem)
				langStack = append(langStack, lang)
			}

		case gosax.EventEnd:
			if len(stack) <= 1 {
				if opts.IgnoreInvalid {
					if opts.OnSkip != nil {
						opts.OnSkip("unmatched close tag", cr.pos)
					}
					continue
				}
				return nil, xerr.At(xerr.InvalidData, cr.pos, "unmatched close tag")
			}
			stack = stack[:len(stack)-1]
			langStack = langStack[:len(langStack)-1]

		case gosax.EventText:
			if len(e.Bytes) > 0 && len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, &Node{Kind: Text, Raw: string(e.Bytes)})
			}

		case gosax.EventCData:
			content := e.Bytes
			if len(content) > 12 {
				content = content[9 : len(content)-3]
				if len(content) > 0 && len(stack) > 0 {
					parent := stack[len(stack)-1]
					parent.Children = append(parent.Children, &Node{Kind: Text, Raw: string(content)})
				}
			}

		case gosax.EventComment:
			if !opts.KeepComments {
				continue
			}
			content := e.Bytes
			if len(content) > 7 {
				content = content[4 : len(content)-3]
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					parent.Children = append(parent.Children, &Node{Kind: Comment, Raw: string(content)})
				}
			}
		}
	}
done:
	if len(stack) != 1 {
		if !opts.IgnoreInvalid {
			return nil, xerr.At(xerr.InvalidData, cr.pos, "unclosed element %q", stack[len(stack)-1].Name)
		}
		if opts.OnSkip != nil {
			opts.OnSkip(fmt.Sprintf("unclosed element %q", stack[len(stack)-1].Name), cr.pos)
		}
	}
	return root, nil
}

// parseAttributes is the teacher's hand-rolled quote-scanning attribute
// parser (xml-streamer/parser.go), adapted to append to an Attribute
// slice instead of an XMLElement's Attributes field.
func parseAttributes(attrs []byte) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	var out []Attribute
	i := 0
	for i < len(attrs) {
		for i < len(attrs) && (attrs[i] == ' ' || attrs[i] == '\t' || attrs[i] == '\n' || attrs[i] == '\r') {
			i++
		}
		if i >= len(attrs) {
			break
		}
		nameStart := i
		for i < len(attrs) && attrs[i] != '=' {
			i++
		}
		if i >= len(attrs) {
			break
		}
		name := string(bytes.TrimSpace(attrs[nameStart:i]))
		i++ // skip '='
		for i < len(attrs) && (attrs[i] == ' ' || attrs[i] == '\t') {
			i++
		}
		if i >= len(attrs) {
			break
		}
		quote := attrs[i]
		if quote != '"' && quote != '\'' {
			break
		}
		i++
		valueStart := i
		for i < len(attrs) && attrs[i] != quote {
			i++
		}
		value := string(attrs[valueStart:i])
		i++ // skip closing quote
		out = append(out, Attribute{Name: name, Value: value})
	}
	return out
}
