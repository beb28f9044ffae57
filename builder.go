package xmlsilo

import (
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/xmlsilo/xmlsilo/internal/locale"
	"github.com/xmlsilo/xmlsilo/internal/xmlimport"
	"github.com/xmlsilo/xmlsilo/xerr"
)

// siloNamespace is a fixed UUID namespace under which every silo's
// content-addressed GUID (spec.md §4.5) is derived via UUIDv5, so that
// compiling the same source bytes with the same flags always yields the
// same GUID (testable property 2, determinism).
var siloNamespace = uuid.MustParse("b9a40000-0000-0000-0000-000000000000")

// Builder accumulates one or more imported XML sources into a mutable
// tree, then compiles that tree into an immutable Silo. It is grounded
// on the xml-streamer teacher's Parser, generalized from "stream
// matching elements to a channel" to "build a tree the serializer can
// lay out as a silo".
type Builder struct {
	root               *xmlimport.Node
	sources            [][]byte // concatenated source bytes, for GUID derivation
	collapseWhitespace bool
	ignoreInvalid      bool
	keepComments       bool
	localePrefs        []string
	native             *locale.Matcher
	onSkip             func(msg string, byteOffset int)
}

// New returns an empty Builder. Whitespace collapsing defaults to on,
// matching CompileFlags' zero value.
func New() *Builder {
	return &Builder{
		root:               &xmlimport.Node{Kind: xmlimport.Element, Name: ""},
		collapseWhitespace: true,
		native:             &locale.Matcher{},
	}
}

// StripComments controls whether imported comments are discarded
// immediately (true, the default) or retained on the builder tree for
// inspection prior to Compile (they are never written to the silo
// either way).
func (b *Builder) StripComments(strip bool) *Builder {
	b.keepComments = !strip
	return b
}

// CollapseWhitespace controls whether runs of whitespace in element
// text are collapsed to a single space at compile time.
func (b *Builder) CollapseWhitespace(collapse bool) *Builder {
	b.collapseWhitespace = collapse
	return b
}

// AddLocale appends locale preferences (most-preferred first) used by
// CompileNativeLangs to pick one translation per xml:lang group.
func (b *Builder) AddLocale(prefs ...string) error {
	b.localePrefs = append(b.localePrefs, prefs...)
	m, err := locale.New(b.localePrefs)
	if err != nil {
		return err
	}
	b.native = m
	return nil
}

// ImportXML parses r and merges its top-level elements into the
// builder tree.
func (b *Builder) ImportXML(r io.Reader) error {
	tee := &teeReader{r: r}
	root, err := xmlimport.Import(tee, xmlimport.Options{
		IgnoreInvalid: b.ignoreInvalid,
		KeepComments:  b.keepComments,
		OnSkip:        b.onSkip,
	})
	if err != nil {
		return err
	}
	b.sources = append(b.sources, tee.buf)
	b.root.Children = append(b.root.Children, root.Children...)
	return nil
}

// ImportFile opens path and imports it via ImportXML.
func (b *Builder) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return xerr.Wrap(xerr.NotFound, err, "source file not found: %s", path)
		}
		return xerr.Wrap(xerr.IO, err, "opening source file %s", path)
	}
	defer f.Close()
	return b.ImportXML(f)
}

// IgnoreInvalid controls whether malformed subtrees are skipped
// (CompileIgnoreInvalid) rather than aborting the import.
func (b *Builder) IgnoreInvalid(ignore bool, onSkip func(msg string, byteOffset int)) *Builder {
	b.ignoreInvalid = ignore
	b.onSkip = onSkip
	return b
}

// Compile lays out the accumulated tree as an immutable Silo. flags'
// CompileLiteralText and CompileNativeLangs bits override the
// Builder's CollapseWhitespace/AddLocale configuration for this one
// call; CompileIgnoreInvalid has no effect here since it only governs
// import-time tolerance, already applied in ImportXML/ImportFile.
func (b *Builder) Compile(flags CompileFlags) (*Silo, error) {
	collapse := b.collapseWhitespace && flags&CompileLiteralText == 0
	native := b.native
	if flags&CompileNativeLangs == 0 {
		native = &locale.Matcher{}
	}

	z := newSerializer(collapse, native)
	nodeRegion, stringRegion := z.serializeDocument(b.root)

	s := &Silo{
		guid:         b.computeGUID(flags),
		nodeRegion:   nodeRegion,
		stringRegion: stringRegion,
	}
	return s, nil
}

// computeGUID derives a UUIDv5 of the builder's concatenated source
// bytes plus the compile flags, so that recompiling identical input
// with identical flags always yields an identical GUID (spec.md §4.5).
func (b *Builder) computeGUID(flags CompileFlags) [16]byte {
	var all []byte
	for _, src := range b.sources {
		all = append(all, src...)
	}
	all = append(all, byte(flags))
	return uuid.NewSHA1(siloNamespace, all)
}

// Ensure compiles and writes the builder's tree to dstPath only if
// dstPath is absent or its recorded GUID differs from what
// this Builder would produce; otherwise it loads and returns the
// existing file unchanged. This mirrors a content-addressed build
// cache: repeated Ensure calls over unchanged source are a cheap no-op.
func (b *Builder) Ensure(dstPath string, flags CompileFlags) (*Silo, error) {
	wantGUID := b.computeGUID(flags)
	if existing, err := LoadFromFile(dstPath, LoadNone, nil); err == nil {
		if existing.GUID() == wantGUID {
			return existing, nil
		}
		existing.Close()
	}
	s, err := b.Compile(flags)
	if err != nil {
		return nil, err
	}
	if err := s.SaveToFile(dstPath); err != nil {
		return nil, err
	}
	return s, nil
}

// teeReader captures every byte read from r, so ImportXML can retain
// the exact source bytes for GUID derivation without requiring callers
// to pass an io.Reader that supports re-reading.
type teeReader struct {
	r   io.Reader
	buf []byte
}

func (t *teeReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.buf = append(t.buf, p[:n]...)
	return n, err
}
