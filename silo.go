package xmlsilo

import (
	"os"

	"golang.org/x/exp/mmap"

	"github.com/xmlsilo/xmlsilo/internal/query"
	"github.com/xmlsilo/xmlsilo/internal/watch"
	"github.com/xmlsilo/xmlsilo/xerr"
)

// Silo is a loaded, read-only view of the binary format described in
// SPEC_FULL.md §3. Every navigation method on Node ultimately bottoms
// out in bounds-checked reads against nodeRegion/stringRegion; Silo
// itself never mutates them once loaded.
type Silo struct {
	guid        [16]byte
	nodeRegion  []byte
	stringRegion []byte

	// reader is the mmap.ReaderAt the file was read through when loaded
	// via LoadFromFile, held until Close; nil when loaded from an
	// in-memory buffer. nodeRegion/stringRegion point into a heap copy
	// of the file's contents, not into the mapping.
	reader *mmap.ReaderAt
	watcher *watch.Watcher
}

// GUID returns the content-addressed identifier recorded in the silo's
// header (see Builder.Compile).
func (s *Silo) GUID() [16]byte { return s.guid }

// Valid reports whether the silo has a usable root; always true for a
// Silo returned by a successful Load call.
func (s *Silo) Valid() bool {
	return len(s.nodeRegion) > 0
}

// Root returns the sentinel root node, whose children are the
// document's top-level elements.
func (s *Silo) Root() (Node, error) {
	n, ok, err := s.root()
	if err != nil {
		return Node{}, err
	}
	if !ok {
		return Node{}, xerr.New(xerr.InvalidData, "silo has no root node")
	}
	return n, nil
}

// ToXML renders the whole document (the root sentinel's children) as
// XML text per flags.
func (s *Silo) ToXML(flags ExportFlags) (string, error) {
	root, err := s.Root()
	if err != nil {
		return "", err
	}
	first, ok, err := root.Child()
	if err != nil {
		return "", err
	}
	if !ok {
		if flags.has(ExportAddHeader) {
			return xmlDeclaration, nil
		}
		return "", nil
	}
	return first.Export(flags | ExportIncludeSiblings)
}

// Query evaluates xpath against the whole document, as if rooted one
// level above the top-level elements.
func (s *Silo) Query(xpath string, limit int) ([]Node, error) {
	root, err := s.Root()
	if err != nil {
		return nil, err
	}
	return root.Query(xpath, limit)
}

// QueryFirst evaluates xpath against the whole document and returns
// the first match, or a NotFound error if there is none.
func (s *Silo) QueryFirst(xpath string) (Node, error) {
	root, err := s.Root()
	if err != nil {
		return Node{}, err
	}
	return root.QueryFirst(xpath)
}

// Close releases the silo's backing resources: the memory-mapped file
// (if loaded via LoadFromFile) and the watch registration (if
// LoadWatchBlob was set).
func (s *Silo) Close() error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	if s.reader != nil {
		return s.reader.Close()
	}
	return nil
}

// LoadFromBytes parses buf as an in-memory silo blob. buf is retained
// (zero-copy); callers must not mutate it afterward.
func LoadFromBytes(buf []byte, flags LoadFlags) (*Silo, error) {
	if flags&LoadNoMagic == 0 && !hasMagic(buf) {
		return nil, xerr.New(xerr.InvalidData, "missing magic marker")
	}
	h, ok := decodeHeader(buf)
	if !ok {
		return nil, xerr.New(xerr.InvalidData, "truncated header")
	}
	if h.version != formatVersion1 {
		return nil, xerr.New(xerr.Unsupported, "unsupported format version %d", h.version)
	}
	if uint64(len(buf)) < h.stringOff {
		return nil, xerr.New(xerr.InvalidData, "string region offset beyond buffer end")
	}
	s := &Silo{
		guid:        h.guid,
		nodeRegion:  buf[headerSize:h.stringOff],
		stringRegion: buf[h.stringOff:],
	}
	if _, err := decodeElementAt(s.nodeRegion, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFromFile memory-maps path, copies its contents into a buffer and
// parses that as a silo blob. If LoadWatchBlob is set, the returned Silo
// monitors path for changes and invokes onChange (which may be nil) when
// it is rewritten; the Silo itself is never hot-swapped in place, since
// its Nodes are handles into the contents read at load time - callers
// that want fresh data reload.
func LoadFromFile(path string, flags LoadFlags, onChange func(path string)) (*Silo, error) {
	r, err := mmap.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerr.Wrap(xerr.NotFound, err, "silo file not found: %s", path)
		}
		return nil, xerr.Wrap(xerr.IO, err, "opening silo file %s", path)
	}
	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil {
		r.Close()
		return nil, xerr.Wrap(xerr.IO, err, "reading silo file %s", path)
	}
	s, loadErr := LoadFromBytes(buf, flags)
	if loadErr != nil {
		r.Close()
		return nil, loadErr
	}
	s.reader = r

	if flags&LoadWatchBlob != 0 {
		w, err := watch.New()
		if err != nil {
			s.Close()
			return nil, xerr.Wrap(xerr.IO, err, "starting watch on %s", path)
		}
		if err := w.Add(path, func(changed string) {
			if onChange != nil {
				onChange(changed)
			}
		}); err != nil {
			w.Close()
			s.Close()
			return nil, xerr.Wrap(xerr.IO, err, "watching %s", path)
		}
		s.watcher = w
	}
	return s, nil
}

// SaveToFile encodes the silo's header, node region and string region
// and writes them to path. It works for compiled and loaded silos alike.
func (s *Silo) SaveToFile(path string) error {
	buf, err := s.encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return xerr.Wrap(xerr.IO, err, "writing silo file %s", path)
	}
	return nil
}

// encode reassembles the header + node region + string region into a
// single contiguous buffer suitable for writing to disk.
func (s *Silo) encode() ([]byte, error) {
	stringOff := uint64(headerSize + len(s.nodeRegion))
	buf := make([]byte, stringOff+uint64(len(s.stringRegion)))
	encodeHeader(buf, header{version: formatVersion1, guid: s.guid, stringOff: stringOff})
	copy(buf[headerSize:], s.nodeRegion)
	copy(buf[stringOff:], s.stringRegion)
	return buf, nil
}

// siloNav adapts Silo's Node-returning navigation methods to the
// internal/query package's any-typed Nav interface, so that package
// never needs to import xmlsilo (which would cycle back through its
// own dependency on internal/query).
type siloNav struct{ s *Silo }

func (n siloNav) Child(ref any) (any, bool, error) {
	child, ok, err := n.s.child(ref.(Node))
	if err != nil {
		return nil, false, err
	}
	return child, ok, nil
}

func (n siloNav) Next(ref any) (any, bool, error) {
	next, ok, err := n.s.next(ref.(Node))
	if err != nil {
		return nil, false, err
	}
	return next, ok, nil
}

func (n siloNav) Name(ref any) (string, error) {
	name, err := n.s.element(ref.(Node))
	if err != nil {
		return "", err
	}
	return name, nil
}

func (n siloNav) Attr(ref any, name string) (string, bool, error) {
	v, ok, err := n.s.attr(ref.(Node), name)
	if err != nil {
		return "", false, err
	}
	return v, ok, nil
}

func (n siloNav) Text(ref any) (string, bool, error) {
	v, ok, err := n.s.text(ref.(Node))
	if err != nil {
		return "", false, err
	}
	return v, ok, nil
}

// queryFrom compiles and executes xpath rooted at start. wantFirst
// turns an empty result into a NotFound error instead of an empty
// slice, for QueryFirst's contract.
func (s *Silo) queryFrom(start Node, xpath string, limit int, wantFirst bool) ([]Node, error) {
	q, cerr := query.Compile(xpath)
	if cerr != nil {
		return nil, cerr
	}
	if q.Absolute && start.offset != 0 {
		return nil, xerr.New(xerr.Unsupported, "absolute query %q is not valid from a non-root node", xpath)
	}
	refs, eerr := query.Execute(siloNav{s: s}, start, q, limit)
	if eerr != nil {
		return nil, eerr
	}
	if wantFirst && len(refs) == 0 {
		return nil, xerr.New(xerr.NotFound, "no match for query %q", xpath)
	}
	out := make([]Node, len(refs))
	for i, r := range refs {
		out[i] = r.(Node)
	}
	return out, nil
}
