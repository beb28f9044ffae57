package xmlsilo

// LoadFlags controls Silo.LoadFromBytes / LoadFromFile.
type LoadFlags uint32

const (
	// LoadNone requests default behavior.
	LoadNone LoadFlags = 0
	// LoadNoMagic skips the magic-marker check (fuzzing / forensic
	// mode), proceeding straight to the remaining header validation.
	LoadNoMagic LoadFlags = 1 << iota
	// LoadWatchBlob registers a file-change notification on the
	// source path (see internal/watch); only meaningful for
	// LoadFromFile.
	LoadWatchBlob
)

// CompileFlags controls Builder.Compile / Builder.Ensure.
type CompileFlags uint32

const (
	// CompileNone requests default behavior: whitespace is collapsed
	// and all recorded translations are kept.
	CompileNone CompileFlags = 0
	// CompileLiteralText preserves text whitespace verbatim instead
	// of collapsing runs of whitespace to a single space.
	CompileLiteralText CompileFlags = 1 << iota
	// CompileNativeLangs keeps, per xml:lang sibling group, only the
	// translation matching the builder's recorded locale preference,
	// discarding the rest.
	CompileNativeLangs
	// CompileIgnoreInvalid is accepted by Builder.Compile and
	// Builder.Ensure (and folded into the GUID) but changes nothing
	// there: import-time tolerance of malformed input is set with
	// Builder.IgnoreInvalid before ImportXML/ImportFile.
	CompileIgnoreInvalid
)

// ExportFlags controls Silo.ToXML / Node.Export.
type ExportFlags uint32

const (
	// ExportNone requests the minimal single-line, unindented,
	// undeclared form.
	ExportNone ExportFlags = 0
	// ExportAddHeader prepends an XML declaration.
	ExportAddHeader ExportFlags = 1 << iota
	// ExportMultiline puts each element on its own line.
	ExportMultiline
	// ExportIndent indents two spaces per depth level; implies
	// ExportMultiline.
	ExportIndent
	// ExportIncludeSiblings emits the node plus all following
	// siblings, not just the node itself.
	ExportIncludeSiblings
	// ExportCollapseEmpty renders elements with no children and no
	// text as self-closing tags.
	ExportCollapseEmpty
)

func (f ExportFlags) has(bit ExportFlags) bool { return f&bit != 0 }
