// Package locale implements the CompileNativeLangs canonicalization
// option (spec.md §4.2): selecting one translated element per
// xml:lang sibling group by locale preference and discarding the rest.
package locale

import (
	"golang.org/x/text/language"

	"github.com/xmlsilo/xmlsilo/xerr"
)

// Matcher holds an ordered locale preference list (most preferred
// first) and matches xml:lang tags against it using BCP-47 matching
// rules (golang.org/x/text/language), the same library cue-lang.org/go
// uses for its own locale-sensitive formatting.
type Matcher struct {
	tags    []language.Tag
	matcher language.Matcher
}

// New parses prefs (e.g. "en-US", "fr") in preference order. An empty
// prefs list yields a Matcher that selects nothing (NATIVE_LANGS then
// has no effect).
func New(prefs []string) (*Matcher, error) {
	if len(prefs) == 0 {
		return &Matcher{}, nil
	}
	tags := make([]language.Tag, 0, len(prefs))
	for _, p := range prefs {
		t, err := language.Parse(p)
		if err != nil {
			return nil, xerr.Wrap(xerr.InvalidArgument, err, "invalid locale preference %q", p)
		}
		tags = append(tags, t)
	}
	return &Matcher{tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Empty reports whether no preferences were configured.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.tags) == 0
}

// BestIndex returns the index within candidates (xml:lang values,
// "" meaning untagged) that best matches the preference list. It
// always returns a valid index into a non-empty candidates slice.
func (m *Matcher) BestIndex(candidates []string) int {
	supported := make([]language.Tag, len(candidates))
	for i, c := range candidates {
		if c == "" {
			supported[i] = language.Und
			continue
		}
		t, err := language.Parse(c)
		if err != nil {
			supported[i] = language.Und
			continue
		}
		supported[i] = t
	}
	_, index, _ := language.NewMatcher(supported).Match(m.tags...)
	if index < 0 || index >= len(candidates) {
		return 0
	}
	return index
}
