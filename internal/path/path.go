// Package path implements the macos://ui/ selector grammar: parsing, escaping, and canonical normalization of hierarchical
// element paths.
//
// Grammar:
//
//	path := "macos://ui/" segment ("/" segment)*
//	segment := role predicate*
//	role := [A-Za-z][A-Za-z0-9_]*
//	predicate := "[" "@" attr "=" '"' value '"' "]"
//	attr := [A-Za-z][A-Za-z0-9_]*
//	value := any character, with \" \\ \n \t escape sequences
package path

import (
	"sort"
	"strings"
	"unicode"

	"github.com/macmcp/macmcp/internal/toolerr"
)

const Scheme = "macos://ui/"

// Predicate is one bracketed [@attr="value"] clause.
type Predicate struct {
	Attr string
	Value string
}

// Segment is one ROLE[@attr="value"]... path component.
type Segment struct {
	Role string
	Predicates []Predicate
}

// Path is a parsed, orderable sequence of segments.
type Path struct {
	Segments []Segment
}

// Parse parses s, which MUST begin with Scheme, into a Path. Fails with
// *toolerr.Error{Code: MalformedPath} on any syntactic violation, including
// unbalanced quotes/brackets and unknown escape sequences.
func Parse(s string) (Path, error) {
	if !strings.HasPrefix(s, Scheme) {
		return Path{}, toolerr.New(toolerr.MalformedPath, "path must start with %q", Scheme)
	}
	rest := s[len(Scheme):]
	if rest == "" {
		// Empty path after the scheme resolves to the snapshot root —
		// represented as a Path with zero segments.
		return Path{}, nil
	}

	segStrs, err := splitSegments(rest)
	if err != nil {
		return Path{}, err
	}

	p := Path{Segments: make([]Segment, 0, len(segStrs))}
	for _, ss := range segStrs {
		seg, err := parseSegment(ss)
		if err != nil {
			return Path{}, err
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

// splitSegments splits rest on '/' that are not inside a quoted predicate
// value, so that a slash inside a quoted value never breaks a segment.
func splitSegments(rest string) ([]string, error) {
	var segs []string
	var cur strings.Builder
	inQuotes := false
	escaped := false
	for _, r := range rest {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && inQuotes:
			cur.WriteRune(r)
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == '/' && !inQuotes:
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, toolerr.New(toolerr.MalformedPath, "unterminated quoted value")
	}
	segs = append(segs, cur.String())
	for _, s := range segs {
		if s == "" {
			return nil, toolerr.New(toolerr.MalformedPath, "empty path segment")
		}
	}
	return segs, nil
}

func isRoleStart(r rune) bool { return unicode.IsLetter(r) }
func isRoleRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func parseSegment(s string) (Segment, error) {
	i := 0
	n := len(s)
	if i >= n || !isRoleStart(rune(s[i])) {
		return Segment{}, toolerr.New(toolerr.MalformedPath, "segment %q missing role", s)
	}
	start := i
	for i < n && isRoleRune(rune(s[i])) {
		i++
	}
	seg := Segment{Role: s[start:i]}

	for i < n {
		if s[i] != '[' {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "unexpected character %q in segment %q", s[i], s)
		}
		i++
		if i >= n || s[i] != '@' {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "predicate must start with '@' in segment %q", s)
		}
		i++
		attrStart := i
		for i < n && isRoleRune(rune(s[i])) {
			i++
		}
		if i == attrStart {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "predicate missing attribute name in segment %q", s)
		}
		attr := s[attrStart:i]
		if i >= n || s[i] != '=' {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "predicate missing '=' in segment %q", s)
		}
		i++
		if i >= n || s[i] != '"' {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "predicate value must be quoted in segment %q", s)
		}
		i++
		var val strings.Builder
		closed := false
		for i < n {
			c := s[i]
			if c == '\\' {
				i++
				if i >= n {
					return Segment{}, toolerr.New(toolerr.MalformedPath, "dangling escape in segment %q", s)
				}
				switch s[i] {
				case '"':
					val.WriteByte('"')
				case '\\':
					val.WriteByte('\\')
				case 'n':
					val.WriteByte('\n')
				case 't':
					val.WriteByte('\t')
				default:
					return Segment{}, toolerr.New(toolerr.MalformedPath, "unknown escape sequence \\%c in segment %q", s[i], s)
				}
				i++
				continue
			}
			if c == '"' {
				closed = true
				i++
				break
			}
			val.WriteByte(c)
			i++
		}
		if !closed {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "unterminated predicate value in segment %q", s)
		}
		if i >= n || s[i] != ']' {
			return Segment{}, toolerr.New(toolerr.MalformedPath, "predicate missing closing ']' in segment %q", s)
		}
		i++
		seg.Predicates = append(seg.Predicates, Predicate{Attr: attr, Value: val.String()})
	}
	return seg, nil
}

// Escape maps '"' -> \", '\' -> \\, newline -> \n, tab -> \t; other
// characters are left untouched.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseWhitespace collapses runs of whitespace to a single space, used
// by Normalize on predicate values. Leading/trailing runs are collapsed to
// one space like interior runs but are not trimmed, since trimming would
// change the semantics of a value the caller relies on matching exactly.
func collapseWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteByte(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize sorts predicates within each segment by attribute name
// (lexicographic), collapses whitespace runs in values, and re-escapes.
// Returns the canonical string form.
func Normalize(p Path) string {
	segs := make([]Segment, len(p.Segments))
	for i, s := range p.Segments {
		preds := make([]Predicate, len(s.Predicates))
		copy(preds, s.Predicates)
		sort.Slice(preds, func(a, b int) bool { return preds[a].Attr < preds[b].Attr })
		for j := range preds {
			preds[j].Value = collapseWhitespace(preds[j].Value)
		}
		segs[i] = Segment{Role: s.Role, Predicates: preds}
	}
	return Serialize(Path{Segments: segs})
}

// Serialize renders p back to its macos://ui/ string form without any
// normalization (callers that already hold a normalized Path should use
// this directly rather than re-running Normalize).
func Serialize(p Path) string {
	var b strings.Builder
	b.WriteString(Scheme)
	for i, s := range p.Segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(s.Role)
		for _, pr := range s.Predicates {
			b.WriteByte('[')
			b.WriteByte('@')
			b.WriteString(pr.Attr)
			b.WriteString(`="`)
			b.WriteString(Escape(pr.Value))
			b.WriteString(`"]`)
		}
	}
	return b.String()
}

// NormalizeString parses then normalizes s in one step, returning
// *toolerr.Error{MalformedPath} on a syntactically invalid input.
func NormalizeString(s string) (string, error) {
	p, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Normalize(p), nil
}

// Append returns a new Path with seg appended, used by the resolver
// (internal/resolve) when it needs to build a full_path incrementally
// while descending a snapshot.
func (p Path) Append(seg Segment) Path {
	out := Path{Segments: make([]Segment, len(p.Segments)+1)}
	copy(out.Segments, p.Segments)
	out.Segments[len(p.Segments)] = seg
	return out
}

func (p Path) String() string { return Serialize(p) }

// Equal reports whether two paths are identical after normalization — the
// only identity test used downstream.
func Equal(a, b Path) bool {
	return Normalize(a) == Normalize(b)
}

// ValidateAttr/ValidateRole exist so callers constructing segments
// programmatically (internal/snapshot) can fail fast with the same
// MalformedPath taxonomy rather than producing a Path that fails to
// round-trip.
func ValidateRole(role string) error {
	if role == "" || !isRoleStart(rune(role[0])) {
		return toolerr.New(toolerr.MalformedPath, "invalid role %q", role)
	}
	for _, r := range role {
		if !isRoleRune(r) {
			return toolerr.New(toolerr.MalformedPath, "invalid role %q", role)
		}
	}
	return nil
}

func ValidateAttr(attr string) error {
	if attr == "" || !isRoleStart(rune(attr[0])) {
		return toolerr.New(toolerr.MalformedPath, "invalid attribute name %q", attr)
	}
	for _, r := range attr {
		if !isRoleRune(r) {
			return toolerr.New(toolerr.MalformedPath, "invalid attribute name %q", attr)
		}
	}
	return nil
}
