package cyclonedx

import "fmt"

// FormatError reports a primitive value that violates its construction rule.
// The value is kept verbatim so callers can show the offending input.
type FormatError struct {
	Value string // offending input
	Rule  string // violated rule, e.g. "hash length mismatch for SHA-256"
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid value %q: %s", e.Value, e.Rule)
}

// ParseError reports malformed or type-mismatched wire input. Path is the
// dotted field path to the offending field ("metadata.tools[0].name"), empty
// when the document could not be read at all.
type ParseError struct {
	Path string
	Msg  string
	Err  error // underlying decoder error, if any
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "parse error: " + e.Msg
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// VersionConstraintError reports a populated field that cannot be expressed
// at the requested spec version.
type VersionConstraintError struct {
	Path       string      // field path, e.g. "annotations"
	MinVersion SpecVersion // first version able to carry the field
	Target     SpecVersion // version the caller asked for
}

func (e *VersionConstraintError) Error() string {
	return fmt.Sprintf("field %s requires spec version %s or later, cannot serialize at %s",
		e.Path, e.MinVersion, e.Target)
}
