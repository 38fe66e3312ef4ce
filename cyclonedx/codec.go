package cyclonedx

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Format selects a wire format.
type Format int

const (
	// FormatJSON is CycloneDX JSON.
	FormatJSON Format = iota
	// FormatXML is CycloneDX XML.
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	}
	return fmt.Sprintf("unknown(%d)", int(f))
}

// ParseFormat converts "json" or "xml" into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return 0, &FormatError{Value: s, Rule: "unsupported format (supported: json, xml)"}
}

// Encode serializes the document at the given version and writes it to w.
// Output is canonical: fixed spec-defined field order, two-space indentation,
// absent optionals omitted, trailing newline. Fields the target version
// cannot carry are silently dropped when optional; populated constructs with
// no representation at the target fail with a *VersionConstraintError before
// anything is written.
func Encode(w io.Writer, b *BOM, format Format, version SpecVersion) error {
	prepared, err := forVersion(b, version)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(prepared, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal CycloneDX JSON: %w", err)
		}
	case FormatXML:
		data, err = xml.MarshalIndent(prepared, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal CycloneDX XML: %w", err)
		}
		data = append([]byte(xml.Header), data...)
	default:
		return &FormatError{Value: format.String(), Rule: "unsupported format"}
	}

	_, err = w.Write(append(data, '\n'))
	return err
}

// EncodeBytes is Encode into a fresh byte slice.
func EncodeBytes(b *BOM, format Format, version SpecVersion) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, b, format, version); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a document expected at the given version. A spec version
// declared in-band (the specVersion key, or the XML namespace) takes
// precedence over the caller's version and is preserved on the returned
// document. Unknown fields are ignored; a type mismatch fails with a
// *ParseError naming the field path. Value-format problems (bad hashes,
// licenses, identifiers) do not fail the parse — they surface later as
// validation report entries, so untrusted input yields its full problem set
// in one pass.
func Decode(r io.Reader, format Format, version SpecVersion) (*BOM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Msg: "reading input", Err: err}
	}
	switch format {
	case FormatJSON:
		return decodeJSON(data, version, true)
	case FormatXML:
		return decodeXML(data, version, true)
	}
	return nil, &FormatError{Value: format.String(), Rule: "unsupported format"}
}

// DecodeAny parses a document of unknown version: the in-band version (the
// specVersion key, or the XML namespace) is used when declared; otherwise
// versions are probed newest first and the first whose schema shape can carry
// the decoded document wins.
func DecodeAny(r io.Reader, format Format) (*BOM, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Msg: "reading input", Err: err}
	}

	var decode func(data []byte, fallback SpecVersion, lenientVersion bool) (*BOM, error)
	switch format {
	case FormatJSON:
		var probe struct {
			SpecVersion string `json:"specVersion"`
		}
		if err := json.Unmarshal(data, &probe); err == nil && probe.SpecVersion != "" {
			v, err := ParseSpecVersion(probe.SpecVersion)
			if err != nil {
				return nil, &ParseError{Path: "specVersion", Msg: err.Error(), Err: err}
			}
			return decodeJSON(data, v, true)
		}
		decode = decodeJSON
	case FormatXML:
		var root struct {
			XMLName xml.Name
		}
		if err := xml.Unmarshal(data, &root); err == nil && root.XMLName.Space != "" {
			return decodeXML(data, Latest, false)
		}
		decode = decodeXML
	default:
		return nil, &FormatError{Value: format.String(), Rule: "unsupported format"}
	}

	// No in-band version. Probe newest first; accept the first version able
	// to express everything the document populated.
	var firstErr error
	for _, v := range probeOrder {
		b, err := decode(data, v, true)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, err := forVersion(b, v); err == nil {
			return b, nil
		}
	}
	if firstErr == nil {
		firstErr = &ParseError{Msg: "document does not match any supported spec version"}
	}
	return nil, firstErr
}

// decodeJSON unmarshals the document. An in-band specVersion always wins;
// lenientVersion controls whether its absence is tolerated (falling back to
// the caller's version) or rejected.
func decodeJSON(data []byte, fallback SpecVersion, lenientVersion bool) (*BOM, error) {
	var b BOM
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, jsonParseError(err)
	}
	// A wrong bomFormat means this is some other document kind entirely; a
	// missing one parses and is left for Validate to report.
	if b.BOMFormat != "" && b.BOMFormat != BOMFormat {
		return nil, &ParseError{Path: "bomFormat", Msg: fmt.Sprintf("expected %q, got %q", BOMFormat, b.BOMFormat)}
	}
	if b.SpecVersion == 0 {
		if !lenientVersion {
			return nil, &ParseError{Path: "specVersion", Msg: "missing"}
		}
		b.SpecVersion = fallback
	}
	normalizeDecoded(&b)
	return &b, nil
}

func decodeXML(data []byte, fallback SpecVersion, lenientVersion bool) (*BOM, error) {
	var b BOM
	if err := xml.Unmarshal(data, &b); err != nil {
		return nil, xmlParseError(err)
	}
	if b.XMLName.Local != "bom" {
		return nil, &ParseError{Msg: fmt.Sprintf("root element is %q, expected \"bom\"", b.XMLName.Local)}
	}
	if ns := b.XMLName.Space; ns != "" {
		v, ok := versionForNamespace(ns)
		if !ok {
			return nil, &ParseError{Msg: fmt.Sprintf("unrecognized CycloneDX namespace %q", ns)}
		}
		b.SpecVersion = v
	} else {
		if !lenientVersion {
			return nil, &ParseError{Msg: "missing CycloneDX namespace on bom element"}
		}
		b.SpecVersion = fallback
	}
	b.BOMFormat = BOMFormat
	b.XMLNS = b.SpecVersion.Namespace()
	normalizeDecoded(&b)
	return &b, nil
}

// normalizeDecoded applies schema defaults after a parse.
func normalizeDecoded(b *BOM) {
	if b.Version == 0 {
		b.Version = 1
	}
}

// jsonParseError converts stdlib decode errors into *ParseError with the
// field path the decoder reached.
func jsonParseError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ParseError{
			Path: typeErr.Field,
			Msg:  fmt.Sprintf("cannot decode JSON %s into %s", typeErr.Value, typeErr.Type),
			Err:  err,
		}
	}
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return &ParseError{
			Msg: "malformed JSON at offset " + strconv.FormatInt(synErr.Offset, 10) + ": " + synErr.Error(),
			Err: err,
		}
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr
	}
	return &ParseError{Msg: err.Error(), Err: err}
}

func xmlParseError(err error) error {
	var synErr *xml.SyntaxError
	if errors.As(err, &synErr) {
		return &ParseError{
			Msg: "malformed XML on line " + strconv.Itoa(synErr.Line) + ": " + synErr.Msg,
			Err: err,
		}
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr
	}
	return &ParseError{Msg: err.Error(), Err: err}
}
