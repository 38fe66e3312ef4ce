// Package cyclonedx models, serializes, validates, and merges CycloneDX
// Software Bill of Materials documents across spec versions 1.3, 1.4, and 1.5.
//
// The package is pure computation: it performs no I/O beyond the readers and
// writers handed to the codec, holds no state between calls, and treats
// documents as immutable value data. Independent goroutines may each hold a
// BOM without synchronization.
package cyclonedx

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// SpecVersion identifies a CycloneDX schema revision.
type SpecVersion int

const (
	// SpecVersion1_3 is CycloneDX 1.3.
	SpecVersion1_3 SpecVersion = iota + 3
	// SpecVersion1_4 is CycloneDX 1.4.
	SpecVersion1_4
	// SpecVersion1_5 is CycloneDX 1.5.
	SpecVersion1_5
)

// Latest is the newest spec version this package can read and write.
const Latest = SpecVersion1_5

// probeOrder lists versions newest-first, the order DecodeAny tries them in.
var probeOrder = []SpecVersion{SpecVersion1_5, SpecVersion1_4, SpecVersion1_3}

func (v SpecVersion) String() string {
	switch v {
	case SpecVersion1_3:
		return "1.3"
	case SpecVersion1_4:
		return "1.4"
	case SpecVersion1_5:
		return "1.5"
	}
	return fmt.Sprintf("unknown(%d)", int(v))
}

// Namespace returns the XML namespace of the version's schema.
func (v SpecVersion) Namespace() string {
	return "http://cyclonedx.org/schema/bom/" + v.String()
}

// ParseSpecVersion converts a "major.minor" string into a SpecVersion.
func ParseSpecVersion(s string) (SpecVersion, error) {
	switch s {
	case "1.3":
		return SpecVersion1_3, nil
	case "1.4":
		return SpecVersion1_4, nil
	case "1.5":
		return SpecVersion1_5, nil
	}
	return 0, &FormatError{Value: s, Rule: "unsupported spec version (supported: 1.3, 1.4, 1.5)"}
}

// versionForNamespace maps an XML namespace back to its version.
func versionForNamespace(ns string) (SpecVersion, bool) {
	for _, v := range probeOrder {
		if v.Namespace() == ns {
			return v, true
		}
	}
	return 0, false
}

func (v SpecVersion) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *SpecVersion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSpecVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v SpecVersion) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: v.String()}, nil
}

func (v *SpecVersion) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := ParseSpecVersion(attr.Value)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
