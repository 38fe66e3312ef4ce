package cyclonedx

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const minimalJSON = `{
  "bomFormat": "CycloneDX",
  "specVersion": "1.5",
  "serialNumber": "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79",
  "version": 1
}`

func TestDecodeMinimalDocument(t *testing.T) {
	b, err := Decode(strings.NewReader(minimalJSON), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b.SpecVersion != SpecVersion1_5 {
		t.Errorf("specVersion = %v, want 1.5", b.SpecVersion)
	}
	if b.SerialNumber != "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79" {
		t.Errorf("serialNumber = %q", b.SerialNumber)
	}
	if b.Version != 1 {
		t.Errorf("version = %d, want 1", b.Version)
	}
	if b.Metadata != nil {
		t.Error("metadata should be nil for a document without one")
	}
	if len(b.Components) != 0 {
		t.Errorf("components = %d, want none", len(b.Components))
	}
	if report := Validate(b); !report.Passed() {
		t.Errorf("minimal document failed validation: %v", report.Violations)
	}
}

func testBOM() *BOM {
	b := NewBOM(SpecVersion1_5)
	b.SerialNumber = "urn:uuid:3e671687-395b-41f5-a30f-a58921a69b79"
	b.Metadata = &Metadata{
		Timestamp: "2024-03-01T12:00:00Z",
		Tools: &ToolsChoice{
			Tools: []Tool{{Vendor: "Acme", Name: "sbomgen", Version: "2.1.0"}},
		},
	}
	b.Components = []Component{
		{
			Type:    ComponentTypeLibrary,
			BOMRef:  "pkg:cargo/serde@1.0.136",
			Name:    "serde",
			Version: "1.0.136",
			PURL:    "pkg:cargo/serde@1.0.136",
			Hashes:  []Hash{{Algorithm: HashAlgoSHA256, Value: strings.Repeat("a", 64)}},
			Licenses: Licenses{
				{Expression: "MIT OR Apache-2.0"},
			},
		},
		{
			Type:   ComponentTypeApplication,
			BOMRef: "app-1",
			Name:   "demo",
			Licenses: Licenses{
				{License: &License{ID: "Apache-2.0"}},
			},
		},
	}
	b.Dependencies = []Dependency{
		{Ref: "app-1", DependsOn: []string{"pkg:cargo/serde@1.0.136"}},
	}
	return b
}

func TestJSONRoundTrip(t *testing.T) {
	orig := testBOM()
	data, err := EncodeBytes(orig, FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(data), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(orig, decoded) {
		t.Errorf("round trip changed the document\n got: %+v\nwant: %+v", decoded, orig)
	}
}

func TestEncodeIdempotent(t *testing.T) {
	orig := testBOM()
	first, err := EncodeBytes(orig, FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(first), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	second, err := EncodeBytes(decoded, FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("re-encoding is not byte-identical\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestJSONKeyOrder(t *testing.T) {
	data, err := EncodeBytes(testBOM(), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	keys := []string{`"bomFormat"`, `"specVersion"`, `"serialNumber"`, `"version"`, `"metadata"`, `"components"`, `"dependencies"`}
	last := -1
	for _, k := range keys {
		idx := bytes.Index(data, []byte(k))
		if idx < 0 {
			t.Fatalf("key %s missing from output:\n%s", k, data)
		}
		if idx < last {
			t.Errorf("key %s appears out of order", k)
		}
		last = idx
	}
}

func TestDecodeTypeMismatch(t *testing.T) {
	in := `{"bomFormat": "CycloneDX", "specVersion": "1.5", "version": "one"}`
	_, err := Decode(strings.NewReader(in), FormatJSON, SpecVersion1_5)
	if err == nil {
		t.Fatal("decode succeeded on a type mismatch")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
	if parseErr.Path != "version" {
		t.Errorf("error path = %q, want \"version\"", parseErr.Path)
	}
}

func TestDecodeWrongBOMFormat(t *testing.T) {
	in := `{"bomFormat": "SPDX", "specVersion": "1.5", "version": 1}`
	_, err := Decode(strings.NewReader(in), FormatJSON, SpecVersion1_5)
	if err == nil {
		t.Fatal("decode accepted a non-CycloneDX bomFormat")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Path != "bomFormat" {
		t.Errorf("error = %v, want *ParseError at bomFormat", err)
	}
}

// A missing bomFormat parses but is not silently repaired; the validator
// reports it as a required-field finding.
func TestDecodeMissingBOMFormat(t *testing.T) {
	in := `{"specVersion": "1.5", "version": 1}`
	b, err := Decode(strings.NewReader(in), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b.BOMFormat != "" {
		t.Errorf("bomFormat = %q, want it left empty", b.BOMFormat)
	}
	report := Validate(b)
	if report.Passed() {
		t.Fatal("validation passed without bomFormat")
	}
	if v := findViolation(report, "bomFormat"); v == nil {
		t.Errorf("no finding at bomFormat: %v", report.Violations)
	}
}

func TestDecodeInBandVersionWins(t *testing.T) {
	in := `{"bomFormat": "CycloneDX", "specVersion": "1.3", "version": 1}`
	b, err := Decode(strings.NewReader(in), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b.SpecVersion != SpecVersion1_3 {
		t.Errorf("specVersion = %v, want the in-band 1.3", b.SpecVersion)
	}
}

func TestDecodeAny(t *testing.T) {
	t.Run("declared version", func(t *testing.T) {
		in := `{"bomFormat": "CycloneDX", "specVersion": "1.4", "version": 1}`
		b, err := DecodeAny(strings.NewReader(in), FormatJSON)
		if err != nil {
			t.Fatalf("DecodeAny failed: %v", err)
		}
		if b.SpecVersion != SpecVersion1_4 {
			t.Errorf("specVersion = %v, want 1.4", b.SpecVersion)
		}
	})

	t.Run("undeclared version probes newest first", func(t *testing.T) {
		in := `{"bomFormat": "CycloneDX", "version": 1, "components": [{"type": "library", "name": "x"}]}`
		b, err := DecodeAny(strings.NewReader(in), FormatJSON)
		if err != nil {
			t.Fatalf("DecodeAny failed: %v", err)
		}
		if b.SpecVersion != SpecVersion1_5 {
			t.Errorf("specVersion = %v, want 1.5", b.SpecVersion)
		}
	})

	t.Run("unknown declared version", func(t *testing.T) {
		in := `{"bomFormat": "CycloneDX", "specVersion": "9.9", "version": 1}`
		if _, err := DecodeAny(strings.NewReader(in), FormatJSON); err == nil {
			t.Fatal("DecodeAny accepted an unknown spec version")
		}
	})
}

func TestDecodeDefaultsVersionToOne(t *testing.T) {
	in := `{"bomFormat": "CycloneDX", "specVersion": "1.5"}`
	b, err := Decode(strings.NewReader(in), FormatJSON, SpecVersion1_5)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b.Version != 1 {
		t.Errorf("version = %d, want default 1", b.Version)
	}
}

func TestEncodeVersionGating(t *testing.T) {
	t.Run("annotations rejected before 1.5", func(t *testing.T) {
		b := testBOM()
		b.Annotations = []Annotation{{Subjects: []string{"app-1"}, Text: "reviewed"}}
		_, err := EncodeBytes(b, FormatJSON, SpecVersion1_4)
		var vce *VersionConstraintError
		if !errors.As(err, &vce) {
			t.Fatalf("error = %v, want *VersionConstraintError", err)
		}
		if vce.Path != "annotations" || vce.MinVersion != SpecVersion1_5 {
			t.Errorf("constraint = %+v", vce)
		}
	})

	t.Run("vulnerabilities rejected before 1.4", func(t *testing.T) {
		b := testBOM()
		b.Vulnerabilities = []Vulnerability{{ID: "CVE-2024-0001"}}
		_, err := EncodeBytes(b, FormatJSON, SpecVersion1_3)
		var vce *VersionConstraintError
		if !errors.As(err, &vce) {
			t.Fatalf("error = %v, want *VersionConstraintError", err)
		}
	})

	t.Run("platform type rejected before 1.5", func(t *testing.T) {
		b := testBOM()
		b.Components[0].Type = ComponentTypePlatform
		_, err := EncodeBytes(b, FormatJSON, SpecVersion1_4)
		var vce *VersionConstraintError
		if !errors.As(err, &vce) {
			t.Fatalf("error = %v, want *VersionConstraintError", err)
		}
		if vce.Path != "components[0].type" {
			t.Errorf("path = %q, want components[0].type", vce.Path)
		}
	})

	t.Run("lifecycles dropped before 1.5", func(t *testing.T) {
		b := testBOM()
		b.Metadata.Lifecycles = []Lifecycle{{Phase: "build"}}
		data, err := EncodeBytes(b, FormatJSON, SpecVersion1_4)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if bytes.Contains(data, []byte("lifecycles")) {
			t.Error("lifecycles survived encoding at 1.4")
		}
		if len(b.Metadata.Lifecycles) != 1 {
			t.Error("encoding mutated the input document")
		}
	})

	t.Run("tool external references dropped before 1.4", func(t *testing.T) {
		b := testBOM()
		b.Metadata.Tools.Tools[0].ExternalReferences = []ExternalReference{
			{URL: "https://example.com", Type: ERTypeWebsite},
		}
		data, err := EncodeBytes(b, FormatJSON, SpecVersion1_3)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if bytes.Contains(data, []byte("externalReferences")) {
			t.Error("tool external references survived encoding at 1.3")
		}
	})
}

func TestStructuredToolsFlatten(t *testing.T) {
	b := NewBOM(SpecVersion1_5)
	b.Metadata = &Metadata{
		Tools: &ToolsChoice{
			Components: []Component{{
				Type:     ComponentTypeApplication,
				Name:     "sbomgen",
				Version:  "2.1.0",
				Supplier: &OrganizationalEntity{Name: "Acme"},
			}},
			Services: []Service{{
				Name:     "scan-api",
				Version:  "1.0",
				Provider: &OrganizationalEntity{Name: "ScanCo"},
			}},
		},
	}

	data, err := EncodeBytes(b, FormatJSON, SpecVersion1_4)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(bytes.NewReader(data), FormatJSON, SpecVersion1_4)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	tools := decoded.Metadata.Tools.Tools
	if len(tools) != 2 {
		t.Fatalf("flattened to %d tools, want 2", len(tools))
	}
	if tools[0].Vendor != "Acme" || tools[0].Name != "sbomgen" || tools[0].Version != "2.1.0" {
		t.Errorf("component tool = %+v", tools[0])
	}
	if tools[1].Vendor != "ScanCo" || tools[1].Name != "scan-api" {
		t.Errorf("service tool = %+v", tools[1])
	}

	// Nested tool components have no flat equivalent.
	b.Metadata.Tools.Components[0].Components = []Component{{Type: ComponentTypeLibrary, Name: "plugin"}}
	_, err = EncodeBytes(b, FormatJSON, SpecVersion1_4)
	var vce *VersionConstraintError
	if !errors.As(err, &vce) {
		t.Fatalf("error = %v, want *VersionConstraintError", err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(json) = %v, %v", f, err)
	}
	if f, err := ParseFormat("xml"); err != nil || f != FormatXML {
		t.Errorf("ParseFormat(xml) = %v, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) succeeded")
	}
}
