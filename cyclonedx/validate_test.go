package cyclonedx

import (
	"strings"
	"testing"
)

// findViolation returns the first finding whose path matches exactly.
func findViolation(r *ValidationReport, path string) *Violation {
	for i := range r.Violations {
		if r.Violations[i].Path == path {
			return &r.Violations[i]
		}
	}
	return nil
}

func TestValidatePassesCleanDocument(t *testing.T) {
	r := Validate(testBOM())
	if !r.Passed() {
		t.Errorf("clean document failed validation: %v", r.Violations)
	}
	if len(r.Violations) != 0 {
		t.Errorf("clean document produced findings: %v", r.Violations)
	}
}

func TestValidateMissingRequiredFields(t *testing.T) {
	b := testBOM()
	b.Components[0].Name = ""
	b.Components[1].Type = ""

	r := Validate(b)
	if r.Passed() {
		t.Fatal("document with missing required fields passed validation")
	}
	v := findViolation(r, "components[0].name")
	if v == nil {
		t.Fatal("no finding at components[0].name")
	}
	if v.Severity != SeverityError {
		t.Errorf("severity = %v, want error", v.Severity)
	}
	if findViolation(r, "components[1].type") == nil {
		t.Error("no finding at components[1].type")
	}
}

func TestValidateAccumulates(t *testing.T) {
	b := testBOM()
	b.Version = 0
	b.SerialNumber = "not-a-serial"
	b.Components[0].Name = ""
	b.Components[0].Hashes = []Hash{{Algorithm: HashAlgoSHA256, Value: "short"}}

	r := Validate(b)
	for _, path := range []string{"version", "serialNumber", "components[0].name", "components[0].hashes[0]"} {
		if findViolation(r, path) == nil {
			t.Errorf("no finding at %s; got %v", path, r.Violations)
		}
	}
}

func TestValidateVersionGates(t *testing.T) {
	b := testBOM()
	b.SpecVersion = SpecVersion1_3
	b.Metadata.Lifecycles = []Lifecycle{{Phase: "build"}}
	b.Vulnerabilities = []Vulnerability{{ID: "CVE-2024-0001", BOMRef: "vuln-1"}}
	b.Annotations = []Annotation{{BOMRef: "ann-1", Text: "x"}}
	b.Metadata.Tools.Tools[0].ExternalReferences = []ExternalReference{
		{URL: "https://example.com", Type: ERTypeWebsite},
	}

	r := Validate(b)
	for _, path := range []string{
		"metadata.lifecycles",
		"vulnerabilities",
		"annotations",
		"metadata.tools[0].externalReferences",
	} {
		v := findViolation(r, path)
		if v == nil {
			t.Errorf("no finding at %s; got %v", path, r.Violations)
			continue
		}
		if v.Severity != SeverityError {
			t.Errorf("%s severity = %v, want error", path, v.Severity)
		}
	}
}

func TestValidateDuplicateBOMRef(t *testing.T) {
	b := testBOM()
	b.Components[1].BOMRef = b.Components[0].BOMRef

	r := Validate(b)
	v := findViolation(r, "components[1].bom-ref")
	if v == nil {
		t.Fatalf("no duplicate finding; got %v", r.Violations)
	}
	if !strings.Contains(v.Message, "duplicate bom-ref") {
		t.Errorf("message = %q", v.Message)
	}
}

func TestValidateDanglingDependencyRef(t *testing.T) {
	b := testBOM()
	b.Dependencies = append(b.Dependencies, Dependency{
		Ref:       "app-1",
		DependsOn: []string{"no-such-ref"},
	})

	r := Validate(b)
	if r.Passed() {
		t.Fatal("document with dangling ref passed validation")
	}
	// The appended node duplicates app-1 and dangles; both must be reported.
	if findViolation(r, "dependencies[1].ref") == nil {
		t.Errorf("no duplicate-node finding; got %v", r.Violations)
	}
	if findViolation(r, "dependencies[1].dependsOn[0]") == nil {
		t.Errorf("no dangling-ref finding; got %v", r.Violations)
	}
}

func TestValidateDependencyCycles(t *testing.T) {
	cyclic := func() *BOM {
		b := testBOM()
		b.Dependencies = []Dependency{
			{Ref: "app-1", DependsOn: []string{"pkg:cargo/serde@1.0.136"}},
			{Ref: "pkg:cargo/serde@1.0.136", DependsOn: []string{"app-1"}},
		}
		return b
	}

	t.Run("warning by default", func(t *testing.T) {
		r := Validate(cyclic())
		v := findViolation(r, "dependencies")
		if v == nil {
			t.Fatalf("no cycle finding; got %v", r.Violations)
		}
		if v.Severity != SeverityWarning {
			t.Errorf("severity = %v, want warning", v.Severity)
		}
		if !r.Passed() {
			t.Error("cycle warning failed validation")
		}
	})

	t.Run("error when configured", func(t *testing.T) {
		val := NewValidator(WithCycleSeverity(SeverityError))
		r := val.Validate(cyclic())
		v := findViolation(r, "dependencies")
		if v == nil {
			t.Fatalf("no cycle finding; got %v", r.Violations)
		}
		if v.Severity != SeverityError {
			t.Errorf("severity = %v, want error", v.Severity)
		}
		if r.Passed() {
			t.Error("cycle error passed validation")
		}
	})

	t.Run("self loop", func(t *testing.T) {
		b := testBOM()
		b.Dependencies = []Dependency{{Ref: "app-1", DependsOn: []string{"app-1"}}}
		r := Validate(b)
		if findViolation(r, "dependencies") == nil {
			t.Errorf("self loop not reported; got %v", r.Violations)
		}
	})
}

func TestValidateLicenses(t *testing.T) {
	t.Run("bad expression", func(t *testing.T) {
		b := testBOM()
		b.Components[0].Licenses = Licenses{{Expression: "MIT OR"}}
		r := Validate(b)
		v := findViolation(r, "components[0].licenses[0].expression")
		if v == nil || v.Severity != SeverityError {
			t.Errorf("bad expression finding = %v; all: %v", v, r.Violations)
		}
	})

	t.Run("lenient acceptance is a warning", func(t *testing.T) {
		b := testBOM()
		b.Components[0].Licenses = Licenses{{Expression: "BSD"}}
		val := NewValidator(WithLicensePolicy(&LicensePolicy{AllowNames: []string{"BSD"}}))
		r := val.Validate(b)
		v := findViolation(r, "components[0].licenses[0].expression")
		if v == nil {
			t.Fatalf("no lenient finding; got %v", r.Violations)
		}
		if v.Severity != SeverityWarning {
			t.Errorf("severity = %v, want warning", v.Severity)
		}
		if !r.Passed() {
			t.Error("lenient warning failed validation")
		}
	})

	t.Run("id and name mutually exclusive", func(t *testing.T) {
		b := testBOM()
		b.Components[0].Licenses = Licenses{{License: &License{ID: "MIT", Name: "MIT License"}}}
		r := Validate(b)
		if findViolation(r, "components[0].licenses[0].license") == nil {
			t.Errorf("no exclusivity finding; got %v", r.Violations)
		}
	})

	t.Run("unknown license id", func(t *testing.T) {
		b := testBOM()
		b.Components[0].Licenses = Licenses{{License: &License{ID: "NotALicense"}}}
		r := Validate(b)
		v := findViolation(r, "components[0].licenses[0].license.id")
		if v == nil || v.Severity != SeverityError {
			t.Errorf("unknown id finding = %v; all: %v", v, r.Violations)
		}
	})
}

func TestValidateValueFormats(t *testing.T) {
	b := testBOM()
	b.Components[0].PURL = "not a purl"
	b.Components[0].CPE = "not a cpe"
	b.Metadata.Timestamp = "yesterday"

	r := Validate(b)
	for _, path := range []string{
		"components[0].purl",
		"components[0].cpe",
		"metadata.timestamp",
	} {
		if findViolation(r, path) == nil {
			t.Errorf("no finding at %s; got %v", path, r.Violations)
		}
	}
}

func TestValidateCompositionIntegrity(t *testing.T) {
	b := testBOM()
	b.Compositions = []Composition{
		{Assemblies: []string{"no-such-ref"}},
	}
	r := Validate(b)
	if findViolation(r, "compositions[0].aggregate") == nil {
		t.Errorf("missing aggregate not reported; got %v", r.Violations)
	}
	if findViolation(r, "compositions[0].assemblies[0]") == nil {
		t.Errorf("dangling assembly not reported; got %v", r.Violations)
	}
}

func TestValidateVulnerabilityAffects(t *testing.T) {
	b := testBOM()
	b.Vulnerabilities = []Vulnerability{{
		ID:      "CVE-2024-0001",
		Affects: []VulnerabilityAffects{{Ref: "no-such-ref"}},
	}}
	r := Validate(b)
	if findViolation(r, "vulnerabilities[0].affects[0].ref") == nil {
		t.Errorf("dangling affects ref not reported; got %v", r.Violations)
	}
}
