package cyclonedx

import (
	"bytes"
	"strings"
	"testing"
)

func mergeDoc1() *BOM {
	b := NewBOM(SpecVersion1_4)
	b.SerialNumber = "urn:uuid:11111111-1111-1111-1111-111111111111"
	b.Metadata = &Metadata{Timestamp: "2024-03-01T12:00:00Z"}
	b.Components = []Component{
		{
			Type:    ComponentTypeLibrary,
			BOMRef:  "pkg:cargo/foo@1.0.0",
			Name:    "foo",
			Version: "1.0.0",
			PURL:    "pkg:cargo/foo@1.0.0",
			Hashes:  []Hash{{Algorithm: HashAlgoSHA256, Value: strings.Repeat("a", 64)}},
		},
		{
			Type:   ComponentTypeLibrary,
			BOMRef: "lib-a",
			Name:   "alpha",
		},
	}
	b.Dependencies = []Dependency{
		{Ref: "lib-a", DependsOn: []string{"pkg:cargo/foo@1.0.0"}},
	}
	return b
}

func mergeDoc2() *BOM {
	b := NewBOM(SpecVersion1_5)
	b.SerialNumber = "urn:uuid:22222222-2222-2222-2222-222222222222"
	b.Components = []Component{
		{
			Type:        ComponentTypeLibrary,
			BOMRef:      "foo-ref",
			Name:        "foo",
			Version:     "1.0.0",
			PURL:        "pkg:cargo/foo@1.0.0",
			Description: "serialization framework",
			Hashes:      []Hash{{Algorithm: HashAlgoMD5, Value: strings.Repeat("b", 32)}},
		},
		{
			Type:   ComponentTypeLibrary,
			BOMRef: "lib-a",
			Name:   "beta",
		},
	}
	b.Dependencies = []Dependency{
		{Ref: "lib-a", DependsOn: []string{"foo-ref"}},
	}
	return b
}

func findComponent(b *BOM, name string) *Component {
	for i := range b.Components {
		if string(b.Components[i].Name) == name {
			return &b.Components[i]
		}
	}
	return nil
}

func TestMergeFlatSharedIdentity(t *testing.T) {
	out, err := Merge([]*BOM{mergeDoc1(), mergeDoc2()}, MergeFlat)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	// foo appears in both inputs under the same purl and must merge to one.
	if len(out.Components) != 3 {
		t.Fatalf("components = %d, want 3 (foo, alpha, beta)", len(out.Components))
	}
	foo := findComponent(out, "foo")
	if foo == nil {
		t.Fatal("merged foo missing")
	}
	if foo.BOMRef != "pkg:cargo/foo@1.0.0" {
		t.Errorf("foo bom-ref = %q, want the first input's ref", foo.BOMRef)
	}
	if foo.Description != "serialization framework" {
		t.Errorf("description = %q, want the second input's value filled in", foo.Description)
	}
	if len(foo.Hashes) != 2 {
		t.Errorf("hashes = %d, want SHA-256 and MD5 union", len(foo.Hashes))
	}

	if out.SpecVersion != SpecVersion1_5 {
		t.Errorf("output spec version = %v, want the max input 1.5", out.SpecVersion)
	}
	if report := Validate(out); !report.Passed() {
		t.Errorf("merged document failed validation: %v", report.Violations)
	}
}

func TestMergeFlatRefCollision(t *testing.T) {
	out, err := Merge([]*BOM{mergeDoc1(), mergeDoc2()}, MergeFlat)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	// alpha and beta are distinct identities sharing bom-ref "lib-a"; the
	// later one gets a suffixed ref and its edges follow the rewrite.
	alpha := findComponent(out, "alpha")
	beta := findComponent(out, "beta")
	if alpha == nil || beta == nil {
		t.Fatal("alpha or beta missing from merge output")
	}
	if alpha.BOMRef != "lib-a" {
		t.Errorf("alpha bom-ref = %q, want lib-a", alpha.BOMRef)
	}
	if beta.BOMRef != "lib-a-2" {
		t.Errorf("beta bom-ref = %q, want lib-a-2", beta.BOMRef)
	}

	var betaNode *Dependency
	for i := range out.Dependencies {
		if out.Dependencies[i].Ref == "lib-a-2" {
			betaNode = &out.Dependencies[i]
		}
	}
	if betaNode == nil {
		t.Fatalf("no dependency node for rewritten ref; got %v", out.Dependencies)
	}
	if len(betaNode.DependsOn) != 1 || betaNode.DependsOn[0] != "pkg:cargo/foo@1.0.0" {
		t.Errorf("rewritten edges = %v, want the reconciled foo ref", betaNode.DependsOn)
	}
}

func TestMergeDeterministic(t *testing.T) {
	run := func() []byte {
		out, err := Merge([]*BOM{mergeDoc1(), mergeDoc2()}, MergeFlat)
		if err != nil {
			t.Fatalf("merge failed: %v", err)
		}
		data, err := EncodeBytes(out, FormatJSON, out.SpecVersion)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		return data
	}
	first := run()
	second := run()
	if !bytes.Equal(first, second) {
		t.Errorf("repeat merges differ\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestMergeConflictingHashes(t *testing.T) {
	doc2 := mergeDoc2()
	doc2.Components[0].Hashes = []Hash{{Algorithm: HashAlgoSHA256, Value: strings.Repeat("c", 64)}}

	_, err := Merge([]*BOM{mergeDoc1(), doc2}, MergeFlat)
	if err == nil {
		t.Fatal("merge succeeded despite conflicting SHA-256 digests")
	}
	if !strings.Contains(err.Error(), "conflicting SHA-256 hash") {
		t.Errorf("error = %v, want conflicting-hash message", err)
	}
}

func TestMergeInputsUntouched(t *testing.T) {
	doc1, doc2 := mergeDoc1(), mergeDoc2()
	if _, err := Merge([]*BOM{doc1, doc2}, MergeFlat); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if doc1.Components[0].Description != "" {
		t.Error("merge mutated the first input")
	}
	if doc2.Components[1].BOMRef != "lib-a" {
		t.Error("merge mutated the second input")
	}
}

func TestMergeDropsDanglingEdges(t *testing.T) {
	doc1 := mergeDoc1()
	doc1.Dependencies[0].DependsOn = append(doc1.Dependencies[0].DependsOn, "not-declared")

	out, err := Merge([]*BOM{doc1}, MergeFlat)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	for _, dep := range out.Dependencies {
		for _, child := range dep.DependsOn {
			if child == "not-declared" {
				t.Error("dangling edge survived consolidation")
			}
		}
	}
}

func TestMergeHierarchical(t *testing.T) {
	doc1 := NewBOM(SpecVersion1_5)
	doc1.SerialNumber = "urn:uuid:11111111-1111-1111-1111-111111111111"
	doc1.Metadata = &Metadata{Component: &Component{
		Type: ComponentTypeApplication, BOMRef: "app", Name: "app", Version: "1.0",
	}}
	doc1.Components = []Component{
		{Type: ComponentTypeLibrary, BOMRef: "lib", Name: "lib", Version: "2.0"},
	}

	doc2 := NewBOM(SpecVersion1_5)
	doc2.SerialNumber = "urn:uuid:22222222-2222-2222-2222-222222222222"
	doc2.Metadata = &Metadata{Component: &Component{
		Type: ComponentTypeLibrary, BOMRef: "lib-root", Name: "lib", Version: "2.0",
	}}
	doc2.Components = []Component{
		{Type: ComponentTypeLibrary, BOMRef: "dep", Name: "transitive", Version: "0.1"},
	}

	out, err := Merge([]*BOM{doc1, doc2}, MergeHierarchical)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	lib := findComponent(out, "lib")
	if lib == nil {
		t.Fatal("lib missing from output")
	}
	if len(lib.Components) != 1 {
		t.Fatalf("lib has %d sub-components, want the nested layer root", len(lib.Components))
	}
	nested := lib.Components[0]
	if nested.Name != "lib" || nested.BOMRef != "lib-root" {
		t.Errorf("nested root = %+v", nested)
	}
	if len(nested.Components) != 1 || nested.Components[0].Name != "transitive" {
		t.Errorf("nested sub-components = %+v", nested.Components)
	}
}

func TestMergeHierarchicalNoMatchTopLevel(t *testing.T) {
	doc1 := NewBOM(SpecVersion1_5)
	doc1.Components = []Component{
		{Type: ComponentTypeLibrary, BOMRef: "lib", Name: "lib", Version: "2.0"},
	}

	doc2 := NewBOM(SpecVersion1_5)
	doc2.Metadata = &Metadata{Component: &Component{
		Type: ComponentTypeApplication, BOMRef: "other", Name: "other", Version: "9.9",
	}}

	out, err := Merge([]*BOM{doc1, doc2}, MergeHierarchical)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if findComponent(out, "other") == nil {
		t.Errorf("unmatched layer root not placed at top level; components = %+v", out.Components)
	}
}

func TestMergeHierarchicalRequiresRoot(t *testing.T) {
	doc1 := NewBOM(SpecVersion1_5)
	doc2 := NewBOM(SpecVersion1_5)

	_, err := Merge([]*BOM{doc1, doc2}, MergeHierarchical)
	if err == nil {
		t.Fatal("merge accepted a layer without a root component")
	}
	if !strings.Contains(err.Error(), "no root component") {
		t.Errorf("error = %v", err)
	}
}

func TestMergeNoInputs(t *testing.T) {
	if _, err := Merge(nil, MergeFlat); err == nil {
		t.Fatal("merge accepted an empty input list")
	}
}
