package cyclonedx

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity ranks a validation finding.
type Severity int

const (
	// SeverityWarning marks findings that do not fail validation.
	SeverityWarning Severity = iota
	// SeverityError marks findings that fail validation.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Violation is one validation finding, located by field path.
type Violation struct {
	Path     string
	Message  string
	Severity Severity
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Severity, v.Path, v.Message)
}

// ValidationReport is the ordered list of findings from one validation pass.
// Validation accumulates rather than short-circuits, so a single pass over
// untrusted input surfaces every problem.
type ValidationReport struct {
	Violations []Violation
}

// Passed reports whether the document validated with no error-severity
// findings. Warnings never affect the outcome.
func (r *ValidationReport) Passed() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *ValidationReport) add(path, message string, sev Severity) {
	r.Violations = append(r.Violations, Violation{Path: path, Message: message, Severity: sev})
}

// Validator checks documents against the rules of their declared spec
// version. The zero-argument NewValidator gives the default configuration:
// dependency cycles are warnings, license parsing is strict.
type Validator struct {
	cycleSeverity Severity
	licensePolicy *LicensePolicy
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithCycleSeverity sets the severity of dependency-graph cycle findings.
func WithCycleSeverity(s Severity) ValidatorOption {
	return func(v *Validator) { v.cycleSeverity = s }
}

// WithLicensePolicy accepts licenses under the lenient-fallback policy;
// entries that needed a fallback rule are reported as warnings instead of
// errors.
func WithLicensePolicy(p *LicensePolicy) ValidatorOption {
	return func(v *Validator) { v.licensePolicy = p }
}

// NewValidator builds a Validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{cycleSeverity: SeverityWarning}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the default validator over the document.
func Validate(b *BOM) *ValidationReport {
	return NewValidator().Validate(b)
}

// Validate checks the document against its declared spec version and returns
// every finding. It is a pure function of the document and the validator
// configuration: no I/O, no mutation.
func (val *Validator) Validate(b *BOM) *ValidationReport {
	r := &ValidationReport{}
	version := b.SpecVersion

	if b.BOMFormat != BOMFormat {
		r.add("bomFormat", fmt.Sprintf("must be %q, got %q", BOMFormat, b.BOMFormat), SeverityError)
	}
	if _, err := ParseSpecVersion(version.String()); err != nil {
		r.add("specVersion", "missing or unsupported spec version", SeverityError)
		version = Latest
	}
	if b.Version < 1 {
		r.add("version", fmt.Sprintf("must be a positive integer, got %d", b.Version), SeverityError)
	}
	if b.SerialNumber != "" {
		if _, err := ParseSerialNumber(string(b.SerialNumber)); err != nil {
			r.add("serialNumber", err.Error(), SeverityError)
		}
	}

	val.checkMetadata(r, b, version)
	walkComponents(b, func(path string, c *Component) {
		val.checkComponent(r, path, c, version)
	})
	walkServices(b, func(path string, s *Service) {
		if s.Name == "" {
			r.add(path+".name", "service name is required", SeverityError)
		}
		val.checkLicenses(r, path+".licenses", s.Licenses)
	})

	if len(b.Vulnerabilities) > 0 && version < SpecVersion1_4 {
		r.add("vulnerabilities", "vulnerabilities require spec version 1.4 or later", SeverityError)
	}
	if len(b.Annotations) > 0 && version < SpecVersion1_5 {
		r.add("annotations", "annotations require spec version 1.5 or later", SeverityError)
	}

	refs := val.checkRefUniqueness(r, b)
	val.checkReferentialIntegrity(r, b, refs)
	val.checkDependencyCycles(r, b)
	return r
}

func (val *Validator) checkMetadata(r *ValidationReport, b *BOM, version SpecVersion) {
	m := b.Metadata
	if m == nil {
		return
	}
	if m.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, m.Timestamp); err != nil {
			r.add("metadata.timestamp", "not a valid RFC 3339 timestamp", SeverityError)
		}
	}
	if len(m.Lifecycles) > 0 && version < SpecVersion1_5 {
		r.add("metadata.lifecycles", "lifecycles require spec version 1.5 or later", SeverityError)
	}
	if m.Tools != nil {
		if m.Tools.structured() && version < SpecVersion1_5 {
			r.add("metadata.tools", "structured tools require spec version 1.5 or later", SeverityError)
		}
		for i, tool := range m.Tools.Tools {
			path := fmt.Sprintf("metadata.tools[%d]", i)
			if len(tool.ExternalReferences) > 0 && version < SpecVersion1_4 {
				r.add(path+".externalReferences", "tool external references require spec version 1.4 or later", SeverityError)
			}
			val.checkHashes(r, path+".hashes", tool.Hashes)
		}
	}
	val.checkLicenses(r, "metadata.licenses", m.Licenses)
}

func (val *Validator) checkComponent(r *ValidationReport, path string, c *Component, version SpecVersion) {
	if c.Name == "" {
		r.add(path+".name", "component name is required", SeverityError)
	}
	if c.Type == "" {
		r.add(path+".type", "component type is required", SeverityError)
	} else if min, ok := knownComponentTypes[c.Type]; !ok {
		r.add(path+".type", fmt.Sprintf("unknown component type %q", c.Type), SeverityError)
	} else if min > version {
		r.add(path+".type", fmt.Sprintf("component type %q requires spec version %s or later", c.Type, min), SeverityError)
	}
	if c.Scope != "" && c.Scope != ScopeRequired && c.Scope != ScopeOptional && c.Scope != ScopeExcluded {
		r.add(path+".scope", fmt.Sprintf("unknown scope %q", c.Scope), SeverityError)
	}
	val.checkHashes(r, path+".hashes", c.Hashes)
	val.checkLicenses(r, path+".licenses", c.Licenses)
	if c.PURL != "" {
		if _, err := NewPackageURL(string(c.PURL)); err != nil {
			r.add(path+".purl", err.Error(), SeverityError)
		}
	}
	if c.CPE != "" {
		if _, err := NewCPE(string(c.CPE)); err != nil {
			r.add(path+".cpe", err.Error(), SeverityError)
		}
	}
	if c.SWID != nil && c.SWID.TagID == "" {
		r.add(path+".swid.tagId", "swid tagId is required", SeverityError)
	}
}

func (val *Validator) checkHashes(r *ValidationReport, path string, hashes []Hash) {
	for i := range hashes {
		if err := hashes[i].check(); err != nil {
			r.add(fmt.Sprintf("%s[%d]", path, i), err.Error(), SeverityError)
		}
	}
}

func (val *Validator) checkLicenses(r *ValidationReport, path string, licenses Licenses) {
	for i, choice := range licenses {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case choice.License == nil && choice.Expression == "":
			r.add(p, "license entry must carry either a license or an expression", SeverityError)
		case choice.License != nil && choice.Expression != "":
			r.add(p, "license and expression are mutually exclusive", SeverityError)
		case choice.Expression != "":
			_, lenient, err := ParseLicenseExpressionWith(string(choice.Expression), val.licensePolicy)
			if err != nil {
				r.add(p+".expression", err.Error(), SeverityError)
			} else if lenient {
				r.add(p+".expression", "accepted only under lenient license policy", SeverityWarning)
			}
		default:
			lic := choice.License
			if lic.ID != "" && lic.Name != "" {
				r.add(p+".license", "license id and name are mutually exclusive", SeverityError)
			}
			if lic.ID == "" && lic.Name == "" {
				r.add(p+".license", "license must carry an id or a name", SeverityError)
			}
			if lic.ID != "" && !spdxLicenseIDs[lic.ID] && !strings.HasPrefix(lic.ID, "LicenseRef-") {
				if val.licensePolicy.allowsName(lic.ID) {
					r.add(p+".license.id", "accepted only under lenient license policy", SeverityWarning)
				} else {
					r.add(p+".license.id", fmt.Sprintf("unknown SPDX license identifier %q", lic.ID), SeverityError)
				}
			}
		}
	}
}

// collectRefs gathers every declared bom-ref with its field path, in document
// order.
func collectRefs(b *BOM) []refDecl {
	var refs []refDecl
	walkComponents(b, func(path string, c *Component) {
		if c.BOMRef != "" {
			refs = append(refs, refDecl{ref: c.BOMRef, path: path})
		}
	})
	walkServices(b, func(path string, s *Service) {
		if s.BOMRef != "" {
			refs = append(refs, refDecl{ref: s.BOMRef, path: path})
		}
	})
	for i := range b.Compositions {
		if r := b.Compositions[i].BOMRef; r != "" {
			refs = append(refs, refDecl{ref: r, path: fmt.Sprintf("compositions[%d]", i)})
		}
	}
	for i := range b.Vulnerabilities {
		if r := b.Vulnerabilities[i].BOMRef; r != "" {
			refs = append(refs, refDecl{ref: r, path: fmt.Sprintf("vulnerabilities[%d]", i)})
		}
	}
	for i := range b.Annotations {
		if r := b.Annotations[i].BOMRef; r != "" {
			refs = append(refs, refDecl{ref: r, path: fmt.Sprintf("annotations[%d]", i)})
		}
	}
	return refs
}

type refDecl struct {
	ref  string
	path string
}

// checkRefUniqueness enforces document-wide bom-ref uniqueness and returns
// the set of declared refs for integrity checking.
func (val *Validator) checkRefUniqueness(r *ValidationReport, b *BOM) map[string]bool {
	seen := map[string]bool{}
	for _, decl := range collectRefs(b) {
		if seen[decl.ref] {
			r.add(decl.path+".bom-ref", fmt.Sprintf("duplicate bom-ref %q", decl.ref), SeverityError)
			continue
		}
		seen[decl.ref] = true
	}
	return seen
}

// checkReferentialIntegrity verifies that every bom-ref mentioned by an edge,
// composition, vulnerability target, or annotation subject resolves to a
// declared bom-ref.
func (val *Validator) checkReferentialIntegrity(r *ValidationReport, b *BOM, refs map[string]bool) {
	check := func(path, ref string) {
		if ref != "" && !refs[ref] {
			r.add(path, fmt.Sprintf("bom-ref %q does not resolve to any declared component, service, or the document root", ref), SeverityError)
		}
	}
	seenNodes := map[string]bool{}
	for i, dep := range b.Dependencies {
		path := fmt.Sprintf("dependencies[%d]", i)
		check(path+".ref", dep.Ref)
		if seenNodes[dep.Ref] {
			r.add(path+".ref", fmt.Sprintf("duplicate dependency node %q", dep.Ref), SeverityError)
		}
		seenNodes[dep.Ref] = true
		for j, child := range dep.DependsOn {
			check(fmt.Sprintf("%s.dependsOn[%d]", path, j), child)
		}
	}
	for i, comp := range b.Compositions {
		path := fmt.Sprintf("compositions[%d]", i)
		if comp.Aggregate == "" {
			r.add(path+".aggregate", "composition aggregate is required", SeverityError)
		}
		for j, ref := range comp.Assemblies {
			check(fmt.Sprintf("%s.assemblies[%d]", path, j), ref)
		}
		for j, ref := range comp.Dependencies {
			check(fmt.Sprintf("%s.dependencies[%d]", path, j), ref)
		}
	}
	for i, vuln := range b.Vulnerabilities {
		for j, affected := range vuln.Affects {
			check(fmt.Sprintf("vulnerabilities[%d].affects[%d].ref", i, j), affected.Ref)
		}
	}
	for i, ann := range b.Annotations {
		for j, subject := range ann.Subjects {
			check(fmt.Sprintf("annotations[%d].subjects[%d]", i, j), subject)
		}
	}
}

// checkDependencyCycles reports cycles in the dependency graph at the
// configured severity. Cycles are structurally representable (edges encode
// "depends on", not ownership); whether they are an error is the caller's
// call.
func (val *Validator) checkDependencyCycles(r *ValidationReport, b *BOM) {
	adj := make(map[string][]string, len(b.Dependencies))
	for _, dep := range b.Dependencies {
		adj[dep.Ref] = dep.DependsOn
	}
	nodes := make([]string, 0, len(adj))
	for ref := range adj {
		nodes = append(nodes, ref)
	}
	sort.Strings(nodes)

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(adj))
	reported := map[string]bool{}

	var visit func(ref string, path []string)
	visit = func(ref string, path []string) {
		state[ref] = inStack
		path = append(path, ref)
		for _, child := range adj[ref] {
			switch state[child] {
			case unvisited:
				if _, ok := adj[child]; ok {
					visit(child, path)
				}
			case inStack:
				// Found a cycle; report it once, from the first node on it.
				start := 0
				for i, p := range path {
					if p == child {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), child)
				key := strings.Join(cycle, "->")
				if !reported[key] {
					reported[key] = true
					r.add("dependencies", "dependency cycle: "+strings.Join(cycle, " -> "), val.cycleSeverity)
				}
			}
		}
		state[ref] = done
	}
	for _, ref := range nodes {
		if state[ref] == unvisited {
			visit(ref, nil)
		}
	}
}
