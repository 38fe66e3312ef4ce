package cyclonedx

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// MergeStrategy selects how multiple documents are combined.
type MergeStrategy int

const (
	// MergeFlat unions every input's components as disjoint peers, keyed by
	// identity, reconciling field collisions by first-non-empty in input
	// order.
	MergeFlat MergeStrategy = iota
	// MergeHierarchical treats each input as one layer of a dependency
	// hierarchy, nesting each later document's root component beneath the
	// matching component of the documents before it.
	MergeHierarchical
)

// Merge combines documents in priority order into one consistent document.
// Inputs are never mutated; every component of every input survives into the
// output. The output targets the highest spec version among the inputs and
// carries a fresh serial number. Merge aborts wholly on unresolvable identity
// collisions rather than emitting a partial document.
func Merge(docs []*BOM, strategy MergeStrategy) (*BOM, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("merge: no input documents")
	}
	var out *BOM
	var err error
	switch strategy {
	case MergeFlat:
		out, err = mergeFlat(docs)
	case MergeHierarchical:
		out, err = mergeHierarchical(docs)
	default:
		return nil, fmt.Errorf("merge: unknown strategy %d", int(strategy))
	}
	if err != nil {
		return nil, err
	}
	out.SerialNumber = mergedSerialNumber(docs)
	// The output must be expressible at its own version; anything the
	// highest input version cannot carry is a merge bug, surfaced here
	// rather than at the caller's next Encode.
	if _, err := forVersion(out, out.SpecVersion); err != nil {
		return nil, fmt.Errorf("merge: output not expressible at %s: %w", out.SpecVersion, err)
	}
	return out, nil
}

// mergedSerialNumber derives the output serial number from the inputs so
// that merging the same documents repeatedly yields an identical result.
func mergedSerialNumber(docs []*BOM) SerialNumber {
	var seed []byte
	for _, d := range docs {
		seed = append(seed, d.SerialNumber...)
		seed = append(seed, byte(d.SpecVersion), byte(d.Version))
		seed = append(seed, 0)
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, seed)
	return SerialNumber(serialPrefix + id.String())
}

// maxSpecVersion returns the highest spec version among the inputs.
func maxSpecVersion(docs []*BOM) SpecVersion {
	max := docs[0].SpecVersion
	for _, d := range docs[1:] {
		if d.SpecVersion > max {
			max = d.SpecVersion
		}
	}
	return max
}

// sameIdentity is the ranked identity comparison: PURL when both sides have
// one, else CPE when both sides have one, else the (group, name, version)
// tuple. The first applicable representation decides alone.
func sameIdentity(a, b *Component) bool {
	if a.PURL != "" && b.PURL != "" {
		return a.PURL == b.PURL
	}
	if a.CPE != "" && b.CPE != "" {
		return a.CPE == b.CPE
	}
	return a.Group == b.Group && a.Name == b.Name && a.Version == b.Version
}

// refAllocator hands out document-unique bom-refs, rewriting collisions with
// a deterministic numeric suffix ("ref", "ref-2", "ref-3", ...).
type refAllocator struct {
	used map[string]bool
}

func newRefAllocator() *refAllocator {
	return &refAllocator{used: map[string]bool{}}
}

// claimAll marks every bom-ref already present in the document as taken.
func (a *refAllocator) claimAll(b *BOM) {
	for _, decl := range collectRefs(b) {
		a.used[decl.ref] = true
	}
}

// claim returns ref itself when free, or the first free suffixed variant.
func (a *refAllocator) claim(ref string) string {
	if ref == "" {
		return ""
	}
	out := ref
	for n := 2; a.used[out]; n++ {
		out = ref + "-" + strconv.Itoa(n)
	}
	a.used[out] = true
	return out
}

// rewriteComponentRefs claims fresh refs for a component tree, recording the
// old-to-new mapping.
func rewriteComponentRefs(c *Component, alloc *refAllocator, refMap map[string]string) {
	if c.BOMRef != "" {
		newRef := alloc.claim(c.BOMRef)
		refMap[c.BOMRef] = newRef
		c.BOMRef = newRef
	}
	for i := range c.Components {
		rewriteComponentRefs(&c.Components[i], alloc, refMap)
	}
}

func mergeFlat(docs []*BOM) (*BOM, error) {
	out := NewBOM(maxSpecVersion(docs))
	alloc := newRefAllocator()

	for _, d := range docs {
		if out.Metadata == nil && d.Metadata != nil {
			out.Metadata = cloneVia(d.Metadata)
			if out.Metadata.Component != nil {
				rewriteComponentRefs(out.Metadata.Component, alloc, map[string]string{})
			}
		}
	}

	var merged []Component
	findMatch := func(c *Component) int {
		for i := range merged {
			if sameIdentity(&merged[i], c) {
				return i
			}
		}
		return -1
	}

	var allDeps []Dependency
	for _, d := range docs {
		refMap := map[string]string{}
		for i := range d.Components {
			src := cloneVia(&d.Components[i])
			if idx := findMatch(src); idx >= 0 {
				if err := reconcileComponent(&merged[idx], src, alloc, refMap); err != nil {
					return nil, err
				}
				continue
			}
			rewriteComponentRefs(src, alloc, refMap)
			merged = append(merged, *src)
		}
		for i := range d.Services {
			svc := cloneVia(&d.Services[i])
			if match := svcIndex(out.Services, svc); match >= 0 {
				if svc.BOMRef != "" && out.Services[match].BOMRef != "" {
					refMap[svc.BOMRef] = out.Services[match].BOMRef
				}
				continue
			}
			rewriteServiceRefs(svc, alloc, refMap)
			out.Services = append(out.Services, *svc)
		}
		for _, dep := range d.Dependencies {
			allDeps = append(allDeps, rewriteDependency(dep, refMap))
		}
		for i := range d.Vulnerabilities {
			v := cloneVia(&d.Vulnerabilities[i])
			v.BOMRef = alloc.claim(v.BOMRef)
			for j := range v.Affects {
				v.Affects[j].Ref = mapRef(refMap, v.Affects[j].Ref)
			}
			out.Vulnerabilities = append(out.Vulnerabilities, *v)
		}
		for i := range d.Compositions {
			c := cloneVia(&d.Compositions[i])
			c.BOMRef = alloc.claim(c.BOMRef)
			for j := range c.Assemblies {
				c.Assemblies[j] = mapRef(refMap, c.Assemblies[j])
			}
			for j := range c.Dependencies {
				c.Dependencies[j] = mapRef(refMap, c.Dependencies[j])
			}
			out.Compositions = append(out.Compositions, *c)
		}
		for i := range d.Annotations {
			a := cloneVia(&d.Annotations[i])
			a.BOMRef = alloc.claim(a.BOMRef)
			for j := range a.Subjects {
				a.Subjects[j] = mapRef(refMap, a.Subjects[j])
			}
			out.Annotations = append(out.Annotations, *a)
		}
	}

	out.Components = merged
	out.Dependencies = consolidateDependencies(allDeps, out)
	return out, nil
}

func svcIndex(svcs []Service, s *Service) int {
	for i := range svcs {
		if svcs[i].Group == s.Group && svcs[i].Name == s.Name && svcs[i].Version == s.Version {
			return i
		}
	}
	return -1
}

func rewriteServiceRefs(s *Service, alloc *refAllocator, refMap map[string]string) {
	if s.BOMRef != "" {
		newRef := alloc.claim(s.BOMRef)
		refMap[s.BOMRef] = newRef
		s.BOMRef = newRef
	}
	for i := range s.Services {
		rewriteServiceRefs(&s.Services[i], alloc, refMap)
	}
}

func mapRef(refMap map[string]string, ref string) string {
	if mapped, ok := refMap[ref]; ok {
		return mapped
	}
	return ref
}

func rewriteDependency(dep Dependency, refMap map[string]string) Dependency {
	out := Dependency{Ref: mapRef(refMap, dep.Ref)}
	for _, child := range dep.DependsOn {
		out.DependsOn = append(out.DependsOn, mapRef(refMap, child))
	}
	return out
}

// reconcileComponent folds src into dst under first-non-empty-wins. dst came
// from an earlier input, so its populated fields always stand. Hashes merge
// by algorithm; two different digests for the same algorithm mean the inputs
// disagree about the artifact's identity and abort the merge.
func reconcileComponent(dst, src *Component, alloc *refAllocator, refMap map[string]string) error {
	if src.BOMRef != "" {
		if dst.BOMRef == "" {
			dst.BOMRef = alloc.claim(src.BOMRef)
		}
		refMap[src.BOMRef] = dst.BOMRef
	}
	if dst.Supplier == nil {
		dst.Supplier = src.Supplier
	}
	if dst.Author == "" {
		dst.Author = src.Author
	}
	if dst.Publisher == "" {
		dst.Publisher = src.Publisher
	}
	if dst.Group == "" {
		dst.Group = src.Group
	}
	if dst.Version == "" {
		dst.Version = src.Version
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Scope == "" {
		dst.Scope = src.Scope
	}
	if dst.Copyright == "" {
		dst.Copyright = src.Copyright
	}
	if dst.CPE == "" {
		dst.CPE = src.CPE
	}
	if dst.PURL == "" {
		dst.PURL = src.PURL
	}
	if dst.SWID == nil {
		dst.SWID = src.SWID
	}
	if len(dst.Licenses) == 0 {
		dst.Licenses = src.Licenses
	}
	if len(dst.ExternalReferences) == 0 {
		dst.ExternalReferences = src.ExternalReferences
	}
	if len(dst.Properties) == 0 {
		dst.Properties = src.Properties
	}
	if len(dst.Components) == 0 {
		dst.Components = src.Components
		for i := range dst.Components {
			rewriteComponentRefs(&dst.Components[i], alloc, refMap)
		}
	}
	byAlg := map[HashAlgorithm]string{}
	for _, h := range dst.Hashes {
		byAlg[h.Algorithm] = h.Value
	}
	for _, h := range src.Hashes {
		if existing, ok := byAlg[h.Algorithm]; ok {
			if existing != h.Value {
				return fmt.Errorf("merge: conflicting %s hash for component %q (%s vs %s)",
					h.Algorithm, src.Name, existing, h.Value)
			}
			continue
		}
		dst.Hashes = append(dst.Hashes, h)
		byAlg[h.Algorithm] = h.Value
	}
	return nil
}

// consolidateDependencies unions edges per node in first-seen order, drops
// duplicates, and drops any reference that does not resolve to a bom-ref
// present in the output. The merged graph never points at anything the
// merged document does not declare.
func consolidateDependencies(deps []Dependency, out *BOM) []Dependency {
	declared := map[string]bool{}
	for _, decl := range collectRefs(out) {
		declared[decl.ref] = true
	}

	order := []string{}
	byRef := map[string]*Dependency{}
	for _, dep := range deps {
		if !declared[dep.Ref] {
			continue
		}
		node, ok := byRef[dep.Ref]
		if !ok {
			order = append(order, dep.Ref)
			node = &Dependency{Ref: dep.Ref}
			byRef[dep.Ref] = node
		}
		seen := map[string]bool{}
		for _, child := range node.DependsOn {
			seen[child] = true
		}
		for _, child := range dep.DependsOn {
			if !declared[child] || seen[child] {
				continue
			}
			seen[child] = true
			node.DependsOn = append(node.DependsOn, child)
		}
	}

	result := make([]Dependency, 0, len(order))
	for _, ref := range order {
		result = append(result, *byRef[ref])
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func mergeHierarchical(docs []*BOM) (*BOM, error) {
	out := docs[0].Clone()
	out.SpecVersion = maxSpecVersion(docs)
	out.BOMFormat = BOMFormat
	out.SerialNumber = NewSerialNumber()
	out.Version = 1

	alloc := newRefAllocator()
	alloc.claimAll(out)

	allDeps := append([]Dependency(nil), out.Dependencies...)

	for layer, d := range docs[1:] {
		if d.Metadata == nil || d.Metadata.Component == nil {
			return nil, fmt.Errorf("merge: hierarchical input %d has no root component (metadata.component)", layer+1)
		}
		nested := cloneVia(d.Metadata.Component)
		for i := range d.Components {
			nested.Components = append(nested.Components, *cloneVia(&d.Components[i]))
		}

		refMap := map[string]string{}
		rewriteComponentRefs(nested, alloc, refMap)

		parent := findByIdentity(out, d.Metadata.Component)
		if parent != nil {
			parent.Components = append(parent.Components, *nested)
		} else {
			out.Components = append(out.Components, *nested)
		}

		for _, dep := range d.Dependencies {
			allDeps = append(allDeps, rewriteDependency(dep, refMap))
		}
	}

	out.Dependencies = consolidateDependencies(allDeps, out)
	return out, nil
}

// findByIdentity walks every component in the document and returns the first
// matching the probe's identity, or nil.
func findByIdentity(b *BOM, probe *Component) *Component {
	var found *Component
	walkComponents(b, func(_ string, c *Component) {
		if found == nil && sameIdentity(c, probe) {
			found = c
		}
	})
	return found
}
