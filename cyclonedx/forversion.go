package cyclonedx

import "fmt"

// forVersion copies the document and reshapes it for serialization at the
// target version. Optional fields a version cannot carry are dropped silently;
// populated constructs with no representation at the target fail with a
// *VersionConstraintError. The input is never mutated.
func forVersion(b *BOM, target SpecVersion) (*BOM, error) {
	out := b.Clone()
	out.BOMFormat = BOMFormat
	out.SpecVersion = target
	out.XMLNS = target.Namespace()

	if target < SpecVersion1_5 {
		if len(out.Annotations) > 0 {
			return nil, &VersionConstraintError{Path: "annotations", MinVersion: SpecVersion1_5, Target: target}
		}
		for i := range out.Compositions {
			out.Compositions[i].BOMRef = ""
		}
		if out.Metadata != nil {
			out.Metadata.Lifecycles = nil
			if out.Metadata.Tools != nil && out.Metadata.Tools.structured() {
				legacy, err := flattenTools(out.Metadata.Tools, target)
				if err != nil {
					return nil, err
				}
				out.Metadata.Tools = legacy
			}
		}
	}

	if target < SpecVersion1_4 {
		if len(out.Vulnerabilities) > 0 {
			return nil, &VersionConstraintError{Path: "vulnerabilities", MinVersion: SpecVersion1_4, Target: target}
		}
		if out.Metadata != nil && out.Metadata.Tools != nil {
			for i := range out.Metadata.Tools.Tools {
				out.Metadata.Tools.Tools[i].ExternalReferences = nil
			}
		}
		stripRefHashes(out)
	}

	var walkErr error
	walkComponents(out, func(path string, c *Component) {
		if walkErr != nil {
			return
		}
		if min, ok := knownComponentTypes[c.Type]; ok && min > target {
			walkErr = &VersionConstraintError{Path: path + ".type", MinVersion: min, Target: target}
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

// flattenTools projects the structured 1.5 tool collection onto the flat
// legacy list. The projection keeps vendor, name, version, hashes, and
// external references; anything deeper has no legacy equivalent and aborts.
func flattenTools(tc *ToolsChoice, target SpecVersion) (*ToolsChoice, error) {
	flat := &ToolsChoice{Tools: append([]Tool(nil), tc.Tools...)}
	for i, c := range tc.Components {
		if len(c.Components) > 0 {
			return nil, &VersionConstraintError{
				Path:       fmt.Sprintf("metadata.tools.components[%d].components", i),
				MinVersion: SpecVersion1_5,
				Target:     target,
			}
		}
		tool := Tool{
			Name:               c.Name,
			Version:            c.Version,
			Hashes:             c.Hashes,
			ExternalReferences: c.ExternalReferences,
		}
		if c.Supplier != nil {
			tool.Vendor = c.Supplier.Name
		} else {
			tool.Vendor = c.Group
		}
		flat.Tools = append(flat.Tools, tool)
	}
	for _, s := range tc.Services {
		tool := Tool{Name: s.Name, Version: s.Version}
		if s.Provider != nil {
			tool.Vendor = s.Provider.Name
		}
		flat.Tools = append(flat.Tools, tool)
	}
	return flat, nil
}

// stripRefHashes removes external-reference hashes everywhere; they were
// introduced in 1.4.
func stripRefHashes(b *BOM) {
	clear := func(refs []ExternalReference) {
		for i := range refs {
			refs[i].Hashes = nil
		}
	}
	clear(b.ExternalReferences)
	walkComponents(b, func(_ string, c *Component) {
		clear(c.ExternalReferences)
	})
	walkServices(b, func(_ string, s *Service) {
		clear(s.ExternalReferences)
	})
}

// walkComponents visits every component in the document, including the
// metadata subject, tool components, and nested sub-components, depth first.
// Each visit receives the component's field path.
func walkComponents(b *BOM, visit func(path string, c *Component)) {
	var walk func(path string, comps []Component)
	walk = func(path string, comps []Component) {
		for i := range comps {
			p := fmt.Sprintf("%s[%d]", path, i)
			visit(p, &comps[i])
			walk(p+".components", comps[i].Components)
		}
	}
	if b.Metadata != nil {
		if b.Metadata.Component != nil {
			visit("metadata.component", b.Metadata.Component)
			walk("metadata.component.components", b.Metadata.Component.Components)
		}
		if b.Metadata.Tools != nil {
			walk("metadata.tools.components", b.Metadata.Tools.Components)
		}
	}
	walk("components", b.Components)
}

// walkServices visits every service, including nested sub-services.
func walkServices(b *BOM, visit func(path string, s *Service)) {
	var walk func(path string, svcs []Service)
	walk = func(path string, svcs []Service) {
		for i := range svcs {
			p := fmt.Sprintf("%s[%d]", path, i)
			visit(p, &svcs[i])
			walk(p+".services", svcs[i].Services)
		}
	}
	walk("services", b.Services)
	if b.Metadata != nil && b.Metadata.Tools != nil {
		walk("metadata.tools.services", b.Metadata.Tools.Services)
	}
}
