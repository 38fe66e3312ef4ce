// Package bomgen builds CycloneDX documents from a resolved dependency
// graph. It is the bridge between a build system's package resolution and the
// cyclonedx core: callers feed it resolved packages and dependency edges, and
// it produces a populated, serializable document.
//
// The package holds no persisted state and reads no environment; file
// handling and flag parsing belong to the caller.
package bomgen

import (
	"fmt"
	"io"
	"sort"
	"time"

	packageurl "github.com/package-url/packageurl-go"
	"go.uber.org/zap"

	"github.com/StinkyLord/cyclonedx-sbom/cyclonedx"
)

// OriginKind classifies where a resolved package came from.
type OriginKind string

const (
	// OriginRegistry is a package fetched from a package registry.
	OriginRegistry OriginKind = "registry"
	// OriginSourceControl is a package fetched from a source-control URL.
	OriginSourceControl OriginKind = "source-control"
	// OriginFilesystem is a package resolved from a local path.
	OriginFilesystem OriginKind = "filesystem"
)

// Origin identifies a package's provenance. Registry packages get a purl
// built from the registry's purl type; source-control packages get a vcs
// external reference; filesystem packages carry no global identity.
type Origin struct {
	Kind OriginKind `json:"kind" yaml:"kind"`
	// Registry is the purl type of the registry ("cargo", "npm", "conan").
	Registry string `json:"registry,omitempty" yaml:"registry,omitempty"`
	// URL is the source-control location for OriginSourceControl.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Package is one resolved package handed over by the build system.
type Package struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Group       string   `json:"group,omitempty"`
	Origin      Origin   `json:"origin"`
	Licenses    []string `json:"licenses,omitempty"`
	SHA256      string   `json:"sha256,omitempty"` // archive hash, if known
	Description string   `json:"description,omitempty"`
	// BuildOnly marks packages reachable only through build-time edges;
	// they are tagged excluded from runtime in the output.
	BuildOnly bool `json:"build_only,omitempty"`
}

// Builder accumulates packages and edges and produces a BOM. Create one per
// document; a Builder is not safe for concurrent use.
type Builder struct {
	version cyclonedx.SpecVersion
	policy  *cyclonedx.LicensePolicy
	tool    ToolInfo
	now     func() time.Time
	log     *zap.Logger

	subject    *cyclonedx.Component
	subjectRef string
	components []cyclonedx.Component
	refByID    map[string]string
	edges      map[string][]string
	edgeOrder  []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithLicensePolicy applies a lenient license policy when converting package
// license strings.
func WithLicensePolicy(p *cyclonedx.LicensePolicy) Option {
	return func(b *Builder) { b.policy = p }
}

// WithTool sets the authoring-tool entry recorded in metadata.
func WithTool(t ToolInfo) Option {
	return func(b *Builder) { b.tool = t }
}

// WithClock overrides the timestamp source, for reproducible output.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithLogger routes diagnostics to the given logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) { b.log = log }
}

// ToolInfo names the tool that produced the document.
type ToolInfo struct {
	Vendor  string `yaml:"vendor"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// New returns a Builder targeting the given spec version.
func New(version cyclonedx.SpecVersion, opts ...Option) *Builder {
	b := &Builder{
		version: version,
		now:     time.Now,
		log:     zap.NewNop(),
		refByID: map[string]string{},
		edges:   map[string][]string{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetSubject records the package the document itself describes; it becomes
// metadata.component and the root of the dependency graph.
func (b *Builder) SetSubject(id string, pkg Package) error {
	comp, err := b.component(pkg, cyclonedx.ComponentTypeApplication)
	if err != nil {
		return err
	}
	comp.BOMRef = b.refFor(pkg)
	b.subject = comp
	b.subjectRef = comp.BOMRef
	b.refByID[id] = comp.BOMRef
	return nil
}

// AddPackage records one resolved dependency under the caller's package id.
func (b *Builder) AddPackage(id string, pkg Package) error {
	if _, dup := b.refByID[id]; dup {
		return fmt.Errorf("package %q added twice", id)
	}
	comp, err := b.component(pkg, cyclonedx.ComponentTypeLibrary)
	if err != nil {
		return fmt.Errorf("package %q: %w", id, err)
	}
	comp.BOMRef = b.refFor(pkg)
	b.refByID[id] = comp.BOMRef
	b.components = append(b.components, *comp)
	b.log.Debug("added package",
		zap.String("id", id),
		zap.String("bom-ref", comp.BOMRef),
		zap.String("origin", string(pkg.Origin.Kind)))
	return nil
}

// AddDependency records a resolved dependency edge between two package ids.
// Both ends must have been added first.
func (b *Builder) AddDependency(fromID, toID string) error {
	from, ok := b.refByID[fromID]
	if !ok {
		return fmt.Errorf("dependency edge from unknown package %q", fromID)
	}
	to, ok := b.refByID[toID]
	if !ok {
		return fmt.Errorf("dependency edge to unknown package %q", toID)
	}
	if _, seen := b.edges[from]; !seen {
		b.edgeOrder = append(b.edgeOrder, from)
	}
	b.edges[from] = append(b.edges[from], to)
	return nil
}

// refFor derives a stable bom-ref for a package: its purl when it has one,
// else group/name@version.
func (b *Builder) refFor(pkg Package) string {
	if purl := b.purlFor(pkg); purl != "" {
		return purl
	}
	if pkg.Group != "" {
		return pkg.Group + "/" + pkg.Name + "@" + pkg.Version
	}
	return pkg.Name + "@" + pkg.Version
}

func (b *Builder) purlFor(pkg Package) string {
	if pkg.Origin.Kind != OriginRegistry || pkg.Origin.Registry == "" {
		return ""
	}
	purl := packageurl.NewPackageURL(pkg.Origin.Registry, pkg.Group, pkg.Name, pkg.Version, nil, "")
	return purl.ToString()
}

// component converts a package into a model component.
func (b *Builder) component(pkg Package, typ cyclonedx.ComponentType) (*cyclonedx.Component, error) {
	if pkg.Name == "" {
		return nil, fmt.Errorf("package has no name")
	}
	comp := &cyclonedx.Component{
		Type:        typ,
		Group:       cyclonedx.Normalize(pkg.Group),
		Name:        cyclonedx.Normalize(pkg.Name),
		Version:     cyclonedx.Normalize(pkg.Version),
		Description: cyclonedx.Normalize(pkg.Description),
	}
	if purl := b.purlFor(pkg); purl != "" {
		validated, err := cyclonedx.NewPackageURL(purl)
		if err != nil {
			return nil, err
		}
		comp.PURL = validated
	}
	if pkg.Origin.Kind == OriginSourceControl && pkg.Origin.URL != "" {
		url, err := cyclonedx.NewURI(pkg.Origin.URL)
		if err != nil {
			return nil, err
		}
		comp.ExternalReferences = append(comp.ExternalReferences, cyclonedx.ExternalReference{
			URL:  url,
			Type: cyclonedx.ERTypeVCS,
		})
	}
	if pkg.SHA256 != "" {
		hash, err := cyclonedx.NewHash(cyclonedx.HashAlgoSHA256, pkg.SHA256)
		if err != nil {
			return nil, err
		}
		comp.Hashes = append(comp.Hashes, *hash)
	}
	for _, lic := range pkg.Licenses {
		expr, lenient, err := cyclonedx.ParseLicenseExpressionWith(lic, b.policy)
		if err != nil {
			// Unparseable license metadata becomes a named license rather
			// than being dropped; the validator can still flag it.
			b.log.Warn("license kept as name, not a valid SPDX expression",
				zap.String("package", pkg.Name), zap.String("license", lic))
			comp.Licenses = append(comp.Licenses, cyclonedx.LicenseChoice{
				License: &cyclonedx.License{Name: cyclonedx.Normalize(lic)},
			})
			continue
		}
		if lenient {
			b.log.Debug("license accepted under lenient policy",
				zap.String("package", pkg.Name), zap.String("license", lic))
		}
		comp.Licenses = append(comp.Licenses, cyclonedx.LicenseChoice{Expression: expr})
	}
	if pkg.BuildOnly {
		comp.Scope = cyclonedx.ScopeExcluded
	}
	return comp, nil
}

// Build assembles the final document. Components are sorted by bom-ref for
// deterministic output; the dependency graph lists the subject first, then
// every package with outgoing edges in insertion order.
func (b *Builder) Build() *cyclonedx.BOM {
	bom := cyclonedx.NewBOM(b.version)
	bom.Metadata = &cyclonedx.Metadata{
		Timestamp: b.now().UTC().Format(time.RFC3339),
		Component: b.subject,
	}
	if b.tool != (ToolInfo{}) {
		bom.Metadata.Tools = b.toolsChoice()
	}

	comps := make([]cyclonedx.Component, len(b.components))
	copy(comps, b.components)
	sort.Slice(comps, func(i, j int) bool { return comps[i].BOMRef < comps[j].BOMRef })
	bom.Components = comps

	for _, ref := range b.edgeOrder {
		dep := cyclonedx.Dependency{Ref: ref}
		seen := map[string]bool{}
		for _, to := range b.edges[ref] {
			if !seen[to] {
				seen[to] = true
				dep.DependsOn = append(dep.DependsOn, to)
			}
		}
		bom.Dependencies = append(bom.Dependencies, dep)
	}
	return bom
}

// toolsChoice records the generator in the shape native to the target
// version: a structured tool component from 1.5 on, the flat legacy entry
// before that.
func (b *Builder) toolsChoice() *cyclonedx.ToolsChoice {
	if b.version >= cyclonedx.SpecVersion1_5 {
		return &cyclonedx.ToolsChoice{
			Components: []cyclonedx.Component{{
				Type:    cyclonedx.ComponentTypeApplication,
				Name:    cyclonedx.Normalize(b.tool.Name),
				Version: cyclonedx.Normalize(b.tool.Version),
				Supplier: &cyclonedx.OrganizationalEntity{
					Name: cyclonedx.Normalize(b.tool.Vendor),
				},
			}},
		}
	}
	return &cyclonedx.ToolsChoice{
		Tools: []cyclonedx.Tool{{
			Vendor:  cyclonedx.Normalize(b.tool.Vendor),
			Name:    cyclonedx.Normalize(b.tool.Name),
			Version: cyclonedx.Normalize(b.tool.Version),
		}},
	}
}

// Validate runs the core validator over the assembled document.
func (b *Builder) Validate() *cyclonedx.ValidationReport {
	validator := cyclonedx.NewValidator(cyclonedx.WithLicensePolicy(b.policy))
	return validator.Validate(b.Build())
}

// Serialize assembles the document and writes it to w.
func (b *Builder) Serialize(w io.Writer, format cyclonedx.Format) error {
	return cyclonedx.Encode(w, b.Build(), format, b.version)
}
