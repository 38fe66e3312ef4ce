package cyclonedx

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// BOMFormat is the constant format tag carried by every CycloneDX JSON
// document.
const BOMFormat = "CycloneDX"

// BOM is the top-level SBOM document. It is the superset of every supported
// spec version; the codec omits or rejects fields the target version cannot
// carry. Field declaration order below is the spec-defined JSON key order.
type BOM struct {
	XMLName      xml.Name     `json:"-" xml:"bom"`
	XMLNS        string       `json:"-" xml:"xmlns,attr"`
	BOMFormat    string       `json:"bomFormat" xml:"-"`
	SpecVersion  SpecVersion  `json:"specVersion" xml:"-"`
	SerialNumber SerialNumber `json:"serialNumber,omitempty" xml:"serialNumber,attr,omitempty"`
	Version      int          `json:"version" xml:"version,attr"`

	Metadata           *Metadata          `json:"metadata,omitempty" xml:"metadata,omitempty"`
	Components         Components         `json:"components,omitempty" xml:"components,omitempty"`
	Services           Services           `json:"services,omitempty" xml:"services,omitempty"`
	ExternalReferences ExternalReferences `json:"externalReferences,omitempty" xml:"externalReferences,omitempty"`
	Dependencies       Dependencies       `json:"dependencies,omitempty" xml:"dependencies,omitempty"`
	Compositions       Compositions       `json:"compositions,omitempty" xml:"compositions,omitempty"`
	Vulnerabilities    Vulnerabilities    `json:"vulnerabilities,omitempty" xml:"vulnerabilities,omitempty"`
	Annotations        Annotations        `json:"annotations,omitempty" xml:"annotations,omitempty"`
}

// NewBOM returns an empty document at the given version with document version
// 1 and a freshly generated serial number.
func NewBOM(version SpecVersion) *BOM {
	return &BOM{
		BOMFormat:    BOMFormat,
		SpecVersion:  version,
		SerialNumber: NewSerialNumber(),
		Version:      1,
	}
}

// Clone returns a deep copy sharing no data with the receiver.
func (b *BOM) Clone() *BOM {
	if b == nil {
		return nil
	}
	return cloneVia(b)
}

// cloneVia deep-copies a model value through the version-agnostic JSON form.
// Model marshaling is total over the superset, so nothing is lost.
func cloneVia[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("cyclonedx: clone marshal: %v", err))
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("cyclonedx: clone unmarshal: %v", err))
	}
	return out
}

// Metadata describes the provenance of the document itself.
type Metadata struct {
	Timestamp   string                `json:"timestamp,omitempty" xml:"timestamp,omitempty"`
	Lifecycles  Lifecycles            `json:"lifecycles,omitempty" xml:"lifecycles,omitempty"`
	Tools       *ToolsChoice          `json:"tools,omitempty" xml:"tools,omitempty"`
	Authors     Authors               `json:"authors,omitempty" xml:"authors,omitempty"`
	Component   *Component            `json:"component,omitempty" xml:"component,omitempty"`
	Manufacture *OrganizationalEntity `json:"manufacture,omitempty" xml:"manufacture,omitempty"`
	Supplier    *OrganizationalEntity `json:"supplier,omitempty" xml:"supplier,omitempty"`
	Licenses    Licenses              `json:"licenses,omitempty" xml:"licenses,omitempty"`
	Properties  Properties            `json:"properties,omitempty" xml:"properties,omitempty"`
}

// Lifecycle is a product lifecycle phase entry (spec 1.5).
type Lifecycle struct {
	Phase       string           `json:"phase,omitempty" xml:"phase,omitempty"`
	Name        NormalizedString `json:"name,omitempty" xml:"name,omitempty"`
	Description NormalizedString `json:"description,omitempty" xml:"description,omitempty"`
}

// Tool is the flat legacy tool shape used by spec versions before 1.5.
type Tool struct {
	Vendor             NormalizedString   `json:"vendor,omitempty" xml:"vendor,omitempty"`
	Name               NormalizedString   `json:"name,omitempty" xml:"name,omitempty"`
	Version            NormalizedString   `json:"version,omitempty" xml:"version,omitempty"`
	Hashes             Hashes             `json:"hashes,omitempty" xml:"hashes,omitempty"`
	ExternalReferences ExternalReferences `json:"externalReferences,omitempty" xml:"externalReferences,omitempty"`
}

// ToolsChoice absorbs the cross-version divergence in metadata.tools: a flat
// legacy list (1.3/1.4, still accepted by 1.5) or the structured collection of
// components and services introduced in 1.5. At most one form is populated.
type ToolsChoice struct {
	Tools      []Tool
	Components []Component
	Services   []Service
}

func (t *ToolsChoice) structured() bool {
	return len(t.Components) > 0 || len(t.Services) > 0
}

// ComponentType classifies a component.
type ComponentType string

const (
	ComponentTypeApplication ComponentType = "application"
	ComponentTypeFramework   ComponentType = "framework"
	ComponentTypeLibrary     ComponentType = "library"
	ComponentTypeContainer   ComponentType = "container"
	ComponentTypePlatform    ComponentType = "platform"
	ComponentTypeOS          ComponentType = "operating-system"
	ComponentTypeDevice      ComponentType = "device"
	ComponentTypeFirmware    ComponentType = "firmware"
	ComponentTypeFile        ComponentType = "file"
)

// knownComponentTypes lists every classification accepted by the validator
// and the first version that understands it.
var knownComponentTypes = map[ComponentType]SpecVersion{
	ComponentTypeApplication: SpecVersion1_3,
	ComponentTypeFramework:   SpecVersion1_3,
	ComponentTypeLibrary:     SpecVersion1_3,
	ComponentTypeContainer:   SpecVersion1_3,
	ComponentTypeOS:          SpecVersion1_3,
	ComponentTypeDevice:      SpecVersion1_3,
	ComponentTypeFirmware:    SpecVersion1_3,
	ComponentTypeFile:        SpecVersion1_3,
	ComponentTypePlatform:    SpecVersion1_5,
}

// Scope is a component scope.
type Scope string

const (
	ScopeRequired Scope = "required"
	ScopeOptional Scope = "optional"
	ScopeExcluded Scope = "excluded"
)

// Component is a unit of software inventory. Sub-components are exclusively
// owned; nothing else in the document holds a reference to them except by
// bom-ref.
type Component struct {
	Type               ComponentType         `json:"type" xml:"type,attr"`
	BOMRef             string                `json:"bom-ref,omitempty" xml:"bom-ref,attr,omitempty"`
	Supplier           *OrganizationalEntity `json:"supplier,omitempty" xml:"supplier,omitempty"`
	Author             NormalizedString      `json:"author,omitempty" xml:"author,omitempty"`
	Publisher          NormalizedString      `json:"publisher,omitempty" xml:"publisher,omitempty"`
	Group              NormalizedString      `json:"group,omitempty" xml:"group,omitempty"`
	Name               NormalizedString      `json:"name" xml:"name"`
	Version            NormalizedString      `json:"version,omitempty" xml:"version,omitempty"`
	Description        NormalizedString      `json:"description,omitempty" xml:"description,omitempty"`
	Scope              Scope                 `json:"scope,omitempty" xml:"scope,omitempty"`
	Hashes             Hashes                `json:"hashes,omitempty" xml:"hashes,omitempty"`
	Licenses           Licenses              `json:"licenses,omitempty" xml:"licenses,omitempty"`
	Copyright          NormalizedString      `json:"copyright,omitempty" xml:"copyright,omitempty"`
	CPE                CPE                   `json:"cpe,omitempty" xml:"cpe,omitempty"`
	PURL               PackageURL            `json:"purl,omitempty" xml:"purl,omitempty"`
	SWID               *SWID                 `json:"swid,omitempty" xml:"swid,omitempty"`
	ExternalReferences ExternalReferences    `json:"externalReferences,omitempty" xml:"externalReferences,omitempty"`
	Properties         Properties            `json:"properties,omitempty" xml:"properties,omitempty"`
	Components         Components            `json:"components,omitempty" xml:"components,omitempty"`
}

// SWID is an ISO/IEC 19770-2 software identification tag.
type SWID struct {
	TagID      string           `json:"tagId" xml:"tagId,attr"`
	Name       NormalizedString `json:"name" xml:"name,attr"`
	Version    NormalizedString `json:"version,omitempty" xml:"version,attr,omitempty"`
	TagVersion *int             `json:"tagVersion,omitempty" xml:"tagVersion,attr,omitempty"`
	Patch      *bool            `json:"patch,omitempty" xml:"patch,attr,omitempty"`
	Text       *AttachedText    `json:"text,omitempty" xml:"text,omitempty"`
	URL        URI              `json:"url,omitempty" xml:"url,omitempty"`
}

// AttachedText is inline content with optional encoding.
type AttachedText struct {
	ContentType string `json:"contentType,omitempty" xml:"content-type,attr,omitempty"`
	Encoding    string `json:"encoding,omitempty" xml:"encoding,attr,omitempty"`
	Content     string `json:"content" xml:",chardata"`
}

// License is a named or SPDX-identified license. ID and Name are mutually
// exclusive; the validator rejects documents carrying both.
type License struct {
	ID   string           `json:"id,omitempty" xml:"id,omitempty"`
	Name NormalizedString `json:"name,omitempty" xml:"name,omitempty"`
	Text *AttachedText    `json:"text,omitempty" xml:"text,omitempty"`
	URL  URI              `json:"url,omitempty" xml:"url,omitempty"`
}

// LicenseChoice is either a single License or an SPDX expression, never both.
type LicenseChoice struct {
	License    *License
	Expression LicenseExpression
}

// Licenses is an ordered list of license choices.
type Licenses []LicenseChoice

// ExternalReferenceType tags the relationship of an external reference.
type ExternalReferenceType string

const (
	ERTypeVCS           ExternalReferenceType = "vcs"
	ERTypeIssueTracker  ExternalReferenceType = "issue-tracker"
	ERTypeWebsite       ExternalReferenceType = "website"
	ERTypeAdvisories    ExternalReferenceType = "advisories"
	ERTypeBOM           ExternalReferenceType = "bom"
	ERTypeMailingList   ExternalReferenceType = "mailing-list"
	ERTypeSocial        ExternalReferenceType = "social"
	ERTypeChat          ExternalReferenceType = "chat"
	ERTypeDocumentation ExternalReferenceType = "documentation"
	ERTypeSupport       ExternalReferenceType = "support"
	ERTypeDistribution  ExternalReferenceType = "distribution"
	ERTypeLicense       ExternalReferenceType = "license"
	ERTypeBuildMeta     ExternalReferenceType = "build-meta"
	ERTypeBuildSystem   ExternalReferenceType = "build-system"
	ERTypeReleaseNotes  ExternalReferenceType = "release-notes"
	ERTypeOther         ExternalReferenceType = "other"
)

// ExternalReference points at a resource outside the document.
type ExternalReference struct {
	URL     URI                   `json:"url" xml:"url"`
	Comment string                `json:"comment,omitempty" xml:"comment,omitempty"`
	Type    ExternalReferenceType `json:"type" xml:"type,attr"`
	Hashes  Hashes                `json:"hashes,omitempty" xml:"hashes,omitempty"`
}

// Property is a name/value pair in the CycloneDX property taxonomy.
type Property struct {
	Name  string `json:"name" xml:"name,attr"`
	Value string `json:"value" xml:",chardata"`
}

// OrganizationalEntity identifies an organization.
type OrganizationalEntity struct {
	Name     NormalizedString        `json:"name,omitempty" xml:"name,omitempty"`
	URLs     []URI                   `json:"url,omitempty" xml:"url,omitempty"`
	Contacts []OrganizationalContact `json:"contact,omitempty" xml:"contact,omitempty"`
}

// OrganizationalContact identifies an individual.
type OrganizationalContact struct {
	Name  NormalizedString `json:"name,omitempty" xml:"name,omitempty"`
	Email NormalizedString `json:"email,omitempty" xml:"email,omitempty"`
	Phone NormalizedString `json:"phone,omitempty" xml:"phone,omitempty"`
}

// Dependency is one node of the dependency graph: a bom-ref and the set of
// bom-refs it depends on. Edges encode "depends on", never ownership, so
// cycles are representable.
type Dependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// Service is a network service entry sharing the bom-ref namespace.
type Service struct {
	BOMRef               string                `json:"bom-ref,omitempty" xml:"bom-ref,attr,omitempty"`
	Provider             *OrganizationalEntity `json:"provider,omitempty" xml:"provider,omitempty"`
	Group                NormalizedString      `json:"group,omitempty" xml:"group,omitempty"`
	Name                 NormalizedString      `json:"name" xml:"name"`
	Version              NormalizedString      `json:"version,omitempty" xml:"version,omitempty"`
	Description          NormalizedString      `json:"description,omitempty" xml:"description,omitempty"`
	Endpoints            Endpoints             `json:"endpoints,omitempty" xml:"endpoints,omitempty"`
	Authenticated        *bool                 `json:"authenticated,omitempty" xml:"authenticated,omitempty"`
	CrossesTrustBoundary *bool                 `json:"x-trust-boundary,omitempty" xml:"x-trust-boundary,omitempty"`
	Licenses             Licenses              `json:"licenses,omitempty" xml:"licenses,omitempty"`
	ExternalReferences   ExternalReferences    `json:"externalReferences,omitempty" xml:"externalReferences,omitempty"`
	Properties           Properties            `json:"properties,omitempty" xml:"properties,omitempty"`
	Services             Services              `json:"services,omitempty" xml:"services,omitempty"`
}

// VulnerabilitySource names the authority that published a vulnerability.
type VulnerabilitySource struct {
	Name NormalizedString `json:"name,omitempty" xml:"name,omitempty"`
	URL  URI              `json:"url,omitempty" xml:"url,omitempty"`
}

// VulnerabilityRating scores a vulnerability under one method.
type VulnerabilityRating struct {
	Source   *VulnerabilitySource `json:"source,omitempty" xml:"source,omitempty"`
	Score    *float64             `json:"score,omitempty" xml:"score,omitempty"`
	Severity string               `json:"severity,omitempty" xml:"severity,omitempty"`
	Method   string               `json:"method,omitempty" xml:"method,omitempty"`
	Vector   string               `json:"vector,omitempty" xml:"vector,omitempty"`
}

// VulnerabilityAffects names a bom-ref impacted by a vulnerability.
type VulnerabilityAffects struct {
	Ref string `json:"ref" xml:"ref"`
}

// Vulnerability records a known defect against components in the document
// (spec 1.4 onward).
type Vulnerability struct {
	BOMRef      string               `json:"bom-ref,omitempty" xml:"bom-ref,attr,omitempty"`
	ID          NormalizedString     `json:"id,omitempty" xml:"id,omitempty"`
	Source      *VulnerabilitySource `json:"source,omitempty" xml:"source,omitempty"`
	Ratings     Ratings              `json:"ratings,omitempty" xml:"ratings,omitempty"`
	Description NormalizedString     `json:"description,omitempty" xml:"description,omitempty"`
	Affects     Affects              `json:"affects,omitempty" xml:"affects,omitempty"`
}

// CompositionAggregate describes the completeness of a composition.
type CompositionAggregate string

const (
	AggregateComplete             CompositionAggregate = "complete"
	AggregateIncomplete           CompositionAggregate = "incomplete"
	AggregateIncompleteFirstParty CompositionAggregate = "incomplete_first_party_only"
	AggregateIncompleteThirdParty CompositionAggregate = "incomplete_third_party_only"
	AggregateUnknown              CompositionAggregate = "unknown"
	AggregateNotSpecified         CompositionAggregate = "not_specified"
)

// Composition asserts the completeness of a set of assemblies or dependencies
// by bom-ref. The composition's own bom-ref is a 1.5 addition and is dropped
// when serializing to earlier versions.
type Composition struct {
	BOMRef       string               `json:"bom-ref,omitempty"`
	Aggregate    CompositionAggregate `json:"aggregate"`
	Assemblies   []string             `json:"assemblies,omitempty"`
	Dependencies []string             `json:"dependencies,omitempty"`
}

// Annotator is the author of an annotation: an organization or an individual.
type Annotator struct {
	Organization *OrganizationalEntity  `json:"organization,omitempty" xml:"organization,omitempty"`
	Individual   *OrganizationalContact `json:"individual,omitempty" xml:"individual,omitempty"`
}

// Annotation attaches free text to bom-refs (spec 1.5 onward).
type Annotation struct {
	BOMRef    string     `json:"bom-ref,omitempty" xml:"bom-ref,attr,omitempty"`
	Subjects  []string   `json:"subjects,omitempty"`
	Annotator *Annotator `json:"annotator,omitempty" xml:"annotator,omitempty"`
	Timestamp string     `json:"timestamp,omitempty" xml:"timestamp,omitempty"`
	Text      string     `json:"text,omitempty" xml:"text,omitempty"`
}
