package cyclonedx

import (
	"encoding/xml"
	"io"
)

// The XML schemas wrap repeated elements in a collection element
// (<components><component>...</component></components>) that must be absent,
// not empty, when there is nothing to list. encoding/xml ignores omitempty on
// nested a>b tag paths, so every collection gets a named slice type whose
// marshaler skips the wrapper entirely for an empty list.

func marshalWrapped[T any](e *xml.Encoder, start xml.StartElement, child string, items []T) error {
	if len(items) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	name := xml.StartElement{Name: xml.Name{Local: child}}
	for i := range items {
		if err := e.EncodeElement(&items[i], name); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func unmarshalWrapped[T any](d *xml.Decoder, start xml.StartElement, child string, items *[]T) error {
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == child {
				var item T
				if err := d.DecodeElement(&item, &t); err != nil {
					return err
				}
				*items = append(*items, item)
				continue
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// Components is an ordered list of components.
type Components []Component

func (c Components) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "component", c)
}

func (c *Components) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "component", (*[]Component)(c))
}

// Services is an ordered list of services.
type Services []Service

func (s Services) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "service", s)
}

func (s *Services) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "service", (*[]Service)(s))
}

// ExternalReferences is an ordered list of external references.
type ExternalReferences []ExternalReference

func (r ExternalReferences) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "reference", r)
}

func (r *ExternalReferences) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "reference", (*[]ExternalReference)(r))
}

// Dependencies is the document's dependency graph, one node per entry.
type Dependencies []Dependency

func (dep Dependencies) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "dependency", dep)
}

func (dep *Dependencies) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "dependency", (*[]Dependency)(dep))
}

// Compositions is an ordered list of composition assertions.
type Compositions []Composition

func (c Compositions) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "composition", c)
}

func (c *Compositions) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "composition", (*[]Composition)(c))
}

// Vulnerabilities is an ordered list of vulnerability records.
type Vulnerabilities []Vulnerability

func (v Vulnerabilities) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "vulnerability", v)
}

func (v *Vulnerabilities) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "vulnerability", (*[]Vulnerability)(v))
}

// Annotations is an ordered list of annotations.
type Annotations []Annotation

func (a Annotations) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "annotation", a)
}

func (a *Annotations) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "annotation", (*[]Annotation)(a))
}

// Hashes is an ordered list of digests.
type Hashes []Hash

func (h Hashes) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "hash", h)
}

func (h *Hashes) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "hash", (*[]Hash)(h))
}

// Properties is an ordered list of name/value properties.
type Properties []Property

func (p Properties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "property", p)
}

func (p *Properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "property", (*[]Property)(p))
}

// Lifecycles is an ordered list of lifecycle phase entries.
type Lifecycles []Lifecycle

func (l Lifecycles) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "lifecycle", l)
}

func (l *Lifecycles) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "lifecycle", (*[]Lifecycle)(l))
}

// Authors is an ordered list of document authors.
type Authors []OrganizationalContact

func (a Authors) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "author", a)
}

func (a *Authors) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "author", (*[]OrganizationalContact)(a))
}

// Endpoints is an ordered list of service endpoint URIs.
type Endpoints []URI

func (ep Endpoints) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "endpoint", ep)
}

func (ep *Endpoints) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "endpoint", (*[]URI)(ep))
}

// Ratings is an ordered list of vulnerability ratings.
type Ratings []VulnerabilityRating

func (r Ratings) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "rating", r)
}

func (r *Ratings) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "rating", (*[]VulnerabilityRating)(r))
}

// Affects is an ordered list of vulnerability targets.
type Affects []VulnerabilityAffects

func (a Affects) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return marshalWrapped(e, start, "target", a)
}

func (a *Affects) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	return unmarshalWrapped(d, start, "target", (*[]VulnerabilityAffects)(a))
}
