package cyclonedx

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
)

// ---- LicenseChoice / Licenses ----

type licenseChoiceJSON struct {
	License    *License          `json:"license,omitempty"`
	Expression LicenseExpression `json:"expression,omitempty"`
}

func (lc LicenseChoice) MarshalJSON() ([]byte, error) {
	if lc.Expression != "" {
		return json.Marshal(licenseChoiceJSON{Expression: lc.Expression})
	}
	return json.Marshal(licenseChoiceJSON{License: lc.License})
}

func (lc *LicenseChoice) UnmarshalJSON(data []byte) error {
	var aux licenseChoiceJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.License != nil && aux.Expression != "" {
		return &ParseError{Path: "licenses", Msg: "license and expression are mutually exclusive"}
	}
	lc.License = aux.License
	lc.Expression = aux.Expression
	return nil
}

func (l Licenses) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if len(l) == 0 {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range l {
		if c.Expression != "" {
			name := xml.StartElement{Name: xml.Name{Local: "expression"}}
			if err := e.EncodeElement(string(c.Expression), name); err != nil {
				return err
			}
			continue
		}
		if c.License != nil {
			name := xml.StartElement{Name: xml.Name{Local: "license"}}
			if err := e.EncodeElement(c.License, name); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

func (l *Licenses) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
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
			switch t.Name.Local {
			case "license":
				var lic License
				if err := d.DecodeElement(&lic, &t); err != nil {
					return err
				}
				*l = append(*l, LicenseChoice{License: &lic})
			case "expression":
				var expr string
				if err := d.DecodeElement(&expr, &t); err != nil {
					return err
				}
				*l = append(*l, LicenseChoice{Expression: LicenseExpression(expr)})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// ---- ToolsChoice ----

type toolsStructuredJSON struct {
	Components []Component `json:"components,omitempty"`
	Services   []Service   `json:"services,omitempty"`
}

func (t ToolsChoice) MarshalJSON() ([]byte, error) {
	if t.structured() {
		return json.Marshal(toolsStructuredJSON{Components: t.Components, Services: t.Services})
	}
	return json.Marshal(t.Tools)
}

func (t *ToolsChoice) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &t.Tools)
	}
	var aux toolsStructuredJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Components = aux.Components
	t.Services = aux.Services
	return nil
}

func (t *ToolsChoice) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if t == nil || (!t.structured() && len(t.Tools) == 0) {
		return nil
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if t.structured() {
		if len(t.Components) > 0 {
			wrap := struct {
				Components []Component `xml:"component"`
			}{t.Components}
			name := xml.StartElement{Name: xml.Name{Local: "components"}}
			if err := e.EncodeElement(wrap, name); err != nil {
				return err
			}
		}
		if len(t.Services) > 0 {
			wrap := struct {
				Services []Service `xml:"service"`
			}{t.Services}
			name := xml.StartElement{Name: xml.Name{Local: "services"}}
			if err := e.EncodeElement(wrap, name); err != nil {
				return err
			}
		}
	} else {
		for i := range t.Tools {
			name := xml.StartElement{Name: xml.Name{Local: "tool"}}
			if err := e.EncodeElement(&t.Tools[i], name); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

func (t *ToolsChoice) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tool":
				var tool Tool
				if err := d.DecodeElement(&tool, &el); err != nil {
					return err
				}
				t.Tools = append(t.Tools, tool)
			case "components":
				var wrap struct {
					Components []Component `xml:"component"`
				}
				if err := d.DecodeElement(&wrap, &el); err != nil {
					return err
				}
				t.Components = wrap.Components
			case "services":
				var wrap struct {
					Services []Service `xml:"service"`
				}
				if err := d.DecodeElement(&wrap, &el); err != nil {
					return err
				}
				t.Services = wrap.Services
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// ---- Dependency ----

// refAttr is the <element ref="..."/> shape used by dependency children,
// composition members, and annotation subjects.
type refAttr struct {
	Ref string `xml:"ref,attr"`
}

func (dep Dependency) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "ref"}, Value: dep.Ref})
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, child := range dep.DependsOn {
		name := xml.StartElement{Name: xml.Name{Local: "dependency"}}
		if err := e.EncodeElement(refAttr{Ref: child}, name); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (dep *Dependency) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "ref" {
			dep.Ref = attr.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "dependency" {
				var child refAttr
				if err := d.DecodeElement(&child, &el); err != nil {
					return err
				}
				dep.DependsOn = append(dep.DependsOn, child.Ref)
			} else if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// ---- Composition ----

func (c Composition) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if c.BOMRef != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "bom-ref"}, Value: c.BOMRef})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	name := xml.StartElement{Name: xml.Name{Local: "aggregate"}}
	if err := e.EncodeElement(string(c.Aggregate), name); err != nil {
		return err
	}
	for _, ref := range c.Assemblies {
		name := xml.StartElement{Name: xml.Name{Local: "assembly"}}
		if err := e.EncodeElement(refAttr{Ref: ref}, name); err != nil {
			return err
		}
	}
	for _, ref := range c.Dependencies {
		name := xml.StartElement{Name: xml.Name{Local: "dependency"}}
		if err := e.EncodeElement(refAttr{Ref: ref}, name); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (c *Composition) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "bom-ref" {
			c.BOMRef = attr.Value
		}
	}
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "aggregate":
				var agg string
				if err := d.DecodeElement(&agg, &el); err != nil {
					return err
				}
				c.Aggregate = CompositionAggregate(agg)
			case "assembly":
				var ref refAttr
				if err := d.DecodeElement(&ref, &el); err != nil {
					return err
				}
				c.Assemblies = append(c.Assemblies, ref.Ref)
			case "dependency":
				var ref refAttr
				if err := d.DecodeElement(&ref, &el); err != nil {
					return err
				}
				c.Dependencies = append(c.Dependencies, ref.Ref)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

// ---- Annotation ----

// annotationXML mirrors Annotation with subjects in ref-attribute form. The
// subjects wrapper is a pointer so an empty list emits no element at all.
type annotationXML struct {
	BOMRef    string              `xml:"bom-ref,attr,omitempty"`
	Subjects  *annotationSubjects `xml:"subjects,omitempty"`
	Annotator *Annotator          `xml:"annotator,omitempty"`
	Timestamp string              `xml:"timestamp,omitempty"`
	Text      string              `xml:"text,omitempty"`
}

type annotationSubjects struct {
	Refs []refAttr `xml:"subject"`
}

func (a Annotation) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	aux := annotationXML{
		BOMRef:    a.BOMRef,
		Annotator: a.Annotator,
		Timestamp: a.Timestamp,
		Text:      a.Text,
	}
	if len(a.Subjects) > 0 {
		aux.Subjects = &annotationSubjects{}
		for _, s := range a.Subjects {
			aux.Subjects.Refs = append(aux.Subjects.Refs, refAttr{Ref: s})
		}
	}
	return e.EncodeElement(aux, start)
}

func (a *Annotation) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var aux annotationXML
	if err := d.DecodeElement(&aux, &start); err != nil {
		return err
	}
	a.BOMRef = aux.BOMRef
	a.Annotator = aux.Annotator
	a.Timestamp = aux.Timestamp
	a.Text = aux.Text
	a.Subjects = nil
	if aux.Subjects != nil {
		for _, s := range aux.Subjects.Refs {
			a.Subjects = append(a.Subjects, s.Ref)
		}
	}
	return nil
}
