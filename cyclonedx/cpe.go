package cyclonedx

import "regexp"

// CPE is a validated Common Platform Enumeration identifier, either a CPE 2.2
// URI ("cpe:/a:vendor:product:1.0") or a CPE 2.3 formatted string
// ("cpe:2.3:a:vendor:product:1.0:*:*:*:*:*:*:*").
type CPE string

// Patterns from the official CPE naming specification, as carried by the
// CycloneDX schemas.
var (
	cpe22Pattern = regexp.MustCompile(`^[c][pP][eE]:/[AHOaho]?(:[A-Za-z0-9\._\-~%]*){0,6}$`)
	cpe23Pattern = regexp.MustCompile(`^cpe:2\.3:[aho\*\-](:(((\?*|\*?)([a-zA-Z0-9\-\._]|(\\[\\\*\?!"#$$%&'\(\)\+,/:;<=>@\[\]\^\x60\{\|\}~]))+(\?*|\*?))|[\*\-])){5}(:(([a-zA-Z]{2,3}(-([a-zA-Z]{2}|[0-9]{3}))?)|[\*\-]))(:(((\?*|\*?)([a-zA-Z0-9\-\._]|(\\[\\\*\?!"#$$%&'\(\)\+,/:;<=>@\[\]\^\x60\{\|\}~]))+(\?*|\*?))|[\*\-])){4}$`)
)

// NewCPE validates a CPE string in either notation.
func NewCPE(s string) (CPE, error) {
	if cpe22Pattern.MatchString(s) || cpe23Pattern.MatchString(s) {
		return CPE(s), nil
	}
	return "", &FormatError{Value: s, Rule: "not a valid CPE 2.2 URI or CPE 2.3 formatted string"}
}

func (c CPE) String() string { return string(c) }
