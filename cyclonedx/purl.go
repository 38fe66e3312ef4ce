package cyclonedx

import (
	packageurl "github.com/package-url/packageurl-go"
)

// PackageURL is a validated purl string. The canonical form produced by the
// parser is kept, so String() is lossless with respect to the parsed value.
type PackageURL string

// NewPackageURL parses and validates a purl per the package-url spec.
func NewPackageURL(s string) (PackageURL, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return "", &FormatError{Value: s, Rule: "malformed package URL: " + err.Error()}
	}
	return PackageURL(p.ToString()), nil
}

func (p PackageURL) String() string { return string(p) }
