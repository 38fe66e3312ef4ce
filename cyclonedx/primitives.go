package cyclonedx

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizedString is a string with carriage returns, line feeds, and tabs
// collapsed to single spaces, per the XML schema normalizedString type.
type NormalizedString string

// Normalize builds a NormalizedString from arbitrary input. It cannot fail;
// offending characters are replaced rather than rejected.
func Normalize(s string) NormalizedString {
	r := strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ")
	return NormalizedString(r.Replace(s))
}

func (n NormalizedString) String() string { return string(n) }

// URI is a non-empty identifier with no embedded whitespace. The full RFC 3986
// grammar is not enforced; the schema's anyURI type is equally permissive.
type URI string

// NewURI validates and wraps a URI string.
func NewURI(s string) (URI, error) {
	if s == "" {
		return "", &FormatError{Value: s, Rule: "URI must not be empty"}
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", &FormatError{Value: s, Rule: "URI must not contain whitespace"}
	}
	return URI(s), nil
}

func (u URI) String() string { return string(u) }

// SerialNumber is a BOM serial number in urn:uuid form.
type SerialNumber string

const serialPrefix = "urn:uuid:"

// NewSerialNumber generates a fresh random serial number.
func NewSerialNumber() SerialNumber {
	return SerialNumber(serialPrefix + uuid.New().String())
}

// ParseSerialNumber validates an existing urn:uuid string.
func ParseSerialNumber(s string) (SerialNumber, error) {
	if !strings.HasPrefix(s, serialPrefix) {
		return "", &FormatError{Value: s, Rule: "serial number must start with urn:uuid:"}
	}
	if _, err := uuid.Parse(strings.TrimPrefix(s, serialPrefix)); err != nil {
		return "", &FormatError{Value: s, Rule: "serial number must contain a valid RFC 4122 UUID"}
	}
	return SerialNumber(s), nil
}

func (s SerialNumber) String() string { return string(s) }
