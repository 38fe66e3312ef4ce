package cyclonedx

import (
	"strings"
)

// LicenseExpression is a validated SPDX license expression such as
// "MIT OR Apache-2.0" or "GPL-2.0-only WITH Classpath-exception-2.0".
type LicenseExpression string

func (e LicenseExpression) String() string { return string(e) }

// LicensePolicy loosens expression parsing for input from ecosystems that
// predate or ignore SPDX. The zero value is fully strict.
type LicensePolicy struct {
	// AcceptSlashSeparated turns deprecated "MIT/Apache-2.0" multi-license
	// strings into an OR expression.
	AcceptSlashSeparated bool

	// AllowNames lists non-SPDX license names accepted verbatim as bare
	// identifiers ("BSD", "Apache 2.0").
	AllowNames []string
}

func (p *LicensePolicy) allowsName(name string) bool {
	if p == nil {
		return false
	}
	for _, n := range p.AllowNames {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// ParseLicenseExpression parses an SPDX expression strictly: every license
// identifier must be a known SPDX id (or LicenseRef-/DocumentRef- prefixed),
// every exception after WITH a known SPDX exception.
func ParseLicenseExpression(s string) (LicenseExpression, error) {
	expr, _, err := ParseLicenseExpressionWith(s, nil)
	return expr, err
}

// ParseLicenseExpressionWith parses an SPDX expression under a policy. The
// second result reports whether a lenient-fallback rule was needed to accept
// the input; the validation engine surfaces that as a warning.
func ParseLicenseExpressionWith(s string, policy *LicensePolicy) (LicenseExpression, bool, error) {
	if strings.TrimSpace(s) == "" {
		return "", false, &FormatError{Value: s, Rule: "license expression must not be empty"}
	}

	lenient := false
	input := s
	if policy != nil && policy.AcceptSlashSeparated && strings.Contains(s, "/") && !strings.Contains(s, " ") {
		// Deprecated slash-separated multi-license string, e.g. "MIT/Apache-2.0".
		input = strings.Join(strings.Split(s, "/"), " OR ")
		lenient = true
	}

	p := exprParser{toks: tokenizeExpression(input), policy: policy}
	if err := p.parseExpression(); err != nil {
		return "", false, err
	}
	if p.pos != len(p.toks) {
		return "", false, &FormatError{Value: s, Rule: "unexpected trailing token " + p.toks[p.pos] + " in license expression"}
	}
	return LicenseExpression(input), lenient || p.lenient, nil
}

// tokenizeExpression splits on whitespace while keeping parentheses as their
// own tokens.
func tokenizeExpression(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

type exprParser struct {
	toks    []string
	pos     int
	policy  *LicensePolicy
	lenient bool
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

// parseExpression handles: term ((AND|OR) term)*
func (p *exprParser) parseExpression() error {
	if err := p.parseTerm(); err != nil {
		return err
	}
	for {
		switch p.peek() {
		case "AND", "OR":
			p.pos++
			if err := p.parseTerm(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// parseTerm handles: "(" expression ")" | id ["+"] ["WITH" exception]
func (p *exprParser) parseTerm() error {
	tok := p.peek()
	if tok == "" {
		return &FormatError{Value: strings.Join(p.toks, " "), Rule: "license expression ended where a license was expected"}
	}
	if tok == "(" {
		p.pos++
		if err := p.parseExpression(); err != nil {
			return err
		}
		if p.peek() != ")" {
			return &FormatError{Value: strings.Join(p.toks, " "), Rule: "unbalanced parentheses in license expression"}
		}
		p.pos++
		return nil
	}
	if err := p.checkLicenseID(tok); err != nil {
		return err
	}
	p.pos++
	if p.peek() == "WITH" {
		p.pos++
		exc := p.peek()
		if exc == "" {
			return &FormatError{Value: strings.Join(p.toks, " "), Rule: "WITH must be followed by an exception identifier"}
		}
		if !spdxExceptionIDs[exc] {
			return &FormatError{Value: exc, Rule: "unknown SPDX license exception"}
		}
		p.pos++
	}
	return nil
}

func (p *exprParser) checkLicenseID(tok string) error {
	switch tok {
	case ")", "AND", "OR", "WITH", "+":
		return &FormatError{Value: tok, Rule: "expected a license identifier"}
	}
	id := strings.TrimSuffix(tok, "+")
	if strings.HasPrefix(id, "LicenseRef-") || strings.HasPrefix(id, "DocumentRef-") {
		return nil
	}
	if spdxLicenseIDs[id] {
		return nil
	}
	if canonical, ok := spdxIDsLower[lowerASCII(id)]; ok && canonical != id {
		// Wrong casing of a known id is tolerated, flagged as lenient.
		p.lenient = true
		return nil
	}
	if p.policy.allowsName(id) {
		p.lenient = true
		return nil
	}
	return &FormatError{Value: id, Rule: "unknown SPDX license identifier"}
}
