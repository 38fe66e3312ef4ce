package cyclonedx

import (
	"errors"
	"testing"
)

func TestParseLicenseExpression(t *testing.T) {
	good := []string{
		"MIT",
		"MIT OR Apache-2.0",
		"MIT AND Apache-2.0",
		"(MIT OR Apache-2.0) AND BSD-3-Clause",
		"GPL-2.0-only WITH Classpath-exception-2.0",
		"GPL-2.0-or-later",
		"LGPL-2.1-only+",
		"LicenseRef-Proprietary",
		"DocumentRef-spdx-doc:LicenseRef-custom OR MIT",
	}
	for _, s := range good {
		if _, err := ParseLicenseExpression(s); err != nil {
			t.Errorf("ParseLicenseExpression(%q) failed: %v", s, err)
		}
	}

	bad := []string{
		"",
		"NotALicense",
		"MIT OR",
		"MIT Apache-2.0",
		"(MIT OR Apache-2.0",
		"MIT WITH",
		"MIT WITH NotAnException",
		"AND MIT",
	}
	for _, s := range bad {
		_, err := ParseLicenseExpression(s)
		if err == nil {
			t.Errorf("ParseLicenseExpression(%q) succeeded, want error", s)
			continue
		}
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("ParseLicenseExpression(%q) error type = %T, want *FormatError", s, err)
		}
	}
}

func TestParseLicenseExpressionWith(t *testing.T) {
	cases := []struct {
		name        string
		in          string
		policy      *LicensePolicy
		want        string
		wantLenient bool
		wantErr     bool
	}{
		{
			name: "strict id no policy",
			in:   "MIT",
			want: "MIT",
		},
		{
			name:        "wrong casing tolerated",
			in:          "mit",
			want:        "mit",
			wantLenient: true,
		},
		{
			name:        "slash separated rewritten",
			in:          "MIT/Apache-2.0",
			policy:      &LicensePolicy{AcceptSlashSeparated: true},
			want:        "MIT OR Apache-2.0",
			wantLenient: true,
		},
		{
			name:    "slash separated without policy",
			in:      "MIT/Apache-2.0",
			wantErr: true,
		},
		{
			name:        "allow-listed name",
			in:          "BSD",
			policy:      &LicensePolicy{AllowNames: []string{"BSD"}},
			want:        "BSD",
			wantLenient: true,
		},
		{
			name:    "name not on allow list",
			in:      "BSD",
			policy:  &LicensePolicy{AllowNames: []string{"Apache 2.0"}},
			wantErr: true,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			expr, lenient, err := ParseLicenseExpressionWith(c.in, c.policy)
			if c.wantErr {
				if err == nil {
					t.Fatalf("parse %q succeeded, want error", c.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q failed: %v", c.in, err)
			}
			if string(expr) != c.want {
				t.Errorf("expression = %q, want %q", expr, c.want)
			}
			if lenient != c.wantLenient {
				t.Errorf("lenient = %v, want %v", lenient, c.wantLenient)
			}
		})
	}
}
