package cyclonedx

// spdxLicenseIDs is the subset of the SPDX license list observed in real
// package ecosystems. Identifiers are matched case-insensitively on parse but
// preserved as written by the caller; LicenseRef- and DocumentRef- prefixed
// identifiers are always accepted without a table lookup.
var spdxLicenseIDs = map[string]bool{
	"0BSD":                 true,
	"AFL-3.0":              true,
	"AGPL-3.0":             true,
	"AGPL-3.0-only":        true,
	"AGPL-3.0-or-later":    true,
	"Apache-1.1":           true,
	"Apache-2.0":           true,
	"Artistic-2.0":         true,
	"BSD-1-Clause":         true,
	"BSD-2-Clause":         true,
	"BSD-3-Clause":         true,
	"BSD-3-Clause-Clear":   true,
	"BSD-4-Clause":         true,
	"BSL-1.0":              true,
	"CC-BY-3.0":            true,
	"CC-BY-4.0":            true,
	"CC-BY-SA-4.0":         true,
	"CC0-1.0":              true,
	"CDDL-1.0":             true,
	"CDDL-1.1":             true,
	"EPL-1.0":              true,
	"EPL-2.0":              true,
	"EUPL-1.2":             true,
	"GFDL-1.3-only":        true,
	"GFDL-1.3-or-later":    true,
	"GPL-2.0":              true,
	"GPL-2.0-only":         true,
	"GPL-2.0-or-later":     true,
	"GPL-3.0":              true,
	"GPL-3.0-only":         true,
	"GPL-3.0-or-later":     true,
	"ISC":                  true,
	"LGPL-2.0-only":        true,
	"LGPL-2.0-or-later":    true,
	"LGPL-2.1":             true,
	"LGPL-2.1-only":        true,
	"LGPL-2.1-or-later":    true,
	"LGPL-3.0":             true,
	"LGPL-3.0-only":        true,
	"LGPL-3.0-or-later":    true,
	"MIT":                  true,
	"MIT-0":                true,
	"MPL-1.1":              true,
	"MPL-2.0":              true,
	"MS-PL":                true,
	"MS-RL":                true,
	"NCSA":                 true,
	"OFL-1.1":              true,
	"OpenSSL":              true,
	"PostgreSQL":           true,
	"PSF-2.0":              true,
	"Python-2.0":           true,
	"Ruby":                 true,
	"SSPL-1.0":             true,
	"Unicode-DFS-2016":     true,
	"Unlicense":            true,
	"UPL-1.0":              true,
	"Vim":                  true,
	"W3C":                  true,
	"WTFPL":                true,
	"X11":                  true,
	"Zlib":                 true,
	"zlib-acknowledgement": true,
	"ZPL-2.1":              true,
	"BlueOak-1.0.0":        true,
	"CC-PDDC":              true,
	"ODbL-1.0":             true,
	"OSL-3.0":              true,
	"NPOSL-3.0":            true,
	"EUPL-1.1":             true,
	"ECL-2.0":              true,
	"Beerware":             true,
	"curl":                 true,
	"JSON":                 true,
	"Latex2e":              true,
	"Libpng":               true,
	"libtiff":              true,
	"IJG":                  true,
	"HPND":                 true,
	"ICU":                  true,
	"Info-ZIP":             true,
	"NTP":                  true,
	"SMLNJ":                true,
	"TCL":                  true,
	"Xnet":                 true,
	"bzip2-1.0.6":          true,
	"Bitstream-Vera":       true,
	"CECILL-2.1":           true,
	"Fair":                 true,
	"FTL":                  true,
	"MirOS":                true,
	"MulanPSL-2.0":         true,
	"NAIST-2003":           true,
	"OLDAP-2.8":            true,
	"Sendmail":             true,
	"SGI-B-2.0":            true,
	"Sleepycat":            true,
	"SunPro":               true,
	"Unicode-3.0":          true,
	"Unicode-DFS-2015":     true,
	"W3C-20150513":         true,
	"Apache-1.0":           true,
	"APSL-2.0":             true,
	"CPL-1.0":              true,
	"IPL-1.0":              true,
	"CPAL-1.0":             true,
	"EFL-2.0":              true,
	"Entessa":              true,
	"Frameworx-1.0":        true,
	"LiLiQ-R-1.1":          true,
	"LPL-1.02":             true,
	"Motosoto":             true,
	"Multics":              true,
	"Naumen":               true,
	"NGPL":                 true,
	"Nokia":                true,
	"OCLC-2.0":             true,
	"OGTSL":                true,
	"PHP-3.01":             true,
	"QPL-1.0":              true,
	"RPL-1.5":              true,
	"RPSL-1.0":             true,
	"RSCPL":                true,
	"SimPL-2.0":            true,
	"SISSL":                true,
	"SPL-1.0":              true,
	"VSL-1.0":              true,
	"Watcom-1.0":           true,
	"Xerox":                true,
	"Zend-2.0":             true,
	"Zimbra-1.3":           true,
	"ZPL-2.0":              true,
	"Zed":                  true,
	"OLDAP-2.2.2":          true,
	"Linux-OpenIB":         true,
}

// spdxExceptionIDs lists SPDX license exceptions usable after WITH.
var spdxExceptionIDs = map[string]bool{
	"389-exception":                  true,
	"Autoconf-exception-2.0":         true,
	"Autoconf-exception-3.0":         true,
	"Bison-exception-2.2":            true,
	"Classpath-exception-2.0":        true,
	"FLTK-exception":                 true,
	"GCC-exception-2.0":              true,
	"GCC-exception-3.1":              true,
	"LGPL-3.0-linking-exception":     true,
	"Libtool-exception":              true,
	"Linux-syscall-note":             true,
	"LLVM-exception":                 true,
	"mif-exception":                  true,
	"OCaml-LGPL-linking-exception":   true,
	"OCCT-exception-1.0":             true,
	"OpenJDK-assembly-exception-1.0": true,
	"openvpn-openssl-exception":      true,
	"Qt-GPL-exception-1.0":           true,
	"Swift-exception":                true,
	"u-boot-exception-2.0":           true,
	"Universal-FOSS-exception-1.0":   true,
	"WxWindows-exception-3.1":        true,
}

// spdxIDsLower is a case-folded view of spdxLicenseIDs mapping back to the
// canonical spelling.
var spdxIDsLower = func() map[string]string {
	m := make(map[string]string, len(spdxLicenseIDs))
	for id := range spdxLicenseIDs {
		m[lowerASCII(id)] = id
	}
	return m
}()

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
