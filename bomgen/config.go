package bomgen

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/StinkyLord/cyclonedx-sbom/cyclonedx"
)

// Config is the generator configuration, usually loaded from a YAML file next
// to the build manifest.
type Config struct {
	// SpecVersion selects the output schema revision ("1.3", "1.4", "1.5").
	SpecVersion string `yaml:"spec_version"`
	// Format selects "json" or "xml".
	Format string `yaml:"format"`
	// All includes transitive dependencies; when false only packages the
	// subject depends on directly are emitted.
	All bool `yaml:"all"`
	// Validate runs self-validation before output is written.
	Validate bool `yaml:"validate"`
	// Tool overrides the authoring-tool entry in metadata.
	Tool ToolInfo `yaml:"tool"`
	// LicenseAllowNames lists non-SPDX license names accepted with a warning
	// instead of an error.
	LicenseAllowNames []string `yaml:"license_allow_names"`
	// AcceptSlashLicenses accepts deprecated "MIT/Apache-2.0" strings.
	AcceptSlashLicenses bool `yaml:"accept_slash_licenses"`
}

// DefaultConfig targets the latest spec version as JSON, direct and
// transitive dependencies included, with self-validation on.
func DefaultConfig() Config {
	return Config{
		SpecVersion: cyclonedx.Latest.String(),
		Format:      "json",
		All:         true,
		Validate:    true,
	}
}

// LoadConfig reads a YAML configuration, applying defaults for anything left
// unset.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse generator config: %w", err)
	}
	if _, err := cyclonedx.ParseSpecVersion(cfg.SpecVersion); err != nil {
		return Config{}, err
	}
	if _, err := cyclonedx.ParseFormat(cfg.Format); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Version returns the configured spec version.
func (c Config) Version() cyclonedx.SpecVersion {
	v, err := cyclonedx.ParseSpecVersion(c.SpecVersion)
	if err != nil {
		return cyclonedx.Latest
	}
	return v
}

// WireFormat returns the configured serialization format.
func (c Config) WireFormat() cyclonedx.Format {
	f, err := cyclonedx.ParseFormat(c.Format)
	if err != nil {
		return cyclonedx.FormatJSON
	}
	return f
}

// Policy returns the license policy implied by the configuration, or nil when
// fully strict.
func (c Config) Policy() *cyclonedx.LicensePolicy {
	if !c.AcceptSlashLicenses && len(c.LicenseAllowNames) == 0 {
		return nil
	}
	return &cyclonedx.LicensePolicy{
		AcceptSlashSeparated: c.AcceptSlashLicenses,
		AllowNames:           c.LicenseAllowNames,
	}
}
