package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/StinkyLord/cyclonedx-sbom/cyclonedx"
)

var (
	flagConvertInput     string
	flagConvertOutput    string
	flagConvertInFormat  string
	flagConvertOutFormat string
	flagConvertVersion   string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Re-serialize a document at another spec version or format",
	Long: `Parse a CycloneDX document (version auto-detected) and write it back at
the requested spec version and format.

Examples:
  cyclonedx-sbom convert --input bom.json --output bom-1.3.json --spec-version 1.3
  cyclonedx-sbom convert --input bom.json --output bom.xml --output-format xml`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&flagConvertInput, "input", "i", "", "Input document path (use '-' for stdin)")
	convertCmd.Flags().StringVarP(&flagConvertOutput, "output", "o", "-", "Output path (use '-' for stdout)")
	convertCmd.Flags().StringVar(&flagConvertInFormat, "input-format", "json", "Input format: json or xml")
	convertCmd.Flags().StringVar(&flagConvertOutFormat, "output-format", "json", "Output format: json or xml")
	convertCmd.Flags().StringVar(&flagConvertVersion, "spec-version", "", "Target spec version (default: the input's version)")
	_ = convertCmd.MarkFlagRequired("input")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inFormat, err := cyclonedx.ParseFormat(flagConvertInFormat)
	if err != nil {
		return err
	}
	outFormat, err := cyclonedx.ParseFormat(flagConvertOutFormat)
	if err != nil {
		return err
	}

	bom, err := readBOM(flagConvertInput, inFormat)
	if err != nil {
		return err
	}

	version := bom.SpecVersion
	if flagConvertVersion != "" {
		version, err = cyclonedx.ParseSpecVersion(flagConvertVersion)
		if err != nil {
			return err
		}
	}
	return writeBOM(flagConvertOutput, bom, outFormat, version)
}

// readBOM loads a document from a path or stdin, auto-detecting the spec
// version.
func readBOM(path string, format cyclonedx.Format) (*cyclonedx.BOM, error) {
	r := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	bom, err := cyclonedx.DecodeAny(r, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	return bom, nil
}

// writeBOM serializes a document to a path or stdout.
func writeBOM(path string, bom *cyclonedx.BOM, format cyclonedx.Format, version cyclonedx.SpecVersion) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("cannot create %q: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	if err := cyclonedx.Encode(w, bom, format, version); err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	return nil
}
