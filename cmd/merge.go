package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/StinkyLord/cyclonedx-sbom/cyclonedx"
)

var (
	flagMergeOutput   string
	flagMergeFormat   string
	flagMergeStrategy string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <input>...",
	Short: "Combine multiple documents into one",
	Long: `Merge two or more CycloneDX documents, given in priority order, into a
single consistent document.

Strategies:
  flat          — union all components by identity (purl, then cpe, then
                  group/name/version); colliding bom-refs are rewritten
  hierarchical  — nest each later document's root component beneath the
                  matching component of the documents before it

Examples:
  cyclonedx-sbom merge --output merged.json app.json lib-a.json lib-b.json
  cyclonedx-sbom merge --strategy hierarchical -o out.json top.json sub.json`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&flagMergeOutput, "output", "o", "-", "Output path (use '-' for stdout)")
	mergeCmd.Flags().StringVarP(&flagMergeFormat, "format", "f", "json", "Input and output format: json or xml")
	mergeCmd.Flags().StringVarP(&flagMergeStrategy, "strategy", "s", "flat", "Merge strategy: flat or hierarchical")
}

func runMerge(cmd *cobra.Command, args []string) error {
	format, err := cyclonedx.ParseFormat(flagMergeFormat)
	if err != nil {
		return err
	}

	var strategy cyclonedx.MergeStrategy
	switch flagMergeStrategy {
	case "flat":
		strategy = cyclonedx.MergeFlat
	case "hierarchical":
		strategy = cyclonedx.MergeHierarchical
	default:
		return fmt.Errorf("unsupported strategy %q (supported: flat, hierarchical)", flagMergeStrategy)
	}

	docs := make([]*cyclonedx.BOM, 0, len(args))
	for _, path := range args {
		bom, err := readBOM(path, format)
		if err != nil {
			return err
		}
		docs = append(docs, bom)
	}

	merged, err := cyclonedx.Merge(docs, strategy)
	if err != nil {
		return err
	}
	return writeBOM(flagMergeOutput, merged, format, merged.SpecVersion)
}
