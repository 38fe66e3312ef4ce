package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const toolVersion = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "cyclonedx-sbom",
	Short: "CycloneDX SBOM toolkit",
	Long: `cyclonedx-sbom reads, writes, validates, and merges CycloneDX Software
Bill of Materials documents across spec versions 1.3, 1.4, and 1.5, in both
JSON and XML.

Commands:
  convert    — re-serialize a document at another version or format
  validate   — check a document against its declared spec version
  merge      — combine multiple documents under a merge strategy
  generate   — build a document from a resolved dependency graph`,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(generateCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
