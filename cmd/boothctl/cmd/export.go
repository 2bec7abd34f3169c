package cmd

import (
	"github.com/spf13/cobra"

	"github.com/boothmap/boothmap/internal/export"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a document to other formats",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv <document>",
	Short: "Write the booth list as CSV",
	Long: `Write one row per booth with its number, name, power, classification,
the zones containing it, tent and light counts. The file starts with a
UTF-8 byte order mark so spreadsheet programs read names correctly.

Examples:
  boothctl export csv fair.json -o booths.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExportCSV,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCSVCmd)

	exportCSVCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	out, err := output(cmd, exportOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	return export.WriteCSV(out, doc)
}
