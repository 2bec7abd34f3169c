package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boothmap/boothmap/internal/aggregate"
	"github.com/boothmap/boothmap/internal/document"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document>",
	Short: "Check a document for broken shapes",
	Long: `Decode a document and report shapes below their vertex floor, booths with
a non-positive size, duplicate booth numbers and non-numeric power values.
Zones over their power limit and occupied alert zones are reported as
warnings. Exits non-zero when a problem is found.

Examples:
  boothctl validate fair.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	problems := document.Validate(doc)
	for _, p := range problems {
		fmt.Fprintf(w, "error: %s\n", p)
	}

	rep := aggregate.Compute(doc.Rects, doc.Categories)
	for _, z := range rep.OverLimit() {
		fmt.Fprintf(w, "warning: zone %s draws %d of %d\n", z.Name, z.Total, z.Limit)
	}
	for _, a := range rep.Alerts {
		fmt.Fprintf(w, "warning: booth inside alert zone %s\n", a)
	}

	if verbose {
		fmt.Fprintf(w, "%d booths, %d labels, %d zones, %d polylines\n",
			len(doc.Rects), len(doc.Texts), len(doc.Categories), len(doc.Polygons))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %d problems", args[0], len(problems))
	}
	return nil
}
