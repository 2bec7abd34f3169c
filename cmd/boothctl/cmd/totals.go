package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/boothmap/boothmap/internal/aggregate"
)

var (
	totalsFormat string
	totalsOutput string
)

var totalsCmd = &cobra.Command{
	Use:   "totals <document>",
	Short: "Show power totals per zone",
	Long: `Aggregate booth power by zone, count booths per classification and list
alert zones that contain a booth.

Examples:
  boothctl totals fair.json
  boothctl totals --format json fair.json
  boothctl totals --format msgpack -o totals.bin fair.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTotals,
}

func init() {
	rootCmd.AddCommand(totalsCmd)

	totalsCmd.Flags().StringVarP(&totalsFormat, "format", "f", "text", "output format: text, json, yaml or msgpack")
	totalsCmd.Flags().StringVarP(&totalsOutput, "output", "o", "", "output file (default stdout)")
}

func runTotals(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	rep := aggregate.Compute(doc.Rects, doc.Categories)

	out, err := output(cmd, totalsOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	return writeReport(out, rep, totalsFormat)
}

func writeReport(w io.Writer, rep aggregate.Report, format string) error {
	switch format {
	case "text":
		return writeReportText(w, rep)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rep)
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(rep)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeReportText(w io.Writer, rep aggregate.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tTOTAL\tLIMIT\t")
	for _, z := range rep.Zones {
		flag := ""
		if z.OverLimit() {
			flag = "OVER"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", z.Name, z.Total, z.Limit, flag)
	}
	fmt.Fprintf(tw, "(none)\t%d\t\t\n", rep.Uncategorized)
	fmt.Fprintf(tw, "TOTAL\t%d\t\t\n", rep.Total)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Classifications) > 0 {
		fmt.Fprintln(w)
		for _, name := range sortedKeys(rep.Classifications) {
			fmt.Fprintf(w, "%s: %d\n", name, rep.Classifications[name])
		}
	}
	if len(rep.Alerts) > 0 {
		fmt.Fprintln(w)
	}
	for _, a := range rep.Alerts {
		fmt.Fprintf(w, "ALERT: booth inside %s\n", a)
	}
	return nil
}
