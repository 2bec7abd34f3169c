// Package export writes booth maps out as CSV booth lists and PNG images.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/boothmap/boothmap/internal/document"
)

// CSVHeader is the column order of the booth list.
var CSVHeader = []string{"no", "name", "power", "classification", "category", "tent", "light"}

// utf8BOM lets spreadsheet programs detect the encoding.
const utf8BOM = "\ufeff"

// WriteCSV writes one row per booth. The category column lists every zone,
// alert zones included, whose polygon contains the booth centre.
func WriteCSV(w io.Writer, doc *document.Document) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range doc.Rects {
		var zones []string
		for _, c := range doc.Categories {
			if c.Contains(r.Center) {
				zones = append(zones, c.Name)
			}
		}
		row := []string{
			string(r.No),
			document.CleanName(r.Name),
			string(r.Power),
			r.Classification,
			strings.Join(zones, ", "),
			string(r.Tent),
			string(r.Light),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
