package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVReporter writes one row per finding. Comma defaults to ',' and is
// set to '\t' for TSV output.
type CSVReporter struct {
	Writer io.Writer
	Comma  rune
}

var csvHeader = []string{
	"region", "status", "kind", "resource_id", "resource_name",
	"action", "estimated_monthly_waste", "message",
}

// Generate writes CSV/TSV output. Failed regions appear as a row with an
// empty finding so unreachable regions are never silently omitted.
func (r *CSVReporter) Generate(data Data) error {
	w := csv.NewWriter(r.Writer)
	if r.Comma != 0 {
		w.Comma = r.Comma
	}

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rr := range data.Report.Regions {
		if len(rr.Findings) == 0 {
			row := []string{rr.Region, string(rr.Status), "", "", "", "", "", regionNote(rr)}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
			continue
		}
		for _, f := range rr.Findings {
			row := []string{
				rr.Region,
				string(rr.Status),
				string(f.Kind),
				f.ResourceID,
				f.ResourceName,
				string(f.Action),
				fmt.Sprintf("%.2f", f.EstimatedMonthlyWaste),
				f.Message,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	return w.Error()
}
