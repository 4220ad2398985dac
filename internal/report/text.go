package report

import (
	"fmt"
	"io"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// TextReporter writes a human-readable summary grouped by region.
type TextReporter struct {
	Writer io.Writer
}

// Generate writes text output.
func (r *TextReporter) Generate(data Data) error {
	w := r.Writer

	fmt.Fprintf(w, "%s %s — scanned %d regions at %s\n\n",
		data.Tool, data.Version, data.Summary.RegionsScanned,
		data.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	for _, rr := range data.Report.Regions {
		fmt.Fprintf(w, "%s [%s]\n", rr.Region, rr.Status)

		for _, fe := range rr.Errors {
			fmt.Fprintf(w, "  ! %s: %s\n", fe.Family, fe.Message)
		}

		if len(rr.Findings) == 0 {
			fmt.Fprint(w, regionNoteLine(rr))
			continue
		}
		for _, f := range rr.Findings {
			fmt.Fprintf(w, "  - [%s] %s", f.Kind, f.ResourceID)
			if f.ResourceName != "" {
				fmt.Fprintf(w, " (%s)", f.ResourceName)
			}
			fmt.Fprintf(w, ": %s", f.Message)
			if f.EstimatedMonthlyWaste > 0 {
				fmt.Fprintf(w, " (~$%.2f/month)", f.EstimatedMonthlyWaste)
			}
			fmt.Fprintf(w, " [%s]\n", f.Action)
			for _, warn := range f.Warnings {
				fmt.Fprintf(w, "      warning: %s\n", warn)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d findings, ~$%.2f/month estimated waste\n",
		data.Summary.TotalFindings, data.Summary.TotalMonthlyWaste)
	if len(data.Summary.FailedRegions) > 0 {
		fmt.Fprintf(w, "Failed regions: %v\n", data.Summary.FailedRegions)
	}
	return nil
}

func regionNote(rr model.RegionResult) string {
	if rr.Status == model.StatusFailed {
		return "region scan failed"
	}
	return "no findings"
}

func regionNoteLine(rr model.RegionResult) string {
	return fmt.Sprintf("  (%s)\n", regionNote(rr))
}
