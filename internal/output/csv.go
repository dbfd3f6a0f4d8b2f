package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"sleuth/internal/scan"
)

var csvHeader = []string{"username", "site", "category", "url", "outcome", "detail", "elapsed_ms"}

// WriteCSV exports reports as CSV rows. Found rows are always written;
// not-found and failed rows only when includeAll is set.
func WriteCSV(w io.Writer, reports []scan.Report, includeAll bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, rep := range reports {
		for _, v := range rep.Verdicts {
			if v.Outcome != scan.Found && !includeAll {
				continue
			}
			link := v.Link
			if link == "" {
				link = v.Site.DisplayURL(rep.Username)
			}
			row := []string{
				rep.Username,
				v.Site.Name,
				categories(v.Site),
				link,
				v.Outcome.String(),
				v.Detail,
				strconv.FormatInt(v.Elapsed.Milliseconds(), 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
