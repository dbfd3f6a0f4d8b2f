package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"sleuth/internal/data"
	"sleuth/internal/scan"
)

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func categories(s data.Site) string {
	return strings.Join(s.Categories, ", ")
}

// WriteTables renders the found-accounts table, plus the not-found and
// failed tables when requested.
func WriteTables(w io.Writer, rep scan.Report, showNotFound, showFailed bool) {
	found := rep.ByOutcome(scan.Found)
	if len(found) == 0 {
		fmt.Fprintf(w, "\n[%s] No accounts found.\n", color.HiYellowString("-"))
	} else {
		fmt.Fprintf(w, "\n%s\n", color.HiGreenString("Found %d accounts", len(found)))
		table := newTable(w)
		table.SetHeader([]string{"Site", "Category", "URL", "Time"})
		for _, v := range found {
			table.Append([]string{v.Site.Name, categories(v.Site), v.Link, v.Elapsed.Round(time.Millisecond).String()})
		}
		table.Render()
	}

	if showNotFound {
		if notFound := rep.ByOutcome(scan.NotFound); len(notFound) > 0 {
			fmt.Fprintf(w, "\n%s\n", color.HiYellowString("Not found on %d sites", len(notFound)))
			table := newTable(w)
			table.SetHeader([]string{"Site", "Category", "Status"})
			for _, v := range notFound {
				table.Append([]string{v.Site.Name, categories(v.Site), v.Detail})
			}
			table.Render()
		}
	}

	if showFailed {
		if failed := rep.ByOutcome(scan.Failed); len(failed) > 0 {
			fmt.Fprintf(w, "\n%s\n", color.HiRedString("Failed on %d sites", len(failed)))
			table := newTable(w)
			table.SetHeader([]string{"Site", "Category", "Error"})
			for _, v := range failed {
				table.Append([]string{v.Site.Name, categories(v.Site), v.Detail})
			}
			table.Render()
		}
	}
}

// WriteSummary renders the final run summary: counts, success rate and
// found accounts grouped by category.
func WriteSummary(w io.Writer, rep scan.Report) {
	sum := rep.Summary

	fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint("━━━━━━━━━━━━━ Summary ━━━━━━━━━━━━━"))
	fmt.Fprintf(w, "Username: %q\n", rep.Username)
	fmt.Fprintf(w, "Total sites checked: %d\n\n", sum.Total())
	fmt.Fprintf(w, "[%s] Found: %d\n", color.HiGreenString("+"), sum.Found)
	fmt.Fprintf(w, "[%s] Not found: %d\n", color.HiYellowString("-"), sum.NotFound)
	fmt.Fprintf(w, "[%s] Failed: %d\n", color.HiRedString("!"), sum.Failed)

	reachable := sum.Total() - sum.Failed
	if reachable > 0 {
		fmt.Fprintf(w, "\nSuccess rate: %d%% (%d/%d)\n", 100*sum.Found/reachable, sum.Found, reachable)
	}

	byCategory := map[string]int{}
	for _, v := range rep.ByOutcome(scan.Found) {
		for _, c := range v.Site.Categories {
			byCategory[c]++
		}
	}
	if len(byCategory) > 0 {
		fmt.Fprintf(w, "\nFound by category:\n")
		cats := make([]string, 0, len(byCategory))
		for c := range byCategory {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool {
			if byCategory[cats[i]] != byCategory[cats[j]] {
				return byCategory[cats[i]] > byCategory[cats[j]]
			}
			return cats[i] < cats[j]
		})
		table := newTable(w)
		for _, c := range cats {
			table.Append([]string{c, fmt.Sprintf("%d", byCategory[c])})
		}
		table.Render()
	}
}

// WriteSiteList renders the loaded database sorted by site name.
func WriteSiteList(w io.Writer, sites []data.Site) {
	sorted := make([]data.Site, len(sites))
	copy(sorted, sites)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	table := newTable(w)
	table.SetHeader([]string{"Site", "Category"})
	for _, s := range sorted {
		table.Append([]string{s.Name, categories(s)})
	}
	table.Render()
	fmt.Fprintf(w, "\nTotal: %d sites\n", len(sites))
}

// WriteCategoryList renders all categories with their site counts.
func WriteCategoryList(w io.Writer, sites []data.Site) {
	counts := map[string]int{}
	for _, s := range sites {
		for _, c := range s.Categories {
			counts[strings.ToLower(c)]++
		}
	}

	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	table := newTable(w)
	table.SetHeader([]string{"Category", "Sites"})
	for _, c := range cats {
		table.Append([]string{c, fmt.Sprintf("%d", counts[c])})
	}
	table.Render()
}
