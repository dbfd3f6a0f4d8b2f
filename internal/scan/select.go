package scan

import (
	"strings"

	"sleuth/internal/data"
)

// SelectSites returns the subset of sites to probe, preserving load order.
//
// An empty name filter and empty category filter selects everything. When
// both filters are present a site is included if EITHER matches (union
// semantics: filters widen the selection). Name matching is exact and
// case-insensitive; category matching is case-insensitive against any of
// the site's categories.
//
// Name-filter entries that match no loaded site are returned as warnings
// so the caller can report them without aborting the run.
func SelectSites(all []data.Site, names, categories []string) (selected []data.Site, unknown []string) {
	if len(names) == 0 && len(categories) == 0 {
		return all, nil
	}

	wantName := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			wantName[strings.ToLower(n)] = false
		}
	}

	for _, site := range all {
		include := false

		if _, ok := wantName[strings.ToLower(site.Name)]; ok {
			wantName[strings.ToLower(site.Name)] = true
			include = true
		}

		if !include {
			for _, c := range categories {
				if site.HasCategory(strings.TrimSpace(c)) {
					include = true
					break
				}
			}
		}

		if include {
			selected = append(selected, site)
		}
	}

	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if matched := wantName[strings.ToLower(n)]; !matched {
			unknown = append(unknown, n)
		}
	}

	return selected, unknown
}
