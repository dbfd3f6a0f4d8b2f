package scan

import (
	"github.com/sirupsen/logrus"

	"sleuth/internal/data"
)

// Aggregator owns the authoritative report for one run. It accepts each
// verdict exactly once, keyed by site name; a duplicate or a verdict for an
// unselected site is a scheduler bug and is rejected and logged, never
// double-counted.
//
// Not safe for concurrent use: the scanner's single consumption loop is the
// only writer, which is the run's one point of shared-state mutation.
type Aggregator struct {
	order []string
	sites map[string]data.Site
	got   map[string]Verdict
	log   *logrus.Logger
}

func NewAggregator(sites []data.Site, log *logrus.Logger) *Aggregator {
	a := &Aggregator{
		order: make([]string, 0, len(sites)),
		sites: make(map[string]data.Site, len(sites)),
		got:   make(map[string]Verdict, len(sites)),
		log:   log,
	}
	for _, s := range sites {
		a.order = append(a.order, s.Name)
		a.sites[s.Name] = s
	}
	return a
}

// Add records a verdict. It reports whether the verdict was accepted.
func (a *Aggregator) Add(v Verdict) bool {
	if _, selected := a.sites[v.Site.Name]; !selected {
		if a.log != nil {
			a.log.WithField("site", v.Site.Name).Error("internal fault: verdict for unselected site")
		}
		return false
	}
	if _, dup := a.got[v.Site.Name]; dup {
		if a.log != nil {
			a.log.WithField("site", v.Site.Name).Error("internal fault: duplicate verdict")
		}
		return false
	}
	a.got[v.Site.Name] = v
	return true
}

// Len returns the number of verdicts collected so far.
func (a *Aggregator) Len() int {
	return len(a.got)
}

// Finalize builds the report in site selection order. Sites that never
// produced a verdict (run cancelled before they started or finished) get a
// synthetic Failed/cancelled entry, so the report always covers every
// selected site.
func (a *Aggregator) Finalize(username string) Report {
	rep := Report{
		Username: username,
		Verdicts: make([]Verdict, 0, len(a.order)),
	}

	for _, name := range a.order {
		v, ok := a.got[name]
		if !ok {
			v = Verdict{
				Site:    a.sites[name],
				Outcome: Failed,
				Detail:  DetailCancelled,
			}
		}
		rep.Verdicts = append(rep.Verdicts, v)

		switch v.Outcome {
		case Found:
			rep.Summary.Found++
		case NotFound:
			rep.Summary.NotFound++
		default:
			rep.Summary.Failed++
		}
	}

	return rep
}
