package scan

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"sleuth/internal/data"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestAggregatorRejectsDuplicates(t *testing.T) {
	sites := testDB()
	agg := NewAggregator(sites, quietLogger())

	v := Verdict{Site: sites[0], Outcome: Found, Detail: "200"}
	assert.True(t, agg.Add(v))
	assert.False(t, agg.Add(v), "second verdict for the same site must be rejected")
	assert.Equal(t, 1, agg.Len())

	rep := agg.Finalize("alice")
	assert.Equal(t, 1, rep.Summary.Found, "duplicate must not be double-counted")
}

func TestAggregatorRejectsUnselectedSite(t *testing.T) {
	sites := testDB()
	agg := NewAggregator(sites[:2], quietLogger())

	assert.False(t, agg.Add(Verdict{Site: sites[3], Outcome: Found}))
	assert.Equal(t, 0, agg.Len())
}

func TestFinalizeBackfillsCancelled(t *testing.T) {
	sites := testDB()
	agg := NewAggregator(sites, quietLogger())

	agg.Add(Verdict{Site: sites[1], Outcome: Found, Detail: "200", Elapsed: 30 * time.Millisecond})
	agg.Add(Verdict{Site: sites[2], Outcome: NotFound, Detail: "404"})

	rep := agg.Finalize("alice")

	assert.Len(t, rep.Verdicts, len(sites), "every selected site gets exactly one verdict")
	assert.Equal(t, "alice", rep.Username)

	// Report order follows selection order, not completion order.
	assert.Equal(t, []string{"GitHub", "Twitter", "Steam", "Twitch"}, names(sitesOf(rep)))

	assert.Equal(t, Failed, rep.Verdicts[0].Outcome)
	assert.Equal(t, DetailCancelled, rep.Verdicts[0].Detail)
	assert.Equal(t, Failed, rep.Verdicts[3].Outcome)
	assert.Equal(t, DetailCancelled, rep.Verdicts[3].Detail)

	assert.Equal(t, Summary{Found: 1, NotFound: 1, Failed: 2}, rep.Summary)
}

func TestReportByOutcome(t *testing.T) {
	sites := testDB()
	agg := NewAggregator(sites, quietLogger())
	agg.Add(Verdict{Site: sites[0], Outcome: Found})
	agg.Add(Verdict{Site: sites[1], Outcome: NotFound})
	agg.Add(Verdict{Site: sites[2], Outcome: Found})
	agg.Add(Verdict{Site: sites[3], Outcome: Failed, Detail: DetailTimeout})

	rep := agg.Finalize("bob")
	assert.Equal(t, []string{"GitHub", "Steam"}, names(sitesOf(Report{Verdicts: rep.ByOutcome(Found)})))
	assert.Len(t, rep.ByOutcome(Failed), 1)
}

func sitesOf(rep Report) []data.Site {
	out := make([]data.Site, 0, len(rep.Verdicts))
	for _, v := range rep.Verdicts {
		out = append(out, v.Site)
	}
	return out
}
