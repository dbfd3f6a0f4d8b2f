package scan

import (
	"time"

	"sleuth/internal/data"
)

// Outcome of probing one site for one username.
type Outcome uint8

const (
	NotFound Outcome = iota
	Found
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Failure categories carried in Verdict.Detail. Per-probe failures are
// absorbed into verdicts; these strings are the only way they surface.
const (
	DetailTimeout          = "timeout"
	DetailCancelled        = "cancelled"
	DetailTooManyRedirects = "too-many-redirects"
	DetailBadURL           = "bad-url"
	DetailBadPattern       = "bad-pattern"
	DetailDNS              = "dns"
	DetailConnection       = "connection"
	DetailTLS              = "tls"
	DetailNetwork          = "network"
	DetailUnsupportedRule  = "unsupported-rule"
)

// Verdict is the immutable result of one probe. For non-failed outcomes
// Detail holds the HTTP status; for failures it holds the category above.
type Verdict struct {
	Site    data.Site
	Outcome Outcome
	Detail  string
	Link    string // resolved profile URL when found
	Elapsed time.Duration
}

// Config is the read-only per-run configuration of the scanner.
type Config struct {
	Workers      int           // max probes in flight
	Timeout      time.Duration // per-probe deadline
	RPS          int           // optional global requests-per-second cap (0 = unlimited)
	UserAgent    string
	MaxBodyBytes int64
}

// Summary holds per-outcome counts of a finished run.
type Summary struct {
	Found    int
	NotFound int
	Failed   int
}

func (s Summary) Total() int {
	return s.Found + s.NotFound + s.Failed
}

// Report is the finalized result of a run: one verdict per selected site,
// ordered by site selection order regardless of completion order.
type Report struct {
	Username string
	Verdicts []Verdict
	Summary  Summary
}

// ByOutcome returns the verdicts with the given outcome, in report order.
func (r Report) ByOutcome(o Outcome) []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Outcome == o {
			out = append(out, v)
		}
	}
	return out
}
