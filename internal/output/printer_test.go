package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"sleuth/internal/data"
	"sleuth/internal/scan"
)

func verdict(name string, outcome scan.Outcome, detail, link string) scan.Verdict {
	return scan.Verdict{
		Site:    data.Site{Name: name, Categories: []string{"test"}, URL: "https://x/{}"},
		Outcome: outcome,
		Detail:  detail,
		Link:    link,
		Elapsed: 12 * time.Millisecond,
	}
}

func TestPrinterLiveLines(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	p := NewPrinter(&buf, false, false, false)
	p.Verdict(verdict("GitHub", scan.Found, "200", "https://x/alice"))
	p.Verdict(verdict("Steam", scan.NotFound, "404", ""))
	p.Verdict(verdict("Broken", scan.Failed, scan.DetailTimeout, ""))
	p.Close()

	out := buf.String()
	assert.Contains(t, out, "GitHub")
	assert.Contains(t, out, "https://x/alice")
	assert.NotContains(t, out, "Steam", "not-found lines are hidden by default")
	assert.NotContains(t, out, "Broken", "failed lines are hidden by default")
}

func TestPrinterShowFlags(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	p := NewPrinter(&buf, false, true, true)
	p.Verdict(verdict("Steam", scan.NotFound, "404", ""))
	p.Verdict(verdict("Broken", scan.Failed, scan.DetailTimeout, ""))
	p.Close()

	out := buf.String()
	assert.Contains(t, out, "Steam")
	assert.Contains(t, out, "404")
	assert.Contains(t, out, "Broken")
	assert.Contains(t, out, scan.DetailTimeout)
}

func TestPrinterQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, true, true)
	for i := 0; i < 10; i++ {
		p.Verdict(verdict("GitHub", scan.Found, "200", "https://x/alice"))
	}
	p.Close()

	assert.Empty(t, buf.String())
}

func TestPrinterCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false, false, false)
	p.Verdict(verdict("GitHub", scan.Found, "200", "https://x/alice"))
	p.Close()
	p.Close()

	assert.Equal(t, 1, strings.Count(buf.String(), "GitHub"))
}
