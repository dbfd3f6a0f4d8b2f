package output

import (
	"io"
	"log"
	"sync"

	"github.com/fatih/color"

	"sleuth/internal/scan"
)

// Printer renders the live verdict stream, one line per completed probe.
// Rendering happens on its own goroutine behind a buffered channel so a slow
// terminal never backpressures the scheduler.
//
// Filtering matches the CLI surface: NotFound lines only with showNotFound,
// Failed lines only with showFailed, nothing at all in quiet mode.
type Printer struct {
	quiet        bool
	showNotFound bool
	showFailed   bool

	logger *log.Logger
	ch     chan scan.Verdict
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPrinter(stdout io.Writer, quiet, showNotFound, showFailed bool) *Printer {
	p := &Printer{
		quiet:        quiet,
		showNotFound: showNotFound,
		showFailed:   showFailed,
		logger:       log.New(stdout, "", 0),
		ch:           make(chan scan.Verdict, 512),
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for v := range p.ch {
			p.render(v)
		}
	}()

	return p
}

// Verdict enqueues one verdict for rendering. Safe to pass as the scanner's
// onVerdict callback.
func (p *Printer) Verdict(v scan.Verdict) {
	p.ch <- v
}

// Close flushes pending lines and stops the render goroutine.
func (p *Printer) Close() {
	p.once.Do(func() {
		close(p.ch)
		p.wg.Wait()
	})
}

func (p *Printer) render(v scan.Verdict) {
	if p.quiet {
		return
	}

	switch v.Outcome {
	case scan.Found:
		p.logger.Printf("[%s] %s: %s", color.HiGreenString("+"), color.HiWhiteString(v.Site.Name), v.Link)

	case scan.NotFound:
		if p.showNotFound {
			p.logger.Printf("[%s] %s: %s (%s)", color.HiRedString("-"), v.Site.Name, color.HiYellowString("Not found"), v.Detail)
		}

	case scan.Failed:
		if p.showFailed {
			p.logger.Printf("[%s] %s: %s: %s", color.HiRedString("!"), v.Site.Name, color.HiMagentaString("ERROR"), color.HiRedString(v.Detail))
		}
	}
}
