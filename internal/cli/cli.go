package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrHelp = errors.New("help requested")

type Options struct {
	Sites      []string
	Categories []string

	Timeout time.Duration
	Workers int
	RPS     int

	OutputCSV string
	OutputAll bool

	ShowNotFound bool
	ShowFailed   bool
	Quiet        bool
	NoColor      bool
	Debug        bool

	ListSites      bool
	ListCategories bool

	DataFile        string
	UpdateBeforeRun bool
	CheckUpdate     bool
	Version         bool

	ProxyURL  string
	UserAgent string
}

const usageText = `
usage:
  sleuth [flags] USERNAME [USERNAMES...]
  sleuth --list-sites | --list-categories

positional arguments:
  USERNAMES             one or more usernames to search for

flags:
  -h, --help            show this help message and exit
  -N, --not-found       show sites where the username wasn't found
  -f, --failed          show sites that errored (timeout, connection error, ...)
  -q, --quiet           no live output, only the final summary
  -O, --output-all      include not-found and failed rows in the CSV export
  -S, --list-sites      list all available sites and exit
  -C, --list-categories list all available categories and exit
  --update              refresh the site database before the run
  --check-update        check whether a newer release is available
  --no-color            disable colored output
  --debug               verbose diagnostics on stderr
  --version             print version and exit

options:
  -s, --sites S1,S2     specific sites to check, comma-separated (default: all)
  -c, --categories C1,C2
                        categories to check, comma-separated (default: all)
  -t, --timeout SECONDS per-request timeout (default: 15)
  -w, --workers N       max concurrent requests (default: 100)
  -o, --output PATH     export results to a CSV file
  --rps N               global requests-per-second cap (default: unlimited)
  --database PATH       site database file (default: sites.json)
  --proxy URL           socks5 proxy for outbound requests
  --user-agent UA       override the User-Agent header
`

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Parse(args []string, stdout, stderr io.Writer) (Options, []string, error) {
	var opts Options
	var (
		help          bool
		sitesCSV      string
		categoriesCSV string
		timeoutS      int
	)

	fs := flag.NewFlagSet("sleuth", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		_, _ = fmt.Fprint(stdout, usageText)
	}

	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")

	fs.BoolVar(&opts.ShowNotFound, "N", false, "show not-found sites")
	fs.BoolVar(&opts.ShowNotFound, "not-found", false, "show not-found sites")
	fs.BoolVar(&opts.ShowFailed, "f", false, "show failed sites")
	fs.BoolVar(&opts.ShowFailed, "failed", false, "show failed sites")
	fs.BoolVar(&opts.Quiet, "q", false, "only show summary")
	fs.BoolVar(&opts.Quiet, "quiet", false, "only show summary")
	fs.BoolVar(&opts.OutputAll, "O", false, "include not-found and failed in CSV export")
	fs.BoolVar(&opts.OutputAll, "output-all", false, "include not-found and failed in CSV export")
	fs.BoolVar(&opts.ListSites, "S", false, "list all available sites")
	fs.BoolVar(&opts.ListSites, "list-sites", false, "list all available sites")
	fs.BoolVar(&opts.ListCategories, "C", false, "list all available categories")
	fs.BoolVar(&opts.ListCategories, "list-categories", false, "list all available categories")
	fs.BoolVar(&opts.UpdateBeforeRun, "update", false, "update site database before run")
	fs.BoolVar(&opts.CheckUpdate, "check-update", false, "check for a newer release")
	fs.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&opts.Debug, "debug", false, "verbose diagnostics")
	fs.BoolVar(&opts.Version, "version", false, "print version")

	fs.StringVar(&sitesCSV, "s", "", "comma-separated site list")
	fs.StringVar(&sitesCSV, "sites", "", "comma-separated site list")
	fs.StringVar(&categoriesCSV, "c", "", "comma-separated category list")
	fs.StringVar(&categoriesCSV, "categories", "", "comma-separated category list")
	fs.IntVar(&timeoutS, "t", 15, "request timeout in seconds")
	fs.IntVar(&timeoutS, "timeout", 15, "request timeout in seconds")
	fs.IntVar(&opts.Workers, "w", 100, "max concurrent requests")
	fs.IntVar(&opts.Workers, "workers", 100, "max concurrent requests")
	fs.IntVar(&opts.RPS, "rps", 0, "requests-per-second cap")
	fs.StringVar(&opts.OutputCSV, "o", "", "CSV output path")
	fs.StringVar(&opts.OutputCSV, "output", "", "CSV output path")
	fs.StringVar(&opts.DataFile, "database", "sites.json", "site database path")
	fs.StringVar(&opts.ProxyURL, "proxy", "", "socks5 proxy URL")
	fs.StringVar(&opts.UserAgent, "user-agent", "", "User-Agent override")

	if err := fs.Parse(args); err != nil {
		return Options{}, nil, err
	}
	if help {
		fs.Usage()
		return Options{}, nil, ErrHelp
	}

	if timeoutS <= 0 {
		fmt.Fprintln(stderr, "invalid timeout value; using default of 15 seconds")
		timeoutS = 15
	}
	opts.Timeout = time.Duration(timeoutS) * time.Second

	if opts.Workers <= 0 {
		opts.Workers = 100
	}
	if opts.RPS < 0 {
		opts.RPS = 0
	}

	opts.Sites = splitCSV(sitesCSV)
	opts.Categories = splitCSV(categoriesCSV)

	// When probing specific sites, misses and errors are what you came for.
	if len(opts.Sites) > 0 {
		opts.ShowNotFound = true
		opts.ShowFailed = true
	}

	return opts, fs.Args(), nil
}
