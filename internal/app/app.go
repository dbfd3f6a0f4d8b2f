package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"sleuth/internal/cli"
	"sleuth/internal/data"
	"sleuth/internal/httpx"
	"sleuth/internal/output"
	"sleuth/internal/scan"
	"sleuth/internal/update"
)

const Version = "0.4.0"

func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, usernames, err := cli.Parse(args, stdout, stderr)
	if err != nil {
		if errors.Is(err, cli.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	if opts.Version {
		fmt.Fprintf(stdout, "sleuth %s\n", Version)
		return 0
	}

	color.NoColor = opts.NoColor

	logger := logrus.New()
	logger.SetOutput(stderr)
	if opts.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = httpx.DefaultUserAgent
	}

	httpClient, err := httpx.NewClient(httpx.ClientConfig{ProxyURL: opts.ProxyURL})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize HTTP client: %v\n", err)
		return 1
	}

	if opts.CheckUpdate {
		if latest, newer, err := update.Check(ctx, httpClient, Version); err != nil {
			logger.WithError(err).Warn("release check failed")
		} else if newer {
			fmt.Fprintf(color.Output, "[%s] A newer release is available: %s (current %s)\n",
				color.HiYellowString("!"), latest, Version)
		} else {
			fmt.Fprintf(stdout, "sleuth %s is up to date\n", Version)
		}
	}

	sites, err := loadDatabase(ctx, httpClient, opts, userAgent, logger)
	if err != nil {
		fmt.Fprintf(stderr, "database error: %v\n", err)
		return 1
	}
	logger.WithField("sites", len(sites)).Debug("site database loaded")

	if opts.ListSites {
		output.WriteSiteList(stdout, sites)
		return 0
	}
	if opts.ListCategories {
		output.WriteCategoryList(stdout, sites)
		return 0
	}

	if len(usernames) == 0 {
		fmt.Fprintln(stderr, "no usernames provided; see --help")
		return 2
	}

	selected, unknown := scan.SelectSites(sites, opts.Sites, opts.Categories)
	for _, name := range unknown {
		fmt.Fprintf(color.Output, "[%s] %s: %s\n",
			color.HiYellowString("!"), color.HiYellowString("unknown site ignored"), name)
	}
	if len(selected) == 0 {
		fmt.Fprintln(stderr, "no sites selected")
		return 1
	}

	scanner := scan.NewScanner(httpClient, scan.Config{
		Workers:   opts.Workers,
		Timeout:   opts.Timeout,
		RPS:       opts.RPS,
		UserAgent: userAgent,
	}, logger)

	var reports []scan.Report
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}

		if !opts.Quiet {
			fmt.Fprintf(color.Output, "\nSearching for %s across %d sites:\n",
				color.HiGreenString("%q", username), len(selected))
		}

		printer := output.NewPrinter(stdout, opts.Quiet, opts.ShowNotFound, opts.ShowFailed)
		rep, err := scanner.Run(ctx, username, selected, printer.Verdict)
		printer.Close()
		if err != nil {
			fmt.Fprintf(stderr, "scan error for %q: %v\n", username, err)
			return 1
		}

		if ctx.Err() != nil {
			fmt.Fprintf(color.Output, "\n[%s] interrupted; reporting partial results\n",
				color.HiYellowString("!"))
		}

		if !opts.Quiet {
			output.WriteTables(stdout, rep, opts.ShowNotFound, opts.ShowFailed)
		}
		output.WriteSummary(stdout, rep)

		reports = append(reports, rep)

		if ctx.Err() != nil {
			break
		}
	}

	if opts.OutputCSV != "" && len(reports) > 0 {
		if err := exportCSV(opts.OutputCSV, reports, opts.OutputAll); err != nil {
			fmt.Fprintf(stderr, "failed to export CSV: %v\n", err)
			return 1
		}
		fmt.Fprintf(color.Output, "\n[%s] Results exported to %s\n",
			color.HiGreenString("+"), opts.OutputCSV)
	}

	return 0
}

func loadDatabase(ctx context.Context, client httpx.Doer, opts cli.Options, userAgent string, logger *logrus.Logger) ([]data.Site, error) {
	_, statErr := os.Stat(opts.DataFile)
	fileExists := statErr == nil

	if opts.UpdateBeforeRun || !fileExists {
		fmt.Fprintf(color.Output, "[%s] Updating site database: %s",
			color.HiBlueString("!"), color.HiYellowString("downloading..."))

		if err := data.UpdateFromRemote(ctx, client, userAgent, data.DefaultDatabaseURL, opts.DataFile); err != nil {
			if !fileExists {
				fmt.Fprintf(color.Output, " [%s]\n", color.HiRedString("failed"))
				return nil, fmt.Errorf("failed to update database and no existing database found: %w", err)
			}
			// Fall back to the existing database.
			fmt.Fprintf(color.Output, " [%s]\n", color.HiRedString("failed"))
			logger.WithError(err).Warn("database update failed; using existing file")
		} else {
			fmt.Fprintf(color.Output, " [%s]\n", color.GreenString("done"))
		}
	}

	return data.LoadSites(opts.DataFile)
}

func exportCSV(path string, reports []scan.Report, includeAll bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := output.WriteCSV(f, reports, includeAll); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
