package scan

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"sleuth/internal/data"
	"sleuth/internal/httpx"
)

// Scanner drives concurrent probing of a username across sites. One scanner
// is safe to reuse across runs and usernames; it carries the HTTP client,
// the detection engine and its compiled-pattern caches.
type Scanner struct {
	client  httpx.Doer
	cfg     Config
	engine  *Engine
	limiter *rate.Limiter
	log     *logrus.Logger

	// Cache compiled per-site username patterns.
	userRegexCache    sync.Map // site name -> *regexp2.Regexp
	userRegexErrCache sync.Map // site name -> error
}

func NewScanner(client httpx.Doer, cfg Config, log *logrus.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = httpx.DefaultUserAgent
	}
	if log == nil {
		log = logrus.New()
	}

	s := &Scanner{
		client: client,
		cfg:    cfg,
		engine: &Engine{},
		log:    log,
	}
	if cfg.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)
	}
	return s
}

// Run probes every site for the username, bounded by cfg.Workers concurrent
// requests, and streams each verdict to onVerdict as it completes (in
// completion order). The returned report covers every site exactly once, in
// the order given, even when ctx is cancelled mid-run: unfinished sites get
// Failed/cancelled verdicts.
//
// An error is returned only when the run cannot begin at all; per-site
// failures are absorbed into verdicts.
func (s *Scanner) Run(ctx context.Context, username string, sites []data.Site, onVerdict func(Verdict)) (Report, error) {
	if onVerdict == nil {
		return Report{}, fmt.Errorf("onVerdict callback is nil")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return Report{}, fmt.Errorf("empty username")
	}
	if len(sites) == 0 {
		return Report{}, fmt.Errorf("no sites selected")
	}

	agg := NewAggregator(sites, s.log)

	workers := s.cfg.Workers
	if workers > len(sites) {
		workers = len(sites)
	}

	jobs := make(chan data.Site)
	verdicts := make(chan Verdict, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		// Each worker owns at most one in-flight probe.
		go func() {
			defer wg.Done()
			for site := range jobs {
				verdicts <- s.probe(ctx, username, site)
			}
		}()
	}

	go func() {
		defer close(verdicts)
		wg.Wait()
	}()

	// Admit tasks in selection order; stop admitting on cancellation.
	go func() {
		defer close(jobs)
		for _, site := range sites {
			select {
			case <-ctx.Done():
				return
			case jobs <- site:
			}
		}
	}()

	for v := range verdicts {
		if agg.Add(v) {
			onVerdict(v)
		}
	}

	return agg.Finalize(username), nil
}

// probe executes exactly one task: one request, one verdict. It never
// touches shared state; the run loop owns the aggregator.
func (s *Scanner) probe(ctx context.Context, username string, site data.Site) Verdict {
	start := time.Now()
	v := Verdict{Site: site}

	done := func(o Outcome, detail string) Verdict {
		v.Outcome = o
		v.Detail = detail
		v.Elapsed = time.Since(start)
		return v
	}

	// Optional per-site username gate: skip the request entirely when the
	// site cannot have an account under this name.
	if site.UserRegex != "" {
		re, err := s.getUserRegex(site)
		if err != nil {
			return done(Failed, DetailBadPattern)
		}
		ok, err := re.MatchString(username)
		if err != nil {
			return done(Failed, DetailBadPattern)
		}
		if !ok {
			return done(NotFound, "username rejected by site pattern")
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return done(Failed, ClassifyErr(err))
		}
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	method := http.MethodGet
	var body io.Reader
	if b := site.RequestBody(username); b != "" {
		method = http.MethodPost
		body = strings.NewReader(b)
	}

	req, err := httpx.NewRequest(pctx, method, site.ProbeURL(username), body, s.cfg.UserAgent)
	if err != nil {
		return done(s.engine.Evaluate(site, Response{Err: err}))
	}
	if method == http.MethodPost && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, val := range site.Headers {
		req.Header.Set(k, val)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return done(s.engine.Evaluate(site, Response{Err: err}))
	}
	defer resp.Body.Close()

	bodyText := ""
	if site.Rule.NeedsBody() {
		bodyText, err = s.readBody(resp.Body)
		if err != nil {
			return done(s.engine.Evaluate(site, Response{Err: err}))
		}
	}

	outcome, detail := s.engine.Evaluate(site, Response{StatusCode: resp.StatusCode, Body: bodyText})
	if outcome == Found {
		v.Link = site.DisplayURL(username)
	}
	return done(outcome, detail)
}

func (s *Scanner) getUserRegex(site data.Site) (*regexp2.Regexp, error) {
	if v, ok := s.userRegexCache.Load(site.Name); ok {
		return v.(*regexp2.Regexp), nil
	}
	if v, ok := s.userRegexErrCache.Load(site.Name); ok {
		return nil, v.(error)
	}

	re, err := regexp2.Compile(site.UserRegex, 0)
	if err != nil {
		s.userRegexErrCache.Store(site.Name, err)
		return nil, err
	}
	s.userRegexCache.Store(site.Name, re)
	return re, nil
}

func (s *Scanner) readBody(r io.Reader) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
