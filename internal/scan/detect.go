package scan

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/dlclark/regexp2"

	"sleuth/internal/data"
	"sleuth/internal/httpx"
)

// Response is the raw probe observation handed to the detection engine:
// either a transport error, or a status plus (possibly empty) body text.
type Response struct {
	StatusCode int
	Body       string
	Err        error
}

// Engine classifies probe responses against site rules. Classification is
// pure: identical (site, response) input yields an identical verdict. The
// engine only memoizes compiled body patterns, keyed by site name like the
// username-regex cache.
type Engine struct {
	regexCache    sync.Map // site name -> *regexp2.Regexp
	regexErrCache sync.Map // site name -> error
}

// Evaluate turns one probe observation into an outcome and detail string.
// Transport errors always classify as Failed with a failure category;
// otherwise the site's rule variant decides between Found and NotFound
// and the detail carries the HTTP status.
func (e *Engine) Evaluate(site data.Site, resp Response) (Outcome, string) {
	if resp.Err != nil {
		return Failed, ClassifyErr(resp.Err)
	}

	status := strconv.Itoa(resp.StatusCode)

	var hit bool
	switch site.Rule.Kind {
	case data.RuleStatusCode:
		hit = resp.StatusCode == site.Rule.Status

	case data.RuleBodyContains:
		hit = strings.Contains(resp.Body, site.Rule.Substring)

	case data.RuleBodyPattern:
		re, err := e.getRegex(site)
		if err != nil {
			return Failed, DetailBadPattern
		}
		ok, err := re.MatchString(resp.Body)
		if err != nil {
			return Failed, DetailBadPattern
		}
		hit = ok

	case data.RuleAbsentMarker:
		// Inherently inverted: the marker is a "no such user" string.
		hit = !strings.Contains(resp.Body, site.Rule.Marker)
		if hit {
			return Found, status
		}
		return NotFound, status

	default:
		return Failed, DetailUnsupportedRule
	}

	if site.Rule.Negate {
		hit = !hit
	}
	if hit {
		return Found, status
	}
	return NotFound, status
}

func (e *Engine) getRegex(site data.Site) (*regexp2.Regexp, error) {
	if v, ok := e.regexCache.Load(site.Name); ok {
		return v.(*regexp2.Regexp), nil
	}
	if v, ok := e.regexErrCache.Load(site.Name); ok {
		return nil, v.(error)
	}

	re, err := regexp2.Compile(site.Rule.Pattern, 0)
	if err != nil {
		e.regexErrCache.Store(site.Name, err)
		return nil, err
	}
	e.regexCache.Store(site.Name, re)
	return re, nil
}

// ClassifyErr maps a transport error to a failure category.
func ClassifyErr(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrTooManyRedirects):
		return DetailTooManyRedirects
	case errors.Is(err, context.DeadlineExceeded):
		return DetailTimeout
	case errors.Is(err, context.Canceled):
		return DetailCancelled
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Op == "parse" {
		return DetailBadURL
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return DetailDNS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return DetailTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return DetailConnection
	}

	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &recErr) {
		return DetailTLS
	}

	return DetailNetwork
}
