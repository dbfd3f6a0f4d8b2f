package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultDatabaseURL is where `--update` fetches the site database from.
const DefaultDatabaseURL = "https://raw.githubusercontent.com/sleuth-osint/sleuth/master/data/sites.json"

// Placeholder is the username substitution point in URL and body templates.
const Placeholder = "{}"

// RuleKind selects the detection rule variant for a site.
type RuleKind string

const (
	// RuleStatusCode: found iff the response status equals Rule.Status.
	RuleStatusCode RuleKind = "status_code"
	// RuleBodyContains: found iff the body contains Rule.Substring (case-sensitive).
	RuleBodyContains RuleKind = "body_contains"
	// RuleBodyPattern: found iff Rule.Pattern matches anywhere in the body.
	RuleBodyPattern RuleKind = "body_pattern"
	// RuleAbsentMarker: found iff Rule.Marker does NOT occur in the body.
	// Covers sites that answer 200 for both existing and missing profiles
	// and only differ by a "user not found" string.
	RuleAbsentMarker RuleKind = "absent_marker"
)

// Rule is the per-site policy for turning a response into a verdict.
// Exactly one of Status/Substring/Pattern/Marker is meaningful, selected
// by Kind. Negate flips found/not-found for every kind except
// absent_marker, which is inherently inverted.
type Rule struct {
	Kind      RuleKind `json:"kind"`
	Status    int      `json:"status,omitempty"`
	Substring string   `json:"substring,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Marker    string   `json:"marker,omitempty"`
	Negate    bool     `json:"negate,omitempty"`
}

// NeedsBody reports whether evaluating the rule requires the response body.
func (r Rule) NeedsBody() bool {
	switch r.Kind {
	case RuleBodyContains, RuleBodyPattern, RuleAbsentMarker:
		return true
	}
	return false
}

func (r Rule) validate() error {
	switch r.Kind {
	case RuleStatusCode:
		if r.Status == 0 {
			return errors.New("status_code rule requires a status")
		}
	case RuleBodyContains:
		if r.Substring == "" {
			return errors.New("body_contains rule requires a substring")
		}
	case RuleBodyPattern:
		if r.Pattern == "" {
			return errors.New("body_pattern rule requires a pattern")
		}
	case RuleAbsentMarker:
		if r.Marker == "" {
			return errors.New("absent_marker rule requires a marker")
		}
	default:
		return errors.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

// Site is one immutable target descriptor from the database.
type Site struct {
	Name       string            `json:"name"`
	Categories []string          `json:"categories"`
	URL        string            `json:"url"`
	URLPretty  string            `json:"urlPretty,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	StripChars string            `json:"stripChars,omitempty"`
	PostBody   string            `json:"postBody,omitempty"`
	UserRegex  string            `json:"usernamePattern,omitempty"`
	Rule       Rule              `json:"rule"`
}

// CleanUsername removes the site's rejected characters from the username.
func (s Site) CleanUsername(username string) string {
	for _, c := range s.StripChars {
		username = strings.ReplaceAll(username, string(c), "")
	}
	return username
}

// ProbeURL resolves the URL to request for a username.
func (s Site) ProbeURL(username string) string {
	return strings.Replace(s.URL, Placeholder, s.CleanUsername(username), 1)
}

// DisplayURL resolves the profile URL to show the user. Some sites probe an
// API endpoint but present a nicer canonical profile URL.
func (s Site) DisplayURL(username string) string {
	tpl := s.URLPretty
	if tpl == "" {
		tpl = s.URL
	}
	return strings.Replace(tpl, Placeholder, s.CleanUsername(username), 1)
}

// RequestBody resolves the POST body template, or returns "" for GET sites.
func (s Site) RequestBody(username string) string {
	if s.PostBody == "" {
		return ""
	}
	return strings.ReplaceAll(s.PostBody, Placeholder, s.CleanUsername(username))
}

// HasCategory reports whether the site carries the category (case-insensitive).
func (s Site) HasCategory(category string) bool {
	for _, c := range s.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

func (s Site) validate() error {
	if s.Name == "" {
		return errors.New("missing site name")
	}
	if n := strings.Count(s.URL, Placeholder); n != 1 {
		return errors.Errorf("url template must contain exactly one %q, got %d", Placeholder, n)
	}
	if s.URLPretty != "" && strings.Count(s.URLPretty, Placeholder) != 1 {
		return errors.Errorf("pretty url template must contain exactly one %q", Placeholder)
	}
	return s.Rule.validate()
}

type document struct {
	Sites []Site `json:"sites"`
}

// ParseSites decodes and validates a site database document. The returned
// slice preserves document order; callers rely on it for deterministic
// scheduling and reporting.
func ParseSites(r io.Reader) ([]Site, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parse site database")
	}

	seen := make(map[string]struct{}, len(doc.Sites))
	for _, site := range doc.Sites {
		if err := site.validate(); err != nil {
			return nil, errors.Wrapf(err, "site %q", site.Name)
		}
		key := strings.ToLower(site.Name)
		if _, dup := seen[key]; dup {
			return nil, errors.Errorf("duplicate site name %q", site.Name)
		}
		seen[key] = struct{}{}
	}

	return doc.Sites, nil
}

// LoadSites reads the site database from a local JSON file.
func LoadSites(filename string) ([]Site, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open site database")
	}
	defer f.Close()
	return ParseSites(f)
}

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UpdateFromRemote downloads the database to destPath. The payload is
// validated before the existing file is replaced, so a bad download never
// clobbers a working database.
func UpdateFromRemote(ctx context.Context, client Doer, userAgent, srcURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "fetch site database")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return errors.Errorf("download failed: %s (%s)", resp.Status, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if _, err := ParseSites(strings.NewReader(string(body))); err != nil {
		return errors.Wrap(err, "downloaded database is invalid")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	tmp := destPath + ".tmp"
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, destPath)
}
