// Package update checks whether a newer release is published.
package update

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/mcuadros/go-version"
	"github.com/pkg/errors"

	"sleuth/internal/httpx"
)

var releaseURL = "https://api.github.com/repos/sleuth-osint/sleuth/releases/latest"

type release struct {
	TagName string `json:"tag_name"`
}

// Check fetches the latest published release tag and reports whether it is
// newer than current. Network failures are returned to the caller; the run
// itself never depends on this.
func Check(ctx context.Context, client httpx.Doer, current string) (latest string, newer bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return "", false, errors.Wrap(err, "fetch latest release")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, errors.Errorf("release check failed: %s", resp.Status)
	}

	var rel release
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&rel); err != nil {
		return "", false, errors.Wrap(err, "decode release")
	}

	latest = strings.TrimPrefix(rel.TagName, "v")
	if latest == "" {
		return "", false, errors.New("release has no tag name")
	}

	cur := version.Normalize(strings.TrimPrefix(current, "v"))
	newer = version.Compare(cur, version.Normalize(latest), "<")
	return latest, newer, nil
}
