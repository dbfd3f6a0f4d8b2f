package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (Options, []string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts, usernames, err := Parse(args, &stdout, &stderr)
	require.NoError(t, err)
	return opts, usernames
}

func TestParseDefaults(t *testing.T) {
	opts, usernames := parse(t, "alice")

	assert.Equal(t, []string{"alice"}, usernames)
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 100, opts.Workers)
	assert.Equal(t, "sites.json", opts.DataFile)
	assert.Zero(t, opts.RPS)
	assert.False(t, opts.Quiet)
	assert.False(t, opts.ShowNotFound)
}

func TestParseFilters(t *testing.T) {
	opts, usernames := parse(t, "-s", "GitHub, Steam", "-c", "gaming,social", "alice", "bob")

	assert.Equal(t, []string{"alice", "bob"}, usernames)
	assert.Equal(t, []string{"GitHub", "Steam"}, opts.Sites)
	assert.Equal(t, []string{"gaming", "social"}, opts.Categories)

	// Explicit site filters imply you want to see misses and errors.
	assert.True(t, opts.ShowNotFound)
	assert.True(t, opts.ShowFailed)
}

func TestParseInvalidTimeoutResets(t *testing.T) {
	opts, _ := parse(t, "-t", "-3", "alice")
	assert.Equal(t, 15*time.Second, opts.Timeout)
}

func TestParseOutputFlags(t *testing.T) {
	opts, _ := parse(t, "-q", "-o", "out.csv", "-O", "alice")
	assert.True(t, opts.Quiet)
	assert.Equal(t, "out.csv", opts.OutputCSV)
	assert.True(t, opts.OutputAll)
}

func TestParseHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, _, err := Parse([]string{"--help"}, &stdout, &stderr)
	assert.ErrorIs(t, err, ErrHelp)
	assert.Contains(t, stdout.String(), "usage:")
}

func TestParseListModes(t *testing.T) {
	opts, usernames := parse(t, "--list-sites")
	assert.True(t, opts.ListSites)
	assert.Empty(t, usernames)

	opts, _ = parse(t, "-C")
	assert.True(t, opts.ListCategories)
}
