package vcs

import (
	"errors"
	"regexp"
	"strings"

	giturls "github.com/whilp/git-urls"
)

// ErrNoEligibleRemote is returned when every remote was filtered out.
var ErrNoEligibleRemote = errors.New("no eligible git remote")

// NormalizeURL turns any git remote URL (https, ssh, scp-like, file) into host/path form.
// Unparsable input is returned unchanged.
func NormalizeURL(raw string) string {
	u, err := giturls.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}

	return u.Hostname() + "/" + strings.TrimSuffix(strings.TrimPrefix(u.Path, "/"), ".git")
}

// IsForbidden reports whether the URL, raw or normalized, matches any pattern.
func IsForbidden(url string, patterns []*regexp.Regexp) bool {
	normalized := NormalizeURL(url)

	for _, pattern := range patterns {
		if pattern.MatchString(url) || pattern.MatchString(normalized) {
			return true
		}
	}

	return false
}

// EligibleRemotes drops remotes whose URL matches a forbidden pattern.
func EligibleRemotes(remotes []Remote, forbidden []*regexp.Regexp) []Remote {
	eligible := make([]Remote, 0, len(remotes))

	for _, remote := range remotes {
		if IsForbidden(remote.URL, forbidden) {
			continue
		}

		eligible = append(eligible, remote)
	}

	return eligible
}
