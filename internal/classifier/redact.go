package classifier

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/runnerr0/memoir/internal/activity"
)

// PrivateTitle replaces the title of a redacted page.
const PrivateTitle = "(private)"

// Redactor hides pages from denylisted sites. A domain rule matches the
// host itself and every subdomain; a regex rule matches either the host or
// the full URL.
type Redactor struct {
	domains []string
	regexes []*regexp.Regexp
}

// NewRedactor compiles the given rules. An invalid regex is an error.
func NewRedactor(domains, patterns []string) (*Redactor, error) {
	r := &Redactor{}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			r.domains = append(r.domains, d)
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile denylist regex %q: %w", p, err)
		}
		r.regexes = append(r.regexes, re)
	}
	return r, nil
}

// Matches reports whether rawURL falls under a denylist rule.
func (r *Redactor) Matches(rawURL string) bool {
	if r == nil {
		return false
	}

	host := hostOf(rawURL)
	for _, d := range r.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	for _, re := range r.regexes {
		if re.MatchString(host) || re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// Redact returns the page as it may be shown to the classifier: denylisted
// pages keep only their host and lose their title.
func (r *Redactor) Redact(p activity.VisitedPage) (activity.VisitedPage, bool) {
	if !r.Matches(p.URL) {
		return p, false
	}
	p.URL = hostOf(p.URL)
	p.Title = PrivateTitle
	return p, true
}

// hostOf extracts the lower-cased host of rawURL, tolerating URLs without a
// scheme such as "go.dev/doc".
func hostOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "//" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
