package webfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"shopmcp/internal/model"
)

const (
	fetchTimeout = 15 * time.Second
	maxBodyBytes = 4 << 20
)

// IsSafeURL classifies a URL before any outbound fetch. Only http/https with
// a non-empty, non-localhost host pass. A literal IP host is rejected when it
// is private, loopback, link-local, multicast or unspecified. DNS names are
// allowed without resolution; this blocks literal-IP SSRF only.
func IsSafeURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	if host == "" || host == "localhost" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
			ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
			return false
		}
		if isReservedIPv4(ip) {
			return false
		}
	}
	return true
}

// isReservedIPv4 covers the IANA reserved ranges the net package has no
// predicate for: 240.0.0.0/4 (reserved for future use) and 0.0.0.0/8
// ("this network").
func isReservedIPv4(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	return v4[0] >= 240 || v4[0] == 0
}

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style.*?>.*?</style>`)
	tagRe         = regexp.MustCompile(`(?is)<[^>]+>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// StripHTML reduces markup to plain text for model input. Best effort, not a
// sanitizer: the output is never reflected as markup.
func StripHTML(text string) string {
	text = scriptBlockRe.ReplaceAllString(text, " ")
	text = styleBlockRe.ReplaceAllString(text, " ")
	text = tagRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Fetcher retrieves remote pages with a bounded timeout and returns their
// plain-text reduction. Callers must run IsSafeURL first; FetchText enforces
// it again.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{httpClient: &http.Client{Timeout: fetchTimeout}}
}

func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if !IsSafeURL(rawURL) {
		return "", &model.CollaboratorError{
			Op:      "webfetch.get",
			Code:    "url_not_allowed",
			Message: "URL not allowed.",
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &model.CollaboratorError{
			Op:      "webfetch.get",
			Code:    "bad_request",
			Message: "invalid URL",
			Cause:   err,
		}
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", &model.CollaboratorError{
			Op:        "webfetch.get",
			Code:      "fetch_failed",
			Message:   "failed to fetch url",
			Retryable: true,
			Cause:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.CollaboratorError{
			Op:         "webfetch.get",
			Code:       "fetch_failed",
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Retryable:  resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &model.CollaboratorError{
			Op:        "webfetch.get",
			Code:      "fetch_failed",
			Message:   "failed to read response body",
			Retryable: true,
			Cause:     err,
		}
	}

	return StripHTML(string(body)), nil
}
