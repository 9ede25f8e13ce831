package service

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"ImmichDrop/config"
	"ImmichDrop/utils"

	"golang.org/x/net/context"
	"golang.org/x/time/rate"
)

// PlatformPattern labels a source URL for display and cookie lookup.
type PlatformPattern struct {
	Platform string
	Pattern  *regexp.Regexp
}

// SupportedPatterns maps well-known media hosts to platform labels.
var SupportedPatterns = []PlatformPattern{
	{"instagram", regexp.MustCompile(`(?i)(www\.)?instagram\.com/`)},
	{"tiktok", regexp.MustCompile(`(?i)(www\.|vm\.|vt\.)?tiktok\.com/`)},
	{"youtube", regexp.MustCompile(`(?i)(www\.)?(youtube\.com|youtu\.be)/`)},
	{"twitter", regexp.MustCompile(`(?i)(www\.|mobile\.)?(twitter\.com|x\.com)/`)},
	{"pinterest", regexp.MustCompile(`(?i)(www\.)?pinterest\.[a-z.]+/`)},
	{"reddit", regexp.MustCompile(`(?i)(www\.|old\.)?reddit\.com/`)},
}

// IdentifyPlatform returns the platform label for a URL, or "direct".
func IdentifyPlatform(rawURL string) string {
	for _, p := range SupportedPatterns {
		if p.Pattern.MatchString(rawURL) {
			return p.Platform
		}
	}
	return "direct"
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

func isLocalHostname(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" || strings.HasSuffix(host, ".local") ||
		strings.HasSuffix(host, ".internal") || !strings.Contains(host, ".")
}

func hostAllowed(host string) bool {
	allowed := config.AppConfig.DownloadAllowedHosts
	if len(allowed) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, entry := range allowed {
		entry = strings.ToLower(entry)
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}

// ValidateDownloadSourceURL rejects source URLs that would let a client
// aim the relay at internal services.
func ValidateDownloadSourceURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("only http and https urls are supported")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("url has no host")
	}
	if !hostAllowed(host) {
		return fmt.Errorf("host %q is not in the allowlist", host)
	}
	if config.AppConfig.DownloadAllowPrivate {
		return nil
	}
	if isLocalHostname(host) {
		return fmt.Errorf("host %q resolves locally", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return fmt.Errorf("ip %s is not routable from this relay", ip)
		}
		return nil
	}
	addrs, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", host, err)
	}
	for _, ip := range addrs {
		if isBlockedIP(ip) {
			return fmt.Errorf("host %q resolves to a blocked address", host)
		}
	}
	return nil
}

// DownloadResult is one fetched media payload.
type DownloadResult struct {
	Data        []byte
	Filename    string
	ContentType string
	Platform    string
	CreatedAt   time.Time
}

// Fetcher turns a source URL into bytes. The shipped implementation
// performs a direct HTTP download; platform scrapers are out of scope.
type Fetcher interface {
	FetchURL(ctx context.Context, rawURL string) (*DownloadResult, error)
}

// DefaultFetcher is the process-wide fetcher.
var DefaultFetcher Fetcher

// HTTPFetcher downloads direct media URLs with rate limiting, a size
// cap, and stored platform cookies.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher builds a fetcher from the loaded configuration.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: config.AppConfig.DownloadHTTPTimeout},
		limiter: rate.NewLimiter(rate.Limit(config.AppConfig.DownloadRate), config.AppConfig.DownloadBurst),
	}
}

// FetchURL downloads one URL after validation.
func (f *HTTPFetcher) FetchURL(ctx context.Context, rawURL string) (*DownloadResult, error) {
	if err := ValidateDownloadSourceURL(rawURL); err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; immich-drop-relay)")
	platform := IdentifyPlatform(rawURL)
	if cookie, _ := GetPlatformCookie(ctx, platform); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	maxBytes := config.AppConfig.DownloadMaxBytes
	var reader io.Reader = resp.Body
	if maxBytes > 0 {
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("download exceeds the %d byte cap", maxBytes)
	}

	result := &DownloadResult{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Platform:    platform,
		CreatedAt:   time.Now().UTC(),
	}
	if t, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		result.CreatedAt = t.UTC()
	}
	result.Filename = downloadFilename(resp, rawURL, data)
	return result, nil
}

func downloadFilename(resp *http.Response, rawURL string, data []byte) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := utils.SanitizeFilename(params["filename"]); name != "file" {
				return name
			}
		}
	}
	name := "file"
	if u, err := url.Parse(rawURL); err == nil {
		name = utils.SanitizeFilename(path.Base(u.Path))
	}
	if !strings.Contains(name, ".") {
		if ext := DetectFileType(data); ext != "" {
			name = name + "." + ext
		}
	}
	return name
}

// FetchOutcome pairs a source URL with its download result or error.
type FetchOutcome struct {
	URL    string
	Result *DownloadResult
	Err    error
}

// FetchAll downloads URLs with bounded concurrency and returns outcomes
// in input order. One bad URL never sinks its siblings.
func FetchAll(ctx context.Context, urls []string) []FetchOutcome {
	outcomes := make([]FetchOutcome, len(urls))
	sem := make(chan struct{}, config.AppConfig.MaxConcurrent)
	var wg sync.WaitGroup
	for i, rawURL := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := DefaultFetcher.FetchURL(ctx, rawURL)
			outcomes[i] = FetchOutcome{URL: rawURL, Result: res, Err: err}
		}(i, rawURL)
	}
	wg.Wait()
	return outcomes
}
