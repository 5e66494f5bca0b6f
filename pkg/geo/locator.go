// Package geo resolves the country of a signup from the client address.
package geo

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultLookupURL = "https://ipwho.is"
	DefaultTimeout   = 5 * time.Second
	DefaultCountry   = "Unknown"
)

// CountryLocator finds the country an address belongs to
type CountryLocator interface {
	Country(ctx context.Context, ip string) string
}

// Locator looks addresses up on an ipwho.is compatible service
type Locator struct {
	client         *resty.Client
	defaultCountry string
}

type lookupResponse struct {
	Success bool   `json:"success"`
	Country string `json:"country"`
	Message string `json:"message"`
}

// NewLocator creates a locator. Every lookup is bounded by timeout.
func NewLocator(lookupURL string, timeout time.Duration, defaultCountry string) *Locator {
	if lookupURL == "" {
		lookupURL = DefaultLookupURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if defaultCountry == "" {
		defaultCountry = DefaultCountry
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(lookupURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Locator{client: client, defaultCountry: defaultCountry}
}

// Country returns the country name for ip. Lookup failures, private
// addresses and unknown answers all yield the default country.
func (l *Locator) Country(ctx context.Context, ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return l.defaultCountry
	}

	var result lookupResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetPathParam("ip", parsed.String()).
		SetResult(&result).
		Get("/{ip}")
	if err != nil {
		slog.Warn("Country lookup failed", "ip", ip, "error", err)
		return l.defaultCountry
	}
	if resp.IsError() || !result.Success || result.Country == "" {
		slog.Warn("Country lookup unsuccessful", "ip", ip, "status", resp.StatusCode(), "message", result.Message)
		return l.defaultCountry
	}
	return result.Country
}

// ClientIP returns the host part of the request's remote address. Put
// chi's RealIP middleware in front when running behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
