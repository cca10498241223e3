// Package netinfo resolves advisory connection diagnostics for display.
// Every lookup is best-effort: failures yield placeholder values, never
// errors, and nothing here is allowed to block a queue mutation for long.
package netinfo

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/quangtran/tubequeue/internal/constants"
	"github.com/quangtran/tubequeue/internal/domain"
)

// Resolver performs DNS and protocol resolution for queue display fields.
type Resolver struct {
	lookup func(ctx context.Context, host string) ([]string, error)
}

// NewResolver returns a Resolver backed by the default net.Resolver.
func NewResolver() *Resolver {
	r := &net.Resolver{}
	return &Resolver{
		lookup: r.LookupHost,
	}
}

// Resolve extracts the domain from rawURL and resolves its first address.
// Any failure substitutes the "Unknown" placeholder for the missing field.
func (r *Resolver) Resolve(rawURL string) domain.NetworkInfo {
	info := domain.NetworkInfo{
		Domain:   constants.Unknown,
		IP:       constants.Unknown,
		Protocol: constants.Unknown,
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return info
	}

	if u.Scheme != "" {
		info.Protocol = strings.ToUpper(u.Scheme)
	}
	info.Domain = u.Hostname()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ResolveTimeout)
	defer cancel()

	addrs, err := r.lookup(ctx, u.Hostname())
	if err == nil && len(addrs) > 0 {
		info.IP = addrs[0]
	}
	return info
}

// CheckThumbnail probes a thumbnail URL with a HEAD request and reports
// whether it is reachable. False on any failure.
func CheckThumbnail(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	client := &http.Client{Timeout: constants.ThumbnailTimeout}
	resp, err := client.Head(rawURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
