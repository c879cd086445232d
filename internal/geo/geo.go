package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Unknown is the fallback location label when lookup is impossible.
const Unknown = "unknown"

// Resolver resolves a rough location label for an IP address. Lookups
// are best-effort: implementations return Unknown instead of failing.
type Resolver interface {
	Lookup(ctx context.Context, ip string) string
}

// Client resolves locations against an ip-api style JSON endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a geolocation client. The timeout bounds the whole
// lookup so a slow collaborator can never stall comment submission.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "geo").Logger(),
	}
}

type lookupResponse struct {
	Status     string `json:"status"`
	Country    string `json:"country"`
	RegionName string `json:"regionName"`
	City       string `json:"city"`
}

// Lookup returns a human-readable location for the given IP, or Unknown
// on any parse, network or upstream error.
func (c *Client) Lookup(ctx context.Context, ip string) string {
	if !isRoutable(ip) {
		return Unknown
	}

	url := fmt.Sprintf("%s/%s?fields=status,country,regionName,city", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unknown
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("ip", ip).Msg("Geolocation lookup failed")
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Unknown
	}
	if body.Status != "success" {
		return Unknown
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{body.Country, body.RegionName, body.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return Unknown
	}
	return strings.Join(parts, " ")
}

// isRoutable filters addresses that can never resolve (loopback,
// private ranges, garbage input).
func isRoutable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified()
}

// Fixed is a Resolver that always returns the same label. Used where no
// external lookup should happen.
type Fixed string

// Lookup implements Resolver.
func (f Fixed) Lookup(_ context.Context, _ string) string {
	return string(f)
}
