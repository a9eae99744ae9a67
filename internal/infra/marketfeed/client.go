package marketfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/prostak402/csmrashireniye/internal/domain"
	"github.com/prostak402/csmrashireniye/internal/infra"
)

// Client fetches the two reference-market listings over HTTP. A shared rate
// limiter paces both endpoints so a forced refresh cannot burst past the
// upstream's tolerance.
type Client struct {
	pricesURL  string
	ordersURL  string
	apiKey     func() string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ domain.MarketFeed = (*Client)(nil)

// NewClient creates a feed client. apiKey is read per request so a key changed
// at runtime takes effect without a restart; nil means unauthenticated. rps
// bounds outbound requests per second.
func NewClient(pricesURL, ordersURL string, apiKey func() string, rps float64) *Client {
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		pricesURL: pricesURL,
		ordersURL: ordersURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// BestOffers fetches the lowest-ask listing keyed by display name.
func (c *Client) BestOffers(ctx context.Context) (map[string]decimal.Decimal, error) {
	body, err := c.fetch(ctx, c.pricesURL)
	if err != nil {
		return nil, domain.NewFeedError("best_offers", "fetch", err)
	}
	out, _, err := ParseBestOffers(body)
	if err != nil {
		return nil, &domain.FeedError{Feed: "best_offers", Op: "decode", Err: err}
	}
	return out, nil
}

// BuyOrders fetches the highest-bid listing keyed by display name.
func (c *Client) BuyOrders(ctx context.Context) (map[string]decimal.Decimal, error) {
	body, err := c.fetch(ctx, c.ordersURL)
	if err != nil {
		return nil, domain.NewFeedError("buy_orders", "fetch", err)
	}
	out, _, err := ParseBuyOrders(body)
	if err != nil {
		return nil, &domain.FeedError{Feed: "buy_orders", Op: "decode", Err: err}
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := rawURL
	if c.apiKey != nil {
		if key := c.apiKey(); key != "" {
			u, err := url.Parse(rawURL)
			if err != nil {
				return nil, err
			}
			q := u.Query()
			q.Set("key", key)
			u.RawQuery = q.Encode()
			reqURL = u.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
