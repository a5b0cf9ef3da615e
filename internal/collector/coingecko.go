package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"CoinCast/internal/model"
)

// DefaultCoinGeckoURL is the public CoinGecko API root.
const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoOptions configures a CoinGeckoFetcher. Zero values take defaults.
type CoinGeckoOptions struct {
	BaseURL        string
	APIKey         string
	VsCurrency     string
	ProxyURL       string
	Timeout        time.Duration
	RequestsPerMin int
	MaxRetryTime   time.Duration
}

// CoinGeckoFetcher implements Fetcher using the CoinGecko market_chart API.
// Requests are rate limited and retried with exponential backoff.
type CoinGeckoFetcher struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	Client     *http.Client
	Limiter    *rate.Limiter

	maxRetryTime time.Duration
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(opts CoinGeckoOptions) *CoinGeckoFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultCoinGeckoURL
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerMin == 0 {
		opts.RequestsPerMin = 10
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = time.Minute
	}

	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		} else {
			log.Warn().Err(err).Msg("invalid proxy url ignored")
		}
	}

	return &CoinGeckoFetcher{
		BaseURL:    opts.BaseURL,
		APIKey:     opts.APIKey,
		VsCurrency: opts.VsCurrency,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		Limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMin)), 1),
		maxRetryTime: opts.MaxRetryTime,
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// marketChart is the response of /coins/{id}/market_chart. Each entry is
// [unix millis, value].
type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coingecko: status %d, body: %s", e.StatusCode, e.Body)
}

// retryable reports whether the status is worth retrying.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (f *CoinGeckoFetcher) FetchPriceHistory(ctx context.Context, assetID string, windowDays int) ([]model.PricePoint, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("coingecko: window must be positive, got %d", windowDays)
	}
	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d",
		f.BaseURL, url.PathEscape(assetID), url.QueryEscape(f.VsCurrency), windowDays)

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko decode: %w", err)
	}
	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("coingecko: no data returned for %s", assetID)
	}
	return chart.points(), nil
}

// get performs a rate-limited GET, retrying transient failures.
func (f *CoinGeckoFetcher) get(ctx context.Context, u string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := f.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if f.APIKey != "" {
			req.Header.Set("x-cg-demo-api-key", f.APIKey)
		}

		resp, err := f.Client.Do(req)
		if err != nil {
			return fmt.Errorf("coingecko fetch: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("coingecko read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
			if retryable(resp.StatusCode) {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}
		body = b
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = f.maxRetryTime
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("coingecko request failed")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(strategy, ctx), notify); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return nil, statusErr
		}
		return nil, err
	}
	return body, nil
}

// points joins prices with volumes and market caps sharing a timestamp.
func (c *marketChart) points() []model.PricePoint {
	volumes := make(map[int64]float64, len(c.TotalVolumes))
	for _, v := range c.TotalVolumes {
		volumes[int64(v[0])] = v[1]
	}
	caps := make(map[int64]float64, len(c.MarketCaps))
	for _, v := range c.MarketCaps {
		caps[int64(v[0])] = v[1]
	}

	out := make([]model.PricePoint, 0, len(c.Prices))
	for _, p := range c.Prices {
		ms := int64(p[0])
		pt := model.PricePoint{Time: time.UnixMilli(ms).UTC(), Price: p[1]}
		if v, ok := volumes[ms]; ok {
			pt.Volume = &v
		}
		if mc, ok := caps[ms]; ok {
			pt.MarketCap = &mc
		}
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
