package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

// Client fetches daily closes and company metadata from the public Yahoo Finance endpoints.
type Client struct {
	baseURL      string
	http         *xhttp.Client
	limiter      *rate.Limiter
	maxRetryTime time.Duration
	now          func() time.Time
	l            *applogger.Logger
}

type Option func(*Client)

// WithClock overrides the clock used to truncate series to "today".
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithRetryTime caps the total time spent retrying one call.
func WithRetryTime(d time.Duration) Option {
	return func(c *Client) { c.maxRetryTime = d }
}

// New creates a rate-limited client from the yahoo config section.
func New(cfg *config.Config, l *applogger.Logger, opts ...Option) *Client {
	if l == nil {
		l = applogger.NewNop()
	}
	rps := cfg.Yahoo.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Yahoo.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &Client{
		baseURL:      cfg.Yahoo.BaseURL,
		http:         xhttp.NewClient(xhttp.WithTimeout(cfg.Yahoo.Timeout), xhttp.WithUserAgent(cfg.Yahoo.UserAgent)),
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		maxRetryTime: cfg.Yahoo.MaxRetryTime,
		now:          time.Now,
		l:            l.With("yahoo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse is the response structure from the chart API. Null closes decode to nil.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency  string `json:"currency"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Fetch downloads daily closes for the period. Null bars are dropped; the result is
// sorted, deduplicated and never extends past today. No data yields ErrDataUnavailable.
func (c *Client) Fetch(ctx context.Context, symbol string, period drepo.Period) (models.PriceSeries, error) {
	period = drepo.NormalizePeriod(string(period))
	var chart chartResponse
	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {string(period)},
		},
	}
	if err := c.do(ctx, opts, &chart); err != nil {
		if xhttp.StatusCode(err) == http.StatusNotFound {
			return models.PriceSeries{}, fmt.Errorf("%w: %s", models.ErrDataUnavailable, symbol)
		}
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %v", models.ErrDataUnavailable, symbol, err)
	}
	if e := chart.Chart.Error; e != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: %s", models.ErrDataUnavailable, symbol, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: empty chart", models.ErrDataUnavailable, symbol)
	}

	res := chart.Chart.Result[0]
	closes := res.Indicators.Quote[0].Close
	pts := make([]models.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bar, e.g. a halted session
		}
		// shift to exchange time so the bar keeps its trading date
		d := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		pts = append(pts, models.PricePoint{Date: d, Close: *closes[i]})
	}

	series := models.NewPriceSeries(symbol, pts, c.now())
	if series.Empty() {
		return models.PriceSeries{}, fmt.Errorf("%w: %s: no observations", models.ErrDataUnavailable, symbol)
	}
	c.l.Debug("fetched price series",
		applogger.Symbol(symbol),
		applogger.String("period", string(period)),
		applogger.Int("rows", series.Len()),
	)
	return series, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
				Currency  string `json:"currency"`
				MarketCap struct {
					Raw float64 `json:"raw"`
				} `json:"marketCap"`
			} `json:"price"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// Lookup returns company metadata. It never fails: any error degrades to defaults.
func (c *Client) Lookup(ctx context.Context, symbol string) models.StockInfo {
	info, err := c.lookup(ctx, symbol)
	if err != nil {
		c.l.Warn("metadata lookup failed, using defaults",
			applogger.Symbol(symbol),
			applogger.Error(err),
		)
		return models.DefaultStockInfo(symbol)
	}
	return info.FillDefaults(symbol)
}

func (c *Client) lookup(ctx context.Context, symbol string) (models.StockInfo, error) {
	var qs quoteSummaryResponse
	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, url.PathEscape(symbol)),
		QueryParams: map[string][]string{
			"modules": {"price,assetProfile"},
		},
	}
	if err := c.do(ctx, opts, &qs); err != nil {
		return models.StockInfo{}, err
	}
	if e := qs.QuoteSummary.Error; e != nil {
		return models.StockInfo{}, fmt.Errorf("%s: %s", e.Code, e.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return models.StockInfo{}, errors.New("empty quote summary")
	}
	r := qs.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	return models.StockInfo{
		Name:      name,
		Sector:    r.AssetProfile.Sector,
		Industry:  r.AssetProfile.Industry,
		MarketCap: r.Price.MarketCap.Raw,
		Currency:  r.Price.Currency,
	}, nil
}

// do waits for the limiter and retries network errors, 429 and 5xx with exponential backoff.
func (c *Client) do(ctx context.Context, opts *xhttp.RequestOptions, dest interface{}) error {
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := c.http.SendAndParse(ctx, opts, dest)
		if err == nil {
			return nil
		}
		var se *xhttp.HTTPStatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		c.l.Debug("yahoo request failed, retrying", applogger.String("url", opts.URL), applogger.Error(err))
		return err
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 250 * time.Millisecond
	strategy.MaxElapsedTime = c.maxRetryTime
	return backoff.Retry(operation, backoff.WithContext(strategy, ctx))
}

var (
	_ drepo.PriceSource = (*Client)(nil)
	_ drepo.InfoSource  = (*Client)(nil)
)
