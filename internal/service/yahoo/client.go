package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"StockPredictor/internal/domain/models"
	domrepo "StockPredictor/internal/domain/repository"
	xhttp "StockPredictor/pkg/http"
	applogger "StockPredictor/pkg/logger"
	xutil "StockPredictor/pkg/util"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultYears     = 5
)

// ErrNoRows is the absent reason when the upstream answered without usable bars.
var ErrNoRows = errors.New("no rows returned")

// Client reads OHLCV history from the v8 chart API.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *xhttp.Client
	logger    *applogger.Logger
}

type Option func(*Client)

// WithBaseURL points the client at another chart host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a chart client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		timeout:   10 * time.Second,
		logger:    applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(
		xhttp.WithTimeout(c.timeout),
		xhttp.WithHeader("User-Agent", c.userAgent),
		xhttp.WithHeader("Accept", "application/json"),
	)
	return c
}

// Fetch returns the trailing window of bars for q. Any upstream failure yields an absent lookup.
func (c *Client) Fetch(ctx context.Context, q domrepo.Query) models.Lookup {
	ticker := models.NormalizeTicker(q.Ticker)
	iv := q.Interval
	if !domrepo.IsValidInterval(iv) {
		return models.Absent(fmt.Errorf("unsupported interval %q", iv))
	}
	years := q.Years
	if years <= 0 {
		years = DefaultYears
		q.Years = years
	}
	rng := xutil.YearsRange(q.Window())

	start := time.Now()
	res, err := c.chart(ctx, ticker, rng, string(iv))
	if err != nil {
		c.logger.Warn("chart fetch failed",
			applogger.String("ticker", ticker),
			applogger.String("interval", string(iv)),
			applogger.String("range", rng),
			applogger.Error(err),
		)
		return models.Absent(err)
	}

	s := toSeries(ticker, iv, res)
	if s.Len() == 0 {
		c.logger.Debug("chart returned no rows", applogger.String("ticker", ticker), applogger.String("interval", string(iv)))
		return models.Absent(ErrNoRows)
	}
	s.FetchedAt = time.Now().UTC()
	c.logger.Debug("chart fetched",
		applogger.String("ticker", ticker),
		applogger.String("interval", string(iv)),
		applogger.Int("bars", s.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.Present(s)
}

// Meta returns the descriptive metadata of a symbol from a short chart window.
func (c *Client) Meta(ctx context.Context, ticker string) (models.SeriesMeta, error) {
	res, err := c.chart(ctx, ticker, "5d", string(domrepo.Interval1d))
	if err != nil {
		return models.SeriesMeta{}, err
	}
	return models.SeriesMeta{
		Currency:     res.Meta.Currency,
		ExchangeName: res.Meta.ExchangeName,
		Timezone:     res.Meta.ExchangeTimezoneName,
		ShortName:    res.Meta.ShortName,
		LongName:     res.Meta.LongName,
	}, nil
}

func (c *Client) chart(ctx context.Context, symbol, rng, interval string) (*chartResult, error) {
	var body chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: url.Values{
			"range":    {rng},
			"interval": {interval},
			"events":   {"div,splits"},
		},
	}, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, fmt.Errorf("chart %s: status %d", symbol, se.Code)
		}
		return nil, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if body.Chart.Error != nil {
		return nil, body.Chart.Error
	}
	if len(body.Chart.Result) == 0 {
		return nil, ErrNoRows
	}
	return &body.Chart.Result[0], nil
}

var _ domrepo.MarketData = (*Client)(nil)
