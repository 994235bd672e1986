package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"backoffice-core/internal/entity"
	"backoffice-core/pkg/logger"

	"golang.org/x/time/rate"
)

// Config holds the vendor API settings.
type Config struct {
	BaseURL             string        `mapstructure:"base_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	KlineHistoryYears   int           `mapstructure:"kline_history_years"`
}

// Client talks to the market data vendor. Calls are rate limited so bursty
// fanouts stay under the vendor's throttling.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// NewClient builds a vendor client from config.
func NewClient(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:     log,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build vendor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vendor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("vendor returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode vendor response: %w", err)
	}
	return nil
}

// FetchStockList pulls the whole quote universe for one market. The response
// is the raw vendor frame; adapters normalize it per market.
func (c *Client) FetchStockList(ctx context.Context, market entity.Market) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("market", string(market))
	params.Set("pn", "1")
	params.Set("pz", "10000")

	var frame ListFrame
	if err := c.getJSON(ctx, "/api/qt/clist/get", params, &frame); err != nil {
		return nil, err
	}
	if len(frame.Data.Diff) == 0 {
		return nil, fmt.Errorf("vendor returned an empty frame for market %s", market)
	}
	return frame.Data.Diff, nil
}

// FetchSectorList pulls the industry or concept rollup universe.
func (c *Client) FetchSectorList(ctx context.Context, kind SectorKind) ([]map[string]interface{}, error) {
	params := url.Values{}
	params.Set("kind", string(kind))
	params.Set("pn", "1")
	params.Set("pz", "2000")

	var frame ListFrame
	if err := c.getJSON(ctx, "/api/qt/clist/get", params, &frame); err != nil {
		return nil, err
	}
	if len(frame.Data.Diff) == 0 {
		return nil, fmt.Errorf("vendor returned an empty %s frame", kind)
	}
	return frame.Data.Diff, nil
}

// FetchSectorConstituents returns the stock codes belonging to one sector.
func (c *Client) FetchSectorConstituents(ctx context.Context, kind SectorKind, sectorCode string) ([]string, error) {
	params := url.Values{}
	params.Set("kind", string(kind))
	params.Set("code", sectorCode)

	var frame ListFrame
	if err := c.getJSON(ctx, "/api/qt/clist/constituents", params, &frame); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(frame.Data.Diff))
	for _, row := range frame.Data.Diff {
		if code, ok := row[ColCode].(string); ok && code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// FetchKline1D pulls daily candles for one security over [begin, end].
func (c *Client) FetchKline1D(ctx context.Context, stockCode string, begin, end time.Time) ([]KlineRow, error) {
	params := url.Values{}
	params.Set("secid", stockCode)
	params.Set("klt", "101")
	params.Set("fqt", "1")
	params.Set("beg", begin.Format("20060102"))
	params.Set("end", end.Format("20060102"))

	var frame KlineFrame
	if err := c.getJSON(ctx, "/api/qt/stock/kline/get", params, &frame); err != nil {
		return nil, err
	}
	if frame.Data == nil {
		return nil, fmt.Errorf("vendor returned no kline data for %s", stockCode)
	}
	return ParseKlines(frame.Data.Klines, c.logger)
}
