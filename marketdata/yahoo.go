package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"stock-lookup/config"
	"stock-lookup/models"
)

const crumbKey = "yahoo:crumb"

// quoteModules are requested from quoteSummary and flattened in this order.
var quoteModules = []string{"price", "summaryDetail", "quoteType", "defaultKeyStatistics", "assetProfile", "fundProfile"}

// Yahoo talks to the Yahoo Finance JSON API. It needs a session cookie and
// a crumb; the crumb is kept in a small TTL cache and refreshed on 401/403.
type Yahoo struct {
	client   *resty.Client
	cfg      config.Yahoo
	sessions *ristretto.Cache
	logger   *zap.Logger
}

func NewYahoo(cfg config.Yahoo, timeout time.Duration, logger *zap.Logger) (*Yahoo, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	sessions, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        100,
		MaxCost:            10,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(timeout).
		SetBaseURL(cfg.QueryURL).
		SetCookieJar(jar).
		SetHeader("User-Agent", cfg.UserAgent)

	return &Yahoo{client: client, cfg: cfg, sessions: sessions, logger: logger}, nil
}

func (y *Yahoo) Info(ctx context.Context, ticker string) (models.RawRecord, error) {
	body, status, err := y.get(ctx, "/v10/finance/quoteSummary/{symbol}", ticker, map[string]string{
		"modules": strings.Join(quoteModules, ","),
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	if !gjson.ValidBytes(body) {
		return nil, upstreamError("invalid response format for %s", ticker)
	}

	if code := gjson.GetBytes(body, "quoteSummary.error.code").String(); code != "" || status >= http.StatusBadRequest {
		if strings.EqualFold(code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		desc := gjson.GetBytes(body, "quoteSummary.error.description").String()
		return nil, upstreamError("quoteSummary %s: status %d %s", ticker, status, desc)
	}

	result := gjson.GetBytes(body, "quoteSummary.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return flattenQuoteSummary(result), nil
}

func (y *Yahoo) History(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	rng, interval := period.yahooParams()
	body, status, err := y.get(ctx, "/v8/finance/chart/{symbol}", ticker, map[string]string{
		"range":    rng,
		"interval": interval,
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	if !gjson.ValidBytes(body) {
		return nil, upstreamError("invalid response format for %s", ticker)
	}

	if code := gjson.GetBytes(body, "chart.error.code").String(); code != "" || status >= http.StatusBadRequest {
		if strings.EqualFold(code, "Not Found") {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
		}
		return nil, upstreamError("chart %s: status %d %s", ticker, status, gjson.GetBytes(body, "chart.error.description").String())
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return chartBars(result, period.intraday()), nil
}

// get performs an authenticated GET and returns the raw body and status.
func (y *Yahoo) get(ctx context.Context, path, ticker string, params map[string]string) ([]byte, int, error) {
	crumb, err := y.crumb(ctx)
	if err != nil {
		return nil, 0, err
	}

	y.logger.Debug("yahoo request", zap.String("path", path), zap.String("ticker", ticker))

	resp, err := y.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetPathParam("symbol", ticker).
		SetQueryParams(params).
		SetQueryParam("crumb", crumb).
		Get(path)
	if err != nil {
		return nil, 0, upstreamError("request %s: %v", ticker, err)
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		y.sessions.Del(crumbKey)
		return nil, resp.StatusCode(), upstreamError("yahoo rejected session for %s: %s", ticker, resp.Status())
	}
	return resp.Body(), resp.StatusCode(), nil
}

func (y *Yahoo) crumb(ctx context.Context) (string, error) {
	if v, ok := y.sessions.Get(crumbKey); ok {
		if crumb, ok := v.(string); ok {
			return crumb, nil
		}
	}

	// The home page only sets the session cookie; its status is irrelevant.
	if _, err := y.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		Get(y.cfg.HomeURL); err != nil {
		return "", upstreamError("failed to get cookie: %v", err)
	}

	resp, err := y.client.R().
		SetContext(ctx).
		SetHeader("Origin", y.cfg.HomeURL).
		SetHeader("Referer", y.cfg.HomeURL+"/").
		Get("/v1/test/getcrumb")
	if err != nil {
		return "", upstreamError("failed to get crumb: %v", err)
	}

	crumb := strings.TrimSpace(resp.String())
	if resp.IsError() || crumb == "" || strings.Contains(crumb, "html") {
		return "", upstreamError("invalid crumb received (status %d)", resp.StatusCode())
	}

	y.sessions.SetWithTTL(crumbKey, crumb, 1, y.cfg.SessionTTL)
	y.sessions.Wait()
	return crumb, nil
}

// flattenQuoteSummary merges the quoteSummary modules into one record.
// {"raw": x} becomes x and {} becomes nil; a missing value never replaces
// a present one from an earlier module.
func flattenQuoteSummary(result gjson.Result) models.RawRecord {
	record := models.RawRecord{}
	for _, module := range quoteModules {
		result.Get(module).ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if name == "maxAge" {
				return true
			}
			v, ok := flattenValue(value)
			if !ok {
				return true
			}
			if prev, seen := record[name]; seen && IsMissing(v) && !IsMissing(prev) {
				return true
			}
			record[name] = v
			return true
		})
	}
	return record
}

func flattenValue(v gjson.Result) (any, bool) {
	switch {
	case v.IsObject():
		if raw := v.Get("raw"); raw.Exists() {
			return raw.Value(), true
		}
		if len(v.Map()) == 0 {
			return nil, true
		}
		return nil, false
	case v.IsArray():
		return nil, false
	default:
		return v.Value(), true
	}
}

func chartBars(result gjson.Result, intraday bool) []models.Bar {
	timestamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	bars := make([]models.Bar, 0, len(timestamps))
	for i, ts := range timestamps {
		c := at(closes, i)
		if c.Type == gjson.Null {
			continue
		}
		bars = append(bars, models.Bar{
			Date:   formatBarTime(ts.Int(), intraday),
			Open:   at(opens, i).Float(),
			High:   at(highs, i).Float(),
			Low:    at(lows, i).Float(),
			Close:  c.Float(),
			Volume: at(volumes, i).Float(),
		})
	}
	return bars
}

func at(values []gjson.Result, i int) gjson.Result {
	if i < len(values) {
		return values[i]
	}
	return gjson.Result{}
}
