package marketdata

import (
	"fmt"
	"strings"
	"time"
)

// Period is a chart window as requested by clients.
type Period string

const (
	Period1D  Period = "1D"
	Period1W  Period = "1W"
	Period1M  Period = "1M"
	Period6M  Period = "6M"
	PeriodYTD Period = "YTD"
	Period1Y  Period = "1Y"
	Period5Y  Period = "5Y"

	DefaultPeriod = Period1Y
)

// Periods lists every supported period, shortest first.
func Periods() []Period {
	return []Period{Period1D, Period1W, Period1M, Period6M, PeriodYTD, Period1Y, Period5Y}
}

// ParsePeriod accepts the values above case-insensitively; empty means DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	switch p := Period(s); p {
	case Period1D, Period1W, Period1M, Period6M, PeriodYTD, Period1Y, Period5Y:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// yahooParams maps a period to Yahoo's range and interval.
func (p Period) yahooParams() (rng, interval string) {
	switch p {
	case Period1D:
		return "1d", "5m"
	case Period1W:
		return "7d", "5m"
	case Period1M:
		return "1mo", "30m"
	case Period6M:
		return "6mo", "1d"
	case PeriodYTD:
		return "ytd", "1d"
	case Period5Y:
		return "5y", "1wk"
	default:
		return "1y", "1d"
	}
}

// intraday reports whether bars of this period carry a time of day.
func (p Period) intraday() bool {
	switch p {
	case Period1D, Period1W, Period1M:
		return true
	}
	return false
}

// window returns the start of the period ending at now.
func (p Period) window(now time.Time) time.Time {
	switch p {
	case Period1D:
		return now.AddDate(0, 0, -1)
	case Period1W:
		return now.AddDate(0, 0, -7)
	case Period1M:
		return now.AddDate(0, -1, 0)
	case Period6M:
		return now.AddDate(0, -6, 0)
	case PeriodYTD:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	case Period5Y:
		return now.AddDate(-5, 0, 0)
	default:
		return now.AddDate(-1, 0, 0)
	}
}

func formatBarTime(ts int64, intraday bool) string {
	t := time.Unix(ts, 0).UTC()
	if intraday {
		return t.Format(time.RFC3339)
	}
	return t.Format("2006-01-02")
}
