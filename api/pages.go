package api

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"stock-lookup/chart"
	"stock-lookup/marketdata"
	"stock-lookup/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const notAvailable = "N/A"

var templateFuncs = template.FuncMap{
	"text":    formatText,
	"number":  formatNumber,
	"price":   formatPrice,
	"large":   formatLarge,
	"percent": formatPercent,
	"ratio":   formatRatio,
	"date":    formatDate,
	"trend":   trend,
}

type stockView struct {
	Symbol  string
	Detail  *models.Detail
	Error   string
	Period  marketdata.Period
	Periods []marketdata.Period
}

func (s *Server) indexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Query": c.Query("query")})
}

func (s *Server) stockPage(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	period, err := marketdata.ParsePeriod(c.Query("period"))
	if err != nil {
		period = marketdata.DefaultPeriod
	}
	page := stockView{Symbol: symbol, Period: period, Periods: marketdata.Periods()}

	if symbol == "" {
		page.Error = msgSymbolRequired
		c.HTML(http.StatusBadRequest, "stock.html", page)
		return
	}

	detail, err := s.loadDetail(c.Request.Context(), symbol)
	if err != nil {
		status := http.StatusInternalServerError
		var le *lookupError
		if errors.As(err, &le) {
			status = le.status
		}
		page.Error = err.Error()
		c.HTML(status, "stock.html", page)
		return
	}
	page.Detail = &detail
	c.HTML(http.StatusOK, "stock.html", page)
}

func (s *Server) chartPage(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	period, err := marketdata.ParsePeriod(c.Query("period"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.Source.History(c.Request.Context(), symbol, period)
	switch {
	case errors.Is(err, marketdata.ErrNotFound):
		c.String(http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.internalError(c, "History", err)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, symbol, string(period), bars); err != nil {
		s.internalError(c, "Render", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func formatText(v null.String) string {
	if !v.Valid || v.String == "" {
		return notAvailable
	}
	return v.String
}

func formatNumber(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(2)
}

func formatPrice(v null.Float, currency null.String) string {
	if !v.Valid {
		return notAvailable
	}
	out := decimal.NewFromFloat(v.Float64).StringFixed(2)
	if currency.Valid && currency.String != "" {
		out += " " + currency.String
	}
	return out
}

// formatLarge abbreviates to trillions, billions or millions, e.g. 1.23B.
// Smaller values are printed whole with thousands separators.
func formatLarge(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	d := decimal.NewFromFloat(v.Float64)
	for _, unit := range largeUnits {
		if d.Abs().GreaterThanOrEqual(unit.size) {
			return d.Div(unit.size).StringFixed(2) + unit.suffix
		}
	}
	return groupThousands(d.Round(0).String())
}

var largeUnits = []struct {
	size   decimal.Decimal
	suffix string
}{
	{decimal.NewFromInt(1_000_000_000_000), "T"},
	{decimal.NewFromInt(1_000_000_000), "B"},
	{decimal.NewFromInt(1_000_000), "M"},
}

func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return sign + b.String()
}

// formatPercent renders a value that is already in percent.
func formatPercent(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	return decimal.NewFromFloat(v.Float64).StringFixed(2) + "%"
}

// formatRatio renders a fraction (0.12) as a percentage (12.00%).
func formatRatio(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	return decimal.NewFromFloat(v.Float64).Shift(2).StringFixed(2) + "%"
}

// formatDate renders epoch seconds as a calendar date.
func formatDate(v null.Float) string {
	if !v.Valid {
		return notAvailable
	}
	return time.Unix(int64(v.Float64), 0).UTC().Format("2006-01-02")
}

func trend(v null.Float) string {
	switch {
	case !v.Valid:
		return "flat"
	case v.Float64 > 0:
		return "up"
	case v.Float64 < 0:
		return "down"
	}
	return "flat"
}
