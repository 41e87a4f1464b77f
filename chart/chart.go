// Package chart renders price history as an interactive candlestick page.
package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"stock-lookup/models"
)

// NoData is shown instead of a chart when no bar survives filtering.
const NoData = "No valid price data available"

const (
	chartWidth   = "1100px"
	klineHeight  = "480px"
	volumeHeight = "200px"

	colorBull       = "#26a69a"
	colorBear       = "#ef5350"
	colorBackground = "#ffffff"
)

// Series is the chart-ready form of a bar list. All slices have equal length.
type Series struct {
	Dates   []string
	Candles []opts.KlineData
	Volumes []opts.BarData
}

func (s Series) Len() int { return len(s.Dates) }

// Valid reports whether a bar can be drawn: every price positive and the
// range not inverted.
func Valid(b models.Bar) bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.High >= b.Low
}

// Prepare drops invalid bars and builds the candlestick and volume series.
// Volume bars take the bull color when the session closed at or above its open.
func Prepare(bars []models.Bar) Series {
	s := Series{
		Dates:   make([]string, 0, len(bars)),
		Candles: make([]opts.KlineData, 0, len(bars)),
		Volumes: make([]opts.BarData, 0, len(bars)),
	}
	for _, b := range bars {
		if !Valid(b) {
			continue
		}
		color := colorBear
		if b.Close >= b.Open {
			color = colorBull
		}
		s.Dates = append(s.Dates, b.Date)
		s.Candles = append(s.Candles, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
		s.Volumes = append(s.Volumes, opts.BarData{
			Value:     b.Volume,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.6)},
		})
	}
	return s
}

// Render writes a full HTML page for symbol. An empty series still renders
// a page carrying the NoData message.
func Render(w io.Writer, symbol, period string, bars []models.Bar) error {
	s := Prepare(bars)
	title := fmt.Sprintf("%s %s", strings.ToUpper(symbol), period)

	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)

	if s.Len() == 0 {
		page.PageTitle = fmt.Sprintf("%s: %s", title, NoData)
		page.AddCharts(emptyChart(title))
		return page.Render(w)
	}

	page.AddCharts(klineChart(title, s), volumeChart(s))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart for %s: %w", symbol, err)
	}
	return nil
}

func initOpts(height string) opts.Initialization {
	return opts.Initialization{
		Theme:           types.ThemeWesteros,
		Width:           chartWidth,
		Height:          height,
		BackgroundColor: colorBackground,
	}
}

func klineChart(title string, s Series) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(klineHeight)),
		charts.WithTitleOpts(opts.Title{Title: title, Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)
	kline.SetXAxis(s.Dates)
	kline.AddSeries("Price", s.Candles)
	return kline
}

func volumeChart(s Series) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(volumeHeight)),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
	)
	bar.SetXAxis(s.Dates)
	bar.AddSeries("Volume", s.Volumes)
	return bar
}

func emptyChart(title string) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts(klineHeight)),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: NoData, Left: "center", Top: "40%"}),
	)
	return kline
}
