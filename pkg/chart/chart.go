// Package chart renders reward curves as standalone HTML pages.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/boristopalov/rlplayground/pkg/memory"
)

// DefaultWindow is the moving average window used when a run sets none
const DefaultWindow = 50

// Run is one reward series, typically a session's training episodes
type Run struct {
	Name    string
	Rewards []float64
	Window  int
}

// RenderRewards writes an HTML page with a line per run and its moving average
func RenderRewards(w io.Writer, title string, runs ...Run) error {
	if len(runs) == 0 {
		return errors.New("chart: no runs to render")
	}

	longest := 0
	for _, r := range runs {
		longest = max(longest, len(r.Rewards))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "reward"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Top: "bottom"}),
	)

	episodes := make([]string, 0, longest)
	for i := 1; i <= longest; i++ {
		episodes = append(episodes, fmt.Sprintf("%d", i))
	}
	line = line.SetXAxis(episodes)

	for _, r := range runs {
		window := r.Window
		if window < 1 {
			window = DefaultWindow
		}
		line.AddSeries(r.Name, lineData(r.Rewards))
		line.AddSeries(fmt.Sprintf("%s (avg %d)", r.Name, window), lineData(memory.MovingAverage(r.Rewards, window)))
	}

	page := components.NewPage()
	page.AddCharts(
		line,
	)
	return page.Render(w)
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.LineData{Value: v})
	}
	return items
}
