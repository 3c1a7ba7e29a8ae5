package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/odometry/internal/kinematics"
	"github.com/banshee-data/odometry/internal/trajectory"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func pathData(t *trajectory.Trajectory) []opts.ScatterData {
	if t == nil {
		return nil
	}
	data := make([]opts.ScatterData, 0, t.Len())
	for _, pt := range t.Points {
		data = append(data, opts.ScatterData{Value: []interface{}{pt.Pose.X, pt.Pose.Y, pt.Time}})
	}
	return data
}

// headingData plots θ wrapped to (-π, π]; the filter itself never wraps.
func headingData(t *trajectory.Trajectory) []opts.LineData {
	if t == nil {
		return nil
	}
	data := make([]opts.LineData, 0, t.Len())
	for _, pt := range t.Points {
		data = append(data, opts.LineData{Value: []interface{}{pt.Time, kinematics.WrapAngle(pt.Pose.Theta)}})
	}
	return data
}

// WriteHTML renders an interactive page with the x/y path of both
// trajectories and their heading over time.
func WriteHTML(w io.Writer, title string, filtered, baseline *trajectory.Trajectory) error {
	path := charts.NewScatter()
	path.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Robot path", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "x (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "y (m)", NameLocation: "middle", NameGap: 30}),
	)
	path.AddSeries(FilteredLabel, pathData(filtered), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	path.AddSeries(BaselineLabel, pathData(baseline), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	heading := charts.NewLine()
	heading.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Heading"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "theta (rad)", NameLocation: "middle", NameGap: 40}),
	)
	heading.AddSeries(FilteredLabel, headingData(filtered))
	heading.AddSeries(BaselineLabel, headingData(baseline))

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(path, heading)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
