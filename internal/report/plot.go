package report

import (
	"fmt"
	"image/color"
	"io"

	"github.com/banshee-data/odometry/internal/trajectory"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Legend labels used in every rendering.
const (
	FilteredLabel = "ekf"
	BaselineLabel = "input"
)

var (
	filteredColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	baselineColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// PathPlot builds the x/y path plot for the filtered and baseline
// trajectories. Either may be nil or empty.
func PathPlot(filtered, baseline *trajectory.Trajectory) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Robot path"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	series := []struct {
		label string
		traj  *trajectory.Trajectory
		color color.Color
		dash  bool
	}{
		{FilteredLabel, filtered, filteredColor, false},
		{BaselineLabel, baseline, baselineColor, true},
	}
	for _, s := range series {
		if s.traj == nil || s.traj.Len() == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, s.traj.Len())
		for _, pt := range s.traj.Points {
			pts = append(pts, plotter.XY{X: pt.Pose.X, Y: pt.Pose.Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", s.label, err)
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		if s.dash {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		}
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG renders the path plot as a PNG to w.
func WritePNG(w io.Writer, filtered, baseline *trajectory.Trajectory) error {
	p, err := PathPlot(filtered, baseline)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
