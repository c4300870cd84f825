// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Renderer kinds accepted by Render.
const (
	KindHourly   = "hourly"
	KindLocation = "location"
	KindType     = "type"
	KindCameras  = "cameras"
)

// Render writes the named chart as a self-contained HTML document. An
// unknown kind is an error so the HTTP layer can 404 it.
func Render(w io.Writer, kind string, hourly MultiSeries, location, types, cameras Series) error {
	switch kind {
	case KindHourly:
		return RenderHourlyLine(w, hourly)
	case KindLocation:
		return RenderLocationBar(w, location)
	case KindType:
		return RenderTypePie(w, types)
	case KindCameras:
		return RenderCameraBar(w, cameras)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
}

// RenderHourlyLine renders the 24-hour in/out flow as a two-series line
// chart. An empty series set (multi-day view) renders an empty axis
// rather than failing.
func RenderHourlyLine(w io.Writer, ms MultiSeries) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Hourly Flow", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Hourly In/Out Flow"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(ms.Labels)
	for _, s := range ms.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		)
	}
	return line.Render(w)
}

// RenderLocationBar renders per-location event totals as a bar chart.
func RenderLocationBar(w io.Writer, s Series) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Events by Location", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Events by Location"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.BarData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(s.Labels).
		AddSeries(s.Name, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar.Render(w)
}

// RenderTypePie renders the per-type breakdown as a pie chart.
func RenderTypePie(w io.Writer, s Series) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Events by Type", Width: "700px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Events by Type"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	data := make([]opts.PieData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.PieData{Name: s.Labels[i], Value: v}
	}
	pie.AddSeries(s.Name, data,
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}),
	)
	return pie.Render(w)
}

// RenderCameraBar renders the busiest cameras as a bar chart.
func RenderCameraBar(w io.Writer, s Series) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Busiest Cameras", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Busiest Cameras"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	data := make([]opts.BarData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.BarData{Value: v}
	}
	bar.SetXAxis(s.Labels).
		AddSeries(s.Name, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar.Render(w)
}
