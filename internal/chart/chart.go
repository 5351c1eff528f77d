package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// MaxPSNR caps the plotted PSNR; a lossless point would otherwise be +Inf.
const MaxPSNR = 100.0

// Point is the quality of one reconstruction.
type Point struct {
	Label      string
	Components int
	PSNR       float64
	SSIM       float64
}

// Spectrum renders the singular values and their cumulative energy share as a
// dual-axis line chart.
func Spectrum(w io.Writer, title string, s []float64) error {
	var total float64
	for _, v := range s {
		total += v * v
	}

	xAxisData := make([]string, len(s))
	valueData := make([]opts.LineData, len(s))
	energyData := make([]opts.LineData, len(s))
	var acc float64
	for i, v := range s {
		acc += v * v
		cumulative := 100.0
		if total > 0 {
			cumulative = acc / total * 100
		}
		xAxisData[i] = fmt.Sprintf("%d", i+1)
		valueData[i] = opts.LineData{Value: v}
		energyData[i] = opts.LineData{Value: cumulative}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Singular values and cumulative energy",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Component",
			Type: "category",
			Data: xAxisData,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Singular value",
			Type: "log",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
	)
	line.SetXAxis(xAxisData)
	line.AddSeries("Singular value", valueData,
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)

	// Extend Y-axis for dual axis (must be done before adding the second series)
	line.ExtendYAxis(opts.YAxis{
		Name: "Energy (%)",
		Type: "value",
		Min:  0,
		Max:  100,
		AxisLabel: &opts.AxisLabel{
			Formatter: "{value}%",
		},
	})
	line.AddSeries("Cumulative energy (%)", energyData,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			YAxisIndex: 1,
		}),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line.Render(w)
}

// Sweep renders PSNR and SSIM against the number of components kept.
// points are drawn in the given order.
func Sweep(w io.Writer, title string, points []Point) error {
	xAxisData := make([]string, len(points))
	psnrData := make([]opts.LineData, len(points))
	ssimData := make([]opts.LineData, len(points))
	for i, p := range points {
		xAxisData[i] = fmt.Sprintf("%d", p.Components)
		psnrData[i] = opts.LineData{Value: math.Min(p.PSNR, MaxPSNR), Name: p.Label}
		ssimData[i] = opts.LineData{Value: p.SSIM, Name: p.Label}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Reconstruction quality by components kept",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Components",
			Type: "category",
			Data: xAxisData,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "PSNR (dB)",
			Type: "value",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)
	line.SetXAxis(xAxisData)
	line.AddSeries("PSNR (dB)", psnrData,
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	line.ExtendYAxis(opts.YAxis{
		Name: "SSIM",
		Type: "value",
		Min:  0,
		Max:  1,
	})
	line.AddSeries("SSIM", ssimData,
		charts.WithLineChartOpts(opts.LineChart{
			YAxisIndex: 1,
		}),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line.Render(w)
}
