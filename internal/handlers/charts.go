package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"
	"vr-eyetracking/internal/roi"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// markAreaAlpha is the opacity of region overlays on the gaze scatter.
const markAreaAlpha = 0.15

type ChartsHandler struct {
	log      *zap.Logger
	analysis *services.AnalysisService
}

func NewChartsHandler(log *zap.Logger, analysis *services.AnalysisService) *ChartsHandler {
	return &ChartsHandler{log: log, analysis: analysis}
}

// Get returns echarts options for the dwell bar chart and the gaze scatter of
// a stored recording.
func (h *ChartsHandler) Get(c *gin.Context) {
	source := c.DefaultQuery("source", services.SourceCalibrated)
	report, err := h.analysis.AnalyzeStored(c.Request.Context(), c.Param("version"), keyFromPath(c), source)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	title := fmt.Sprintf("%s / %s / %s", c.Param("group"), c.Param("subject"), c.Param("task"))
	dwellJSON, err := json.Marshal(generateDwellChart(report, title).JSON())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	gazeJSON, err := json.Marshal(generateGazeChart(report, title).JSON())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	timeline, err := repository.GetCalibrationTimeline(c.Request.Context(), c.Param("group"), c.Param("subject"), c.Param("task"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	historyJSON, err := json.Marshal(generateHistoryChart(timeline, title).JSON())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  report.Source,
		"dwell":   json.RawMessage(dwellJSON),
		"gaze":    json.RawMessage(gazeJSON),
		"history": json.RawMessage(historyJSON),
	})
}

// generateDwellChart plots the time spent inside each region. With a
// calibration present raw and calibrated dwell are shown side by side.
func generateDwellChart(report *services.Report, title string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Dwell time per region",
			Subtitle: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Region"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Seconds"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	ids := make([]string, 0, len(report.Regions))
	for _, r := range report.Regions {
		ids = append(ids, r.ID)
	}
	bar.SetXAxis(ids)

	if report.Comparison == nil {
		items := make([]opts.BarData, 0, len(report.Regions))
		for _, r := range report.Regions {
			items = append(items, opts.BarData{
				Name:      r.ID,
				Value:     report.Stats[r.ID].DurationInside,
				ItemStyle: &opts.ItemStyle{Color: roi.ColorFor(r.Type)},
			})
		}
		bar.AddSeries(report.Source, items)
		return bar
	}

	deltas := make(map[string]models.RegionDelta, len(report.Comparison.Regions))
	for _, d := range report.Comparison.Regions {
		deltas[d.RegionID] = d
	}
	raw := make([]opts.BarData, 0, len(report.Regions))
	calibrated := make([]opts.BarData, 0, len(report.Regions))
	for _, r := range report.Regions {
		d := deltas[r.ID]
		raw = append(raw, opts.BarData{Name: r.ID, Value: d.RawDuration})
		calibrated = append(calibrated, opts.BarData{
			Name:      r.ID,
			Value:     d.CalibratedDuration,
			ItemStyle: &opts.ItemStyle{Color: roi.ColorFor(r.Type)},
		})
	}
	bar.AddSeries(services.SourceRaw, raw, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9E9E9E"}))
	bar.AddSeries(services.SourceCalibrated, calibrated)
	return bar
}

// generateGazeChart scatters the gaze samples in normalized image space with
// the keyword and instruction regions shaded underneath.
func generateGazeChart(report *services.Report, title string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Gaze trajectory",
			Subtitle: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "x", Min: 0, Max: 1}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "y", Min: 0, Max: 1}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	items := make([]opts.ScatterData, 0, len(report.Trajectory))
	for _, p := range report.Trajectory {
		items = append(items, opts.ScatterData{Value: []interface{}{p.X, p.Y, p.Timestamp}, SymbolSize: 4})
	}

	areas := make([]opts.MarkAreaNameCoordItem, 0, len(report.Regions))
	for _, r := range report.Regions {
		if r.Type == models.RegionBackground {
			continue
		}
		rect := r.NormalizedCoords
		areas = append(areas, opts.MarkAreaNameCoordItem{
			Name:        r.ID,
			Coordinate0: []interface{}{rect.X, rect.Y},
			Coordinate1: []interface{}{rect.X + rect.Width, rect.Y + rect.Height},
			ItemStyle:   &opts.ItemStyle{Color: overlayColor(r)},
		})
	}

	scatter.AddSeries("gaze", items).
		SetSeriesOptions(charts.WithMarkAreaNameCoordItemOpts(areas...))
	return scatter
}

// generateHistoryChart plots every calibration parameter across versions.
func generateHistoryChart(data []repository.CalibrationTimelinePoint, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Calibration history",
			Subtitle: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Version"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	versions := make([]string, 0, len(data))
	series := map[string][]opts.LineData{}
	for _, p := range data {
		versions = append(versions, fmt.Sprintf("v%d", p.Version))
		series[calibration.ParamOffsetX] = append(series[calibration.ParamOffsetX], opts.LineData{Value: p.OffsetX})
		series[calibration.ParamOffsetY] = append(series[calibration.ParamOffsetY], opts.LineData{Value: p.OffsetY})
		series[calibration.ParamTrimStart] = append(series[calibration.ParamTrimStart], opts.LineData{Value: p.TrimStart})
		series[calibration.ParamTrimEnd] = append(series[calibration.ParamTrimEnd], opts.LineData{Value: p.TrimEnd})
	}
	line.SetXAxis(versions)
	for _, name := range []string{calibration.ParamOffsetX, calibration.ParamOffsetY, calibration.ParamTrimStart, calibration.ParamTrimEnd} {
		line.AddSeries(name, series[name])
	}
	line.SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

// overlayColor turns a region's hex color into a translucent rgba string.
func overlayColor(r models.ROIRegion) string {
	col, err := roi.ParseHexColor(r.Color)
	if err != nil {
		col, _ = roi.ParseHexColor(roi.ColorFor(r.Type))
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", col.R, col.G, col.B, markAreaAlpha)
}
