package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/wasmview/renderer"
	"github.com/olekukonko/tablewriter"
)

func sessionStatsTable(stats renderer.SessionStats) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Session", "Style", "Requested", "Allowed", "Density", "Ticks", "Frames", "Failed", "Reallocations", "FPS"})

	style, requested, allowed, density := "-", "-", "-", "-"
	if stats.Dimensions.Allowed() != (renderer.Size{}) {
		style = stats.Style.String()
		requested = fmt.Sprintf("%dx%d", stats.Dimensions.RequestedWidth, stats.Dimensions.RequestedHeight)
		allowed = stats.Dimensions.Allowed().String()
		density = fmt.Sprintf("%d", stats.Dimensions.Density)
	}

	table.Append([]string{
		stats.ID,
		style,
		requested,
		allowed,
		density,
		fmt.Sprintf("%d", stats.Ticks),
		fmt.Sprintf("%d", stats.Frames),
		fmt.Sprintf("%d", stats.FailedFrames),
		fmt.Sprintf("%d", stats.Reallocations),
		renderer.FormatFrameRate(stats.FrameRate, stats.HasFrameRate),
	})

	table.Render()
	return buf.String()
}

func displaySessionStats(stats renderer.SessionStats) {
	logger.Noticef("session statistics\n%s", sessionStatsTable(stats))
	if stats.Err != nil {
		logger.Errorf("render loop stopped: %v", stats.Err)
	}
}
