package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/achilleasa/wasmview/wasm"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// List the imports, exports and negotiation styles of a render module.
func Inspect(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	bg := context.Background()
	binary, err := fetchModule(bg, ctx)
	if err != nil {
		return err
	}

	info, err := wasm.Inspect(bg, binary)
	if err != nil {
		return err
	}

	logger.Noticef("module %s\n%s", ctx.Args().First(), moduleInfoTable(info))
	if info.Problem != nil {
		return info.Problem
	}
	return nil
}

func moduleInfoTable(info *wasm.Info) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Kind", "Module", "Name", "Signature"})
	for _, fn := range info.Imports {
		table.Append([]string{"import", fn.Module, fn.Name, fn.Signature})
	}
	for _, fn := range info.Exports {
		table.Append([]string{"export", "", fn.Name, fn.Signature})
	}

	styles := make([]string, 0, len(info.Styles))
	for _, style := range info.Styles {
		styles = append(styles, style.String())
	}
	if len(styles) == 0 {
		styles = append(styles, "none")
	}

	maxPages := "unbounded"
	if info.MaxPages != 0 {
		maxPages = fmt.Sprintf("%d", info.MaxPages)
	}
	table.SetFooter([]string{
		"",
		fmt.Sprintf("pages %d/%s", info.MinPages, maxPages),
		"styles",
		strings.Join(styles, ", "),
	})

	table.Render()
	return buf.String()
}
