package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"videofetch/models"
)

func newLookupCommand(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lookup <url>",
		Short: "Print the selected streams for a video URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(root)
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			resp, err := a.lookup.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderLookup(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON response")
	return cmd
}

func renderLookup(w io.Writer, resp *models.LookupResponse) {
	fmt.Fprintf(w, "%s (%s)\n", resp.Title, resp.Duration)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Slot", "Type", "Format", "Ext", "Quality", "Size"})

	if e := resp.Streams.VideoAudio; e != nil {
		t.AppendRow(table.Row{"best", e.Type, e.FormatID, e.Ext, e.Resolution, e.Size})
	}
	if e := resp.Streams.Progressive360; e != nil {
		t.AppendRow(table.Row{"360p", e.Type, e.FormatID, e.Ext, e.Resolution, e.Size})
	}
	for _, e := range resp.Streams.Video {
		t.AppendRow(table.Row{"video", e.Type, e.FormatID, e.Ext, e.Resolution, e.Size})
	}
	for _, e := range resp.Streams.Audio {
		t.AppendRow(table.Row{"audio", e.Type, e.FormatID, e.Ext, e.ABR, e.Size})
	}
	t.Render()
}
