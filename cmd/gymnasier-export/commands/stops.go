package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gymnasier-export/internal/resrobot"
	"gymnasier-export/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stopsCmd)
}

var stopsCmd = &cobra.Command{
	Use:   "stops <query>",
	Short: "Lists the stops ResRobot finds for a query and marks the one an export would pick.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			fatal("failed to load config", err)
		}
		err = cfg.Validate()
		if err != nil {
			fatal("failed to validate config", err)
		}
		output, err := newOutput(cfg)
		if err != nil {
			fatal("failed to create http dump dir", err)
		}

		query := strings.Join(args, " ")
		client := newTransportClient(cfg, output, telemetry.SlogAPI{})
		stops, err := client.SearchStops(cmd.Context(), query)
		if err != nil {
			fatal("failed to search stops", err)
		}
		renderStops(os.Stdout, query, stops)
	},
}

func renderStops(w io.Writer, query string, stops []resrobot.Stop) {
	selected, ok := resrobot.SelectStop(stops)

	t := newTable(w)
	t.AppendHeader(table.Row{"Picked", "ID", "Name", "Similarity"})
	for _, stop := range stops {
		picked := ""
		if ok && stop == selected {
			picked = "*"
		}
		t.AppendRow(table.Row{
			picked,
			stop.ExtId,
			stop.Name,
			fmt.Sprintf("%.2f", resrobot.Similarity(query, stop.Name)),
		})
	}
	t.Render()
}
