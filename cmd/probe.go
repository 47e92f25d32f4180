// Package cmd implements the command-line interface for vidra.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidra-app/vidra/color"
	"github.com/vidra-app/vidra/icon"
	"github.com/vidra-app/vidra/probe"
	"github.com/vidra-app/vidra/style"
)

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.AddCommand(probeSchemaCmd)

	probeCmd.Flags().BoolP("json", "j", false, "Format the report as JSON")
	probeCmd.SetOut(os.Stdout)
	probeSchemaCmd.SetOut(os.Stdout)
}

// probeCmd reports what the capability selector makes of a stream URL.
var probeCmd = &cobra.Command{
	Use:     "probe URL",
	Short:   "Inspect a stream URL and report per-platform playback capability",
	Args:    cobra.ExactArgs(1),
	Example: "  vidra probe https://cdn.example.com/show.x265.mkv --json",
	Run: func(cmd *cobra.Command, args []string) {
		report := probe.Inspect(args[0])

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(report))
			return
		}

		faintLabel := style.Faint
		value := style.Fg(color.Yellow)
		orDash := func(s string) string {
			if s == "" {
				return style.Faint("-")
			}
			return value(s)
		}

		cmd.Println(style.Title(" Capability Report "))
		cmd.Println()
		cmd.Printf("  %s  %s\n", faintLabel("URL        "), report.URL)
		cmd.Printf("  %s  %s\n", faintLabel("Container  "), orDash(report.Container))
		cmd.Printf("  %s  %s\n", faintLabel("Video codec"), orDash(report.VideoCodec))
		cmd.Printf("  %s  %s\n", faintLabel("Audio codec"), orDash(report.AudioCodec))
		cmd.Println()

		for _, v := range report.Platforms {
			verdict := fmt.Sprintf("%s native", icon.Get(icon.Success))
			if v.Fallback {
				verdict = fmt.Sprintf("%s fallback", icon.Get(icon.Fail))
			}
			cmd.Printf("  %s  %s\n", faintLabel(fmt.Sprintf("%-11s", v.Platform)), verdict)
		}

		cmd.Println()
		cmd.Printf("  %s  %s\n", faintLabel("Suggested  "), style.Bold(report.SuggestedBackend))
	},
}

// probeSchemaCmd emits the JSON schema of the probe report for tooling.
var probeSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit the JSON schema of the capability report",
	Run: func(cmd *cobra.Command, args []string) {
		schema := jsonschema.Reflect(&probe.Report{})
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		lo.Must0(encoder.Encode(schema))
	},
}
