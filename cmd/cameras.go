package cmd

import (
	"fmt"

	"emotion/processing/capture"

	"github.com/spf13/cobra"
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "List camera devices ffmpeg can read from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := capture.ListCameras()
		if err != nil {
			return fmt.Errorf("failed to list cameras: %w", err)
		}

		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cameras found")
			return nil
		}

		for _, d := range devices {
			marker := " "
			if d == cfg.GetDeviceID() {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(camerasCmd)
}
