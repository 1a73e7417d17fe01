package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-layouts/pkg/device"
)

func newDeviceCmd(root *rootOptions) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "device [user-agent]",
		Short: "Classify a User-Agent or viewport width",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := device.New(device.WithBreakpoints(root.cfg.Breakpoints))
			out := cmd.OutOrStdout()

			if width > 0 {
				bp := detector.Breakpoints().ForWidth(width)
				printKeyValue(out, "width", strconv.Itoa(width))
				printKeyValue(out, "breakpoint", bp.Name)
				printKeyValue(out, "min width", strconv.Itoa(bp.MinWidth))
				return nil
			}

			ua := ""
			if len(args) == 1 {
				ua = args[0]
			}
			result := detector.Detect(ua)
			printKeyValue(out, "type", string(result.Type))
			printKeyValue(out, "breakpoint", result.Breakpoint)
			printKeyValue(out, "min width", strconv.Itoa(result.MinWidth))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "resolve the breakpoint for a viewport width instead")
	return cmd
}
