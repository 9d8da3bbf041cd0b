package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List monitors",
	Long: `List the monitors attached to the current desktop with their geometry,
rotation, scale factor and refresh rate. Exactly one monitor is primary.`,
	Example: `  # List monitors in table format (default)
  screengrab monitors

  # List monitors in JSON format
  screengrab monitors --format json`,
	Args: cobra.NoArgs,
	RunE: runMonitors,
}

var monitorsAtCmd = &cobra.Command{
	Use:   "at X Y",
	Short: "Show the monitor containing a point",
	Long:  `Show the monitor whose bounds contain the virtual-desktop point (X, Y).`,
	Example: `  # Which monitor contains the point 2500,300?
  screengrab monitors at 2500 300`,
	Args: cobra.ExactArgs(2),
	RunE: runMonitorsAt,
}

var monitorsFormat string

func init() {
	rootCmd.AddCommand(monitorsCmd)
	monitorsCmd.AddCommand(monitorsAtCmd)

	monitorsCmd.PersistentFlags().StringVarP(&monitorsFormat, "format", "f", "table", "output format (table or json)")
}

func runMonitors(cmd *cobra.Command, args []string) error {
	monitors, err := router.ListMonitors()
	if err != nil {
		return fmt.Errorf("failed to list monitors: %w", err)
	}
	return printMonitors(cmd.OutOrStdout(), monitorsFormat, monitors)
}

func runMonitorsAt(cmd *cobra.Command, args []string) error {
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid x: %s", args[0])
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid y: %s", args[1])
	}

	m, err := router.MonitorFromPoint(x, y)
	if err != nil {
		return err
	}
	return printMonitors(cmd.OutOrStdout(), monitorsFormat, []screen.Monitor{m})
}

func printMonitors(out io.Writer, format string, monitors []screen.Monitor) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(monitors)
	case "table":
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", format)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tNAME\tPOSITION\tSIZE\tROTATION\tSCALE\tHZ\tPRIMARY")
	fmt.Fprintln(w, "--\t----\t--------\t----\t--------\t-----\t--\t-------")

	for _, m := range monitors {
		primary := "No"
		if m.IsPrimary {
			primary = "Yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%d,%d\t%dx%d\t%d\t%.2f\t%.2f\t%s\n",
			m.ID, m.Name, m.X, m.Y, m.Width, m.Height, m.Rotation, m.ScaleFactor, m.Frequency, primary)
	}
	return nil
}
