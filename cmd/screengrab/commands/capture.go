package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/screengrab/internal/output"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a monitor, window or area",
	Long: `Capture one frame and write it as PNG or JPEG.

Without a target the primary monitor is captured. --area is relative to
the monitor chosen with --monitor (the primary monitor by default);
--region is in virtual-desktop coordinates. Areas that do not fit inside
their monitor or the desktop are rejected, never clamped.`,
	Example: `  # Capture the primary monitor into the configured output directory
  screengrab capture

  # Capture every monitor
  screengrab capture --all

  # Capture a window (ids come from 'screengrab windows') to a file
  screengrab capture --window 0x3a00007 -o editor.png

  # Capture a 400x300 area of monitor 2, offset 100,50, as JPEG to stdout
  screengrab capture --monitor 2 --area 100,50,400,300 --format jpeg --stdout > area.jpg`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

var (
	captureMonitor string
	captureWindow  string
	captureArea    string
	captureRegion  string
	captureAll     bool
	captureOutput  string
	captureDir     string
	captureFormat  string
	captureStdout  bool
)

func init() {
	rootCmd.AddCommand(captureCmd)

	flags := captureCmd.Flags()
	flags.StringVarP(&captureMonitor, "monitor", "m", "", "monitor id (default: primary)")
	flags.StringVarP(&captureWindow, "window", "w", "", "window id, decimal or 0x hex")
	flags.StringVar(&captureArea, "area", "", "X,Y,WIDTH,HEIGHT relative to the monitor")
	flags.StringVar(&captureRegion, "region", "", "X,Y,WIDTH,HEIGHT in virtual-desktop coordinates")
	flags.BoolVar(&captureAll, "all", false, "capture every monitor")
	flags.StringVarP(&captureOutput, "output", "o", "", "output file (format from extension)")
	flags.StringVar(&captureDir, "dir", "", "output directory (default: output.dir)")
	flags.StringVar(&captureFormat, "format", "", "png or jpeg (default: output.format)")
	flags.BoolVar(&captureStdout, "stdout", false, "write the image to stdout")

	captureCmd.MarkFlagsMutuallyExclusive("window", "area", "region", "all")
	captureCmd.MarkFlagsMutuallyExclusive("window", "monitor")
	captureCmd.MarkFlagsMutuallyExclusive("region", "monitor")
	captureCmd.MarkFlagsMutuallyExclusive("output", "stdout", "dir")
}

// frame is one capture job
type frame struct {
	name string
	grab func() (*screen.Image, error)
}

func runCapture(cmd *cobra.Command, args []string) error {
	enc := cfg.Encoding()
	if captureFormat != "" {
		format, err := output.ParseFormat(captureFormat)
		if err != nil {
			return err
		}
		enc.Format = format
	}

	jobs, err := captureJobs()
	if err != nil {
		return err
	}
	if (captureStdout || captureOutput != "") && len(jobs) > 1 {
		return fmt.Errorf("--all writes several images; use --dir instead")
	}

	var out output.Output
	switch {
	case captureStdout:
		out = output.NewWriterOutput(enc, cmd.OutOrStdout())
	default:
		dir := captureDir
		if dir == "" {
			dir = cfg.Output.Dir
		}
		fo := output.NewFileOutput(enc, dir)
		fo.Path = captureOutput
		out = fo
	}

	for _, job := range jobs {
		img, err := job.grab()
		if err != nil {
			return fmt.Errorf("failed to capture %s: %w", job.name, err)
		}
		where, err := out.WriteFrame(job.name, img)
		if err != nil {
			return err
		}
		if !captureStdout {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%dx%d\t%s\n", job.name, img.Width, img.Height, where)
		}
	}
	return nil
}

func captureJobs() ([]frame, error) {
	switch {
	case captureWindow != "":
		id, err := parseID(captureWindow)
		if err != nil {
			return nil, err
		}
		return []frame{{
			name: fmt.Sprintf("window-%#x", id),
			grab: func() (*screen.Image, error) { return router.CaptureWindow(id) },
		}}, nil

	case captureRegion != "":
		r, err := parseRect(captureRegion)
		if err != nil {
			return nil, err
		}
		return []frame{{
			name: fmt.Sprintf("region-%d_%d_%dx%d", r.X, r.Y, r.Width, r.Height),
			grab: func() (*screen.Image, error) { return router.Capture(screen.RegionTarget{Region: r}) },
		}}, nil

	case captureAll:
		monitors, err := router.ListMonitors()
		if err != nil {
			return nil, err
		}
		jobs := make([]frame, 0, len(monitors))
		for _, m := range monitors {
			id := m.ID
			jobs = append(jobs, frame{
				name: fmt.Sprintf("monitor-%d", id),
				grab: func() (*screen.Image, error) { return router.CaptureScreen(id) },
			})
		}
		return jobs, nil
	}

	id, err := monitorID()
	if err != nil {
		return nil, err
	}
	if captureArea != "" {
		a, err := parseRect(captureArea)
		if err != nil {
			return nil, err
		}
		return []frame{{
			name: fmt.Sprintf("monitor-%d-area-%d_%d_%dx%d", id, a.X, a.Y, a.Width, a.Height),
			grab: func() (*screen.Image, error) {
				return router.CaptureScreenArea(id, a.X, a.Y, a.Width, a.Height)
			},
		}}, nil
	}
	return []frame{{
		name: fmt.Sprintf("monitor-%d", id),
		grab: func() (*screen.Image, error) { return router.CaptureScreen(id) },
	}}, nil
}

// monitorID returns --monitor or the primary monitor's id
func monitorID() (uint32, error) {
	if captureMonitor != "" {
		return parseID(captureMonitor)
	}
	monitors, err := router.ListMonitors()
	if err != nil {
		return 0, err
	}
	m, ok := screen.PrimaryMonitor(monitors)
	if !ok {
		return 0, screen.NewError("find primary monitor", screen.ErrNotFound, nil)
	}
	return m.ID, nil
}

// parseID accepts decimal or 0x-prefixed hex
func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint32(id), nil
}

// parseRect reads X,Y,WIDTH,HEIGHT
func parseRect(s string) (screen.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return screen.Rect{}, fmt.Errorf("invalid area %q (want X,Y,WIDTH,HEIGHT)", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return screen.Rect{}, fmt.Errorf("invalid area %q: %w", s, err)
		}
		v[i] = n
	}
	return screen.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
