package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/screengrab/internal/capture"
	"github.com/bryanchriswhite/screengrab/internal/config"
	"github.com/bryanchriswhite/screengrab/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "screengrab",
		Short: "screengrab - enumerate and capture monitors and windows",
		Long: `screengrab lists the monitors and top-level windows of the current desktop
and captures them as PNG or JPEG images.

Backends:
  • x11       X11 sessions (RandR, Composite)
  • wayland   Wayland sessions via xdg-desktop-portal, geometry from XWayland
  • gdi       Windows
  • portable  any other platform (no window listing)

The backend is chosen from XDG_SESSION_TYPE and WAYLAND_DISPLAY unless
--backend overrides it.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// set by setup for every command
	configMgr *config.Manager
	cfg       *config.Config
	router    *capture.Router
)

// flag name -> config key
var boundFlags = map[string]string{
	"backend":          "backend",
	"log-level":        "log_level",
	"log-pretty":       "log_pretty",
	"scale-to-logical": "scale_to_logical",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/screengrab/config.yaml)")
	flags.String("backend", "", "capture backend (auto, x11, wayland, gdi, portable)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", true, "human-readable log output")
	flags.Bool("scale-to-logical", false, "resample captures from physical to logical pixels")
}

// setup loads configuration, applies flags and builds the capture router
func setup(cmd *cobra.Command, args []string) error {
	var err error
	configMgr, err = config.NewManager(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	for name, key := range boundFlags {
		if err := configMgr.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	if f := cmd.Flags().Lookup("port"); f != nil {
		if err := configMgr.BindFlag("server_port", f); err != nil {
			return err
		}
	}

	cfg, err = configMgr.Get()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	opts, err := cfg.CaptureOptions()
	if err != nil {
		return err
	}
	router = capture.NewRouter(opts)

	logger.WithComponent("cli").Debug().
		Str("config", configMgr.GetConfigPath()).
		Str("backend", string(router.Backend())).
		Msg("Configuration loaded")
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
