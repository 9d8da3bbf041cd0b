package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/screengrab/internal/api"
	"github.com/bryanchriswhite/screengrab/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the screengrab HTTP server",
	Long: `Start an HTTP server exposing monitor and window enumeration and
on-demand captures as a REST API, plus a WebSocket endpoint that answers
capture requests with encoded frames.`,
	Example: `  # Start server on default port (8080)
  screengrab serve

  # Start server on custom port
  screengrab serve --port 9090

  # Start with debug logging
  screengrab serve --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "server port (default: server_port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	fmt.Println("📸 screengrab - monitor and window capture server")
	fmt.Println("==================================================")

	log.Info().
		Str("config", configMgr.GetConfigPath()).
		Str("backend", string(router.Backend())).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println()
	fmt.Println("✅ screengrab is running!")
	fmt.Printf("   - API: http://localhost:%d/api\n", cfg.ServerPort)
	fmt.Printf("   - WebSocket: ws://localhost:%d/api/ws\n", cfg.ServerPort)
	fmt.Println("   - Press Ctrl+C to stop")
	fmt.Println()

	server := api.NewServer(router, cfg.Encoding())
	if err := server.Start(ctx, cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Shut down gracefully")
	return nil
}
