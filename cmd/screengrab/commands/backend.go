package commands

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanchriswhite/screengrab/internal/capture"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Show the selected capture backend",
	Long: `Show which capture backend would serve the next request, the backends
compiled into this binary, and the session variables used to choose one.`,
	Args: cobra.NoArgs,
	RunE: runBackend,
}

var sessionVars = []string{"XDG_SESSION_TYPE", "WAYLAND_DISPLAY", "DISPLAY"}

func init() {
	rootCmd.AddCommand(backendCmd)
}

func runBackend(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-18s %s\n", "Selected:", router.Backend())
	fmt.Fprintf(out, "%-18s %s\n", "Available:", joinKinds(router.Available()))
	fmt.Fprintf(out, "%-18s %s/%s\n", "Platform:", runtime.GOOS, runtime.GOARCH)
	for _, name := range sessionVars {
		v := os.Getenv(name)
		if v == "" {
			v = "(unset)"
		}
		fmt.Fprintf(out, "%-18s %s\n", name+":", v)
	}
	return nil
}

func joinKinds(kinds []capture.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
